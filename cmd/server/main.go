package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"foundry.ai/internal/foundry/catalogs"
	"foundry.ai/internal/foundry/engine"
	"foundry.ai/internal/foundry/tuning"
	"foundry.ai/internal/metrics"
	"foundry.ai/internal/persistence/indexdb"
	persistlog "foundry.ai/internal/persistence/log"
	"foundry.ai/internal/persistence/memstore"
	"foundry.ai/internal/persistence/snapshot"
	"foundry.ai/internal/platform/config"
	"foundry.ai/internal/platform/logger"
	"foundry.ai/internal/protocol"
	"foundry.ai/internal/transport/ws"
)

// envConfig overrides flags when set.
type envConfig struct {
	Addr    string `env:"FOUNDRY_ADDR"`
	DataDir string `env:"FOUNDRY_DATA"`
	Backend string `env:"FOUNDRY_BACKEND"`
	LogMode string `env:"FOUNDRY_LOG_MODE"`
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		backend    = flag.String("backend", "memory", "record store: memory | sqlite")
		logMode    = flag.String("log_mode", "dev", "log encoder: dev | prod")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (memory backend, optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	var ec envConfig
	if err := config.ParseEnv(&ec); err != nil {
		panic(err)
	}
	override(addr, ec.Addr)
	override(dataDir, ec.DataDir)
	override(backend, ec.Backend)
	override(logMode, ec.LogMode)

	log, err := logger.New(*logMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		log.Fatal("load catalogs", "err", err)
	}
	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if os.IsNotExist(err) {
		log.Warn("tuning not found; using defaults", "path", tp)
		tune, err = tuning.Defaults(), nil
	}
	if err != nil {
		log.Fatal("load tuning", "err", err)
	}

	auditLog := persistlog.NewAuditLogger(*dataDir)
	defer auditLog.Close()
	sinks := engine.MultiAudit{auditLog}

	var (
		store engine.Store
		mem   *memstore.Store
		seq   uint64
	)
	switch *backend {
	case "memory":
		mem = memstore.New()
		store = mem
		seq, err = restore(mem, *dataDir, strings.TrimSpace(*snapPath), *loadLatest, cats.Recipes.Digest, log)
		if err != nil {
			log.Fatal("restore snapshot", "err", err)
		}
	case "sqlite":
		db, err := indexdb.OpenSQLite(filepath.Join(*dataDir, "foundry.sqlite"))
		if err != nil {
			log.Fatal("open sqlite", "err", err)
		}
		defer db.Close()
		if err := db.UpsertCatalogs(cats, tune); err != nil {
			log.Warn("upsert catalogs", "err", err)
		}
		store = db
		sinks = append(sinks, db)
	default:
		log.Fatal("unknown backend", "backend", *backend)
	}

	m := metrics.NewCollector("foundry")
	eng, err := engine.New(engine.Config{
		Tuning:   tune,
		Catalogs: cats,
		Store:    store,
		Logger:   log.With("component", "engine"),
		Metrics:  m,
		Audit:    sinks,
	})
	if err != nil {
		log.Fatal("engine", "err", err)
	}

	validator, err := protocol.NewValidator()
	if err != nil {
		log.Fatal("schemas", "err", err)
	}
	digests := protocol.CatalogDigests{RecipesDigest: cats.Recipes.Digest, TuningDigest: tuningDigest(tune)}
	wsSrv := ws.NewServer(eng, validator, digests, log.With("component", "ws"))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("listening", "addr", *addr, "backend", *backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if mem != nil && tune.SnapshotEverySeconds > 0 {
		g.Go(func() error {
			t := time.NewTicker(time.Duration(tune.SnapshotEverySeconds) * time.Second)
			defer t.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-t.C:
					seq++
					if err := writeSnapshot(mem, *dataDir, seq, cats.Recipes.Digest); err != nil {
						log.Error("snapshot write", "err", err)
					}
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
	}
	if mem != nil {
		seq++
		if err := writeSnapshot(mem, *dataDir, seq, cats.Recipes.Digest); err != nil {
			log.Error("final snapshot", "err", err)
		} else {
			log.Info("final snapshot written", "seq", seq)
		}
	}
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func snapshotDir(dataDir string) string { return filepath.Join(dataDir, "snapshots") }

// restore loads a snapshot into mem and returns its seq.
func restore(mem *memstore.Store, dataDir, path string, latest bool, recipesDigest string, log *logger.Logger) (uint64, error) {
	if path == "" && latest {
		p, _, ok, err := snapshot.LatestSnapshot(snapshotDir(dataDir))
		if err != nil {
			return 0, err
		}
		if ok {
			path = p
		}
	}
	if path == "" {
		return 0, nil
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return 0, err
	}
	if snap.Header.RecipesDigest != "" && snap.Header.RecipesDigest != recipesDigest {
		log.Warn("snapshot taken under different recipes", "snapshot", snap.Header.RecipesDigest, "current", recipesDigest)
	}
	if err := mem.Import(snap.State()); err != nil {
		return 0, err
	}
	log.Info("resumed from snapshot", "path", filepath.Base(path), "stations", len(snap.Stations), "items", len(snap.Items))
	return snap.Header.Seq, nil
}

func writeSnapshot(mem *memstore.Store, dataDir string, seq uint64, recipesDigest string) error {
	h := snapshot.Header{Seq: seq, CreatedAt: time.Now().Unix(), RecipesDigest: recipesDigest}
	return snapshot.WriteSnapshot(filepath.Join(snapshotDir(dataDir), snapshot.FileName(seq)), snapshot.FromState(h, mem.Export()))
}

func tuningDigest(t tuning.Tuning) string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

