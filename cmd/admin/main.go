package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"foundry.ai/internal/foundry/catalogs"
	"foundry.ai/internal/foundry/engine"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/foundry/tuning"
	"foundry.ai/internal/persistence/indexdb"
	persistlog "foundry.ai/internal/persistence/log"
	"foundry.ai/internal/persistence/snapshot"
	"foundry.ai/internal/platform/logger"
	"foundry.ai/internal/protocol"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <station|tier|deposit|export|show|audit> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	args := os.Args[2:]
	switch os.Args[1] {
	case "station":
		stationCmd(args)
	case "tier":
		tierCmd(args)
	case "deposit":
		depositCmd(args)
	case "export":
		exportCmd(args)
	case "show":
		showCmd(args)
	case "audit":
		auditCmd(args)
	default:
		usage()
	}
}

type common struct {
	dataDir   *string
	configDir *string
}

func commonFlags(fs *flag.FlagSet) common {
	return common{
		dataDir:   fs.String("data", "./data", "runtime data directory"),
		configDir: fs.String("configs", "./configs", "config directory"),
	}
}

// open builds an engine over the SQLite store in the data directory.
func (c common) open() (*engine.Engine, *indexdb.SQLiteStore, *catalogs.Catalogs) {
	cats, err := catalogs.Load(*c.configDir)
	if err != nil {
		fail("load catalogs", err)
	}
	tune, err := tuning.Load(filepath.Join(*c.configDir, "tuning.yaml"))
	if os.IsNotExist(err) {
		tune, err = tuning.Defaults(), nil
	}
	if err != nil {
		fail("load tuning", err)
	}
	db, err := indexdb.OpenSQLite(filepath.Join(*c.dataDir, "foundry.sqlite"))
	if err != nil {
		fail("open sqlite", err)
	}
	audit := persistlog.NewAuditLogger(*c.dataDir)
	eng, err := engine.New(engine.Config{
		Tuning:   tune,
		Catalogs: cats,
		Store:    db,
		Logger:   logger.Nop(),
		Audit:    engine.MultiAudit{db, audit},
	})
	if err != nil {
		fail("engine", err)
	}
	closers = append(closers, audit.Close, db.Close)
	return eng, db, cats
}

var closers []func() error

func closeAll() {
	for _, c := range closers {
		_ = c()
	}
}

func stationCmd(args []string) {
	fs := flag.NewFlagSet("station", flag.ExitOnError)
	c := commonFlags(fs)
	id := fs.String("id", "", "station id (required)")
	owner := fs.String("owner", "", "owner caller id")
	kind := fs.String("kind", model.StationKindFoundry, "station kind")
	level := fs.Int("level", 1, "station level")
	tier := fs.Int("tier", 0, "upgrade tier")
	res := fs.String("res", "", "balances: KIND=N,KIND=N")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		fmt.Fprintln(os.Stderr, "missing -id")
		os.Exit(2)
	}
	amounts, err := parseResources(*res)
	if err != nil {
		fail("bad -res", err)
	}
	balances := map[string]int{}
	for _, r := range amounts {
		balances[r.Kind] += r.Amount
	}

	eng, _, _ := c.open()
	defer closeAll()
	err = eng.SyncStation(context.Background(), engine.StationUpdate{
		ID: *id, Owner: *owner, Kind: *kind, Level: *level, UpgradeTier: *tier, Balances: balances,
	})
	if err != nil {
		fail("sync station", err)
	}
	fmt.Println("ok")
}

func tierCmd(args []string) {
	fs := flag.NewFlagSet("tier", flag.ExitOnError)
	c := commonFlags(fs)
	id := fs.String("station", "", "station id (required)")
	tier := fs.Int("tier", 0, "upgrade tier")
	_ = fs.Parse(args)

	eng, _, _ := c.open()
	defer closeAll()
	if err := eng.SetUpgradeTier(context.Background(), *id, *tier); err != nil {
		fail("set tier", err)
	}
	fmt.Println("ok")
}

func depositCmd(args []string) {
	fs := flag.NewFlagSet("deposit", flag.ExitOnError)
	c := commonFlags(fs)
	id := fs.String("station", "", "station id (required)")
	res := fs.String("res", "", "resources: KIND=N,KIND=N (required)")
	_ = fs.Parse(args)
	amounts, err := parseResources(*res)
	if err != nil || len(amounts) == 0 {
		fail("bad -res", err)
	}

	eng, _, _ := c.open()
	defer closeAll()
	if err := eng.Deposit(context.Background(), *id, amounts); err != nil {
		fail("deposit", err)
	}
	fmt.Println("ok")
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	c := commonFlags(fs)
	out := fs.String("out", "", "snapshot path (default: next snapshot in <data>/snapshots)")
	_ = fs.Parse(args)

	_, db, cats := c.open()
	defer closeAll()
	dir := filepath.Join(*c.dataDir, "snapshots")
	_, seq, _, err := snapshot.LatestSnapshot(dir)
	if err != nil {
		fail("scan snapshots", err)
	}
	seq++
	path := strings.TrimSpace(*out)
	if path == "" {
		path = filepath.Join(dir, snapshot.FileName(seq))
	}

	st, err := db.Export(context.Background())
	if err != nil {
		fail("export", err)
	}
	snap := snapshot.FromState(snapshot.Header{Seq: seq, CreatedAt: time.Now().Unix(), RecipesDigest: cats.Recipes.Digest}, st)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		fail("write snapshot", err)
	}
	if err := db.RecordSnapshot(path, snap); err != nil {
		fail("record snapshot", err)
	}
	fmt.Printf("wrote %s (stations=%d items=%d)\n", path, len(snap.Stations), len(snap.Items))
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	c := commonFlags(fs)
	id := fs.String("station", "", "station id (required)")
	_ = fs.Parse(args)

	eng, db, _ := c.open()
	defer closeAll()
	ctx := context.Background()

	var st model.Station
	err := db.View(ctx, func(v engine.View) error {
		s, ok, err := v.Station(*id)
		if err != nil {
			return err
		}
		if !ok {
			return protocol.Errorf(protocol.ErrStationNotFound, "station %s not found", *id)
		}
		st = s
		return nil
	})
	if err != nil {
		fail("show", err)
	}
	items, err := eng.GetStationItems(ctx, *id)
	if err != nil {
		fail("items", err)
	}
	pct, err := eng.GetCraftingMultiplier(ctx, *id)
	if err != nil {
		fail("multiplier", err)
	}
	out := struct {
		Station    model.Station `json:"station"`
		Multiplier int           `json:"next_multiplier_percent"`
		Items      []model.Item  `json:"items"`
	}{st, pct, items}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	station := fs.String("station", "", "filter by station id (optional)")
	_ = fs.Parse(args)

	files, err := filepath.Glob(filepath.Join(*dataDir, "audit", "audit-*.jsonl.zst"))
	if err != nil {
		fail("glob", err)
	}
	sort.Strings(files)
	enc := json.NewEncoder(os.Stdout)
	for _, f := range files {
		err := persistlog.ReadAuditFile(f, func(e engine.AuditEntry) error {
			if *station != "" && e.StationID != *station {
				return nil
			}
			return enc.Encode(e)
		})
		if err != nil {
			fail("read audit", err)
		}
	}
}

// parseResources reads "KIND=N,KIND=N".
func parseResources(s string) ([]protocol.ResourceAmount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []protocol.ResourceAmount
	for _, part := range strings.Split(s, ",") {
		kind, n, ok := strings.Cut(strings.TrimSpace(part), "=")
		kind = strings.TrimSpace(kind)
		if !ok || kind == "" {
			return nil, fmt.Errorf("expected KIND=N, got %q", part)
		}
		v, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || v < 0 {
			return nil, fmt.Errorf("bad amount in %q", part)
		}
		out = append(out, protocol.ResourceAmount{Kind: kind, Amount: v})
	}
	return out, nil
}

func fail(what string, err error) {
	closeAll()
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
