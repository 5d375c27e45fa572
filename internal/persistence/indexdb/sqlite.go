// Package indexdb is the SQLite-backed engine.Store.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"foundry.ai/internal/foundry/catalogs"
	"foundry.ai/internal/foundry/engine"
	"foundry.ai/internal/foundry/model"
	"foundry.ai/internal/foundry/tuning"
	"foundry.ai/internal/persistence/memstore"
	"foundry.ai/internal/persistence/snapshot"
)

const (
	schemaVersion = "1"
	metaNextItem  = "next_item_id"
)

type SQLiteStore struct {
	db   *sql.DB
	once sync.Once
}

var (
	_ engine.Store     = (*SQLiteStore)(nil)
	_ engine.AuditSink = (*SQLiteStore)(nil)
)

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: the store is the single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stations (
			id TEXT PRIMARY KEY,
			owner TEXT NOT NULL,
			kind TEXT NOT NULL,
			level INTEGER NOT NULL,
			upgrade_tier INTEGER NOT NULL,
			craft_count INTEGER NOT NULL,
			last_craft_at INTEGER NOT NULL,
			balances_json TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			role TEXT NOT NULL,
			rarity INTEGER NOT NULL,
			crafter_id TEXT NOT NULL,
			crafted_at INTEGER NOT NULL,
			location_kind TEXT NOT NULL,
			location_id TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_location ON items(location_kind, location_id, id);`,
		`CREATE TABLE IF NOT EXISTS audits (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER NOT NULL,
			actor TEXT NOT NULL,
			action TEXT NOT NULL,
			station_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			carrier_id TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_station ON audits(station_id, seq);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY,
			path TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			stations INTEGER NOT NULL,
			items INTEGER NOT NULL
		);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version','` + schemaVersion + `');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}

func (s *SQLiteStore) Update(ctx context.Context, fn func(tx engine.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(&sqlTx{ctx: ctx, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) View(ctx context.Context, fn func(v engine.View) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	return fn(&sqlTx{ctx: ctx, q: tx})
}

type sqlTx struct {
	ctx context.Context
	q   *sql.Tx
}

func (t *sqlTx) Station(id string) (model.Station, bool, error) {
	var st model.Station
	var balances string
	err := t.q.QueryRowContext(t.ctx,
		`SELECT id,owner,kind,level,upgrade_tier,craft_count,last_craft_at,balances_json FROM stations WHERE id=?`, id,
	).Scan(&st.ID, &st.Owner, &st.Kind, &st.Level, &st.UpgradeTier, &st.CraftCount, &st.LastCraftAt, &balances)
	if errors.Is(err, sql.ErrNoRows) {
		return st, false, nil
	}
	if err != nil {
		return st, false, err
	}
	st.Balances = map[string]int{}
	if err := json.Unmarshal([]byte(balances), &st.Balances); err != nil {
		return st, false, fmt.Errorf("station %s balances: %w", id, err)
	}
	if st.Balances == nil {
		st.Balances = map[string]int{}
	}
	return st, true, nil
}

func (t *sqlTx) Item(id string) (model.Item, bool, error) {
	var it model.Item
	var raw string
	err := t.q.QueryRowContext(t.ctx, `SELECT raw_json FROM items WHERE id=?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return it, false, nil
	}
	if err != nil {
		return it, false, err
	}
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		return it, false, fmt.Errorf("item %s: %w", id, err)
	}
	return it, true, nil
}

func (t *sqlTx) ItemsAt(stationID string) ([]string, error) {
	rows, err := t.q.QueryContext(t.ctx,
		`SELECT id FROM items WHERE location_kind=? AND location_id=? ORDER BY id`, string(model.LocStation), stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *sqlTx) PutStation(st model.Station) error {
	if st.ID == "" {
		return fmt.Errorf("station with empty id")
	}
	balances := st.Balances
	if balances == nil {
		balances = map[string]int{}
	}
	b, err := json.Marshal(balances)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(t.ctx,
		`INSERT OR REPLACE INTO stations(id,owner,kind,level,upgrade_tier,craft_count,last_craft_at,balances_json) VALUES(?,?,?,?,?,?,?,?)`,
		st.ID, st.Owner, st.Kind, st.Level, st.UpgradeTier, st.CraftCount, st.LastCraftAt, string(b))
	return err
}

func (t *sqlTx) PutItem(it model.Item) error {
	if it.ID == "" {
		return fmt.Errorf("item with empty id")
	}
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	_, err = t.q.ExecContext(t.ctx,
		`INSERT OR REPLACE INTO items(id,kind,role,rarity,crafter_id,crafted_at,location_kind,location_id,raw_json) VALUES(?,?,?,?,?,?,?,?,?)`,
		it.ID, string(it.Kind), string(it.Role), int(it.Rarity), it.CrafterID, it.CraftedAt,
		string(it.Location.Kind), it.Location.ID, string(raw))
	return err
}

func (t *sqlTx) NextItemID() (string, error) {
	n, err := t.counter()
	if err != nil {
		return "", err
	}
	n++
	if _, err := t.q.ExecContext(t.ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, metaNextItem, strconv.FormatUint(n, 10)); err != nil {
		return "", err
	}
	return model.FormatItemID(n), nil
}

func (t *sqlTx) counter() (uint64, error) {
	var v string
	err := t.q.QueryRowContext(t.ctx, `SELECT value FROM meta WHERE key=?`, metaNextItem).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(v, 10, 64)
}

// WriteAudit appends one committed operation to the audits table.
func (s *SQLiteStore) WriteAudit(e engine.AuditEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO audits(at,actor,action,station_id,item_id,carrier_id,raw_json) VALUES(?,?,?,?,?,?,?)`,
		e.At, e.Actor, e.Action, e.StationID, e.ItemID, e.CarrierID, string(raw))
	return err
}

// RecordSnapshot indexes a snapshot file written elsewhere.
func (s *SQLiteStore) RecordSnapshot(path string, snap snapshot.SnapshotV1) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO snapshots(seq,path,created_at,stations,items) VALUES(?,?,?,?,?)`,
		int64(snap.Header.Seq), path, snap.Header.CreatedAt, len(snap.Stations), len(snap.Items))
	return err
}

// UpsertCatalogs records the recipe catalog and tuning values in effect.
func (s *SQLiteStore) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cats != nil && len(cats.Recipes.Raw) > 0 {
		rows = append(rows, kv{name: "recipes", digest: cats.Recipes.Digest, json: cats.Recipes.Raw})
	}
	{
		b, err := json.Marshal(tune)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// CatalogDigest returns the stored digest of a catalog row.
func (s *SQLiteStore) CatalogDigest(name string) (string, bool, error) {
	var d string
	err := s.db.QueryRow(`SELECT digest FROM catalogs WHERE name=?`, name).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	return d, err == nil, err
}

// Export reads the whole store in one transaction.
func (s *SQLiteStore) Export(ctx context.Context) (memstore.State, error) {
	var out memstore.State
	err := s.View(ctx, func(v engine.View) error {
		t := v.(*sqlTx)
		n, err := t.counter()
		if err != nil {
			return err
		}
		out.NextItemID = n

		ids, err := t.ids(`SELECT id FROM stations ORDER BY id`)
		if err != nil {
			return err
		}
		for _, id := range ids {
			st, _, err := t.Station(id)
			if err != nil {
				return err
			}
			out.Stations = append(out.Stations, st)
		}
		ids, err = t.ids(`SELECT id FROM items ORDER BY id`)
		if err != nil {
			return err
		}
		for _, id := range ids {
			it, _, err := t.Item(id)
			if err != nil {
				return err
			}
			out.Items = append(out.Items, it)
		}
		return nil
	})
	return out, err
}

// Import loads a full state into an empty store.
func (s *SQLiteStore) Import(ctx context.Context, st memstore.State) error {
	return s.Update(ctx, func(tx engine.Tx) error {
		t := tx.(*sqlTx)
		var n int
		if err := t.q.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM stations) + (SELECT COUNT(*) FROM items)`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("import into non-empty store (%d records)", n)
		}
		for _, x := range st.Stations {
			if err := tx.PutStation(x); err != nil {
				return err
			}
		}
		for _, x := range st.Items {
			if err := tx.PutItem(x); err != nil {
				return err
			}
		}
		_, err := t.q.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key,value) VALUES(?,?)`, metaNextItem, strconv.FormatUint(st.NextItemID, 10))
		return err
	})
}

func (t *sqlTx) ids(query string) ([]string, error) {
	rows, err := t.q.QueryContext(t.ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
