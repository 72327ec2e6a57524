package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index of crafting audits. Writes are
// queued to a single writer goroutine and dropped when the queue is full;
// the JSONL audit files remain the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropCraft       atomic.Uint64
	dropAchievement atomic.Uint64
}

type reqKind int

const (
	reqCraft reqKind = iota + 1
	reqAchievement
)

type req struct {
	kind reqKind

	craft       session.AuditEntry
	achievement achievementRow
}

type achievementRow struct {
	PlayerID  string
	Name      string
	AwardedAt string
}

type Stats struct {
	QueueDepth           int
	QueueCapacity        int
	DropCraftTotal       uint64
	DropAchievementTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
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
		`CREATE TABLE IF NOT EXISTS crafts (
			tx_id TEXT PRIMARY KEY,
			time TEXT NOT NULL,
			player_id TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			reason TEXT,
			recipe_id TEXT,
			iterations INTEGER NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_crafts_player_time ON crafts(player_id, time);`,
		`CREATE INDEX IF NOT EXISTS idx_crafts_reason ON crafts(reason);`,
		`CREATE TABLE IF NOT EXISTS achievements (
			player_id TEXT NOT NULL,
			name TEXT NOT NULL,
			awarded_at TEXT NOT NULL,
			PRIMARY KEY (player_id, name)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:           len(s.ch),
		QueueCapacity:        cap(s.ch),
		DropCraftTotal:       s.dropCraft.Load(),
		DropAchievementTotal: s.dropAchievement.Load(),
	}
}

// WriteCraftAudit satisfies session.Auditor.
func (s *SQLiteIndex) WriteCraftAudit(entry session.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqCraft, craft: entry}:
	default:
		s.dropCraft.Add(1)
	}
	return nil
}

// AwardAchievement satisfies session.Rewarder. Repeat awards are idempotent.
func (s *SQLiteIndex) AwardAchievement(playerID, name string) {
	if s == nil || s.closed.Load() {
		return
	}
	r := achievementRow{PlayerID: playerID, Name: name, AwardedAt: time.Now().UTC().Format(time.RFC3339Nano)}
	select {
	case s.ch <- req{kind: reqAchievement, achievement: r}:
	default:
		s.dropAchievement.Add(1)
	}
}

// UpsertCatalogs records the catalogs and tuning the server runs with so
// audits can be tied back to the rules that produced them.
func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "items.json")); err == nil {
			rows = append(rows, kv{name: "items_defs", digest: cats.Items.DefsDigest, json: b})
		}
		if b, err := os.ReadFile(filepath.Join(configDir, "recipes.json")); err == nil {
			rows = append(rows, kv{name: "recipes", digest: cats.Recipes.Digest, json: b})
		}
	}
	if b, _ := json.Marshal(cats.Items.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "items_palette", digest: cats.Items.PaletteDigest, json: b})
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertCraft, _ := s.db.Prepare(`INSERT OR REPLACE INTO crafts(tx_id,time,player_id,accepted,reason,recipe_id,iterations,raw_json) VALUES(?,?,?,?,?,?,?,?)`)
	insertAchievement, _ := s.db.Prepare(`INSERT OR IGNORE INTO achievements(player_id,name,awarded_at) VALUES(?,?,?)`)
	defer func() {
		if insertCraft != nil {
			_ = insertCraft.Close()
		}
		if insertAchievement != nil {
			_ = insertAchievement.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqCraft:
			c := r.craft
			if insertCraft == nil {
				continue
			}
			raw, _ := json.Marshal(c)
			accepted := 0
			if c.Accepted {
				accepted = 1
			}
			if _, err := tx.Stmt(insertCraft).Exec(
				c.TxID, c.Time, c.PlayerID, accepted,
				nullable(c.Reason), nullable(c.RecipeID), c.Iterations,
				string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++

		case reqAchievement:
			a := r.achievement
			if insertAchievement == nil {
				continue
			}
			if _, err := tx.Stmt(insertAchievement).Exec(a.PlayerID, a.Name, a.AwardedAt); err != nil {
				rollback()
				continue
			}
			opCount++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
