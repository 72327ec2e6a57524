package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"craftguard/internal/sim/catalogs"
	"craftguard/internal/sim/session"
	"craftguard/internal/sim/tuning"
)

func TestSQLiteIndex_CraftsAndAchievements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteCraftAudit(session.AuditEntry{TxID: "t1", Time: "2026-03-01T00:00:00Z", PlayerID: "p1", Accepted: true, RecipeID: "torch", Iterations: 2})
	_ = idx.WriteCraftAudit(session.AuditEntry{TxID: "t2", Time: "2026-03-01T00:00:01Z", PlayerID: "p1", Reason: "NO_MATCHING_RECIPE"})
	idx.AwardAchievement("p1", "buildWorkBench")
	idx.AwardAchievement("p1", "buildWorkBench")
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		accepted   int
		recipeID   string
		iterations int
	)
	row := db.QueryRow(`SELECT accepted,recipe_id,iterations FROM crafts WHERE tx_id='t1'`)
	if err := row.Scan(&accepted, &recipeID, &iterations); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if accepted != 1 || recipeID != "torch" || iterations != 2 {
		t.Fatalf("row mismatch: accepted=%d recipe=%q iterations=%d", accepted, recipeID, iterations)
	}

	var reason string
	if err := db.QueryRow(`SELECT reason FROM crafts WHERE tx_id='t2' AND recipe_id IS NULL`).Scan(&reason); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if reason != "NO_MATCHING_RECIPE" {
		t.Fatalf("reason=%q", reason)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM achievements WHERE player_id='p1'`).Scan(&n); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 {
		t.Fatalf("achievements=%d want 1", n)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqCraft}

	_ = s.WriteCraftAudit(session.AuditEntry{TxID: "x"})
	s.AwardAchievement("p1", "diamond")

	st := s.Stats()
	if st.DropCraftTotal != 1 || st.DropAchievementTotal != 1 {
		t.Fatalf("drops craft=%d achievement=%d", st.DropCraftTotal, st.DropAchievementTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer idx.Close()

	if err := idx.UpsertCatalogs("../../../configs", cats, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='recipes'`).Scan(&digest); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if digest != cats.Recipes.Digest {
		t.Fatalf("digest=%q want %q", digest, cats.Recipes.Digest)
	}
}
