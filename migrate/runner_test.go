package migrate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "planner.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRunner(t *testing.T, db *sql.DB, source fstest.MapFS) *Runner {
	t.Helper()

	dialect, err := For("sqlite3")
	if err != nil {
		t.Fatalf("For failed: %v", err)
	}
	runner, err := New(Config{
		DB:      db,
		Source:  source,
		Dialect: dialect,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return runner
}

func plannerSource() fstest.MapFS {
	return fstest.MapFS{
		"20260103120000_create_users.sql": {Data: []byte(`
			CREATE TABLE users (
				id    TEXT PRIMARY KEY,
				email TEXT NOT NULL
			);
		`)},
		"20260103120000_create_users.down.sql": {Data: []byte(`DROP TABLE users;`)},
		"20260110090000_create_events.sql": {Data: []byte(`
			CREATE TABLE events (
				id      TEXT PRIMARY KEY,
				host_id TEXT NOT NULL REFERENCES users(id),
				title   TEXT NOT NULL
			);
		`)},
		"20260110090000_create_events.down.sql": {Data: []byte(`DROP TABLE events;`)},
	}
}

func TestNew_ValidatesConfig(t *testing.T) {
	db := openTestDB(t)
	dialect, _ := For("sqlite3")

	t.Run("missing database", func(t *testing.T) {
		if _, err := New(Config{Source: fstest.MapFS{}, Dialect: dialect}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing source", func(t *testing.T) {
		if _, err := New(Config{DB: db, Dialect: dialect}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing dialect", func(t *testing.T) {
		if _, err := New(Config{DB: db, Source: fstest.MapFS{}}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("history table name rejects injection", func(t *testing.T) {
		_, err := New(Config{DB: db, Source: fstest.MapFS{}, Dialect: dialect, Table: "history; DROP TABLE users"})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestApply_AppliesPendingRevisionsInOrder(t *testing.T) {
	db := openTestDB(t)
	runner := newTestRunner(t, db, plannerSource())

	applied, err := runner.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied %d revisions, want 2", applied)
	}

	// Both schema tables exist and accept writes.
	if _, err := db.Exec(`INSERT INTO users (id, email) VALUES ('u1', 'host@example.com')`); err != nil {
		t.Fatalf("users table not usable: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO events (id, host_id, title) VALUES ('e1', 'u1', 'Launch party')`); err != nil {
		t.Fatalf("events table not usable: %v", err)
	}

	// History carries one row per revision, same run id.
	rows, err := db.Query(`SELECT revision, run_id FROM schema_migrations ORDER BY revision`)
	if err != nil {
		t.Fatalf("reading history: %v", err)
	}
	defer rows.Close()

	var revisions []string
	runIDs := make(map[string]bool)
	for rows.Next() {
		var revision, runID string
		if err := rows.Scan(&revision, &runID); err != nil {
			t.Fatalf("scanning history: %v", err)
		}
		revisions = append(revisions, revision)
		runIDs[runID] = true
	}
	if len(revisions) != 2 || revisions[0] != "20260103120000" || revisions[1] != "20260110090000" {
		t.Fatalf("history revisions %v", revisions)
	}
	if len(runIDs) != 1 {
		t.Fatalf("expected a single run id, got %d", len(runIDs))
	}
}

func TestApply_SecondRunIsNoOp(t *testing.T) {
	db := openTestDB(t)
	runner := newTestRunner(t, db, plannerSource())

	if _, err := runner.Apply(context.Background()); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	applied, err := runner.Apply(context.Background())
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if applied != 0 {
		t.Fatalf("second Apply reported %d revisions, want 0", applied)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("counting history: %v", err)
	}
	if count != 2 {
		t.Fatalf("history has %d rows after double apply, want 2", count)
	}
}

func TestApply_FailingRevisionStopsTheChain(t *testing.T) {
	db := openTestDB(t)
	source := plannerSource()
	source["20260105100000_broken.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE broken (id NONSENSE TYPE (;`)}
	runner := newTestRunner(t, db, source)

	applied, err := runner.Apply(context.Background())
	if err == nil {
		t.Fatal("expected error from broken revision")
	}
	if applied != 1 {
		t.Fatalf("applied %d revisions before failure, want 1", applied)
	}

	// The revision after the broken one was never attempted.
	if _, err := db.Exec(`SELECT * FROM events`); err == nil {
		t.Fatal("events table exists; revisions after a failure must not apply")
	}

	// The broken revision left no history row.
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("counting history: %v", err)
	}
	if count != 1 {
		t.Fatalf("history has %d rows, want 1", count)
	}

	// Recovery: fix the revision and re-run; only pending work applies.
	source["20260105100000_broken.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE tasks (id TEXT PRIMARY KEY);`)}
	applied, err = runner.Apply(context.Background())
	if err != nil {
		t.Fatalf("Apply after fix failed: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied %d revisions after fix, want 2", applied)
	}
}

func TestApply_DetectsChecksumDrift(t *testing.T) {
	db := openTestDB(t)
	source := plannerSource()
	runner := newTestRunner(t, db, source)

	if _, err := runner.Apply(context.Background()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Rewriting an already-applied revision must be refused.
	source["20260103120000_create_users.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE users (id INTEGER);`)}
	drifted := newTestRunner(t, db, source)

	_, err := drifted.Apply(context.Background())
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestRollback_RevertsLastRevision(t *testing.T) {
	db := openTestDB(t)
	runner := newTestRunner(t, db, plannerSource())

	if _, err := runner.Apply(context.Background()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	revision, err := runner.Rollback(context.Background())
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if revision != "20260110090000" {
		t.Fatalf("rolled back %s, want 20260110090000", revision)
	}

	if _, err := db.Exec(`SELECT * FROM events`); err == nil {
		t.Fatal("events table still exists after rollback")
	}
	if _, err := db.Exec(`SELECT * FROM users`); err != nil {
		t.Fatalf("earlier revision was disturbed: %v", err)
	}

	// The reverted revision is pending again.
	applied, err := runner.Apply(context.Background())
	if err != nil {
		t.Fatalf("re-Apply failed: %v", err)
	}
	if applied != 1 {
		t.Fatalf("re-applied %d revisions, want 1", applied)
	}
}

func TestRollback_ErrorsOnFreshSchema(t *testing.T) {
	db := openTestDB(t)
	runner := newTestRunner(t, db, plannerSource())

	_, err := runner.Rollback(context.Background())
	if !errors.Is(err, ErrNothingToRollback) {
		t.Fatalf("expected ErrNothingToRollback, got %v", err)
	}
}

func TestRollback_RequiresDownFile(t *testing.T) {
	db := openTestDB(t)
	source := fstest.MapFS{
		"20260103120000_create_users.sql": {Data: []byte(`CREATE TABLE users (id TEXT);`)},
	}
	runner := newTestRunner(t, db, source)

	if _, err := runner.Apply(context.Background()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	_, err := runner.Rollback(context.Background())
	if !errors.Is(err, ErrNoDownSQL) {
		t.Fatalf("expected ErrNoDownSQL, got %v", err)
	}
}

func TestStatus_ReportsAppliedAndPending(t *testing.T) {
	db := openTestDB(t)
	source := plannerSource()
	runner := newTestRunner(t, db, source)

	statuses, err := runner.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	for _, st := range statuses {
		if st.Applied {
			t.Fatalf("revision %s applied on a fresh schema", st.Revision)
		}
	}

	if _, err := runner.Apply(context.Background()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	source["20260121070000_create_polls.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE polls (id TEXT);`)}
	statuses, err = newTestRunner(t, db, source).Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(statuses))
	}
	if !statuses[0].Applied || !statuses[1].Applied {
		t.Fatal("applied revisions not reported as applied")
	}
	if statuses[0].AppliedAt == "" {
		t.Fatal("applied revision has no applied_at")
	}
	if statuses[2].Applied {
		t.Fatal("pending revision reported as applied")
	}
}
