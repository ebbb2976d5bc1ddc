// Package persistence stores completed runs and layout advice in SQLite
// (default) or PostgreSQL.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run or advice record does not exist.
var ErrNotFound = errors.New("not found")

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB wraps a sqlx connection for run persistence.
type DB struct {
	conn   *sqlx.DB
	driver string
}

// Open opens or creates a run store. driver is "sqlite" or "postgres".
func Open(driver, dsn string) (*DB, error) {
	var (
		conn *sqlx.DB
		err  error
	)
	switch driver {
	case "sqlite":
		conn, err = sqlx.Open("sqlite", sqliteDSN(dsn))
	case "postgres":
		conn, err = sqlx.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Debug("run store opened", "driver", driver)
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the driver name the store was opened with.
func (db *DB) Driver() string { return db.driver }

// migrate creates the schema. The DDL sticks to types both drivers accept.
func (db *DB) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			seed BIGINT NOT NULL,
			shoppers INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			layout TEXT NOT NULL,
			heatmap_json TEXT NOT NULL,
			max_count INTEGER NOT NULL,
			dead_spots INTEGER NOT NULL,
			visits BIGINT NOT NULL,
			picks BIGINT NOT NULL,
			trips BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS advice (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			created_at TEXT NOT NULL,
			suggestions_json TEXT NOT NULL,
			layout TEXT NOT NULL,
			changed INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_advice_run ON advice(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun inserts a completed run.
func (db *DB) SaveRun(ctx context.Context, r *Run) error {
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO runs
		(id, created_at, seed, shoppers, ticks, width, height, layout, heatmap_json,
		 max_count, dead_spots, visits, picks, trips)
		VALUES (:id, :created_at, :seed, :shoppers, :ticks, :width, :height, :layout, :heatmap_json,
		 :max_count, :dead_spots, :visits, :picks, :trips)`, r)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	slog.Info("run saved", "id", r.ID, "ticks", r.Ticks, "max_count", r.MaxCount, "dead_spots", r.DeadSpots)
	return nil
}

// GetRun loads a run by ID.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	var r Run
	err := db.conn.GetContext(ctx, &r, db.conn.Rebind("SELECT * FROM runs WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &r, nil
}

// LatestRun returns the most recently saved run.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := db.RecentRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("latest run: %w", ErrNotFound)
	}
	return &runs[0], nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.SelectContext(ctx, &runs,
		db.conn.Rebind("SELECT * FROM runs ORDER BY created_at DESC, id DESC LIMIT ?"),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	return runs, nil
}

// SaveAdvice inserts an advisor response for a run.
func (db *DB) SaveAdvice(ctx context.Context, a *Advice) error {
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO advice
		(id, run_id, created_at, suggestions_json, layout, changed)
		VALUES (:id, :run_id, :created_at, :suggestions_json, :layout, :changed)`, a)
	if err != nil {
		return fmt.Errorf("insert advice %s: %w", a.ID, err)
	}
	return nil
}

// AdviceForRun returns every advice record for a run, oldest first.
func (db *DB) AdviceForRun(ctx context.Context, runID string) ([]Advice, error) {
	var out []Advice
	err := db.conn.SelectContext(ctx, &out,
		db.conn.Rebind("SELECT * FROM advice WHERE run_id = ? ORDER BY created_at, id"),
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("advice for run %s: %w", runID, err)
	}
	return out, nil
}
