package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"thumbgrid/internal/logging"
	"thumbgrid/internal/metrics"
)

// defaultTimeout bounds individual index queries.
const defaultTimeout = 5 * time.Second

// DB is the capture time index. It is safe for concurrent use; database/sql
// serializes access to the underlying SQLite handle.
type DB struct {
	db     *sql.DB
	dbPath string
}

// New opens (or creates) the index database inside dir. The directory must
// exist and be writable.
func New(ctx context.Context, dir string) (*DB, error) {
	dbPath := filepath.Join(dir, "capture-index.db")
	logging.Info("Capture index path: %s", dbPath)

	// WAL keeps readers unblocked while the enumerator writes; busy_timeout
	// avoids "database is locked" during bursts.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to index database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	d := &DB{db: db, dbPath: dbPath}
	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index database after init failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	logging.Info("Capture index initialized at %s", dbPath)
	return d, nil
}

func (d *DB) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS capture_times (
		path TEXT PRIMARY KEY,
		mod_time INTEGER NOT NULL,
		taken_at INTEGER,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the index database.
func (d *DB) Close() error {
	return d.db.Close()
}

// LookupCaptureTime returns the indexed capture time for path when the
// stored mod time matches; a stale row is treated as absent so a rewritten
// file is re-read.
func (d *DB) LookupCaptureTime(path string, modTime time.Time) (time.Time, bool, bool, error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.IndexQueriesTotal.WithLabelValues("lookup", status).Inc()
		metrics.IndexQueryDuration.WithLabelValues("lookup").Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var storedMod int64
	var takenAt sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		"SELECT mod_time, taken_at FROM capture_times WHERE path = ?", path,
	).Scan(&storedMod, &takenAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, false, nil
	}
	if err != nil {
		status = "error"
		return time.Time{}, false, false, err
	}

	if storedMod != modTime.Unix() {
		return time.Time{}, false, false, nil
	}
	if !takenAt.Valid {
		return time.Time{}, false, true, nil
	}
	return time.Unix(takenAt.Int64, 0).UTC(), true, true, nil
}

// StoreCaptureTime upserts the capture time (or its absence) for path.
func (d *DB) StoreCaptureTime(path string, modTime time.Time, takenAt time.Time, has bool) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.IndexQueriesTotal.WithLabelValues("store", status).Inc()
		metrics.IndexQueryDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stored sql.NullInt64
	if has {
		stored = sql.NullInt64{Int64: takenAt.Unix(), Valid: true}
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO capture_times (path, mod_time, taken_at, updated_at)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(path) DO UPDATE SET
			mod_time = excluded.mod_time,
			taken_at = excluded.taken_at,
			updated_at = excluded.updated_at
	`, path, modTime.Unix(), stored)
	if err != nil {
		status = "error"
	}
	return err
}

// Forget removes the row for path, used when a file is deleted.
func (d *DB) Forget(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, "DELETE FROM capture_times WHERE path = ?", path)
	return err
}

// Prune drops rows whose path no longer starts with any of the given roots.
// Used on startup when the media directory moves.
func (d *DB) Prune(root string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		"DELETE FROM capture_times WHERE path NOT LIKE ? || '%'", root)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
