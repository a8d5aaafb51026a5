/*
Package sqlite provides a SQLite-backed ingest.Store.

PURPOSE:
  Persists the dashboard State as versioned JSON snapshots, replacing
  the browser's local storage. The audit trail is additionally copied
  into its own table so history survives the in-state cap of
  ingest.MaxAudit entries.

KEY TABLES:
  state_snapshots: one row per committed version (JSON body)
  audit_log:       every audit entry ever saved, deduplicated by ID

RETENTION:
  Only the newest KeepSnapshots versions are kept. The audit log is
  never pruned.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The Controller already
  serializes writers; the mutex covers readers such as AuditLog.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/opsdash.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ctrl, err := ingest.NewController(ctx, store, core.DefaultSettings())

SEE ALSO:
  - ingest/controller.go: Store interface
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/booking-ops/core"
	"github.com/warp/booking-ops/ingest"
)

// KeepSnapshots is the number of state versions retained.
const KeepSnapshots = 50

// Store implements ingest.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Versioned state snapshots
	CREATE TABLE IF NOT EXISTS state_snapshots (
		version INTEGER PRIMARY KEY,
		saved_at TEXT NOT NULL,
		accounts INTEGER NOT NULL,
		bookings INTEGER NOT NULL,
		body TEXT NOT NULL
	);

	-- Full audit history
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		type TEXT NOT NULL,
		msg TEXT NOT NULL,
		version INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_at ON audit_log(at);
	CREATE INDEX IF NOT EXISTS idx_audit_log_type ON audit_log(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STATE SNAPSHOTS
// =============================================================================

// Load returns the newest snapshot, or ingest.ErrNoState.
func (s *Store) Load(ctx context.Context) (*ingest.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM state_snapshots ORDER BY version DESC LIMIT 1`).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ingest.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var st ingest.State
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	return &st, nil
}

// Save writes a snapshot and its audit entries in one transaction.
func (s *Store) Save(ctx context.Context, st *ingest.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO state_snapshots (version, saved_at, accounts, bookings, body)
		VALUES (?, ?, ?, ?, ?)`,
		st.Version, time.Now().UTC().Format(time.RFC3339), len(st.Accounts), len(st.Bookings), string(body))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO audit_log (id, at, type, msg, version)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range st.Audit {
		if _, err := stmt.ExecContext(ctx, e.ID, e.At, string(e.Type), e.Msg, st.Version); err != nil {
			return fmt.Errorf("failed to save audit entry: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM state_snapshots
		WHERE version NOT IN (SELECT version FROM state_snapshots ORDER BY version DESC LIMIT ?)`,
		KeepSnapshots)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	return tx.Commit()
}

// SnapshotInfo describes a stored version without its body.
type SnapshotInfo struct {
	Version  int64  `json:"version"`
	SavedAt  string `json:"savedAt"`
	Accounts int    `json:"accounts"`
	Bookings int    `json:"bookings"`
}

// Versions lists retained snapshots, newest first.
func (s *Store) Versions(ctx context.Context) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT version, saved_at, accounts, bookings
		FROM state_snapshots ORDER BY version DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Version, &info.SavedAt, &info.Accounts, &info.Bookings); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// AuditLog returns the most recent audit entries, newest first. A limit
// of zero or less returns everything.
func (s *Store) AuditLog(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, at, type, msg FROM audit_log ORDER BY at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		var typ string
		if err := rows.Scan(&e.ID, &e.At, &typ, &e.Msg); err != nil {
			return nil, err
		}
		e.Type = core.AuditType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Reset clears all data (for demo purposes).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM state_snapshots;
		DELETE FROM audit_log;
	`)
	return err
}
