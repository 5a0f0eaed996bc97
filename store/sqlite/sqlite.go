/*
Package sqlite provides the SQLite-backed implementation of the loyalty
storage interfaces.

PURPOSE:
  Implements loyalty.TxStore (and with it ledger.EntryStore) on a single
  SQLite file. The same SQL shapes carry to PostgreSQL with minor dialect
  changes.

APPEND-ONLY ENFORCEMENT:
  The entries table has no UPDATE path for amount, kind or member.
  The only mutations are:
  - DetachBooking: clears booking references and annotates descriptions
    when an activity concludes (amounts untouched)
  - DeleteByMember: the member purge cascade

KEY TABLES:
  entries:       Immutable points ledger
  members:       Member records with the cached balance column
  activities:    Activity catalog
  bookings:      One row per (member, activity) seat, reused across
                 withdraw/no-show/reactivate transitions
  notifications: Admin feed

TIMESTAMPS:
  Stored as fixed-width UTC strings with microsecond precision so that
  lexicographic ORDER BY equals chronological order even for entries
  written microseconds apart within one operation.

CONCURRENCY:
  A process-wide RWMutex serializes writers; SQLite runs in WAL mode so
  readers don't block. The mutex pointer is nil on transaction-scoped
  copies: the parent holds the lock for the whole transaction.

USAGE:
  store, err := sqlite.New("./data/loyalty.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := loyalty.NewService(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a versioned
  migration tool instead.

SEE ALSO:
  - ledger/store.go: The entry contract
  - loyalty/store.go: The full domain contract
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

// timeLayout is fixed-width so string comparison in SQL matches
// chronological order down to the microsecond.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const dateLayout = "2006-01-02"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ loyalty.TxStore = (*Store)(nil)

// Store implements loyalty.TxStore using SQLite.
type Store struct {
	db *sql.DB
	q  querier

	// mu is nil on transaction-scoped copies; the root store holds the
	// write lock for the duration of WithTx.
	mu *sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by the store mutex; a single connection keeps
	// ":memory:" databases coherent across the pool.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: db, mu: &sync.RWMutex{}}
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
	-- Members, with the denormalized balance cache
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		pin TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		second_last_name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL UNIQUE,
		birth_date TEXT,
		balance INTEGER NOT NULL DEFAULT 0,
		last_bonus_year INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_members_balance
		ON members(balance DESC);

	-- Activity catalog
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		activity_date TEXT NOT NULL,
		points_reward INTEGER NOT NULL DEFAULT 0,
		capacity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Bookings: one row per (member, activity), reused across transitions
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		activity_id TEXT NOT NULL REFERENCES activities(id),
		status TEXT NOT NULL,
		points_at_registration INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(member_id, activity_id)
	);

	CREATE INDEX IF NOT EXISTS idx_bookings_activity_status
		ON bookings(activity_id, status);
	CREATE INDEX IF NOT EXISTS idx_bookings_member
		ON bookings(member_id);

	-- Entries (append-only ledger)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES members(id),
		kind TEXT NOT NULL,
		amount INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		booking_id TEXT REFERENCES bookings(id) ON DELETE SET NULL,
		penalized INTEGER NOT NULL DEFAULT 0,
		penalty_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Hot path: per-member history and balance sums
	CREATE INDEX IF NOT EXISTS idx_entries_member_created
		ON entries(member_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_created
		ON entries(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_entries_booking
		ON entries(booking_id) WHERE booking_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_entries_member_kind_created
		ON entries(member_id, kind, created_at);

	-- Admin feed
	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_created
		ON notifications(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (loyalty.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The Store passed to fn
// is a transaction-scoped copy; nested WithTx calls join the open
// transaction instead of deadlocking on the mutex.
func (s *Store) WithTx(ctx context.Context, fn func(store loyalty.Store) error) error {
	if s.mu == nil {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &Store{db: s.db, q: sqlTx}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// =============================================================================
// LOCKING AND SCAN HELPERS
// =============================================================================

func (s *Store) wlock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

// mapMemberConflict translates driver uniqueness violations on the members
// table into the ledger sentinels callers retry or reject on.
func mapMemberConflict(err error) error {
	if !isUniqueConstraintError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "members.pin"):
		return ledger.ErrDuplicatePIN
	case strings.Contains(msg, "members.phone"):
		return ledger.ErrDuplicatePhone
	}
	return err
}
