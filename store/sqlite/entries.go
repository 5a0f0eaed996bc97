/*
entries.go - The append-only ledger table (ledger.EntryStore interface)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tribe/loyalty-engine/ledger"
)

const entryColumns = `id, member_id, kind, amount, description, booking_id, penalized, penalty_reason, created_at`

// Append adds an entry to the ledger.
func (s *Store) Append(ctx context.Context, e ledger.Entry) error {
	defer s.wlock()()
	return s.appendEntry(ctx, e)
}

func (s *Store) appendEntry(ctx context.Context, e ledger.Entry) error {
	query := `
		INSERT INTO entries
		(id, member_id, kind, amount, description, booking_id, penalized, penalty_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.q.ExecContext(ctx, query,
		e.ID,
		e.MemberID,
		e.Kind,
		e.Amount,
		e.Description,
		nullString(string(e.BookingID)),
		e.Penalized,
		e.PenaltyReason,
		fmtTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrAppendFailed, err)
	}
	return nil
}

// AppendBatch adds multiple entries in order. Inside WithTx this joins the
// open transaction; standalone it runs in its own.
func (s *Store) AppendBatch(ctx context.Context, entries []ledger.Entry) error {
	if s.mu == nil {
		for _, e := range entries {
			if err := s.appendEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &Store{db: s.db, q: sqlTx}
	for _, e := range entries {
		if err := txStore.appendEntry(ctx, e); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

// MemberHistory returns a member's entries, newest first.
func (s *Store) MemberHistory(ctx context.Context, id ledger.MemberID, limit int) ([]ledger.Entry, error) {
	defer s.rlock()()

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE member_id = ?
		ORDER BY created_at DESC, id DESC
	`
	args := []any{id}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return s.queryEntries(ctx, query, args...)
}

// GlobalHistory returns entries across all members, newest first.
func (s *Store) GlobalHistory(ctx context.Context, limit, offset int) ([]ledger.Entry, error) {
	defer s.rlock()()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query := `
		SELECT ` + entryColumns + `
		FROM entries
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	return s.queryEntries(ctx, query, limit, offset)
}

// SumByMember returns the ledger's true balance for a member.
func (s *Store) SumByMember(ctx context.Context, id ledger.MemberID) (int64, error) {
	defer s.rlock()()

	var sum int64
	err := s.q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM entries WHERE member_id = ?",
		id,
	).Scan(&sum)
	return sum, err
}

// CountByMemberKindSince counts a member's entries of a kind since an instant.
func (s *Store) CountByMemberKindSince(ctx context.Context, id ledger.MemberID, kind ledger.Kind, since time.Time) (int, error) {
	defer s.rlock()()

	var count int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entries WHERE member_id = ? AND kind = ? AND created_at >= ?",
		id, kind, fmtTime(since),
	).Scan(&count)
	return count, err
}

// EntriesByBooking returns entries tied to a booking, oldest first.
func (s *Store) EntriesByBooking(ctx context.Context, id ledger.BookingID) ([]ledger.Entry, error) {
	defer s.rlock()()

	query := `
		SELECT ` + entryColumns + `
		FROM entries
		WHERE booking_id = ?
		ORDER BY created_at ASC, id ASC
	`
	return s.queryEntries(ctx, query, id)
}

// DetachBooking clears booking references and annotates descriptions.
// The one sanctioned mutation besides the purge cascade; amounts untouched.
func (s *Store) DetachBooking(ctx context.Context, id ledger.BookingID, suffix string) (int, error) {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx,
		"UPDATE entries SET booking_id = NULL, description = description || ? WHERE booking_id = ?",
		suffix, id,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteByMember removes all of a member's entries (purge cascade only).
func (s *Store) DeleteByMember(ctx context.Context, id ledger.MemberID) error {
	defer s.wlock()()

	_, err := s.q.ExecContext(ctx, "DELETE FROM entries WHERE member_id = ?", id)
	return err
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]ledger.Entry, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e         ledger.Entry
		bookingID sql.NullString
		createdAt string
	)

	err := rows.Scan(
		&e.ID, &e.MemberID, &e.Kind, &e.Amount, &e.Description,
		&bookingID, &e.Penalized, &e.PenaltyReason, &createdAt,
	)
	if err != nil {
		return e, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.BookingID = ledger.BookingID(bookingID.String)
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}
