/*
bookings.go - Booking rows

PURPOSE:
  One row per (member, activity), enforced by a unique index. Lifecycle
  transitions flip the status column in place; the row is reused across
  withdraw, no-show and reactivation so its points snapshot survives.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

const bookingColumns = `id, member_id, activity_id, status, points_at_registration, created_at, updated_at`

// CreateBooking inserts a booking row.
func (s *Store) CreateBooking(ctx context.Context, b loyalty.Booking) error {
	defer s.wlock()()

	query := `
		INSERT INTO bookings
		(id, member_id, activity_id, status, points_at_registration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.q.ExecContext(ctx, query,
		b.ID, b.MemberID, b.ActivityID, b.Status, b.PointsAtRegistration,
		fmtTime(b.CreatedAt), fmtTime(b.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateBooking
		}
		return err
	}
	return nil
}

// GetBooking retrieves a booking by ID.
func (s *Store) GetBooking(ctx context.Context, id ledger.BookingID) (*loyalty.Booking, error) {
	defer s.rlock()()

	row := s.q.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// FindBooking returns the (member, activity) row regardless of status.
func (s *Store) FindBooking(ctx context.Context, memberID ledger.MemberID, activityID ledger.ActivityID) (*loyalty.Booking, error) {
	defer s.rlock()()

	row := s.q.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE member_id = ? AND activity_id = ?",
		memberID, activityID)

	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// SetBookingStatus flips the status column and refreshes updated_at.
func (s *Store) SetBookingStatus(ctx context.Context, id ledger.BookingID, status loyalty.BookingStatus, at time.Time) error {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx,
		"UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?",
		status, fmtTime(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrBookingNotFound
	}
	return nil
}

// BookingsByActivity returns an activity's bookings, newest first.
// An empty status matches all statuses.
func (s *Store) BookingsByActivity(ctx context.Context, activityID ledger.ActivityID, status loyalty.BookingStatus) ([]loyalty.Booking, error) {
	defer s.rlock()()

	query := "SELECT " + bookingColumns + " FROM bookings WHERE activity_id = ?"
	args := []any{activityID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id DESC"

	return s.queryBookings(ctx, query, args...)
}

// BookingsByMember returns a member's bookings, newest first.
func (s *Store) BookingsByMember(ctx context.Context, memberID ledger.MemberID) ([]loyalty.Booking, error) {
	defer s.rlock()()

	return s.queryBookings(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE member_id = ? ORDER BY created_at DESC, id DESC",
		memberID)
}

// CountActiveBookings counts active seats for capacity checks.
func (s *Store) CountActiveBookings(ctx context.Context, activityID ledger.ActivityID) (int, error) {
	defer s.rlock()()

	var count int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE activity_id = ? AND status = ?",
		activityID, loyalty.BookingActive,
	).Scan(&count)
	return count, err
}

// DeleteBookingsByActivity removes every booking row for an activity.
// Entries referencing them fall back to NULL via the foreign key.
func (s *Store) DeleteBookingsByActivity(ctx context.Context, activityID ledger.ActivityID) error {
	defer s.wlock()()

	_, err := s.q.ExecContext(ctx, "DELETE FROM bookings WHERE activity_id = ?", activityID)
	return err
}

// DeleteBookingsByMember removes every booking row for a member (purge cascade).
func (s *Store) DeleteBookingsByMember(ctx context.Context, memberID ledger.MemberID) error {
	defer s.wlock()()

	_, err := s.q.ExecContext(ctx, "DELETE FROM bookings WHERE member_id = ?", memberID)
	return err
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...any) ([]loyalty.Booking, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []loyalty.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(sc rowScanner) (*loyalty.Booking, error) {
	var (
		b         loyalty.Booking
		createdAt string
		updatedAt string
	)
	err := sc.Scan(
		&b.ID, &b.MemberID, &b.ActivityID, &b.Status,
		&b.PointsAtRegistration, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}
