/*
activities.go - Activity catalog rows
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/loyalty"
)

const activityColumns = `id, title, description, activity_date, points_reward, capacity, status, created_at, updated_at`

// CreateActivity inserts a catalog row.
func (s *Store) CreateActivity(ctx context.Context, a loyalty.Activity) error {
	defer s.wlock()()

	query := `
		INSERT INTO activities
		(id, title, description, activity_date, points_reward, capacity, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.q.ExecContext(ctx, query,
		a.ID, a.Title, a.Description, fmtTime(a.ActivityDate),
		a.PointsReward, a.Capacity, a.Status,
		fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt),
	)
	return err
}

// UpdateActivity rewrites the catalog fields of an existing row.
func (s *Store) UpdateActivity(ctx context.Context, a loyalty.Activity) error {
	defer s.wlock()()

	query := `
		UPDATE activities
		SET title = ?, description = ?, activity_date = ?, points_reward = ?,
		    capacity = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	res, err := s.q.ExecContext(ctx, query,
		a.Title, a.Description, fmtTime(a.ActivityDate), a.PointsReward,
		a.Capacity, a.Status, fmtTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrActivityNotFound
	}
	return nil
}

// GetActivity retrieves one catalog row.
func (s *Store) GetActivity(ctx context.Context, id ledger.ActivityID) (*loyalty.Activity, error) {
	defer s.rlock()()

	row := s.q.QueryRowContext(ctx,
		"SELECT "+activityColumns+" FROM activities WHERE id = ?", id)

	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActivities returns the catalog, soonest activity date first.
func (s *Store) ListActivities(ctx context.Context) ([]loyalty.Activity, error) {
	defer s.rlock()()

	rows, err := s.q.QueryContext(ctx,
		"SELECT "+activityColumns+" FROM activities ORDER BY activity_date ASC, title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []loyalty.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// DeleteActivity removes a catalog row. Bookings must be gone first.
func (s *Store) DeleteActivity(ctx context.Context, id ledger.ActivityID) error {
	defer s.wlock()()

	res, err := s.q.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrActivityNotFound
	}
	return nil
}

func scanActivity(sc rowScanner) (*loyalty.Activity, error) {
	var (
		a            loyalty.Activity
		activityDate string
		createdAt    string
		updatedAt    string
	)
	err := sc.Scan(
		&a.ID, &a.Title, &a.Description, &activityDate,
		&a.PointsReward, &a.Capacity, &a.Status, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ActivityDate = parseTime(activityDate)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
