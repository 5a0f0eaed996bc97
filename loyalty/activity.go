/*
activity.go - Activity catalog and teardown

PURPOSE:
  Activity CRUD plus the two teardown paths and the member purge cascade.

TEARDOWN PATHS:
  - Conclude: the activity ran. Members keep every point; their entries are
    detached from the doomed booking rows and annotated, then bookings and
    activity are deleted. The ledger's amounts are untouched.
  - Radical delete: the activity should never have existed. Every credit
    tied to its bookings is reversed with a clamped compensating entry, so
    the ledger stays append-only while the points come back out.
*/
package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tribe/loyalty-engine/ledger"
)

type ActivityInput struct {
	Title        string
	Description  string
	ActivityDate time.Time
	PointsReward int64
	Capacity     int
}

func (in ActivityInput) validate() error {
	if in.Title == "" {
		return fmt.Errorf("%w: title", ErrMissingField)
	}
	if in.PointsReward < 0 {
		return fmt.Errorf("%w: points reward", ErrInvalidAmount)
	}
	return nil
}

// CreateActivity adds an activity to the catalog.
func (s *Service) CreateActivity(ctx context.Context, in ActivityInput) (*Activity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	a := Activity{
		ID:           ledger.ActivityID(uuid.NewString()),
		Title:        in.Title,
		Description:  in.Description,
		ActivityDate: in.ActivityDate,
		PointsReward: in.PointsReward,
		Capacity:     in.Capacity,
		Status:       ActivityOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateActivity(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateActivity edits catalog fields. Changing the reward does not touch
// existing bookings: their snapshots keep reversals exact.
func (s *Service) UpdateActivity(ctx context.Context, id ledger.ActivityID, in ActivityInput) (*Activity, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated *Activity
	err := s.store.WithTx(ctx, func(store Store) error {
		a, err := store.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		a.Title = in.Title
		a.Description = in.Description
		a.ActivityDate = in.ActivityDate
		a.PointsReward = in.PointsReward
		a.Capacity = in.Capacity
		a.UpdatedAt = s.clock.Now().UTC()
		if err := store.UpdateActivity(ctx, *a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Activity returns one catalog entry.
func (s *Service) Activity(ctx context.Context, id ledger.ActivityID) (*Activity, error) {
	return s.store.GetActivity(ctx, id)
}

// Activities lists the catalog.
func (s *Service) Activities(ctx context.Context) ([]Activity, error) {
	return s.store.ListActivities(ctx)
}

// Participant pairs a booking with its member for rosters and exports.
type Participant struct {
	Member  Member
	Booking Booking
}

// Participants returns the activity's roster. An empty status matches all.
func (s *Service) Participants(ctx context.Context, activityID ledger.ActivityID, status BookingStatus) ([]Participant, error) {
	if _, err := s.store.GetActivity(ctx, activityID); err != nil {
		return nil, err
	}
	bookings, err := s.store.BookingsByActivity(ctx, activityID, status)
	if err != nil {
		return nil, err
	}
	out := make([]Participant, 0, len(bookings))
	for _, b := range bookings {
		m, err := s.store.GetMember(ctx, b.MemberID)
		if err != nil {
			return nil, err
		}
		out = append(out, Participant{Member: *m, Booking: b})
	}
	return out, nil
}

// ConcludeActivity tears down an activity that ran. Members keep their
// points; ledger entries are detached from the booking rows and annotated
// before bookings and activity are removed.
func (s *Service) ConcludeActivity(ctx context.Context, id ledger.ActivityID) error {
	var title string
	err := s.store.WithTx(ctx, func(store Store) error {
		a, err := store.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		title = a.Title

		bookings, err := store.BookingsByActivity(ctx, id, "")
		if err != nil {
			return err
		}
		for _, b := range bookings {
			if _, err := store.DetachBooking(ctx, b.ID, " (activity concluded)"); err != nil {
				return err
			}
		}
		if err := store.DeleteBookingsByActivity(ctx, id); err != nil {
			return err
		}
		return store.DeleteActivity(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, "booking", "Activity concluded", "%s concluded; participants keep their points", title)
	return nil
}

// RadicalDeleteActivity removes an activity as if it never existed: every
// positive entry tied to its bookings is reversed with a clamped
// compensating entry. Returns the total points taken back.
func (s *Service) RadicalDeleteActivity(ctx context.Context, id ledger.ActivityID) (int64, error) {
	var title string
	var reversed int64
	err := s.store.WithTx(ctx, func(store Store) error {
		a, err := store.GetActivity(ctx, id)
		if err != nil {
			return err
		}
		title = a.Title

		bookings, err := store.BookingsByActivity(ctx, id, "")
		if err != nil {
			return err
		}
		st := s.newStamper()
		for _, b := range bookings {
			entries, err := store.EntriesByBooking(ctx, b.ID)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if !e.IsCredit() {
					continue
				}
				applied, _, err := store.DebitBalanceClamped(ctx, e.MemberID, e.Amount)
				if err != nil {
					return err
				}
				if applied == 0 {
					continue
				}
				// No booking reference: the row is about to go away.
				comp := newEntry(e.MemberID, ledger.KindWithdrawal, -applied,
					fmt.Sprintf("reversal: %s removed", a.Title), st.next())
				if err := appendEntry(ctx, store, comp); err != nil {
					return err
				}
				reversed += applied
			}
		}
		if err := store.DeleteBookingsByActivity(ctx, id); err != nil {
			return err
		}
		return store.DeleteActivity(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	s.publish(ctx, "booking", "Activity removed", "%s removed; %d points reversed", title, reversed)
	return reversed, nil
}

// PurgeMember erases a member and everything about them: entries, bookings,
// then the member row. This is the one path that deletes ledger entries.
func (s *Service) PurgeMember(ctx context.Context, id ledger.MemberID) error {
	var name string
	err := s.store.WithTx(ctx, func(store Store) error {
		m, err := store.GetMember(ctx, id)
		if err != nil {
			return err
		}
		name = m.FullName()
		if err := store.DeleteByMember(ctx, id); err != nil {
			return err
		}
		if err := store.DeleteBookingsByMember(ctx, id); err != nil {
			return err
		}
		return store.DeleteMember(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, "member", "Member removed", "%s and their full history were erased", name)
	return nil
}
