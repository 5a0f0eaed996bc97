/*
history.go - Read-side queries

PURPOSE:
  Lookups and history views over members and the ledger. These never write
  and therefore never need WithTx.
*/
package loyalty

import (
	"context"

	"github.com/tribe/loyalty-engine/ledger"
)

// MemberByPIN resolves a member from their kiosk PIN.
func (s *Service) MemberByPIN(ctx context.Context, pin string) (*Member, error) {
	return s.store.GetMemberByPIN(ctx, pin)
}

// Member returns a member by ID.
func (s *Service) Member(ctx context.Context, id ledger.MemberID) (*Member, error) {
	return s.store.GetMember(ctx, id)
}

// PhoneRegistered reports whether a phone number already belongs to a member.
func (s *Service) PhoneRegistered(ctx context.Context, phone string) (bool, error) {
	_, err := s.store.GetMemberByPhone(ctx, phone)
	if err == nil {
		return true, nil
	}
	if ledger.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// History returns a member's ledger entries, newest first.
func (s *Service) History(ctx context.Context, memberID ledger.MemberID, limit int) ([]ledger.Entry, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return s.store.MemberHistory(ctx, memberID, limit)
}

// GlobalHistory returns the program-wide ledger, newest first.
func (s *Service) GlobalHistory(ctx context.Context, limit, offset int) ([]ledger.Entry, error) {
	return s.store.GlobalHistory(ctx, limit, offset)
}

// Ranking returns the top members by balance.
func (s *Service) Ranking(ctx context.Context, limit int) ([]Member, error) {
	return s.store.Ranking(ctx, limit)
}

// Members lists every member, ordered by name.
func (s *Service) Members(ctx context.Context) ([]Member, error) {
	return s.store.ListMembers(ctx)
}

// Bookings returns a member's bookings, newest first.
func (s *Service) Bookings(ctx context.Context, memberID ledger.MemberID) ([]Booking, error) {
	if _, err := s.store.GetMember(ctx, memberID); err != nil {
		return nil, err
	}
	return s.store.BookingsByMember(ctx, memberID)
}

// Stats summarizes the program for the admin dashboard.
type Stats struct {
	Members           int
	PointsOutstanding int64 // sum of cached balances
	Activities        int
	ActiveBookings    int
}

// ProgramStats aggregates member, activity and booking counts.
func (s *Service) ProgramStats(ctx context.Context) (*Stats, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.store.ListActivities(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Members: len(members), Activities: len(activities)}
	for _, m := range members {
		stats.PointsOutstanding += m.Balance
	}
	for _, a := range activities {
		n, err := s.store.CountActiveBookings(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		stats.ActiveBookings += n
	}
	return stats, nil
}

// Notifications returns the admin feed, newest first.
func (s *Service) Notifications(ctx context.Context, limit int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, limit)
}

// MarkNotificationsRead marks the entire feed as read.
func (s *Service) MarkNotificationsRead(ctx context.Context) error {
	return s.store.MarkNotificationsRead(ctx)
}
