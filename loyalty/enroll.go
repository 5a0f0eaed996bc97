/*
enroll.go - Registration and activity enrollment

PURPOSE:
  The front door of the program. A kiosk request either identifies an
  existing member by PIN or registers a brand-new one, then books a seat in
  the activity and credits the reward. Everything commits as one
  transaction: member row, booking row, balance updates and every ledger
  entry, in business order (welcome bonus, birthday bonus, enrollment).

EDGE CASES:
  - Repeat enrollment with an active seat is rejected
  - Repeat enrollment after withdrawal or no-show reactivates the existing
    booking row and re-credits the snapshot amount
  - Registration into a full or concluded activity creates no member
*/
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/metrics"
)

type RegistrationInput struct {
	FirstName      string
	LastName       string
	SecondLastName string
	Phone          string
	BirthDate      *time.Time
}

func (in RegistrationInput) validate() error {
	switch {
	case in.FirstName == "":
		return fmt.Errorf("%w: first name", ErrMissingField)
	case in.LastName == "":
		return fmt.Errorf("%w: last name", ErrMissingField)
	case in.Phone == "":
		return fmt.Errorf("%w: phone", ErrMissingField)
	}
	return nil
}

// EnrollmentInput identifies the member: by PIN for returning members, or
// by registration details for first-timers.
type EnrollmentInput struct {
	PIN          string
	Registration *RegistrationInput
}

type EnrollmentResult struct {
	Member      *Member
	Booking     *Booking
	NewMember   bool
	Reactivated bool

	// PointsEarned is everything credited by this call: the enrollment
	// reward plus any welcome or birthday bonus granted alongside it.
	PointsEarned int64

	BirthdayBonusGranted bool
}

// RegisterMember creates a member without booking anything: welcome bonus,
// and the birthday bonus if registration lands on their birthday.
func (s *Service) RegisterMember(ctx context.Context, in RegistrationInput) (*Member, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var member *Member
	err := s.store.WithTx(ctx, func(store Store) error {
		st := s.newStamper()
		m, _, err := s.createMember(ctx, store, in, st)
		if err != nil {
			return err
		}
		member = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "member", "New member", "%s joined the program (PIN %s)", member.FullName(), member.PIN)
	return member, nil
}

// Enroll books a seat in the activity, registering the member first when
// no PIN is given.
func (s *Service) Enroll(ctx context.Context, activityID ledger.ActivityID, in EnrollmentInput) (*EnrollmentResult, error) {
	if in.PIN == "" && in.Registration == nil {
		return nil, fmt.Errorf("%w: pin or registration details", ErrMissingField)
	}

	var res EnrollmentResult
	err := s.store.WithTx(ctx, func(store Store) error {
		act, err := store.GetActivity(ctx, activityID)
		if err != nil {
			return err
		}
		if act.Status == ActivityConcluded {
			return ErrActivityConcluded
		}

		st := s.newStamper()
		var member *Member
		var before int64

		if in.PIN != "" {
			member, err = store.GetMemberByPIN(ctx, in.PIN)
			if err != nil {
				return err
			}
			before = member.Balance

			prev, err := store.FindBooking(ctx, member.ID, act.ID)
			if err != nil && !errors.Is(err, ledger.ErrBookingNotFound) {
				return err
			}
			if prev != nil {
				if prev.IsActive() {
					metrics.RuleRejections.WithLabelValues("duplicate_booking").Inc()
					return &DuplicateActiveBookingError{
						MemberID:   member.ID,
						ActivityID: act.ID,
						BookingID:  prev.ID,
					}
				}
				return s.reactivate(ctx, store, member, act, prev, st, &res)
			}

			if err := s.checkCapacity(ctx, store, act); err != nil {
				return err
			}
			granted, err := s.grantBirthdayIfDue(ctx, store, member, st)
			if err != nil {
				return err
			}
			res.BirthdayBonusGranted = granted
		} else {
			if err := in.Registration.validate(); err != nil {
				return err
			}
			// Capacity first: a full activity must not mint a member.
			if err := s.checkCapacity(ctx, store, act); err != nil {
				return err
			}
			member, res.BirthdayBonusGranted, err = s.createMember(ctx, store, *in.Registration, st)
			if err != nil {
				return err
			}
			res.NewMember = true
		}

		reward := s.rules.RewardFor(act)
		now := s.clock.Now().UTC()
		booking := Booking{
			ID:                   ledger.BookingID(uuid.NewString()),
			MemberID:             member.ID,
			ActivityID:           act.ID,
			Status:               BookingActive,
			PointsAtRegistration: reward,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := store.CreateBooking(ctx, booking); err != nil {
			return err
		}

		balance, err := store.CreditBalance(ctx, member.ID, reward)
		if err != nil {
			return err
		}
		e := newEntry(member.ID, ledger.KindEnrollment, reward,
			fmt.Sprintf("enrollment: %s", act.Title), st.next())
		e.BookingID = booking.ID
		if err := appendEntry(ctx, store, e); err != nil {
			return err
		}

		member.Balance = balance
		res.Member = member
		res.Booking = &booking
		res.PointsEarned = balance - before
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.NewMember {
		s.publish(ctx, "member", "New member", "%s joined the program (PIN %s)",
			res.Member.FullName(), res.Member.PIN)
	}
	s.publish(ctx, "booking", "Enrollment", "%s enrolled (+%d points)",
		res.Member.FullName(), res.PointsEarned)
	return &res, nil
}

// reactivate flips an inactive booking back to active and re-credits the
// snapshot amount, so a later withdrawal reverses exactly what was granted.
func (s *Service) reactivate(ctx context.Context, store Store, member *Member, act *Activity, prev *Booking, st *stamper, res *EnrollmentResult) error {
	if err := s.checkCapacity(ctx, store, act); err != nil {
		return err
	}
	now := s.clock.Now().UTC()
	if err := store.SetBookingStatus(ctx, prev.ID, BookingActive, now); err != nil {
		return err
	}
	balance, err := store.CreditBalance(ctx, member.ID, prev.PointsAtRegistration)
	if err != nil {
		return err
	}
	e := newEntry(member.ID, ledger.KindEnrollment, prev.PointsAtRegistration,
		fmt.Sprintf("re-enrollment: %s", act.Title), st.next())
	e.BookingID = prev.ID
	if err := appendEntry(ctx, store, e); err != nil {
		return err
	}

	prev.Status = BookingActive
	prev.UpdatedAt = now
	member.Balance = balance
	res.Member = member
	res.Booking = prev
	res.Reactivated = true
	res.PointsEarned = prev.PointsAtRegistration
	return nil
}

func (s *Service) checkCapacity(ctx context.Context, store Store, act *Activity) error {
	if act.Capacity <= 0 {
		return nil
	}
	active, err := store.CountActiveBookings(ctx, act.ID)
	if err != nil {
		return err
	}
	if active >= act.Capacity {
		metrics.RuleRejections.WithLabelValues("activity_full").Inc()
		return fmt.Errorf("%w: %s (%d/%d seats)", ErrActivityFull, act.Title, active, act.Capacity)
	}
	return nil
}

// createMember registers the member, grants the welcome bonus, and grants
// the birthday bonus when registration lands on their birthday. Must run
// inside a transaction.
func (s *Service) createMember(ctx context.Context, store Store, in RegistrationInput, st *stamper) (*Member, bool, error) {
	_, err := store.GetMemberByPhone(ctx, in.Phone)
	if err == nil {
		return nil, false, ledger.ErrDuplicatePhone
	}
	if !errors.Is(err, ledger.ErrMemberNotFound) {
		return nil, false, err
	}

	pin, err := s.generatePIN(ctx, store)
	if err != nil {
		return nil, false, err
	}

	m := Member{
		ID:             ledger.MemberID(uuid.NewString()),
		PIN:            pin,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		SecondLastName: in.SecondLastName,
		Phone:          in.Phone,
		BirthDate:      in.BirthDate,
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := store.CreateMember(ctx, m); err != nil {
		return nil, false, err
	}

	if s.rules.WelcomeBonus > 0 {
		balance, err := store.CreditBalance(ctx, m.ID, s.rules.WelcomeBonus)
		if err != nil {
			return nil, false, err
		}
		e := newEntry(m.ID, ledger.KindWelcomeBonus, s.rules.WelcomeBonus, "welcome bonus", st.next())
		if err := appendEntry(ctx, store, e); err != nil {
			return nil, false, err
		}
		m.Balance = balance
	}

	granted, err := s.grantBirthdayIfDue(ctx, store, &m, st)
	if err != nil {
		return nil, false, err
	}
	return &m, granted, nil
}
