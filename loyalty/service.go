/*
service.go - The loyalty Service and its construction

PURPOSE:
  Service is the only write path into the program's state. Every operation
  validates first, then runs inside a single store transaction so the
  ledger entry and the cached balance can never disagree with each other.
  Notifications and metrics are emitted after commit.

CONSTRUCTION:
  svc := loyalty.NewService(store,
      loyalty.WithRules(rules),
      loyalty.WithClock(clock),
      loyalty.WithNotifier(notifier),
  )

SEE ALSO:
  - enroll.go, lifecycle.go, bonus.go, adjust.go, transfer.go,
    reconcile.go, history.go, activity.go: The operations
*/
package loyalty

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/tribe/loyalty-engine/ledger"
	"github.com/tribe/loyalty-engine/metrics"
)

type Service struct {
	store  TxStore
	clock  ledger.Clock
	rules  Rules
	notify Notifier
	log    *slog.Logger
}

type Option func(*Service)

func WithClock(c ledger.Clock) Option  { return func(s *Service) { s.clock = c } }
func WithRules(r Rules) Option         { return func(s *Service) { s.rules = r } }
func WithNotifier(n Notifier) Option   { return func(s *Service) { s.notify = n } }
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(store TxStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		clock:  ledger.SystemClock{},
		rules:  DefaultRules(),
		notify: NopNotifier{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the program parameters the service was built with.
func (s *Service) Rules() Rules { return s.rules }

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// stamper hands out strictly increasing timestamps within one operation.
// Entries written together get distinct timestamps so newest-first ordering
// reflects the business sequence (welcome bonus before enrollment, gift
// sent before gift received).
type stamper struct {
	t time.Time
}

func (s *Service) newStamper() *stamper {
	return &stamper{t: s.clock.Now().UTC()}
}

func (st *stamper) next() time.Time {
	t := st.t
	st.t = st.t.Add(time.Microsecond)
	return t
}

func appendEntry(ctx context.Context, store Store, e ledger.Entry) error {
	if err := store.Append(ctx, e); err != nil {
		return err
	}
	metrics.LedgerEntries.WithLabelValues(string(e.Kind)).Inc()
	return nil
}

func newEntry(memberID ledger.MemberID, kind ledger.Kind, amount int64, desc string, at time.Time) ledger.Entry {
	return ledger.Entry{
		ID:          ledger.EntryID(uuid.NewString()),
		MemberID:    memberID,
		Kind:        kind,
		Amount:      amount,
		Description: desc,
		CreatedAt:   at,
	}
}

// generatePIN draws 6-digit codes until one is free. The PIN space is small
// on purpose (members type it at a kiosk), so collisions are expected and
// retried.
func (s *Service) generatePIN(ctx context.Context, store Store) (string, error) {
	for attempt := 0; attempt < 25; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
		if err != nil {
			return "", fmt.Errorf("generating pin: %w", err)
		}
		pin := fmt.Sprintf("%06d", n.Int64())
		_, err = store.GetMemberByPIN(ctx, pin)
		if errors.Is(err, ledger.ErrMemberNotFound) {
			return pin, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("pin space exhausted after 25 attempts")
}

func (s *Service) publish(ctx context.Context, category, title, format string, args ...any) {
	s.notify.Publish(ctx, Notification{
		Category:  category,
		Title:     title,
		Message:   fmt.Sprintf(format, args...),
		CreatedAt: s.clock.Now().UTC(),
	})
}
