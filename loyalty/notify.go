package loyalty

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Notifier receives admin-feed events. Publication is fire-and-forget:
// a failed notification never fails the operation that produced it.
type Notifier interface {
	Publish(ctx context.Context, n Notification)
}

// NopNotifier discards everything.
type NopNotifier struct{}

func (NopNotifier) Publish(context.Context, Notification) {}

// NotificationStore is the slice of Store that StoreNotifier needs.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n Notification) error
}

// StoreNotifier persists notifications to the admin feed. Errors are
// logged and dropped.
type StoreNotifier struct {
	Store NotificationStore
	Log   *slog.Logger
}

func (sn *StoreNotifier) Publish(ctx context.Context, n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := sn.Store.SaveNotification(ctx, n); err != nil {
		log := sn.Log
		if log == nil {
			log = slog.Default()
		}
		log.WarnContext(ctx, "dropping notification",
			slog.String("category", n.Category),
			slog.String("title", n.Title),
			slog.Any("error", err))
	}
}
