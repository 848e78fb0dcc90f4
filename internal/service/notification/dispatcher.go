// Package notification persists per-user NEW_MATCH and NEW_MESSAGE events
// and serves the user's notification inbox.
package notification

import (
	"context"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

const (
	matchText   = "You have a new match!"
	messageText = "You have a new message"
)

// Dispatcher writes notifications and keeps the unread counter cache honest.
type Dispatcher struct {
	appCtx *app.AppContext
	repo   *repository.NotificationRepository
}

func NewDispatcher(appCtx *app.AppContext) *Dispatcher {
	return &Dispatcher{
		appCtx: appCtx,
		repo:   repository.NewNotificationRepository(appCtx.DB),
	}
}

// NotifyMatch records a NEW_MATCH notification for userID.
// When ctx carries a transaction the row joins it and the caller must call
// InvalidateUnread after commit.
func (d *Dispatcher) NotifyMatch(ctx context.Context, userID, relatedUserID, matchID uint64) (*db.Notification, error) {
	return d.notify(ctx, db.NewNotification(userID, db.NotificationNewMatch, matchText, relatedUserID, matchID))
}

// NotifyMessage records a NEW_MESSAGE notification for userID.
func (d *Dispatcher) NotifyMessage(ctx context.Context, userID, relatedUserID, messageID uint64) (*db.Notification, error) {
	return d.notify(ctx, db.NewNotification(userID, db.NotificationNewMessage, messageText, relatedUserID, messageID))
}

func (d *Dispatcher) notify(ctx context.Context, n *db.Notification) (*db.Notification, error) {
	if err := d.repo.Create(ctx, n); err != nil {
		d.appCtx.Logger.Error("Create notification failed", "user", n.UserID, "type", n.Type, "err", err)
		return nil, err
	}
	metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()

	if !db.InTx(ctx) {
		d.InvalidateUnread(ctx, n.UserID)
	}
	return n, nil
}

// List returns one page of userID's notifications, newest first.
func (d *Dispatcher) List(ctx context.Context, userID uint64, page, size int) (pagination.Page[db.Notification], error) {
	page, size = pagination.Normalize(page, size)
	items, total, err := d.repo.List(ctx, userID, pagination.Offset(page, size), size)
	if err != nil {
		return pagination.Page[db.Notification]{}, err
	}
	return pagination.NewPage(items, page, size, total), nil
}

func (d *Dispatcher) GetUnread(ctx context.Context, userID uint64) ([]db.Notification, error) {
	return d.repo.ListUnread(ctx, userID)
}

// GetUnreadCount is cache-first on notifications:unread:<id>.
func (d *Dispatcher) GetUnreadCount(ctx context.Context, userID uint64) (int64, error) {
	key := cache.KeyForUnreadNotifications(userID)

	n, ok, err := d.appCtx.RedisCache.GetCount(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("get_unread_notifications").Inc()
		d.appCtx.Logger.Warn("unread count cache read failed", "user", userID, "err", err)
	} else if ok {
		return n, nil
	}

	count, err := d.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := d.appCtx.RedisCache.SetCount(ctx, key, count); err != nil {
		metrics.CacheErrors.WithLabelValues("set_unread_notifications").Inc()
	}
	return count, nil
}

// MarkAsRead flips one notification to read. Repeat calls succeed; a
// notification userID does not own is NotFoundError.
func (d *Dispatcher) MarkAsRead(ctx context.Context, notificationID, userID uint64) error {
	if err := d.repo.MarkRead(ctx, notificationID, userID); err != nil {
		return err
	}
	d.InvalidateUnread(ctx, userID)
	return nil
}

func (d *Dispatcher) MarkAllAsRead(ctx context.Context, userID uint64) (int64, error) {
	n, err := d.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	d.InvalidateUnread(ctx, userID)
	return n, nil
}

func (d *Dispatcher) DeleteOne(ctx context.Context, notificationID, userID uint64) error {
	if err := d.repo.Delete(ctx, notificationID, userID); err != nil {
		return err
	}
	d.InvalidateUnread(ctx, userID)
	return nil
}

func (d *Dispatcher) DeleteAll(ctx context.Context, userID uint64) (int64, error) {
	n, err := d.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	d.InvalidateUnread(ctx, userID)
	return n, nil
}

// InvalidateUnread drops the cached unread counters of userIDs.
// Failures are logged, not returned.
func (d *Dispatcher) InvalidateUnread(ctx context.Context, userIDs ...uint64) {
	if len(userIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cache.KeyForUnreadNotifications(id))
	}
	if err := d.appCtx.RedisCache.Del(ctx, keys...); err != nil {
		metrics.CacheErrors.WithLabelValues("del_unread_notifications").Inc()
		d.appCtx.Logger.Warn("unread count invalidation failed", "users", userIDs, "err", err)
	}
}
