package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// NotificationRepository provides data access methods for the Notification model.
// Every read and write is scoped by user_id so one user can never touch
// another user's notifications.
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new repository bound to the given DB connection.
func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	if err := db.Conn(ctx, r.db).Create(n).Error; err != nil {
		return svcErr.Internal("insert notification", err)
	}
	return nil
}

// FindOwned loads notification id if it belongs to userID, else NotFoundError.
func (r *NotificationRepository) FindOwned(ctx context.Context, id, userID uint64) (*db.Notification, error) {
	var n db.Notification
	err := db.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if err != nil {
		if isNotFound(err) {
			return nil, svcErr.NotFound("Notification", id)
		}
		return nil, svcErr.Internal("load notification", err)
	}
	return &n, nil
}

// List returns a page of userID's notifications, newest first.
func (r *NotificationRepository) List(ctx context.Context, userID uint64, offset, limit int) ([]db.Notification, int64, error) {
	var (
		items []db.Notification
		total int64
	)
	conn := db.Conn(ctx, r.db)
	if err := conn.Model(&db.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, svcErr.Internal("count notifications", err)
	}
	err := conn.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, svcErr.Internal("list notifications", err)
	}
	return items, total, nil
}

// ListUnread returns all unread notifications of userID, newest first.
func (r *NotificationRepository) ListUnread(ctx context.Context, userID uint64) ([]db.Notification, error) {
	var items []db.Notification
	err := db.Conn(ctx, r.db).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, svcErr.Internal("list unread notifications", err)
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := db.Conn(ctx, r.db).
		Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, svcErr.Internal("count unread notifications", err)
	}
	return count, nil
}

// MarkRead flips is_read for one of userID's notifications.
// Missing or foreign notifications → NotFoundError; already-read → no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint64) error {
	if _, err := r.FindOwned(ctx, id, userID); err != nil {
		return err
	}
	err := db.Conn(ctx, r.db).
		Model(&db.Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Update("is_read", true).Error
	if err != nil {
		return svcErr.Internal("mark notification read", err)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res := db.Conn(ctx, r.db).
		Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, svcErr.Internal("mark all notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes one of userID's notifications, NotFoundError if not owned.
func (r *NotificationRepository) Delete(ctx context.Context, id, userID uint64) error {
	res := db.Conn(ctx, r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&db.Notification{})
	if res.Error != nil {
		return svcErr.Internal("delete notification", res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.NotFound("Notification", id)
	}
	return nil
}

func (r *NotificationRepository) DeleteAll(ctx context.Context, userID uint64) (int64, error) {
	res := db.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Delete(&db.Notification{})
	if res.Error != nil {
		return 0, svcErr.Internal("delete notifications", res.Error)
	}
	return res.RowsAffected, nil
}
