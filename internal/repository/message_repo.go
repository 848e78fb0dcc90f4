package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// MessageRepository provides data access methods for the Message model.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new repository bound to the given DB connection.
func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

func (r *MessageRepository) Create(ctx context.Context, msg *db.Message) error {
	if err := db.Conn(ctx, r.db).Create(msg).Error; err != nil {
		return svcErr.Internal("insert message", err)
	}
	return nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id uint64) (*db.Message, error) {
	var m db.Message
	if err := db.Conn(ctx, r.db).First(&m, id).Error; err != nil {
		if isNotFound(err) {
			return nil, svcErr.NotFound("Message", id)
		}
		return nil, svcErr.Internal("load message", err)
	}
	return &m, nil
}

// ListByMatch returns the full conversation ordered by sent_at ASC, id ASC.
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID uint64) ([]db.Message, error) {
	var messages []db.Message
	err := db.Conn(ctx, r.db).
		Where("match_id = ?", matchID).
		Order("sent_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, svcErr.Internal("list messages", err)
	}
	return messages, nil
}

// LatestByMatch returns the newest message of each given match, keyed by match id.
// Matches without messages are absent from the result.
//
// "Newest" is MAX(sent_at), the key ListActive sorts by; equal sent_at values
// resolve to the highest id.
func (r *MessageRepository) LatestByMatch(ctx context.Context, matchIDs []uint64) (map[uint64]db.Message, error) {
	out := make(map[uint64]db.Message, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	lastSent := db.Conn(ctx, r.db).
		Model(&db.Message{}).
		Select("match_id, MAX(sent_at) AS last_sent_at").
		Where("match_id IN ?", matchIDs).
		Group("match_id")

	var messages []db.Message
	err := db.Conn(ctx, r.db).
		Table("messages msg").
		Select("msg.*").
		Joins("JOIN (?) ls ON ls.match_id = msg.match_id AND ls.last_sent_at = msg.sent_at", lastSent).
		Order("msg.id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, svcErr.Internal("load latest messages", err)
	}
	// ascending ids: the last write per match wins ties
	for _, m := range messages {
		out[m.MatchID] = m
	}
	return out, nil
}

// UnreadCountByMatch counts unread messages addressed to receiverID per match.
func (r *MessageRepository) UnreadCountByMatch(ctx context.Context, receiverID uint64, matchIDs []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		MatchID uint64
		Unread  int64
	}
	err := db.Conn(ctx, r.db).
		Model(&db.Message{}).
		Select("match_id, COUNT(*) AS unread").
		Where("receiver_id = ? AND is_read = ? AND match_id IN ?", receiverID, false, matchIDs).
		Group("match_id").
		Scan(&rows).Error
	if err != nil {
		return nil, svcErr.Internal("count unread messages", err)
	}
	for _, row := range rows {
		out[row.MatchID] = row.Unread
	}
	return out, nil
}

// MarkAllRead flips is_read for unread messages addressed to receiverID in matchID.
func (r *MessageRepository) MarkAllRead(ctx context.Context, matchID, receiverID uint64) (int64, error) {
	res := db.Conn(ctx, r.db).
		Model(&db.Message{}).
		Where("match_id = ? AND receiver_id = ? AND is_read = ?", matchID, receiverID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, svcErr.Internal("mark messages read", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkRead flips is_read of one message. Already-read messages are left untouched.
func (r *MessageRepository) MarkRead(ctx context.Context, id uint64) error {
	err := db.Conn(ctx, r.db).
		Model(&db.Message{}).
		Where("id = ? AND is_read = ?", id, false).
		Update("is_read", true).Error
	if err != nil {
		return svcErr.Internal("mark message read", err)
	}
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id uint64) error {
	if err := db.Conn(ctx, r.db).Delete(&db.Message{}, id).Error; err != nil {
		return svcErr.Internal("delete message", err)
	}
	return nil
}

// DeleteByMatch removes the whole conversation of a match.
func (r *MessageRepository) DeleteByMatch(ctx context.Context, matchID uint64) (int64, error) {
	res := db.Conn(ctx, r.db).
		Where("match_id = ?", matchID).
		Delete(&db.Message{})
	if res.Error != nil {
		return 0, svcErr.Internal("delete conversation", res.Error)
	}
	return res.RowsAffected, nil
}
