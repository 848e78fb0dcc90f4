package httpapi

import (
	"time"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/service/matching"
)

type rateRequest struct {
	RaterID     uint64 `json:"raterId"`
	RatedUserID uint64 `json:"ratedUserId"`
	Type        string `json:"type"`
}

type preferencesRequest struct {
	UserID        uint64  `json:"userId"`
	Gender        *string `json:"gender"`
	MinAge        *int    `json:"minAge"`
	MaxAge        *int    `json:"maxAge"`
	City          *string `json:"city"`
	MaxDistanceKm *int    `json:"maxDistanceKm"`
}

type sendMessageRequest struct {
	SenderID   uint64 `json:"senderId"`
	ReceiverID uint64 `json:"receiverId"`
	MatchID    uint64 `json:"matchId"`
	Content    string `json:"content"`
}

type messageResponse struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"senderId"`
	ReceiverID uint64    `json:"receiverId"`
	MatchID    uint64    `json:"matchId"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
	IsRead     bool      `json:"isRead"`
}

func toMessage(m db.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		MatchID:    m.MatchID,
		Content:    m.Content,
		SentAt:     m.SentAt,
		IsRead:     m.IsRead,
	}
}

func toMessages(ms []db.Message) []messageResponse {
	out := make([]messageResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMessage(m))
	}
	return out
}

type matchResponse struct {
	MatchID     uint64           `json:"matchId"`
	OtherUserID uint64           `json:"otherUserId"`
	MatchedAt   time.Time        `json:"matchedAt"`
	LastMessage *messageResponse `json:"lastMessage"`
	UnreadCount int64            `json:"unreadCount"`
}

func toMatch(s matching.MatchSummary) matchResponse {
	out := matchResponse{
		MatchID:     s.Match.ID,
		OtherUserID: s.OtherUserID,
		MatchedAt:   s.Match.MatchedAt,
		UnreadCount: s.UnreadCount,
	}
	if s.LastMessage != nil {
		m := toMessage(*s.LastMessage)
		out.LastMessage = &m
	}
	return out
}

type notificationResponse struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"userId"`
	Type            string    `json:"type"`
	Message         string    `json:"message"`
	IsRead          bool      `json:"isRead"`
	CreatedAt       time.Time `json:"createdAt"`
	RelatedUserID   *uint64   `json:"relatedUserId,omitempty"`
	RelatedEntityID *uint64   `json:"relatedEntityId,omitempty"`
}

func toNotification(n db.Notification) notificationResponse {
	return notificationResponse{
		ID:              n.ID,
		UserID:          n.UserID,
		Type:            string(n.Type),
		Message:         n.Message,
		IsRead:          n.IsRead,
		CreatedAt:       n.CreatedAt,
		RelatedUserID:   n.RelatedUserID,
		RelatedEntityID: n.RelatedEntityID,
	}
}

func toNotifications(ns []db.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, toNotification(n))
	}
	return out
}
