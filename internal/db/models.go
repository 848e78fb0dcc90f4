package db

import (
	"time"
)

// User is the profile collaborator's projection used for matching.
// Only gender, birth date and city take part in suggestion filtering.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"uniqueIndex;size:64;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Active       bool   `gorm:"not null;index:idx_user_active_gender,priority:1"`
	LastLoginAt  time.Time
	Gender       string    `gorm:"size:16;not null;index:idx_user_active_gender,priority:2"`
	BirthDate    time.Time `gorm:"not null"`
	City         string    `gorm:"size:64;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// SearchPreference holds a user's stored suggestion filters.
// Nil fields mean "no constraint".
type SearchPreference struct {
	UserID        uint64 `gorm:"primaryKey;autoIncrement:false"`
	Gender        *string `gorm:"size:16"`
	MinAge        *int
	MaxAge        *int
	City          *string `gorm:"size:64"`
	MaxDistanceKm *int
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

type RatingType string

const (
	RatingLike    RatingType = "LIKE"
	RatingDislike RatingType = "DISLIKE"
)

// Valid reports whether t is a known rating type.
func (t RatingType) Valid() bool {
	return t == RatingLike || t == RatingDislike
}

// Rating is one user's judgment of another. Insert-only.
//
// Indexes:
//   - idx_rating_pair(rater_id, rated_user_id) UNIQUE
//     One judgment per ordered pair; duplicate inserts fail.
//   - idx_rating_rated_type_created(rated_user_id, type, created_at)
//     "who liked me" lists and received-like counts.
type Rating struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	RaterID     uint64     `gorm:"not null;uniqueIndex:idx_rating_pair,priority:1"`
	RatedUserID uint64     `gorm:"not null;uniqueIndex:idx_rating_pair,priority:2;index:idx_rating_rated_type_created,priority:1"`
	Type        RatingType `gorm:"size:8;not null;index:idx_rating_rated_type_created,priority:2"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_rating_rated_type_created,priority:3"`
}

// NewRating builds a rating stamped with the current time.
func NewRating(raterID, ratedUserID uint64, t RatingType) *Rating {
	return &Rating{
		RaterID:     raterID,
		RatedUserID: ratedUserID,
		Type:        t,
		CreatedAt:   now(),
	}
}

// Match links two users after a mutual like.
//
// The pair is stored canonically (UserAID < UserBID) so the unique index
// idx_match_pair treats (a,b) and (b,a) as the same pair. A pair has at most
// one row for its whole history; IsActive only moves from true to false.
type Match struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserAID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	UserBID   uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2;index"`
	MatchedAt time.Time `gorm:"not null"`
	IsActive  bool      `gorm:"not null"`
}

// NewMatch builds an active match for the unordered pair {a, b}.
func NewMatch(a, b uint64) *Match {
	lo, hi := CanonicalPair(a, b)
	return &Match{
		UserAID:   lo,
		UserBID:   hi,
		MatchedAt: now(),
		IsActive:  true,
	}
}

// CanonicalPair orders a user pair so that the smaller id comes first.
func CanonicalPair(a, b uint64) (uint64, uint64) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether userID is one of the two matched users.
func (m *Match) HasParticipant(userID uint64) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// Message is a chat message inside a match.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	SenderID   uint64    `gorm:"not null"`
	ReceiverID uint64    `gorm:"not null;index:idx_message_receiver_read,priority:1"`
	MatchID    uint64    `gorm:"not null;index:idx_message_match_sent,priority:1"`
	Content    string    `gorm:"type:text;not null"`
	SentAt     time.Time `gorm:"not null;index:idx_message_match_sent,priority:2"`
	IsRead     bool      `gorm:"not null;index:idx_message_receiver_read,priority:2"`
}

func NewMessage(senderID, receiverID, matchID uint64, content string) *Message {
	return &Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		MatchID:    matchID,
		Content:    content,
		SentAt:     now(),
	}
}

type NotificationType string

const (
	NotificationNewMatch   NotificationType = "NEW_MATCH"
	NotificationNewMessage NotificationType = "NEW_MESSAGE"
)

// Notification is a durable, per-user record of a match or message event.
type Notification struct {
	ID              uint64           `gorm:"primaryKey;autoIncrement"`
	UserID          uint64           `gorm:"not null;index:idx_notification_user_read,priority:1;index:idx_notification_user_created,priority:1"`
	Type            NotificationType `gorm:"size:32;not null"`
	Message         string           `gorm:"size:255;not null"`
	IsRead          bool             `gorm:"not null;index:idx_notification_user_read,priority:2"`
	CreatedAt       time.Time        `gorm:"not null;index:idx_notification_user_created,priority:2,sort:desc"`
	RelatedUserID   *uint64
	RelatedEntityID *uint64
}

func NewNotification(userID uint64, t NotificationType, message string, relatedUserID, relatedEntityID uint64) *Notification {
	return &Notification{
		UserID:          userID,
		Type:            t,
		Message:         message,
		CreatedAt:       now(),
		RelatedUserID:   &relatedUserID,
		RelatedEntityID: &relatedEntityID,
	}
}

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&User{},
		&SearchPreference{},
		&Rating{},
		&Match{},
		&Message{},
		&Notification{},
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
