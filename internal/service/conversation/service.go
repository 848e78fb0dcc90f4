// Package conversation gates message traffic on the state of the match it
// belongs to.
package conversation

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/service/notification"
)

// MaxContentLength is the longest message accepted, in characters.
const MaxContentLength = 1000

type Service struct {
	appCtx   *app.AppContext
	notifier *notification.Dispatcher
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
}

func NewService(appCtx *app.AppContext, notifier *notification.Dispatcher) *Service {
	return &Service{
		appCtx:   appCtx,
		notifier: notifier,
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// SendMessage stores a message from senderID to receiverID inside matchID
// and notifies the receiver.
//
// Checks, in order:
//   - content non-blank and at most MaxContentLength characters, sender != receiver → ValidationError
//   - match exists → NotFoundError
//   - {sender, receiver} is the match pair → NotParticipantError
//   - match is active → MatchNotActiveError
//
// The match row is locked for the duration of the insert so a concurrent
// unmatch either lands before (and the send fails) or after.
func (s *Service) SendMessage(ctx context.Context, senderID, receiverID, matchID uint64, content string) (*db.Message, error) {
	s.appCtx.Logger.Debug("SendMessage called", "sender", senderID, "receiver", receiverID, "match", matchID)

	if strings.TrimSpace(content) == "" {
		return nil, svcErr.Validation("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, svcErr.Validation("content", "must be at most 1000 characters")
	}
	if senderID == receiverID {
		return nil, svcErr.Validation("receiverId", "must differ from senderId")
	}

	var msg *db.Message
	err := s.appCtx.Tx.RunInTx(ctx, func(ctx context.Context) error {
		m, err := s.matches.FindByIDForUpdate(ctx, matchID)
		if err != nil {
			return err
		}
		if !m.HasParticipant(senderID) || !m.HasParticipant(receiverID) {
			return svcErr.NotParticipant(matchID, senderID)
		}
		if !m.IsActive {
			return svcErr.MatchNotActive(matchID)
		}

		msg = db.NewMessage(senderID, receiverID, matchID, content)
		if err := s.messages.Create(ctx, msg); err != nil {
			return err
		}
		_, err = s.notifier.NotifyMessage(ctx, receiverID, senderID, msg.ID)
		return err
	})
	if err != nil {
		if svcErr.KindOf(err) == svcErr.KindInternal {
			s.appCtx.Logger.Error("SendMessage failed", "match", matchID, "err", err)
		}
		return nil, err
	}

	metrics.MessagesSent.Inc()
	s.notifier.InvalidateUnread(ctx, receiverID)
	return msg, nil
}

// GetHistory returns the conversation of matchID, oldest first. History
// stays readable after an unmatch.
func (s *Service) GetHistory(ctx context.Context, matchID, requestingUserID uint64) ([]db.Message, error) {
	if _, err := s.participantMatch(ctx, matchID, requestingUserID); err != nil {
		return nil, err
	}
	return s.messages.ListByMatch(ctx, matchID)
}

// DeleteConversation removes every message of matchID. Works on inactive matches.
func (s *Service) DeleteConversation(ctx context.Context, userID, matchID uint64) (int64, error) {
	var n int64
	err := s.appCtx.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.participantMatch(ctx, matchID, userID); err != nil {
			return err
		}
		var err error
		n, err = s.messages.DeleteByMatch(ctx, matchID)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.appCtx.Logger.Debug("conversation deleted", "match", matchID, "user", userID, "messages", n)
	return n, nil
}

// MarkAllRead flips every unread message addressed to receiverID in matchID.
func (s *Service) MarkAllRead(ctx context.Context, matchID, receiverID uint64) (int64, error) {
	if _, err := s.participantMatch(ctx, matchID, receiverID); err != nil {
		return 0, err
	}
	return s.messages.MarkAllRead(ctx, matchID, receiverID)
}

// MarkRead flips one message addressed to userID. Repeat calls succeed.
func (s *Service) MarkRead(ctx context.Context, messageID, userID uint64) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ReceiverID != userID {
		return svcErr.NotParticipant(msg.MatchID, userID)
	}
	return s.messages.MarkRead(ctx, messageID)
}

// DeleteMessage removes one message. Only its sender may delete it.
func (s *Service) DeleteMessage(ctx context.Context, messageID, userID uint64) error {
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return svcErr.NotParticipant(msg.MatchID, userID)
	}
	return s.messages.Delete(ctx, messageID)
}

func (s *Service) participantMatch(ctx context.Context, matchID, userID uint64) (*db.Match, error) {
	m, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasParticipant(userID) {
		return nil, svcErr.NotParticipant(matchID, userID)
	}
	return m, nil
}
