// Package matching turns reciprocal likes into matches and owns the match
// lifecycle (unmatch, listing, participant checks).
package matching

import (
	"context"
	"errors"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/service/rating"
)

type Status string

const (
	StatusNoMatch  Status = "NO_MATCH"
	StatusNewMatch Status = "NEW_MATCH"
)

// Outcome is the result of a like. MatchID is set only for NEW_MATCH.
type Outcome struct {
	Status  Status
	MatchID uint64
}

// MatchSummary is one row of a user's active match list.
type MatchSummary struct {
	Match       db.Match
	OtherUserID uint64
	LastMessage *db.Message
	UnreadCount int64
}

// Engine coordinates the rating store, match rows and notifications.
type Engine struct {
	appCtx   *app.AppContext
	ratings  *rating.Service
	notifier *notification.Dispatcher
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
}

func NewEngine(appCtx *app.AppContext, ratings *rating.Service, notifier *notification.Dispatcher) *Engine {
	return &Engine{
		appCtx:   appCtx,
		ratings:  ratings,
		notifier: notifier,
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
	}
}

// Rate stores a rating and, for a LIKE, attempts the match.
func (e *Engine) Rate(ctx context.Context, raterID, ratedUserID uint64, t db.RatingType) (Outcome, error) {
	if t == db.RatingLike {
		return e.RecordLikeAndMatch(ctx, raterID, ratedUserID)
	}
	if _, err := e.ratings.Submit(ctx, raterID, ratedUserID, t); err != nil {
		return Outcome{}, err
	}
	return Outcome{Status: StatusNoMatch}, nil
}

// RecordLikeAndMatch stores raterID's LIKE of ratedUserID and creates the
// match when the like is reciprocated.
//
// Two transactions, in order:
//  1. the rating insert commits on its own (single statement);
//  2. the mutual-like check and the match insert run together.
//
// Of two concurrent reciprocal likes, at least one step 2 sees both ratings.
// The unique pair index lets exactly one of them insert the match, and only
// that one notifies.
//
// A retry after step 2 failed finds the rating already stored: step 2 runs
// again before DuplicateRatingError is returned, so the match is not lost.
func (e *Engine) RecordLikeAndMatch(ctx context.Context, raterID, ratedUserID uint64) (Outcome, error) {
	e.appCtx.Logger.Debug("RecordLikeAndMatch called", "rater", raterID, "rated", ratedUserID)

	if _, err := e.ratings.Submit(ctx, raterID, ratedUserID, db.RatingLike); err != nil {
		if !errors.Is(err, svcErr.ErrDuplicateRating) {
			return Outcome{}, err
		}
		if _, mErr := e.EnsureMatch(ctx, raterID, ratedUserID); mErr != nil {
			return Outcome{}, mErr
		}
		return Outcome{}, err
	}
	return e.EnsureMatch(ctx, raterID, ratedUserID)
}

// EnsureMatch creates the match for {a, b} if both like each other and no
// match row exists yet. Safe to repeat.
func (e *Engine) EnsureMatch(ctx context.Context, a, b uint64) (Outcome, error) {
	if a == b {
		return Outcome{}, svcErr.InvalidActor(a)
	}

	var created *db.Match
	err := e.appCtx.Tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := e.matches.FindByPair(ctx, a, b)
		if err != nil {
			return err
		}
		if existing != nil {
			return svcErr.AlreadyMatched(existing.UserAID, existing.UserBID)
		}

		mutual, err := e.ratings.MutualLikeExists(ctx, a, b)
		if err != nil || !mutual {
			return err
		}

		m := db.NewMatch(a, b)
		if err := e.matches.Create(ctx, m); err != nil {
			return err
		}
		if _, err := e.notifier.NotifyMatch(ctx, m.UserAID, m.UserBID, m.ID); err != nil {
			return err
		}
		if _, err := e.notifier.NotifyMatch(ctx, m.UserBID, m.UserAID, m.ID); err != nil {
			return err
		}
		created = m
		return nil
	})

	switch {
	case errors.Is(err, svcErr.ErrAlreadyMatched):
		metrics.MatchInsertConflicts.Inc()
		e.appCtx.Logger.Debug("pair already matched", "a", a, "b", b)
		return Outcome{Status: StatusNoMatch}, nil
	case err != nil:
		e.appCtx.Logger.Error("EnsureMatch failed", "a", a, "b", b, "err", err)
		return Outcome{}, err
	case created == nil:
		return Outcome{Status: StatusNoMatch}, nil
	}

	metrics.MatchesCreated.Inc()
	e.notifier.InvalidateUnread(ctx, created.UserAID, created.UserBID)
	e.appCtx.Logger.Debug("match created", "match", created.ID, "a", created.UserAID, "b", created.UserBID)
	return Outcome{Status: StatusNewMatch, MatchID: created.ID}, nil
}

// Unmatch deactivates matchID on behalf of one of its participants.
// The match row and its messages are kept. Unmatching an inactive match
// succeeds without changes.
func (e *Engine) Unmatch(ctx context.Context, requestingUserID, matchID uint64) error {
	e.appCtx.Logger.Debug("Unmatch called", "user", requestingUserID, "match", matchID)

	err := e.deactivate(ctx, requestingUserID, matchID)
	if errors.Is(err, svcErr.ErrAlreadyInactive) {
		e.appCtx.Logger.Debug("match already inactive", "match", matchID)
		return nil
	}
	return err
}

func (e *Engine) deactivate(ctx context.Context, userID, matchID uint64) error {
	m, err := e.matches.FindByID(ctx, matchID)
	if err != nil {
		return err
	}
	// outsiders must not learn the match exists
	if !m.HasParticipant(userID) {
		return svcErr.NotFound("Match", matchID)
	}

	changed, err := e.matches.Deactivate(ctx, matchID)
	if err != nil {
		return err
	}
	if !changed {
		return svcErr.AlreadyInactive(matchID)
	}
	metrics.Unmatches.Inc()
	return nil
}

// GetActiveMatches lists userID's active matches, most recent activity
// first, with the last message and the unread count for userID.
func (e *Engine) GetActiveMatches(ctx context.Context, userID uint64) ([]MatchSummary, error) {
	matches, err := e.matches.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []MatchSummary{}, nil
	}

	ids := make([]uint64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	latest, err := e.messages.LatestByMatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	unread, err := e.messages.UnreadCountByMatch(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MatchSummary, 0, len(matches))
	for _, m := range matches {
		other, err := OtherParticipant(&m, userID)
		if err != nil {
			return nil, err
		}
		s := MatchSummary{Match: m, OtherUserID: other, UnreadCount: unread[m.ID]}
		if msg, ok := latest[m.ID]; ok {
			s.LastMessage = &msg
		}
		out = append(out, s)
	}
	return out, nil
}

func (e *Engine) GetMatch(ctx context.Context, matchID uint64) (*db.Match, error) {
	return e.matches.FindByID(ctx, matchID)
}

// OtherParticipant returns the member of m that is not userID.
func OtherParticipant(m *db.Match, userID uint64) (uint64, error) {
	switch userID {
	case m.UserAID:
		return m.UserBID, nil
	case m.UserBID:
		return m.UserAID, nil
	}
	return 0, svcErr.NotParticipant(m.ID, userID)
}
