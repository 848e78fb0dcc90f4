// Package seed fills an empty database with demo users, ratings, matches and
// messages. Ratings go through the match engine so matches and notifications
// are consistent with what the API would have produced.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/conversation"
	"github.com/oggyb/muzz-match/internal/service/matching"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/service/rating"
)

type Options struct {
	Users          int
	RatingsPerUser int
	// LikeRatio is the share of ratings that are LIKEs, 0..1.
	LikeRatio float64
	Seed      int64
}

func DefaultOptions() Options {
	return Options{Users: 50, RatingsPerUser: 10, LikeRatio: 0.6, Seed: 42}
}

type Summary struct {
	Users    int
	Ratings  int
	Matches  int
	Messages int
}

// Run wipes the service tables and seeds them according to opts.
// Users 1 and 2 always end up matched with one message exchanged.
func Run(ctx context.Context, appCtx *app.AppContext, opts Options) (Summary, error) {
	if opts.Users < 2 {
		return Summary{}, fmt.Errorf("seed needs at least 2 users, got %d", opts.Users)
	}
	r := rand.New(rand.NewSource(opts.Seed))

	if err := db.ResetData(appCtx.DB); err != nil {
		return Summary{}, err
	}
	for _, pattern := range []string{"likes:received:*", "notifications:unread:*"} {
		if _, err := appCtx.RedisCache.DeleteMatching(ctx, pattern); err != nil {
			appCtx.Logger.Warn("cached counters not cleared", "pattern", pattern, "err", err)
		}
	}
	users, err := db.SeedUsers(appCtx.DB, r, opts.Users)
	if err != nil {
		return Summary{}, err
	}

	notifier := notification.NewDispatcher(appCtx)
	engine := matching.NewEngine(appCtx, rating.NewService(appCtx), notifier)
	chat := conversation.NewService(appCtx, notifier)

	sum := Summary{Users: len(users)}
	var matchIDs []uint64

	rate := func(rater, rated uint64, t db.RatingType) error {
		out, err := engine.Rate(ctx, rater, rated, t)
		if errors.Is(err, svcErr.ErrDuplicateRating) {
			return nil
		}
		if err != nil {
			return err
		}
		sum.Ratings++
		if out.Status == matching.StatusNewMatch {
			sum.Matches++
			matchIDs = append(matchIDs, out.MatchID)
		}
		return nil
	}

	first, second := users[0].ID, users[1].ID
	if err := rate(first, second, db.RatingLike); err != nil {
		return sum, err
	}
	if err := rate(second, first, db.RatingLike); err != nil {
		return sum, err
	}

	for _, u := range users {
		for _, i := range r.Perm(len(users))[:min(opts.RatingsPerUser, len(users))] {
			target := users[i].ID
			if target == u.ID {
				continue
			}
			t := db.RatingDislike
			if r.Float64() < opts.LikeRatio {
				t = db.RatingLike
			}
			if err := rate(u.ID, target, t); err != nil {
				return sum, err
			}
		}
	}

	for _, id := range matchIDs {
		m, err := engine.GetMatch(ctx, id)
		if err != nil {
			return sum, err
		}
		if _, err := chat.SendMessage(ctx, m.UserAID, m.UserBID, id, "Hi! Nice to match with you"); err != nil {
			return sum, err
		}
		sum.Messages++
	}

	appCtx.Logger.Info("seed completed",
		"users", sum.Users, "ratings", sum.Ratings, "matches", sum.Matches, "messages", sum.Messages)
	return sum, nil
}
