// Package rating is the insert-only store of like/dislike judgments.
package rating

import (
	"context"
	"strconv"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/repository"
)

// Service owns rating writes and the read queries built on them.
type Service struct {
	appCtx  *app.AppContext
	ratings *repository.RatingRepository
	users   *repository.UserRepository
}

// NewService creates a rating service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:  appCtx,
		ratings: repository.NewRatingRepository(appCtx.DB),
		users:   repository.NewUserRepository(appCtx.DB),
	}
}

// Submit stores raterID's judgment of ratedUserID.
//
// Behavior:
//   - Unknown rating type or zero ids → ValidationError.
//   - raterID == ratedUserID → InvalidActorError.
//   - Either user missing → NotFoundError.
//   - Pair already rated (any type) → DuplicateRatingError. Ratings are never updated.
//   - A LIKE invalidates the rated user's cached received-like count.
func (s *Service) Submit(ctx context.Context, raterID, ratedUserID uint64, t db.RatingType) (*db.Rating, error) {
	s.appCtx.Logger.Debug("Submit rating", "rater", raterID, "rated", ratedUserID, "type", t)

	if !t.Valid() {
		return nil, svcErr.Validation("type", "must be LIKE or DISLIKE")
	}
	if raterID == 0 || ratedUserID == 0 {
		return nil, svcErr.Validation("user_id", "must be a positive integer")
	}
	if raterID == ratedUserID {
		return nil, svcErr.InvalidActor(raterID)
	}
	for _, id := range []uint64{raterID, ratedUserID} {
		ok, err := s.users.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, svcErr.NotFound("User", id)
		}
	}

	r := db.NewRating(raterID, ratedUserID, t)
	if err := s.ratings.Create(ctx, r); err != nil {
		if svcErr.KindOf(err) == svcErr.KindInternal {
			s.appCtx.Logger.Error("Create rating failed", "rater", raterID, "rated", ratedUserID, "err", err)
		}
		return nil, err
	}
	metrics.RatingsSubmitted.WithLabelValues(string(t)).Inc()

	if t == db.RatingLike {
		if err := s.appCtx.RedisCache.Del(ctx, cache.KeyForLikesReceived(ratedUserID)); err != nil {
			metrics.CacheErrors.WithLabelValues("del_likes_received").Inc()
			s.appCtx.Logger.Warn("like count invalidation failed", "user", ratedUserID, "err", err)
		}
	}
	return r, nil
}

func (s *Service) HasLiked(ctx context.Context, raterID, ratedUserID uint64) (bool, error) {
	return s.ratings.HasLiked(ctx, raterID, ratedUserID)
}

func (s *Service) MutualLikeExists(ctx context.Context, a, b uint64) (bool, error) {
	return s.ratings.MutualLikeExists(ctx, a, b)
}

// CountLikesReceived returns how many users liked userID.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:received:userID).
//  2. On a miss or a Redis failure, falls back to the DB.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikesReceived(ctx context.Context, userID uint64) (int64, error) {
	key := cache.KeyForLikesReceived(userID)

	n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key)
	if err != nil {
		metrics.CacheErrors.WithLabelValues("get_likes_received").Inc()
		s.appCtx.Logger.Warn("like count cache read failed", "user", userID, "err", err)
	} else if ok {
		return n, nil
	}

	count, err := s.ratings.CountLikesReceived(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.appCtx.RedisCache.SetCount(ctx, key, count); err != nil {
		metrics.CacheErrors.WithLabelValues("set_likes_received").Inc()
	}
	return count, nil
}

func (s *Service) CountLikesGiven(ctx context.Context, userID uint64) (int64, error) {
	return s.ratings.CountLikesGiven(ctx, userID)
}

// Liker is one pending LIKE addressed to the caller.
type Liker struct {
	UserID        uint64 `json:"userId"`
	UnixTimestamp int64  `json:"unixTimestamp"`
}

// ListLikers returns who liked userID and is still awaiting userID's decision.
// A limit outside 1..50 falls back to 20.
func (s *Service) ListLikers(ctx context.Context, userID uint64, token *string, limit int) ([]Liker, *string, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	ratings, next, err := s.ratings.GetLikers(ctx, userID, token, limit)
	if err != nil {
		return nil, nil, err
	}

	likers := make([]Liker, 0, len(ratings))
	for _, r := range ratings {
		likers = append(likers, Liker{UserID: r.RaterID, UnixTimestamp: r.CreatedAt.UnixMilli()})
	}
	s.appCtx.Logger.Debug("ListLikers result", "user", userID, "count", len(likers), "next", strconv.FormatBool(next != nil))
	return likers, next, nil
}
