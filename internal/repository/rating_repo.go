package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// RatingRepository provides data access methods for the Rating model.
// Ratings are insert-only; the unique (rater_id, rated_user_id) index is the
// source of truth for "already rated".
type RatingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a new repository bound to the given DB connection.
func NewRatingRepository(database *gorm.DB) *RatingRepository {
	return &RatingRepository{db: database}
}

// Create inserts a rating.
//
// Behavior:
//   - If the (rater_id, rated_user_id) pair exists → DuplicateRatingError, nothing written.
//   - Concurrent inserts of the same pair: exactly one succeeds.
func (r *RatingRepository) Create(ctx context.Context, rating *db.Rating) error {
	if err := db.Conn(ctx, r.db).Create(rating).Error; err != nil {
		if isUniqueViolation(err) {
			return svcErr.DuplicateRating(rating.RaterID, rating.RatedUserID)
		}
		return svcErr.Internal("insert rating", err)
	}
	return nil
}

// HasLiked checks whether rater has a LIKE rating for rated.
func (r *RatingRepository) HasLiked(ctx context.Context, raterID, ratedUserID uint64) (bool, error) {
	var count int64
	err := db.Conn(ctx, r.db).
		Model(&db.Rating{}).
		Where("rater_id = ? AND rated_user_id = ? AND type = ?", raterID, ratedUserID, db.RatingLike).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Internal("check like", err)
	}
	return count > 0, nil
}

// MutualLikeExists reports whether a and b liked each other, in one query.
func (r *RatingRepository) MutualLikeExists(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := db.Conn(ctx, r.db).
		Model(&db.Rating{}).
		Where("((rater_id = ? AND rated_user_id = ?) OR (rater_id = ? AND rated_user_id = ?)) AND type = ?",
			a, b, b, a, db.RatingLike).
		Count(&count).Error
	if err != nil {
		return false, svcErr.Internal("check mutual like", err)
	}
	return count == 2, nil
}

// CountLikesReceived counts LIKE ratings addressed to userID.
func (r *RatingRepository) CountLikesReceived(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := db.Conn(ctx, r.db).
		Model(&db.Rating{}).
		Where("rated_user_id = ? AND type = ?", userID, db.RatingLike).
		Count(&count).Error
	if err != nil {
		return 0, svcErr.Internal("count likes received", err)
	}
	return count, nil
}

// CountLikesGiven counts LIKE ratings submitted by userID.
func (r *RatingRepository) CountLikesGiven(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := db.Conn(ctx, r.db).
		Model(&db.Rating{}).
		Where("rater_id = ? AND type = ?", userID, db.RatingLike).
		Count(&count).Error
	if err != nil {
		return 0, svcErr.Internal("count likes given", err)
	}
	return count, nil
}

// GetLikers returns LIKE ratings addressed to recipient that still await a decision.
//
// Behavior:
//   - Only ratings where rated_user_id = X and type = LIKE are returned.
//   - Excludes raters the recipient disliked.
//   - Excludes raters already matched with the recipient (active or not).
//   - Ordered by created_at DESC, rater_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetLikers(ctx, 42, nil, 20) // first 20 people who liked user 42
func (r *RatingRepository) GetLikers(
	ctx context.Context,
	recipientID uint64,
	paginationToken *string,
	limit int,
) ([]db.Rating, *string, error) {
	var ratings []db.Rating

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, svcErr.Validation("pagination_token", err.Error())
	}

	query := db.Conn(ctx, r.db).
		Table("ratings r").
		Where("r.rated_user_id = ? AND r.type = ?", recipientID, db.RatingLike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM ratings r2
				WHERE r2.rater_id = ?
				  AND r2.rated_user_id = r.rater_id
				  AND r2.type = ?
			)`, recipientID, db.RatingDislike).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM matches m
				WHERE (m.user_a_id = r.rater_id AND m.user_b_id = ?)
				   OR (m.user_a_id = ? AND m.user_b_id = r.rater_id)
			)`, recipientID, recipientID).
		Order("r.created_at DESC, r.rater_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(r.created_at < ? OR (r.created_at = ? AND r.rater_id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&ratings).Error; err != nil {
		return nil, nil, svcErr.Internal("list likers", err)
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(ratings) > limit {
		last := ratings[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.RaterID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		ratings = ratings[:limit]
	}

	return ratings, nextToken, nil
}
