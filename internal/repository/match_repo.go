package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create inserts a match unless the pair already has one.
//
// Behavior:
//   - The insert carries ON CONFLICT DO NOTHING on the canonical pair, so a
//     lost race never aborts the surrounding transaction.
//   - Pair already present (active or not) → AlreadyMatchedError.
func (r *MatchRepository) Create(ctx context.Context, match *db.Match) error {
	res := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(match)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return svcErr.AlreadyMatched(match.UserAID, match.UserBID)
		}
		return svcErr.Internal("insert match", res.Error)
	}
	if res.RowsAffected == 0 {
		return svcErr.AlreadyMatched(match.UserAID, match.UserBID)
	}
	return nil
}

// FindByID loads a match or returns NotFoundError.
func (r *MatchRepository) FindByID(ctx context.Context, id uint64) (*db.Match, error) {
	return r.find(db.Conn(ctx, r.db), id)
}

// FindByIDForUpdate loads a match and locks its row until the surrounding
// transaction ends. SQLite ignores the lock; its writers are serialized anyway.
func (r *MatchRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*db.Match, error) {
	return r.find(db.Conn(ctx, r.db).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (r *MatchRepository) find(q *gorm.DB, id uint64) (*db.Match, error) {
	var m db.Match
	if err := q.First(&m, id).Error; err != nil {
		if isNotFound(err) {
			return nil, svcErr.NotFound("Match", id)
		}
		return nil, svcErr.Internal("load match", err)
	}
	return &m, nil
}

// FindByPair loads the match of the unordered pair {a, b}, or nil when none exists.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b uint64) (*db.Match, error) {
	lo, hi := db.CanonicalPair(a, b)

	var matches []db.Match
	err := db.Conn(ctx, r.db).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		Limit(1).
		Find(&matches).Error
	if err != nil {
		return nil, svcErr.Internal("load match by pair", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Deactivate flips is_active to false. Returns false when the match was already inactive.
// The WHERE guard makes concurrent calls safe: only one of them changes the row.
func (r *MatchRepository) Deactivate(ctx context.Context, id uint64) (bool, error) {
	res := db.Conn(ctx, r.db).
		Model(&db.Match{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return false, svcErr.Internal("deactivate match", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListActive returns the active matches of userID.
//
// Ordering:
//   - Most recent message first; matches without messages fall back to matched_at.
//   - Ties broken by id DESC.
//
// The last-message time is a join against the messages aggregate, not a stored field.
func (r *MatchRepository) ListActive(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match

	lastMessage := db.Conn(ctx, r.db).
		Model(&db.Message{}).
		Select("match_id, MAX(sent_at) AS last_sent_at").
		Group("match_id")

	err := db.Conn(ctx, r.db).
		Table("matches m").
		Select("m.*").
		Joins("LEFT JOIN (?) lm ON lm.match_id = m.id", lastMessage).
		Where("m.is_active = ? AND (m.user_a_id = ? OR m.user_b_id = ?)", true, userID, userID).
		Order("COALESCE(lm.last_sent_at, m.matched_at) DESC, m.id DESC").
		Find(&matches).Error
	if err != nil {
		return nil, svcErr.Internal("list active matches", err)
	}
	return matches, nil
}
