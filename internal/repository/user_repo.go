package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// CandidateFilter narrows the suggestion query. Zero values mean "any".
type CandidateFilter struct {
	Gender string
	City   string
	// BornOnOrBefore enforces a minimum age, BornAfter a maximum age.
	BornOnOrBefore *time.Time
	BornAfter      *time.Time
}

// UserRepository reads the profile collaborator's tables.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Exists reports whether an active or inactive user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	if err := db.Conn(ctx, r.db).Model(&db.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, svcErr.Internal("check user", err)
	}
	return count > 0, nil
}

// Candidates returns a page of users that userID has neither rated nor been
// matched with, ordered by id ASC.
//
// The exclusions are NOT EXISTS subqueries inside the candidate statement, so
// a rating or match committed before the statement runs is always honored.
// Count and page run on the same handle; callers wrap them in a transaction
// to read one snapshot.
func (r *UserRepository) Candidates(
	ctx context.Context,
	userID uint64,
	f CandidateFilter,
	offset, limit int,
) ([]db.User, int64, error) {
	conn := db.Conn(ctx, r.db)
	build := func() *gorm.DB {
		q := conn.Model(&db.User{}).
			Where("users.id <> ? AND users.active = ?", userID, true).
			Where(`
				NOT EXISTS (
					SELECT 1 FROM ratings r
					WHERE r.rater_id = ? AND r.rated_user_id = users.id
				)`, userID).
			Where(`
				NOT EXISTS (
					SELECT 1 FROM matches m
					WHERE (m.user_a_id = ? AND m.user_b_id = users.id)
					   OR (m.user_b_id = ? AND m.user_a_id = users.id)
				)`, userID, userID)
		if f.Gender != "" {
			q = q.Where("users.gender = ?", f.Gender)
		}
		if f.City != "" {
			q = q.Where("users.city = ?", f.City)
		}
		if f.BornOnOrBefore != nil {
			q = q.Where("users.birth_date <= ?", *f.BornOnOrBefore)
		}
		if f.BornAfter != nil {
			q = q.Where("users.birth_date > ?", *f.BornAfter)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, 0, svcErr.Internal("count candidates", err)
	}

	var users []db.User
	err := build().
		Order("users.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, svcErr.Internal("list candidates", err)
	}
	return users, total, nil
}

// GetPreference returns the stored preferences of userID, or nil when none are stored.
func (r *UserRepository) GetPreference(ctx context.Context, userID uint64) (*db.SearchPreference, error) {
	var prefs []db.SearchPreference
	if err := db.Conn(ctx, r.db).Where("user_id = ?", userID).Limit(1).Find(&prefs).Error; err != nil {
		return nil, svcErr.Internal("load search preference", err)
	}
	if len(prefs) == 0 {
		return nil, nil
	}
	return &prefs[0], nil
}

// SavePreference inserts or replaces the preferences of pref.UserID.
func (r *UserRepository) SavePreference(ctx context.Context, pref *db.SearchPreference) error {
	err := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"gender", "min_age", "max_age", "city", "max_distance_km", "updated_at"}),
		}).
		Create(pref).Error
	if err != nil {
		return svcErr.Internal("save search preference", err)
	}
	return nil
}
