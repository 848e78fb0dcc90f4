// Package suggestion builds the candidate feed: active users the caller has
// neither rated nor matched, narrowed by search preferences.
package suggestion

import (
	"context"
	"time"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// MinAge is the lowest age a search may ask for.
const MinAge = 18

// Preferences are search filters. A nil field places no constraint.
// MaxDistanceKm is stored but not applied: users carry no coordinates.
type Preferences struct {
	Gender        *string `json:"gender,omitempty"`
	MinAge        *int    `json:"minAge,omitempty"`
	MaxAge        *int    `json:"maxAge,omitempty"`
	City          *string `json:"city,omitempty"`
	MaxDistanceKm *int    `json:"maxDistanceKm,omitempty"`
}

// Merge returns p with every non-nil field of override applied on top.
func (p Preferences) Merge(override Preferences) Preferences {
	if override.Gender != nil {
		p.Gender = override.Gender
	}
	if override.MinAge != nil {
		p.MinAge = override.MinAge
	}
	if override.MaxAge != nil {
		p.MaxAge = override.MaxAge
	}
	if override.City != nil {
		p.City = override.City
	}
	if override.MaxDistanceKm != nil {
		p.MaxDistanceKm = override.MaxDistanceKm
	}
	return p
}

func (p Preferences) Validate() error {
	if p.MinAge != nil && *p.MinAge < MinAge {
		return svcErr.Validation("minAge", "must be at least 18")
	}
	if p.MaxAge != nil && *p.MaxAge < MinAge {
		return svcErr.Validation("maxAge", "must be at least 18")
	}
	if p.MinAge != nil && p.MaxAge != nil && *p.MinAge > *p.MaxAge {
		return svcErr.Validation("minAge", "must not exceed maxAge")
	}
	if p.MaxDistanceKm != nil && *p.MaxDistanceKm <= 0 {
		return svcErr.Validation("maxDistanceKm", "must be positive")
	}
	return nil
}

// filter converts age bounds into birth date bounds relative to now.
func (p Preferences) filter(now time.Time) repository.CandidateFilter {
	var f repository.CandidateFilter
	if p.Gender != nil {
		f.Gender = *p.Gender
	}
	if p.City != nil {
		f.City = *p.City
	}
	if p.MinAge != nil {
		t := now.AddDate(-*p.MinAge, 0, 0)
		f.BornOnOrBefore = &t
	}
	if p.MaxAge != nil {
		// still MaxAge until the day before the next birthday
		t := now.AddDate(-(*p.MaxAge + 1), 0, 0)
		f.BornAfter = &t
	}
	return f
}

// Candidate is a suggested profile.
type Candidate struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
	City     string `json:"city"`
}

type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
	now    func() time.Time
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetSuggestions returns one page of candidates for userID.
//
// Stored preferences apply first; any field set in override replaces the
// stored value for this request only. The count and the page are read in
// one transaction so Total and Items agree.
func (s *Service) GetSuggestions(ctx context.Context, userID uint64, override Preferences, page, size int) (pagination.Page[Candidate], error) {
	s.appCtx.Logger.Debug("GetSuggestions called", "user", userID, "page", page, "size", size)

	if size < 0 || size > pagination.MaxSize {
		return pagination.Page[Candidate]{}, svcErr.Validation("size", "must be between 1 and 100")
	}
	page, size = pagination.Normalize(page, size)

	var result pagination.Page[Candidate]
	err := s.appCtx.Tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := s.users.Exists(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return svcErr.NotFound("User", userID)
		}

		stored, err := s.loadPreferences(ctx, userID)
		if err != nil {
			return err
		}
		prefs := stored.Merge(override)
		if err := prefs.Validate(); err != nil {
			return err
		}

		now := s.now()
		users, total, err := s.users.Candidates(ctx, userID, prefs.filter(now), pagination.Offset(page, size), size)
		if err != nil {
			return err
		}

		items := make([]Candidate, 0, len(users))
		for _, u := range users {
			items = append(items, Candidate{
				ID:       u.ID,
				Username: u.Username,
				Gender:   u.Gender,
				Age:      ageAt(u.BirthDate, now),
				City:     u.City,
			})
		}
		result = pagination.NewPage(items, page, size, total)
		return nil
	})
	if err != nil {
		return pagination.Page[Candidate]{}, err
	}
	return result, nil
}

// GetPreferences returns userID's stored preferences, empty if none are saved.
func (s *Service) GetPreferences(ctx context.Context, userID uint64) (Preferences, error) {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}
	if !ok {
		return Preferences{}, svcErr.NotFound("User", userID)
	}
	return s.loadPreferences(ctx, userID)
}

// SavePreferences replaces userID's stored preferences with p.
func (s *Service) SavePreferences(ctx context.Context, userID uint64, p Preferences) (Preferences, error) {
	if err := p.Validate(); err != nil {
		return Preferences{}, err
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}
	if !ok {
		return Preferences{}, svcErr.NotFound("User", userID)
	}

	err = s.users.SavePreference(ctx, &db.SearchPreference{
		UserID:        userID,
		Gender:        p.Gender,
		MinAge:        p.MinAge,
		MaxAge:        p.MaxAge,
		City:          p.City,
		MaxDistanceKm: p.MaxDistanceKm,
	})
	if err != nil {
		s.appCtx.Logger.Error("SavePreference failed", "user", userID, "err", err)
		return Preferences{}, err
	}
	return p, nil
}

func (s *Service) loadPreferences(ctx context.Context, userID uint64) (Preferences, error) {
	sp, err := s.users.GetPreference(ctx, userID)
	if err != nil || sp == nil {
		return Preferences{}, err
	}
	return Preferences{
		Gender:        sp.Gender,
		MinAge:        sp.MinAge,
		MaxAge:        sp.MaxAge,
		City:          sp.City,
		MaxDistanceKm: sp.MaxDistanceKm,
	}, nil
}

func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
