package suggestion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/suggestion"
	"github.com/oggyb/muzz-match/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func setupService(t *testing.T, specs ...testutil.UserSpec) (*suggestion.Service, *app.AppContext) {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.CreateUsers(t, appCtx.DB, specs...)
	return suggestion.NewService(appCtx), appCtx
}

func ids(cs []suggestion.Candidate) []uint64 {
	out := make([]uint64, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestGetSuggestions_ExcludesRatedAndMatchedOnEveryPage(t *testing.T) {
	specs := make([]testutil.UserSpec, 0, 12)
	for id := uint64(1); id <= 12; id++ {
		specs = append(specs, testutil.UserSpec{ID: id})
	}
	specs[11].Inactive = true
	svc, appCtx := setupService(t, specs...)

	require.NoError(t, appCtx.DB.Create([]*db.Rating{
		db.NewRating(1, 2, db.RatingLike),
		db.NewRating(1, 5, db.RatingDislike),
		// ratings received by 1 do not exclude
		db.NewRating(7, 1, db.RatingLike),
	}).Error)
	inactive := db.NewMatch(9, 1)
	inactive.IsActive = false
	require.NoError(t, appCtx.DB.Create(db.NewMatch(1, 3)).Error)
	require.NoError(t, appCtx.DB.Create(inactive).Error)

	ctx := context.Background()
	var seen []uint64
	for page := 1; ; page++ {
		p, err := svc.GetSuggestions(ctx, 1, suggestion.Preferences{}, page, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(6), p.Total)
		seen = append(seen, ids(p.Items)...)
		if !p.HasNext {
			break
		}
	}
	assert.Equal(t, []uint64{4, 6, 7, 8, 10, 11}, seen)
}

func TestGetSuggestions_Filters(t *testing.T) {
	svc, _ := setupService(t,
		testutil.UserSpec{ID: 1},
		testutil.UserSpec{ID: 2, Gender: "male", Age: 22, City: "Leeds"},
		testutil.UserSpec{ID: 3, Gender: "male", Age: 35},
		testutil.UserSpec{ID: 4, Gender: "female", Age: 35},
		testutil.UserSpec{ID: 5, Gender: "male", Age: 50},
	)
	ctx := context.Background()

	p, err := svc.GetSuggestions(ctx, 1, suggestion.Preferences{Gender: ptr("male")}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 5}, ids(p.Items))

	p, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{
		Gender: ptr("male"),
		MinAge: ptr(25),
		MaxAge: ptr(40),
	}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, ids(p.Items))
	assert.Equal(t, 35, p.Items[0].Age)

	p, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{City: ptr("Leeds")}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(p.Items))

	// exact age bounds are inclusive
	p, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{MinAge: ptr(35), MaxAge: ptr(35)}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, ids(p.Items))
}

func TestGetSuggestions_RequestOverridesStoredPreferences(t *testing.T) {
	svc, _ := setupService(t,
		testutil.UserSpec{ID: 1},
		testutil.UserSpec{ID: 2, Gender: "male", City: "Leeds"},
		testutil.UserSpec{ID: 3, Gender: "male"},
		testutil.UserSpec{ID: 4, Gender: "female", City: "Leeds"},
	)
	ctx := context.Background()

	_, err := svc.SavePreferences(ctx, 1, suggestion.Preferences{Gender: ptr("male"), City: ptr("Leeds")})
	require.NoError(t, err)

	p, err := svc.GetSuggestions(ctx, 1, suggestion.Preferences{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, ids(p.Items))

	p, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{Gender: ptr("female")}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, ids(p.Items))
}

func TestGetSuggestions_Errors(t *testing.T) {
	svc, _ := setupService(t, testutil.UserSpec{ID: 1})
	ctx := context.Background()

	_, err := svc.GetSuggestions(ctx, 42, suggestion.Preferences{}, 1, 10)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{}, 1, 101)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{MinAge: ptr(17)}, 1, 10)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = svc.GetSuggestions(ctx, 1, suggestion.Preferences{MinAge: ptr(40), MaxAge: ptr(30)}, 1, 10)
	assert.ErrorIs(t, err, svcErr.ErrValidation)
}

func TestGetSuggestions_DefaultPaging(t *testing.T) {
	svc, _ := setupService(t, testutil.UserSpec{ID: 1}, testutil.UserSpec{ID: 2})

	p, err := svc.GetSuggestions(context.Background(), 1, suggestion.Preferences{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.Size)
	assert.False(t, p.HasNext)
}

func TestPreferences_SaveAndGet(t *testing.T) {
	svc, _ := setupService(t, testutil.UserSpec{ID: 1})
	ctx := context.Background()

	empty, err := svc.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, empty.Gender)

	_, err = svc.SavePreferences(ctx, 1, suggestion.Preferences{MinAge: ptr(30), MaxAge: ptr(25)})
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = svc.SavePreferences(ctx, 1, suggestion.Preferences{Gender: ptr("male"), MinAge: ptr(20)})
	require.NoError(t, err)
	_, err = svc.SavePreferences(ctx, 1, suggestion.Preferences{City: ptr("York"), MaxDistanceKm: ptr(10)})
	require.NoError(t, err)

	got, err := svc.GetPreferences(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got.Gender, "save replaces the whole set")
	assert.Nil(t, got.MinAge)
	require.NotNil(t, got.City)
	assert.Equal(t, "York", *got.City)
	assert.Equal(t, 10, *got.MaxDistanceKm)

	_, err = svc.GetPreferences(ctx, 2)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestPreferences_Merge(t *testing.T) {
	stored := suggestion.Preferences{Gender: ptr("male"), MinAge: ptr(20), City: ptr("Leeds")}
	got := stored.Merge(suggestion.Preferences{MinAge: ptr(30), MaxAge: ptr(40)})

	assert.Equal(t, "male", *got.Gender)
	assert.Equal(t, 30, *got.MinAge)
	assert.Equal(t, 40, *got.MaxAge)
	assert.Equal(t, "Leeds", *got.City)
}
