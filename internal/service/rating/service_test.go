package rating_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/rating"
	"github.com/oggyb/muzz-match/internal/testutil"
)

// setupService wires a rating service over users 1..4.
func setupService(t *testing.T) (*rating.Service, *miniredis.Miniredis) {
	t.Helper()
	appCtx, mr := testutil.NewAppContext(t)
	testutil.CreateUserRange(t, appCtx.DB, 1, 4)
	return rating.NewService(appCtx), mr
}

func TestSubmit_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, 2, db.RatingType("MAYBE"))
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = svc.Submit(ctx, 0, 2, db.RatingLike)
	assert.ErrorIs(t, err, svcErr.ErrValidation)

	_, err = svc.Submit(ctx, 1, 1, db.RatingLike)
	assert.ErrorIs(t, err, svcErr.ErrInvalidActor)

	_, err = svc.Submit(ctx, 1, 99, db.RatingLike)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestSubmit_DuplicateRegardlessOfType(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	r, err := svc.Submit(ctx, 1, 2, db.RatingLike)
	require.NoError(t, err)
	assert.NotZero(t, r.ID)

	_, err = svc.Submit(ctx, 1, 2, db.RatingDislike)
	assert.ErrorIs(t, err, svcErr.ErrDuplicateRating)
	_, err = svc.Submit(ctx, 1, 2, db.RatingLike)
	assert.ErrorIs(t, err, svcErr.ErrDuplicateRating)

	// the reverse direction is a different pair
	_, err = svc.Submit(ctx, 2, 1, db.RatingDislike)
	assert.NoError(t, err)
}

func TestMutualLikeExists(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 1, 2, db.RatingLike)
	require.NoError(t, err)

	mutual, err := svc.MutualLikeExists(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, mutual)

	liked, err := svc.HasLiked(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = svc.Submit(ctx, 2, 1, db.RatingLike)
	require.NoError(t, err)

	mutual, err = svc.MutualLikeExists(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, mutual)
}

func TestCountLikesReceived_CacheFirst(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()
	key := cache.KeyForLikesReceived(1)

	_, err := svc.Submit(ctx, 2, 1, db.RatingLike)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 3, 1, db.RatingDislike)
	require.NoError(t, err)

	n, err := svc.CountLikesReceived(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	// served from cache while the key lives
	require.NoError(t, mr.Set(key, "7"))
	n, err = svc.CountLikesReceived(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	// a new LIKE drops the key
	_, err = svc.Submit(ctx, 4, 1, db.RatingLike)
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))

	n, err = svc.CountLikesReceived(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCountLikesReceived_RedisDownFallsBackToDB(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 2, 1, db.RatingLike)
	require.NoError(t, err)

	mr.SetError("LOADING")
	n, err := svc.CountLikesReceived(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	given, err := svc.CountLikesGiven(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), given)
}

func TestListLikers_ExcludesDisliked(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 2, 1, db.RatingLike)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 3, 1, db.RatingLike)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, 1, 3, db.RatingDislike)
	require.NoError(t, err)

	likers, next, err := svc.ListLikers(ctx, 1, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likers, 1)
	assert.Equal(t, uint64(2), likers[0].UserID)
	assert.NotZero(t, likers[0].UnixTimestamp)
}
