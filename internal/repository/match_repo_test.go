package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/testutil"
)

func TestMatchCreate_UnorderedPairIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(testutil.NewDB(t))

	m := db.NewMatch(7, 3)
	require.NoError(t, repo.Create(ctx, m))
	assert.Equal(t, uint64(3), m.UserAID)
	assert.Equal(t, uint64(7), m.UserBID)
	assert.NotZero(t, m.ID)

	err := repo.Create(ctx, db.NewMatch(3, 7))
	assert.ErrorIs(t, err, svcErr.ErrAlreadyMatched)

	found, err := repo.FindByPair(ctx, 7, 3)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, m.ID, found.ID)

	none, err := repo.FindByPair(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMatchCreate_InactivePairStillBlocks(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(testutil.NewDB(t))

	m := db.NewMatch(1, 2)
	require.NoError(t, repo.Create(ctx, m))
	changed, err := repo.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	require.True(t, changed)

	assert.ErrorIs(t, repo.Create(ctx, db.NewMatch(2, 1)), svcErr.ErrAlreadyMatched)
}

func TestMatchDeactivate_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMatchRepository(testutil.NewDB(t))

	m := db.NewMatch(1, 2)
	require.NoError(t, repo.Create(ctx, m))

	changed, err := repo.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.Deactivate(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestMatchFindByID_NotFound(t *testing.T) {
	repo := repository.NewMatchRepository(testutil.NewDB(t))
	_, err := repo.FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = repo.FindByIDForUpdate(context.Background(), 404)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestMatchListActive_OrderedByLastMessage(t *testing.T) {
	ctx := context.Background()
	database := testutil.NewDB(t)
	repo := repository.NewMatchRepository(database)
	msgs := repository.NewMessageRepository(database)

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	newMatch := func(other uint64, matchedAt time.Time) *db.Match {
		m := db.NewMatch(1, other)
		m.MatchedAt = matchedAt
		require.NoError(t, repo.Create(ctx, m))
		return m
	}

	// matched first, but has the latest message
	old := newMatch(2, base)
	mid := newMatch(3, base.Add(10*time.Minute))
	recent := newMatch(4, base.Add(20*time.Minute))
	inactive := newMatch(5, base.Add(30*time.Minute))
	// not user 1
	require.NoError(t, repo.Create(ctx, db.NewMatch(6, 7)))

	msg := db.NewMessage(2, 1, old.ID, "hey")
	msg.SentAt = base.Add(40 * time.Minute)
	require.NoError(t, msgs.Create(ctx, msg))

	_, err := repo.Deactivate(ctx, inactive.ID)
	require.NoError(t, err)

	active, err := repo.ListActive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []uint64{old.ID, recent.ID, mid.ID},
		[]uint64{active[0].ID, active[1].ID, active[2].ID})
}
