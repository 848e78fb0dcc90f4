package matching_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/conversation"
	"github.com/oggyb/muzz-match/internal/service/matching"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/service/rating"
	"github.com/oggyb/muzz-match/internal/testutil"
)

type fixture struct {
	appCtx   *app.AppContext
	engine   *matching.Engine
	notifier *notification.Dispatcher
	chat     *conversation.Service
}

// setup wires the engine over users 1..n.
func setup(t *testing.T, n uint64) fixture {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.CreateUserRange(t, appCtx.DB, 1, n)

	notifier := notification.NewDispatcher(appCtx)
	return fixture{
		appCtx:   appCtx,
		engine:   matching.NewEngine(appCtx, rating.NewService(appCtx), notifier),
		notifier: notifier,
		chat:     conversation.NewService(appCtx, notifier),
	}
}

func (f fixture) matchCount(t *testing.T, a, b uint64) int64 {
	t.Helper()
	lo, hi := db.CanonicalPair(a, b)
	var n int64
	require.NoError(t, f.appCtx.DB.Model(&db.Match{}).
		Where("user_a_id = ? AND user_b_id = ?", lo, hi).
		Count(&n).Error)
	return n
}

func (f fixture) matchNotifications(t *testing.T, userID uint64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.appCtx.DB.Model(&db.Notification{}).
		Where("user_id = ? AND type = ?", userID, db.NotificationNewMatch).
		Count(&n).Error)
	return n
}

func TestRecordLikeAndMatch_OneWayLikeIsNoMatch(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	out, err := f.engine.RecordLikeAndMatch(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusNoMatch, out.Status)
	assert.Zero(t, out.MatchID)
	assert.Zero(t, f.matchCount(t, 1, 2))
}

func TestRecordLikeAndMatch_DuplicateLike(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	_, err := f.engine.RecordLikeAndMatch(ctx, 1, 2)
	require.NoError(t, err)

	_, err = f.engine.RecordLikeAndMatch(ctx, 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrDuplicateRating)

	_, err = f.engine.Rate(ctx, 1, 2, db.RatingDislike)
	assert.ErrorIs(t, err, svcErr.ErrDuplicateRating)
}

func TestRecordLikeAndMatch_SelfLike(t *testing.T) {
	f := setup(t, 1)
	_, err := f.engine.RecordLikeAndMatch(context.Background(), 1, 1)
	assert.ErrorIs(t, err, svcErr.ErrInvalidActor)
}

// Users 1 and 2 like each other, chat, then 1 unmatches.
func TestScenario_LikeMatchChatUnmatch(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	out, err := f.engine.Rate(ctx, 1, 2, db.RatingLike)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusNoMatch, out.Status)

	out, err = f.engine.Rate(ctx, 2, 1, db.RatingLike)
	require.NoError(t, err)
	require.Equal(t, matching.StatusNewMatch, out.Status)
	require.NotZero(t, out.MatchID)

	assert.Equal(t, int64(1), f.matchNotifications(t, 1))
	assert.Equal(t, int64(1), f.matchNotifications(t, 2))

	m, err := f.engine.GetMatch(ctx, out.MatchID)
	require.NoError(t, err)
	assert.True(t, m.IsActive)
	assert.Equal(t, uint64(1), m.UserAID)
	assert.Equal(t, uint64(2), m.UserBID)

	_, err = f.chat.SendMessage(ctx, 1, 2, out.MatchID, "hi")
	require.NoError(t, err)

	summaries, err := f.engine.GetActiveMatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, uint64(1), summaries[0].OtherUserID)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "hi", summaries[0].LastMessage.Content)

	require.NoError(t, f.engine.Unmatch(ctx, 1, out.MatchID))

	_, err = f.chat.SendMessage(ctx, 2, 1, out.MatchID, "still there?")
	assert.ErrorIs(t, err, svcErr.ErrMatchNotActive)

	history, err := f.chat.GetHistory(ctx, out.MatchID, 2)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Content)

	summaries, err = f.engine.GetActiveMatches(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

// User 3 dislikes 4, then 4 likes 3.
func TestScenario_DislikeBlocksMatch(t *testing.T) {
	f := setup(t, 4)
	ctx := context.Background()

	out, err := f.engine.Rate(ctx, 3, 4, db.RatingDislike)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusNoMatch, out.Status)

	out, err = f.engine.Rate(ctx, 4, 3, db.RatingLike)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusNoMatch, out.Status)
	assert.Zero(t, f.matchCount(t, 3, 4))
	assert.Zero(t, f.matchNotifications(t, 3))
}

func TestRecordLikeAndMatch_ConcurrentReciprocalLikes(t *testing.T) {
	const pairs = 10
	f := setup(t, 2*pairs)
	ctx := context.Background()

	var wg sync.WaitGroup
	outcomes := make([][2]matching.Outcome, pairs)
	errs := make([][2]error, pairs)

	for p := 0; p < pairs; p++ {
		a, b := uint64(2*p+1), uint64(2*p+2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			outcomes[p][0], errs[p][0] = f.engine.RecordLikeAndMatch(ctx, a, b)
		}()
		go func() {
			defer wg.Done()
			outcomes[p][1], errs[p][1] = f.engine.RecordLikeAndMatch(ctx, b, a)
		}()
	}
	wg.Wait()

	for p := 0; p < pairs; p++ {
		a, b := uint64(2*p+1), uint64(2*p+2)
		t.Run(fmt.Sprintf("pair_%d_%d", a, b), func(t *testing.T) {
			require.NoError(t, errs[p][0])
			require.NoError(t, errs[p][1])

			newMatches := 0
			for _, o := range outcomes[p] {
				if o.Status == matching.StatusNewMatch {
					newMatches++
				}
			}
			assert.Equal(t, 1, newMatches)
			assert.Equal(t, int64(1), f.matchCount(t, a, b))
			assert.Equal(t, int64(1), f.matchNotifications(t, a))
			assert.Equal(t, int64(1), f.matchNotifications(t, b))
		})
	}
}

func TestEnsureMatch_Idempotent(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	_, err := f.engine.RecordLikeAndMatch(ctx, 1, 2)
	require.NoError(t, err)
	out, err := f.engine.RecordLikeAndMatch(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, matching.StatusNewMatch, out.Status)

	again, err := f.engine.EnsureMatch(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusNoMatch, again.Status)
	assert.Equal(t, int64(1), f.matchCount(t, 1, 2))
	assert.Equal(t, int64(1), f.matchNotifications(t, 1))
}

func TestEnsureMatch_ReconcilesCommittedRatings(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	// both ratings committed but the match step never ran
	require.NoError(t, f.appCtx.DB.Create([]*db.Rating{
		db.NewRating(1, 2, db.RatingLike),
		db.NewRating(2, 1, db.RatingLike),
	}).Error)

	out, err := f.engine.EnsureMatch(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, matching.StatusNewMatch, out.Status)
	assert.Equal(t, int64(1), f.matchCount(t, 1, 2))
}

func TestRecordLikeAndMatch_RetryAfterFailedMatchStep(t *testing.T) {
	f := setup(t, 2)
	ctx := context.Background()

	_, err := f.engine.RecordLikeAndMatch(ctx, 1, 2)
	require.NoError(t, err)

	// 2's like committed, the match step did not
	require.NoError(t, f.appCtx.DB.Create(db.NewRating(2, 1, db.RatingLike)).Error)
	require.Zero(t, f.matchCount(t, 1, 2))

	_, err = f.engine.RecordLikeAndMatch(ctx, 2, 1)
	assert.ErrorIs(t, err, svcErr.ErrDuplicateRating)
	assert.Equal(t, int64(1), f.matchCount(t, 1, 2))
	assert.Equal(t, int64(1), f.matchNotifications(t, 1))
	assert.Equal(t, int64(1), f.matchNotifications(t, 2))

	// further retries stay idempotent
	_, err = f.engine.RecordLikeAndMatch(ctx, 2, 1)
	assert.ErrorIs(t, err, svcErr.ErrDuplicateRating)
	assert.Equal(t, int64(1), f.matchCount(t, 1, 2))
	assert.Equal(t, int64(1), f.matchNotifications(t, 2))
}

func TestUnmatch(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	_, err := f.engine.RecordLikeAndMatch(ctx, 1, 2)
	require.NoError(t, err)
	out, err := f.engine.RecordLikeAndMatch(ctx, 2, 1)
	require.NoError(t, err)

	t.Run("outsider", func(t *testing.T) {
		assert.ErrorIs(t, f.engine.Unmatch(ctx, 3, out.MatchID), svcErr.ErrNotFound)
	})
	t.Run("unknown match", func(t *testing.T) {
		assert.ErrorIs(t, f.engine.Unmatch(ctx, 1, 9999), svcErr.ErrNotFound)
	})
	t.Run("twice", func(t *testing.T) {
		require.NoError(t, f.engine.Unmatch(ctx, 2, out.MatchID))
		require.NoError(t, f.engine.Unmatch(ctx, 1, out.MatchID))

		m, err := f.engine.GetMatch(ctx, out.MatchID)
		require.NoError(t, err)
		assert.False(t, m.IsActive)
	})
	t.Run("no rematch", func(t *testing.T) {
		again, err := f.engine.EnsureMatch(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, matching.StatusNoMatch, again.Status)
	})
}

func TestGetActiveMatches_OrderedByLastActivity(t *testing.T) {
	f := setup(t, 3)
	ctx := context.Background()

	match := func(a, b uint64) uint64 {
		_, err := f.engine.RecordLikeAndMatch(ctx, a, b)
		require.NoError(t, err)
		out, err := f.engine.RecordLikeAndMatch(ctx, b, a)
		require.NoError(t, err)
		require.Equal(t, matching.StatusNewMatch, out.Status)
		return out.MatchID
	}

	first := match(1, 2)
	time.Sleep(5 * time.Millisecond)
	second := match(1, 3)

	summaries, err := f.engine.GetActiveMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second, summaries[0].Match.ID)
	assert.Nil(t, summaries[0].LastMessage)

	time.Sleep(5 * time.Millisecond)
	_, err = f.chat.SendMessage(ctx, 2, 1, first, "hello")
	require.NoError(t, err)

	summaries, err = f.engine.GetActiveMatches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, first, summaries[0].Match.ID)
	assert.Equal(t, uint64(2), summaries[0].OtherUserID)
	assert.Equal(t, int64(1), summaries[0].UnreadCount)
	assert.Equal(t, uint64(3), summaries[1].OtherUserID)
}

func TestOtherParticipant(t *testing.T) {
	m := db.NewMatch(7, 3)

	other, err := matching.OtherParticipant(m, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), other)

	other, err = matching.OtherParticipant(m, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), other)

	_, err = matching.OtherParticipant(m, 1)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)
}
