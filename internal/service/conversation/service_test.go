package conversation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/conversation"
	"github.com/oggyb/muzz-match/internal/service/notification"
	"github.com/oggyb/muzz-match/internal/testutil"
)

// setupConversation creates users 1..3 and an active match between 1 and 2.
func setupConversation(t *testing.T) (*conversation.Service, *notification.Dispatcher, *app.AppContext, *db.Match) {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)
	testutil.CreateUserRange(t, appCtx.DB, 1, 3)

	m := db.NewMatch(2, 1)
	require.NoError(t, appCtx.DB.Create(m).Error)

	notifier := notification.NewDispatcher(appCtx)
	return conversation.NewService(appCtx, notifier), notifier, appCtx, m
}

func TestSendMessage_Validation(t *testing.T) {
	svc, _, _, m := setupConversation(t)
	ctx := context.Background()

	cases := map[string]struct {
		sender, receiver uint64
		content          string
	}{
		"empty":      {1, 2, ""},
		"whitespace": {1, 2, "  \n\t"},
		"too long":   {1, 2, strings.Repeat("a", conversation.MaxContentLength+1)},
		"to self":    {1, 1, "hi"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SendMessage(ctx, tc.sender, tc.receiver, m.ID, tc.content)
			assert.ErrorIs(t, err, svcErr.ErrValidation)
		})
	}
}

func TestSendMessage_LimitCountsCharacters(t *testing.T) {
	svc, _, _, m := setupConversation(t)

	msg, err := svc.SendMessage(context.Background(), 1, 2, m.ID, strings.Repeat("é", conversation.MaxContentLength))
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
}

func TestSendMessage_MatchChecks(t *testing.T) {
	svc, _, appCtx, m := setupConversation(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, 1, 2, 9999, "hi")
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	_, err = svc.SendMessage(ctx, 3, 2, m.ID, "hi")
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	require.NoError(t, appCtx.DB.Model(m).Update("is_active", false).Error)
	_, err = svc.SendMessage(ctx, 1, 2, m.ID, "hi")
	assert.ErrorIs(t, err, svcErr.ErrMatchNotActive)
}

func TestSendMessage_NotifiesReceiver(t *testing.T) {
	svc, notifier, _, m := setupConversation(t)
	ctx := context.Background()

	// warm the counter so the send has something to invalidate
	n, err := notifier.GetUnreadCount(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, n)

	msg, err := svc.SendMessage(ctx, 1, 2, m.ID, "hi")
	require.NoError(t, err)
	assert.False(t, msg.IsRead)

	n, err = notifier.GetUnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err := notifier.GetUnread(ctx, 2)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, db.NotificationNewMessage, unread[0].Type)
	assert.Equal(t, msg.ID, *unread[0].RelatedEntityID)
	assert.Equal(t, uint64(1), *unread[0].RelatedUserID)
}

func TestSendMessage_InvalidatesCounterAfterCommit(t *testing.T) {
	svc, notifier, appCtx, m := setupConversation(t)
	ctx := context.Background()

	require.NoError(t, appCtx.RedisCache.SetCount(ctx, cache.KeyForUnreadNotifications(2), 42))

	_, err := svc.SendMessage(ctx, 1, 2, m.ID, "hi")
	require.NoError(t, err)

	n, err := notifier.GetUnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetHistory(t *testing.T) {
	svc, _, _, m := setupConversation(t)
	ctx := context.Background()

	for _, c := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(ctx, 1, 2, m.ID, c)
		require.NoError(t, err)
	}

	history, err := svc.GetHistory(ctx, m.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "three", history[2].Content)

	_, err = svc.GetHistory(ctx, m.ID, 3)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	_, err = svc.GetHistory(ctx, 9999, 1)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	svc, _, _, m := setupConversation(t)
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, 1, 2, m.ID, "a")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 1, 2, m.ID, "b")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, 2, 1, m.ID, "c")
	require.NoError(t, err)

	n, err := svc.MarkAllRead(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.MarkAllRead(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.MarkAllRead(ctx, m.ID, 3)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)
}

func TestMarkRead_OnlyReceiver(t *testing.T) {
	svc, _, _, m := setupConversation(t)
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, 1, 2, m.ID, "hi")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.MarkRead(ctx, msg.ID, 1), svcErr.ErrNotParticipant)
	require.NoError(t, svc.MarkRead(ctx, msg.ID, 2))
	require.NoError(t, svc.MarkRead(ctx, msg.ID, 2))

	history, err := svc.GetHistory(ctx, m.ID, 1)
	require.NoError(t, err)
	assert.True(t, history[0].IsRead)
}

func TestDeleteMessage_OnlySender(t *testing.T) {
	svc, _, _, m := setupConversation(t)
	ctx := context.Background()

	msg, err := svc.SendMessage(ctx, 1, 2, m.ID, "oops")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteMessage(ctx, msg.ID, 2), svcErr.ErrNotParticipant)
	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, 1))
	assert.ErrorIs(t, svc.DeleteMessage(ctx, msg.ID, 1), svcErr.ErrNotFound)
}

func TestDeleteConversation_AfterUnmatch(t *testing.T) {
	svc, _, appCtx, m := setupConversation(t)
	ctx := context.Background()

	for _, c := range []string{"a", "b"} {
		_, err := svc.SendMessage(ctx, 2, 1, m.ID, c)
		require.NoError(t, err)
	}
	require.NoError(t, appCtx.DB.Model(m).Update("is_active", false).Error)

	_, err := svc.DeleteConversation(ctx, 3, m.ID)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	n, err := svc.DeleteConversation(ctx, 1, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	history, err := svc.GetHistory(ctx, m.ID, 2)
	require.NoError(t, err)
	assert.Empty(t, history)
}
