// Package storetest is a conformance suite run against every sessions.Store.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/sessions"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Backend is what the services need from a store.
type Backend interface {
	sessions.Store
	bots.Repo
}

// Run exercises newBackend against the store contract.
func Run(t *testing.T, newBackend func(t *testing.T) Backend) {
	t.Run("create then list", func(t *testing.T) {
		testCreateThenList(t, newBackend(t))
	})
	t.Run("list empty", func(t *testing.T) {
		testListEmpty(t, newBackend(t))
	})
	t.Run("upsert keeps directory fields", func(t *testing.T) {
		testUpsertKeepsDirectoryFields(t, newBackend(t))
	})
	t.Run("replace hashes", func(t *testing.T) {
		testReplaceHashes(t, newBackend(t))
	})
	t.Run("concurrent replace has one winner", func(t *testing.T) {
		testConcurrentReplace(t, newBackend(t))
	})
	t.Run("delete by access hash", func(t *testing.T) {
		testDeleteByAccessHash(t, newBackend(t))
	})
	t.Run("delete all for user", func(t *testing.T) {
		testDeleteAllForUser(t, newBackend(t))
	})
	t.Run("bots", func(t *testing.T) {
		testBots(t, newBackend(t))
	})
}

func testUser(id string) *users.User {
	return &users.User{ID: id, Username: "user-" + id, Avatar: "avatar-" + id}
}

func testCreateThenList(t *testing.T, b Backend) {
	ctx := context.Background()

	first, err := b.CreateUserAndSession(ctx, testUser("1"), "access-a", "refresh-a")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "1", first.UserID)

	_, err = b.CreateUserAndSession(ctx, testUser("1"), "access-b", "refresh-b")
	require.NoError(t, err)
	_, err = b.CreateUserAndSession(ctx, testUser("2"), "access-c", "refresh-c")
	require.NoError(t, err)

	list, err := b.ListSessionsForUser(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	hashes := []string{list[0].AccessTokenHash, list[1].AccessTokenHash}
	require.ElementsMatch(t, []string{"access-a", "access-b"}, hashes)

	u, err := b.GetUser(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "user-1", u.Username)
	require.False(t, u.CreatedAt.IsZero())
}

func testListEmpty(t *testing.T, b Backend) {
	_, err := b.ListSessionsForUser(context.Background(), "nobody")
	require.ErrorIs(t, err, sessions.ErrNoSessionsFound)

	_, err = b.GetUser(context.Background(), "nobody")
	require.ErrorIs(t, err, users.ErrUserNotFound)
}

func testUpsertKeepsDirectoryFields(t *testing.T, b Backend) {
	ctx := context.Background()
	_, err := b.CreateUserAndSession(ctx, &users.User{ID: "1", Username: "old", Bio: "hello", Permissions: 5}, "a1", "r1")
	require.NoError(t, err)

	_, err = b.CreateUserAndSession(ctx, &users.User{ID: "1", Username: "new", Avatar: "av"}, "a2", "r2")
	require.NoError(t, err)

	u, err := b.GetUser(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "new", u.Username)
	require.Equal(t, "av", u.Avatar)
	require.Equal(t, "hello", u.Bio)
	require.Equal(t, int64(5), u.Permissions)
}

func testReplaceHashes(t *testing.T, b Backend) {
	ctx := context.Background()
	_, err := b.CreateUserAndSession(ctx, testUser("1"), "access-a", "refresh-a")
	require.NoError(t, err)

	renamed := testUser("1")
	renamed.Username = "renamed"
	require.NoError(t, b.ReplaceSessionHashes(ctx, "refresh-a", "access-b", "refresh-b", renamed))

	list, err := b.ListSessionsForUser(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "access-b", list[0].AccessTokenHash)
	require.Equal(t, "refresh-b", list[0].RefreshTokenHash)

	u, err := b.GetUser(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "renamed", u.Username)

	err = b.ReplaceSessionHashes(ctx, "refresh-a", "access-c", "refresh-c", nil)
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func testConcurrentReplace(t *testing.T, b Backend) {
	ctx := context.Background()
	_, err := b.CreateUserAndSession(ctx, testUser("1"), "access-a", "refresh-a")
	require.NoError(t, err)

	const racers = 8
	var wins, losses atomic.Int32
	var g errgroup.Group
	for i := 0; i < racers; i++ {
		g.Go(func() error {
			err := b.ReplaceSessionHashes(ctx, "refresh-a", fmt.Sprintf("access-%d", i), fmt.Sprintf("refresh-%d", i), nil)
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sessions.ErrSessionNotFound):
				losses.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, int32(racers-1), losses.Load())
}

func testDeleteByAccessHash(t *testing.T, b Backend) {
	ctx := context.Background()
	_, err := b.CreateUserAndSession(ctx, testUser("1"), "access-a", "refresh-a")
	require.NoError(t, err)

	require.NoError(t, b.DeleteSessionByAccessTokenHash(ctx, "access-a"))
	require.ErrorIs(t, b.DeleteSessionByAccessTokenHash(ctx, "access-a"), sessions.ErrSessionNotFound)

	_, err = b.ListSessionsForUser(ctx, "1")
	require.ErrorIs(t, err, sessions.ErrNoSessionsFound)

	_, err = b.GetUser(ctx, "1")
	require.NoError(t, err, "users outlive their sessions")
}

func testDeleteAllForUser(t *testing.T, b Backend) {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := b.CreateUserAndSession(ctx, testUser("1"), fmt.Sprintf("a%d", i), fmt.Sprintf("r%d", i))
		require.NoError(t, err)
	}
	_, err := b.CreateUserAndSession(ctx, testUser("2"), "other-a", "other-r")
	require.NoError(t, err)

	n, err := b.DeleteSessionsForUser(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	list, err := b.ListSessionsForUser(ctx, "2")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func testBots(t *testing.T, b Backend) {
	ctx := context.Background()

	_, err := b.GetBot(ctx, "missing")
	require.ErrorIs(t, err, bots.ErrBotNotFound)
	require.ErrorIs(t, b.SetAPIKeyHash(ctx, "missing", "h"), bots.ErrBotNotFound)
	require.ErrorIs(t, b.SetStatus(ctx, "missing", bots.StatusApproved), bots.ErrBotNotFound)

	require.NoError(t, b.UpsertBot(ctx, &bots.Bot{ID: "bot-1", Name: "Bot", OwnerID: "1"}))
	bot, err := b.GetBot(ctx, "bot-1")
	require.NoError(t, err)
	require.Equal(t, bots.StatusPending, bot.Status)
	require.Empty(t, bot.APIKeyHash)

	require.NoError(t, b.SetStatus(ctx, "bot-1", bots.StatusApproved))
	require.NoError(t, b.SetAPIKeyHash(ctx, "bot-1", "hash"))

	bot, err = b.GetBot(ctx, "bot-1")
	require.NoError(t, err)
	require.True(t, bot.Approved())
	require.Equal(t, "hash", bot.APIKeyHash)
}
