package guard_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/guard"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/permissions"
	"github.com/jrsteele09/go-botlist-server/users"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*users.User

func (f fakeUsers) GetUser(_ context.Context, id string) (*users.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return u, nil
}

func TestPermissionGuard(t *testing.T) {
	repo := fakeUsers{
		"staff": {ID: "staff", Permissions: int64(permissions.ManageBots | permissions.ManageTags)},
		"admin": {ID: "admin", Permissions: int64(permissions.UserAdmin)},
		"plain": {ID: "plain"},
	}
	g := guard.NewPermissionGuard(repo)
	ctx := context.Background()

	tests := []struct {
		name     string
		identity *guard.Identity
		flags    []uint64
		wantErr  bool
	}{
		{name: "holds all", identity: &guard.Identity{UserID: "staff"}, flags: []uint64{permissions.ManageBots, permissions.ManageTags}},
		{name: "missing one", identity: &guard.Identity{UserID: "staff"}, flags: []uint64{permissions.ManageUsers}, wantErr: true},
		{name: "admin", identity: &guard.Identity{UserID: "admin"}, flags: []uint64{permissions.ManagePermissions}},
		{name: "internal", identity: &guard.Identity{Internal: true}, flags: []uint64{permissions.ManageUsers}},
		{name: "unknown user", identity: &guard.Identity{UserID: "ghost"}, flags: []uint64{permissions.ManageTags}, wantErr: true},
		{name: "anonymous", identity: &guard.Identity{Strategy: guard.StrategyNone}, wantErr: true},
		{name: "nil", identity: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Require(ctx, tt.identity, tt.flags...)
			if tt.wantErr {
				require.ErrorIs(t, err, apperrors.ErrForbidden)
				return
			}
			require.NoError(t, err)
		})
	}

	err := g.Require(ctx, &guard.Identity{UserID: "plain"}, permissions.ManageUsers)
	require.ErrorContains(t, err, "ManageUsers")
}

func TestRequireBotManager(t *testing.T) {
	repo := fakeUsers{
		"owner": {ID: "owner"},
		"staff": {ID: "staff", Permissions: int64(permissions.ManageBots)},
		"other": {ID: "other"},
	}
	g := guard.NewPermissionGuard(repo)
	bot := &bots.Bot{ID: "bot", OwnerID: "owner"}
	ctx := context.Background()

	require.NoError(t, g.RequireBotManager(ctx, &guard.Identity{UserID: "owner"}, bot))
	require.NoError(t, g.RequireBotManager(ctx, &guard.Identity{UserID: "staff"}, bot))
	require.NoError(t, g.RequireBotManager(ctx, &guard.Identity{Internal: true}, bot))
	require.ErrorIs(t, g.RequireBotManager(ctx, &guard.Identity{UserID: "other"}, bot), apperrors.ErrForbidden)
}
