package guard

import (
	"context"
	"errors"
	"strings"

	"github.com/jrsteele09/go-botlist-server/bots"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
	"github.com/jrsteele09/go-botlist-server/permissions"
	"github.com/jrsteele09/go-botlist-server/users"
	pkgerrors "github.com/pkg/errors"
)

// PermissionGuard checks staff permissions of an authenticated identity.
type PermissionGuard struct {
	users users.Repo
}

func NewPermissionGuard(repo users.Repo) *PermissionGuard {
	return &PermissionGuard{users: repo}
}

// Require fails with Forbidden unless identity holds every flag of
// permissions.UserPermissions. Internal callers hold everything.
func (g *PermissionGuard) Require(ctx context.Context, identity *Identity, flags ...uint64) error {
	if identity == nil {
		return apperrors.ErrForbidden
	}
	if identity.Internal {
		return nil
	}
	if identity.UserID == "" {
		return apperrors.ErrForbidden
	}

	user, err := g.users.GetUser(ctx, identity.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return apperrors.ErrForbidden
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[PermissionGuard.Require]")
	}
	if missing := user.MissingPermissions(flags...); len(missing) > 0 {
		return apperrors.New(apperrors.KindForbidden, "missing permissions: "+strings.Join(missing, ", "))
	}
	return nil
}

// RequireBotManager allows the bot's owner, internal callers and staff with ManageBots.
func (g *PermissionGuard) RequireBotManager(ctx context.Context, identity *Identity, bot *bots.Bot) error {
	if identity != nil && identity.UserID != "" && identity.UserID == bot.OwnerID {
		return nil
	}
	return g.Require(ctx, identity, permissions.ManageBots)
}
