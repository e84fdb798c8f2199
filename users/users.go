package users

import (
	"time"

	"github.com/jrsteele09/go-botlist-server/permissions"
)

// User is a directory member identified by their provider (Discord) snowflake.
type User struct {
	ID          string    `json:"id"`               // Provider-assigned snowflake
	Username    string    `json:"username"`         // Provider username
	Avatar      string    `json:"avatar,omitempty"` // Provider avatar hash
	Banner      string    `json:"banner,omitempty"` // Provider banner hash
	Bio         string    `json:"bio,omitempty"`    // Directory bio, never overwritten by the provider
	Permissions int64     `json:"permissions"`      // permissions.UserPermissions bitfield
	CreatedAt   time.Time `json:"created_at"`       // First login
	UpdatedAt   time.Time `json:"updated_at"`       // Last profile sync
}

// HasPermissions reports whether the user holds every flag, or is an admin.
func (u *User) HasPermissions(flags ...uint64) bool {
	return permissions.UserPermissions.Has(uint64(u.Permissions), flags...)
}

// MissingPermissions names the requested flags the user lacks.
func (u *User) MissingPermissions(flags ...uint64) []string {
	return permissions.UserPermissions.Missing(uint64(u.Permissions), flags...)
}
