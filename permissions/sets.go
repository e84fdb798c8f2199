package permissions

// User (staff) permission flags.
const (
	ManageUsers uint64 = 1 << iota
	ManageBadges
	ManageReviews
	ManageTags
	ManageBots
	ManagePermissions
	UserAdmin
)

// Bot owner permission flags.
const (
	OwnerSyncStats uint64 = 1 << iota
	OwnerSyncCommands
	OwnerManageReview
	OwnerManageTags
	OwnerManageAPIKey
	OwnerManageBot
	OwnerManageWebhook
	OwnerAdmin
)

// UserPermissions gates staff operations.
var UserPermissions = MustNew(map[string]uint64{
	"ManageUsers":       ManageUsers,
	"ManageBadges":      ManageBadges,
	"ManageReviews":     ManageReviews,
	"ManageTags":        ManageTags,
	"ManageBots":        ManageBots,
	"ManagePermissions": ManagePermissions,
	"Admin":             UserAdmin,
}, "Admin")

// BotOwnerPermissions gates what a co-owner may do with a bot.
var BotOwnerPermissions = MustNew(map[string]uint64{
	"SyncStats":     OwnerSyncStats,
	"SyncCommands":  OwnerSyncCommands,
	"ManageReview":  OwnerManageReview,
	"ManageTags":    OwnerManageTags,
	"ManageApiKey":  OwnerManageAPIKey,
	"ManageBot":     OwnerManageBot,
	"ManageWebhook": OwnerManageWebhook,
	"Admin":         OwnerAdmin,
}, "Admin")
