package server

// Route path constants
const (
	// Session lifecycle
	RouteAuthSession  = "/auth/session"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthRevoke   = "/auth/revoke"
	RouteAuthSessions = "/auth/sessions"

	// Bot API keys
	RouteBotAPIKey       = "/bots/{id}/api-key"
	RouteBotAPIKeyVerify = "/bots/api-key/verify"
	RouteBotSelf         = "/bots/@me"

	// Operational
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
