package server

import (
	"github.com/jrsteele09/go-botlist-server/guard"
)

// Credential requirements per operation.
var (
	opCreateSession = guard.Operation{Name: "createSession"}
	opRefresh       = guard.Operation{Name: "refreshSession", Strategies: []guard.StrategyID{guard.StrategyRefresh}}
	opRevoke        = guard.Operation{Name: "revokeSession", Strategies: []guard.StrategyID{guard.StrategyAccess}}
	opListSessions  = guard.Operation{Name: "listSessions", Strategies: []guard.StrategyID{guard.StrategyAccess, guard.StrategyInternal}}
	opRevokeAll     = guard.Operation{Name: "revokeAllSessions", Strategies: []guard.StrategyID{guard.StrategyAccess}}
	opIssueAPIKey   = guard.Operation{Name: "issueApiKey", Strategies: []guard.StrategyID{guard.StrategyAccess, guard.StrategyInternal}}
	opBotSelf       = guard.Operation{Name: "botSelf", Strategies: []guard.StrategyID{guard.StrategyAPIKey}}

	// The handler reads the key itself so an unknown key answers valid=false.
	opVerifyAPIKey = guard.Operation{Name: "verifyApiKey", Strategies: []guard.StrategyID{guard.StrategyAPIKey}}.Without(guard.StrategyAPIKey)
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteAuthSession, ChainMiddleware(s.CreateSessionHandler(), s.APIMiddleware(opCreateSession)...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshSessionHandler(), s.APIMiddleware(opRefresh)...))
	s.RegisterRouteHandler("POST "+RouteAuthRevoke, ChainMiddleware(s.RevokeSessionHandler(), s.APIMiddleware(opRevoke)...))
	s.RegisterRouteHandler("GET "+RouteAuthSessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware(opListSessions)...))
	s.RegisterRouteHandler("DELETE "+RouteAuthSessions, ChainMiddleware(s.RevokeAllSessionsHandler(), s.APIMiddleware(opRevokeAll)...))

	s.RegisterRouteHandler("POST "+RouteBotAPIKey, ChainMiddleware(s.IssueAPIKeyHandler(), s.APIMiddleware(opIssueAPIKey)...))
	s.RegisterRouteHandler("POST "+RouteBotAPIKeyVerify, ChainMiddleware(s.VerifyAPIKeyHandler(), s.APIMiddleware(opVerifyAPIKey)...))
	s.RegisterRouteHandler("GET "+RouteBotSelf, ChainMiddleware(s.BotSelfHandler(), s.APIMiddleware(opBotSelf)...))

	// CORS preflight for every API path
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.CorsMiddleware))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.deps.Metrics.Handler())
}
