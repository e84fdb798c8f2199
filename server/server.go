package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-botlist-server/apikey"
	"github.com/jrsteele09/go-botlist-server/auth"
	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/guard"
	"github.com/jrsteele09/go-botlist-server/internal/config"
	"github.com/jrsteele09/go-botlist-server/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps holds the services the HTTP surface delegates to.
type Deps struct {
	Sessions    *auth.SessionService
	APIKeys     *apikey.Service
	Bots        bots.Repo
	Guard       *guard.Dispatcher
	Permissions *guard.PermissionGuard
	Metrics     *metrics.Metrics
	DB          Pinger // optional, used by /healthz
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	deps   Deps
}

func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Sessions == nil || deps.APIKeys == nil || deps.Bots == nil || deps.Guard == nil || deps.Permissions == nil {
		return nil, fmt.Errorf("[Server New] sessions, api keys, bots, guard and permissions are required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNop()
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		deps:   deps,
	}
	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func logError(method, path, message string) {
	log.Error().Msgf("[%-19s] %s %s", colouredMethod(method), path, Red+message+ResetColor)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
