package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-botlist-server/bots"
	"github.com/jrsteele09/go-botlist-server/guard"
	apperrors "github.com/jrsteele09/go-botlist-server/internal/errors"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

type createSessionRequest struct {
	Code string `json:"code"`
}

// CreateSessionHandler exchanges a Discord authorization code for a token pair.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
		if req.Code == "" {
			writeBadRequest(w, "code is required")
			return
		}

		pair, err := s.deps.Sessions.CreateSession(r.Context(), req.Code)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) RefreshSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		pair, err := s.deps.Sessions.RefreshSession(r.Context(), identity.Refresh, identity.Bearer)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

func (s *Server) RevokeSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		revoked, err := s.deps.Sessions.RevokeSession(r.Context(), identity.Access, identity.Bearer)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
	}
}

// ListSessionsHandler lists the caller's sessions. Internal callers name the
// user with ?user_id=.
func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		userID := identity.UserID
		if identity.Internal {
			userID = r.URL.Query().Get("user_id")
		}
		if userID == "" {
			writeBadRequest(w, "user_id is required")
			return
		}

		list, err := s.deps.Sessions.ListSessions(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) RevokeAllSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		n, err := s.deps.Sessions.RevokeAllSessions(r.Context(), identity.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"revoked": n})
	}
}

// IssueAPIKeyHandler issues a new key for the bot named in the path. Owners,
// ManageBots staff and internal callers may do this.
func (s *Server) IssueAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		bot, err := s.deps.Bots.GetBot(r.Context(), r.PathValue("id"))
		if errors.Is(err, bots.ErrBotNotFound) {
			writeError(w, r, apperrors.ErrBotNotFound)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.deps.Permissions.RequireBotManager(r.Context(), identity, bot); err != nil {
			writeError(w, r, err)
			return
		}

		issuer := identity.UserID
		if identity.Internal {
			issuer = bot.OwnerID
		}
		key, err := s.deps.APIKeys.IssueAPIKey(r.Context(), bot.ID, issuer)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"api_key": key})
	}
}

// VerifyAPIKeyHandler reports whether the bearer API key is a bot's current key.
func (s *Server) VerifyAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := guard.ParseAuthorization(r.Header.Get("Authorization")).Bearer()
		if raw == "" {
			writeError(w, r, apperrors.ErrAPIKeyRequired)
			return
		}
		valid, err := s.deps.APIKeys.VerifyAPIKey(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"valid": valid})
	}
}

type botResponse struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	OwnerID string      `json:"owner_id"`
	Status  bots.Status `json:"status"`
}

// BotSelfHandler returns the bot authenticated by its API key.
func (s *Server) BotSelfHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		bot, err := s.deps.Bots.GetBot(r.Context(), identity.BotID)
		if errors.Is(err, bots.ErrBotNotFound) {
			writeError(w, r, apperrors.ErrBotNotFound)
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, botResponse{ID: bot.ID, Name: bot.Name, OwnerID: bot.OwnerID, Status: bot.Status})
	}
}

func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.deps.DB.PingContext(ctx); err != nil {
				logError(r.Method, r.URL.Path, err.Error())
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
