package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"divai/internal/app"
	"divai/internal/ratelimit"
	"divai/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	AuthLimiter    *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
}

// Server exposes the HTTP API.
type Server struct {
	app            *app.App
	authLimiter    *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		authLimiter:    cfg.AuthLimiter,
		trustedProxies: cfg.TrustedProxies,
		allowedOrigins: cfg.AllowedOrigins,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware stack applied.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = s.withMaintenanceGate(h)
	h = util.WithCORS(s.allowedOrigins, h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog("api", h)
	h = util.WithRequestID(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)

	s.mux.Handle("/api/auth/register", s.withIPLimit(http.HandlerFunc(s.handleRegister)))
	s.mux.Handle("/api/auth/login", s.withIPLimit(http.HandlerFunc(s.handleLogin)))
	s.mux.Handle("/api/auth/forgot-password", s.withIPLimit(http.HandlerFunc(s.handleForgotPassword)))
	s.mux.HandleFunc("/api/auth/reset-password", s.handleResetPassword)

	s.mux.Handle("/api/chat", s.withUser(s.handleChat))
	s.mux.Handle("/api/chat/reset", s.withUser(s.handleChatReset))
	s.mux.Handle("/api/conversations", s.withUser(s.handleConversations))
	s.mux.Handle("/api/conversations/", s.withUser(s.handleConversationByID))
	s.mux.Handle("/api/history", s.withUser(s.handleHistory))

	s.mux.Handle("/api/admin/maintenance", s.withAdmin(s.handleAdminMaintenance))
	s.mux.Handle("/api/admin/announcement", s.withAdmin(s.handleAdminAnnouncement))
	s.mux.Handle("/api/admin/export", s.withAdmin(s.handleAdminExport))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	on, err := s.app.Maintenance()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"maintenance": on})
}

// userHandler receives the authenticated caller's identity.
type userHandler func(w http.ResponseWriter, r *http.Request, userID, username string)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		claims, err := s.app.Tokens().Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, claims.UserID, claims.Username)
	})
}

func (s *Server) withAdmin(next userHandler) http.Handler {
	return s.withUser(func(w http.ResponseWriter, r *http.Request, userID, username string) {
		if !s.app.IsAdmin(username) {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r, userID, username)
	})
}

// withIPLimit throttles unauthenticated auth endpoints per client IP.
func (s *Server) withIPLimit(next http.Handler) http.Handler {
	if s.authLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := util.ClientIP(r, s.trustedProxies)
		if !s.authLimiter.Allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withMaintenanceGate returns 503 for user-facing routes while maintenance
// mode is on. Status, health and admin routes stay reachable so operators
// can turn it back off.
func (s *Server) withMaintenanceGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		exempt := path == "/healthz" ||
			path == "/api/status" ||
			strings.HasPrefix(path, "/api/admin/")
		if !exempt {
			on, err := s.app.Maintenance()
			if err == nil && on {
				writeError(w, http.StatusServiceUnavailable, "service under maintenance")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps service errors onto the API's status taxonomy.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if ce, ok := app.AsCooldownError(err); ok {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":           "please wait before sending another message",
			"cooldownSeconds": ce.Seconds,
		})
		return
	}
	switch {
	case errors.Is(err, app.ErrValidation),
		errors.Is(err, app.ErrEmptyMessage),
		errors.Is(err, app.ErrUnknownProvider),
		errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrEmailTaken),
		errors.Is(err, app.ErrInvalidOTP),
		errors.Is(err, app.ErrExpiredOTP):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, app.ErrProviderBusy):
		writeError(w, http.StatusTooManyRequests, "model provider is busy, try again shortly")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
