package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cosmichub/api/internal/platform/analytics"
	"github.com/cosmichub/api/internal/platform/httpx"
	"github.com/cosmichub/api/internal/services"
)

// SessionHandlers bootstraps anonymous visitor sessions.
type SessionHandlers struct {
	sessions  services.SessionService
	analytics *analytics.Client
}

// SessionOption customises construction of SessionHandlers.
type SessionOption func(*SessionHandlers)

// WithSessionService injects the session service.
func WithSessionService(svc services.SessionService) SessionOption {
	return func(h *SessionHandlers) {
		h.sessions = svc
	}
}

// WithSessionAnalytics injects the measurement client pinged on first visit.
func WithSessionAnalytics(client *analytics.Client) SessionOption {
	return func(h *SessionHandlers) {
		h.analytics = client
	}
}

// NewSessionHandlers constructs handlers for the session endpoints.
func NewSessionHandlers(opts ...SessionOption) *SessionHandlers {
	h := &SessionHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the session endpoints.
func (h *SessionHandlers) Routes(r chi.Router) {
	r.Post("/", h.Start)
}

type sessionResponse struct {
	UID         string `json:"uid"`
	CustomToken string `json:"customToken"`
	Anonymous   bool   `json:"anonymous"`
}

// Start issues a fresh anonymous session the client exchanges for an ID token.
func (h *SessionHandlers) Start(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	session, err := h.sessions.StartSession(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if h.analytics != nil {
		h.analytics.SendAsync(session.UID, analytics.PageView("/", ""))
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		UID:         session.UID,
		CustomToken: session.CustomToken,
		Anonymous:   session.Anonymous,
	})
}
