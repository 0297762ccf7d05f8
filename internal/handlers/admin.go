package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/platform/httpx"
	"github.com/cosmichub/api/internal/services"
)

// AdminHandlers exposes the password-gated moderation endpoints.
type AdminHandlers struct {
	gate  *services.AdminGate
	games services.GameService
	pages services.PageService
	feed  services.CatalogFeed
}

// AdminOption customises construction of AdminHandlers.
type AdminOption func(*AdminHandlers)

// WithAdminGate injects the password gate.
func WithAdminGate(gate *services.AdminGate) AdminOption {
	return func(h *AdminHandlers) {
		h.gate = gate
	}
}

// WithAdminGameService injects the mutation gateway.
func WithAdminGameService(svc services.GameService) AdminOption {
	return func(h *AdminHandlers) {
		h.games = svc
	}
}

// WithAdminPageService injects the static page service.
func WithAdminPageService(svc services.PageService) AdminOption {
	return func(h *AdminHandlers) {
		h.pages = svc
	}
}

// WithAdminFeed injects the live catalog subscription backing the queue views.
func WithAdminFeed(feed services.CatalogFeed) AdminOption {
	return func(h *AdminHandlers) {
		h.feed = feed
	}
}

// NewAdminHandlers constructs handlers for the admin endpoints.
func NewAdminHandlers(opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the admin endpoints. Everything except login sits behind
// the password gate.
func (h *AdminHandlers) Routes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Group(func(gated chi.Router) {
		gated.Use(h.RequireAdmin)
		gated.Post("/logout", h.Logout)
		gated.Get("/games", h.AllGames)
		gated.Post("/games", h.UpsertGame)
		gated.Get("/games/pending", h.PendingGames)
		gated.Put("/games/{gameID}", h.UpsertGame)
		gated.Post("/games/{gameID}/approve", h.ApproveGame)
		gated.Delete("/games/{gameID}", h.DeleteGame)
		gated.Put("/pages/{pageID}", h.UpsertPage)
	})
}

// RequireAdmin rejects requests while the gate is logged out.
func (h *AdminHandlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.gate == nil || !h.gate.LoggedIn() {
			httpx.WriteError(r.Context(), w, httpx.NewError("admin_required", "admin login required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type adminLoginRequest struct {
	Password string `json:"password"`
}

// Login transitions the gate to logged in on an exact password match.
func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.gate == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("admin_unavailable", "admin gate not configured", http.StatusServiceUnavailable))
		return
	}

	var body adminLoginRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}

	if err := h.gate.Login(body.Password); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_password", "incorrect password", http.StatusUnauthorized))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true})
}

// Logout transitions the gate back to logged out.
func (h *AdminHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.gate.Logout()
	writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
}

// PendingGames serves the moderation queue of unapproved entries.
func (h *AdminHandlers) PendingGames(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	games, status := h.feed.Snapshot()
	view := services.DeriveViewState(games, "", services.CategoryAll)

	writeJSON(w, http.StatusOK, gameListResponse{
		Games:  toGamePayloads(view.PendingQueue),
		Status: toFeedStatusPayload(status),
	})
}

// AllGames serves the complete unfiltered catalog.
func (h *AdminHandlers) AllGames(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	games, status := h.feed.Snapshot()
	view := services.DeriveViewState(games, "", services.CategoryAll)

	writeJSON(w, http.StatusOK, gameListResponse{
		Games:  toGamePayloads(view.AdminAll),
		Status: toFeedStatusPayload(status),
	})
}

type adminGameRequest struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Price       string `json:"price"`
	Genre       string `json:"genre"`
	HTMLContent string `json:"htmlContent"`
	GameLink    string `json:"gameLink"`
	Approved    bool   `json:"approved"`
}

// UpsertGame creates or overwrites a catalog entry. Unlike the public path the
// admin may set the approval flag directly.
func (h *AdminHandlers) UpsertGame(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	var body adminGameRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}

	game, err := h.games.AdminUpsertGame(r.Context(), uploaderID(r), chi.URLParam(r, "gameID"), services.GameInput{
		Name:        body.Name,
		Image:       body.Image,
		Price:       body.Price,
		Genre:       body.Genre,
		HTMLContent: body.HTMLContent,
		GameLink:    body.GameLink,
		Approved:    body.Approved,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if chi.URLParam(r, "gameID") == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, toGamePayload(game))
}

// ApproveGame flips the approval flag on, leaving every other field untouched.
func (h *AdminHandlers) ApproveGame(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	if err := h.games.ApproveGame(r.Context(), chi.URLParam(r, "gameID")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approved": true})
}

type deleteGameRequest struct {
	Confirmation string `json:"confirmation"`
}

// DeleteGame removes a catalog entry after the confirmation phrase is echoed.
func (h *AdminHandlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	var body deleteGameRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}

	if err := h.games.DeleteGame(r.Context(), chi.URLParam(r, "gameID"), body.Confirmation); err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type upsertPageRequest struct {
	Content string `json:"content"`
}

// UpsertPage replaces a static page's content, creating the document if absent.
func (h *AdminHandlers) UpsertPage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	var body upsertPageRequest
	if !decodeJSONBody(w, r, &body) {
		return
	}

	pageID := domain.PageID(chi.URLParam(r, "pageID"))
	if err := h.pages.UpsertPage(r.Context(), pageID, body.Content); err != nil {
		respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}
