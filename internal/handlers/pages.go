package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/platform/analytics"
	"github.com/cosmichub/api/internal/platform/httpx"
	"github.com/cosmichub/api/internal/services"
)

// PageHandlers exposes the fixed static pages.
type PageHandlers struct {
	pages     services.PageService
	analytics *analytics.Client
}

// PageOption customises construction of PageHandlers.
type PageOption func(*PageHandlers)

// WithPageService injects the static page service.
func WithPageService(svc services.PageService) PageOption {
	return func(h *PageHandlers) {
		h.pages = svc
	}
}

// WithPageAnalytics injects the measurement client for page view pings.
func WithPageAnalytics(client *analytics.Client) PageOption {
	return func(h *PageHandlers) {
		h.analytics = client
	}
}

// NewPageHandlers constructs handlers for the static page endpoints.
func NewPageHandlers(opts ...PageOption) *PageHandlers {
	h := &PageHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the static page endpoints.
func (h *PageHandlers) Routes(r chi.Router) {
	r.Get("/{pageID}", h.Get)
}

type pagePayload struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Get serves a static page. Missing documents read as empty content because
// pages are lazily created on first save.
func (h *PageHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	pageID := domain.PageID(chi.URLParam(r, "pageID"))
	page, err := h.pages.GetPage(r.Context(), pageID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if h.analytics != nil {
		h.analytics.SendAsync(uploaderID(r), analytics.PageView("/pages/"+string(pageID), string(pageID)))
	}
	writeJSON(w, http.StatusOK, pagePayload{ID: string(page.ID), Content: page.Content})
}
