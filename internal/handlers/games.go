package handlers

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/platform/analytics"
	"github.com/cosmichub/api/internal/platform/auth"
	"github.com/cosmichub/api/internal/platform/httpx"
	"github.com/cosmichub/api/internal/services"
)

const anonymousUploader = "anonymous"

// GameHandlers exposes the public catalog endpoints.
type GameHandlers struct {
	feed         services.CatalogFeed
	games        services.GameService
	analytics    *analytics.Client
	featuredSize int

	// rand.Rand is not safe for concurrent use; rngMu serialises the
	// featured shuffle across in-flight requests.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// GameOption customises construction of GameHandlers.
type GameOption func(*GameHandlers)

// WithGameFeed injects the live catalog subscription.
func WithGameFeed(feed services.CatalogFeed) GameOption {
	return func(h *GameHandlers) {
		h.feed = feed
	}
}

// WithGameService injects the mutation gateway.
func WithGameService(svc services.GameService) GameOption {
	return func(h *GameHandlers) {
		h.games = svc
	}
}

// WithGameAnalytics injects the measurement client for page view pings.
func WithGameAnalytics(client *analytics.Client) GameOption {
	return func(h *GameHandlers) {
		h.analytics = client
	}
}

// WithGameRand injects the random source used for the featured sample.
func WithGameRand(rng *rand.Rand) GameOption {
	return func(h *GameHandlers) {
		h.rng = rng
	}
}

// WithFeaturedSize overrides the featured sample size.
func WithFeaturedSize(size int) GameOption {
	return func(h *GameHandlers) {
		if size > 0 {
			h.featuredSize = size
		}
	}
}

// NewGameHandlers constructs handlers for the public game endpoints.
func NewGameHandlers(opts ...GameOption) *GameHandlers {
	h := &GameHandlers{featuredSize: services.DefaultFeaturedSize}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the public game endpoints.
func (h *GameHandlers) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Submit)
	r.Get("/featured", h.Featured)
	r.Get("/categories", h.Categories)
	r.Get("/{gameID}", h.Detail)
}

type gamePayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Price       string `json:"price,omitempty"`
	Genre       string `json:"genre,omitempty"`
	HTMLContent string `json:"htmlContent,omitempty"`
	GameLink    string `json:"gameLink,omitempty"`
	UploadedBy  string `json:"uploadedBy,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Approved    bool   `json:"approved"`
	Playable    bool   `json:"playable"`
}

type feedStatusPayload struct {
	Loading   bool   `json:"loading"`
	Connected bool   `json:"connected"`
	LastError string `json:"lastError,omitempty"`
}

type gameListResponse struct {
	Games  []gamePayload     `json:"games"`
	Status feedStatusPayload `json:"status"`
}

func toGamePayload(game domain.Game) gamePayload {
	_, _, playable := game.Playable()
	payload := gamePayload{
		ID:          game.ID,
		Name:        game.DisplayName(),
		Image:       game.ImageURL(),
		Price:       game.Price,
		Genre:       game.Genre,
		HTMLContent: game.HTMLContent,
		GameLink:    game.GameLink,
		UploadedBy:  game.UploadedBy,
		Approved:    game.Approved,
		Playable:    playable,
	}
	if !game.Timestamp.IsZero() {
		payload.Timestamp = game.Timestamp.UTC().Format(time.RFC3339)
	}
	return payload
}

func toGamePayloads(games []domain.Game) []gamePayload {
	payloads := make([]gamePayload, 0, len(games))
	for _, game := range games {
		payloads = append(payloads, toGamePayload(game))
	}
	return payloads
}

func toFeedStatusPayload(status services.FeedStatus) feedStatusPayload {
	return feedStatusPayload{
		Loading:   status.Loading,
		Connected: status.Connected,
		LastError: status.LastError,
	}
}

// List serves the approved catalog filtered by the search and genre parameters.
func (h *GameHandlers) List(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	games, status := h.feed.Snapshot()
	view := services.DeriveViewState(games, trimmedQuery(r, "search"), trimmedQuery(r, "genre"))

	writeJSON(w, http.StatusOK, gameListResponse{
		Games:  toGamePayloads(view.PublicGrid),
		Status: toFeedStatusPayload(status),
	})
}

// Featured serves a freshly shuffled sample of approved games.
func (h *GameHandlers) Featured(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	games, status := h.feed.Snapshot()
	h.rngMu.Lock()
	featured := services.Featured(games, h.featuredSize, h.rng)
	h.rngMu.Unlock()

	writeJSON(w, http.StatusOK, gameListResponse{
		Games:  toGamePayloads(featured),
		Status: toFeedStatusPayload(status),
	})
}

// Categories serves the genre facet extracted from the approved catalog.
func (h *GameHandlers) Categories(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	games, _ := h.feed.Snapshot()
	view := services.DeriveViewState(games, "", services.CategoryAll)

	writeJSON(w, http.StatusOK, map[string]any{"categories": view.Categories})
}

// Detail serves a single catalog entry by id.
func (h *GameHandlers) Detail(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	gameID := chi.URLParam(r, "gameID")
	game, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	h.trackPageView(r, "/games/"+gameID, game.DisplayName())
	writeJSON(w, http.StatusOK, toGamePayload(game))
}

type gameSubmission struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	Price       string `json:"price"`
	Genre       string `json:"genre"`
	HTMLContent string `json:"htmlContent"`
	GameLink    string `json:"gameLink"`
}

// Submit accepts a public catalog submission entering the moderation queue.
func (h *GameHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	if h.games == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("not_connected", services.ErrNotConnected.Error(), http.StatusServiceUnavailable))
		return
	}

	var body gameSubmission
	if !decodeJSONBody(w, r, &body) {
		return
	}

	game, err := h.games.SubmitGame(r.Context(), uploaderID(r), services.GameInput{
		Name:        body.Name,
		Image:       body.Image,
		Price:       body.Price,
		Genre:       body.Genre,
		HTMLContent: body.HTMLContent,
		GameLink:    body.GameLink,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGamePayload(game))
}

func (h *GameHandlers) trackPageView(r *http.Request, path string, title string) {
	if h.analytics == nil {
		return
	}
	h.analytics.SendAsync(uploaderID(r), analytics.PageView(path, title))
}

func uploaderID(r *http.Request) string {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil || identity.UID == "" {
		return anonymousUploader
	}
	return identity.UID
}
