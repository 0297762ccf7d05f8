package handlers

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/services"
)

type stubCatalogFeed struct {
	games  []domain.Game
	status services.FeedStatus
}

func (s *stubCatalogFeed) Start(context.Context) error { return nil }

func (s *stubCatalogFeed) Snapshot() ([]domain.Game, services.FeedStatus) {
	return s.games, s.status
}

func (s *stubCatalogFeed) Release() {}

type stubGameService struct {
	submitted  []services.GameInput
	submitErr  error
	upserts    []services.GameInput
	upsertIDs  []string
	approved   []string
	approveErr error
	deleted    []string
	deleteErr  error
	byID       map[string]domain.Game
	getErr     error
}

func newStubGameService() *stubGameService {
	return &stubGameService{byID: map[string]domain.Game{}}
}

func (s *stubGameService) SubmitGame(_ context.Context, uploaderID string, input services.GameInput) (services.Game, error) {
	if err := validateStubInput(input); err != nil {
		return services.Game{}, err
	}
	if s.submitErr != nil {
		return services.Game{}, s.submitErr
	}
	s.submitted = append(s.submitted, input)
	return services.Game{ID: "new-id", Name: input.Name, UploadedBy: uploaderID}, nil
}

func (s *stubGameService) AdminUpsertGame(_ context.Context, uploaderID string, existingID string, input services.GameInput) (services.Game, error) {
	if err := validateStubInput(input); err != nil {
		return services.Game{}, err
	}
	s.upserts = append(s.upserts, input)
	s.upsertIDs = append(s.upsertIDs, existingID)
	id := existingID
	if id == "" {
		id = "new-id"
	}
	return services.Game{ID: id, Name: input.Name, UploadedBy: uploaderID, Approved: input.Approved}, nil
}

func (s *stubGameService) ApproveGame(_ context.Context, id string) error {
	if s.approveErr != nil {
		return s.approveErr
	}
	s.approved = append(s.approved, id)
	return nil
}

func (s *stubGameService) DeleteGame(_ context.Context, id string, confirmation string) error {
	if strings.TrimSpace(confirmation) != services.DeleteConfirmationPhrase {
		return services.ErrDeleteNotConfirmed
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubGameService) GetGame(_ context.Context, id string) (services.Game, error) {
	if s.getErr != nil {
		return services.Game{}, s.getErr
	}
	game, ok := s.byID[id]
	if !ok {
		return services.Game{}, &stubNotFoundError{}
	}
	return game, nil
}

func validateStubInput(input services.GameInput) error {
	var missing []string
	if input.Name == "" {
		missing = append(missing, "name")
	}
	if input.Image == "" {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return &services.GameValidationError{Missing: missing}
	}
	return nil
}

type stubNotFoundError struct{}

func (e *stubNotFoundError) Error() string       { return "document missing" }
func (e *stubNotFoundError) IsNotFound() bool    { return true }
func (e *stubNotFoundError) IsConflict() bool    { return false }
func (e *stubNotFoundError) IsUnavailable() bool { return false }

func newGamesRouter(h *GameHandlers) chi.Router {
	r := chi.NewRouter()
	r.Route("/games", h.Routes)
	return r
}

func sampleCatalog() []domain.Game {
	return []domain.Game{
		{ID: "1", Name: "Zed", Genre: "RPG", Approved: true},
		{ID: "2", Name: "Abe", Genre: "RPG", Approved: false},
		{ID: "3", Name: "Nova Drift", Genre: "Arcade", Approved: true},
	}
}

func TestGameListFiltersApprovedAndSearch(t *testing.T) {
	feed := &stubCatalogFeed{games: sampleCatalog(), status: services.FeedStatus{Connected: true}}
	router := newGamesRouter(NewGameHandlers(WithGameFeed(feed)))

	req := httptest.NewRequest(http.MethodGet, "/games?search=zed", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body gameListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Games) != 1 || body.Games[0].ID != "1" {
		t.Fatalf("expected only the approved Zed entry, got %+v", body.Games)
	}
	if !body.Status.Connected {
		t.Fatal("expected connected status echoed")
	}
}

func TestGameListGenreFilter(t *testing.T) {
	feed := &stubCatalogFeed{games: sampleCatalog()}
	router := newGamesRouter(NewGameHandlers(WithGameFeed(feed)))

	req := httptest.NewRequest(http.MethodGet, "/games?genre=Arcade", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body gameListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Games) != 1 || body.Games[0].ID != "3" {
		t.Fatalf("expected only the Arcade entry, got %+v", body.Games)
	}
}

func TestGameListNeverLeaksUnapproved(t *testing.T) {
	feed := &stubCatalogFeed{games: sampleCatalog()}
	router := newGamesRouter(NewGameHandlers(WithGameFeed(feed)))

	req := httptest.NewRequest(http.MethodGet, "/games", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body gameListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, game := range body.Games {
		if !game.Approved {
			t.Fatalf("unapproved entry leaked into public grid: %+v", game)
		}
	}
}

func TestGameFeaturedSampleSizeAndMembership(t *testing.T) {
	feed := &stubCatalogFeed{games: sampleCatalog()}
	rng := rand.New(rand.NewSource(7))
	router := newGamesRouter(NewGameHandlers(WithGameFeed(feed), WithGameRand(rng), WithFeaturedSize(5)))

	req := httptest.NewRequest(http.MethodGet, "/games/featured", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body gameListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Two approved entries, so min(5, 2).
	if len(body.Games) != 2 {
		t.Fatalf("expected 2 featured entries, got %d", len(body.Games))
	}
	for _, game := range body.Games {
		if !game.Approved {
			t.Fatalf("featured must only contain approved entries: %+v", game)
		}
	}
}

func TestGameFeaturedConcurrentRequestsShareOneSource(t *testing.T) {
	feed := &stubCatalogFeed{games: sampleCatalog()}
	rng := rand.New(rand.NewSource(7))
	router := newGamesRouter(NewGameHandlers(WithGameFeed(feed), WithGameRand(rng), WithFeaturedSize(5)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				req := httptest.NewRequest(http.MethodGet, "/games/featured", nil)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)
				if rr.Code != http.StatusOK {
					t.Errorf("expected 200, got %d", rr.Code)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGameCategoriesFacet(t *testing.T) {
	feed := &stubCatalogFeed{games: sampleCatalog()}
	router := newGamesRouter(NewGameHandlers(WithGameFeed(feed)))

	req := httptest.NewRequest(http.MethodGet, "/games/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var body struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Categories) == 0 || body.Categories[0] != services.CategoryAll {
		t.Fatalf("expected All first, got %v", body.Categories)
	}
}

func TestGameSubmitCreatesPendingEntry(t *testing.T) {
	svc := newStubGameService()
	router := newGamesRouter(NewGameHandlers(WithGameService(svc)))

	payload := `{"name":"Zed","image":"img","price":"Free","genre":"RPG","gameLink":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(svc.submitted) != 1 || svc.submitted[0].Name != "Zed" {
		t.Fatalf("unexpected submissions %+v", svc.submitted)
	}
}

func TestGameSubmitValidationFailureReturns400(t *testing.T) {
	svc := newStubGameService()
	router := newGamesRouter(NewGameHandlers(WithGameService(svc)))

	req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(`{"name":"Zed"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body struct {
		Error   string   `json:"error"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "invalid_request" {
		t.Fatalf("expected invalid_request, got %s", body.Error)
	}
	if len(body.Missing) == 0 {
		t.Fatal("expected missing field details")
	}
}

func TestGameDetailNotFound(t *testing.T) {
	svc := newStubGameService()
	router := newGamesRouter(NewGameHandlers(WithGameService(svc)))

	req := httptest.NewRequest(http.MethodGet, "/games/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestGameEndpointsDegradedWithoutFeed(t *testing.T) {
	router := newGamesRouter(NewGameHandlers())

	for _, path := range []string{"/games", "/games/featured", "/games/categories"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503 for %s, got %d", path, rr.Code)
		}
	}
}

func TestGameSubmitSurfacesNotConnected(t *testing.T) {
	svc := newStubGameService()
	svc.submitErr = services.ErrNotConnected
	router := newGamesRouter(NewGameHandlers(WithGameService(svc)))

	payload := `{"name":"Zed","image":"img","price":"Free","genre":"RPG","gameLink":"https://example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/games", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
