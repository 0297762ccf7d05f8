package services

import (
	"math/rand"
	"strings"

	domain "github.com/cosmichub/api/internal/domain"
)

// CategoryAll is the sentinel facet that matches every category.
const CategoryAll = "All"

// DefaultFeaturedSize bounds the random featured subset.
const DefaultFeaturedSize = 5

// ViewState is the derived read model recomputed from the raw catalog list on
// every input change. Derivation is pure: same inputs, same outputs, except
// for the separately sampled featured subset.
type ViewState struct {
	Categories   []string
	PublicGrid   []domain.Game
	PendingQueue []domain.Game
	AdminAll     []domain.Game
}

// DeriveViewState computes the category facet and the three list views from
// the raw catalog list, the search text, and the active category.
func DeriveViewState(games []domain.Game, search, category string) ViewState {
	state := ViewState{
		Categories:   Categories(games),
		PublicGrid:   make([]domain.Game, 0, len(games)),
		PendingQueue: make([]domain.Game, 0),
		AdminAll:     append([]domain.Game(nil), games...),
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	for _, game := range games {
		if !game.Approved {
			state.PendingQueue = append(state.PendingQueue, game)
			continue
		}
		if !matchesSearch(game, needle) {
			continue
		}
		if !matchesCategory(game, category) {
			continue
		}
		state.PublicGrid = append(state.PublicGrid, game)
	}

	return state
}

// Categories returns the sentinel "All" followed by every distinct non-empty
// genre in first-seen order.
func Categories(games []domain.Game) []string {
	out := []string{CategoryAll}
	seen := make(map[string]struct{}, len(games))
	for _, game := range games {
		genre := strings.TrimSpace(game.Genre)
		if genre == "" {
			continue
		}
		if _, ok := seen[genre]; ok {
			continue
		}
		seen[genre] = struct{}{}
		out = append(out, genre)
	}
	return out
}

// Featured samples up to size approved entries uniformly using the supplied
// random source. Every call reshuffles; callers wanting a pinned sample
// inject a seeded source.
func Featured(games []domain.Game, size int, rng *rand.Rand) []domain.Game {
	if size <= 0 {
		size = DefaultFeaturedSize
	}

	approved := make([]domain.Game, 0, len(games))
	for _, game := range games {
		if game.Approved {
			approved = append(approved, game)
		}
	}

	if rng != nil {
		rng.Shuffle(len(approved), func(i, j int) {
			approved[i], approved[j] = approved[j], approved[i]
		})
	} else {
		rand.Shuffle(len(approved), func(i, j int) {
			approved[i], approved[j] = approved[j], approved[i]
		})
	}

	if len(approved) > size {
		approved = approved[:size]
	}
	return approved
}

func matchesSearch(game domain.Game, needle string) bool {
	if needle == "" {
		return true
	}
	// A missing name matches as the empty string rather than excluding the entry.
	return strings.Contains(strings.ToLower(game.DisplayName()), needle)
}

func matchesCategory(game domain.Game, category string) bool {
	category = strings.TrimSpace(category)
	if category == "" || category == CategoryAll {
		return true
	}
	return strings.TrimSpace(game.Genre) == category
}
