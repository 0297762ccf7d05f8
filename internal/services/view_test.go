package services

import (
	"math/rand"
	"testing"

	domain "github.com/cosmichub/api/internal/domain"
)

func TestDeriveViewStateTwoItemScenario(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Name: "Zed", Approved: true, Genre: "RPG"},
		{ID: "2", Name: "Abe", Approved: false, Genre: "RPG"},
	}

	state := DeriveViewState(games, "", CategoryAll)

	if len(state.PublicGrid) != 1 || state.PublicGrid[0].ID != "1" {
		t.Fatalf("expected public grid [1], got %v", state.PublicGrid)
	}
	if len(state.PendingQueue) != 1 || state.PendingQueue[0].ID != "2" {
		t.Fatalf("expected pending queue [2], got %v", state.PendingQueue)
	}
	if len(state.Categories) != 2 || state.Categories[0] != "All" || state.Categories[1] != "RPG" {
		t.Fatalf("unexpected categories %v", state.Categories)
	}
	if len(state.AdminAll) != 2 {
		t.Fatalf("expected admin list unfiltered, got %d items", len(state.AdminAll))
	}
}

func TestDeriveViewStateSearchIsCaseInsensitiveSubstring(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Name: "Star Voyager", Approved: true},
		{ID: "2", Name: "Dungeon Run", Approved: true},
		{ID: "3", Name: "", Approved: true},
	}

	state := DeriveViewState(games, "VOYA", CategoryAll)
	if len(state.PublicGrid) != 1 || state.PublicGrid[0].ID != "1" {
		t.Fatalf("expected only the voyager entry, got %v", state.PublicGrid)
	}

	state = DeriveViewState(games, "", CategoryAll)
	if len(state.PublicGrid) != 3 {
		t.Fatalf("empty search should match every approved entry including the nameless one, got %d", len(state.PublicGrid))
	}
}

func TestDeriveViewStateCategoryFiltering(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Name: "A", Approved: true, Genre: "RPG"},
		{ID: "2", Name: "B", Approved: true, Genre: "Puzzle"},
		{ID: "3", Name: "C", Approved: true},
	}

	state := DeriveViewState(games, "", "RPG")
	if len(state.PublicGrid) != 1 || state.PublicGrid[0].ID != "1" {
		t.Fatalf("expected exact category match only, got %v", state.PublicGrid)
	}

	state = DeriveViewState(games, "", CategoryAll)
	if len(state.PublicGrid) != 3 {
		t.Fatalf("All should include the uncategorized entry, got %d", len(state.PublicGrid))
	}
}

func TestCategoriesFirstSeenOrderAndDedup(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Genre: "Puzzle"},
		{ID: "2", Genre: "RPG"},
		{ID: "3", Genre: "Puzzle"},
		{ID: "4", Genre: ""},
		{ID: "5", Genre: "Arcade"},
	}

	got := Categories(games)
	want := []string{"All", "Puzzle", "RPG", "Arcade"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestPendingAndApprovedPartitionTheList(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Approved: true},
		{ID: "2", Approved: false},
		{ID: "3", Approved: true},
		{ID: "4", Approved: false},
	}

	state := DeriveViewState(games, "", CategoryAll)

	if len(state.PublicGrid)+len(state.PendingQueue) != len(games) {
		t.Fatalf("expected partition, got %d approved + %d pending of %d",
			len(state.PublicGrid), len(state.PendingQueue), len(games))
	}
	seen := make(map[string]int)
	for _, g := range state.PublicGrid {
		seen[g.ID]++
	}
	for _, g := range state.PendingQueue {
		seen[g.ID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("entry %s appeared %d times across the partition", id, count)
		}
	}
}

func TestFeaturedSizeAndMembership(t *testing.T) {
	games := make([]domain.Game, 0, 10)
	for i := 0; i < 8; i++ {
		games = append(games, domain.Game{ID: string(rune('a' + i)), Approved: i%2 == 0})
	}

	rng := rand.New(rand.NewSource(42))
	featured := Featured(games, 5, rng)

	approvedCount := 4
	want := approvedCount
	if want > 5 {
		want = 5
	}
	if len(featured) != want {
		t.Fatalf("expected %d featured entries, got %d", want, len(featured))
	}
	for _, g := range featured {
		if !g.Approved {
			t.Fatalf("featured entry %s is not approved", g.ID)
		}
	}
}

func TestFeaturedPinnedSampleIsDeterministic(t *testing.T) {
	games := []domain.Game{
		{ID: "1", Approved: true},
		{ID: "2", Approved: true},
		{ID: "3", Approved: true},
		{ID: "4", Approved: true},
		{ID: "5", Approved: true},
		{ID: "6", Approved: true},
	}

	first := Featured(games, 3, rand.New(rand.NewSource(7)))
	second := Featured(games, 3, rand.New(rand.NewSource(7)))

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected samples of 3, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("same seed should produce the same sample: %v vs %v", first, second)
		}
	}
}
