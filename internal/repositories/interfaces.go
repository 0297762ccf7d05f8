package repositories

import (
	"context"

	domain "github.com/cosmichub/api/internal/domain"
	pfirestore "github.com/cosmichub/api/internal/platform/firestore"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// GameListFilter narrows List results. Zero value means every document.
type GameListFilter struct {
	ApprovedOnly bool
}

// GameRepository persists catalog entries under the shared application namespace.
type GameRepository interface {
	Create(ctx context.Context, game domain.Game) (string, error)
	Set(ctx context.Context, id string, game domain.Game) error
	Get(ctx context.Context, id string) (domain.Game, error)
	List(ctx context.Context, filter GameListFilter) ([]domain.Game, error)
	UpdateApproval(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context) (<-chan pfirestore.WatchEvent[domain.Game], error)
}

// StaticPageRepository persists the fixed editable pages. Upsert merges the
// content field so unrelated fields written by other tools survive.
type StaticPageRepository interface {
	Get(ctx context.Context, id domain.PageID) (domain.StaticPage, error)
	Upsert(ctx context.Context, id domain.PageID, content string) error
}

// HealthRepository aggregates dependency probes for readiness reporting.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
