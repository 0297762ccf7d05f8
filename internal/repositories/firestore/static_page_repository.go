package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/cosmichub/api/internal/domain"
	pfirestore "github.com/cosmichub/api/internal/platform/firestore"
	"github.com/cosmichub/api/internal/repositories"
)

const staticPagesCollection = "staticPages"

type staticPageDocument struct {
	Content string `firestore:"content"`
}

// StaticPageRepository persists the fixed editable pages in the shared public namespace.
type StaticPageRepository struct {
	base *pfirestore.BaseRepository[domain.StaticPage]
}

var _ repositories.StaticPageRepository = (*StaticPageRepository)(nil)

// NewStaticPageRepository constructs a Firestore-backed static page repository.
func NewStaticPageRepository(provider *pfirestore.Provider, appID string) (*StaticPageRepository, error) {
	if provider == nil {
		return nil, errors.New("static page repository: firestore provider is required")
	}
	if strings.TrimSpace(appID) == "" {
		return nil, errors.New("static page repository: app id is required")
	}

	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.StaticPage, error) {
		var doc staticPageDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.StaticPage{}, err
		}
		return domain.StaticPage{
			ID:      domain.PageID(snap.Ref.ID),
			Content: doc.Content,
		}, nil
	}

	base := pfirestore.NewBaseRepository[domain.StaticPage](provider, publicDataPath(appID, staticPagesCollection), nil, decoder)
	return &StaticPageRepository{base: base}, nil
}

// Get loads the page content. A missing document surfaces as a not-found
// repository error; callers decide whether that means "empty page".
func (r *StaticPageRepository) Get(ctx context.Context, id domain.PageID) (domain.StaticPage, error) {
	if r == nil || r.base == nil {
		return domain.StaticPage{}, errors.New("static page repository not initialised")
	}
	if !domain.ValidPageID(string(id)) {
		return domain.StaticPage{}, errors.New("static page repository: unknown page id")
	}
	doc, err := r.base.Get(ctx, string(id))
	if err != nil {
		return domain.StaticPage{}, err
	}
	return doc.Data, nil
}

// Upsert writes only the content field, merging with whatever else the
// document holds so the write succeeds whether or not the page exists.
func (r *StaticPageRepository) Upsert(ctx context.Context, id domain.PageID, content string) error {
	if r == nil || r.base == nil {
		return errors.New("static page repository not initialised")
	}
	if !domain.ValidPageID(string(id)) {
		return errors.New("static page repository: unknown page id")
	}

	docRef, err := r.base.DocumentRef(ctx, string(id))
	if err != nil {
		return err
	}
	if _, err := docRef.Set(ctx, map[string]any{"content": content}, firestore.MergeAll); err != nil {
		return pfirestore.WrapError("static_pages.upsert", err)
	}
	return nil
}
