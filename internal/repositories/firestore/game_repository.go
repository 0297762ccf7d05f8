package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/cosmichub/api/internal/domain"
	pfirestore "github.com/cosmichub/api/internal/platform/firestore"
	"github.com/cosmichub/api/internal/repositories"
)

const gamesCollection = "games"

// publicDataPath builds the shared namespace path used by every catalog
// collection: artifacts/{appID}/public/data/{collection}.
func publicDataPath(appID, collection string) string {
	return fmt.Sprintf("artifacts/%s/public/data/%s", strings.TrimSpace(appID), collection)
}

type gameDocument struct {
	Name        string    `firestore:"name"`
	Image       string    `firestore:"image"`
	Price       string    `firestore:"price"`
	Genre       string    `firestore:"genre"`
	HTMLContent string    `firestore:"htmlContent"`
	GameLink    string    `firestore:"gameLink"`
	UploadedBy  string    `firestore:"uploadedBy"`
	Timestamp   time.Time `firestore:"timestamp"`
	Approved    bool      `firestore:"approved"`
}

// GameRepository persists catalog entries in the shared public namespace.
type GameRepository struct {
	base *pfirestore.BaseRepository[domain.Game]
}

var _ repositories.GameRepository = (*GameRepository)(nil)

// NewGameRepository constructs a Firestore-backed game repository scoped to the application namespace.
func NewGameRepository(provider *pfirestore.Provider, appID string) (*GameRepository, error) {
	if provider == nil {
		return nil, errors.New("game repository: firestore provider is required")
	}
	if strings.TrimSpace(appID) == "" {
		return nil, errors.New("game repository: app id is required")
	}

	encoder := func(ctx context.Context, value domain.Game) (any, error) {
		return encodeGameDocument(value), nil
	}
	decoder := func(ctx context.Context, snap *firestore.DocumentSnapshot) (domain.Game, error) {
		var doc gameDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.Game{}, err
		}
		if doc.Timestamp.IsZero() {
			doc.Timestamp = snap.CreateTime
		}
		return decodeGameDocument(snap.Ref.ID, doc), nil
	}

	base := pfirestore.NewBaseRepository[domain.Game](provider, publicDataPath(appID, gamesCollection), encoder, decoder)
	return &GameRepository{base: base}, nil
}

// Create stores a new entry and returns the Firestore assigned document ID.
func (r *GameRepository) Create(ctx context.Context, game domain.Game) (string, error) {
	if r == nil || r.base == nil {
		return "", errors.New("game repository not initialised")
	}
	id, _, err := r.base.Create(ctx, game)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Set replaces the entry stored under the given ID.
func (r *GameRepository) Set(ctx context.Context, id string, game domain.Game) error {
	if r == nil || r.base == nil {
		return errors.New("game repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("game repository: id is required")
	}
	_, err := r.base.Set(ctx, id, game)
	return err
}

// Get loads a single entry by its identifier.
func (r *GameRepository) Get(ctx context.Context, id string) (domain.Game, error) {
	if r == nil || r.base == nil {
		return domain.Game{}, errors.New("game repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return domain.Game{}, errors.New("game repository: id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Game{}, err
	}
	return doc.Data, nil
}

// List returns entries matching the filter, newest first.
func (r *GameRepository) List(ctx context.Context, filter repositories.GameListFilter) ([]domain.Game, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("game repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.ApprovedOnly {
			q = q.Where("approved", "==", true)
		}
		return q.OrderBy("timestamp", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	games := make([]domain.Game, 0, len(docs))
	for _, doc := range docs {
		games = append(games, doc.Data)
	}
	return games, nil
}

// UpdateApproval flips only the approved flag, leaving the rest of the document intact.
func (r *GameRepository) UpdateApproval(ctx context.Context, id string, approved bool) error {
	if r == nil || r.base == nil {
		return errors.New("game repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("game repository: id is required")
	}
	_, err := r.base.Update(ctx, id, []firestore.Update{{Path: "approved", Value: approved}})
	return err
}

// Delete removes the entry. Missing documents are not an error.
func (r *GameRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.base == nil {
		return errors.New("game repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("game repository: id is required")
	}
	return r.base.Delete(ctx, id)
}

// Watch opens a snapshot listener over the whole collection. Every event
// carries the full current result set.
func (r *GameRepository) Watch(ctx context.Context) (<-chan pfirestore.WatchEvent[domain.Game], error) {
	if r == nil || r.base == nil {
		return nil, errors.New("game repository not initialised")
	}
	return r.base.Watch(ctx, nil)
}

func encodeGameDocument(game domain.Game) gameDocument {
	return gameDocument{
		Name:        strings.TrimSpace(game.Name),
		Image:       strings.TrimSpace(game.Image),
		Price:       strings.TrimSpace(game.Price),
		Genre:       strings.TrimSpace(game.Genre),
		HTMLContent: game.HTMLContent,
		GameLink:    strings.TrimSpace(game.GameLink),
		UploadedBy:  strings.TrimSpace(game.UploadedBy),
		Timestamp:   game.Timestamp,
		Approved:    game.Approved,
	}
}

func decodeGameDocument(id string, doc gameDocument) domain.Game {
	return domain.Game{
		ID:          id,
		Name:        doc.Name,
		Image:       doc.Image,
		Price:       doc.Price,
		Genre:       doc.Genre,
		HTMLContent: doc.HTMLContent,
		GameLink:    doc.GameLink,
		UploadedBy:  doc.UploadedBy,
		Timestamp:   doc.Timestamp,
		Approved:    doc.Approved,
	}
}
