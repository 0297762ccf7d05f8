package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	domain "github.com/cosmichub/api/internal/domain"
	pfirestore "github.com/cosmichub/api/internal/platform/firestore"
	"github.com/cosmichub/api/internal/repositories"
)

// ErrNotConnected signals that the database handle never materialised and the
// service is running in degraded mode.
var ErrNotConnected = errors.New("not connected to the database")

// ErrFeedAlreadyStarted is returned when Start is called twice.
var ErrFeedAlreadyStarted = errors.New("catalog feed: already started")

// CatalogFeedDeps groups constructor parameters for the catalog feed.
type CatalogFeedDeps struct {
	Repository repositories.GameRepository
	Notifier   *Notifier
	Logger     *zap.Logger
}

type catalogFeed struct {
	repo     repositories.GameRepository
	notifier *Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	games     []domain.Game
	loading   bool
	connected bool
	lastErr   string
	started   bool
	released  bool

	cancel      context.CancelFunc
	releaseOnce sync.Once
}

// NewCatalogFeed constructs the feed. A nil repository puts the feed in
// degraded mode: Start fails with ErrNotConnected and Snapshot reports a
// disconnected, non-loading state.
func NewCatalogFeed(deps CatalogFeedDeps) CatalogFeed {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogFeed{
		repo:     deps.Repository,
		notifier: deps.Notifier,
		logger:   logger,
		loading:  deps.Repository != nil,
	}
}

// Start opens the single standing subscription. It may be called exactly once.
func (f *catalogFeed) Start(ctx context.Context) error {
	if f.repo == nil {
		return ErrNotConnected
	}

	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrFeedAlreadyStarted
	}
	if f.released {
		f.mu.Unlock()
		return errors.New("catalog feed: released")
	}
	f.started = true
	f.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)

	events, err := f.repo.Watch(watchCtx)
	if err != nil {
		cancel()
		f.mu.Lock()
		f.started = false
		f.loading = false
		f.lastErr = err.Error()
		f.mu.Unlock()
		return err
	}

	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	go f.prime(watchCtx)
	go f.consume(events)
	return nil
}

// prime serves an initial read while the first snapshot is still in flight.
// A snapshot that lands first wins; the primed list is then stale and dropped.
func (f *catalogFeed) prime(ctx context.Context) {
	games, err := f.repo.List(ctx, repositories.GameListFilter{})
	if err != nil {
		f.logger.Debug("catalog prime read failed; waiting for snapshot", zap.Error(err))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released || !f.loading {
		return
	}
	f.games = games
	f.loading = false
	f.connected = true
}

func (f *catalogFeed) consume(events <-chan pfirestore.WatchEvent[domain.Game]) {
	for event := range events {
		f.mu.Lock()
		if f.released {
			// A released feed must treat late callbacks as no-ops.
			f.mu.Unlock()
			continue
		}

		if event.Err != nil {
			f.loading = false
			f.lastErr = event.Err.Error()
			f.mu.Unlock()

			f.logger.Warn("catalog subscription error", zap.Error(event.Err))
			if f.notifier != nil {
				f.notifier.Publish("Error loading games: "+event.Err.Error(), domain.SeverityError)
			}
			continue
		}

		games := make([]domain.Game, 0, len(event.Docs))
		for _, doc := range event.Docs {
			games = append(games, doc.Data)
		}
		f.games = games
		f.loading = false
		f.connected = true
		f.lastErr = ""
		f.mu.Unlock()
	}
}

// Snapshot returns the last delivered list and the feed status. Subscription
// errors leave the previous list in place.
func (f *catalogFeed) Snapshot() ([]domain.Game, FeedStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()

	games := append([]domain.Game(nil), f.games...)
	return games, FeedStatus{
		Loading:   f.loading,
		Connected: f.connected,
		LastError: f.lastErr,
	}
}

// Release tears the subscription down exactly once.
func (f *catalogFeed) Release() {
	f.releaseOnce.Do(func() {
		f.mu.Lock()
		f.released = true
		cancel := f.cancel
		f.cancel = nil
		f.mu.Unlock()

		if cancel != nil {
			cancel()
		}
	})
}
