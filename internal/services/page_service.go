package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/repositories"
)

// ErrUnknownPage signals a page identifier outside the fixed enumerated set.
var ErrUnknownPage = errors.New("page service: unknown page id")

// PageServiceDeps groups constructor parameters for the static page service.
type PageServiceDeps struct {
	Repository repositories.StaticPageRepository
	Notifier   *Notifier
}

type pageService struct {
	repo     repositories.StaticPageRepository
	notifier *Notifier
}

// NewPageService constructs the static page service. A nil repository puts the
// service in degraded mode where edits fail with ErrNotConnected.
func NewPageService(deps PageServiceDeps) PageService {
	return &pageService{repo: deps.Repository, notifier: deps.Notifier}
}

// GetPage loads a static page. Pages are lazily created on first save, so a
// missing document reads as empty content rather than an error.
func (s *pageService) GetPage(ctx context.Context, id domain.PageID) (StaticPage, error) {
	if !domain.ValidPageID(string(id)) {
		return StaticPage{}, ErrUnknownPage
	}
	if s.repo == nil {
		return StaticPage{}, ErrNotConnected
	}
	page, err := s.repo.Get(ctx, id)
	if err != nil {
		if isPageRepositoryNotFound(err) {
			return StaticPage{ID: id}, nil
		}
		return StaticPage{}, fmt.Errorf("page service: get: %w", err)
	}
	return page, nil
}

// UpsertPage replaces the page's content, creating the document if absent.
func (s *pageService) UpsertPage(ctx context.Context, id domain.PageID, content string) error {
	if !domain.ValidPageID(string(id)) {
		return ErrUnknownPage
	}
	if s.repo == nil {
		s.notifyError(ErrNotConnected)
		return ErrNotConnected
	}
	if err := s.repo.Upsert(ctx, id, content); err != nil {
		s.notifyError(err)
		return fmt.Errorf("page service: upsert: %w", err)
	}
	s.notify("Page updated.", domain.SeveritySuccess)
	return nil
}

func (s *pageService) notify(text string, severity domain.Severity) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(text, severity)
}

func (s *pageService) notifyError(err error) {
	if s.notifier == nil || err == nil {
		return
	}
	s.notifier.Publish("Error: "+err.Error(), domain.SeverityError)
}

func isPageRepositoryNotFound(err error) bool {
	if err == nil {
		return false
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
