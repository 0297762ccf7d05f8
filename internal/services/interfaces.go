package services

import (
	"context"

	domain "github.com/cosmichub/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Game               = domain.Game
	StaticPage         = domain.StaticPage
	Severity           = domain.Severity
	SystemHealthReport = domain.SystemHealthReport
)

// GameInput carries the caller-supplied fields for a catalog submission or an
// admin upsert. Approved is honoured only on the admin path.
type GameInput struct {
	Name        string
	Image       string
	Price       string
	Genre       string
	HTMLContent string
	GameLink    string
	Approved    bool
}

// GameService is the mutation gateway for catalog entries.
type GameService interface {
	SubmitGame(ctx context.Context, uploaderID string, input GameInput) (Game, error)
	AdminUpsertGame(ctx context.Context, uploaderID string, existingID string, input GameInput) (Game, error)
	ApproveGame(ctx context.Context, id string) error
	DeleteGame(ctx context.Context, id string, confirmation string) error
	GetGame(ctx context.Context, id string) (Game, error)
}

// PageService reads and edits the fixed static pages.
type PageService interface {
	GetPage(ctx context.Context, id domain.PageID) (StaticPage, error)
	UpsertPage(ctx context.Context, id domain.PageID, content string) error
}

// Session is an identity handle issued to a visitor. The token is a Firebase
// custom token the client exchanges for an ID token.
type Session struct {
	UID         string
	CustomToken string
	Anonymous   bool
}

// SessionService bootstraps visitor identity sessions.
type SessionService interface {
	StartSession(ctx context.Context) (Session, error)
}

// FeedStatus reports the live subscription's current condition alongside data.
type FeedStatus struct {
	Loading   bool
	Connected bool
	LastError string
}

// CatalogFeed owns the single standing subscription over the games collection.
type CatalogFeed interface {
	Start(ctx context.Context) error
	Snapshot() ([]Game, FeedStatus)
	Release()
}

// SystemService aggregates health reporting for the readiness endpoint.
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}
