package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/cosmichub/api/internal/domain"
	"github.com/cosmichub/api/internal/repositories"
)

// DeleteConfirmationPhrase is the literal phrase the caller must echo back
// before a delete is issued. This gate is independent of the admin password.
const DeleteConfirmationPhrase = "confirm"

// ErrDeleteNotConfirmed signals that a delete request lacked the confirmation phrase.
var ErrDeleteNotConfirmed = errors.New("game service: delete not confirmed")

// GameValidationError reports which required submission fields are missing.
// Validation happens before any write is attempted.
type GameValidationError struct {
	Missing []string
}

func (e *GameValidationError) Error() string {
	return "game service: missing required fields: " + strings.Join(e.Missing, ", ")
}

// IsGameValidationError reports whether err is a submission validation failure.
func IsGameValidationError(err error) bool {
	var target *GameValidationError
	return errors.As(err, &target)
}

// GameServiceDeps groups constructor parameters for the game service.
type GameServiceDeps struct {
	Repository repositories.GameRepository
	Notifier   *Notifier
	Clock      func() time.Time
}

type gameService struct {
	repo     repositories.GameRepository
	notifier *Notifier
	clock    func() time.Time
}

// NewGameService constructs the mutation gateway for catalog entries. A nil
// repository is allowed and puts the service in degraded mode where every
// operation fails with ErrNotConnected.
func NewGameService(deps GameServiceDeps) GameService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &gameService{
		repo:     deps.Repository,
		notifier: deps.Notifier,
		clock:    func() time.Time { return clock().UTC() },
	}
}

func validateGameInput(input GameInput) error {
	var missing []string
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(input.Image) == "" {
		missing = append(missing, "image")
	}
	if strings.TrimSpace(input.Price) == "" {
		missing = append(missing, "price")
	}
	if strings.TrimSpace(input.Genre) == "" {
		missing = append(missing, "genre")
	}
	if strings.TrimSpace(input.HTMLContent) == "" && strings.TrimSpace(input.GameLink) == "" {
		missing = append(missing, "htmlContent or gameLink")
	}
	if len(missing) > 0 {
		return &GameValidationError{Missing: missing}
	}
	return nil
}

func (s *gameService) SubmitGame(ctx context.Context, uploaderID string, input GameInput) (Game, error) {
	if s.repo == nil {
		s.notifyError(ErrNotConnected)
		return Game{}, ErrNotConnected
	}
	if err := validateGameInput(input); err != nil {
		return Game{}, err
	}

	game := domain.Game{
		Name:        input.Name,
		Image:       input.Image,
		Price:       input.Price,
		Genre:       input.Genre,
		HTMLContent: input.HTMLContent,
		GameLink:    input.GameLink,
		UploadedBy:  uploaderID,
		Timestamp:   s.clock(),
		// Public submissions always enter the moderation queue.
		Approved: false,
	}

	id, err := s.repo.Create(ctx, game)
	if err != nil {
		s.notifyError(err)
		return Game{}, fmt.Errorf("game service: submit: %w", err)
	}
	game.ID = id
	s.notify("Game submitted for approval.", domain.SeveritySuccess)
	return game, nil
}

func (s *gameService) AdminUpsertGame(ctx context.Context, uploaderID string, existingID string, input GameInput) (Game, error) {
	if s.repo == nil {
		s.notifyError(ErrNotConnected)
		return Game{}, ErrNotConnected
	}
	if err := validateGameInput(input); err != nil {
		return Game{}, err
	}

	game := domain.Game{
		Name:        input.Name,
		Image:       input.Image,
		Price:       input.Price,
		Genre:       input.Genre,
		HTMLContent: input.HTMLContent,
		GameLink:    input.GameLink,
		UploadedBy:  uploaderID,
		Timestamp:   s.clock(),
		Approved:    input.Approved,
	}

	if existingID == "" {
		id, err := s.repo.Create(ctx, game)
		if err != nil {
			s.notifyError(err)
			return Game{}, fmt.Errorf("game service: admin create: %w", err)
		}
		game.ID = id
		s.notify("Game created.", domain.SeveritySuccess)
		return game, nil
	}

	game.ID = existingID
	if err := s.repo.Set(ctx, existingID, game); err != nil {
		s.notifyError(err)
		return Game{}, fmt.Errorf("game service: admin update: %w", err)
	}
	s.notify("Game updated.", domain.SeveritySuccess)
	return game, nil
}

func (s *gameService) ApproveGame(ctx context.Context, id string) error {
	if s.repo == nil {
		s.notifyError(ErrNotConnected)
		return ErrNotConnected
	}
	if err := s.repo.UpdateApproval(ctx, id, true); err != nil {
		s.notifyError(err)
		return fmt.Errorf("game service: approve: %w", err)
	}
	s.notify("Game approved.", domain.SeveritySuccess)
	return nil
}

func (s *gameService) DeleteGame(ctx context.Context, id string, confirmation string) error {
	if strings.TrimSpace(confirmation) != DeleteConfirmationPhrase {
		return ErrDeleteNotConfirmed
	}
	if s.repo == nil {
		s.notifyError(ErrNotConnected)
		return ErrNotConnected
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.notifyError(err)
		return fmt.Errorf("game service: delete: %w", err)
	}
	s.notify("Game deleted.", domain.SeveritySuccess)
	return nil
}

func (s *gameService) GetGame(ctx context.Context, id string) (Game, error) {
	if s.repo == nil {
		return Game{}, ErrNotConnected
	}
	game, err := s.repo.Get(ctx, id)
	if err != nil {
		return Game{}, fmt.Errorf("game service: get: %w", err)
	}
	return game, nil
}

func (s *gameService) notify(text string, severity domain.Severity) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(text, severity)
}

func (s *gameService) notifyError(err error) {
	if s.notifier == nil || err == nil {
		return
	}
	s.notifier.Publish("Error: "+err.Error(), domain.SeverityError)
}
