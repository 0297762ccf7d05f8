package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// TokenMinter mints identity-provider custom tokens for a generated uid.
type TokenMinter interface {
	CustomToken(ctx context.Context, uid string) (string, error)
}

// SessionServiceDeps groups constructor parameters for the session service.
type SessionServiceDeps struct {
	Minter TokenMinter
	// InitialAuthToken, when set, is handed out verbatim instead of minting.
	// It mirrors a pre-provisioned token supplied by the hosting environment.
	InitialAuthToken string
	IDGenerator      func() string
}

type sessionService struct {
	minter       TokenMinter
	initialToken string
	idGen        func() string
}

// NewSessionService constructs the anonymous session bootstrapper. A nil
// minter without a pre-provisioned token puts the service in degraded mode.
func NewSessionService(deps SessionServiceDeps) SessionService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	return &sessionService{
		minter:       deps.Minter,
		initialToken: strings.TrimSpace(deps.InitialAuthToken),
		idGen:        idGen,
	}
}

func (s *sessionService) StartSession(ctx context.Context) (Session, error) {
	uid := s.idGen()

	if s.initialToken != "" {
		return Session{UID: uid, CustomToken: s.initialToken, Anonymous: true}, nil
	}
	if s.minter == nil {
		return Session{}, ErrNotConnected
	}

	token, err := s.minter.CustomToken(ctx, uid)
	if err != nil {
		return Session{}, fmt.Errorf("session service: mint token: %w", err)
	}
	return Session{UID: uid, CustomToken: token, Anonymous: true}, nil
}
