package services

import (
	"errors"
	"strings"
	"sync"

	domain "github.com/cosmichub/api/internal/domain"
)

// ErrAdminPasswordMismatch is returned when a login attempt fails. The gate
// stays logged out and no attempt counter is kept.
var ErrAdminPasswordMismatch = errors.New("admin gate: incorrect password")

// ErrAdminPasswordUnset is returned when the gate was constructed without a password.
var ErrAdminPasswordUnset = errors.New("admin gate: no password configured")

// AdminGate is the two-state moderation console gate. It is a plaintext
// string-equality check with no persistence and no lockout. This mirrors the
// original behaviour deliberately; real authorization belongs in backend
// rules, not here.
type AdminGate struct {
	mu       sync.Mutex
	password string
	loggedIn bool
	notifier *Notifier
}

// NewAdminGate constructs the gate with the configured password. The notifier
// is optional; when present, mismatches publish an error notification.
func NewAdminGate(password string, notifier *Notifier) *AdminGate {
	return &AdminGate{
		password: password,
		notifier: notifier,
	}
}

// Login transitions LoggedOut to LoggedIn when the supplied password matches
// exactly. Any other string leaves the gate logged out.
func (g *AdminGate) Login(password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if strings.TrimSpace(g.password) == "" {
		return ErrAdminPasswordUnset
	}
	if password != g.password {
		if g.notifier != nil {
			g.notifier.Publish("Incorrect password.", domain.SeverityError)
		}
		return ErrAdminPasswordMismatch
	}

	g.loggedIn = true
	return nil
}

// Logout returns the gate to LoggedOut.
func (g *AdminGate) Logout() {
	g.mu.Lock()
	g.loggedIn = false
	g.mu.Unlock()
}

// LoggedIn reports the current state.
func (g *AdminGate) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedIn
}
