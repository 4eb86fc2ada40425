// Package session owns the authentication token and identity of the running
// client. A Session is created once per process and injected wherever the token
// is read (the gateway) or the authentication state is consulted (the gate).
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/pkg/domain"
)

// Storage keys.
const (
	keyToken = "token"
	keyUser  = "user"
)

// Status is the authentication state.
type Status int

const (
	Anonymous Status = iota
	Authenticating
	Authenticated
)

func (s Status) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ErrAlreadyAuthenticated is returned by BeginAuth when a session is active.
var ErrAlreadyAuthenticated = errors.New("already signed in")

// ErrAuthInProgress is returned by BeginAuth while another login is pending.
var ErrAuthInProgress = errors.New("sign-in already in progress")

// Session holds the token and identity. Token and identity are both set
// exactly when the status is Authenticated.
type Session struct {
	mu        sync.Mutex
	status    Status
	token     string
	identity  domain.Identity
	expiresAt time.Time

	storage Storage
	bus     *event.Bus
	log     *log.Logger
}

// New creates an anonymous session backed by storage. Call Restore to pick up
// a previously persisted session.
func New(storage Storage, bus *event.Bus, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{
		storage: storage,
		bus:     bus,
		log:     logger.WithPrefix("session"),
	}
}

// Token returns the bearer token, or "" when not authenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns the signed-in identity.
func (s *Session) Identity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.status == Authenticated
}

// Status returns the current authentication state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsAuthenticated reports whether a token and identity are held.
func (s *Session) IsAuthenticated() bool {
	return s.Status() == Authenticated
}

// Role returns the identity's role, or "" when anonymous.
func (s *Session) Role() domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Authenticated {
		return ""
	}
	return s.identity.Role
}

// ExpiresAt returns the token's exp claim, read without verifying the
// signature. Zero when unknown. Display only; the ledger decides validity.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// BeginAuth moves Anonymous to Authenticating.
func (s *Session) BeginAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.status {
	case Authenticated:
		return ErrAlreadyAuthenticated
	case Authenticating:
		return ErrAuthInProgress
	}
	s.status = Authenticating
	return nil
}

// AbortAuth returns a failed sign-in to Anonymous.
func (s *Session) AbortAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Authenticating {
		s.status = Anonymous
	}
}

// Establish stores token and identity in memory and in durable storage, and
// marks the session Authenticated. A storage failure leaves the in-memory
// session intact and is returned so the caller can report it.
func (s *Session) Establish(token string, id domain.Identity) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	user, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("session: encode identity: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.identity = id
	s.expiresAt = tokenExpiry(token)
	s.status = Authenticated
	var persistErr error
	if err := s.storage.Set(keyToken, token); err != nil {
		persistErr = err
	} else if err := s.storage.Set(keyUser, string(user)); err != nil {
		persistErr = err
	}
	s.mu.Unlock()

	s.log.Info("signed in", "email", id.Email, "role", id.Role)
	s.bus.Publish(event.Event{Kind: event.SessionStarted})
	if persistErr != nil {
		return fmt.Errorf("session: persist: %w", persistErr)
	}
	return nil
}

// Clear signs out: token and identity are removed from memory and durable
// storage. Safe to call repeatedly.
func (s *Session) Clear() {
	s.end("logout", true)
}

// Invalidate is the forced sign-out path taken when the ledger rejects the
// token. Only the first call for an Authenticated session has any effect, so
// concurrent 401s produce a single transition and a single SessionEnded event.
func (s *Session) Invalidate(reason string) {
	if reason == "" {
		reason = "unauthorized"
	}
	s.end(reason, false)
}

func (s *Session) end(reason string, always bool) {
	s.mu.Lock()
	wasAuthenticated := s.status == Authenticated
	if !wasAuthenticated && !always {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.identity = domain.Identity{}
	s.expiresAt = time.Time{}
	if s.status == Authenticated {
		s.status = Anonymous
	}
	err := s.storage.Delete(keyToken, keyUser)
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("could not clear stored session", "err", err)
	}
	if wasAuthenticated {
		s.log.Info("signed out", "reason", reason)
		s.bus.Publish(event.Event{Kind: event.SessionEnded, Reason: reason})
	}
}

// Restore reads durable storage once at start-up. A stored token marks the
// session Authenticated without a network round-trip; the first 401 corrects
// that. A token without a readable identity, or the reverse, is discarded.
func (s *Session) Restore() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != Anonymous {
		return s.status
	}

	token, hasToken, err := s.storage.Get(keyToken)
	if err != nil {
		s.log.Warn("could not read stored session", "err", err)
		return s.status
	}
	user, hasUser, err := s.storage.Get(keyUser)
	if err != nil {
		s.log.Warn("could not read stored identity", "err", err)
		return s.status
	}
	if !hasToken && !hasUser {
		return s.status
	}

	var id domain.Identity
	if token == "" || !hasUser || json.Unmarshal([]byte(user), &id) != nil || id.Email == "" {
		s.log.Warn("discarding incomplete stored session")
		if err := s.storage.Delete(keyToken, keyUser); err != nil {
			s.log.Warn("could not clear stored session", "err", err)
		}
		return s.status
	}
	id.Role = domain.ParseRole(string(id.Role))

	s.token = token
	s.identity = id
	s.expiresAt = tokenExpiry(token)
	s.status = Authenticated
	s.log.Debug("restored session", "email", id.Email)
	return s.status
}

func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
