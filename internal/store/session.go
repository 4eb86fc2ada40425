package store

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/naveenspark/teller/internal/session"
	"github.com/naveenspark/teller/pkg/domain"
)

// SessionStore drives login, registration and logout. The token and identity
// themselves live in the session.Session it wraps.
type SessionStore struct {
	core[*domain.Identity]
	session *session.Session
	api     AuthAPI
	log     *log.Logger
}

// NewSessionStore creates a session store.
func NewSessionStore(s *session.Session, api AuthAPI, logger *log.Logger) *SessionStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SessionStore{session: s, api: api, log: logger.WithPrefix("session-store")}
}

// Session returns the underlying session.
func (s *SessionStore) Session() *session.Session {
	return s.session
}

// State returns a snapshot. Data is the signed-in identity, or nil.
func (s *SessionStore) State() RequestState[*domain.Identity] {
	st := s.snapshot()
	st.Data = nil
	if id, ok := s.session.Identity(); ok {
		st.Data = &id
	}
	return st
}

// Login exchanges credentials for a token and establishes the session. On
// failure the session stays anonymous.
func (s *SessionStore) Login(ctx context.Context, creds domain.Credentials) (domain.Identity, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		e := validationError("email and password are required")
		s.reject(e)
		return domain.Identity{}, e
	}
	if err := s.session.BeginAuth(); err != nil {
		msg := "a sign-in is already in progress"
		if errors.Is(err, session.ErrAlreadyAuthenticated) {
			msg = "already signed in; log out first"
		}
		e := validationError(msg)
		s.reject(e)
		return domain.Identity{}, e
	}

	s.begin()
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		s.session.AbortAuth()
		e := Normalize(err)
		s.log.Warn("login failed", "email", creds.Email, "kind", e.Kind)
		s.fail(e)
		return domain.Identity{}, e
	}
	if resp.Token == "" {
		s.session.AbortAuth()
		e := applicationError("", "login response carried no token", resp)
		s.fail(e)
		return domain.Identity{}, e
	}

	id := domain.Identity{
		ID:    resp.UserID,
		Email: resp.Email,
		Role:  domain.ParseRole(resp.Role),
	}
	if id.Email == "" {
		id.Email = creds.Email
	}
	if err := s.session.Establish(resp.Token, id); err != nil {
		// The session is usable; it just will not survive a restart.
		s.log.Warn("session not persisted", "err", err)
	}
	s.settle(func(*RequestState[*domain.Identity]) {})
	return id, nil
}

// Register creates a new identity on the ledger. It does not sign in.
func (s *SessionStore) Register(ctx context.Context, p domain.Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	switch {
	case p.Name == "":
		e := validationError("name is required")
		s.reject(e)
		return e
	case p.Email == "" || p.Password == "":
		e := validationError("email and password are required")
		s.reject(e)
		return e
	}
	if p.Role != "" {
		p.Role = domain.ParseRole(string(p.Role))
	}

	s.begin()
	ack, err := s.api.Register(ctx, p)
	if err != nil {
		e := Normalize(err)
		s.fail(e)
		return e
	}
	if ack.Failed() {
		e := applicationError(ack.Message, "registration failed", ack)
		s.fail(e)
		return e
	}
	s.log.Info("registered", "email", p.Email)
	s.settle(func(*RequestState[*domain.Identity]) {})
	return nil
}

// Logout ends the session. Calling it while signed out is a no-op.
func (s *SessionStore) Logout() {
	s.session.Clear()
	s.ClearError()
}

// Restore picks up a persisted session without contacting the ledger.
func (s *SessionStore) Restore() session.Status {
	return s.session.Restore()
}

// IsAuthenticated reports whether a session is active.
func (s *SessionStore) IsAuthenticated() bool {
	return s.session.IsAuthenticated()
}

// Role returns the signed-in role, or "" when anonymous.
func (s *SessionStore) Role() domain.Role {
	return s.session.Role()
}
