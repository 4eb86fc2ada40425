package session

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/pkg/domain"
)

var alice = domain.Identity{ID: "1", Email: "alice@example.com", Role: domain.RoleUser}

func countEvents(bus *event.Bus, kind event.Kind) *atomic.Int32 {
	var n atomic.Int32
	bus.Subscribe(func(e event.Event) {
		if e.Kind == kind {
			n.Add(1)
		}
	})
	return &n
}

func TestEstablish(t *testing.T) {
	store := NewMemoryStorage()
	bus := event.NewBus()
	started := countEvents(bus, event.SessionStarted)
	s := New(store, bus, nil)

	if err := s.BeginAuth(); err != nil {
		t.Fatalf("BeginAuth() error: %v", err)
	}
	if s.Status() != Authenticating {
		t.Errorf("Status() = %v, want authenticating", s.Status())
	}
	if err := s.Establish("tok", alice); err != nil {
		t.Fatalf("Establish() error: %v", err)
	}

	if !s.IsAuthenticated() {
		t.Error("IsAuthenticated() = false, want true")
	}
	if s.Token() != "tok" {
		t.Errorf("Token() = %q, want %q", s.Token(), "tok")
	}
	if id, ok := s.Identity(); !ok || id.Email != "alice@example.com" {
		t.Errorf("Identity() = %+v, %v", id, ok)
	}
	if got := started.Load(); got != 1 {
		t.Errorf("SessionStarted events = %d, want 1", got)
	}
	if store.Len() != 2 {
		t.Errorf("stored keys = %d, want 2", store.Len())
	}
}

func TestBeginAuth_AlreadySignedIn(t *testing.T) {
	s := New(NewMemoryStorage(), nil, nil)
	s.Establish("tok", alice) //nolint:errcheck
	if err := s.BeginAuth(); !errors.Is(err, ErrAlreadyAuthenticated) {
		t.Errorf("BeginAuth() = %v, want ErrAlreadyAuthenticated", err)
	}
}

func TestAbortAuth(t *testing.T) {
	s := New(NewMemoryStorage(), nil, nil)
	s.BeginAuth() //nolint:errcheck
	if err := s.BeginAuth(); !errors.Is(err, ErrAuthInProgress) {
		t.Errorf("second BeginAuth() = %v, want ErrAuthInProgress", err)
	}
	s.AbortAuth()
	if s.Status() != Anonymous {
		t.Errorf("Status() = %v, want anonymous", s.Status())
	}
	if s.Token() != "" {
		t.Errorf("Token() = %q, want empty", s.Token())
	}
}

func TestRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	first := New(NewFileStorage(path), nil, nil)
	if err := first.Establish("tok", domain.Identity{ID: "9", Email: "root@example.com", Role: domain.RoleAdmin}); err != nil {
		t.Fatal(err)
	}

	// A fresh process reads the same file.
	second := New(NewFileStorage(path), nil, nil)
	if got := second.Restore(); got != Authenticated {
		t.Fatalf("Restore() = %v, want authenticated", got)
	}
	if second.Token() != "tok" {
		t.Errorf("Token() = %q, want %q", second.Token(), "tok")
	}
	if second.Role() != domain.RoleAdmin {
		t.Errorf("Role() = %q, want ADMIN", second.Role())
	}
}

func TestLogoutThenRestore(t *testing.T) {
	store := NewMemoryStorage()
	s := New(store, nil, nil)
	s.Establish("tok", alice) //nolint:errcheck
	s.Clear()

	restored := New(store, nil, nil)
	if got := restored.Restore(); got != Anonymous {
		t.Errorf("Restore() after logout = %v, want anonymous", got)
	}
	if restored.Token() != "" {
		t.Errorf("Token() = %q, want empty", restored.Token())
	}
}

func TestRestore_Incomplete(t *testing.T) {
	tests := []struct {
		name string
		seed map[string]string
	}{
		{"token only", map[string]string{"token": "tok"}},
		{"user only", map[string]string{"user": `{"email":"alice@example.com"}`}},
		{"bad json", map[string]string{"token": "tok", "user": "{"}},
		{"no email", map[string]string{"token": "tok", "user": `{"role":"USER"}`}},
		{"empty token", map[string]string{"token": "", "user": `{"email":"alice@example.com"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStorage()
			for k, v := range tt.seed {
				store.Set(k, v) //nolint:errcheck
			}
			s := New(store, nil, nil)
			if got := s.Restore(); got != Anonymous {
				t.Errorf("Restore() = %v, want anonymous", got)
			}
			if store.Len() != 0 {
				t.Errorf("stored keys = %d, want 0 (partial record discarded)", store.Len())
			}
		})
	}
}

func TestRestore_UnknownRoleIsUser(t *testing.T) {
	store := NewMemoryStorage()
	store.Set("token", "tok")                                            //nolint:errcheck
	store.Set("user", `{"email":"alice@example.com","role":"SUPERUSER"}`) //nolint:errcheck
	s := New(store, nil, nil)
	s.Restore()
	if s.Role() != domain.RoleUser {
		t.Errorf("Role() = %q, want USER", s.Role())
	}
}

func TestClear_Idempotent(t *testing.T) {
	bus := event.NewBus()
	ended := countEvents(bus, event.SessionEnded)
	s := New(NewMemoryStorage(), bus, nil)
	s.Establish("tok", alice) //nolint:errcheck

	s.Clear()
	s.Clear()
	if got := ended.Load(); got != 1 {
		t.Errorf("SessionEnded events = %d, want 1", got)
	}
	if s.Status() != Anonymous {
		t.Errorf("Status() = %v, want anonymous", s.Status())
	}
}

func TestInvalidate_ConcurrentOnce(t *testing.T) {
	bus := event.NewBus()
	var mu sync.Mutex
	var reasons []string
	bus.Subscribe(func(e event.Event) {
		if e.Kind == event.SessionEnded {
			mu.Lock()
			reasons = append(reasons, e.Reason)
			mu.Unlock()
		}
	})
	store := NewMemoryStorage()
	s := New(store, bus, nil)
	s.Establish("tok", alice) //nolint:errcheck

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Invalidate("token expired")
		}()
	}
	wg.Wait()

	if len(reasons) != 1 {
		t.Fatalf("SessionEnded events = %d, want 1", len(reasons))
	}
	if reasons[0] != "token expired" {
		t.Errorf("Reason = %q, want %q", reasons[0], "token expired")
	}
	if s.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after Invalidate")
	}
	if store.Len() != 0 {
		t.Errorf("stored keys = %d, want 0", store.Len())
	}
}

func TestInvalidate_WhileAuthenticatingIsNoop(t *testing.T) {
	s := New(NewMemoryStorage(), nil, nil)
	s.BeginAuth() //nolint:errcheck
	s.Invalidate("bad credentials")
	if s.Status() != Authenticating {
		t.Errorf("Status() = %v, want authenticating", s.Status())
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatal(err)
	}

	s := New(NewMemoryStorage(), nil, nil)
	s.Establish(token, alice) //nolint:errcheck
	if got := s.ExpiresAt(); !got.Equal(exp) {
		t.Errorf("ExpiresAt() = %v, want %v", got, exp)
	}

	opaque := New(NewMemoryStorage(), nil, nil)
	opaque.Establish("not-a-jwt", alice) //nolint:errcheck
	if got := opaque.ExpiresAt(); !got.IsZero() {
		t.Errorf("ExpiresAt() for opaque token = %v, want zero", got)
	}
}
