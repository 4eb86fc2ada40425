package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/internal/ledgertest"
	"github.com/naveenspark/teller/internal/session"
	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

type harness struct {
	ledger   *ledgertest.Ledger
	bus      *event.Bus
	session  *session.Session
	api      *client.Client
	sessions *SessionStore
	accounts *AccountStore
	txns     *TransactionStore
	admin    *AdminStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{ledger: ledgertest.New(t), bus: event.NewBus()}
	h.session = session.New(session.NewMemoryStorage(), h.bus, nil)
	h.api = client.New(h.ledger.URL(), client.WithCredentials(h.session), client.WithTimeout(5*time.Second))
	h.sessions = NewSessionStore(h.session, h.api, nil)
	h.accounts = NewAccountStore(h.api, nil)
	h.txns = NewTransactionStore(h.api, h.bus, nil)
	h.admin = NewAdminStore(h.api, nil)
	return h
}

// signIn establishes a session for email without going through /auth/login.
func (h *harness) signIn(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	token := h.ledger.Token(email)
	if err := h.session.Establish(token, domain.Identity{Email: email, Role: role}); err != nil {
		t.Fatalf("Establish() error: %v", err)
	}
	return token
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func wantKind(t *testing.T, err error, k Kind) {
	t.Helper()
	if !IsKind(err, k) {
		t.Errorf("error = %v (%T), want kind %v", err, err, k)
	}
}
