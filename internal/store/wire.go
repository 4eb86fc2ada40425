package store

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/internal/session"
	"github.com/naveenspark/teller/pkg/client"
)

// Wire makes accounts re-fetch whenever a transfer publishes BalanceStale.
// The fetch runs on its own goroutine since bus handlers must not block; its
// result shows up through the store's state and OnChange hook. ctx bounds the
// fetches. The returned function unsubscribes.
func Wire(ctx context.Context, bus *event.Bus, accounts *AccountStore) (unwire func()) {
	return bus.Subscribe(func(e event.Event) {
		if e.Kind != event.BalanceStale {
			return
		}
		go accounts.FetchAccount(ctx)
	})
}

// Resetter is a store whose data can be dropped.
type Resetter interface {
	Reset()
}

// ResetOnSignOut clears stores when the session ends, so the next user never
// sees the previous user's account or history.
func ResetOnSignOut(bus *event.Bus, stores ...Resetter) (unwire func()) {
	return bus.Subscribe(func(e event.Event) {
		if e.Kind != event.SessionEnded {
			return
		}
		for _, s := range stores {
			s.Reset()
		}
	})
}

// Stores bundles the stores of one client process around a shared bus.
type Stores struct {
	Bus          *event.Bus
	Sessions     *SessionStore
	Accounts     *AccountStore
	Transactions *TransactionStore
	Admin        *AdminStore
}

// NewStores builds every store on top of one session and gateway client.
func NewStores(s *session.Session, api *client.Client, bus *event.Bus, logger *log.Logger) *Stores {
	return &Stores{
		Bus:          bus,
		Sessions:     NewSessionStore(s, api, logger),
		Accounts:     NewAccountStore(api, logger),
		Transactions: NewTransactionStore(api, bus, logger),
		Admin:        NewAdminStore(api, logger),
	}
}

// Start subscribes the cross-store reactions: balance refresh after a
// transfer, and reset of all user data on sign-out. The returned function
// unsubscribes both.
func (s *Stores) Start(ctx context.Context) (stop func()) {
	unwire := Wire(ctx, s.Bus, s.Accounts)
	unreset := ResetOnSignOut(s.Bus, s.Accounts, s.Transactions, s.Admin)
	return func() {
		unwire()
		unreset()
	}
}
