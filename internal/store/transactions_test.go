package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/internal/session"
	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

func TestTransferMoney_RefreshesBalance(t *testing.T) {
	h := newHarness(t)
	h.ledger.SetAccount("bob@example.com", "A2", money("0"))
	h.ledger.SetAccount("alice@example.com", "A1", money("500.00"))
	h.signIn(t, "alice@example.com", domain.RoleUser)
	unwire := Wire(context.Background(), h.bus, h.accounts)
	defer unwire()

	if _, err := h.accounts.FetchAccount(context.Background()); err != nil {
		t.Fatalf("FetchAccount() error: %v", err)
	}
	if _, err := h.txns.FetchTransactions(context.Background()); err != nil {
		t.Fatalf("FetchTransactions() error: %v", err)
	}

	txn, err := h.txns.TransferMoney(context.Background(), "A2", money("100.00"))
	if err != nil {
		t.Fatalf("TransferMoney() error: %v", err)
	}
	if txn.ToAccount != "A2" || txn.FromAccount != "A1" {
		t.Errorf("transaction = %s -> %s, want A1 -> A2", txn.FromAccount, txn.ToAccount)
	}

	list := h.txns.State().Data
	if len(list) != 1 || list[0].ID != txn.ID {
		t.Fatalf("history = %+v, want the transfer first", list)
	}

	waitFor(t, "balance refresh", func() bool {
		st := h.accounts.State()
		return st.Data != nil && domain.FormatMoney(st.Data.Balance) == "400.00"
	})
	if n := h.ledger.Calls("GET /user/account"); n != 2 {
		t.Errorf("account fetches = %d, want 2", n)
	}
}

func TestFetchTransactions_ReplacesPrepended(t *testing.T) {
	h := newHarness(t)
	h.ledger.SetAccount("bob@example.com", "A2", money("0"))
	h.ledger.SetAccount("alice@example.com", "A1", money("500"))
	h.signIn(t, "alice@example.com", domain.RoleUser)

	first, err := h.txns.TransferMoney(context.Background(), "A2", money("10"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.txns.TransferMoney(context.Background(), "A2", money("20"))
	if err != nil {
		t.Fatal(err)
	}
	if got := h.txns.State().Data; len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Fatalf("history = %+v, want newest first", got)
	}

	list, err := h.txns.FetchTransactions(context.Background())
	if err != nil {
		t.Fatalf("FetchTransactions() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2 (no duplicates)", len(list))
	}
	if got := h.txns.Recent(1); len(got) != 1 || got[0].ID != second.ID {
		t.Errorf("Recent(1) = %+v, want the newest transfer", got)
	}
}

func TestTransferMoney_Validation(t *testing.T) {
	tests := []struct {
		name   string
		to     string
		amount string
	}{
		{"no recipient", "", "10"},
		{"blank recipient", "  ", "10"},
		{"zero", "A2", "0"},
		{"negative", "A2", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.signIn(t, "alice@example.com", domain.RoleUser)
			_, err := h.txns.TransferMoney(context.Background(), tt.to, money(tt.amount))
			wantKind(t, err, KindValidation)
			if n := h.ledger.Calls("POST /user/transfer"); n != 0 {
				t.Errorf("transfer calls = %d, want 0", n)
			}
		})
	}
}

func TestTransferMoney_FailureLeavesHistory(t *testing.T) {
	h := newHarness(t)
	h.ledger.SetAccount("bob@example.com", "A2", money("0"))
	h.ledger.SetAccount("alice@example.com", "A1", money("50"))
	h.signIn(t, "alice@example.com", domain.RoleUser)
	if _, err := h.txns.TransferMoney(context.Background(), "A2", money("10")); err != nil {
		t.Fatal(err)
	}

	var stale atomic.Int32
	h.bus.Subscribe(func(e event.Event) {
		if e.Kind == event.BalanceStale {
			stale.Add(1)
		}
	})

	_, err := h.txns.TransferMoney(context.Background(), "A2", money("1000"))
	wantKind(t, err, KindApplication)
	st := h.txns.State()
	if len(st.Data) != 1 {
		t.Errorf("history len = %d, want 1", len(st.Data))
	}
	if st.Err == nil || st.Err.Message != "Insufficient balance" {
		t.Errorf("Err = %v, want %q", st.Err, "Insufficient balance")
	}
	if stale.Load() != 0 {
		t.Error("BalanceStale published for a failed transfer")
	}

	h.txns.ClearError()
	if h.txns.State().Err != nil {
		t.Error("ClearError() left the error set")
	}
}

func TestUnauthorized_EndsSessionOnce(t *testing.T) {
	h := newHarness(t)
	h.ledger.SetAccount("alice@example.com", "A1", money("500"))
	token := h.signIn(t, "alice@example.com", domain.RoleUser)
	h.ledger.Revoke(token)

	var ended atomic.Int32
	h.bus.Subscribe(func(e event.Event) {
		if e.Kind == event.SessionEnded {
			ended.Add(1)
		}
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.accounts.FetchAccount(context.Background())
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := h.txns.FetchTransactions(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		// A request that started after the first 401 carries no token and
		// gets a 401 of its own; both normalize the same way.
		wantKind(t, err, KindAuthorization)
	}
	if got := ended.Load(); got != 1 {
		t.Errorf("SessionEnded events = %d, want 1", got)
	}
	if h.session.Status() != session.Anonymous {
		t.Errorf("Status() = %v, want anonymous", h.session.Status())
	}
	if h.session.Token() != "" {
		t.Error("token kept after 401")
	}
}

func TestResetOnSignOut(t *testing.T) {
	h := newHarness(t)
	h.ledger.SetAccount("bob@example.com", "A2", money("0"))
	h.ledger.SetAccount("alice@example.com", "A1", money("500"))
	h.signIn(t, "alice@example.com", domain.RoleUser)
	unwire := ResetOnSignOut(h.bus, h.accounts, h.txns, h.admin)
	defer unwire()

	h.accounts.FetchAccount(context.Background())                  //nolint:errcheck
	h.txns.TransferMoney(context.Background(), "A2", money("10")) //nolint:errcheck

	h.sessions.Logout()
	if st := h.accounts.State(); st.Data != nil {
		t.Errorf("account after logout = %+v, want nil", st.Data)
	}
	if st := h.txns.State(); len(st.Data) != 0 {
		t.Errorf("history after logout = %+v, want empty", st.Data)
	}
}

// emptyTransferAPI acknowledges every transfer without returning it.
type emptyTransferAPI struct{}

func (emptyTransferAPI) Transfer(context.Context, string, decimal.Decimal) (*client.Envelope[*domain.Transaction], error) {
	return &client.Envelope[*domain.Transaction]{Success: true}, nil
}

func (emptyTransferAPI) ListTransactions(context.Context) (*client.Envelope[[]domain.Transaction], error) {
	return &client.Envelope[[]domain.Transaction]{Success: true}, nil
}

func TestTransferMoney_SuccessWithoutData(t *testing.T) {
	bus := event.NewBus()
	s := NewTransactionStore(emptyTransferAPI{}, bus, nil)

	var stale atomic.Int32
	bus.Subscribe(func(e event.Event) {
		if e.Kind == event.BalanceStale {
			stale.Add(1)
		}
	})

	txn, err := s.TransferMoney(context.Background(), "A2", money("10"))
	if txn != nil {
		t.Errorf("transaction = %+v, want nil", txn)
	}
	wantKind(t, err, KindApplication)

	st := s.State()
	if len(st.Data) != 0 {
		t.Errorf("history = %+v, want empty", st.Data)
	}
	if st.Pending {
		t.Error("Pending still set")
	}
	if st.Err == nil {
		t.Error("Err not set")
	}
	if stale.Load() != 0 {
		t.Error("BalanceStale published without a transaction")
	}
}

func TestRecent_Bounds(t *testing.T) {
	h := newHarness(t)
	h.ledger.SetAccount("bob@example.com", "A2", money("0"))
	h.ledger.SetAccount("alice@example.com", "A1", money("500"))
	h.signIn(t, "alice@example.com", domain.RoleUser)
	for _, amt := range []string{"1", "2"} {
		if _, err := h.txns.TransferMoney(context.Background(), "A2", money(amt)); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		n    int
		want int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 2},
		{10, 2},
	}
	for _, tc := range tests {
		if got := h.txns.Recent(tc.n); len(got) != tc.want {
			t.Errorf("Recent(%d) returned %d, want %d", tc.n, len(got), tc.want)
		}
	}
}
