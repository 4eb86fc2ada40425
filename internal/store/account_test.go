package store

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

func TestFetchAccount(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "alice@example.com", domain.RoleUser)
	h.ledger.SetAccount("alice@example.com", "A1", money("500"))

	acct, err := h.accounts.FetchAccount(context.Background())
	if err != nil {
		t.Fatalf("FetchAccount() error: %v", err)
	}
	if acct.AccountNumber != "A1" {
		t.Errorf("AccountNumber = %q, want A1", acct.AccountNumber)
	}
	if got := domain.FormatMoney(h.accounts.State().Data.Balance); got != "500.00" {
		t.Errorf("Balance = %s, want 500.00", got)
	}
}

func TestFetchAccount_NoAccount(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "alice@example.com", domain.RoleUser)

	acct, err := h.accounts.FetchAccount(context.Background())
	if err != nil {
		t.Fatalf("FetchAccount() error: %v", err)
	}
	if acct != nil {
		t.Errorf("account = %+v, want nil", acct)
	}
	st := h.accounts.State()
	if st.Data != nil || st.Err != nil || st.Pending {
		t.Errorf("State() = %+v, want empty and settled", st)
	}
}

func TestCreateAccount(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "alice@example.com", domain.RoleUser)

	acct, err := h.accounts.CreateAccount(context.Background())
	if err != nil {
		t.Fatalf("CreateAccount() error: %v", err)
	}
	if acct.AccountNumber == "" {
		t.Fatal("AccountNumber is empty")
	}

	_, err = h.accounts.CreateAccount(context.Background())
	wantKind(t, err, KindApplication)
	st := h.accounts.State()
	if st.Data == nil || st.Data.AccountNumber != acct.AccountNumber {
		t.Errorf("Data = %+v, want the first account kept", st.Data)
	}
	if st.Err == nil || st.Err.Message != "User already has an account" {
		t.Errorf("Err = %v, want server message", st.Err)
	}

	h.accounts.ClearError()
	if h.accounts.State().Err != nil {
		t.Error("ClearError() left the error set")
	}
}

func TestDeposit(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "alice@example.com", domain.RoleUser)
	h.ledger.SetAccount("alice@example.com", "A1", money("100"))

	acct, err := h.accounts.Deposit(context.Background(), money("25.50"))
	if err != nil {
		t.Fatalf("Deposit() error: %v", err)
	}
	if got := domain.FormatMoney(acct.Balance); got != "125.50" {
		t.Errorf("Balance = %s, want 125.50", got)
	}
	if !h.accounts.State().Data.Balance.Equal(h.ledger.Balance("A1")) {
		t.Errorf("store balance %s != ledger balance %s", h.accounts.State().Data.Balance, h.ledger.Balance("A1"))
	}
}

func TestDeposit_RejectsNonPositive(t *testing.T) {
	for _, amount := range []string{"0", "-5", "0.00"} {
		t.Run(amount, func(t *testing.T) {
			h := newHarness(t)
			h.signIn(t, "alice@example.com", domain.RoleUser)

			_, err := h.accounts.Deposit(context.Background(), money(amount))
			wantKind(t, err, KindValidation)
			if n := h.ledger.Calls("POST /user/deposit"); n != 0 {
				t.Errorf("deposit calls = %d, want 0", n)
			}
			if st := h.accounts.State(); st.Err == nil || st.Pending {
				t.Errorf("State() = %+v, want validation error", st)
			}
		})
	}
}

func TestDeposit_FailureKeepsData(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   Kind
	}{
		{"server error", http.StatusInternalServerError, KindGateway},
		{"success false", http.StatusOK, KindApplication},
		{"rejected", http.StatusBadRequest, KindApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.signIn(t, "alice@example.com", domain.RoleUser)
			h.ledger.SetAccount("alice@example.com", "A1", money("100"))
			if _, err := h.accounts.FetchAccount(context.Background()); err != nil {
				t.Fatal(err)
			}

			h.ledger.FailNext("POST /user/deposit", tt.status, "Deposit limit exceeded")
			_, err := h.accounts.Deposit(context.Background(), money("10"))
			wantKind(t, err, tt.kind)

			st := h.accounts.State()
			if st.Err == nil || st.Err.Message != "Deposit limit exceeded" {
				t.Errorf("Err = %v, want server message", st.Err)
			}
			if st.Data == nil || domain.FormatMoney(st.Data.Balance) != "100.00" {
				t.Errorf("Data = %+v, want unchanged 100.00", st.Data)
			}
		})
	}
}

// blockingAccounts answers each GetAccount with whatever is sent on its
// channel, so tests control the order in which requests settle.
type blockingAccounts struct {
	mu      sync.Mutex
	replies []chan *domain.Account
	started chan struct{}
}

func newBlockingAccounts() *blockingAccounts {
	return &blockingAccounts{started: make(chan struct{}, 8)}
}

func (b *blockingAccounts) CreateAccount(context.Context) (*client.Envelope[*domain.Account], error) {
	panic("not used")
}

func (b *blockingAccounts) Deposit(context.Context, decimal.Decimal) (*client.Envelope[*domain.Account], error) {
	panic("not used")
}

func (b *blockingAccounts) GetAccount(context.Context) (*client.Envelope[*domain.Account], error) {
	ch := make(chan *domain.Account)
	b.mu.Lock()
	b.replies = append(b.replies, ch)
	b.mu.Unlock()
	b.started <- struct{}{}
	return &client.Envelope[*domain.Account]{Success: true, Data: <-ch}, nil
}

func (b *blockingAccounts) reply(i int, acct *domain.Account) {
	b.mu.Lock()
	ch := b.replies[i]
	b.mu.Unlock()
	ch <- acct
}

func TestOverlappingRequests_LastSettleWins(t *testing.T) {
	api := newBlockingAccounts()
	s := NewAccountStore(api, nil)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.FetchAccount(context.Background()) //nolint:errcheck
		}()
		<-api.started
	}
	if !s.State().Pending {
		t.Fatal("Pending = false with two requests in flight")
	}

	// The second request settles first; the first one settles last and wins.
	api.reply(1, &domain.Account{AccountNumber: "A1", Balance: money("2")})
	waitFor(t, "first settle", func() bool {
		return s.State().Data != nil
	})
	if !s.State().Pending {
		t.Error("Pending = false while one request is still in flight")
	}
	api.reply(0, &domain.Account{AccountNumber: "A1", Balance: money("1")})
	wg.Wait()

	st := s.State()
	if st.Pending {
		t.Error("Pending = true after both settled")
	}
	if got := domain.FormatMoney(st.Data.Balance); got != "1.00" {
		t.Errorf("Balance = %s, want 1.00 (last to settle)", got)
	}
}

func TestStateIsACopy(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "alice@example.com", domain.RoleUser)
	h.ledger.SetAccount("alice@example.com", "A1", money("100"))
	h.accounts.FetchAccount(context.Background()) //nolint:errcheck

	snap := h.accounts.State()
	snap.Data.Balance = money("999")
	if got := domain.FormatMoney(h.accounts.State().Data.Balance); got != "100.00" {
		t.Errorf("Balance = %s after mutating a snapshot, want 100.00", got)
	}
}
