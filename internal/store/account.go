package store

import (
	"context"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

// AccountAPI is the part of the gateway the account store uses.
type AccountAPI interface {
	CreateAccount(ctx context.Context) (*client.Envelope[*domain.Account], error)
	GetAccount(ctx context.Context) (*client.Envelope[*domain.Account], error)
	Deposit(ctx context.Context, amount decimal.Decimal) (*client.Envelope[*domain.Account], error)
}

// AccountStore owns the signed-in user's single account. The balance only
// ever changes to a value the ledger returned.
type AccountStore struct {
	core[*domain.Account]
	api AccountAPI
	log *log.Logger
}

// NewAccountStore creates an account store with no account loaded.
func NewAccountStore(api AccountAPI, logger *log.Logger) *AccountStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AccountStore{api: api, log: logger.WithPrefix("accounts")}
}

// State returns a snapshot. Data is nil when the user has no account.
func (s *AccountStore) State() RequestState[*domain.Account] {
	st := s.snapshot()
	if st.Data != nil {
		acct := *st.Data
		st.Data = &acct
	}
	return st
}

// CreateAccount opens the user's account. The ledger rejects a second one.
func (s *AccountStore) CreateAccount(ctx context.Context) (*domain.Account, error) {
	s.begin()
	env, err := s.api.CreateAccount(ctx)
	if err != nil {
		return nil, s.failWith(Normalize(err))
	}
	if !env.Success || env.Data == nil {
		return nil, s.failWith(applicationError(env.Message, "could not create account", env))
	}
	s.log.Info("account created", "account", env.Data.AccountNumber)
	return s.store(env.Data), nil
}

// FetchAccount loads the user's account. Having no account is not an error:
// the call succeeds with a nil account.
func (s *AccountStore) FetchAccount(ctx context.Context) (*domain.Account, error) {
	s.begin()
	env, err := s.api.GetAccount(ctx)
	if client.IsStatus(err, http.StatusNotFound) {
		s.log.Debug("no account yet")
		s.store(nil)
		return nil, nil
	}
	if err != nil {
		return nil, s.failWith(Normalize(err))
	}
	if !env.Success {
		return nil, s.failWith(applicationError(env.Message, "could not load account", env))
	}
	return s.store(env.Data), nil
}

// Deposit credits the account and stores the ledger's post-deposit snapshot.
// Non-positive amounts are rejected without contacting the ledger.
func (s *AccountStore) Deposit(ctx context.Context, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		e := validationError("deposit amount must be greater than zero")
		s.reject(e)
		return nil, e
	}

	s.begin()
	env, err := s.api.Deposit(ctx, amount)
	if err != nil {
		return nil, s.failWith(Normalize(err))
	}
	if !env.Success || env.Data == nil {
		return nil, s.failWith(applicationError(env.Message, "deposit failed", env))
	}
	s.log.Info("deposit settled", "account", env.Data.AccountNumber, "amount", amount.StringFixed(2))
	return s.store(env.Data), nil
}

func (s *AccountStore) store(acct *domain.Account) *domain.Account {
	s.settle(func(st *RequestState[*domain.Account]) { st.Data = acct })
	if acct == nil {
		return nil
	}
	cp := *acct
	return &cp
}

func (s *AccountStore) failWith(e *Error) *Error {
	s.log.Warn("account request failed", "kind", e.Kind, "msg", e.Message)
	s.fail(e)
	return e
}
