package store

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

// TransactionAPI is the part of the gateway the transaction store uses.
type TransactionAPI interface {
	Transfer(ctx context.Context, toAccount string, amount decimal.Decimal) (*client.Envelope[*domain.Transaction], error)
	ListTransactions(ctx context.Context) (*client.Envelope[[]domain.Transaction], error)
}

// TransactionStore owns the user's transaction history, newest first.
type TransactionStore struct {
	core[[]domain.Transaction]
	api TransactionAPI
	bus *event.Bus
	log *log.Logger
}

// NewTransactionStore creates a transaction store. Successful transfers are
// announced on bus as BalanceStale.
func NewTransactionStore(api TransactionAPI, bus *event.Bus, logger *log.Logger) *TransactionStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TransactionStore{api: api, bus: bus, log: logger.WithPrefix("transactions")}
}

// State returns a snapshot. The slice is a copy.
func (s *TransactionStore) State() RequestState[[]domain.Transaction] {
	st := s.snapshot()
	st.Data = slices.Clone(st.Data)
	return st
}

// Recent returns up to n of the newest transactions.
func (s *TransactionStore) Recent(n int) []domain.Transaction {
	st := s.snapshot()
	n = min(max(n, 0), len(st.Data))
	return slices.Clone(st.Data[:n])
}

// FetchTransactions replaces the local history with the ledger's. Nothing is
// merged: a prepended transfer that the ledger also returns appears once.
func (s *TransactionStore) FetchTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.begin()
	env, err := s.api.ListTransactions(ctx)
	if err != nil {
		return nil, s.failWith(Normalize(err))
	}
	if !env.Success {
		return nil, s.failWith(applicationError(env.Message, "could not load transactions", env))
	}
	txns := env.Data
	if txns == nil {
		txns = []domain.Transaction{}
	}
	s.settle(func(st *RequestState[[]domain.Transaction]) { st.Data = txns })
	return slices.Clone(txns), nil
}

// TransferMoney sends amount to toAccount. The ledger's transaction is put at
// the front of the history and BalanceStale is published; the balance itself
// is never adjusted here.
func (s *TransactionStore) TransferMoney(ctx context.Context, toAccount string, amount decimal.Decimal) (*domain.Transaction, error) {
	toAccount = strings.TrimSpace(toAccount)
	if toAccount == "" {
		e := validationError("recipient account is required")
		s.reject(e)
		return nil, e
	}
	if err := domain.ValidateAmount(amount); err != nil {
		e := validationError("transfer amount must be greater than zero")
		s.reject(e)
		return nil, e
	}

	s.begin()
	env, err := s.api.Transfer(ctx, toAccount, amount)
	if err != nil {
		return nil, s.failWith(Normalize(err))
	}
	if !env.Success {
		return nil, s.failWith(applicationError(env.Message, "transfer failed", env))
	}
	// Without the ledger's transaction there is nothing to put in the history.
	if env.Data == nil {
		return nil, s.failWith(applicationError("", "transfer failed: the ledger returned no transaction", env))
	}

	txn := *env.Data
	s.settle(func(st *RequestState[[]domain.Transaction]) {
		st.Data = append([]domain.Transaction{txn}, st.Data...)
	})
	s.log.Info("transfer settled", "to", toAccount, "amount", amount.StringFixed(2))
	s.bus.Publish(event.Event{Kind: event.BalanceStale, Reason: "transfer"})

	return &txn, nil
}

func (s *TransactionStore) failWith(e *Error) *Error {
	s.log.Warn("transaction request failed", "kind", e.Kind, "msg", e.Message)
	s.fail(e)
	return e
}
