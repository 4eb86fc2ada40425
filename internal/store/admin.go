package store

import (
	"context"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

// AdminAPI is the part of the gateway the admin store uses.
type AdminAPI interface {
	ListUsers(ctx context.Context) (*client.Envelope[[]domain.User], error)
	ListAllTransactions(ctx context.Context) (*client.Envelope[[]domain.Transaction], error)
	ListFraudTransactions(ctx context.Context) (*client.Envelope[[]domain.Transaction], error)
	DecideFraud(ctx context.Context, id domain.ID, decision domain.FraudDecision) (*client.Ack, error)
}

// Overview is everything the admin view shows.
type Overview struct {
	Users        []domain.User
	Transactions []domain.Transaction
	Fraud        []domain.Transaction
}

func (o *Overview) clone() *Overview {
	if o == nil {
		return nil
	}
	return &Overview{
		Users:        slices.Clone(o.Users),
		Transactions: slices.Clone(o.Transactions),
		Fraud:        slices.Clone(o.Fraud),
	}
}

// AdminStore holds the administrator's view of the ledger.
type AdminStore struct {
	core[*Overview]
	api AdminAPI
	log *log.Logger
}

// NewAdminStore creates an admin store.
func NewAdminStore(api AdminAPI, logger *log.Logger) *AdminStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AdminStore{api: api, log: logger.WithPrefix("admin")}
}

// State returns a snapshot.
func (s *AdminStore) State() RequestState[*Overview] {
	st := s.snapshot()
	st.Data = st.Data.clone()
	return st
}

// FraudQueue returns flagged transactions that still need a decision.
func (s *AdminStore) FraudQueue() []domain.Transaction {
	st := s.snapshot()
	if st.Data == nil {
		return nil
	}
	var out []domain.Transaction
	for _, t := range st.Data.Fraud {
		if t.AwaitingDecision() {
			out = append(out, t)
		}
	}
	return out
}

// Load fetches users, all transactions and flagged transactions in parallel.
// Either all three land or the previous overview is kept.
func (s *AdminStore) Load(ctx context.Context) (*Overview, error) {
	s.begin()
	ov, err := s.load(ctx)
	if err != nil {
		return nil, s.failWith(err)
	}
	s.settle(func(st *RequestState[*Overview]) { st.Data = ov })
	return ov.clone(), nil
}

func (s *AdminStore) load(ctx context.Context) (*Overview, *Error) {
	var (
		users *client.Envelope[[]domain.User]
		all   *client.Envelope[[]domain.Transaction]
		fraud *client.Envelope[[]domain.Transaction]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.api.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.api.ListAllTransactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fraud, err = s.api.ListFraudTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, Normalize(err)
	}

	switch {
	case !users.Success:
		return nil, applicationError(users.Message, "could not load users", users)
	case !all.Success:
		return nil, applicationError(all.Message, "could not load transactions", all)
	case !fraud.Success:
		return nil, applicationError(fraud.Message, "could not load flagged transactions", fraud)
	}
	return &Overview{Users: users.Data, Transactions: all.Data, Fraud: fraud.Data}, nil
}

// Decide records a fraud decision and reloads the overview so the ledger's
// updated fields are shown.
func (s *AdminStore) Decide(ctx context.Context, id domain.ID, decision domain.FraudDecision) error {
	if id == "" {
		e := validationError("transaction id is required")
		s.reject(e)
		return e
	}
	if !decision.Valid() {
		e := validationError("decision must be SAFE or CONFIRMED_FRAUD")
		s.reject(e)
		return e
	}

	s.begin()
	ack, err := s.api.DecideFraud(ctx, id, decision)
	if err != nil {
		return s.failWith(Normalize(err))
	}
	if ack.Failed() {
		return s.failWith(applicationError(ack.Message, "could not record decision", ack))
	}
	s.log.Info("fraud decision recorded", "transaction", id, "decision", decision)
	s.settle(func(*RequestState[*Overview]) {})

	if _, err := s.Load(ctx); err != nil {
		return err
	}
	return nil
}

func (s *AdminStore) failWith(e *Error) *Error {
	s.log.Warn("admin request failed", "kind", e.Kind, "msg", e.Message)
	s.fail(e)
	return e
}
