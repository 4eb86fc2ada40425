// Package store holds the client-side state for the signed-in user: session,
// account, transaction history and the admin views. Each store owns its data,
// talks to the ledger through the gateway client and reports every failure as
// an *Error.
package store

import (
	"context"
	"sync"

	"github.com/naveenspark/teller/pkg/client"
	"github.com/naveenspark/teller/pkg/domain"
)

// RequestState is the snapshot every store exposes. Data keeps its last good
// value when a request fails.
type RequestState[T any] struct {
	Data    T
	Pending bool
	Err     *Error
}

// core tracks one RequestState. The mutex guards memory only and is never held
// across a gateway call, so overlapping requests are not serialized: whichever
// settles last writes last.
type core[T any] struct {
	mu       sync.Mutex
	state    RequestState[T]
	inflight int
	onChange func()
}

func (c *core[T]) begin() {
	c.mu.Lock()
	c.inflight++
	c.state.Pending = true
	c.state.Err = nil
	c.mu.Unlock()
	c.notify()
}

// settle finishes one in-flight request and applies its outcome.
func (c *core[T]) settle(apply func(*RequestState[T])) {
	c.mu.Lock()
	if c.inflight > 0 {
		c.inflight--
	}
	apply(&c.state)
	c.state.Pending = c.inflight > 0
	c.mu.Unlock()
	c.notify()
}

func (c *core[T]) fail(err *Error) {
	c.settle(func(s *RequestState[T]) { s.Err = err })
}

// reject records a validation failure without touching the in-flight count.
func (c *core[T]) reject(err *Error) {
	c.mu.Lock()
	c.state.Err = err
	c.mu.Unlock()
	c.notify()
}

func (c *core[T]) snapshot() RequestState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ClearError drops the current error, e.g. when the user dismisses it.
func (c *core[T]) ClearError() {
	c.mu.Lock()
	c.state.Err = nil
	c.mu.Unlock()
	c.notify()
}

// Reset drops data and error. Requests still in flight keep Pending set and
// apply their result when they settle.
func (c *core[T]) Reset() {
	c.mu.Lock()
	var zero T
	c.state.Data = zero
	c.state.Err = nil
	c.state.Pending = c.inflight > 0
	c.mu.Unlock()
	c.notify()
}

// OnChange registers fn to run after every state change. fn runs on the
// goroutine that changed the state and must not block.
func (c *core[T]) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *core[T]) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// AuthAPI is the part of the gateway the session store uses.
type AuthAPI interface {
	Register(ctx context.Context, p domain.Profile) (*client.Ack, error)
	Login(ctx context.Context, creds domain.Credentials) (*client.LoginResponse, error)
}

// Compile-time checks that the gateway client satisfies every store's needs.
var (
	_ AuthAPI        = (*client.Client)(nil)
	_ AccountAPI     = (*client.Client)(nil)
	_ TransactionAPI = (*client.Client)(nil)
	_ AdminAPI       = (*client.Client)(nil)
)
