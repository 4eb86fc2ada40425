// Package ledgertest runs an in-memory ledger over HTTP for tests. It speaks
// the same JSON as the real service, issues real (HS256) JWTs, and counts
// every request so tests can assert that nothing was sent.
package ledgertest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/pkg/domain"
)

// FraudThreshold is the amount above which transfers are flagged.
var FraudThreshold = decimal.NewFromInt(50000)

const timeLayout = "2006-01-02T15:04:05.000000"

var signingKey = []byte("ledgertest")

// tokenSeq keeps tokens unique even when issued within the same second.
var tokenSeq atomic.Int64

type user struct {
	id       int64
	name     string
	email    string
	password string
	role     domain.Role
}

type account struct {
	number  string
	owner   *user
	balance decimal.Decimal
}

type txn struct {
	id       int64
	from, to string
	amount   decimal.Decimal
	status   domain.TransactionStatus
	fraud    bool
	reason   string
	decision domain.FraudDecision
	at       time.Time
}

type failure struct {
	status  int
	message string
}

// Ledger is a fake ledger service.
type Ledger struct {
	mu       sync.Mutex
	users    map[string]*user // by email
	accounts map[string]*account
	txns     []*txn // oldest first
	revoked  map[string]bool
	nextID   int64
	nextAcct int
	calls    map[string]int
	failures map[string]failure
	srv      *httptest.Server
}

// New starts a ledger that is shut down when the test ends.
func New(t testing.TB) *Ledger {
	t.Helper()
	l := &Ledger{
		users:    map[string]*user{},
		accounts: map[string]*account{},
		revoked:  map[string]bool{},
		calls:    map[string]int{},
		failures: map[string]failure{},
		nextAcct: 1000,
	}
	l.srv = httptest.NewServer(l.routes())
	t.Cleanup(l.srv.Close)
	return l
}

// URL is the base URL to hand to client.New.
func (l *Ledger) URL() string {
	return l.srv.URL
}

func (l *Ledger) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(l.count)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", l.handleRegister)
		r.Post("/login", l.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(l.authenticate)
		r.Route("/user", func(r chi.Router) {
			r.Post("/account", l.handleCreateAccount)
			r.Get("/account", l.handleGetAccount)
			r.Post("/deposit", l.handleDeposit)
			r.Post("/transfer", l.handleTransfer)
			r.Get("/transactions", l.handleTransactions)
		})
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/users", l.handleUsers)
			r.Get("/transactions", l.handleAllTransactions)
			r.Get("/transactions/fraud", l.handleFraudTransactions)
			r.Post("/transactions/{id}/fraud-decision", l.handleDecision)
		})
	})
	return r
}

// --- Fixtures ---

// AddUser registers a user directly.
func (l *Ledger) AddUser(name, email, password string, role domain.Role) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addUser(name, email, password, role)
}

func (l *Ledger) addUser(name, email, password string, role domain.Role) *user {
	l.nextID++
	u := &user{id: l.nextID, name: name, email: email, password: password, role: role}
	l.users[email] = u
	return u
}

// SetAccount gives email's user an account with the given number and balance.
func (l *Ledger) SetAccount(email, number string, balance decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[email]
	if !ok {
		u = l.addUser(email, email, "password", domain.RoleUser)
	}
	l.accounts[number] = &account{number: number, owner: u, balance: balance}
}

// Balance returns the balance of an account, or zero if unknown.
func (l *Ledger) Balance(number string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.accounts[number]; ok {
		return a.balance
	}
	return decimal.Zero
}

// Token issues a token for email without a login request.
func (l *Ledger) Token(email string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[email]
	if !ok {
		u = l.addUser(email, email, "password", domain.RoleUser)
	}
	return sign(u)
}

// Revoke makes the ledger answer 401 to every later request with token.
func (l *Ledger) Revoke(token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[token] = true
}

// FlagFraud marks a transaction as fraudulent.
func (l *Ledger) FlagFraud(id int64, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.txns {
		if t.id == id {
			t.fraud = true
			t.reason = reason
		}
	}
}

// Decision returns the recorded decision for a transaction.
func (l *Ledger) Decision(id int64) domain.FraudDecision {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.txns {
		if t.id == id {
			return t.decision
		}
	}
	return ""
}

// FailNext makes the next request to route ("POST /user/deposit") answer with
// status and message instead of being handled.
func (l *Ledger) FailNext(route string, status int, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[route] = failure{status: status, message: message}
}

// Calls returns how many requests hit route, e.g. "POST /user/deposit".
func (l *Ledger) Calls(route string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[route]
}

// TotalCalls returns how many requests the ledger has seen.
func (l *Ledger) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

// --- Middleware ---

func (l *Ledger) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		l.mu.Lock()
		l.calls[route]++
		f, fail := l.failures[route]
		delete(l.failures, route)
		l.mu.Unlock()
		if fail {
			writeJSON(w, f.status, envelope{Success: false, Message: f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Ledger) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: "Authorization token missing"})
			return
		}
		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
			return signingKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		l.mu.Lock()
		u, known := l.users[claims.Subject]
		revoked := l.revoked[token]
		l.mu.Unlock()
		if err != nil || !known || revoked {
			writeJSON(w, http.StatusUnauthorized, envelope{Message: "Invalid or expired token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r, u)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).role != domain.RoleAdmin {
			writeJSON(w, http.StatusForbidden, envelope{Message: "Access denied"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sign(u *user) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.email,
		ID:        strconv.FormatInt(tokenSeq.Add(1), 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("ledgertest: sign token: %v", err))
	}
	return token
}
