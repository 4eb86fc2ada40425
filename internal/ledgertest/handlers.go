package ledgertest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/pkg/domain"
)

// Wire shapes. Money goes out as JSON numbers, like the real service.

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type accountJSON struct {
	AccountNumber string      `json:"accountNumber"`
	UserName      string      `json:"userName"`
	Balance       json.Number `json:"balance"`
}

type transactionJSON struct {
	ID            int64       `json:"id"`
	FromAccount   string      `json:"fromAccount"`
	ToAccount     string      `json:"toAccount"`
	Amount        json.Number `json:"amount"`
	Timestamp     string      `json:"timestamp"`
	Status        string      `json:"status"`
	IsFraud       *bool       `json:"isFraud"`
	FraudReason   *string     `json:"fraudReason"`
	FraudDecision *string     `json:"fraudDecision"`
}

type userJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, envelope{Success: false, Message: msg})
}

type userKey struct{}

func withUser(r *http.Request, u *user) context.Context {
	return context.WithValue(r.Context(), userKey{}, u)
}

func currentUser(r *http.Request) *user {
	u, _ := r.Context().Value(userKey{}).(*user)
	return u
}

func toAccountJSON(a *account) accountJSON {
	return accountJSON{AccountNumber: a.number, UserName: a.owner.name, Balance: json.Number(a.balance.StringFixed(2))}
}

func toTransactionJSON(t *txn, withFraud bool) transactionJSON {
	out := transactionJSON{
		ID:          t.id,
		FromAccount: t.from,
		ToAccount:   t.to,
		Amount:      json.Number(t.amount.StringFixed(2)),
		Timestamp:   t.at.Format(timeLayout),
		Status:      string(t.status),
	}
	if withFraud {
		fraud := t.fraud
		out.IsFraud = &fraud
		if t.reason != "" {
			reason := t.reason
			out.FraudReason = &reason
		}
		if t.decision != "" {
			d := string(t.decision)
			out.FraudDecision = &d
		}
	}
	return out
}

// accountOf must be called with l.mu held.
func (l *Ledger) accountOf(u *user) *account {
	for _, a := range l.accounts {
		if a.owner == u {
			return a
		}
	}
	return nil
}

// --- /auth ---

func (l *Ledger) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "malformed request")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.users[req.Email]; exists {
		fail(w, http.StatusBadRequest, "Email already exists")
		return
	}
	u := l.addUser(req.Name, req.Email, req.Password, domain.ParseRole(req.Role))
	writeJSON(w, http.StatusCreated, envelope{
		Success: true,
		Message: "User registered successfully",
		Data:    userJSON{ID: u.id, Name: u.name, Email: u.email, Role: string(u.role)},
	})
}

func (l *Ledger) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "malformed request")
		return
	}
	l.mu.Lock()
	u, ok := l.users[req.Email]
	l.mu.Unlock()
	if !ok || u.password != req.Password {
		fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":  sign(u),
		"email":  u.email,
		"role":   string(u.role),
		"userId": u.id,
	})
}

// --- /user ---

func (l *Ledger) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.accountOf(u) != nil {
		fail(w, http.StatusBadRequest, "User already has an account")
		return
	}
	l.nextAcct++
	a := &account{number: fmt.Sprintf("ACC%d", l.nextAcct), owner: u, balance: decimal.Zero}
	l.accounts[a.number] = a
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Account created successfully", Data: toAccountJSON(a)})
}

func (l *Ledger) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accountOf(u)
	if a == nil {
		fail(w, http.StatusNotFound, "Account not found. Please create an account first.")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Account retrieved successfully", Data: toAccountJSON(a)})
}

func (l *Ledger) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "malformed request")
		return
	}
	u := currentUser(r)
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accountOf(u)
	if a == nil {
		fail(w, http.StatusBadRequest, "Account not found. Please create an account first.")
		return
	}
	if req.Amount.Sign() <= 0 {
		fail(w, http.StatusBadRequest, "Deposit amount must be positive")
		return
	}
	a.balance = a.balance.Add(req.Amount)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Deposit completed successfully", Data: toAccountJSON(a)})
}

func (l *Ledger) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ToAccount string          `json:"toAccount"`
		Amount    decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "malformed request")
		return
	}
	u := currentUser(r)
	l.mu.Lock()
	defer l.mu.Unlock()
	from := l.accountOf(u)
	switch {
	case from == nil:
		fail(w, http.StatusBadRequest, "Account not found. Please create an account first.")
		return
	case req.Amount.Sign() <= 0:
		fail(w, http.StatusBadRequest, "Transfer amount must be positive")
		return
	case req.ToAccount == from.number:
		fail(w, http.StatusBadRequest, "Cannot transfer to the same account")
		return
	}
	to, ok := l.accounts[req.ToAccount]
	if !ok {
		fail(w, http.StatusBadRequest, "Recipient account not found")
		return
	}
	if from.balance.LessThan(req.Amount) {
		fail(w, http.StatusBadRequest, "Insufficient balance")
		return
	}

	from.balance = from.balance.Sub(req.Amount)
	to.balance = to.balance.Add(req.Amount)
	l.nextID++
	t := &txn{
		id:     l.nextID,
		from:   from.number,
		to:     to.number,
		amount: req.Amount,
		status: domain.StatusCompleted,
		at:     time.Now(),
	}
	if req.Amount.GreaterThan(FraudThreshold) {
		t.fraud = true
		t.reason = fmt.Sprintf("Transaction amount (%s) exceeds %s", req.Amount.StringFixed(2), FraudThreshold)
	}
	l.txns = append(l.txns, t)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Transfer completed successfully", Data: toTransactionJSON(t, false)})
}

func (l *Ledger) handleTransactions(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.accountOf(u)
	out := []transactionJSON{}
	if a != nil {
		for _, t := range slices.Backward(l.txns) {
			if t.from == a.number || t.to == a.number {
				out = append(out, toTransactionJSON(t, false))
			}
		}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Transactions retrieved successfully", Data: out})
}

// --- /admin ---

func (l *Ledger) handleUsers(w http.ResponseWriter, _ *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]userJSON, 0, len(l.users))
	for _, u := range l.users {
		out = append(out, userJSON{ID: u.id, Name: u.name, Email: u.email, Role: string(u.role)})
	}
	slices.SortFunc(out, func(a, b userJSON) int { return int(a.ID - b.ID) })
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Users retrieved successfully", Data: out})
}

func (l *Ledger) handleAllTransactions(w http.ResponseWriter, _ *http.Request) {
	l.writeTransactions(w, func(*txn) bool { return true })
}

func (l *Ledger) handleFraudTransactions(w http.ResponseWriter, _ *http.Request) {
	l.writeTransactions(w, func(t *txn) bool { return t.fraud })
}

func (l *Ledger) writeTransactions(w http.ResponseWriter, keep func(*txn) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []transactionJSON{}
	for _, t := range slices.Backward(l.txns) {
		if keep(t) {
			out = append(out, toTransactionJSON(t, true))
		}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Transactions retrieved successfully", Data: out})
}

func (l *Ledger) handleDecision(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var req struct {
		Decision domain.FraudDecision `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Decision.Valid() {
		fail(w, http.StatusBadRequest, "decision must be SAFE or CONFIRMED_FRAUD")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.txns {
		if t.id == id {
			t.decision = req.Decision
			if req.Decision == domain.DecisionConfirmedFraud {
				t.status = domain.StatusFailed
			}
			writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Fraud decision recorded"})
			return
		}
	}
	fail(w, http.StatusNotFound, "Transaction not found")
}
