package domain

import "github.com/shopspring/decimal"

// TransactionStatus is server-defined; the constants below are the ones the
// client knows how to style, anything else is displayed verbatim.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// FraudDecision is an administrator's verdict on a flagged transaction.
type FraudDecision string

const (
	DecisionSafe           FraudDecision = "SAFE"
	DecisionConfirmedFraud FraudDecision = "CONFIRMED_FRAUD"
)

// Valid reports whether d is one of the decisions the ledger accepts.
func (d FraudDecision) Valid() bool {
	return d == DecisionSafe || d == DecisionConfirmedFraud
}

// Transaction is a transfer between two accounts. Fraud fields are only
// populated for administrators.
type Transaction struct {
	ID            ID                `json:"id"`
	FromAccount   string            `json:"fromAccount"`
	ToAccount     string            `json:"toAccount"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        TransactionStatus `json:"status"`
	IsFraud       bool              `json:"isFraud"`
	FraudReason   string            `json:"fraudReason,omitempty"`
	FraudDecision FraudDecision     `json:"fraudDecision,omitempty"`
	Timestamp     Timestamp         `json:"timestamp"`
}

// Outgoing reports whether the transaction debits accountNumber.
func (t Transaction) Outgoing(accountNumber string) bool {
	return accountNumber != "" && t.FromAccount == accountNumber
}

// AwaitingDecision reports whether a flagged transaction still needs review.
func (t Transaction) AwaitingDecision() bool {
	return t.IsFraud && t.FraudDecision == ""
}
