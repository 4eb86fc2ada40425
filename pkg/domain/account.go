package domain

import "github.com/shopspring/decimal"

// Account is the single bank account owned by the signed-in user.
type Account struct {
	AccountNumber string          `json:"accountNumber"`
	OwnerName     string          `json:"userName"`
	Balance       decimal.Decimal `json:"balance"`
}

// FormatMoney renders an amount with two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
