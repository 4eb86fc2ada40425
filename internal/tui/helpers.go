package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/naveenspark/teller/pkg/domain"
)

// formatTime renders a relative timestamp for history rows.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// signedAmount renders an amount as seen from accountNumber: "-" for money
// leaving the account, "+" otherwise. width pads before styling.
func signedAmount(t domain.Transaction, accountNumber string, width int) string {
	if t.Outgoing(accountNumber) {
		return outgoingStyle.Render(padRight("-"+domain.FormatMoney(t.Amount), width))
	}
	return incomingStyle.Render(padRight("+"+domain.FormatMoney(t.Amount), width))
}

// counterparty names the other side of t as seen from accountNumber.
func counterparty(t domain.Transaction, accountNumber string) string {
	if t.Outgoing(accountNumber) {
		return "to " + t.ToAccount
	}
	return "from " + t.FromAccount
}

// renderTransactionRow renders a history row relative to accountNumber.
func renderTransactionRow(t domain.Transaction, accountNumber string) string {
	return fmt.Sprintf(" %s  %s  %s  %s",
		metaStyle.Render(padRight(formatTime(t.Timestamp.Time), 9)),
		signedAmount(t, accountNumber, 12),
		normalStyle.Render(padRight(truncStr(counterparty(t, accountNumber), 24), 24)),
		statusStyle(t.Status).Render(string(t.Status)),
	)
}
