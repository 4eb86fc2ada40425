package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

// Shimmer animation for the TELLER logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "T E L L E R" as a flowing wave of green light,
// deep forest green (#1a3a24) to bright emerald (#4ade80).
func renderShimmerLogo(frame int) string {
	const text = "TELLER"
	n := len(text)

	var out string
	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)

		// Slow breathing tide
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		r := clampByte(26 + b*(74-26))
		g := clampByte(58 + b*(222-58))
		bl := clampByte(36 + b*(128-36))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)
		out += lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color)).
			Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}

	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	// Money
	balanceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	incomingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	outgoingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0944a"))

	// Errors and fraud
	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#facc15"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D4A017"))

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8890a0")).
				Bold(true)

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474"))

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))
)

// statusStyle colors a transaction status. Statuses the client does not know
// are shown in the neutral style.
func statusStyle(s domain.TransactionStatus) lipgloss.Style {
	switch s {
	case domain.StatusCompleted:
		return successStyle
	case domain.StatusPending:
		return warnStyle
	case domain.StatusFailed:
		return rejectStyle
	default:
		return normalStyle
	}
}

// renderError renders a store error on one line, tagged by kind.
func renderError(err *store.Error) string {
	if err == nil {
		return ""
	}
	label := "error"
	switch err.Kind {
	case store.KindValidation:
		return warnStyle.Render(err.Message)
	case store.KindAuthorization:
		label = "signed out"
	case store.KindGateway:
		label = "ledger unavailable"
	}
	return rejectStyle.Render(label+": ") + normalStyle.Render(err.Message)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins help entries the way every view's footer does.
func helpBar(entries ...string) string {
	return " " + strings.Join(entries, "  ")
}

// helpView renders the help overlay: the CLI commands that mirror the TUI.
func helpView() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80")).
		Bold(true).
		Render("T E L L E R")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	commands := []struct{ cmd, desc string }{
		{"teller", "Open the interactive TUI"},
		{"teller login", "Sign in"},
		{"teller register", "Create an identity"},
		{"teller logout", "Clear your session"},
		{"teller account", "Show or create your account"},
		{"teller deposit <amount>", "Deposit into your account"},
		{"teller transfer <to> <amt>", "Send money"},
		{"teller transactions", "List your history"},
		{"teller admin ...", "Users, transactions, fraud review"},
	}
	keys := []struct{ key, desc string }{
		{"1-5", "switch view"},
		{"r", "refresh"},
		{"L", "log out"},
		{"q", "quit"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n", title)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Commands"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-28s", c.cmd)), descStyle.Render(c.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Keys"))
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-28s", k.key)), descStyle.Render(k.desc))
	}
	return b.String()
}
