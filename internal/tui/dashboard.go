package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

// recentCount is how many transactions the dashboard shows.
const recentCount = 5

// navigateMsg asks the App to move to path. The gate has the final say.
type navigateMsg struct {
	path    string
	deposit bool // open the deposit input on arrival
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path} }
}

type accountLoadedMsg struct {
	err error
}

type transactionsLoadedMsg struct {
	err error
}

func fetchAccountCmd(s *store.AccountStore) tea.Cmd {
	return func() tea.Msg {
		_, err := s.FetchAccount(context.Background())
		return accountLoadedMsg{err: err}
	}
}

func fetchTransactionsCmd(s *store.TransactionStore) tea.Cmd {
	return func() tea.Msg {
		_, err := s.FetchTransactions(context.Background())
		return transactionsLoadedMsg{err: err}
	}
}

type dashboardModel struct {
	stores *store.Stores
	width  int
}

func newDashboardModel(s *store.Stores) dashboardModel {
	return dashboardModel{stores: s}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(fetchAccountCmd(m.stores.Accounts), fetchTransactionsCmd(m.stores.Transactions))
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "d":
			return m, func() tea.Msg { return navigateMsg{path: gate.Account, deposit: true} }
		case "t":
			return m, navigate(gate.Transfer)
		case "c":
			if m.stores.Accounts.State().Data == nil {
				return m, navigate(gate.Account)
			}
		case "r":
			return m, m.Init()
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var b strings.Builder

	name := ""
	if id, ok := m.stores.Sessions.Session().Identity(); ok {
		name = id.Name()
	}
	fmt.Fprintf(&b, " %s %s\n\n", dimStyle.Render("Welcome,"), selectedStyle.Render(name))

	acct := m.stores.Accounts.State()
	number := ""
	switch {
	case acct.Data != nil:
		number = acct.Data.AccountNumber
		fmt.Fprintf(&b, " %s  %s  %s\n",
			metaStyle.Render("Balance"),
			balanceStyle.Render(domain.FormatMoney(acct.Data.Balance)),
			dimStyle.Render("account "+number))
	case acct.Pending:
		b.WriteString(" " + dimStyle.Render("loading account...") + "\n")
	case acct.Err != nil:
		b.WriteString(" " + renderError(acct.Err) + "\n")
	default:
		b.WriteString(" " + dimStyle.Render("No account yet.") + "\n")
	}
	if acct.Data != nil && acct.Err != nil {
		b.WriteString(" " + renderError(acct.Err) + "\n")
	}

	actions := []string{helpEntry("d", "deposit"), helpEntry("t", "transfer")}
	if acct.Data == nil && !acct.Pending {
		actions = append(actions, helpEntry("c", "open account"))
	}
	fmt.Fprintf(&b, "\n %s  %s\n\n", sectionHeaderStyle.Render("Quick actions"), strings.Join(actions, "   "))

	b.WriteString(" " + sectionHeaderStyle.Render("Recent transactions") + "\n")
	txns := m.stores.Transactions.State()
	recent := m.stores.Transactions.Recent(recentCount)
	switch {
	case len(recent) > 0:
		for _, t := range recent {
			b.WriteString(renderTransactionRow(t, number) + "\n")
		}
	case txns.Pending:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	case txns.Err == nil:
		b.WriteString(" " + dimStyle.Render("no transactions yet") + "\n")
	}
	if txns.Err != nil {
		b.WriteString(" " + renderError(txns.Err) + "\n")
	}
	return b.String()
}
