package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/teller/internal/store"
)

type transactionsModel struct {
	stores *store.Stores
	cursor int
	height int
}

func newTransactionsModel(s *store.Stores) transactionsModel {
	return transactionsModel{stores: s}
}

func (m transactionsModel) Init() tea.Cmd {
	cmds := []tea.Cmd{fetchTransactionsCmd(m.stores.Transactions)}
	if m.stores.Accounts.State().Data == nil {
		cmds = append(cmds, fetchAccountCmd(m.stores.Accounts))
	}
	return tea.Batch(cmds...)
}

func (m transactionsModel) Update(msg tea.Msg) (transactionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case transactionsLoadedMsg:
		m.cursor = 0
	case tea.KeyMsg:
		n := len(m.stores.Transactions.State().Data)
		switch msg.String() {
		case "j", "down":
			if m.cursor < n-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "g":
			m.cursor = 0
		case "r":
			return m, m.Init()
		}
	}
	return m, nil
}

func (m transactionsModel) View() string {
	var b strings.Builder
	st := m.stores.Transactions.State()
	number := ""
	if acct := m.stores.Accounts.State().Data; acct != nil {
		number = acct.AccountNumber
	}

	fmt.Fprintf(&b, " %s %s\n\n", sectionHeaderStyle.Render("Transactions"), metaStyle.Render(fmt.Sprintf("(%d)", len(st.Data))))
	if st.Err != nil {
		b.WriteString(" " + renderError(st.Err) + "\n")
	}
	if len(st.Data) == 0 {
		if st.Pending {
			b.WriteString(" " + dimStyle.Render("loading...") + "\n")
		} else if st.Err == nil {
			b.WriteString(" " + dimStyle.Render("no transactions yet") + "\n")
		}
		return b.String()
	}

	// Keep the cursor on screen: header takes 2 lines.
	visible := m.height - 3
	if visible < 1 {
		visible = len(st.Data)
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(st.Data))

	for i := start; i < end; i++ {
		row := renderTransactionRow(st.Data[i], number)
		if i == m.cursor {
			row = accentStyle.Render(">") + row[1:]
		}
		b.WriteString(row + "\n")
	}
	if st.Pending {
		b.WriteString(" " + dimStyle.Render("refreshing..."))
	}
	return b.String()
}
