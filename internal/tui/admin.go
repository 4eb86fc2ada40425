package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

type adminSection int

const (
	sectionFraud adminSection = iota
	sectionTransactions
	sectionUsers
)

type adminLoadedMsg struct {
	err error
}

type decisionDoneMsg struct {
	id       domain.ID
	decision domain.FraudDecision
	err      error
}

type adminModel struct {
	admin   *store.AdminStore
	section adminSection
	cursor  int
	// confirm holds the decision awaiting y/n, if any.
	confirm   domain.FraudDecision
	statusMsg string
}

func newAdminModel(s *store.AdminStore) adminModel {
	return adminModel{admin: s}
}

func (m adminModel) Init() tea.Cmd {
	s := m.admin
	return func() tea.Msg {
		_, err := s.Load(context.Background())
		return adminLoadedMsg{err: err}
	}
}

// rows returns how many entries the current section lists.
func (m adminModel) rows() int {
	switch m.section {
	case sectionFraud:
		return len(m.admin.FraudQueue())
	case sectionTransactions:
		if o := m.admin.State().Data; o != nil {
			return len(o.Transactions)
		}
	case sectionUsers:
		if o := m.admin.State().Data; o != nil {
			return len(o.Users)
		}
	}
	return 0
}

func (m adminModel) Update(msg tea.Msg) (adminModel, tea.Cmd) {
	switch msg := msg.(type) {
	case adminLoadedMsg:
		if m.cursor >= m.rows() {
			m.cursor = max(m.rows()-1, 0)
		}
	case decisionDoneMsg:
		if msg.err == nil {
			m.statusMsg = fmt.Sprintf("transaction %s marked %s", msg.id, msg.decision)
		}
		if m.cursor >= m.rows() {
			m.cursor = max(m.rows()-1, 0)
		}
	case tea.KeyMsg:
		if m.confirm != "" {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m adminModel) updateKeys(msg tea.KeyMsg) (adminModel, tea.Cmd) {
	m.statusMsg = ""
	switch msg.String() {
	case "f":
		m.section, m.cursor = sectionFraud, 0
	case "a":
		m.section, m.cursor = sectionTransactions, 0
	case "u":
		m.section, m.cursor = sectionUsers, 0
	case "j", "down":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "s":
		if m.section == sectionFraud && m.rows() > 0 {
			m.confirm = domain.DecisionSafe
		}
	case "x":
		if m.section == sectionFraud && m.rows() > 0 {
			m.confirm = domain.DecisionConfirmedFraud
		}
	case "r":
		return m, m.Init()
	}
	return m, nil
}

func (m adminModel) updateConfirm(msg tea.KeyMsg) (adminModel, tea.Cmd) {
	decision := m.confirm
	m.confirm = ""
	if msg.String() != "y" {
		return m, nil
	}
	queue := m.admin.FraudQueue()
	if m.cursor >= len(queue) || m.admin.State().Pending {
		return m, nil
	}
	id := queue[m.cursor].ID
	s := m.admin
	return m, func() tea.Msg {
		err := s.Decide(context.Background(), id, decision)
		return decisionDoneMsg{id: id, decision: decision, err: err}
	}
}

func (m adminModel) View() string {
	var b strings.Builder
	st := m.admin.State()

	tabs := []struct {
		key, name string
		s         adminSection
	}{
		{"f", "Fraud queue", sectionFraud},
		{"a", "All transactions", sectionTransactions},
		{"u", "Users", sectionUsers},
	}
	var bar []string
	for _, t := range tabs {
		if t.s == m.section {
			bar = append(bar, accentStyle.Render(t.key)+" "+selectedStyle.Underline(true).Render(t.name))
		} else {
			bar = append(bar, metaStyle.Render(t.key)+" "+dimStyle.Render(t.name))
		}
	}
	b.WriteString(" " + strings.Join(bar, "   ") + "\n\n")

	if st.Data == nil {
		switch {
		case st.Pending:
			b.WriteString(" " + dimStyle.Render("loading...") + "\n")
		case st.Err != nil:
			b.WriteString(" " + renderError(st.Err) + "\n")
		}
		return b.String()
	}

	switch m.section {
	case sectionFraud:
		m.viewFraud(&b)
	case sectionTransactions:
		for i, t := range st.Data.Transactions {
			b.WriteString(m.cursorMark(i) + adminTransactionRow(t) + "\n")
		}
		if len(st.Data.Transactions) == 0 {
			b.WriteString(" " + dimStyle.Render("no transactions") + "\n")
		}
	case sectionUsers:
		for i, u := range st.Data.Users {
			role := dimStyle.Render(string(u.Role))
			if u.Role == domain.RoleAdmin {
				role = goldStyle.Render(string(u.Role))
			}
			fmt.Fprintf(&b, "%s%s  %s  %s\n", m.cursorMark(i),
				metaStyle.Render(padRight(u.ID.String(), 5)),
				normalStyle.Render(padRight(truncStr(u.Name, 20), 20)),
				dimStyle.Render(padRight(truncStr(u.Email, 28), 28))+" "+role)
		}
	}

	b.WriteString("\n")
	switch {
	case m.confirm != "":
		b.WriteString(" " + warnStyle.Render(fmt.Sprintf("mark as %s? y/n", m.confirm)))
	case st.Pending:
		b.WriteString(" " + dimStyle.Render("working..."))
	case st.Err != nil:
		b.WriteString(" " + renderError(st.Err))
	case m.statusMsg != "":
		b.WriteString(" " + successStyle.Render(m.statusMsg))
	}
	return b.String()
}

func (m adminModel) viewFraud(b *strings.Builder) {
	queue := m.admin.FraudQueue()
	if len(queue) == 0 {
		b.WriteString(" " + dimStyle.Render("nothing awaiting review") + "\n")
		return
	}
	for i, t := range queue {
		b.WriteString(m.cursorMark(i) + adminTransactionRow(t) + "\n")
		if t.FraudReason != "" {
			b.WriteString("       " + rejectStyle.Render(t.FraudReason) + "\n")
		}
	}
}

func (m adminModel) cursorMark(i int) string {
	if i == m.cursor {
		return accentStyle.Render(">") + " "
	}
	return "  "
}

func adminTransactionRow(t domain.Transaction) string {
	flag := ""
	switch {
	case t.AwaitingDecision():
		flag = " " + rejectStyle.Render("FLAGGED")
	case t.FraudDecision != "":
		flag = " " + metaStyle.Render(string(t.FraudDecision))
	}
	return fmt.Sprintf("%s  %s  %s  %s%s",
		metaStyle.Render(padRight(t.ID.String(), 5)),
		normalStyle.Render(padRight(t.FromAccount+" → "+t.ToAccount, 22)),
		balanceStyle.Render(padRight(domain.FormatMoney(t.Amount), 12)),
		statusStyle(t.Status).Render(string(t.Status)),
		flag,
	)
}

func (m adminModel) helpKeys() string {
	if m.confirm != "" {
		return helpBar(helpEntry("y", "confirm"), helpEntry("n", "cancel"))
	}
	entries := []string{helpEntry("1-5", "views"), helpEntry("f/a/u", "section"), helpEntry("j/k", "nav")}
	if m.section == sectionFraud {
		entries = append(entries, helpEntry("s", "mark safe"), helpEntry("x", "confirm fraud"))
	}
	return helpBar(append(entries, helpEntry("r", "reload"), helpEntry("q", "quit"))...)
}
