package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

type accountCreatedMsg struct {
	err error
}

type depositDoneMsg struct {
	amount decimal.Decimal
	err    error
}

type copyResultMsg struct {
	err error
}

type accountModel struct {
	accounts   *store.AccountStore
	depositing bool
	amount     string
	statusMsg  string
	inputErr   string
	frame      int
}

func newAccountModel(s *store.AccountStore) accountModel {
	return accountModel{accounts: s}
}

func (m accountModel) Init() tea.Cmd {
	return fetchAccountCmd(m.accounts)
}

func (m *accountModel) startDeposit() {
	m.depositing = true
	m.amount = ""
	m.inputErr = ""
	m.statusMsg = ""
}

func (m accountModel) Update(msg tea.Msg) (accountModel, tea.Cmd) {
	switch msg := msg.(type) {
	case shimmerTickMsg:
		m.frame++
	case accountCreatedMsg:
		if msg.err == nil {
			m.statusMsg = "account opened"
		}
	case depositDoneMsg:
		if msg.err == nil {
			m.statusMsg = "deposited " + domain.FormatMoney(msg.amount)
			m.depositing = false
			m.amount = ""
		}
	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = "copy failed: " + msg.err.Error()
		} else {
			m.statusMsg = "account number copied"
		}
	case tea.KeyMsg:
		if m.depositing {
			return m.updateDeposit(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m accountModel) updateKeys(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	m.statusMsg = ""
	st := m.accounts.State()
	switch msg.String() {
	case "c":
		if st.Data != nil || st.Pending {
			return m, nil
		}
		s := m.accounts
		return m, func() tea.Msg {
			_, err := s.CreateAccount(context.Background())
			return accountCreatedMsg{err: err}
		}
	case "d":
		if st.Data != nil {
			m.startDeposit()
		}
	case "y":
		if st.Data != nil {
			number := st.Data.AccountNumber
			return m, func() tea.Msg {
				return copyResultMsg{err: clipboard.WriteAll(number)}
			}
		}
	case "r":
		return m, m.Init()
	}
	return m, nil
}

func (m accountModel) updateDeposit(msg tea.KeyMsg) (accountModel, tea.Cmd) {
	m.inputErr = ""
	switch msg.String() {
	case "esc":
		m.depositing = false
		m.amount = ""
	case "enter":
		return m.submitDeposit()
	case "backspace":
		m.amount = editRune(m.amount, "backspace")
	default:
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				m.amount = editRune(m.amount, string(r))
			}
		}
	}
	return m, nil
}

func (m accountModel) submitDeposit() (accountModel, tea.Cmd) {
	if m.accounts.State().Pending {
		return m, nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(m.amount))
	if err != nil {
		m.inputErr = "amount must be a number"
		return m, nil
	}
	s := m.accounts
	return m, func() tea.Msg {
		_, err := s.Deposit(context.Background(), amount)
		return depositDoneMsg{amount: amount, err: err}
	}
}

func (m accountModel) View() string {
	var b strings.Builder
	st := m.accounts.State()

	b.WriteString(" " + sectionHeaderStyle.Render("Account") + "\n\n")
	switch {
	case st.Data != nil:
		rows := []struct{ label, value string }{
			{"number", selectedStyle.Render(st.Data.AccountNumber)},
			{"owner", normalStyle.Render(st.Data.OwnerName)},
			{"balance", balanceStyle.Render(domain.FormatMoney(st.Data.Balance))},
		}
		for _, r := range rows {
			fmt.Fprintf(&b, "  %s  %s\n", metaStyle.Render(padRight(r.label, 8)), r.value)
		}
	case st.Pending:
		b.WriteString(" " + dimStyle.Render("loading account...") + "\n")
	case st.Err == nil:
		b.WriteString(" " + dimStyle.Render("You have no account yet. Press ") +
			accentStyle.Render("c") + dimStyle.Render(" to open one.") + "\n")
	}

	b.WriteString("\n")
	if m.depositing {
		b.WriteString(renderInput("deposit", m.amount, "0.00", true, false, m.frame) + "\n")
		if m.inputErr != "" {
			b.WriteString(" " + warnStyle.Render(m.inputErr) + "\n")
		}
	}

	switch {
	case st.Pending && st.Data != nil:
		b.WriteString(" " + dimStyle.Render("working..."))
	case st.Err != nil:
		b.WriteString(" " + renderError(st.Err))
	case m.statusMsg != "":
		b.WriteString(" " + successStyle.Render(m.statusMsg))
	}
	return b.String()
}

func (m accountModel) helpKeys() string {
	if m.depositing {
		return helpBar(helpEntry("enter", "deposit"), helpEntry("esc", "cancel"))
	}
	if m.accounts.State().Data == nil {
		return helpBar(helpEntry("1-5", "views"), helpEntry("c", "open account"), helpEntry("r", "refresh"), helpEntry("q", "quit"))
	}
	return helpBar(helpEntry("1-5", "views"), helpEntry("d", "deposit"), helpEntry("y", "copy number"), helpEntry("r", "refresh"), helpEntry("q", "quit"))
}
