package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

const (
	transferTo = iota
	transferAmount
)

type transferDoneMsg struct {
	txn *domain.Transaction
	err error
}

type transferModel struct {
	stores     *store.Stores
	form       form
	statusMsg  string
	inputErr   string
	submitting bool
}

func newTransferModel(s *store.Stores) transferModel {
	return transferModel{
		stores: s,
		form: newForm(
			formField{label: "to account", placeholder: "account number"},
			formField{label: "amount", placeholder: "0.00"},
		),
	}
}

func (m transferModel) Init() tea.Cmd {
	if m.stores.Accounts.State().Data == nil {
		return fetchAccountCmd(m.stores.Accounts)
	}
	return nil
}

func (m transferModel) Update(msg tea.Msg) (transferModel, tea.Cmd) {
	switch msg := msg.(type) {
	case transferDoneMsg:
		m.submitting = false
		if msg.err == nil && msg.txn != nil {
			m.statusMsg = fmt.Sprintf("sent %s to %s", domain.FormatMoney(msg.txn.Amount), msg.txn.ToAccount)
			m.form.reset()
		}
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		m.inputErr = ""
		var submit bool
		m.form, submit = m.form.update(msg)
		if submit {
			return m.submit()
		}
	}
	return m, nil
}

func (m transferModel) submit() (transferModel, tea.Cmd) {
	if m.submitting || m.stores.Transactions.State().Pending {
		return m, nil
	}
	raw := strings.TrimSpace(m.form.value(transferAmount))
	amount, err := decimal.NewFromString(raw)
	if raw != "" && err != nil {
		m.inputErr = "amount must be a number"
		return m, nil
	}
	m.submitting = true
	to := m.form.value(transferTo)
	s := m.stores.Transactions
	return m, func() tea.Msg {
		txn, err := s.TransferMoney(context.Background(), to, amount)
		return transferDoneMsg{txn: txn, err: err}
	}
}

func (m transferModel) View(frame int) string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Transfer") + "\n")
	if acct := m.stores.Accounts.State().Data; acct != nil {
		fmt.Fprintf(&b, " %s %s  %s %s\n",
			metaStyle.Render("from"), normalStyle.Render(acct.AccountNumber),
			metaStyle.Render("available"), balanceStyle.Render(domain.FormatMoney(acct.Balance)))
	}
	b.WriteString("\n")
	b.WriteString(m.form.View(frame))
	b.WriteString("\n")

	st := m.stores.Transactions.State()
	switch {
	case m.submitting || st.Pending:
		b.WriteString(" " + dimStyle.Render("sending..."))
	case m.inputErr != "":
		b.WriteString(" " + warnStyle.Render(m.inputErr))
	case st.Err != nil:
		b.WriteString(" " + renderError(st.Err))
	case m.statusMsg != "":
		b.WriteString(" " + successStyle.Render(m.statusMsg))
	}
	return b.String()
}
