package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

const (
	loginEmail = iota
	loginPassword
)

const (
	registerName = iota
	registerEmail
	registerPassword
	registerRole
)

type loginDoneMsg struct {
	err error
}

type registerDoneMsg struct {
	email string
	err   error
}

type loginModel struct {
	sessions   *store.SessionStore
	form       form
	notice     string
	submitting bool
}

func newLoginModel(s *store.SessionStore) loginModel {
	return loginModel{
		sessions: s,
		form: newForm(
			formField{label: "email", placeholder: "you@example.com"},
			formField{label: "password", placeholder: "password", secret: true},
		),
	}
}

// prefill is used after registration and after the session ends.
func (m *loginModel) prefill(email, notice string) {
	m.form.reset()
	m.form.set(loginEmail, email)
	if email != "" {
		m.form.focus = loginPassword
	}
	m.notice = notice
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.form.set(loginPassword, "")
			m.form.focus = loginPassword
			return m, nil
		}
		m.form.reset()
		m.notice = ""
		return m, nil

	case tea.KeyMsg:
		var submit bool
		m.form, submit = m.form.update(msg)
		if submit {
			return m.submit()
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	if m.submitting || m.sessions.State().Pending {
		return m, nil
	}
	m.submitting = true
	m.notice = ""
	creds := domain.Credentials{
		Email:    m.form.value(loginEmail),
		Password: m.form.value(loginPassword),
	}
	s := m.sessions
	return m, func() tea.Msg {
		_, err := s.Login(context.Background(), creds)
		return loginDoneMsg{err: err}
	}
}

func (m loginModel) View(frame int) string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Sign in") + "\n\n")
	b.WriteString(m.form.View(frame))
	b.WriteString("\n")
	st := m.sessions.State()
	switch {
	case m.submitting || st.Pending:
		b.WriteString(" " + dimStyle.Render("signing in..."))
	case st.Err != nil:
		b.WriteString(" " + renderError(st.Err))
	case m.notice != "":
		b.WriteString(" " + successStyle.Render(m.notice))
	}
	return b.String()
}

type registerModel struct {
	sessions   *store.SessionStore
	form       form
	submitting bool
}

func newRegisterModel(s *store.SessionStore) registerModel {
	return registerModel{
		sessions: s,
		form: newForm(
			formField{label: "name", placeholder: "Alice Smith"},
			formField{label: "email", placeholder: "you@example.com"},
			formField{label: "password", placeholder: "password", secret: true},
			formField{
				label:   "role",
				value:   string(domain.RoleUser),
				choices: []string{string(domain.RoleUser), string(domain.RoleAdmin)},
			},
		),
	}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registerDoneMsg:
		m.submitting = false
		if msg.err == nil {
			m.form.reset()
		}
		return m, nil

	case tea.KeyMsg:
		var submit bool
		m.form, submit = m.form.update(msg)
		if submit {
			return m.submit()
		}
	}
	return m, nil
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	if m.submitting || m.sessions.State().Pending {
		return m, nil
	}
	m.submitting = true
	p := domain.Profile{
		Name:     m.form.value(registerName),
		Email:    strings.TrimSpace(m.form.value(registerEmail)),
		Password: m.form.value(registerPassword),
		Role:     domain.Role(m.form.value(registerRole)),
	}
	s := m.sessions
	return m, func() tea.Msg {
		err := s.Register(context.Background(), p)
		return registerDoneMsg{email: p.Email, err: err}
	}
}

func (m registerModel) View(frame int) string {
	var b strings.Builder
	b.WriteString(" " + sectionHeaderStyle.Render("Create an identity") + "\n\n")
	b.WriteString(m.form.View(frame))
	b.WriteString("\n")
	st := m.sessions.State()
	switch {
	case m.submitting || st.Pending:
		b.WriteString(" " + dimStyle.Render("registering..."))
	case st.Err != nil:
		b.WriteString(" " + renderError(st.Err))
	}
	return b.String()
}
