package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

type view int

const (
	viewLogin view = iota
	viewRegister
	viewDashboard
	viewAccount
	viewTransfer
	viewTransactions
	viewAdmin
)

var viewPaths = map[view]string{
	viewLogin:        gate.Login,
	viewRegister:     gate.Register,
	viewDashboard:    gate.Dashboard,
	viewAccount:      gate.Account,
	viewTransfer:     gate.Transfer,
	viewTransactions: gate.Transactions,
	viewAdmin:        gate.Admin,
}

func viewFor(path string) view {
	for v, p := range viewPaths {
		if p == path {
			return v
		}
	}
	return viewDashboard
}

// storeChangedMsg re-renders after a store changed off the UI goroutine,
// e.g. the balance refresh that follows a transfer.
type storeChangedMsg struct{}

// sessionEndedMsg is sent when the session ends for any reason.
type sessionEndedMsg struct {
	reason string
}

// chrome is header(2) + tabs(1) + help(1).
const chrome = 4

// App is the root Bubbletea model.
type App struct {
	stores       *store.Stores
	view         view
	login        loginModel
	register     registerModel
	dashboard    dashboardModel
	account      accountModel
	transfer     transferModel
	transactions transactionsModel
	admin        adminModel
	helpOpen     bool
	width        int
	height       int
	frame        int // logo shimmer animation frame
}

// NewApp creates the TUI. The first view is whatever the gate allows for the
// dashboard: the dashboard itself for a restored session, sign-in otherwise.
func NewApp(s *store.Stores) App {
	a := App{
		stores:       s,
		login:        newLoginModel(s.Sessions),
		register:     newRegisterModel(s.Sessions),
		dashboard:    newDashboardModel(s),
		account:      newAccountModel(s.Accounts),
		transfer:     newTransferModel(s),
		transactions: newTransactionsModel(s),
		admin:        newAdminModel(s.Admin),
	}
	a.view = viewFor(gate.Resolve(s.Sessions, gate.Dashboard))
	return a
}

// Attach connects the stores to a running program: every state change
// triggers a re-render and the end of the session returns to sign-in. Store
// hooks never block, so they are safe to fire from inside Update. The returned
// function undoes the wiring.
func Attach(ctx context.Context, p *tea.Program, s *store.Stores) (detach func()) {
	ctx, cancel := context.WithCancel(ctx)
	changed := make(chan struct{}, 1)
	poke := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	s.Sessions.OnChange(poke)
	s.Accounts.OnChange(poke)
	s.Transactions.OnChange(poke)
	s.Admin.OnChange(poke)

	unsubscribe := s.Bus.Subscribe(func(e event.Event) {
		if e.Kind == event.SessionEnded {
			go p.Send(sessionEndedMsg{reason: e.Reason})
		}
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				p.Send(storeChangedMsg{})
			}
		}
	}()

	return func() {
		unsubscribe()
		cancel()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.enter(a.view))
}

// enter returns the load command for v.
func (a App) enter(v view) tea.Cmd {
	switch v {
	case viewDashboard:
		return a.dashboard.Init()
	case viewAccount:
		return a.account.Init()
	case viewTransfer:
		return a.transfer.Init()
	case viewTransactions:
		return a.transactions.Init()
	case viewAdmin:
		return a.admin.Init()
	}
	return nil
}

// navigate moves to path, or wherever the gate redirects it.
func (a App) navigate(path string) (App, tea.Cmd) {
	target := gate.Resolve(a.stores.Sessions, path)
	a.view = viewFor(target)
	a.helpOpen = false

	switch a.view {
	case viewLogin, viewRegister:
		a.stores.Sessions.ClearError()
	case viewTransfer:
		a.stores.Transactions.ClearError()
	}
	return a, a.enter(a.view)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - chrome}
		a.dashboard, _ = a.dashboard.Update(bodyMsg)
		a.transactions, _ = a.transactions.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		a.account, _ = a.account.Update(msg)
		return a, shimmerTickCmd()

	case storeChangedMsg:
		return a, nil

	case sessionEndedMsg:
		if a.stores.Sessions.IsAuthenticated() {
			// Already signed in again.
			return a, nil
		}
		notice := "signed out"
		if msg.reason != "logout" {
			notice = "your session has ended, please sign in again"
		}
		a.login.prefill("", notice)
		return a.navigate(viewPaths[a.view])

	case navigateMsg:
		var cmd tea.Cmd
		a, cmd = a.navigate(msg.path)
		if msg.deposit && a.view == viewAccount {
			a.account.startDeposit()
		}
		return a, cmd

	case loginDoneMsg:
		a.login, _ = a.login.Update(msg)
		if msg.err == nil {
			return a.navigate(gate.Dashboard)
		}
		return a, nil

	case registerDoneMsg:
		a.register, _ = a.register.Update(msg)
		if msg.err == nil {
			a.login.prefill(msg.email, "registered, please sign in")
			return a.navigate(gate.Login)
		}
		return a, nil

	case accountLoadedMsg, accountCreatedMsg, depositDoneMsg, copyResultMsg:
		var cmd tea.Cmd
		a.account, cmd = a.account.Update(msg)
		return a, cmd

	case transactionsLoadedMsg:
		a.transactions, _ = a.transactions.Update(msg)
		return a, nil

	case transferDoneMsg:
		a.transfer, _ = a.transfer.Update(msg)
		return a, nil

	case adminLoadedMsg, decisionDoneMsg:
		a.admin, _ = a.admin.Update(msg)
		return a, nil

	case tea.KeyMsg:
		return a.updateKeys(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		}
		return a, nil
	}

	switch a.view {
	case viewLogin:
		if msg.String() == "ctrl+r" {
			return a.navigate(gate.Register)
		}
	case viewRegister:
		if msg.String() == "esc" {
			return a.navigate(gate.Login)
		}
	case viewTransfer:
		if msg.String() == "esc" {
			return a.navigate(gate.Dashboard)
		}
	}

	// Global keys (only when not editing)
	if !a.isEditing() {
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "h":
			a.helpOpen = true
			return a, nil
		case "L":
			a.stores.Sessions.Logout()
			a.login.prefill("", "signed out")
			return a.navigate(gate.Login)
		case "esc":
			if a.view != viewDashboard {
				return a.navigate(gate.Dashboard)
			}
			return a, nil
		}
		for _, t := range a.tabs() {
			if msg.String() == t.key {
				if t.v == a.view {
					return a, nil
				}
				return a.navigate(viewPaths[t.v])
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLogin:
		a.login, cmd = a.login.Update(msg)
	case viewRegister:
		a.register, cmd = a.register.Update(msg)
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	case viewAccount:
		a.account, cmd = a.account.Update(msg)
	case viewTransfer:
		a.transfer, cmd = a.transfer.Update(msg)
	case viewTransactions:
		a.transactions, cmd = a.transactions.Update(msg)
	case viewAdmin:
		a.admin, cmd = a.admin.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLogin, viewRegister, viewTransfer:
		return true
	case viewAccount:
		return a.account.depositing
	case viewAdmin:
		return a.admin.confirm != ""
	}
	return false
}

type tabEntry struct {
	key  string
	name string
	v    view
}

// tabs lists the views the current principal may switch to. The admin tab is
// only offered when the gate would allow it.
func (a App) tabs() []tabEntry {
	if !a.stores.Sessions.IsAuthenticated() {
		return []tabEntry{
			{"", "Sign in", viewLogin},
			{"", "Register", viewRegister},
		}
	}
	tabs := []tabEntry{
		{"1", "Dashboard", viewDashboard},
		{"2", "Account", viewAccount},
		{"3", "Transfer", viewTransfer},
		{"4", "History", viewTransactions},
	}
	if gate.Decide(a.stores.Sessions, gate.Admin) == gate.Allow {
		tabs = append(tabs, tabEntry{"5", "Admin", viewAdmin})
	}
	return tabs
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)

	statsLine := ""
	if id, ok := a.stores.Sessions.Session().Identity(); ok {
		parts := []string{id.Name()}
		if id.Role == domain.RoleAdmin {
			parts = append(parts, goldStyle.Render(string(id.Role)))
		}
		if acct := a.stores.Accounts.State().Data; acct != nil {
			parts = append(parts, acct.AccountNumber)
		}
		statsLine = metaStyle.Render(strings.Join(parts, " · "))
	}

	// Center the logo within terminal width
	logoPad := max((a.width-lipgloss.Width(logo))/2, 0)
	header := strings.Repeat(" ", logoPad) + logo
	if statsLine != "" {
		statsPad := max((a.width-lipgloss.Width(statsLine))/2, 0)
		header += "\n" + strings.Repeat(" ", statsPad) + statsLine
	} else {
		header += "\n"
	}

	// Tab bar: equal-width columns spread across the terminal
	tabs := a.tabs()
	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = selectedStyle.Underline(true).Render(t.name)
			if t.key != "" {
				label = accentStyle.Render(t.key) + " " + label
			}
		} else {
			label = dimStyle.Render(t.name)
			if t.key != "" {
				label = metaStyle.Render(t.key) + " " + label
			}
		}
		labelWidth := lipgloss.Width(label)
		leftPad := max((colWidth-labelWidth)/2, 0)
		rightPad := max(colWidth-labelWidth-leftPad, 0)
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}

	var body, help string
	switch a.view {
	case viewLogin:
		body = a.login.View(a.frame)
		help = helpBar(helpEntry("tab", "next"), helpEntry("enter", "sign in"), helpEntry("ctrl+r", "register"), helpEntry("ctrl+c", "quit"))
	case viewRegister:
		body = a.register.View(a.frame)
		help = helpBar(helpEntry("tab", "next"), helpEntry("←/→", "role"), helpEntry("enter", "register"), helpEntry("esc", "sign in"))
	case viewDashboard:
		body = a.dashboard.View()
		help = helpBar(helpEntry("1-5", "views"), helpEntry("d", "deposit"), helpEntry("t", "transfer"), helpEntry("r", "refresh"), helpEntry("L", "log out"), helpEntry("h", "help"), helpEntry("q", "quit"))
	case viewAccount:
		body = a.account.View()
		help = a.account.helpKeys()
	case viewTransfer:
		body = a.transfer.View(a.frame)
		help = helpBar(helpEntry("tab", "next"), helpEntry("enter", "send"), helpEntry("esc", "back"))
	case viewTransactions:
		body = a.transactions.View()
		help = helpBar(helpEntry("1-5", "views"), helpEntry("j/k", "scroll"), helpEntry("r", "refresh"), helpEntry("h", "help"), helpEntry("q", "quit"))
	case viewAdmin:
		body = a.admin.View()
		help = a.admin.helpKeys()
	}

	if a.helpOpen {
		body = helpView()
		help = helpBar(helpEntry("esc", "close"))
	}

	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabBar.String(), body, help)
}
