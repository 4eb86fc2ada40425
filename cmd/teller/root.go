package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/naveenspark/teller/internal/config"
	"github.com/naveenspark/teller/internal/event"
	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/internal/session"
	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/internal/tui"
	"github.com/naveenspark/teller/pkg/client"
)

// skipSetup marks commands that run without config or a session.
const skipSetup = "skip-setup"

// app is the state shared by every command of one invocation.
type app struct {
	cfgFile   string
	apiURL    string
	ephemeral bool

	cfg     *config.Config
	log     *log.Logger
	stores  *store.Stores
	closers []func()
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teller",
		Short: "teller is a terminal client for the ledger banking service",
		Long: `teller is a terminal client for the ledger banking service.

Run it without arguments for the interactive dashboard, or use the
subcommands below for one-shot operations and scripting.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			// Only the bare command draws the TUI; everything else prints.
			return a.open(cmd.Context(), !cmd.HasParent())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "set the config file path")
	cmd.PersistentFlags().StringVar(&a.apiURL, "api", "", "ledger base URL (overrides api.base_url)")
	cmd.PersistentFlags().BoolVar(&a.ephemeral, "ephemeral", false, "keep the session in memory only")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newStatusCmd(a))
	cmd.AddCommand(newAccountCmd(a))
	cmd.AddCommand(newDepositCmd(a))
	cmd.AddCommand(newTransferCmd(a))
	cmd.AddCommand(newTransactionsCmd(a))
	cmd.AddCommand(newAdminCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// open loads config and builds the session and stores. The TUI owns the
// terminal, so it logs to a file; commands log to stderr.
func (a *app) open(ctx context.Context, toFile bool) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	a.cfg = cfg

	var w io.Writer = os.Stderr
	if toFile {
		f, err := cfg.OpenLogFile()
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { f.Close() }) //nolint:errcheck
		w = f
	}
	if a.log, err = cfg.NewLogger(w); err != nil {
		return err
	}

	var storage session.Storage = session.NewFileStorage(cfg.SessionFile())
	if a.ephemeral {
		storage = session.NewMemoryStorage()
	}

	bus := event.NewBus()
	sess := session.New(storage, bus, a.log)
	api := client.New(cfg.API.BaseURL,
		client.WithCredentials(sess),
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(a.log),
	)
	a.stores = store.NewStores(sess, api, bus, a.log)
	a.closers = append(a.closers, a.stores.Start(ctx))

	status := a.stores.Sessions.Restore()
	a.log.Debug("session restored", "status", status, "api", cfg.API.BaseURL)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) runTUI(ctx context.Context) error {
	p := tea.NewProgram(tui.NewApp(a.stores), tea.WithAltScreen(), tea.WithContext(ctx))
	detach := tui.Attach(ctx, p, a.stores)
	defer detach()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

var (
	errNotSignedIn = errors.New("not signed in; run `teller login` first")
	errAdminOnly   = errors.New("this command is only available to administrators")
)

// require runs the same check the TUI uses before showing the view at path.
func (a *app) require(path string) error {
	switch gate.Decide(a.stores.Sessions, path) {
	case gate.Allow:
		return nil
	case gate.RedirectToLogin:
		return errNotSignedIn
	default:
		return errAdminOnly
	}
}
