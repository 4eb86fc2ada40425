package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/pkg/domain"
)

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

type loginFlags struct {
	Email    string
	Password string
}

func newLoginCmd(a *app) *cobra.Command {
	flags := &loginFlags{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the ledger",
		Long: `Sign in with your email and password. The session is kept on disk
until you log out or the ledger rejects it.

Missing flags are asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.stores.Sessions.IsAuthenticated() {
				return errors.New("already signed in; run `teller logout` first")
			}
			if flags.Email == "" || flags.Password == "" {
				if err := promptLogin(flags); err != nil {
					return err
				}
			}

			id, err := a.stores.Sessions.Login(cmd.Context(), domain.Credentials{
				Email:    flags.Email,
				Password: flags.Password,
			})
			if err != nil {
				return err
			}
			pterm.Success.Printf("Signed in as %s\n", id.Name())
			if id.Role == domain.RoleAdmin {
				pterm.Info.Println("Administrator tools are under `teller admin`.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&flags.Password, "password", "p", "", "account password")

	return cmd
}

func promptLogin(f *loginFlags) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&f.Email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.Password).
				Validate(required("password")),
		),
	).Run()
}

type registerFlags struct {
	Name     string
	Email    string
	Password string
	Role     string
}

func newRegisterCmd(a *app) *cobra.Command {
	flags := &registerFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a ledger identity",
		Long: `Create a new identity on the ledger. Registering does not sign you in;
run teller login afterwards.

Example: teller register --name Alice --email alice@example.com --password s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.stores.Sessions.IsAuthenticated() {
				return errors.New("already signed in; run `teller logout` first")
			}
			if flags.Name == "" || flags.Email == "" || flags.Password == "" {
				if err := promptRegister(flags); err != nil {
					return err
				}
			}

			err := a.stores.Sessions.Register(cmd.Context(), domain.Profile{
				Name:     flags.Name,
				Email:    flags.Email,
				Password: flags.Password,
				Role:     domain.Role(flags.Role),
			})
			if err != nil {
				return err
			}
			pterm.Success.Printf("Registered %s. Run `teller login` to sign in.\n", strings.TrimSpace(flags.Email))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.Name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&flags.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&flags.Password, "password", "p", "", "account password")
	cmd.Flags().StringVarP(&flags.Role, "role", "r", "", "USER or ADMIN (the ledger decides when empty)")

	return cmd
}

func promptRegister(f *registerFlags) error {
	if f.Role == "" {
		f.Role = string(domain.RoleUser)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&f.Name).
				Validate(required("name")),
			huh.NewInput().
				Title("Email").
				Value(&f.Email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&f.Password).
				Validate(required("password")),
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("User", string(domain.RoleUser)),
					huh.NewOption("Administrator", string(domain.RoleAdmin)),
				).
				Value(&f.Role),
		),
	).Run()
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.stores.Sessions.IsAuthenticated() {
				pterm.Info.Println("Already logged out.")
				return nil
			}
			a.stores.Sessions.Logout()
			pterm.Success.Println("Logged out.")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess := a.stores.Sessions.Session()
			id, ok := sess.Identity()
			if !ok {
				pterm.Info.Println("Not signed in.")
				return nil
			}

			expires := "-"
			if t := sess.ExpiresAt(); !t.IsZero() {
				expires = t.Local().Format("2006-01-02 15:04")
			}
			data := pterm.TableData{
				{"Signed in as", id.Name()},
				{"Email", id.Email},
				{"Role", string(id.Role)},
				{"Expires", expires},
				{"Ledger", a.cfg.API.BaseURL},
			}
			if gate.Decide(a.stores.Sessions, gate.Admin) == gate.Allow {
				data = append(data, []string{"Admin tools", "teller admin"})
			}
			return pterm.DefaultTable.WithData(data).Render()
		},
	}
}
