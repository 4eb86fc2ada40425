package main

import (
	"github.com/atotto/clipboard"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/pkg/domain"
)

func newAccountCmd(a *app) *cobra.Command {
	var copyNumber bool

	cmd := &cobra.Command{
		Use:     "account",
		Aliases: []string{"acc"},
		Short:   "Show your bank account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.require(gate.Account); err != nil {
				return err
			}
			acct, err := a.stores.Accounts.FetchAccount(cmd.Context())
			if err != nil {
				return err
			}
			if acct == nil {
				pterm.Info.Println("No account yet. Run `teller account create` to open one.")
				return nil
			}
			if err := renderAccount(acct); err != nil {
				return err
			}
			if copyNumber {
				if err := clipboard.WriteAll(acct.AccountNumber); err != nil {
					pterm.Warning.Printf("Could not copy account number: %v\n", err)
					return nil
				}
				pterm.Success.Println("Account number copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyNumber, "copy", false, "copy the account number to the clipboard")
	cmd.AddCommand(newAccountCreateCmd(a))

	return cmd
}

func newAccountCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Open your bank account",
		Long:  `Open the single bank account the ledger allows per user. It starts with a zero balance.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.require(gate.Account); err != nil {
				return err
			}
			acct, err := a.stores.Accounts.CreateAccount(cmd.Context())
			if err != nil {
				return err
			}
			pterm.Success.Printf("Opened account %s\n", acct.AccountNumber)
			return renderAccount(acct)
		},
	}
}

func newDepositCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit money into your account",
		Long: `Deposit a positive amount into your account.

Example: teller deposit 250.00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(gate.Account); err != nil {
				return err
			}
			amount, err := domain.ParseAmount(args[0])
			if err != nil {
				return err
			}
			acct, err := a.stores.Accounts.Deposit(cmd.Context(), amount)
			if err != nil {
				return err
			}
			pterm.Success.Printf("Deposited %s. Balance: %s\n",
				domain.FormatMoney(amount), domain.FormatMoney(acct.Balance))
			return nil
		},
	}
}

func renderAccount(acct *domain.Account) error {
	data := pterm.TableData{
		{"Account", acct.AccountNumber},
		{"Balance", domain.FormatMoney(acct.Balance)},
	}
	if acct.OwnerName != "" {
		data = append(data, []string{"Owner", acct.OwnerName})
	}
	return pterm.DefaultTable.WithData(data).Render()
}
