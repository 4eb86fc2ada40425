package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/pkg/domain"
)

// surveyOpts contains custom options for all survey prompts
var surveyOpts = []survey.AskOpt{
	survey.WithIcons(func(icons *survey.IconSet) {
		icons.Question.Text = "-"
	}),
}

func confirm(message string) (bool, error) {
	var ok bool
	prompt := &survey.Confirm{Message: message, Default: false}
	if err := survey.AskOne(prompt, &ok, surveyOpts...); err != nil {
		return false, err
	}
	return ok, nil
}

func newTransferCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "transfer <to-account> <amount>",
		Short: "Send money to another account",
		Long: `Send money from your account to another account number.

Large transfers may be held for fraud review; they show up as PENDING.

Example: teller transfer 1002 75.50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(gate.Transfer); err != nil {
				return err
			}
			to := args[0]
			amount, err := domain.ParseAmount(args[1])
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirm(fmt.Sprintf("Send %s to %s?", domain.FormatMoney(amount), to))
				if err != nil {
					return err
				}
				if !ok {
					pterm.Info.Println("Transfer cancelled")
					return nil
				}
			}

			txn, err := a.stores.Transactions.TransferMoney(cmd.Context(), to, amount)
			if err != nil {
				return err
			}
			switch txn.Status {
			case domain.StatusCompleted:
				pterm.Success.Printf("Sent %s to %s (transaction %s)\n", domain.FormatMoney(txn.Amount), txn.ToAccount, txn.ID)
			default:
				pterm.Warning.Printf("Transfer %s to %s is %s\n", txn.ID, txn.ToAccount, txn.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func newTransactionsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx", "history"},
		Short:   "List your transactions, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.require(gate.Transactions); err != nil {
				return err
			}
			// The account number tells incoming from outgoing; without one
			// every row reads as incoming.
			var number string
			if acct, err := a.stores.Accounts.FetchAccount(cmd.Context()); err == nil && acct != nil {
				number = acct.AccountNumber
			}
			if _, err := a.stores.Transactions.FetchTransactions(cmd.Context()); err != nil {
				return err
			}

			n := len(a.stores.Transactions.State().Data)
			if limit > 0 {
				n = limit
			}
			txns := a.stores.Transactions.Recent(n)
			if len(txns) == 0 {
				pterm.Info.Println("No transactions yet.")
				return nil
			}
			return renderTransactions(txns, number)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of transactions to show (0 for all)")

	return cmd
}

func renderTransactions(txns []domain.Transaction, accountNumber string) error {
	data := pterm.TableData{{"ID", "Date", "Counterparty", "Amount", "Status"}}
	for _, t := range txns {
		date := "-"
		if !t.Timestamp.IsZero() {
			date = t.Timestamp.Local().Format("2006-01-02 15:04")
		}
		counterparty := "from " + t.FromAccount
		amount := "+" + domain.FormatMoney(t.Amount)
		if t.Outgoing(accountNumber) {
			counterparty = "to " + t.ToAccount
			amount = "-" + domain.FormatMoney(t.Amount)
		}
		data = append(data, []string{t.ID.String(), date, counterparty, amount, string(t.Status)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
