package main

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/naveenspark/teller/internal/gate"
	"github.com/naveenspark/teller/internal/store"
	"github.com/naveenspark/teller/pkg/domain"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator tools: users, all transactions and fraud review",
	}

	cmd.AddCommand(newAdminUsersCmd(a))
	cmd.AddCommand(newAdminTransactionsCmd(a))
	cmd.AddCommand(newAdminFraudCmd(a))
	cmd.AddCommand(newAdminDecideCmd(a))

	return cmd
}

// loadOverview checks the admin gate before anything goes to the ledger.
func (a *app) loadOverview(cmd *cobra.Command) (*store.Overview, error) {
	if err := a.require(gate.Admin); err != nil {
		return nil, err
	}
	return a.stores.Admin.Load(cmd.Context())
}

func newAdminUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every registered user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.loadOverview(cmd)
			if err != nil {
				return err
			}
			data := pterm.TableData{{"ID", "Name", "Email", "Role"}}
			for _, u := range ov.Users {
				data = append(data, []string{u.ID.String(), u.Name, u.Email, string(u.Role)})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}

func newAdminTransactionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "List every transaction on the ledger",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.loadOverview(cmd)
			if err != nil {
				return err
			}
			if len(ov.Transactions) == 0 {
				pterm.Info.Println("No transactions.")
				return nil
			}
			return renderAdminTransactions(ov.Transactions)
		},
	}
}

func newAdminFraudCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fraud",
		Short: "List flagged transactions awaiting a decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.loadOverview(cmd); err != nil {
				return err
			}
			queue := a.stores.Admin.FraudQueue()
			if len(queue) == 0 {
				pterm.Info.Println("Nothing awaiting review.")
				return nil
			}
			return renderAdminTransactions(queue)
		},
	}
}

func newAdminDecideCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "decide <transaction-id> [SAFE|CONFIRMED_FRAUD]",
		Short: "Record a fraud decision for a flagged transaction",
		Long: `Record a decision for a flagged transaction. SAFE releases it,
CONFIRMED_FRAUD keeps it blocked. Without a decision argument you are asked
to pick one.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(gate.Admin); err != nil {
				return err
			}
			id := domain.ID(strings.TrimPrefix(args[0], "#"))

			var decision domain.FraudDecision
			if len(args) == 2 {
				decision = domain.FraudDecision(strings.ToUpper(args[1]))
				if !decision.Valid() {
					return fmt.Errorf("invalid decision %q: want SAFE or CONFIRMED_FRAUD", args[1])
				}
			} else {
				var choice string
				prompt := &survey.Select{
					Message: fmt.Sprintf("Decision for transaction %s:", id),
					Options: []string{string(domain.DecisionSafe), string(domain.DecisionConfirmedFraud)},
				}
				if err := survey.AskOne(prompt, &choice, surveyOpts...); err != nil {
					return err
				}
				decision = domain.FraudDecision(choice)
			}

			if !yes {
				ok, err := confirm(fmt.Sprintf("Mark transaction %s as %s?", id, decision))
				if err != nil {
					return err
				}
				if !ok {
					pterm.Info.Println("Decision cancelled")
					return nil
				}
			}

			if err := a.stores.Admin.Decide(cmd.Context(), id, decision); err != nil {
				return err
			}
			pterm.Success.Printf("Transaction %s marked %s\n", id, decision)
			if n := len(a.stores.Admin.FraudQueue()); n > 0 {
				pterm.Info.Printf("%d flagged transaction(s) still awaiting review\n", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func renderAdminTransactions(txns []domain.Transaction) error {
	data := pterm.TableData{{"ID", "From", "To", "Amount", "Status", "Fraud"}}
	for _, t := range txns {
		fraud := ""
		switch {
		case t.AwaitingDecision():
			fraud = "FLAGGED"
			if t.FraudReason != "" {
				fraud += ": " + t.FraudReason
			}
		case t.FraudDecision != "":
			fraud = string(t.FraudDecision)
		}
		data = append(data, []string{
			t.ID.String(), t.FromAccount, t.ToAccount,
			domain.FormatMoney(t.Amount), string(t.Status), fraud,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
