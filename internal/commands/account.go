package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bizops/internal/backend"
	"bizops/internal/core"
	"bizops/internal/ledger"
)

func newAccountCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect and maintain accounts",
	}
	cmd.AddCommand(
		newAccountListCommand(opts),
		newAccountCreateCommand(opts),
		newAccountAdjustCommand(opts),
	)
	return cmd
}

func newAccountListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, result *backend.BackendResult) error {
				accounts, err := ledger.NewAccountService(result.Repository).List(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), accounts)
			})
		},
	}
}

func newAccountCreateCommand(opts *globalOptions) *cobra.Command {
	var in ledger.NewAccount
	var accountType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open an account with a zero balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Type = core.AccountType(accountType)
			return opts.withBackend(cmd, func(ctx context.Context, result *backend.BackendResult) error {
				a, err := ledger.NewAccountService(result.Repository).Create(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "account name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&accountType, "type", string(core.AccountChecking), "account type")
	cmd.Flags().StringVar(&in.Description, "description", "", "free-form description")

	return cmd
}

func newAccountAdjustCommand(opts *globalOptions) *cobra.Command {
	var amount string
	var set bool

	cmd := &cobra.Command{
		Use:   "adjust <account-id>",
		Short: "Add a signed delta to an account balance",
		Long: "Add a signed delta to an account balance. With --set the amount\n" +
			"replaces the balance instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := core.ParseMoney(amount)
			if err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			return opts.withBackend(cmd, func(ctx context.Context, result *backend.BackendResult) error {
				svc := ledger.NewAccountService(result.Repository)
				var a core.Account
				if set {
					a, err = svc.SetBalance(ctx, args[0], value)
				} else {
					a, err = svc.AdjustBalance(ctx, args[0], value)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "decimal amount, negative to subtract (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().BoolVar(&set, "set", false, "replace the balance instead of adding to it")

	return cmd
}
