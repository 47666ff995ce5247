package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bizops/internal/backend"
	"bizops/internal/core"
	"bizops/internal/reporting"
)

type rangeReport func(ctx context.Context, e *reporting.Engine, r core.DateRange) (any, error)

func newReportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print financial reports as JSON",
	}

	cmd.AddCommand(
		newRangeReportCommand(opts, "cash-flow", "Paid income and expenses per category and per day",
			func(ctx context.Context, e *reporting.Engine, r core.DateRange) (any, error) {
				return e.CashFlow(ctx, r)
			}),
		newRangeReportCommand(opts, "profit-and-loss", "Revenue, expenses and profit over a date range",
			func(ctx context.Context, e *reporting.Engine, r core.DateRange) (any, error) {
				return e.ProfitAndLoss(ctx, r)
			}),
		newRangeReportCommand(opts, "budget-vs-actual", "Compare budgets with paid expenses",
			func(ctx context.Context, e *reporting.Engine, r core.DateRange) (any, error) {
				return e.BudgetVsActual(ctx, r)
			}),
		newBalancesCommand(opts),
	)

	return cmd
}

func newRangeReportCommand(opts *globalOptions, use, short string, run rangeReport) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRange(from, to)
			if err != nil {
				return err
			}
			return opts.withBackend(cmd, func(ctx context.Context, result *backend.BackendResult) error {
				repo := result.Repository
				report, err := run(ctx, reporting.NewEngine(repo, repo, repo), r)
				if err != nil {
					return fmt.Errorf("%s report: %w", use, err)
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day of the range, yyyy-MM-dd (required)")
	cmd.Flags().StringVar(&to, "to", "", "last day of the range, yyyy-MM-dd (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newBalancesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Total balance across active accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withBackend(cmd, func(ctx context.Context, result *backend.BackendResult) error {
				repo := result.Repository
				report, err := reporting.NewEngine(repo, repo, repo).AccountBalances(ctx)
				if err != nil {
					return fmt.Errorf("balances report: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func parseRange(from, to string) (core.DateRange, error) {
	start, err := core.ParseDate(from)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("--from: %w", err)
	}
	end, err := core.ParseDate(to)
	if err != nil {
		return core.DateRange{}, fmt.Errorf("--to: %w", err)
	}
	return core.NewDateRange(start, end)
}
