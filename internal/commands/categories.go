package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gastoslab/gastos-tracker/internal/common"
)

func newCategoriesCommand(opts *storeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage expense categories",
	}
	cmd.AddCommand(newCategoriesAddCommand(opts))
	cmd.AddCommand(newCategoriesListCommand(opts))
	cmd.AddCommand(newCategoriesBudgetCommand(opts))
	return cmd
}

func newCategoriesAddCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add an expense category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.repos.Categories.Add(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added category %q\n", args[0])
			return nil
		},
	}
}

func newCategoriesListCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expense categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			categories, err := app.repos.Categories.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, c := range categories {
				if c.Budget.IsZero() {
					fmt.Fprintln(out, c.Name)
					continue
				}
				fmt.Fprintf(out, "%s  budget: %s\n", c.Name, c.Budget.StringFixed(2))
			}
			return nil
		},
	}
}

func newCategoriesBudgetCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "budget <name> <amount>",
		Short: "Set the monthly budget for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			budget, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("%w: bad amount %q: %v", common.ErrInvalidInput, args[1], err)
			}

			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.repos.Categories.SetBudget(ctx, args[0], budget); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "budget for %q set to %s\n", args[0], budget.StringFixed(2))
			return nil
		},
	}
}
