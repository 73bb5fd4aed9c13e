package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/credentials"
	"github.com/gastoslab/gastos-tracker/internal/repository"
)

func newAccountsCommand(opts *storeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage synced mail accounts",
	}
	cmd.AddCommand(newAccountsAddCommand(opts))
	cmd.AddCommand(newAccountsListCommand(opts))
	return cmd
}

func newAccountsAddCommand(opts *storeOptions) *cobra.Command {
	var address string
	var bankName string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a mail account for a bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			bank, ok := constants.ParseBank(bankName)
			if !ok {
				return fmt.Errorf("%w: unknown bank %q", common.ErrInvalidInput, bankName)
			}

			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			account := repository.NewMailAccount(address, bank, time.Now())
			if err := app.repos.Accounts.Create(ctx, account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", account.Address, account.Bank)
			fmt.Fprintf(cmd.OutOrStdout(), "set %s to the account's app password before syncing\n",
				credentials.EnvKey(account.Address))
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "mail address (required)")
	_ = cmd.MarkFlagRequired("address")
	cmd.Flags().StringVar(&bankName, "bank", string(constants.BankBCP), "bank whose notifications arrive here")

	return cmd
}

func newAccountsListCommand(opts *storeOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active mail accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			accounts, err := app.repos.Accounts.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, a := range accounts {
				lastSync := "never"
				if a.LastSyncedAt != nil {
					lastSync = a.LastSyncedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%s  %s  last sync: %s\n", a.Address, a.Bank, lastSync)
			}
			return nil
		},
	}
}
