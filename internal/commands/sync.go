package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/credentials"
	"github.com/gastoslab/gastos-tracker/internal/ingest"
	"github.com/gastoslab/gastos-tracker/internal/mailbox"
)

func newSyncCommand(opts *storeOptions) *cobra.Command {
	var address string
	var bankName string
	var days int
	var save bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch bank notification emails and extract pending transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			bank, ok := constants.ParseBank(bankName)
			if !ok {
				return fmt.Errorf("%w: unknown bank %q", common.ErrInvalidInput, bankName)
			}
			if days == 0 {
				days = app.cfg.Sync.DefaultLookbackDays
			}

			account, err := app.repos.Accounts.GetByAddress(ctx, address, bank)
			if err != nil {
				return fmt.Errorf("account %s (%s): %w", address, bank, err)
			}

			registry, err := app.profileRegistry()
			if err != nil {
				return err
			}
			connector := mailbox.NewConnector(app.cfg.Mail, app.logger)
			secrets := credentials.FromEnvironment()
			service := ingest.NewService(connector, secrets, registry,
				app.repos.Transactions, app.repos.Accounts, app.logger)

			result, err := service.Sync(ctx, account, days)
			if err != nil {
				if common.IsAuthPolicy(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state: %s  seen: %d  skipped: %d  duplicates: %d\n",
				result.State, result.MessagesSeen, result.MessagesSkipped, result.Duplicates)
			for _, c := range result.Pending {
				fmt.Fprintf(out, "%s  %s %s  %s\n",
					c.DateOnly().Format("2006-01-02"), c.Currency, c.Amount.StringFixed(2), c.Description)
			}

			if save && len(result.Pending) > 0 {
				saved, err := service.Commit(ctx, account, result.Pending)
				if err != nil {
					return fmt.Errorf("saved %d of %d: %w", saved, len(result.Pending), err)
				}
				fmt.Fprintf(out, "saved %d transactions\n", saved)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "account", "", "mail account address (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&bankName, "bank", string(constants.BankBCP), "bank profile to use")
	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default from SYNC_LOOKBACK_DAYS)")
	cmd.Flags().BoolVar(&save, "save", false, "persist non-duplicate candidates")

	return cmd
}
