package commands

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gastoslab/gastos-tracker/constants"
	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/entity"
	"github.com/gastoslab/gastos-tracker/internal/ingest"
)

func newAddCommand(opts *storeOptions) *cobra.Command {
	var date string
	var amount string
	var description string
	var category string
	var currency string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			txDate := time.Now().UTC()
			if date != "" {
				txDate, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("%w: date must be YYYY-MM-DD: %v", common.ErrInvalidInput, err)
				}
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: bad amount %q: %v", common.ErrInvalidInput, amount, err)
			}

			service := ingest.NewService(nil, nil, nil,
				app.repos.Transactions, app.repos.Accounts, app.logger)
			txn, err := service.AddManual(ctx, &entity.Candidate{
				Date:        txDate,
				Amount:      amt,
				Currency:    constants.Currency(currency),
				Description: description,
				Category:    category,
				Kind:        constants.KindActual,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s  %s %s  %s\n",
				txn.DateOnly().Format("2006-01-02"), txn.Currency, txn.Amount.StringFixed(2), txn.Description)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transaction date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, e.g. 90.00 (required)")
	_ = cmd.MarkFlagRequired("amount")
	cmd.Flags().StringVar(&description, "description", "", "merchant or note (required)")
	_ = cmd.MarkFlagRequired("description")
	cmd.Flags().StringVar(&category, "category", constants.CategoryUncategorized, "category name")
	cmd.Flags().StringVar(&currency, "currency", string(constants.CurrencyPEN), "PEN or USD")

	return cmd
}
