package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/export"
)

func newExportCommand(opts *storeOptions) *cobra.Command {
	var out string
	var format string
	var fromStr string
	var toStr string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored transactions to XLSX or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			fmtSel, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			from, err := parseDateFlag(fromStr)
			if err != nil {
				return err
			}
			to, err := parseDateFlag(toStr)
			if err != nil {
				return err
			}

			app, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer app.close()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			service := export.NewService(app.repos.Transactions, app.logger)
			rows, err := service.Export(ctx, f, fmtSel, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transactions to %s\n", rows, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "transactions.xlsx", "output file path")
	cmd.Flags().StringVar(&format, "format", string(export.FormatXLSX), "xlsx or csv")
	cmd.Flags().StringVar(&fromStr, "from", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "end date, YYYY-MM-DD")

	return cmd
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD: %v", common.ErrInvalidInput, err)
	}
	return &t, nil
}
