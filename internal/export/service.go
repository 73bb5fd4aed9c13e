package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gastoslab/gastos-tracker/internal/common"
	"github.com/gastoslab/gastos-tracker/internal/entity"
	"github.com/gastoslab/gastos-tracker/internal/repository"
)

// Format selects the export encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat validates an operator-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatXLSX, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", common.ErrInvalidInput, s)
	}
}

var headers = []string{"Date", "Amount", "Currency", "Description", "Bank", "Category", "Kind"}

// Service is a small façade over the transaction repository that produces
// export bytes for a date window.
type Service struct {
	txns   repository.TransactionRepository
	logger *slog.Logger
}

func NewService(txns repository.TransactionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{txns: txns, logger: logger}
}

// Export writes stored transactions in the date window to w.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> everything.
func (s *Service) Export(ctx context.Context, w io.Writer, format Format, from, to *time.Time) (int, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		today := time.Now().UTC()
		t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		toDate = &t
	}

	txns, err := s.txns.ListRange(ctx, fromDate, toDate)
	if err != nil {
		return 0, fmt.Errorf("query transactions: %w", err)
	}

	switch format {
	case FormatCSV:
		err = writeCSV(w, txns)
	default:
		err = writeXLSX(w, txns)
	}
	if err != nil {
		return 0, err
	}

	s.logger.Info("export.ok",
		"format", string(format),
		"rows", len(txns),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return len(txns), nil
}

func writeCSV(w io.Writer, txns []entity.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	for _, t := range txns {
		record := []string{
			t.DateOnly().Format("2006-01-02"),
			t.Amount.StringFixed(2),
			string(t.Currency),
			t.Description,
			string(t.Bank),
			t.Category,
			string(t.Kind),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("csv write: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, txns []entity.Transaction) error {
	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, t := range txns {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, t.DateOnly().Format("2006-01-02"))
		write(2, t.Amount.StringFixed(2))
		write(3, string(t.Currency))
		write(4, t.Description)
		write(5, string(t.Bank))
		write(6, t.Category)
		write(7, string(t.Kind))
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 14) // date
	_ = f.SetColWidth(sheet, "B", "C", 12) // amount, currency
	_ = f.SetColWidth(sheet, "D", "D", 40) // description
	_ = f.SetColWidth(sheet, "E", "G", 16) // bank, category, kind

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}
