package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/stmtcheck/internal/importer"
	"github.com/cleared-dev/stmtcheck/internal/model"
	"github.com/cleared-dev/stmtcheck/internal/statement"
)

// ErrUnknownExport is returned by Export for an unsupported file extension.
var ErrUnknownExport = errors.New("unknown export format")

const (
	summarySheet      = "Summary"
	transactionsSheet = "Transactions"
)

var transactionsHeader = []any{"ID", "Date", "Description", "Amount", "Currency", "Type", "Reference", "Page"}

// WriteTransactionsCSV writes txns in the generic import format, so an export
// can be fed back to "stmtcheck reconcile --format generic".
func WriteTransactionsCSV(w io.Writer, txns []model.Transaction) error {
	rows := make([]importer.GenericRow, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, importer.NewGenericRow(t))
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing transactions CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a Summary sheet and a Transactions sheet.
func WriteXLSX(w io.Writer, a *statement.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return fmt.Errorf("creating transactions sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, row := range summaryRows(a) {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetColStyle(summarySheet, "A", bold); err != nil {
		return fmt.Errorf("styling summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return fmt.Errorf("sizing summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 60); err != nil {
		return fmt.Errorf("sizing summary: %w", err)
	}

	if err := f.SetSheetRow(transactionsSheet, "A1", &transactionsHeader); err != nil {
		return fmt.Errorf("writing transactions header: %w", err)
	}
	if err := f.SetRowStyle(transactionsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("styling transactions header: %w", err)
	}
	for i, t := range a.Transactions {
		row := transactionRow(t)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(transactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing transaction %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(transactionsSheet, "C", "C", 48); err != nil {
		return fmt.Errorf("sizing transactions: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func summaryRows(a *statement.Analysis) [][]any {
	rows := [][]any{
		{"Valid", yesNo(a.Valid())},
		{"Bank statement", yesNo(a.IsBankStatement)},
		{"Business info valid", yesNo(a.ValidBusinessInfo)},
		{"Balances reconcile", yesNo(a.ValidBalances)},
		{"Reason", a.Reason},
		{"Business name", a.Business.Name},
		{"Business address", a.Business.Address.String()},
		{"Opening balance", a.Balances.Opening.String()},
		{"Opening date", a.Balances.OpeningDate},
		{"Closing balance", a.Balances.Closing.String()},
		{"Closing date", a.Balances.ClosingDate},
	}
	if r := a.Reconciliation; r != nil {
		rows = append(rows,
			[]any{"Total credits", r.TotalCredits.String()},
			[]any{"Total debits", r.TotalDebits.String()},
			[]any{"Net change", r.NetChange.String()},
			[]any{"Computed closing balance", r.ComputedClosing.String()},
			[]any{"Discrepancy", r.Discrepancy.StringFixed(2)},
		)
	}
	return append(rows, []any{"Transactions", len(a.Transactions)})
}

// transactionRow keeps amounts numeric so the sheet can sum them.
func transactionRow(t model.Transaction) []any {
	r := importer.NewGenericRow(t)
	amount, _ := t.Signed().Round(2).Float64()
	var page any
	if t.Page > 0 {
		page = t.Page
	}
	return []any{r.ID, r.Date, r.Description, amount, r.Currency, r.Type, r.Reference, page}
}

// Export writes a to path, choosing CSV or XLSX from the extension.
func Export(path string, a *statement.Analysis) error {
	var write func(io.Writer) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = func(w io.Writer) error { return WriteTransactionsCSV(w, a.Transactions) }
	case ".xlsx":
		write = func(w io.Writer) error { return WriteXLSX(w, a) }
	default:
		return fmt.Errorf("%w: %q (use .csv or .xlsx)", ErrUnknownExport, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}
	return nil
}
