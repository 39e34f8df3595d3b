package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

// GenericDateFormat is the date layout of the generic format.
const GenericDateFormat = "2006-01-02"

// GenericRow is one line of the generic format. It is also the shape of the
// transactions CSV export, so an export can be reconciled again offline.
//
// Amount is signed; a non-empty Type ("debit" or "credit") overrides the sign.
type GenericRow struct {
	ID          string `csv:"id,omitempty"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Reference   string `csv:"reference"`
	Type        string `csv:"type"`
	Page        int    `csv:"page,omitempty"`
}

// GenericParser reads CSVs with a date,description,amount,currency,reference
// header. Missing optional columns are left empty.
type GenericParser struct{}

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads a generic CSV and returns its transactions.
func (p *GenericParser) Parse(r io.Reader) ([]model.Transaction, error) {
	var rows []GenericRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading generic CSV: %w", err)
	}

	txns := make([]model.Transaction, 0, len(rows))
	for i, row := range rows {
		txn, err := row.Transaction()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// Transaction converts the row.
func (row GenericRow) Transaction() (model.Transaction, error) {
	var date time.Time
	if s := strings.TrimSpace(row.Date); s != "" {
		d, err := time.Parse(GenericDateFormat, s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing date %q: %w", row.Date, err)
		}
		date = d
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row.Amount), ",", ""))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", row.Amount, err)
	}

	txn := model.NewTransaction(date, strings.TrimSpace(row.Description), amount, row.Currency)
	if strings.TrimSpace(row.Type) != "" {
		dir, err := model.ParseDirection(row.Type)
		if err != nil {
			return model.Transaction{}, err
		}
		txn.Direction = dir
	}
	txn.ID = strings.TrimSpace(row.ID)
	txn.Reference = strings.TrimSpace(row.Reference)
	txn.Page = row.Page
	return txn, nil
}

// NewGenericRow is the inverse of GenericRow.Transaction.
func NewGenericRow(t model.Transaction) GenericRow {
	row := GenericRow{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Signed().StringFixed(2),
		Currency:    t.Currency,
		Reference:   t.Reference,
		Type:        string(t.Direction),
		Page:        t.Page,
	}
	if !t.Date.IsZero() {
		row.Date = t.Date.Format(GenericDateFormat)
	}
	return row
}
