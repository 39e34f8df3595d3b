package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

// ChaseParser parses Chase business checking CSV exports. Amounts are signed
// and always in USD; the Details and Type columns must agree with the sign.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseCurrency   = "USD"
	chaseRefDescLen = 10
)

// Header names of a Chase checking export.
const (
	chaseColDetails = "Details"
	chaseColDate    = "Posting Date"
	chaseColDesc    = "Description"
	chaseColAmount  = "Amount"
	chaseColType    = "Type"
	chaseColCheck   = "Check or Slip #"
)

// ErrDirectionMismatch is returned when a row's Details or Type column
// contradicts the sign of its amount.
var ErrDirectionMismatch = errors.New("direction does not match amount sign")

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV and returns its transactions in file order.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading chase CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	cols, err := newChaseColumns(records[0])
	if err != nil {
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		txn, err := cols.transaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// chaseColumns holds header positions; optional columns are -1 when absent.
type chaseColumns struct {
	details, date, desc, amount, typ, check int
}

func newChaseColumns(header []string) (chaseColumns, error) {
	index := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	c := chaseColumns{
		details: index(chaseColDetails),
		date:    index(chaseColDate),
		desc:    index(chaseColDesc),
		amount:  index(chaseColAmount),
		typ:     index(chaseColType),
		check:   index(chaseColCheck),
	}
	for name, i := range map[string]int{chaseColDate: c.date, chaseColDesc: c.desc, chaseColAmount: c.amount} {
		if i < 0 {
			return chaseColumns{}, fmt.Errorf("chase CSV is missing the %q column", name)
		}
	}
	return c, nil
}

func (c chaseColumns) field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (c chaseColumns) transaction(rec []string) (model.Transaction, error) {
	rawDate := c.field(rec, c.date)
	date, err := time.Parse(chaseDateFormat, rawDate)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rawDate, err)
	}

	rawAmount := c.field(rec, c.amount)
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rawAmount, err)
	}

	desc := c.field(rec, c.desc)
	txn := model.NewTransaction(date, desc, amount, chaseCurrency)

	details, typ := c.field(rec, c.details), c.field(rec, c.typ)
	if hint, ok := chaseDirection(details, typ); ok {
		switch {
		case amount.IsZero():
			txn.Direction = hint
		case hint != txn.Direction:
			return model.Transaction{}, fmt.Errorf("%w: %s/%s with amount %s", ErrDirectionMismatch, details, typ, rawAmount)
		}
	}

	txn.Reference = chaseReference(date, desc, c.field(rec, c.check))
	return txn, nil
}

// chaseDirection reads the direction Chase states for a row. Details is
// DEBIT, CREDIT, CHECK or DSLIP (deposit slip); Type is e.g. ACH_DEBIT,
// DEBIT_CARD, CHECK_PAID or CHECK_DEPOSIT and is only consulted when Details
// says nothing.
func chaseDirection(details, typ string) (model.Direction, bool) {
	switch strings.ToUpper(details) {
	case "CHECK":
		return model.Debit, true
	case "DSLIP":
		return model.Credit, true
	}
	if dir, err := model.ParseDirection(details); err == nil {
		return dir, true
	}

	typ = strings.ToUpper(typ)
	switch {
	case typ == "":
		return "", false
	case strings.Contains(typ, "DEBIT"), typ == "CHECK_PAID", strings.HasPrefix(typ, "FEE"):
		return model.Debit, true
	case strings.Contains(typ, "CREDIT"), strings.Contains(typ, "DEPOSIT"):
		return model.Credit, true
	}
	return "", false
}

// chaseReference builds chase_<YYYYMMDD>_<first alphanumerics of desc>,
// suffixed with the check number when there is one.
func chaseReference(date time.Time, desc, check string) string {
	var b strings.Builder
	for _, r := range desc {
		if b.Len() == chaseRefDescLen {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	ref := "chase_" + date.Format("20060102") + "_" + b.String()
	if check != "" {
		ref += "_" + check
	}
	return ref
}
