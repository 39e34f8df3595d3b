package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction says whether money left or entered the account.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// ParseDirection accepts "debit"/"credit" in any case, plus the common
// statement synonyms "withdrawal" and "deposit".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "withdrawal", "dr":
		return Debit, nil
	case "credit", "deposit", "cr":
		return Credit, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Transaction is one line of a statement, in statement order.
type Transaction struct {
	ID          string          // stable ID, bank reference or YYYY-MM-NNN
	Date        time.Time       // zero if the statement date could not be parsed
	Description string
	Amount      decimal.Decimal // magnitude, never negative
	Direction   Direction
	Currency    string // ISO-4217, upper case; empty if unknown
	Reference   string
	Page        int // 1-based source page, 0 if not from a PDF
}

// NewTransaction builds a Transaction from a signed amount:
// negative amounts are debits, everything else is a credit.
func NewTransaction(date time.Time, description string, signed decimal.Decimal, currency string) Transaction {
	dir := Credit
	if signed.IsNegative() {
		dir = Debit
	}
	return Transaction{
		Date:        date,
		Description: description,
		Amount:      signed.Abs(),
		Direction:   dir,
		Currency:    NormalizeCurrency(currency),
	}
}

// Signed returns +Amount for credits and -Amount for debits.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == Debit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// String renders the transaction on one line for reports.
func (t Transaction) String() string {
	date := "????-??-??"
	if !t.Date.IsZero() {
		date = t.Date.Format("2006-01-02")
	}
	s := fmt.Sprintf("%s  %-40s %12s", date, t.Description, t.Signed().StringFixed(2))
	if t.Currency != "" {
		s += " " + t.Currency
	}
	return s
}

// NormalizeCurrency trims and upper-cases a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
