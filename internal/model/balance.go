package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrMissingBalance is returned when a statement's opening or closing balance
// cannot be read.
var ErrMissingBalance = errors.New("missing balance")

// Money is an amount in a single currency.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney returns Money with a normalized currency code.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: NormalizeCurrency(currency)}
}

// String renders "1000.00 USD", or just the amount when the currency is unknown.
func (m Money) String() string {
	s := m.Amount.StringFixed(2)
	if m.Currency != "" {
		s += " " + m.Currency
	}
	return s
}

// BalanceSummary holds the balances stated on a statement plus the closing
// balance implied by its transactions.
type BalanceSummary struct {
	Opening     Money
	OpeningDate string
	Closing     Money
	ClosingDate string

	// ComputedClosing is Opening + credits - debits. Zero until reconciled.
	ComputedClosing Money
}
