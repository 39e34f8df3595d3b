// Package reconcile checks that a statement's transactions explain the change
// between its opening and closing balances.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

// MaxTransactions bounds a single document: 2000/month * 12 months * 10 years.
const MaxTransactions = 24000

var (
	// ErrMixedCurrency is returned when transactions carry different currencies.
	ErrMixedCurrency = errors.New("transactions have different currencies")
	// ErrCurrencyMismatch is returned when balances and transactions disagree on currency.
	ErrCurrencyMismatch = errors.New("balance currency does not match transactions")
	// ErrTooManyTransactions is returned above MaxTransactions.
	ErrTooManyTransactions = errors.New("too many transactions")
)

// Totals summarizes a transaction list.
type Totals struct {
	Credits   decimal.Decimal
	Debits    decimal.Decimal // positive magnitude
	NetChange decimal.Decimal // Credits - Debits
	Currency  string          // empty when no transaction names one
	Count     int
}

// Sum totals credits and debits in one pass.
func Sum(txns []model.Transaction) (Totals, error) {
	if len(txns) > MaxTransactions {
		return Totals{}, fmt.Errorf("%w: %d > %d", ErrTooManyTransactions, len(txns), MaxTransactions)
	}

	t := Totals{Credits: decimal.Zero, Debits: decimal.Zero, Count: len(txns)}
	for i, txn := range txns {
		if txn.Currency != "" {
			cur := model.NormalizeCurrency(txn.Currency)
			if t.Currency == "" {
				t.Currency = cur
			} else if cur != t.Currency {
				return Totals{}, fmt.Errorf("%w: %s and %s (transaction %d)", ErrMixedCurrency, t.Currency, cur, i+1)
			}
		}
		if isDebit(txn) {
			t.Debits = t.Debits.Add(txn.Amount.Abs())
		} else {
			t.Credits = t.Credits.Add(txn.Amount.Abs())
		}
	}
	t.NetChange = t.Credits.Sub(t.Debits)
	return t, nil
}

// isDebit trusts Direction when it is set and otherwise falls back to the
// sign of Amount.
func isDebit(txn model.Transaction) bool {
	if txn.Direction.Valid() {
		return txn.Direction == model.Debit
	}
	return txn.Amount.IsNegative()
}

// Options tune a reconciliation.
type Options struct {
	// Tolerance overrides the currency-derived tolerance when positive.
	Tolerance decimal.Decimal
}

// Result is the outcome of Reconcile.
type Result struct {
	Opening         model.Money
	Closing         model.Money
	TotalCredits    model.Money
	TotalDebits     model.Money
	NetChange       model.Money
	ComputedClosing model.Money
	Difference      decimal.Decimal // ComputedClosing - Closing
	Discrepancy     decimal.Decimal // |Difference|
	Tolerance       decimal.Decimal
	Reconciles      bool
	Reason          string // set when Reconciles is false
	Count           int
}

// Valid reports whether the balances reconcile.
func (r Result) Valid() bool {
	return r.Reconciles
}

// Summary returns the balance summary with the computed closing balance filled in.
func (r Result) Summary(openingDate, closingDate string) model.BalanceSummary {
	return model.BalanceSummary{
		Opening:         r.Opening,
		OpeningDate:     openingDate,
		Closing:         r.Closing,
		ClosingDate:     closingDate,
		ComputedClosing: r.ComputedClosing,
	}
}

// Reconcile adds the signed transaction amounts onto opening and compares the
// result with the stated closing balance. The balances reconcile iff the
// absolute discrepancy is within the tolerance.
func Reconcile(opening, closing model.Money, txns []model.Transaction, opts Options) (Result, error) {
	totals, err := Sum(txns)
	if err != nil {
		return Result{}, err
	}

	cur, err := commonCurrency(opening.Currency, closing.Currency, totals.Currency)
	if err != nil {
		return Result{}, err
	}

	tol := opts.Tolerance
	if !tol.IsPositive() {
		tol = Tolerance(cur)
	}

	computed := opening.Amount.Add(totals.NetChange)
	diff := computed.Sub(closing.Amount)

	res := Result{
		Opening:         model.Money{Amount: opening.Amount, Currency: cur},
		Closing:         model.Money{Amount: closing.Amount, Currency: cur},
		TotalCredits:    model.Money{Amount: totals.Credits, Currency: cur},
		TotalDebits:     model.Money{Amount: totals.Debits, Currency: cur},
		NetChange:       model.Money{Amount: totals.NetChange, Currency: cur},
		ComputedClosing: model.Money{Amount: computed, Currency: cur},
		Difference:      diff,
		Discrepancy:     diff.Abs(),
		Tolerance:       tol,
		Count:           totals.Count,
	}
	res.Reconciles = res.Discrepancy.LessThanOrEqual(tol)
	if !res.Reconciles {
		res.Reason = discrepancyReason(res)
	}
	return res, nil
}

// Tolerance returns half of the currency's minor unit: 0.005 for USD, 0.5 for
// JPY. Unknown or empty codes are treated as two-decimal currencies.
func Tolerance(currency string) decimal.Decimal {
	fraction := 2
	if c := money.GetCurrency(model.NormalizeCurrency(currency)); c != nil {
		fraction = c.Fraction
	}
	return decimal.New(5, -int32(fraction+1))
}

func commonCurrency(codes ...string) (string, error) {
	var cur string
	for _, c := range codes {
		c = model.NormalizeCurrency(c)
		if c == "" {
			continue
		}
		if cur == "" {
			cur = c
			continue
		}
		if c != cur {
			return "", fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, cur, c)
		}
	}
	return cur, nil
}

func discrepancyReason(r Result) string {
	var b strings.Builder
	b.WriteString("Discrepancy detected:\n")
	fmt.Fprintf(&b, "  Opening balance: %s\n", r.Opening)
	fmt.Fprintf(&b, "  Total credits: %s\n", r.TotalCredits)
	fmt.Fprintf(&b, "  Total debits: %s\n", r.TotalDebits)
	fmt.Fprintf(&b, "  Net change: %s\n", r.NetChange)
	fmt.Fprintf(&b, "  Computed closing balance: %s\n", r.ComputedClosing)
	fmt.Fprintf(&b, "  Reported closing balance: %s\n", r.Closing)
	fmt.Fprintf(&b, "  Difference: %s (tolerance %s)\n", r.Discrepancy.StringFixed(2), r.Tolerance.String())
	b.WriteString("This may be due to missing transactions, fees not captured in the transaction list, or extraction errors.")
	return b.String()
}
