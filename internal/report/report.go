// Package report renders an analysis for people (text) and for other tools
// (JSON, CSV, XLSX).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/stmtcheck/internal/model"
	"github.com/cleared-dev/stmtcheck/internal/pdftext"
	"github.com/cleared-dev/stmtcheck/internal/reconcile"
	"github.com/cleared-dev/stmtcheck/internal/statement"
)

// DefaultSample is the number of transactions listed in a text report.
const DefaultSample = 5

// WriteText writes the human-readable report. Stages after the first failed
// one are not shown. At most sample transactions are listed.
func WriteText(w io.Writer, a *statement.Analysis, sample int) error {
	p := &printer{w: w}

	p.line("=== ANALYSIS RESULTS ===")
	if a.Integrity != nil && !a.Integrity.Valid {
		p.line("Integrity warning: %s", integrityMessage(a))
	}

	if !a.IsBankStatement {
		p.line("Document is NOT a bank statement")
		p.line("Reason: %s", orUnknown(a.Reason))
		return p.err
	}
	p.line("Document is a bank statement")

	p.line("")
	p.line("Business Information:")
	p.line("  Name:    %s", a.Business.Name)
	p.line("  Address: %s", a.Business.Address)
	if !a.ValidBusinessInfo {
		p.line("")
		p.line("Business information is invalid")
		p.line("Reason: %s", orUnknown(a.Reason))
		return p.err
	}

	p.line("")
	p.line("Balance Analysis:")
	if r := a.Reconciliation; r != nil {
		writeBalances(p, a.Balances, r)
	} else {
		p.line("  Opening balance: %s", a.Balances.Opening)
		p.line("  Closing balance: %s", a.Balances.Closing)
	}
	if !a.ValidBalances {
		p.line("")
		p.line("Balances do not reconcile")
		p.line("Reason: %s", orUnknown(a.Reason))
	}

	p.line("")
	p.line("Transactions: %d found", len(a.Transactions))
	if a.Truncated {
		p.line("  (list truncated at the transaction limit)")
	}
	writeSample(p, a.Transactions, sample)
	return p.err
}

func writeBalances(p *printer, b model.BalanceSummary, r *reconcile.Result) {
	p.line("  Opening balance:          %s%s", r.Opening, dated(b.OpeningDate))
	p.line("  Closing balance:          %s%s", r.Closing, dated(b.ClosingDate))
	p.line("  Total credits:            %s", r.TotalCredits)
	p.line("  Total debits:             %s", r.TotalDebits)
	p.line("  Net change:               %s", r.NetChange)
	p.line("  Computed closing balance: %s", r.ComputedClosing)
	p.line("  Discrepancy:              %s", r.Discrepancy.StringFixed(2))
	p.line("  Reconciles:               %s", yesNo(r.Reconciles))
}

func writeSample(p *printer, txns []model.Transaction, sample int) {
	if sample < 0 {
		sample = DefaultSample
	}
	if sample == 0 || len(txns) == 0 {
		return
	}
	p.line("Sample transactions:")
	n := min(sample, len(txns))
	for i, txn := range txns[:n] {
		p.line("  %d. %s", i+1, txn)
	}
	if rest := len(txns) - n; rest > 0 {
		p.line("  ... and %d more transactions", rest)
	}
}

// WriteReconciliation writes the outcome of an offline reconciliation.
func WriteReconciliation(w io.Writer, r reconcile.Result, txns []model.Transaction, sample int) error {
	p := &printer{w: w}
	p.line("=== RECONCILIATION ===")
	writeBalances(p, model.BalanceSummary{}, &r)
	if !r.Reconciles {
		p.line("")
		p.line("%s", r.Reason)
	}
	p.line("")
	p.line("Transactions: %d found", len(txns))
	writeSample(p, txns, sample)
	return p.err
}

// WriteMetadata writes the PDF metadata, one "Label: value" line per field.
func WriteMetadata(w io.Writer, m pdftext.Metadata) error {
	p := &printer{w: w}
	p.line("PDF Metadata:")
	for _, f := range m.Fields() {
		p.line("%s: %s", f[0], f[1])
	}
	return p.err
}

// printer remembers the first write error so callers can check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func integrityMessage(a *statement.Analysis) string {
	if a.Integrity.Page > 0 {
		return fmt.Sprintf("page %d: %s", a.Integrity.Page, a.Integrity.Message)
	}
	return a.Integrity.Message
}

func dated(date string) string {
	if strings.TrimSpace(date) == "" {
		return ""
	}
	return " (" + date + ")"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// JSON shapes. Amounts are strings so no precision is lost.
type (
	jsonReport struct {
		Valid             bool              `json:"valid"`
		IsBankStatement   bool              `json:"is_bank_statement"`
		ValidBusinessInfo bool              `json:"valid_business_info"`
		ValidBalances     bool              `json:"valid_balances"`
		Reason            string            `json:"reason,omitempty"`
		Integrity         *jsonIntegrity    `json:"integrity,omitempty"`
		Business          *jsonBusiness     `json:"business_info,omitempty"`
		Balances          *jsonBalances     `json:"balance_analysis,omitempty"`
		TransactionCount  int               `json:"transaction_count"`
		Truncated         bool              `json:"truncated,omitempty"`
		Transactions      []jsonTransaction `json:"transactions"`
	}

	jsonIntegrity struct {
		Valid   bool   `json:"valid"`
		Page    int    `json:"page,omitempty"`
		Message string `json:"message,omitempty"`
	}

	jsonBusiness struct {
		Name          string `json:"name"`
		NameValid     bool   `json:"name_valid"`
		NameReason    string `json:"name_reason,omitempty"`
		Address       string `json:"address"`
		AddressValid  bool   `json:"address_valid"`
		AddressReason string `json:"address_reason,omitempty"`
		Zip           string `json:"zip,omitempty"`
	}

	jsonBalances struct {
		OpeningBalance  string `json:"opening_balance"`
		OpeningDate     string `json:"opening_date,omitempty"`
		ClosingBalance  string `json:"closing_balance"`
		ClosingDate     string `json:"closing_date,omitempty"`
		Currency        string `json:"currency,omitempty"`
		TotalCredits    string `json:"total_credits,omitempty"`
		TotalDebits     string `json:"total_debits,omitempty"`
		NetChange       string `json:"net_change,omitempty"`
		ComputedClosing string `json:"expected_closing_balance,omitempty"`
		Discrepancy     string `json:"discrepancy,omitempty"`
		Tolerance       string `json:"tolerance,omitempty"`
		Reconciles      bool   `json:"reconciles"`
	}

	jsonTransaction struct {
		ID          string `json:"id,omitempty"`
		Date        string `json:"date,omitempty"`
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency,omitempty"`
		Type        string `json:"type"`
		Reference   string `json:"reference,omitempty"`
		Page        int    `json:"page,omitempty"`
	}
)

// WriteJSON writes the full analysis, every transaction included.
func WriteJSON(w io.Writer, a *statement.Analysis) error {
	out := jsonReport{
		Valid:             a.Valid(),
		IsBankStatement:   a.IsBankStatement,
		ValidBusinessInfo: a.ValidBusinessInfo,
		ValidBalances:     a.ValidBalances,
		Reason:            a.Reason,
		TransactionCount:  len(a.Transactions),
		Truncated:         a.Truncated,
		Transactions:      make([]jsonTransaction, 0, len(a.Transactions)),
	}
	if a.Integrity != nil {
		out.Integrity = &jsonIntegrity{Valid: a.Integrity.Valid, Page: a.Integrity.Page, Message: a.Integrity.Message}
	}
	if a.IsBankStatement {
		b := a.Business
		out.Business = &jsonBusiness{
			Name:          b.Name,
			NameValid:     b.NameValid,
			NameReason:    b.NameReason,
			Address:       b.Address.String(),
			AddressValid:  b.AddressValid,
			AddressReason: b.AddressReason,
			Zip:           b.Zip,
		}
	}
	if a.IsBankStatement && a.ValidBusinessInfo {
		out.Balances = balancesJSON(a)
	}
	for _, t := range a.Transactions {
		out.Transactions = append(out.Transactions, transactionJSON(t))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

func balancesJSON(a *statement.Analysis) *jsonBalances {
	b := &jsonBalances{
		OpeningBalance: a.Balances.Opening.Amount.StringFixed(2),
		OpeningDate:    a.Balances.OpeningDate,
		ClosingBalance: a.Balances.Closing.Amount.StringFixed(2),
		ClosingDate:    a.Balances.ClosingDate,
		Currency:       a.Balances.Closing.Currency,
		Reconciles:     a.ValidBalances,
	}
	if r := a.Reconciliation; r != nil {
		b.Currency = r.ComputedClosing.Currency
		b.TotalCredits = r.TotalCredits.Amount.StringFixed(2)
		b.TotalDebits = r.TotalDebits.Amount.StringFixed(2)
		b.NetChange = r.NetChange.Amount.StringFixed(2)
		b.ComputedClosing = r.ComputedClosing.Amount.StringFixed(2)
		b.Discrepancy = r.Discrepancy.StringFixed(2)
		b.Tolerance = r.Tolerance.String()
	}
	return b
}

func transactionJSON(t model.Transaction) jsonTransaction {
	out := jsonTransaction{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Signed().StringFixed(2),
		Currency:    t.Currency,
		Type:        string(t.Direction),
		Reference:   t.Reference,
		Page:        t.Page,
	}
	if !t.Date.IsZero() {
		out.Date = t.Date.Format("2006-01-02")
	}
	return out
}
