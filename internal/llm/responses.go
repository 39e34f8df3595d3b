package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

// Structured-output shapes. Field tags drive the generated JSON schema.

type verdictResponse struct {
	IsBankStatement bool   `json:"is_bank_statement" description:"Whether the document passes this check"`
	Reason          string `json:"reason" description:"Reason for the determination"`
}

type addressResponse struct {
	Street  string `json:"street" description:"Street address"`
	City    string `json:"city" description:"City"`
	State   string `json:"state" description:"State"`
	Zip     string `json:"zip" description:"Zip code"`
	Country string `json:"country" description:"Country"`
}

type businessResponse struct {
	Name    string          `json:"name" description:"Name of the business account holder, not the bank"`
	Address addressResponse `json:"address" description:"Mailing address of the account holder, not the bank"`
}

type moneyResponse struct {
	Amount   string `json:"amount" description:"Decimal amount without currency symbols, empty if not stated"`
	Currency string `json:"currency" description:"ISO 4217 currency code"`
}

type balancesResponse struct {
	OpeningBalance moneyResponse `json:"opening_balance" description:"Opening balance amount"`
	OpeningDate    string        `json:"opening_date" description:"Date of the opening balance"`
	ClosingBalance moneyResponse `json:"closing_balance" description:"Closing balance amount"`
	ClosingDate    string        `json:"closing_date" description:"Date of the closing balance"`
}

type transactionResponse struct {
	Date        string `json:"date" description:"Transaction date in YYYY-MM-DD format"`
	Reference   string `json:"reference" description:"Bank transaction ID, empty if none"`
	Description string `json:"description" description:"Transaction description or payee"`
	Amount      string `json:"amount" description:"Signed decimal amount, negative for debits"`
	Currency    string `json:"currency" description:"ISO 4217 currency code"`
	Type        string `json:"type" enum:"debit,credit" description:"debit when money leaves the account, credit when it enters"`
}

type pageTransactionsResponse struct {
	Transactions []transactionResponse `json:"transactions"`
}

type auditResponse struct {
	IsValid        bool     `json:"is_valid" description:"True if the page appears legitimate"`
	Confidence     int      `json:"confidence" description:"Confidence in the assessment, 0-100"`
	IssuesDetected []string `json:"issues_detected" description:"Specific issues found, empty if none"`
	Explanation    string   `json:"explanation" description:"Brief explanation of the determination"`
}

var amountCleaner = strings.NewReplacer(",", "", "$", "", "€", "", "£", "", " ", "", "\u00a0", "")

// parseAmount reads amounts such as "1,234.50", "-$20" and "(20.00)".
func parseAmount(s string) (decimal.Decimal, error) {
	s = amountCleaner.Replace(strings.TrimSpace(s))
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// parseDate returns the zero time when s matches no known layout.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (r verdictResponse) verdict() model.StatementVerdict {
	return model.StatementVerdict{IsBankStatement: r.IsBankStatement, Reason: strings.TrimSpace(r.Reason)}
}

func (r businessResponse) info() model.BusinessInfo {
	return model.BusinessInfo{
		Name: strings.TrimSpace(r.Name),
		Address: model.Address{
			Street:  strings.TrimSpace(r.Address.Street),
			City:    strings.TrimSpace(r.Address.City),
			State:   strings.TrimSpace(r.Address.State),
			Zip:     strings.TrimSpace(r.Address.Zip),
			Country: strings.TrimSpace(r.Address.Country),
		},
	}
}

func (r moneyResponse) money(which string) (model.Money, error) {
	amt, err := parseAmount(r.Amount)
	if err != nil {
		return model.Money{}, fmt.Errorf("%w: %s balance: %v", model.ErrMissingBalance, which, err)
	}
	return model.NewMoney(amt, r.Currency), nil
}

func (r balancesResponse) summary() (model.BalanceSummary, error) {
	opening, err := r.OpeningBalance.money("opening")
	if err != nil {
		return model.BalanceSummary{}, err
	}
	closing, err := r.ClosingBalance.money("closing")
	if err != nil {
		return model.BalanceSummary{}, err
	}
	return model.BalanceSummary{
		Opening:     opening,
		OpeningDate: strings.TrimSpace(r.OpeningDate),
		Closing:     closing,
		ClosingDate: strings.TrimSpace(r.ClosingDate),
	}, nil
}

// transaction converts one extracted row. The type field wins over the
// amount's sign when the two disagree.
func (r transactionResponse) transaction(page int) (model.Transaction, error) {
	amt, err := parseAmount(r.Amount)
	if err != nil {
		return model.Transaction{}, err
	}
	txn := model.NewTransaction(parseDate(r.Date), strings.TrimSpace(r.Description), amt, r.Currency)
	if dir, err := model.ParseDirection(r.Type); err == nil {
		txn.Direction = dir
	}
	txn.Reference = strings.TrimSpace(r.Reference)
	txn.Page = page
	return txn, nil
}

func (r auditResponse) audit() model.PageAudit {
	issues := make([]string, 0, len(r.IssuesDetected))
	for _, s := range r.IssuesDetected {
		if s = strings.TrimSpace(s); s != "" {
			issues = append(issues, s)
		}
	}
	conf := min(max(r.Confidence, 0), 100)
	return model.PageAudit{
		Valid:       r.IsValid,
		Confidence:  conf,
		Issues:      issues,
		Explanation: strings.TrimSpace(r.Explanation),
	}
}
