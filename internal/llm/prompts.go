package llm

import (
	"strings"
	"text/template"
)

// prompt is a system/user message pair. The user message is a template over
// promptData.
type prompt struct {
	name   string
	system string
	user   *template.Template
}

type promptData struct {
	Text string
	Page int
}

func newPrompt(name, system, user string) prompt {
	return prompt{
		name:   name,
		system: strings.TrimSpace(system),
		user:   template.Must(template.New(name).Parse(strings.TrimSpace(user))),
	}
}

func (p prompt) render(data promptData) (string, error) {
	var b strings.Builder
	if err := p.user.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

var bankInfoPrompt = newPrompt("bank_info", `
You are an expert in analyzing financial documents. Your task is to check if the provided document contains bank information.

Look for:
- Bank name
- Bank logo mention
- Bank contact information
- Branch details

Set "is_bank_statement" to true only if bank information is present, and explain your determination briefly in "reason".
`, `
Here is the text from a document. Check if it contains bank information.

{{.Text}}
`)

var statementPeriodPrompt = newPrompt("statement_period", `
You are an expert in analyzing financial documents. Your task is to check if the provided document contains statement period information.

Look for:
- Statement period start date
- Statement period end date
- Any mention of "statement period" or similar terms

Set "is_bank_statement" to true only if statement period information is present, and explain your determination briefly in "reason".
`, `
Here is the text from a document. Check if it contains statement period information.

{{.Text}}
`)

var customerInfoPrompt = newPrompt("customer_info", `
You are an expert in analyzing financial documents. Your task is to check if the provided document contains customer information.

Look for:
- Account holder name (individual or business)
- Account number (full or partial)
- Customer address
- Any other customer identifiers

Set "is_bank_statement" to true only if customer information is present, and explain your determination briefly in "reason".
`, `
Here is the text from a document. Check if it contains customer information.

{{.Text}}
`)

var classifyPrompt = newPrompt("classify_statement", `
You are an expert in analyzing financial documents. Your task is to determine if the provided document is a business bank statement or not.

Look for key indicators such as:
- Account information
- Transaction history
- Beginning and ending balances
- Bank name or logo
- Statement period dates
- Account type (Business Checking, Commercial Account, etc.) and a business as the account holder

Your response should be clear and direct. If it is NOT a bank statement, explain in "reason" what type of document it appears to be instead.
`, `
Here is the text from a document. Determine if it is a bank statement or not, with a brief reason.

{{.Text}}
`)

var businessInfoPrompt = newPrompt("business_info", `
You are an expert at extracting business information from bank statements.

Given the text from a bank statement, extract the BUSINESS NAME and ADDRESS of the account holder.
DO NOT extract the bank's name or the bank's address.

The business name is the name of the company or individual that owns the account.
It is typically found near the top of the statement, often labeled as "Account Holder", "Customer", "Business Name", or similar.
The address is the mailing address of the account holder and is typically found near the business name.

If you cannot find a clear business name or address, return empty strings.
Do not make up or guess information that is not clearly present.
`, `
Bank Statement Text:
{{.Text}}
`)

var balancesPrompt = newPrompt("balances", `
You are a financial document analyzer specialized in extracting balance information from bank statements.

Extract:
1. Opening balance - the starting balance for the statement period
2. Opening date - the date of the opening balance
3. Closing balance - the ending balance for the statement period
4. Closing date - the date of the closing balance

Amounts are decimal numbers without currency symbols or thousands separators. Leave an amount empty if it is not stated.
`, `
{{.Text}}
`)

var transactionsPrompt = newPrompt("page_transactions", `
You are a financial document analyzer specialized in extracting transaction data from bank statements.

Your task is to extract all transactions from the provided bank statement page.

For each transaction, extract:
1. Date - in YYYY-MM-DD format
2. Reference - the transaction ID (if available)
3. Description - the transaction description or payee
4. Amount - the transaction amount as a decimal number
5. Currency - the currency code (USD, EUR, etc.)
6. Type - whether this is a "debit" (money leaving the account) or "credit" (money entering the account)

For debits use NEGATIVE amounts (e.g. -100.00), for credits POSITIVE amounts (e.g. 100.00).
Do not include currency symbols in the amount field.

"Withdrawal", "Payment", "Debit" and "Charge" are debits.
"Deposit", "Credit", "Refund" and "Interest" are credits.

Do not report opening or closing balances as transactions. Return an empty list if the page has none.
`, `
Page {{.Page}}:

{{.Text}}
`)

var auditPrompt = newPrompt("page_audit", `
You are an expert in document forensics and integrity verification. Your task is to analyze a bank statement page for signs of tampering, forgery, or other integrity issues.

Look for:
- Signs the text has been visibly modified or tampered with
- Indications of hidden or overlaid text
- Template placeholders or dummy data
- Inconsistencies in formatting or data
- Unusual patterns that suggest forgery

Report a confidence between 0 and 100 and list each specific issue found.
`, `
Here is the text from page {{.Page}} of a bank statement document. Analyze it for integrity issues.

{{.Text}}
`)
