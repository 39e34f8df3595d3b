package model

import "strings"

// Address is the mailing address of the account holder.
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// String joins the non-empty parts with ", ".
func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.Zip, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether every part of the address is blank.
func (a Address) IsZero() bool {
	return a.String() == ""
}

// BusinessInfo identifies the account holder. Extracted once per document.
type BusinessInfo struct {
	Name    string
	Address Address
}

// StatementVerdict is the answer to "is this a bank statement?".
type StatementVerdict struct {
	IsBankStatement bool
	Reason          string
}

// PageAudit is the forensic assessment of a single page.
type PageAudit struct {
	Valid       bool
	Confidence  int // 0-100
	Issues      []string
	Explanation string
}
