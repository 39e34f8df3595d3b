// Package id gives statement transactions stable identifiers.
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

// undatedPrefix replaces YYYY-MM for transactions whose date is unknown.
const undatedPrefix = "undated"

// FormatTxnID returns an ID like "2025-01-001".
func FormatTxnID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatUndatedID returns an ID like "undated-001".
func FormatUndatedID(seq int) string {
	return fmt.Sprintf("%s-%03d", undatedPrefix, seq)
}

// ParseTxnID parses "2025-01-001" into year, month, seq.
func ParseTxnID(id string) (year, month, seq int, err error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q: %w", id, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month out of range in transaction ID %q", id)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// Assign sets ID on every transaction in place. A bank reference is used as
// the ID, with "-2", "-3", ... appended to its later repeats; otherwise
// transactions are numbered in statement order within their month, and
// undated ones in a separate sequence.
func Assign(txns []model.Transaction) {
	seqs := make(map[string]int)
	refs := make(map[string]int)
	for i := range txns {
		t := &txns[i]
		if ref := strings.TrimSpace(t.Reference); ref != "" {
			refs[ref]++
			t.ID = ref
			if n := refs[ref]; n > 1 {
				t.ID = fmt.Sprintf("%s-%d", ref, n)
			}
			continue
		}
		if t.Date.IsZero() {
			seqs[undatedPrefix]++
			t.ID = FormatUndatedID(seqs[undatedPrefix])
			continue
		}
		key := t.Date.Format("2006-01")
		seqs[key]++
		t.ID = FormatTxnID(t.Date.Year(), int(t.Date.Month()), seqs[key])
	}
}
