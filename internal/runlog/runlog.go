// Package runlog keeps a CSV history of analyses, one row per run.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/stmtcheck/internal/statement"
)

// FileName is the run log's name inside its directory.
const FileName = "stmtcheck-runs.csv"

// Header is the CSV header for the run log.
const Header = "run_id,timestamp,file,verdict,reason,transactions,discrepancy"

// Verdicts, named after the first stage that failed.
const (
	VerdictValid               = "valid"
	VerdictNotBankStatement    = "not_bank_statement"
	VerdictInvalidBusinessInfo = "invalid_business_info"
	VerdictInvalidBalances     = "invalid_balances"
	VerdictError               = "error"
)

const (
	numFields       = 7
	colRunID        = 0
	colTimestamp    = 1
	colFile         = 2
	colVerdict      = 3
	colReason       = 4
	colTransactions = 5
	colDiscrepancy  = 6
)

// Entry is one row in the run log.
type Entry struct {
	RunID        string
	Timestamp    time.Time
	File         string
	Verdict      string
	Reason       string // first line only
	Transactions int
	Discrepancy  string // empty unless the balances were reconciled
}

// NewEntry builds the entry for one analysis of file. A non-nil err records a
// pipeline failure; a is ignored in that case.
func NewEntry(file string, now time.Time, a *statement.Analysis, err error) Entry {
	e := Entry{
		RunID:     uuid.NewString(),
		Timestamp: now.UTC().Truncate(time.Second),
		File:      file,
	}
	if err != nil || a == nil {
		e.Verdict = VerdictError
		if err != nil {
			e.Reason = firstLine(err.Error())
		}
		return e
	}

	e.Verdict = Verdict(a)
	e.Reason = firstLine(a.Reason)
	e.Transactions = len(a.Transactions)
	if a.Reconciliation != nil {
		e.Discrepancy = a.Reconciliation.Discrepancy.StringFixed(2)
	}
	return e
}

// Verdict names the outcome of a.
func Verdict(a *statement.Analysis) string {
	switch {
	case a.Valid():
		return VerdictValid
	case !a.IsBankStatement:
		return VerdictNotBankStatement
	case !a.ValidBusinessInfo:
		return VerdictInvalidBusinessInfo
	default:
		return VerdictInvalidBalances
	}
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(s)
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colRunID] = e.RunID
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colFile] = e.File
	row[colVerdict] = e.Verdict
	row[colReason] = e.Reason
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colDiscrepancy] = e.Discrepancy
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	n, err := strconv.Atoi(record[colTransactions])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing transaction count %q: %w", record[colTransactions], err)
	}

	return Entry{
		RunID:        record[colRunID],
		Timestamp:    ts,
		File:         record[colFile],
		Verdict:      record[colVerdict],
		Reason:       record[colReason],
		Transactions: n,
		Discrepancy:  record[colDiscrepancy],
	}, nil
}

// Append writes entries to <dir>/stmtcheck-runs.csv, creating the directory,
// file and header if needed.
func Append(dir string, entries ...Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/stmtcheck-runs.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
