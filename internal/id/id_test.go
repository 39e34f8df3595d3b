package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

func TestFormatTxnID(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2025, 1, 1, "2025-01-001"},
		{2025, 12, 99, "2025-12-099"},
		{2025, 1, 123, "2025-01-123"},
	}
	for _, tt := range tests {
		got := FormatTxnID(tt.year, tt.month, tt.seq)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseTxnID(t *testing.T) {
	tests := []struct {
		input               string
		wantYear, wantMonth int
		wantSeq             int
	}{
		{"2025-01-001", 2025, 1, 1},
		{"2025-12-099", 2025, 12, 99},
		{"2024-02-1500", 2024, 2, 1500},
	}
	for _, tt := range tests {
		year, month, seq, err := ParseTxnID(tt.input)
		require.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.wantYear, year)
		assert.Equal(t, tt.wantMonth, month)
		assert.Equal(t, tt.wantSeq, seq)
	}
}

func TestParseTxnID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"not-valid",
		"2025-01",
		"xxxx-01-001",
		"2025-13-001",
		"undated-001",
	}
	for _, input := range badInputs {
		_, _, _, err := ParseTxnID(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestAssign(t *testing.T) {
	jan := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	txns := []model.Transaction{
		{Date: jan},
		{Date: jan, Reference: " CHK-1042 "},
		{Date: feb},
		{},
		{Date: jan},
		{},
	}
	Assign(txns)

	got := make([]string, len(txns))
	for i, t := range txns {
		got[i] = t.ID
	}
	assert.Equal(t, []string{
		"2025-01-001",
		"CHK-1042",
		"2025-02-001",
		"undated-001",
		"2025-01-002",
		"undated-002",
	}, got)
}

func TestAssign_RepeatedReference(t *testing.T) {
	day := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	txns := []model.Transaction{
		{Date: day, Reference: "chase_20250103_GITHUBPROS"},
		{Date: day, Reference: "chase_20250103_GITHUBPROS"},
		{Date: day, Reference: "chase_20250103_AWSEMEA"},
		{Date: day, Reference: "chase_20250103_GITHUBPROS "},
	}
	Assign(txns)

	assert.Equal(t, "chase_20250103_GITHUBPROS", txns[0].ID)
	assert.Equal(t, "chase_20250103_GITHUBPROS-2", txns[1].ID)
	assert.Equal(t, "chase_20250103_AWSEMEA", txns[2].ID)
	assert.Equal(t, "chase_20250103_GITHUBPROS-3", txns[3].ID)

	seen := make(map[string]bool)
	for _, txn := range txns {
		assert.False(t, seen[txn.ID], "duplicate ID %s", txn.ID)
		seen[txn.ID] = true
	}
}

func TestAssign_Deterministic(t *testing.T) {
	mk := func() []model.Transaction {
		d := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
		return []model.Transaction{{Date: d}, {Date: d}, {}}
	}
	a, b := mk(), mk()
	Assign(a)
	Assign(b)
	assert.Equal(t, a, b)
}
