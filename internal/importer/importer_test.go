package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmtcheck/internal/model"
)

func TestChaseParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Len(t, txns, 6)

	// First: GITHUB subscription
	assert.Equal(t, "GITHUB *PRO SUBSCRIPTION", txns[0].Description)
	assert.Equal(t, "-4.00", txns[0].Signed().StringFixed(2))
	assert.Equal(t, model.Debit, txns[0].Direction)
	assert.Equal(t, "USD", txns[0].Currency)
	assert.Equal(t, 2025, txns[0].Date.Year())
	assert.Equal(t, 1, int(txns[0].Date.Month()))
	assert.Equal(t, 3, txns[0].Date.Day())

	// Fourth: ACME income (positive)
	assert.Equal(t, "ACME CONSULTING INVOICE 1042", txns[3].Description)
	assert.Equal(t, model.Credit, txns[3].Direction)
	assert.Equal(t, "3500.00", txns[3].Amount.StringFixed(2))

	// Quoted description with a comma.
	assert.Equal(t, "COMCAST BUSINESS, INTERNET", txns[4].Description)
}

func TestChaseParser_DateParsing(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	// Jan 22
	last := txns[5]
	assert.Equal(t, 2025, last.Date.Year())
	assert.Equal(t, 1, int(last.Date.Month()))
	assert.Equal(t, 22, last.Date.Day())
}

func TestChaseParser_Directions(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	for _, txn := range txns {
		assert.False(t, txn.Amount.IsNegative(), "amount is a magnitude for %s", txn.Description)
		if txn.Description == "ACME CONSULTING INVOICE 1042" {
			assert.Equal(t, model.Credit, txn.Direction)
		} else {
			assert.Equal(t, model.Debit, txn.Direction, "expected debit for %s", txn.Description)
		}
	}
}

func TestChaseParser_EmptyFile(t *testing.T) {
	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader("Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"))
	require.NoError(t, err)
	assert.Nil(t, txns)
}

func TestChaseParser_BadDate(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,NOTADATE,desc,-4.00,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")
}

func TestChaseParser_BadAmount(t *testing.T) {
	csv := "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\nDEBIT,01/03/2025,desc,NOTANUMBER,ACH_DEBIT,100.00,\n"
	p := &ChaseParser{}
	_, err := p.Parse(strings.NewReader(csv))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")
}

func TestChaseParser_Format(t *testing.T) {
	p := &ChaseParser{}
	assert.Equal(t, "chase", p.Format())
}

func TestChaseParser_Reference(t *testing.T) {
	data, err := os.ReadFile("../../testdata/chase_checking.csv")
	require.NoError(t, err)

	p := &ChaseParser{}
	txns, err := p.Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	// Reference format: chase_YYYYMMDD_<prefix>[_<check>]
	assert.Equal(t, "chase_20250103_GITHUBPROS", txns[0].Reference)
	assert.Equal(t, "chase_20250122_CHECK1001_1001", txns[5].Reference)
}

const chaseHeader = "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n"

func TestChaseParser_DirectionMismatch(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"credit details on a withdrawal", "CREDIT,01/03/2025,REFUND,-4.00,ACH_CREDIT,100.00,\n"},
		{"check paid as a deposit", "CHECK,01/03/2025,CHECK 1002,75.00,CHECK_PAID,100.00,1002\n"},
		{"debit type without details", ",01/03/2025,AWS,12.00,ACH_DEBIT,100.00,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&ChaseParser{}).Parse(strings.NewReader(chaseHeader + tt.row))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDirectionMismatch)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestChaseParser_DirectionHints(t *testing.T) {
	rows := "DSLIP,01/04/2025,DEPOSIT ID 7781,250.00,CHECK_DEPOSIT,350.00,\n" +
		",01/05/2025,MONTHLY SERVICE FEE,-15.00,FEE_TRANSACTION,335.00,\n" +
		"DEBIT,01/06/2025,CARD VERIFICATION,0.00,DEBIT_CARD,335.00,\n" +
		",01/07/2025,ADJUSTMENT,0.00,MISC,335.00,\n"

	txns, err := (&ChaseParser{}).Parse(strings.NewReader(chaseHeader + rows))
	require.NoError(t, err)
	require.Len(t, txns, 4)
	assert.Equal(t, model.Credit, txns[0].Direction)
	assert.Equal(t, model.Debit, txns[1].Direction)
	// Zero amounts take the stated direction, or default to credit.
	assert.Equal(t, model.Debit, txns[2].Direction)
	assert.Equal(t, model.Credit, txns[3].Direction)
}

func TestChaseParser_ColumnsByHeader(t *testing.T) {
	data := "Posting Date,Amount,Description\n01/09/2025,-9.99,DROPBOX\n"

	txns, err := (&ChaseParser{}).Parse(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "DROPBOX", txns[0].Description)
	assert.Equal(t, "-9.99", txns[0].Signed().StringFixed(2))
	assert.Equal(t, "chase_20250109_DROPBOX", txns[0].Reference)
}

func TestChaseParser_MissingColumn(t *testing.T) {
	data := "Details,Posting Date,Description,Type\nDEBIT,01/03/2025,AWS,ACH_DEBIT\n"

	_, err := (&ChaseParser{}).Parse(strings.NewReader(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing the "Amount" column`)
}

func TestChaseParser_RepeatedRowsShareReference(t *testing.T) {
	row := "DEBIT,01/03/2025,GITHUB *PRO SUBSCRIPTION,-4.00,ACH_DEBIT,4996.00,\n"

	txns, err := (&ChaseParser{}).Parse(strings.NewReader(chaseHeader + row + row))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, txns[0].Reference, txns[1].Reference)
}

func TestGenericParser_Parse(t *testing.T) {
	data, err := os.ReadFile("../../testdata/transactions.csv")
	require.NoError(t, err)

	txns, err := (&GenericParser{}).Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "Client deposit", txns[0].Description)
	assert.Equal(t, model.Credit, txns[0].Direction)
	assert.True(t, decimal.NewFromInt(1500).Equal(txns[0].Amount))
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), txns[0].Date)

	assert.Equal(t, model.Debit, txns[1].Direction)
	assert.Equal(t, "CHK 1042", txns[1].Reference)

	// type column overrides the positive amount.
	assert.Equal(t, model.Debit, txns[2].Direction)
	assert.Equal(t, "-15.00", txns[2].Signed().StringFixed(2))
}

func TestGenericParser_MinimalColumns(t *testing.T) {
	in := "description,amount\nCoffee,-3.50\nRefund,3.50\n"
	txns, err := (&GenericParser{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.True(t, txns[0].Date.IsZero())
	assert.Empty(t, txns[0].Currency)
	assert.Equal(t, model.Debit, txns[0].Direction)
}

func TestGenericParser_Errors(t *testing.T) {
	_, err := (&GenericParser{}).Parse(strings.NewReader("date,description,amount\n01/05/2025,x,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2: parsing date")

	_, err = (&GenericParser{}).Parse(strings.NewReader("date,description,amount\n2025-01-05,x,abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")

	_, err = (&GenericParser{}).Parse(strings.NewReader("description,amount,type\nx,1,sideways\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown direction")
}

func TestGenericParser_Empty(t *testing.T) {
	txns, err := (&GenericParser{}).Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestGenericRow_RoundTrip(t *testing.T) {
	orig := model.NewTransaction(time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), "Rent", decimal.RequireFromString("-200"), "usd")
	orig.ID = "2025-01-001"
	orig.Reference = "CHK 1042"
	orig.Page = 2

	var buf bytes.Buffer
	require.NoError(t, gocsv.Marshal([]GenericRow{NewGenericRow(orig)}, &buf))
	assert.Contains(t, buf.String(), "2025-01-09,Rent,-200.00,USD,CHK 1042,debit,2")

	txns, err := (&GenericParser{}).Parse(&buf)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, orig.ID, txns[0].ID)
	assert.Equal(t, orig.Date, txns[0].Date)
	assert.True(t, orig.Amount.Equal(txns[0].Amount))
	assert.Equal(t, orig.Direction, txns[0].Direction)
	assert.Equal(t, "USD", txns[0].Currency)
	assert.Equal(t, 2, txns[0].Page)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	p := r.Get("chase")
	require.NotNil(t, p)
	assert.Equal(t, "chase", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.NotNil(t, r.Get("Chase"))
	assert.NotNil(t, r.Get("CHASE"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	assert.Panics(t, func() { r.Register(&ChaseParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("chase"))
	assert.NotNil(t, r.Get("generic"))
	assert.Equal(t, []string{"chase", "generic"}, r.Formats())
}

func TestParseFile(t *testing.T) {
	r := DefaultRegistry()

	txns, err := r.ParseFile("chase", "../../testdata/chase_checking.csv")
	require.NoError(t, err)
	assert.Len(t, txns, 6)

	_, err = r.ParseFile("ofx", "../../testdata/chase_checking.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "ofx" (known: chase, generic)`)

	_, err = r.ParseFile("generic", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
