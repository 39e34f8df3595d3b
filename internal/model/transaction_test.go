package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_Direction(t *testing.T) {
	date := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	debit := NewTransaction(date, "GITHUB", decimal.RequireFromString("-4.00"), "usd")
	assert.Equal(t, Debit, debit.Direction)
	assert.Equal(t, "4.00", debit.Amount.StringFixed(2))
	assert.Equal(t, "-4.00", debit.Signed().StringFixed(2))
	assert.Equal(t, "USD", debit.Currency)

	credit := NewTransaction(date, "ACME", decimal.RequireFromString("3500"), "USD")
	assert.Equal(t, Credit, credit.Direction)
	assert.Equal(t, "3500.00", credit.Signed().StringFixed(2))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"debit", Debit},
		{" DEBIT ", Debit},
		{"Withdrawal", Debit},
		{"credit", Credit},
		{"deposit", Credit},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		require.NoError(t, err, "ParseDirection(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseDirection(%q)", tt.in)
	}

	_, err := ParseDirection("sideways")
	assert.Error(t, err)
}

func TestAddressString(t *testing.T) {
	a := Address{Street: "100 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "US"}
	assert.Equal(t, "100 Main St, Springfield, IL, 62701, US", a.String())

	partial := Address{Street: "100 Main St", Zip: "62701"}
	assert.Equal(t, "100 Main St, 62701", partial.String())

	assert.True(t, Address{Street: "  "}.IsZero())
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "1000.50 USD", NewMoney(decimal.RequireFromString("1000.5"), " usd").String())
	assert.Equal(t, "12.00", Money{Amount: decimal.NewFromInt(12)}.String())
}
