package expense

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_OnTotalAmount_ShouldSumExpenses(t *testing.T) {
	agg := Aggregate{
		Expenses: []Record{
			{Amount: decimal.RequireFromString("10.10")},
			{Amount: decimal.RequireFromString("20.20")},
			{Amount: decimal.RequireFromString("0.70")},
		},
	}

	assert.True(t, decimal.RequireFromString("31").Equal(agg.TotalAmount()))
}

func Test_OnTotalAmount_ShouldBeZeroForEmptyDraft(t *testing.T) {
	agg := Aggregate{IsDraft: true}

	assert.True(t, agg.TotalAmount().IsZero())
}
