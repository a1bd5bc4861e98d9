package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	credits := []Category{CategoryRevenue, CategoryGrant, CategoryLoanPayment, CategoryDebt}
	for _, c := range credits {
		assert.Equal(t, Credit, Classify(c), "category %s", c)
	}

	debits := []Category{
		CategoryShopping, CategoryFood, CategoryTransport, CategoryHousing, CategoryBills,
		CategoryHealth, CategoryEducation, CategoryLeisure, CategoryTaxes, CategoryOther,
		Category("somethingNew"),
	}
	for _, c := range debits {
		assert.Equal(t, Debit, Classify(c), "category %s", c)
	}
}

func TestTransactionViewHidesOwner(t *testing.T) {
	tx := &Transaction{
		ID: 1, UserID: 7, Amount: decimal.NewFromInt(100),
		Category: CategoryRevenue, Type: Credit,
		Date: time.Now().UTC(), CreatedAt: time.Now().UTC(),
	}
	view := NewTransactionView(tx)
	assert.Equal(t, int64(7), view.UserID)
	assert.Nil(t, view.Reason)

	body, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.NotContains(t, decoded, "userId")
	assert.Contains(t, decoded, "reason")
	assert.Nil(t, decoded["reason"])
}

func TestOptional(t *testing.T) {
	type patch struct {
		Reason Optional[string] `json:"reason"`
		Email  Optional[string] `json:"email"`
		Amount Optional[int]    `json:"amount"`
	}

	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"reason": null, "amount": 5}`), &p))

	assert.True(t, p.Reason.Set)
	assert.True(t, p.Reason.Null)
	_, ok := p.Reason.Get()
	assert.False(t, ok)

	assert.False(t, p.Email.Set)

	v, ok := p.Amount.Get()
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	assert.Equal(t, Optional[string]{Value: "x", Set: true}, Some("x"))
	assert.Equal(t, Optional[string]{Set: true, Null: true}, Null[string]())
}
