package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCart_DropsZeroAndMergesDuplicates(t *testing.T) {
	items, err := NormalizeCart([]OrderItem{
		{ID: "m1", Name: "コーヒー", Price: 300, Quantity: 1},
		{ID: "m2", Name: "紅茶", Price: 350, Quantity: 0},
		{ID: "m1", Name: "coffee", Price: 999, Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, OrderItem{ID: "m1", Name: "コーヒー", Price: 300, Quantity: 2}, items[0])
}

func TestNormalizeCart_Empty(t *testing.T) {
	_, err := NormalizeCart(nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = NormalizeCart([]OrderItem{{ID: "m1", Name: "x", Price: 1, Quantity: 0}})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestNormalizeCart_RejectsInvalid(t *testing.T) {
	_, err := NormalizeCart([]OrderItem{{ID: "m1", Quantity: -1}})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NormalizeCart([]OrderItem{{ID: "", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidItem)

	_, err = NormalizeCart([]OrderItem{{ID: "m1", Quantity: 1, Price: -5}})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestNormalizeTableName_NFC(t *testing.T) {
	decomposed := "\u304b\u3099"
	assert.Equal(t, "\u304c", NormalizeTableName("  "+decomposed+" "))
}

func TestOrderTotal(t *testing.T) {
	o := Order{Items: []OrderItem{
		{ID: "m1", Price: 300, Quantity: 2},
		{ID: "m3", Price: 500, Quantity: 1},
	}}
	assert.Equal(t, 1100, o.Total())
}

func TestValidateStored(t *testing.T) {
	good := Order{
		ID:        "o1",
		TableName: "Table A",
		Status:    StatusUnprovided,
		Items:     []OrderItem{{ID: "m1", Name: "x", Price: 1, Quantity: 1}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, ValidateStored(good))

	noItems := good
	noItems.Items = nil
	assert.ErrorIs(t, ValidateStored(noItems), ErrMalformedOrder)

	badStatus := good.Clone()
	badStatus.Status = "cooking"
	assert.ErrorIs(t, ValidateStored(badStatus), ErrMalformedOrder)

	zeroQty := good.Clone()
	zeroQty.Items[0].Quantity = 0
	assert.ErrorIs(t, ValidateStored(zeroQty), ErrMalformedOrder)
}
