package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-orders/internal/domain"
)

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"well formed", `[{"id":"m1","name":"コーヒー","price":300,"quantity":2}]`, true},
		{"free item", `[{"id":"m2","name":"water","price":0,"quantity":1}]`, true},
		{"not an array", `{"id":"m1"}`, false},
		{"empty array", `[]`, false},
		{"unknown field", `[{"id":"m1","name":"x","price":1,"quantity":1,"note":"hot"}]`, false},
		{"missing quantity", `[{"id":"m1","name":"x","price":1}]`, false},
		{"price as string", `[{"id":"m1","name":"x","price":"300","quantity":1}]`, false},
		{"fractional price", `[{"id":"m1","name":"x","price":1.5,"quantity":1}]`, false},
		{"negative price", `[{"id":"m1","name":"x","price":-1,"quantity":1}]`, false},
		{"zero quantity", `[{"id":"m1","name":"x","price":1,"quantity":0}]`, false},
		{"blank id", `[{"id":"  ","name":"x","price":1,"quantity":1}]`, false},
		{"not json", `[{`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateItems([]byte(tt.raw))
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestOrderRepository_GetRejectsItemsOutsideSchema(t *testing.T) {
	repo, db := newRepo(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO orders (id, table_name, status, items, created_at) VALUES (?, ?, ?, ?, ?)`,
		"extra-field", "Table D", "unprovided", `[{"id":"m1","name":"x","price":1,"quantity":1,"legacy":true}]`, time.Now().UTC())
	require.NoError(t, err)

	_, err = repo.OrderRepo.GetOrder(ctx, "extra-field")
	assert.ErrorIs(t, err, domain.ErrMalformedOrder)

	list, err := repo.OrderRepo.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
