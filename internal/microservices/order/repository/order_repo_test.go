package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-orders/internal/common/logger"
	"table-orders/internal/connections/database"
	"table-orders/internal/domain"
)

func newRepo(t *testing.T) (*Repository, *database.DB) {
	t.Helper()
	db := database.OpenTestDB(t)
	return New(db, logger.Discard()), db
}

func order(id string, at time.Time) domain.Order {
	return domain.Order{
		ID:        id,
		TableName: "Table A",
		Status:    domain.StatusUnprovided,
		Items:     []domain.OrderItem{{ID: "m1", Name: "コーヒー", Price: 300, Quantity: 2}},
		CreatedAt: at,
	}
}

func TestOrderRepository_AddGetRoundTrip(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.OrderRepo.AddOrder(ctx, order("o1", at)))

	got, err := repo.OrderRepo.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, order("o1", at), got)
}

func TestOrderRepository_GetUnknown(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.OrderRepo.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_ListNewestFirstAndQuarantine(t *testing.T) {
	repo, db := newRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.OrderRepo.AddOrder(ctx, order("old", base)))
	require.NoError(t, repo.OrderRepo.AddOrder(ctx, order("new", base.Add(time.Minute))))

	// rows written by other clients without the item schema
	_, err := db.Exec(`INSERT INTO orders (id, table_name, status, items, created_at) VALUES (?, ?, ?, ?, ?)`,
		"bad-json", "Table B", "unprovided", `{"not":"an array"}`, base.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders (id, table_name, status, items, created_at) VALUES (?, ?, ?, ?, ?)`,
		"zero-qty", "Table C", "unprovided", `[{"id":"m1","name":"x","price":1,"quantity":0}]`, base.Add(3*time.Minute))
	require.NoError(t, err)

	list, err := repo.OrderRepo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)

	_, err = repo.OrderRepo.GetOrder(ctx, "bad-json")
	assert.ErrorIs(t, err, domain.ErrMalformedOrder)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.OrderRepo.AddOrder(ctx, order("o1", time.Now())))

	require.NoError(t, repo.OrderRepo.UpdateStatus(ctx, "o1", domain.StatusPaid))
	got, err := repo.OrderRepo.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, got.Status)

	err = repo.OrderRepo.UpdateStatus(ctx, "nope", domain.StatusPaid)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestDeviceRepository_RegisterIsIdempotent(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.DeviceRepo.RegisterDevice(ctx, "tok-1"))
	require.NoError(t, repo.DeviceRepo.RegisterDevice(ctx, " tok-1 "))
	require.NoError(t, repo.DeviceRepo.RegisterDevice(ctx, "tok-2"))

	devices, err := repo.DeviceRepo.ListDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 2)

	assert.Error(t, repo.DeviceRepo.RegisterDevice(ctx, "  "))
}

func TestDeviceRepository_ListKeepsDuplicateRows(t *testing.T) {
	repo, db := newRepo(t)
	for _, tok := range []string{"a", "a", "b"} {
		_, err := db.Exec(`INSERT INTO pos_devices (fcm_token) VALUES (?)`, tok)
		require.NoError(t, err)
	}
	devices, err := repo.DeviceRepo.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 3)
}
