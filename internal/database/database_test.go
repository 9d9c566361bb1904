package database

import (
	"context"
	"testing"
	"time"

	"rentalhub/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := &models.User{Email: "  Jane.Doe@Example.COM ", FullName: "Jane Doe", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	// Email lookup is normalized.
	got, err := db.GetUserByEmail(ctx, "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "jane.doe@example.com", got.Email)

	got, err = db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FullName)

	_, err = db.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProducts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := &models.User{Email: "owner@example.com", FullName: "Owner", IsActive: true}
	require.NoError(t, db.CreateUser(ctx, owner))

	product := &models.Product{
		OwnerID:     owner.ID,
		Name:        "Pressure washer",
		Description: "2000 PSI",
		PricePerDay: decimal.RequireFromString("18.99"),
		IsActive:    true,
		IsAvailable: true,
	}
	require.NoError(t, db.CreateProduct(ctx, product))

	got, err := db.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.OwnerID)
	assert.True(t, got.PricePerDay.Equal(decimal.RequireFromString("18.99")))
	assert.True(t, got.IsAvailable)

	require.NoError(t, db.SetProductAvailability(ctx, product.ID, false))
	got, err = db.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)

	inactive := &models.Product{OwnerID: owner.ID, Name: "Old mower", PricePerDay: decimal.NewFromInt(5)}
	require.NoError(t, db.CreateProduct(ctx, inactive))

	active, err := db.ListActiveProducts(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, product.ID, active[0].ID)

	assert.ErrorIs(t, db.SetProductAvailability(ctx, 9999, true), ErrNotFound)
}

func TestNotificationTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	task := &models.NotificationTask{Kind: "request_created", RentalID: 1, RecipientID: 2, Payload: `{"rental_id":1}`}
	require.NoError(t, db.CreateNotificationTask(ctx, task))
	require.NotZero(t, task.ID)
	assert.Equal(t, "pending", task.Status)

	pending, err := db.GetPendingNotificationTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, task.ID, pending[0].ID)

	t.Run("RetryBackoff", func(t *testing.T) {
		future := time.Now().UTC().Add(time.Hour)
		require.NoError(t, db.UpdateNotificationTaskStatus(ctx, task.ID, "retry", "send failed", &future))

		// Backoff not expired yet.
		pending, err := db.GetPendingNotificationTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)

		past := time.Now().UTC().Add(-time.Minute)
		require.NoError(t, db.UpdateNotificationTaskStatus(ctx, task.ID, "retry", "send failed", &past))

		pending, err = db.GetPendingNotificationTasks(ctx, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 2, pending[0].RetryCount)
		require.NotNil(t, pending[0].LastError)
		assert.Equal(t, "send failed", *pending[0].LastError)
	})

	t.Run("CompletedLeavesQueue", func(t *testing.T) {
		require.NoError(t, db.UpdateNotificationTaskStatus(ctx, task.ID, "completed", "", nil))
		pending, err := db.GetPendingNotificationTasks(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}
