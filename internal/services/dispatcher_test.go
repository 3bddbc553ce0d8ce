package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tezkor/internal/models"
)

func TestDispatchPending(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)

	require.NoError(t, svc.UpdateOrderStatus(order.ID, models.StatusAccepted, merchant.ID, "", ""))

	// new_order + two status notifications, all unread.
	assert.EqualValues(t, 3, countRows(t, db, &models.OrderNotification{}, "is_read = ?", false))

	// Unconfigured Telegram credentials skip actual delivery, so the pass
	// drains the queue without network access.
	dispatcher := NewNotificationDispatcher(db, NewTelegramService("", ""))

	sent, err := dispatcher.DispatchPending(50)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.EqualValues(t, 0, countRows(t, db, &models.OrderNotification{}, "is_read = ?", false))

	var delivered []models.OrderNotification
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&delivered).Error)
	for _, n := range delivered {
		assert.True(t, n.IsRead)
		assert.NotNil(t, n.ReadAt)
	}

	// Second pass finds nothing left.
	sent, err = dispatcher.DispatchPending(50)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestDispatchPendingRespectsLimit(t *testing.T) {
	svc, db, order, _, merchant := setupOrder(t)

	require.NoError(t, svc.UpdateOrderStatus(order.ID, models.StatusAccepted, merchant.ID, "", ""))

	dispatcher := NewNotificationDispatcher(db, NewTelegramService("", ""))

	sent, err := dispatcher.DispatchPending(2)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.EqualValues(t, 1, countRows(t, db, &models.OrderNotification{}, "is_read = ?", false))
}
