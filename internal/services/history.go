package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tezkor/internal/models"
)

// StatusHistoryView is one audit entry joined with the actor's display name.
type StatusHistoryView struct {
	ID            uuid.UUID          `json:"id"`
	OrderID       uuid.UUID          `json:"order_id"`
	Status        models.OrderStatus `json:"status"`
	ChangedBy     uuid.UUID          `json:"changed_by"`
	ChangedByName string             `json:"changed_by_name"`
	ChangeReason  string             `json:"change_reason"`
	Notes         string             `json:"notes"`
	CreatedAt     time.Time          `json:"created_at"`
}

// recordStatusChange appends one immutable audit entry inside the caller's
// transaction. Entries are never updated or removed afterwards.
func recordStatusChange(tx *gorm.DB, orderID uuid.UUID, status models.OrderStatus, changedBy uuid.UUID, reason, notes string) error {
	entry := models.OrderStatusHistory{
		OrderID:      orderID,
		Status:       status,
		ChangedBy:    changedBy,
		ChangeReason: reason,
		Notes:        notes,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record status change for order %s: %w", orderID, err)
	}
	return nil
}

// GetOrderStatusHistory returns the full audit trail for an order, oldest
// entry first, with each actor's display name resolved.
func (s *OrderService) GetOrderStatusHistory(orderID uuid.UUID) ([]StatusHistoryView, error) {
	if err := s.ensureOrderExists(s.db, orderID); err != nil {
		return nil, err
	}

	var entries []StatusHistoryView
	err := s.db.Table("order_status_histories").
		Select("order_status_histories.id, order_status_histories.order_id, order_status_histories.status, order_status_histories.changed_by, order_status_histories.change_reason, order_status_histories.notes, order_status_histories.created_at, users.display_name AS changed_by_name").
		Joins("LEFT JOIN users ON users.id = order_status_histories.changed_by").
		Where("order_status_histories.order_id = ?", orderID).
		Order("order_status_histories.created_at ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load status history for order %s: %w", orderID, err)
	}

	return entries, nil
}
