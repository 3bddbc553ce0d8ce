package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/example/tezkor/internal/models"
)

// AddDeliveryTracking appends one rider location ping for an order. Points
// are immutable once written.
func (s *OrderService) AddDeliveryTracking(orderID, riderID uuid.UUID, latitude, longitude float64, address, status string) error {
	if err := s.ensureOrderExists(s.db, orderID); err != nil {
		return err
	}

	point := models.DeliveryTracking{
		OrderID:   orderID,
		RiderID:   riderID,
		Latitude:  latitude,
		Longitude: longitude,
		Address:   address,
		Status:    status,
	}

	if err := s.db.Create(&point).Error; err != nil {
		return fmt.Errorf("add tracking point for order %s: %w", orderID, err)
	}
	return nil
}

// GetDeliveryTracking returns an order's location pings, most recent first.
// Consumers rely on this ordering; it is the opposite of the status history.
func (s *OrderService) GetDeliveryTracking(orderID uuid.UUID) ([]models.DeliveryTracking, error) {
	if err := s.ensureOrderExists(s.db, orderID); err != nil {
		return nil, err
	}

	var points []models.DeliveryTracking
	err := s.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&points).Error
	if err != nil {
		return nil, fmt.Errorf("load tracking for order %s: %w", orderID, err)
	}

	return points, nil
}
