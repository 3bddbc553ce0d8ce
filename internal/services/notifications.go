package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tezkor/internal/models"
)

// Notification types produced by the order core.
const (
	NotificationNewOrder     = "new_order"
	NotificationStatusUpdate = "status_update"
)

// statusTemplate holds the customer and merchant message pair for one status.
// %s is the order number.
type statusTemplate struct {
	customerTitle   string
	customerMessage string
	merchantTitle   string
	merchantMessage string
}

var statusTemplates = map[models.OrderStatus]statusTemplate{
	models.StatusAccepted: {
		customerTitle:   "Order Accepted",
		customerMessage: "Your order %s has been accepted and is being prepared.",
		merchantTitle:   "Order Status Updated",
		merchantMessage: "Order %s status updated to accepted.",
	},
	models.StatusReadyForPickup: {
		customerTitle:   "Order Ready",
		customerMessage: "Your order %s is ready for pickup.",
		merchantTitle:   "Order Status Updated",
		merchantMessage: "Order %s status updated to ready_for_pickup.",
	},
	models.StatusInTransit: {
		customerTitle:   "Order Picked Up",
		customerMessage: "Your order %s has been picked up and is on its way.",
		merchantTitle:   "Order Status Updated",
		merchantMessage: "Order %s has been picked up by rider.",
	},
	models.StatusDelivered: {
		customerTitle:   "Order Delivered",
		customerMessage: "Your order %s has been delivered successfully.",
		merchantTitle:   "Order Status Updated",
		merchantMessage: "Order %s has been delivered to customer.",
	},
	models.StatusCancelled: {
		customerTitle:   "Order Cancelled",
		customerMessage: "Your order %s has been cancelled.",
		merchantTitle:   "Order Status Updated",
		merchantMessage: "Order %s status updated to cancelled.",
	},
}

// createNotification inserts one notification row addressed to userID inside
// the caller's transaction. A reference to a missing order is rejected up
// front rather than surfacing as a constraint violation.
func createNotification(tx *gorm.DB, orderID, userID uuid.UUID, notificationType, title, message string) error {
	var count int64
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return fmt.Errorf("check order for notification: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("notification for order %s: %w", orderID, ErrOrderNotFound)
	}

	notification := models.OrderNotification{
		OrderID:          orderID,
		UserID:           userID,
		NotificationType: notificationType,
		Title:            title,
		Message:          message,
	}

	if err := tx.Create(&notification).Error; err != nil {
		return fmt.Errorf("create %s notification for order %s: %w", notificationType, orderID, err)
	}
	return nil
}

// createStatusNotifications writes the customer and merchant notification pair
// for a status transition, using the per-status templates.
func createStatusNotifications(tx *gorm.DB, order *models.Order, status models.OrderStatus) error {
	tmpl, ok := statusTemplates[status]
	if !ok {
		return errors.New("no notification template for status " + string(status))
	}

	customerMsg := fmt.Sprintf(tmpl.customerMessage, order.OrderNumber)
	if err := createNotification(tx, order.ID, order.CustomerID, NotificationStatusUpdate, tmpl.customerTitle, customerMsg); err != nil {
		return err
	}

	merchantMsg := fmt.Sprintf(tmpl.merchantMessage, order.OrderNumber)
	return createNotification(tx, order.ID, order.MerchantID, NotificationStatusUpdate, tmpl.merchantTitle, merchantMsg)
}
