package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/example/tezkor/internal/models"
)

// NotificationDispatcher delivers notification rows created by the order
// core. It runs outside the write transactions: rows are only picked up after
// their transaction committed, so a rolled-back order never produces a
// message. Delivery is idempotent per row via the is_read flag.
type NotificationDispatcher struct {
	db       *gorm.DB
	telegram *TelegramService
}

// NewNotificationDispatcher constructs a NotificationDispatcher.
func NewNotificationDispatcher(db *gorm.DB, telegram *TelegramService) *NotificationDispatcher {
	return &NotificationDispatcher{db: db, telegram: telegram}
}

// DispatchPending delivers up to limit unread notifications, oldest first,
// and marks each one read. A delivery failure leaves the row unread so the
// next pass retries it.
func (d *NotificationDispatcher) DispatchPending(limit int) (int, error) {
	var pending []models.OrderNotification
	err := d.db.Where("is_read = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("load pending notifications: %w", err)
	}

	sent := 0
	for _, n := range pending {
		text := fmt.Sprintf("<b>%s</b>\n%s", n.Title, n.Message)
		if d.telegram != nil {
			if err := d.telegram.SendToAdmin(text); err != nil {
				log.Printf("[Dispatcher] delivery failed for notification %s: %v", n.ID, err)
				continue
			}
		}

		now := time.Now()
		err := d.db.Model(&models.OrderNotification{}).
			Where("id = ?", n.ID).
			Updates(map[string]any{"is_read": true, "read_at": &now}).Error
		if err != nil {
			log.Printf("[Dispatcher] failed to mark notification %s read: %v", n.ID, err)
			continue
		}
		sent++
	}

	return sent, nil
}

// Run dispatches on a fixed interval until stop is closed.
func (d *NotificationDispatcher) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := d.DispatchPending(50); err != nil {
				log.Printf("[Dispatcher] dispatch pass failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}
