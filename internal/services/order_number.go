package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/example/tezkor/internal/models"
)

const (
	orderNumberPrefix   = "ORD"
	orderNumberAttempts = 5
)

// GenerateOrderNumber produces a human-readable identifier of the form
// ORD-20260831-4821. The random suffix alone does not guarantee uniqueness,
// so the candidate is checked against existing orders inside the caller's
// transaction and regenerated on collision.
func GenerateOrderNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
		if err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}

		candidate := fmt.Sprintf("%s-%s-%04d", orderNumberPrefix, time.Now().Format("20060102"), suffix.Int64())

		var count int64
		if err := tx.Model(&models.Order{}).Where("order_number = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not generate a unique order number after %d attempts", orderNumberAttempts)
}
