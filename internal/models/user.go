package models

import "github.com/google/uuid"

// Roles a platform account can hold.
const (
	RoleCustomer = "customer"
	RoleRider    = "rider"
	RoleMerchant = "merchant"
)

// User represents a platform account: customer, rider or merchant.
type User struct {
	BaseModel
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `gorm:"uniqueIndex" json:"phone"`
	DisplayName  string `json:"display_name"`
	Role         string `gorm:"index" json:"role"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
}

// Store is a merchant-owned outlet orders are placed against.
type Store struct {
	BaseModel
	MerchantID uuid.UUID `gorm:"type:uuid;index" json:"merchant_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	IsOpen     bool      `json:"is_open"`
}
