package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a single customer purchase tracked through the delivery lifecycle.
// Orders are never deleted; they only move between statuses. FinalAmount is
// fixed at creation time and never recomputed.
type Order struct {
	BaseModel
	OrderNumber string     `gorm:"uniqueIndex" json:"order_number"`
	CustomerID  uuid.UUID  `gorm:"type:uuid;index" json:"customer_id"`
	MerchantID  uuid.UUID  `gorm:"type:uuid;index" json:"merchant_id"`
	StoreID     uuid.UUID  `gorm:"type:uuid;index" json:"store_id"`
	RiderID     *uuid.UUID `gorm:"type:uuid" json:"rider_id"`

	TotalAmount float64 `json:"total_amount"`
	DeliveryFee float64 `json:"delivery_fee"`
	TaxAmount   float64 `json:"tax_amount"`
	FinalAmount float64 `json:"final_amount"`

	DeliveryAddress      string  `json:"delivery_address"`
	DeliveryInstructions string  `json:"delivery_instructions"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`

	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`

	Status OrderStatus `gorm:"index" json:"status"`

	// Version guards concurrent status updates; bumped on every transition.
	Version int `json:"version"`

	AcceptedAt  *time.Time `json:"accepted_at"`
	ReadyAt     *time.Time `json:"ready_at"`
	PickedUpAt  *time.Time `json:"picked_up_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	Items []OrderItem `json:"items,omitempty"`
}

// OrderItem is one purchased line, carrying a price snapshot so later catalog
// edits never alter historical orders.
type OrderItem struct {
	BaseModel
	OrderID         uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ItemID          *uuid.UUID `gorm:"type:uuid" json:"item_id"`
	ItemType        string     `json:"item_type"`
	ItemName        string     `json:"item_name"`
	ItemImage       string     `json:"item_image"`
	ItemDescription string     `json:"item_description"`
	Price           float64    `json:"price"`
	Discount        float64    `json:"discount"`
	Quantity        int        `json:"quantity"`
	TotalPrice      float64    `json:"total_price"`

	Selections []OrderSelection `json:"selections,omitempty"`
}

// OrderSelection records a chosen variant or add-on for one order item.
type OrderSelection struct {
	BaseModel
	OrderItemID    uuid.UUID `gorm:"type:uuid;index" json:"order_item_id"`
	SelectionType  string    `json:"selection_type"`
	SelectionName  string    `json:"selection_name"`
	SelectionPrice float64   `json:"selection_price"`
	Quantity       int       `json:"quantity"`
}

// OrderStatusHistory is an append-only audit record of one status change.
// Rows are never mutated or removed.
type OrderStatusHistory struct {
	BaseModel
	OrderID      uuid.UUID   `gorm:"type:uuid;index" json:"order_id"`
	Status       OrderStatus `json:"status"`
	ChangedBy    uuid.UUID   `gorm:"type:uuid" json:"changed_by"`
	ChangeReason string      `json:"change_reason"`
	Notes        string      `json:"notes"`
}

// OrderNotification is a message record addressed to one user; an external
// dispatcher delivers it and marks it read.
type OrderNotification struct {
	BaseModel
	OrderID          uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	NotificationType string     `json:"notification_type"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	IsRead           bool       `gorm:"index" json:"is_read"`
	ReadAt           *time.Time `json:"read_at"`
}

// DeliveryTracking is one rider location ping tied to an order. Append-only.
type DeliveryTracking struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	RiderID   uuid.UUID `gorm:"type:uuid;index" json:"rider_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
}
