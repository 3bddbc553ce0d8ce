package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tezkor/internal/models"
	"github.com/example/tezkor/internal/utils"
)

// OrderService owns the order lifecycle: atomic creation, the status state
// machine with its audit trail and notifications, and the read queries.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// SelectionInput is one chosen variant or add-on for an order item.
type SelectionInput struct {
	SelectionType  string  `json:"selection_type"`
	SelectionName  string  `json:"selection_name"`
	SelectionPrice float64 `json:"selection_price"`
	Quantity       int     `json:"quantity"`
}

// OrderItemInput is one purchase line of a create request.
type OrderItemInput struct {
	ItemID          string           `json:"item_id"`
	ItemType        string           `json:"item_type"`
	ItemName        string           `json:"item_name"`
	ItemImage       string           `json:"item_image"`
	ItemDescription string           `json:"item_description"`
	Quantity        int              `json:"quantity"`
	ItemPrice       float64          `json:"item_price"`
	Discount        float64          `json:"discount"`
	TotalPrice      float64          `json:"total_price"`
	Selections      []SelectionInput `json:"selections"`
}

// CreateOrderInput carries everything needed to materialize a new order.
type CreateOrderInput struct {
	CustomerID           uuid.UUID
	MerchantID           uuid.UUID
	StoreID              uuid.UUID
	DeliveryAddress      string
	DeliveryInstructions string
	Latitude             float64
	Longitude            float64
	DeliveryFee          float64
	TaxAmount            float64
	PaymentMethod        string
	Items                []OrderItemInput
}

func (in *CreateOrderInput) validate() error {
	if in.CustomerID == uuid.Nil {
		return fmt.Errorf("%w: customer_id", ErrMissingField)
	}
	if in.MerchantID == uuid.Nil {
		return fmt.Errorf("%w: merchant_id", ErrMissingField)
	}
	if in.StoreID == uuid.Nil {
		return fmt.Errorf("%w: store_id", ErrMissingField)
	}
	if in.DeliveryAddress == "" {
		return fmt.Errorf("%w: delivery_address", ErrMissingField)
	}
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	for i, item := range in.Items {
		if item.ItemName == "" {
			return fmt.Errorf("%w: items[%d].item_name", ErrMissingField, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity", ErrMissingField, i)
		}
	}
	return nil
}

// CreateOrder materializes a new order atomically: the order row, its items
// and selections, the initial pending audit entry and the merchant
// notification all land in one transaction or not at all.
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	order := models.Order{
		CustomerID:           input.CustomerID,
		MerchantID:           input.MerchantID,
		StoreID:              input.StoreID,
		DeliveryAddress:      input.DeliveryAddress,
		DeliveryInstructions: input.DeliveryInstructions,
		Latitude:             input.Latitude,
		Longitude:            input.Longitude,
		DeliveryFee:          input.DeliveryFee,
		TaxAmount:            input.TaxAmount,
		PaymentMethod:        input.PaymentMethod,
		PaymentStatus:        "unpaid",
		Status:               models.StatusPending,
		Version:              1,
	}

	if order.PaymentMethod == "" {
		order.PaymentMethod = "cash"
	}

	var itemsTotal float64
	for _, item := range input.Items {
		total := item.TotalPrice
		if total == 0 {
			total = item.ItemPrice*float64(item.Quantity) - item.Discount
		}
		itemsTotal += total
	}
	order.TotalAmount = itemsTotal
	// Fixed at creation time; never recomputed on later mutations.
	order.FinalAmount = itemsTotal + order.DeliveryFee + order.TaxAmount

	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := GenerateOrderNumber(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order %s: %w", number, err)
		}

		if err := writeOrderItems(tx, order.ID, input.Items); err != nil {
			return err
		}

		if err := recordStatusChange(tx, order.ID, models.StatusPending, input.CustomerID, "Order created", ""); err != nil {
			return err
		}

		message := fmt.Sprintf("You have received a new order %s.", number)
		return createNotification(tx, order.ID, input.MerchantID, NotificationNewOrder, "New Order", message)
	})
	if err != nil {
		log.Printf("[Order] create failed for customer %s: %v", input.CustomerID, err)
		return nil, err
	}

	return &order, nil
}

// writeOrderItems persists one item row per input plus its selection rows.
// Runs inside the creation transaction; any failure rolls the whole order back.
func writeOrderItems(tx *gorm.DB, orderID uuid.UUID, items []OrderItemInput) error {
	for i, in := range items {
		total := in.TotalPrice
		if total == 0 {
			total = in.ItemPrice*float64(in.Quantity) - in.Discount
		}

		item := models.OrderItem{
			OrderID:         orderID,
			ItemType:        in.ItemType,
			ItemName:        in.ItemName,
			ItemImage:       in.ItemImage,
			ItemDescription: in.ItemDescription,
			Price:           in.ItemPrice,
			Discount:        in.Discount,
			Quantity:        in.Quantity,
			TotalPrice:      total,
		}

		if in.ItemID != "" {
			if id, err := uuid.Parse(in.ItemID); err == nil {
				item.ItemID = &id
			}
		}

		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("create order item %d for order %s: %w", i, orderID, err)
		}

		for _, sel := range in.Selections {
			selection := models.OrderSelection{
				OrderItemID:    item.ID,
				SelectionType:  sel.SelectionType,
				SelectionName:  sel.SelectionName,
				SelectionPrice: sel.SelectionPrice,
				Quantity:       sel.Quantity,
			}
			if err := tx.Create(&selection).Error; err != nil {
				return fmt.Errorf("create selection for order item %s: %w", item.ID, err)
			}
		}
	}
	return nil
}

// UpdateOrderStatus applies one transition of the status state machine.
// The transition is validated against the adjacency table, the matching
// lifecycle timestamp is stamped, and the audit entry plus the customer and
// merchant notifications are written in the same transaction. A version check
// on the update guards against two actors racing on the same order.
func (s *OrderService) UpdateOrderStatus(orderID uuid.UUID, newStatus models.OrderStatus, actorID uuid.UUID, reason, notes string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("load order %s: %w", orderID, err)
		}

		if !order.Status.CanTransitionTo(newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
		}

		updates := map[string]any{
			"status":  newStatus,
			"version": order.Version + 1,
		}
		if column := newStatus.TimestampColumn(); column != "" {
			updates[column] = time.Now()
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", orderID, order.Version).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update order %s status: %w", orderID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s: %w", order.OrderNumber, ErrVersionConflict)
		}

		if err := recordStatusChange(tx, orderID, newStatus, actorID, reason, notes); err != nil {
			return err
		}

		return createStatusNotifications(tx, &order, newStatus)
	})
	if err != nil {
		log.Printf("[Order] status update to %s failed for order %s: %v", newStatus, orderID, err)
		return err
	}

	return nil
}

// AssignRider attaches a rider to an order. The version check keeps a
// concurrent status transition from losing the assignment.
func (s *OrderService) AssignRider(orderID, riderID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("load order %s: %w", orderID, err)
		}

		if order.Status.IsTerminal() {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", orderID, order.Version).
			Updates(map[string]any{"rider_id": riderID, "version": order.Version + 1})
		if res.Error != nil {
			return fmt.Errorf("assign rider to order %s: %w", orderID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s: %w", order.OrderNumber, ErrVersionConflict)
		}
		return nil
	})
}

// OrderDetail is a full order enriched with party and store names.
type OrderDetail struct {
	models.Order
	StoreName     string `json:"store_name"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	RiderName     string `json:"rider_name,omitempty"`
	RiderPhone    string `json:"rider_phone,omitempty"`
}

// GetOrderDetails returns one order with its items, selections and the
// resolved store, customer and rider information.
func (s *OrderService) GetOrderDetails(orderID uuid.UUID) (*OrderDetail, error) {
	var order models.Order
	err := s.db.Preload("Items.Selections").First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	detail := OrderDetail{Order: order}

	var store models.Store
	if err := s.db.First(&store, "id = ?", order.StoreID).Error; err == nil {
		detail.StoreName = store.Name
	}

	var customer models.User
	if err := s.db.First(&customer, "id = ?", order.CustomerID).Error; err == nil {
		detail.CustomerName = customer.DisplayName
		detail.CustomerPhone = customer.Phone
	}

	if order.RiderID != nil {
		var rider models.User
		if err := s.db.First(&rider, "id = ?", *order.RiderID).Error; err == nil {
			detail.RiderName = rider.DisplayName
			detail.RiderPhone = rider.Phone
		}
	}

	return &detail, nil
}

// OrderSummary is one row of a merchant's order listing.
type OrderSummary struct {
	ID              uuid.UUID          `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Status          models.OrderStatus `json:"status"`
	FinalAmount     float64            `json:"final_amount"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	DeliveryAddress string             `json:"delivery_address"`
	StoreName       string             `json:"store_name"`
	CreatedAt       time.Time          `json:"created_at"`
}

// GetMerchantOrders lists a merchant's orders, newest first, optionally
// filtered by status, with store names resolved.
func (s *OrderService) GetMerchantOrders(merchantID uuid.UUID, status string, pg utils.Pagination) ([]OrderSummary, int64, error) {
	query := s.db.Model(&models.Order{}).Where("orders.merchant_id = ?", merchantID)
	if status != "" {
		parsed, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: status", ErrMissingField)
		}
		query = query.Where("orders.status = ?", parsed)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count merchant orders: %w", err)
	}

	var summaries []OrderSummary
	err := query.
		Select("orders.id, orders.order_number, orders.status, orders.final_amount, orders.payment_method, orders.payment_status, orders.delivery_address, orders.created_at, stores.name AS store_name").
		Joins("LEFT JOIN stores ON stores.id = orders.store_id").
		Order("orders.created_at DESC").
		Limit(pg.Limit).Offset(pg.Offset).
		Scan(&summaries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list merchant orders: %w", err)
	}

	return summaries, total, nil
}

// ListCustomerOrders lists a customer's own orders with their items, newest
// first, optionally filtered by status.
func (s *OrderService) ListCustomerOrders(customerID uuid.UUID, status string, pg utils.Pagination) ([]models.Order, int64, error) {
	query := s.db.Model(&models.Order{}).Where("customer_id = ?", customerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count customer orders: %w", err)
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list customer orders: %w", err)
	}

	return orders, total, nil
}

func (s *OrderService) ensureOrderExists(tx *gorm.DB, orderID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return fmt.Errorf("check order %s: %w", orderID, err)
	}
	if count == 0 {
		return ErrOrderNotFound
	}
	return nil
}
