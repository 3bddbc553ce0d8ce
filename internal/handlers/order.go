package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tezkor/internal/middleware"
	"github.com/example/tezkor/internal/models"
	"github.com/example/tezkor/internal/services"
	"github.com/example/tezkor/internal/utils"
)

// OrderHandler manages order lifecycle endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// serviceError translates core error kinds into HTTP responses.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrInvalidTransition):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrVersionConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

type createOrderRequest struct {
	MerchantID           string                    `json:"merchant_id"`
	StoreID              string                    `json:"store_id"`
	DeliveryAddress      string                    `json:"delivery_address"`
	DeliveryInstructions string                    `json:"delivery_instructions"`
	Latitude             float64                   `json:"latitude"`
	Longitude            float64                   `json:"longitude"`
	DeliveryFee          float64                   `json:"delivery_fee"`
	TaxAmount            float64                   `json:"tax_amount"`
	PaymentMethod        string                    `json:"payment_method"`
	Items                []services.OrderItemInput `json:"items"`
}

// CreateOrder allows an authenticated customer to place an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid merchant_id")
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid store_id")
	}

	order, err := h.orders.CreateOrder(services.CreateOrderInput{
		CustomerID:           customerID,
		MerchantID:           merchantID,
		StoreID:              storeID,
		DeliveryAddress:      req.DeliveryAddress,
		DeliveryInstructions: req.DeliveryInstructions,
		Latitude:             req.Latitude,
		Longitude:            req.Longitude,
		DeliveryFee:          req.DeliveryFee,
		TaxAmount:            req.TaxAmount,
		PaymentMethod:        req.PaymentMethod,
		Items:                req.Items,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"final_amount": order.FinalAmount,
			"created_at":   order.CreatedAt,
		},
	})
}

// ListOrders returns orders for the authenticated customer.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.ListCustomerOrders(customerID, c.Query("status"), pg)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// ListMerchantOrders returns the authenticated merchant's orders.
func (h *OrderHandler) ListMerchantOrders(c *fiber.Ctx) error {
	merchantID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	summaries, total, err := h.orders.GetMerchantOrders(merchantID, c.Query("status"), pg)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    summaries,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns full details for a single order.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	detail, err := h.orders.GetOrderDetails(id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": detail})
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// UpdateOrderStatus applies a lifecycle transition to an order.
func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	actorID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	status, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.orders.UpdateOrderStatus(id, status, actorID, req.Reason, req.Notes); err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetOrderStatusHistory returns the audit trail for an order, oldest first.
func (h *OrderHandler) GetOrderStatusHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	entries, err := h.orders.GetOrderStatusHistory(id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": entries})
}

type assignRiderRequest struct {
	RiderID string `json:"rider_id"`
}

// AssignRider attaches a rider to an order.
func (h *OrderHandler) AssignRider(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req assignRiderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	riderID, err := uuid.Parse(req.RiderID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid rider_id")
	}

	if err := h.orders.AssignRider(id, riderID); err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}
