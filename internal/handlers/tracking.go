package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/tezkor/internal/middleware"
	"github.com/example/tezkor/internal/services"
)

// TrackingHandler manages delivery location endpoints.
type TrackingHandler struct {
	orders *services.OrderService
}

// NewTrackingHandler constructs TrackingHandler.
func NewTrackingHandler(orders *services.OrderService) *TrackingHandler {
	return &TrackingHandler{orders: orders}
}

type addTrackingRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Status    string  `json:"status"`
}

// AddTracking records a location ping from the authenticated rider.
func (h *TrackingHandler) AddTracking(c *fiber.Ctx) error {
	riderID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var req addTrackingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.orders.AddDeliveryTracking(orderID, riderID, req.Latitude, req.Longitude, req.Address, req.Status); err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// GetTracking returns an order's location pings, most recent first.
func (h *TrackingHandler) GetTracking(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	points, err := h.orders.GetDeliveryTracking(orderID)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": points})
}
