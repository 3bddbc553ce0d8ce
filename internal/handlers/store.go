package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tezkor/internal/middleware"
	"github.com/example/tezkor/internal/models"
	"github.com/example/tezkor/internal/utils"
)

// StoreHandler manages merchant store endpoints.
type StoreHandler struct {
	db *gorm.DB
}

// NewStoreHandler constructs StoreHandler.
func NewStoreHandler(db *gorm.DB) *StoreHandler {
	return &StoreHandler{db: db}
}

type storeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	IsOpen  *bool  `json:"is_open"`
}

// CreateStore registers a new outlet for the authenticated merchant.
func (h *StoreHandler) CreateStore(c *fiber.Ctx) error {
	merchantID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req storeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing store name")
	}

	store := models.Store{
		MerchantID: merchantID,
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
		IsOpen:     true,
	}
	if req.IsOpen != nil {
		store.IsOpen = *req.IsOpen
	}

	if err := h.db.Create(&store).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": store})
}

// ListStores returns stores, optionally limited to the authenticated merchant.
func (h *StoreHandler) ListStores(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Store{})

	if c.Query("mine") == "true" {
		merchantID, ok := middleware.GetCurrentUserID(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
		}
		query = query.Where("merchant_id = ?", merchantID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var stores []models.Store
	if err := query.Order("created_at DESC").Limit(pg.Limit).Offset(pg.Offset).Find(&stores).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stores,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
