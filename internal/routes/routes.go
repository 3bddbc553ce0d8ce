package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tezkor/internal/config"
	"github.com/example/tezkor/internal/handlers"
	"github.com/example/tezkor/internal/middleware"
	"github.com/example/tezkor/internal/models"
	"github.com/example/tezkor/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, orders *services.OrderService) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(orders)
	trackingHandler := handlers.NewTrackingHandler(orders)
	storeHandler := handlers.NewStoreHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	// Customer order flow
	protected.Post("/orders", middleware.RequireRole(models.RoleCustomer), orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Get("/orders/:id/history", orderHandler.GetOrderStatusHistory)
	protected.Get("/orders/:id/tracking", trackingHandler.GetTracking)

	// Merchant order management
	merchant := protected.Group("/merchant", middleware.RequireRole(models.RoleMerchant))
	merchant.Get("/orders", orderHandler.ListMerchantOrders)
	merchant.Post("/orders/:id/assign-rider", orderHandler.AssignRider)

	// Status transitions come from merchants and riders alike; the state
	// machine decides what each transition may follow.
	protected.Put("/orders/:id/status", orderHandler.UpdateOrderStatus)

	// Rider location pings
	protected.Post("/orders/:id/tracking", middleware.RequireRole(models.RoleRider), trackingHandler.AddTracking)

	// Stores
	stores := api.Group("/stores")
	stores.Get("/", storeHandler.ListStores)
	stores.Post("/", middleware.AuthMiddleware(cfg), middleware.RequireRole(models.RoleMerchant), storeHandler.CreateStore)
}
