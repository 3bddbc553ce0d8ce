package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/tezkor/internal/config"
	"github.com/example/tezkor/internal/database"
	"github.com/example/tezkor/internal/routes"
	"github.com/example/tezkor/internal/services"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName: "Tezkor Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	orders := services.NewOrderService(db)
	routes.Register(app, db, cfg, orders)

	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	dispatcher := services.NewNotificationDispatcher(db, telegram)
	stop := make(chan struct{})
	defer close(stop)
	go dispatcher.Run(cfg.DispatchInterval, stop)

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
