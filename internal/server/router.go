package server

import (
	"auctionhub/internal/config"
	"auctionhub/internal/handlers"
	"auctionhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// New builds the Fiber app with all routes registered. Kept separate from
// main so tests can exercise routes with app.Test.
func New(cfg config.Config, authHandler *handlers.AuthHandler, auctionHandler *handlers.AuctionHandler) *fiber.App {
	app := fiber.New()

	app.Use(logger.New())
	app.Use(cors.New())

	protected := middleware.Auth([]byte(cfg.JWTSecret))

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", protected, authHandler.Me)

	auctions := api.Group("/auctions")
	auctions.Get("/", auctionHandler.List)
	auctions.Get("/:id", auctionHandler.GetByID)
	auctions.Post("/", protected, auctionHandler.Create)
	auctions.Post("/:id/bid", protected, auctionHandler.PlaceBid)
	auctions.Put("/:id", protected, auctionHandler.Update)
	auctions.Delete("/:id", protected, auctionHandler.Delete)

	return app
}
