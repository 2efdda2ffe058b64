package main

import (
	"context"

	"auctionhub/internal/config"
	"auctionhub/internal/db"
	"auctionhub/internal/handlers"
	"auctionhub/internal/server"
	"auctionhub/internal/services"
	"auctionhub/internal/store"
	"auctionhub/internal/utils"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		utils.Info("no .env file found, using environment variables", nil)
	}

	cfg := config.FromEnv()

	database, err := db.Connect(context.Background(), cfg.MongoURI, cfg.DBName)
	if err != nil {
		utils.Fatal("failed to connect to MongoDB", map[string]any{"error": err.Error()})
	}
	utils.Info("connected to MongoDB", map[string]any{"db": cfg.DBName})

	userStore := store.NewMongoUserStore(database)
	auctionStore := store.NewMongoAuctionStore(database)

	authService := services.NewAuthService(userStore, cfg.JWTSecret, cfg.TokenTTL)
	auctionService := services.NewAuctionService(auctionStore, userStore)

	authHandler := handlers.NewAuthHandler(authService)
	auctionHandler := handlers.NewAuctionHandler(auctionService)

	app := server.New(cfg, authHandler, auctionHandler)

	utils.Info("starting server", map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		utils.Fatal("server stopped", map[string]any{"error": err.Error()})
	}
}
