package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/choosing-sucks/gateway/internal/config"
	"github.com/choosing-sucks/gateway/internal/server"
	"github.com/choosing-sucks/gateway/internal/storage"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Database.DSN == "" {
		log.Fatal("DATABASE_URL is required")
	}

	postgres, err := storage.NewPostgres(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()
	log.Println("Connected to Postgres successfully")

	if err := postgres.AutoMigrate(); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	// Redis is optional: without it the gateway falls back to in-process
	// rate limits and skips the BYO response cache.
	redis, err := storage.NewRedis(
		cfg.Redis.GetRedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Printf("Warning: Redis unavailable, using in-process rate limits: %v", err)
		redis = nil
	} else {
		defer redis.Close()
		log.Println("Connected to Redis successfully")
	}

	srv := server.New(cfg, redis, postgres)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
