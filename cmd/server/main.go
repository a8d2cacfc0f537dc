package main

import (
	"context"                        // context package is needed for startup calls
	"lottery_system/internal/api"    // Custom package for API handlers
	"lottery_system/internal/config" // Custom package for configuration
	"lottery_system/internal/db"     // Database connection
	"lottery_system/internal/engine" // Ledger engine
	"lottery_system/internal/notify" // Notifications
	"time"                           // Startup timeouts

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	conn, err := db.Open(cfg.DSN()) // Connect to MySQL
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	var rdb *redis.Client // Optional: cache and notifications
	var notifier notify.Notifier = notify.Log{}
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
		cancel()
		notifier = notify.NewRedis(rdb, cfg.NotifyPrefix)
	}

	eng := engine.New(conn, engine.WithNotifier(notifier), engine.WithRetries(cfg.TxRetries))

	// One active round must exist before the first request
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := eng.Bootstrap(ctx, cfg.TicketPrice); err != nil {
		logrus.Fatalf("failed to bootstrap lottery round: %v", err)
	}
	cancel()

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		DB:            conn,
		Engine:        eng,
		Redis:         rdb,
		JWTSecret:     cfg.JWTSecret,
		PaymentAmount: cfg.PaymentAmount,
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.Info("Server running on " + cfg.AppPort) // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
