package main

import (
	"context"                        // Seeding timeout
	"lottery_system/internal/config" // Custom import path (Config)
	"lottery_system/internal/db"     // Custom import path (Database)
	"time"                           // Seeding timeout

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig()    // Load configuration
	conn := db.Migrate(cfg.DSN()) // Create or update the schema

	if cfg.AdminUsername == "" {
		return // No admin to seed
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	admin, err := db.SeedAdmin(ctx, conn, cfg.AdminUsername, cfg.AdminPasswordHash)
	cancel()
	if err != nil {
		logrus.Fatalf("failed to seed admin account: %v", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": admin.ID, "username": admin.Username}).Info("Admin account ready")
}
