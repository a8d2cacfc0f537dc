package db

import (
	"lottery_system/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Models lists every table owned by the service
var Models = []any{
	&domain.User{},
	&domain.Wallet{},
	&domain.Transaction{},
	&domain.PaymentRequest{},
	&domain.Ticket{},
	&domain.LotteryRound{},
}

// Open connects to MySQL with driver errors translated to gorm sentinels
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
}

// AutoMigrate creates tables, columns and indexes (including the unique
// active-round slot) for every model
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models...)
}

// Migrate performs automatic migration for the database schema and returns the connection
func Migrate(dsn string) *gorm.DB {
	db, err := Open(dsn) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := AutoMigrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
	return db
}
