package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal money
)

// Wallet Model
type Wallet struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID      uint            `gorm:"uniqueIndex;not null" json:"user_id"`                  // One wallet per user
	Balance     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // Never negative
	LastUpdated time.Time       `gorm:"autoUpdateTime" json:"last_updated"`                   // Last balance mutation
}
