package domain

import "github.com/shopspring/decimal" // Exact decimal money

// Ledger entry kinds
const (
	TxCredit = "credit" // Approved payment request
	TxDebit  = "debit"  // Ticket purchase
)

// Transaction Model, one row per balance mutation
type Transaction struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                      // Primary key
	UserID    uint            `gorm:"index;not null" json:"user_id"`             // Wallet owner
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"` // Always positive
	Type      string          `gorm:"size:16;not null" json:"type"`              // credit or debit
	Reference string          `gorm:"size:64" json:"reference"`                  // payment_request:<id> or ticket:<number>
	CreatedAt int64           `gorm:"autoCreateTime:milli" json:"created_at"`    // Timestamp of creation in milliseconds
}
