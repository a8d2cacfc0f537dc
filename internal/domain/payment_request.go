package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal money
)

// PaymentStatus is the closed set of payment request states
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// Valid reports whether s is a known status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

// Decide moves a pending request to approved or rejected.
// Any other starting state, or any other target, is ErrAlreadyDecided / ErrInvalidState.
func (s PaymentStatus) Decide(to PaymentStatus) (PaymentStatus, error) {
	if s != PaymentPending {
		return s, ErrAlreadyDecided
	}
	switch to {
	case PaymentApproved, PaymentRejected:
		return to, nil
	}
	return s, ErrInvalidState
}

// PaymentRequest Model. Rows are never deleted.
type PaymentRequest struct {
	ID        uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID    uint            `gorm:"index;not null" json:"user_id"`                        // Payer
	ImageRef  string          `gorm:"size:255;not null" json:"image_ref"`                   // Opaque receipt handle
	Amount    decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`            // Positive
	Status    PaymentStatus   `gorm:"size:16;index;not null;default:pending" json:"status"` // pending|approved|rejected
	CreatedAt time.Time       `json:"created_at"`                                           // Submission time
	DecidedAt *time.Time      `json:"decided_at,omitempty"`                                 // Admin decision time
}
