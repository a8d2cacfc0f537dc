package domain

import "time" // Timestamps

// Ticket Model. Tickets only live as long as their round is active.
type Ticket struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                              // Primary key
	UserID       uint      `gorm:"index;not null" json:"user_id"`                     // Buyer
	TicketNumber string    `gorm:"size:32;uniqueIndex;not null" json:"ticket_number"` // LT-xxxxxx
	LotteryID    uint      `gorm:"index;not null" json:"lottery_id"`                  // Owning round
	CreatedAt    time.Time `json:"created_at"`                                        // Issuance time
}
