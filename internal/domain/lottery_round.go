package domain

import (
	"time" // Timestamps

	"github.com/shopspring/decimal" // Exact decimal money
)

// RoundStatus is the closed set of round states
type RoundStatus string

const (
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

// activeSlot is stored in LotteryRound.ActiveSlot while a round is active.
// The column is unique, NULLs excepted, so the database admits one active row.
const activeSlot = 1

// WinnerRef is the part of the winning ticket that outlives the ticket row
type WinnerRef struct {
	TicketID     uint   `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	UserID       uint   `json:"user_id"`
}

// LotteryRound Model
type LotteryRound struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`                            // Primary key
	StartDate          time.Time       `gorm:"not null" json:"start_date"`                      // Opening time
	EndDate            *time.Time      `json:"end_date,omitempty"`                              // Nil while active
	TicketPrice        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"ticket_price"` // Fixed for the round
	Status             RoundStatus     `gorm:"size:16;index;not null" json:"status"`            // active|completed
	ActiveSlot         *int            `gorm:"uniqueIndex:idx_lottery_rounds_active" json:"-"`  // 1 while active, NULL after
	WinnerTicketID     *uint           `json:"winner_ticket_id,omitempty"`                      // Winning ticket id
	WinnerTicketNumber *string         `gorm:"size:32" json:"winner_ticket_number,omitempty"`   // Winning ticket number
	WinnerUserID       *uint           `json:"winner_user_id,omitempty"`                        // Winning ticket owner
	WinnerUsername     *string         `gorm:"->;-:migration" json:"winner_username,omitempty"` // Joined from users by History
}

// NewRound returns an active round starting at now
func NewRound(price decimal.Decimal, now time.Time) LotteryRound {
	slot := activeSlot
	return LotteryRound{
		StartDate:   now,
		TicketPrice: price,
		Status:      RoundActive,
		ActiveSlot:  &slot,
	}
}

// Complete moves an active round to completed and records the winner
func (r *LotteryRound) Complete(w WinnerRef, now time.Time) error {
	if r.Status != RoundActive {
		return ErrInvalidState
	}
	r.Status = RoundCompleted
	r.EndDate = &now
	r.ActiveSlot = nil
	r.WinnerTicketID = &w.TicketID
	r.WinnerTicketNumber = &w.TicketNumber
	r.WinnerUserID = &w.UserID
	return nil
}

// Winner returns the recorded winner, if any
func (r LotteryRound) Winner() (WinnerRef, bool) {
	if r.WinnerTicketID == nil || r.WinnerTicketNumber == nil || r.WinnerUserID == nil {
		return WinnerRef{}, false
	}
	return WinnerRef{TicketID: *r.WinnerTicketID, TicketNumber: *r.WinnerTicketNumber, UserID: *r.WinnerUserID}, true
}
