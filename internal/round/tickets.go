// Package round owns lottery rounds and the tickets issued into them.
package round

import (
	"context"                        // Context for cancellation
	"errors"                         // Error inspection
	"lottery_system/internal/domain" // Domain models and errors

	"gorm.io/gorm" // GORM ORM library
)

// Tickets is the registry of tickets issued for the active round
type Tickets struct {
	src Source
}

// NewTickets returns a registry picking winners from src
func NewTickets(src Source) *Tickets {
	return &Tickets{src: src}
}

// Issue inserts a ticket. The caller supplies a number not yet in use.
func (t *Tickets) Issue(ctx context.Context, tx *gorm.DB, userID, roundID uint, number string) (*domain.Ticket, error) {
	ticket := domain.Ticket{UserID: userID, LotteryID: roundID, TicketNumber: number}
	if err := tx.WithContext(ctx).Create(&ticket).Error; err != nil {
		return nil, domain.Storage("issue ticket", err)
	}
	return &ticket, nil
}

// NumberTaken reports whether a live ticket already carries number
func (t *Tickets) NumberTaken(ctx context.Context, tx *gorm.DB, number string) (bool, error) {
	var n int64
	if err := tx.WithContext(ctx).Model(&domain.Ticket{}).Where("ticket_number = ?", number).Count(&n).Error; err != nil {
		return false, domain.Storage("check ticket number", err)
	}
	return n > 0, nil
}

// Count returns the number of tickets issued for roundID
func (t *Tickets) Count(ctx context.Context, db *gorm.DB, roundID uint) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Ticket{}).Where("lottery_id = ?", roundID).Count(&n).Error; err != nil {
		return 0, domain.Storage("count tickets", err)
	}
	return n, nil
}

// PickRandomWinner selects one ticket of roundID uniformly at random.
// It returns nil, nil when the round has no tickets.
func (t *Tickets) PickRandomWinner(ctx context.Context, tx *gorm.DB, roundID uint) (*domain.Ticket, error) {
	n, err := t.Count(ctx, tx, roundID)
	if err != nil || n == 0 {
		return nil, err
	}
	offset := t.src.IntN(int(n))
	var winner domain.Ticket
	err = tx.WithContext(ctx).
		Where("lottery_id = ?", roundID).
		Order("id asc").
		Offset(offset).
		Limit(1).
		Take(&winner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Storage("pick winner", err)
	}
	return &winner, nil
}

// ClearRound deletes every ticket of roundID and returns how many were removed
func (t *Tickets) ClearRound(ctx context.Context, tx *gorm.DB, roundID uint) (int64, error) {
	res := tx.WithContext(ctx).Where("lottery_id = ?", roundID).Delete(&domain.Ticket{})
	if res.Error != nil {
		return 0, domain.Storage("clear round tickets", res.Error)
	}
	return res.RowsAffected, nil
}

// ListForUser returns the tickets userID holds in roundID
func (t *Tickets) ListForUser(ctx context.Context, db *gorm.DB, userID, roundID uint) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := db.WithContext(ctx).
		Where("user_id = ? AND lottery_id = ?", userID, roundID).
		Order("id asc").
		Find(&tickets).Error
	if err != nil {
		return nil, domain.Storage("list tickets", err)
	}
	return tickets, nil
}

// Participants returns the distinct buyers of roundID
func (t *Tickets) Participants(ctx context.Context, tx *gorm.DB, roundID uint) ([]uint, error) {
	var ids []uint
	err := tx.WithContext(ctx).Model(&domain.Ticket{}).
		Where("lottery_id = ?", roundID).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, domain.Storage("list participants", err)
	}
	return ids, nil
}
