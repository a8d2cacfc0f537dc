package round

import (
	"context"                             // Context for cancellation
	"errors"                              // Error inspection
	database "lottery_system/internal/db" // Driver error classification
	"lottery_system/internal/domain"      // Domain models and errors
	"time"                                // Timestamps and durations

	"github.com/shopspring/decimal" // Exact decimal money
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locks and upserts
)

// MaxHistory caps GetRoundHistory page sizes
const MaxHistory = 100

// DefaultHistory is used when no positive limit is given
const DefaultHistory = 10

// Manager owns the lottery_rounds table and its one-active-round rule
type Manager struct {
	now func() time.Time
}

// NewManager returns a Manager using the wall clock
func NewManager() *Manager {
	return &Manager{now: time.Now}
}

// WithClock overrides the clock, used by tests
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// GetActive returns the active round or ErrNoActiveRound
func (m *Manager) GetActive(ctx context.Context, db *gorm.DB) (*domain.LotteryRound, error) {
	return m.active(db.WithContext(ctx))
}

// GetActiveShared returns the active round holding a shared row lock, which
// keeps a concurrent draw from completing it until tx ends.
func (m *Manager) GetActiveShared(ctx context.Context, tx *gorm.DB) (*domain.LotteryRound, error) {
	return m.active(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}))
}

// GetActiveForUpdate returns the active round holding an exclusive row lock
func (m *Manager) GetActiveForUpdate(ctx context.Context, tx *gorm.DB) (*domain.LotteryRound, error) {
	return m.active(tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (m *Manager) active(q *gorm.DB) (*domain.LotteryRound, error) {
	var r domain.LotteryRound
	err := q.Where("status = ?", domain.RoundActive).Order("id desc").Take(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoActiveRound
	}
	if err != nil {
		return nil, domain.Storage("get active round", err)
	}
	return &r, nil
}

// GetForUpdate locks round id or returns ErrNotFound
func (m *Manager) GetForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*domain.LotteryRound, error) {
	var r domain.LotteryRound
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("lock round", err)
	}
	return &r, nil
}

// Open inserts a new active round. It fails with ErrConflictingActiveRound
// when one is already active; the unique active_slot index backs the check
// against a concurrent opener.
func (m *Manager) Open(ctx context.Context, tx *gorm.DB, price decimal.Decimal) (*domain.LotteryRound, error) {
	if !domain.ValidAmount(price) {
		return nil, domain.ErrInvalidAmount
	}
	tx = tx.WithContext(ctx)
	var n int64
	if err := tx.Model(&domain.LotteryRound{}).Where("status = ?", domain.RoundActive).Count(&n).Error; err != nil {
		return nil, domain.Storage("count active rounds", err)
	}
	if n > 0 {
		return nil, domain.ErrConflictingActiveRound
	}
	r := domain.NewRound(price, m.now())
	if err := tx.Create(&r).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, domain.ErrConflictingActiveRound
		}
		return nil, domain.Storage("open round", err)
	}
	return &r, nil
}

// Complete marks round id completed with winner. The round must be active.
func (m *Manager) Complete(ctx context.Context, tx *gorm.DB, id uint, winner domain.WinnerRef) (*domain.LotteryRound, error) {
	r, err := m.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Complete(winner, m.now()); err != nil {
		return nil, err
	}
	res := tx.WithContext(ctx).Model(&domain.LotteryRound{}).
		Where("id = ? AND status = ?", r.ID, domain.RoundActive).
		Updates(map[string]any{
			"status":               r.Status,
			"end_date":             r.EndDate,
			"active_slot":          gorm.Expr("NULL"),
			"winner_ticket_id":     r.WinnerTicketID,
			"winner_ticket_number": r.WinnerTicketNumber,
			"winner_user_id":       r.WinnerUserID,
		})
	if res.Error != nil {
		return nil, domain.Storage("complete round", res.Error)
	}
	if res.RowsAffected != 1 {
		return nil, domain.ErrInvalidState
	}
	return r, nil
}

// History returns completed rounds, most recently drawn first, with the
// winner's username when the account exists
func (m *Manager) History(ctx context.Context, db *gorm.DB, limit int) ([]domain.LotteryRound, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}
	if limit > MaxHistory {
		limit = MaxHistory
	}
	var rounds []domain.LotteryRound
	err := db.WithContext(ctx).
		Model(&domain.LotteryRound{}).
		Select("lottery_rounds.*, users.username AS winner_username").
		Joins("LEFT JOIN users ON users.id = lottery_rounds.winner_user_id").
		Where("lottery_rounds.status = ?", domain.RoundCompleted).
		Order("lottery_rounds.end_date desc, lottery_rounds.id desc").
		Limit(limit).
		Find(&rounds).Error
	if err != nil {
		return nil, domain.Storage("round history", err)
	}
	return rounds, nil
}

// Count returns how many rounds are in status
func (m *Manager) Count(ctx context.Context, db *gorm.DB, status domain.RoundStatus) (int64, error) {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.LotteryRound{}).Where("status = ?", status).Count(&n).Error; err != nil {
		return 0, domain.Storage("count rounds", err)
	}
	return n, nil
}
