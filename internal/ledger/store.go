// Package ledger keeps wallet balances and the payment requests that fund them.
package ledger

import (
	"context"                        // Context for cancellation
	"errors"                         // Error inspection
	"fmt"                            // String formatting
	"lottery_system/internal/domain" // Domain models and errors
	"time"                           // Timestamps and durations

	"github.com/shopspring/decimal" // Exact decimal money
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locks and upserts
)

// Store mutates wallet balances. Every method runs on the handle it is
// given, so callers compose them inside a single gorm transaction.
type Store struct {
	now func() time.Time
}

// NewStore returns a Store using the wall clock
func NewStore() *Store {
	return &Store{now: time.Now}
}

// WithClock overrides the clock, used by tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetBalance returns the balance of userID, zero when the user has no wallet yet.
func (s *Store) GetBalance(ctx context.Context, db *gorm.DB, userID uint) (decimal.Decimal, error) {
	var w domain.Wallet
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, domain.Storage("get balance", err)
	}
	return w.Balance, nil
}

// GetWallet returns the wallet row of userID or ErrNotFound
func (s *Store) GetWallet(ctx context.Context, db *gorm.DB, userID uint) (*domain.Wallet, error) {
	var w domain.Wallet
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get wallet", err)
	}
	return &w, nil
}

// Credit adds amount to the wallet of userID, creating it if absent, and
// returns the new balance. ref is written to the ledger audit row.
func (s *Store) Credit(ctx context.Context, tx *gorm.DB, userID uint, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	if !domain.ValidAmount(amount) {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	tx = tx.WithContext(ctx)
	now := s.now()
	w := domain.Wallet{UserID: userID, Balance: amount, LastUpdated: now}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance":      gorm.Expr("balance + ?", amount),
			"last_updated": now,
		}),
	}).Create(&w).Error
	if err != nil {
		return decimal.Zero, domain.Storage("credit wallet", err)
	}
	if err := s.record(tx, userID, amount, domain.TxCredit, ref); err != nil {
		return decimal.Zero, err
	}
	var credited domain.Wallet
	if err := tx.Where("user_id = ?", userID).Take(&credited).Error; err != nil {
		return decimal.Zero, domain.Storage("read credited balance", err)
	}
	return credited.Balance, nil
}

// Debit subtracts amount from the wallet of userID only if the balance
// covers it. The check and the subtraction are one conditional UPDATE, so
// concurrent debits can never overdraw. It reports false with no side
// effects when funds are insufficient or the wallet does not exist.
func (s *Store) Debit(ctx context.Context, tx *gorm.DB, userID uint, amount decimal.Decimal, ref string) (bool, error) {
	if !domain.ValidAmount(amount) {
		return false, domain.ErrInvalidAmount
	}
	tx = tx.WithContext(ctx)
	res := tx.Model(&domain.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]any{
			"balance":      gorm.Expr("balance - ?", amount),
			"last_updated": s.now(),
		})
	if res.Error != nil {
		return false, domain.Storage("debit wallet", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := s.record(tx, userID, amount, domain.TxDebit, ref); err != nil {
		return false, err
	}
	return true, nil
}

// History lists the ledger entries of userID, newest first
func (s *Store) History(ctx context.Context, db *gorm.DB, userID uint, limit int) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, domain.Storage("list ledger entries", err)
	}
	return txs, nil
}

func (s *Store) record(tx *gorm.DB, userID uint, amount decimal.Decimal, kind, ref string) error {
	entry := domain.Transaction{UserID: userID, Amount: amount, Type: kind, Reference: ref}
	if err := tx.Create(&entry).Error; err != nil {
		return domain.Storage(fmt.Sprintf("record %s entry", kind), err)
	}
	return nil
}
