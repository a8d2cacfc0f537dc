package ledger_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"lottery_system/internal/db/dbtest"
	"lottery_system/internal/domain"
	"lottery_system/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestGetBalanceUnknownUser(t *testing.T) {
	db := dbtest.Open(t)
	s := ledger.NewStore()

	bal, err := s.GetBalance(context.Background(), db, 1)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	var n int64
	require.NoError(t, db.Model(&domain.Wallet{}).Count(&n).Error)
	assert.Zero(t, n, "reading a balance must not create a wallet")
}

func TestCreditCreatesAndAccumulates(t *testing.T) {
	db := dbtest.Open(t)
	s := ledger.NewStore()
	ctx := context.Background()

	bal, err := s.Credit(ctx, db, 7, dec(10000), "payment_request:1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec(10000)), bal.String())

	bal, err = s.Credit(ctx, db, 7, decimal.RequireFromString("2500.50"), "payment_request:2")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("12500.50")), bal.String())

	var entries []domain.Transaction
	require.NoError(t, db.Where("user_id = ?", 7).Find(&entries).Error)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, domain.TxCredit, e.Type)
	}
}

func TestCreditRejectsNonPositive(t *testing.T) {
	db := dbtest.Open(t)
	s := ledger.NewStore()

	for _, amt := range []decimal.Decimal{decimal.Zero, dec(-5), decimal.RequireFromString("0.001")} {
		_, err := s.Credit(context.Background(), db, 1, amt, "")
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
}

func TestDebit(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		amount  int64
		ok      bool
		after   int64
	}{
		{"exact balance", 10000, 10000, true, 0},
		{"partial", 25000, 10000, true, 15000},
		{"insufficient", 9999, 10000, false, 9999},
		{"no wallet", 0, 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := dbtest.Open(t)
			s := ledger.NewStore()
			ctx := context.Background()
			if tt.balance > 0 {
				_, err := s.Credit(ctx, db, 1, dec(tt.balance), "seed")
				require.NoError(t, err)
			}

			ok, err := s.Debit(ctx, db, 1, dec(tt.amount), "ticket:LT-100000")
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)

			bal, err := s.GetBalance(ctx, db, 1)
			require.NoError(t, err)
			assert.True(t, bal.Equal(dec(tt.after)), bal.String())
			assert.False(t, bal.IsNegative())

			var debits int64
			require.NoError(t, db.Model(&domain.Transaction{}).Where("type = ?", domain.TxDebit).Count(&debits).Error)
			if tt.ok {
				assert.EqualValues(t, 1, debits)
			} else {
				assert.Zero(t, debits, "a refused debit leaves no ledger entry")
			}
		})
	}
}

func TestDebitRejectsNonPositive(t *testing.T) {
	db := dbtest.Open(t)
	ok, err := ledger.NewStore().Debit(context.Background(), db, 1, decimal.Zero, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.False(t, ok)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db := dbtest.Open(t)
	s := ledger.NewStore()
	ctx := context.Background()
	_, err := s.Credit(ctx, db, 1, dec(30000), "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				ok, err := s.Debit(ctx, tx, 1, dec(10000), "ticket")
				if ok {
					succeeded.Add(1)
				}
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, succeeded.Load())
	bal, err := s.GetBalance(ctx, db, 1)
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), bal.String())
}

func TestDebitRolledBackWithTransaction(t *testing.T) {
	db := dbtest.Open(t)
	s := ledger.NewStore()
	ctx := context.Background()
	_, err := s.Credit(ctx, db, 1, dec(10000), "seed")
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.Debit(ctx, tx, 1, dec(10000), "ticket")
		require.True(t, ok)
		require.NoError(t, err)
		return domain.ErrNoActiveRound
	})
	assert.ErrorIs(t, err, domain.ErrNoActiveRound)

	bal, err := s.GetBalance(ctx, db, 1)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec(10000)), bal.String())
}
