package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatusDecide(t *testing.T) {
	tests := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want PaymentStatus
		err  error
	}{
		{"pending to approved", PaymentPending, PaymentApproved, PaymentApproved, nil},
		{"pending to rejected", PaymentPending, PaymentRejected, PaymentRejected, nil},
		{"pending to pending", PaymentPending, PaymentPending, PaymentPending, ErrInvalidState},
		{"approved again", PaymentApproved, PaymentApproved, PaymentApproved, ErrAlreadyDecided},
		{"rejected to approved", PaymentRejected, PaymentApproved, PaymentRejected, ErrAlreadyDecided},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.from.Decide(tt.to)
			assert.Equal(t, tt.want, got)
			if tt.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestAlreadyDecidedIsInvalidState(t *testing.T) {
	assert.ErrorIs(t, ErrAlreadyDecided, ErrInvalidState)
}

func TestRoundComplete(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRound(decimal.NewFromInt(10000), start)
	require.NotNil(t, r.ActiveSlot)
	assert.Equal(t, RoundActive, r.Status)
	_, ok := r.Winner()
	assert.False(t, ok)

	end := start.Add(time.Hour)
	w := WinnerRef{TicketID: 3, TicketNumber: "LT-123456", UserID: 9}
	require.NoError(t, r.Complete(w, end))
	assert.Equal(t, RoundCompleted, r.Status)
	assert.Nil(t, r.ActiveSlot)
	require.NotNil(t, r.EndDate)
	assert.Equal(t, end, *r.EndDate)
	got, ok := r.Winner()
	assert.True(t, ok)
	assert.Equal(t, w, got)

	assert.ErrorIs(t, r.Complete(w, end), ErrInvalidState)
}

func TestStorageWrapping(t *testing.T) {
	assert.Nil(t, Storage("op", nil))
	assert.Equal(t, ErrNotFound, Storage("op", ErrNotFound))

	wrapped := Storage("debit", errors.New("connection refused"))
	var se *StorageError
	require.ErrorAs(t, wrapped, &se)
	assert.Equal(t, "debit", se.Op)
	assert.False(t, IsDomain(wrapped))
	assert.Equal(t, "storage: debit: connection refused", wrapped.Error())

	assert.Same(t, wrapped, Storage("outer", wrapped))
	assert.True(t, IsDomain(fmt.Errorf("ctx: %w", ErrNoParticipants)))
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"10000", true},
		{"10.5", true},
		{"10.50", true},
		{"10.500", true},
		{"0.01", true},
		{"10.005", false},
		{"0.004", false},
		{"0", false},
		{"-1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidAmount(decimal.RequireFromString(tt.in)), tt.in)
	}
}
