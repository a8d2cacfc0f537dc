package engine

import (
	"context"                        // Context for cancellation
	"lottery_system/internal/domain" // Domain models and errors
	"lottery_system/internal/notify" // Notifications
	"time"                           // Timestamps and durations

	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// Approval is the outcome of ApprovePayment
type Approval struct {
	Request domain.PaymentRequest `json:"request"`
	Balance decimal.Decimal       `json:"balance"` // Payer balance after the credit
}

// GetBalance returns the wallet balance of userID, zero for a new user
func (e *Engine) GetBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	return e.wallets.GetBalance(ctx, e.db, userID)
}

// LedgerHistory returns the credits and debits of userID, newest first
func (e *Engine) LedgerHistory(ctx context.Context, userID uint, limit int) ([]domain.Transaction, error) {
	return e.wallets.History(ctx, e.db, userID, limit)
}

// SubmitPayment records a receipt awaiting approval
func (e *Engine) SubmitPayment(ctx context.Context, userID uint, imageRef string, amount decimal.Decimal) (*domain.PaymentRequest, error) {
	start := time.Now()
	req, err := e.payments.Submit(ctx, e.db, userID, imageRef, amount)
	e.observe("submit_payment", err, start)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"request_id": req.ID,
		"amount":     amount.String(),
	}).Info("Payment request submitted")
	return req, nil
}

// ApprovePayment approves request id and credits its payer exactly once
func (e *Engine) ApprovePayment(ctx context.Context, id uint) (*Approval, error) {
	start := time.Now()
	var out Approval
	err := e.inTx(ctx, "approve_payment", func(tx *gorm.DB) error {
		req, balance, err := e.payments.Approve(ctx, tx, id)
		if err != nil {
			return err
		}
		out = Approval{Request: *req, Balance: balance}
		return nil
	})
	e.observe("approve_payment", err, start)
	if err != nil {
		logrus.WithFields(logrus.Fields{"request_id": id, "error": err.Error()}).Warn("Payment approval refused")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"request_id": id,
		"user_id":    out.Request.UserID,
		"amount":     out.Request.Amount.String(),
		"balance":    out.Balance.String(),
	}).Info("Payment approved")
	e.send(ctx, notify.Event{
		Kind:   notify.PaymentApproved,
		UserID: out.Request.UserID,
		Data:   map[string]any{"request_id": id, "amount": out.Request.Amount.String(), "balance": out.Balance.String()},
	})
	return &out, nil
}

// RejectPayment rejects request id; no funds move
func (e *Engine) RejectPayment(ctx context.Context, id uint) (*domain.PaymentRequest, error) {
	start := time.Now()
	var out domain.PaymentRequest
	err := e.inTx(ctx, "reject_payment", func(tx *gorm.DB) error {
		req, err := e.payments.Reject(ctx, tx, id)
		if err != nil {
			return err
		}
		out = *req
		return nil
	})
	e.observe("reject_payment", err, start)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"request_id": id, "user_id": out.UserID}).Info("Payment rejected")
	e.send(ctx, notify.Event{
		Kind:   notify.PaymentRejected,
		UserID: out.UserID,
		Data:   map[string]any{"request_id": id},
	})
	return &out, nil
}

// GetPayment returns request id
func (e *Engine) GetPayment(ctx context.Context, id uint) (*domain.PaymentRequest, error) {
	return e.payments.Get(ctx, e.db, id)
}

// ListPayments returns requests in status, oldest first
func (e *Engine) ListPayments(ctx context.Context, status domain.PaymentStatus, limit int) ([]domain.PaymentRequest, error) {
	return e.payments.List(ctx, e.db, status, limit)
}
