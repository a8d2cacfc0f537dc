package ledger

import (
	"context"                        // Context for cancellation
	"errors"                         // Error inspection
	"lottery_system/internal/domain" // Domain models and errors
	"strconv"                        // String conversion
	"strings"                        // String manipulation

	"github.com/shopspring/decimal" // Exact decimal money
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locks and upserts
)

// Payments is the queue of submitted payment receipts awaiting an admin decision
type Payments struct {
	store *Store
}

// NewPayments returns a queue crediting approved requests through store
func NewPayments(store *Store) *Payments {
	return &Payments{store: store}
}

// Submit records a pending payment request
func (p *Payments) Submit(ctx context.Context, db *gorm.DB, userID uint, imageRef string, amount decimal.Decimal) (*domain.PaymentRequest, error) {
	if !domain.ValidAmount(amount) {
		return nil, domain.ErrInvalidAmount
	}
	imageRef = strings.TrimSpace(imageRef)
	if imageRef == "" {
		return nil, domain.ErrInvalidImageRef
	}
	req := domain.PaymentRequest{
		UserID:    userID,
		ImageRef:  imageRef,
		Amount:    amount,
		Status:    domain.PaymentPending,
		CreatedAt: p.store.now(),
	}
	if err := db.WithContext(ctx).Create(&req).Error; err != nil {
		return nil, domain.Storage("submit payment request", err)
	}
	return &req, nil
}

// Get returns the payment request id or ErrNotFound
func (p *Payments) Get(ctx context.Context, db *gorm.DB, id uint) (*domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := db.WithContext(ctx).First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get payment request", err)
	}
	return &req, nil
}

// List returns requests in status (all when empty), oldest first so the
// review queue is worked in submission order.
func (p *Payments) List(ctx context.Context, db *gorm.DB, status domain.PaymentStatus, limit int) ([]domain.PaymentRequest, error) {
	q := db.WithContext(ctx).Model(&domain.PaymentRequest{})
	if status != "" {
		if !status.Valid() {
			return nil, domain.ErrInvalidState
		}
		q = q.Where("status = ?", status)
	}
	var reqs []domain.PaymentRequest
	if err := q.Order("created_at asc, id asc").Limit(limit).Find(&reqs).Error; err != nil {
		return nil, domain.Storage("list payment requests", err)
	}
	return reqs, nil
}

// Approve marks a pending request approved and credits its amount to the
// payer. Both writes happen on tx; the request row is locked first so a
// racing approval waits and then sees the decided status.
func (p *Payments) Approve(ctx context.Context, tx *gorm.DB, id uint) (*domain.PaymentRequest, decimal.Decimal, error) {
	req, err := p.decide(ctx, tx, id, domain.PaymentApproved)
	if err != nil {
		return nil, decimal.Zero, err
	}
	balance, err := p.store.Credit(ctx, tx, req.UserID, req.Amount, "payment_request:"+strconv.FormatUint(uint64(req.ID), 10))
	if err != nil {
		return nil, decimal.Zero, err
	}
	return req, balance, nil
}

// Reject marks a pending request rejected. There is no ledger effect.
func (p *Payments) Reject(ctx context.Context, tx *gorm.DB, id uint) (*domain.PaymentRequest, error) {
	return p.decide(ctx, tx, id, domain.PaymentRejected)
}

func (p *Payments) decide(ctx context.Context, tx *gorm.DB, id uint, to domain.PaymentStatus) (*domain.PaymentRequest, error) {
	tx = tx.WithContext(ctx)
	var req domain.PaymentRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("lock payment request", err)
	}
	next, err := req.Status.Decide(to)
	if err != nil {
		return nil, err
	}
	now := p.store.now()
	// The status guard makes the update a no-op if another writer got here first.
	res := tx.Model(&domain.PaymentRequest{}).
		Where("id = ? AND status = ?", req.ID, domain.PaymentPending).
		Updates(map[string]any{"status": next, "decided_at": now})
	if res.Error != nil {
		return nil, domain.Storage("decide payment request", res.Error)
	}
	if res.RowsAffected != 1 {
		return nil, domain.ErrAlreadyDecided
	}
	req.Status = next
	req.DecidedAt = &now
	return &req, nil
}
