// Package engine sequences the ledger and round stores into the
// money-moving operations. Each operation is one database transaction; the
// engine itself holds no state beyond its collaborators.
package engine

import (
	"context"                             // Context for cancellation
	"errors"                              // Error inspection
	database "lottery_system/internal/db" // Driver error classification
	"lottery_system/internal/domain"      // Domain models and errors
	"lottery_system/internal/ledger"      // Balances and payment requests
	"lottery_system/internal/metrics"     // Prometheus metrics
	"lottery_system/internal/notify"      // Notifications
	"lottery_system/internal/round"       // Tickets and rounds
	"time"                                // Timestamps and durations

	"github.com/sirupsen/logrus" // Logrus for structured logging
	"gorm.io/gorm"               // GORM ORM library
)

// maxNumberAttempts bounds the search for an unused ticket number inside one transaction
const maxNumberAttempts = 8

// errNumberCollision makes inTx re-run a purchase whose ticket number lost a race
var errNumberCollision = errors.New("ticket number collision")

// Engine is the lottery ledger engine
type Engine struct {
	db       *gorm.DB
	wallets  *ledger.Store
	payments *ledger.Payments
	tickets  *round.Tickets
	rounds   *round.Manager
	numbers  round.NumberGenerator
	notifier notify.Notifier
	retries  int
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithSource sets the randomness for winner selection and ticket numbers
func WithSource(src round.Source) Option {
	return func(e *Engine) {
		e.tickets = round.NewTickets(src)
		e.numbers = round.TicketNumbers(src)
	}
}

// WithNumberGenerator replaces the ticket number generator
func WithNumberGenerator(gen round.NumberGenerator) Option {
	return func(e *Engine) { e.numbers = gen }
}

// WithNotifier sets where post-commit notifications go
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithRetries sets how many times a transaction is attempted
func WithRetries(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.retries = n
		}
	}
}

// WithClock sets the clock used for every timestamp the engine writes
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine over db
func New(db *gorm.DB, opts ...Option) *Engine {
	src := round.NewSource()
	e := &Engine{
		db:       db,
		tickets:  round.NewTickets(src),
		numbers:  round.TicketNumbers(src),
		notifier: notify.Log{},
		retries:  3,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.wallets = ledger.NewStore().WithClock(e.now)
	e.payments = ledger.NewPayments(e.wallets)
	e.rounds = round.NewManager().WithClock(e.now)
	return e
}

// inTx runs fn in a transaction, re-running it from scratch when the
// database picked it as a deadlock victim, a lock wait timed out, or a
// ticket number collided. Domain errors are returned as is; anything else
// comes back as a *domain.StorageError.
func (e *Engine) inTx(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= e.retries; attempt++ {
		err = e.db.WithContext(ctx).Transaction(fn)
		if err == nil || domain.IsDomain(err) {
			return err
		}
		if !errors.Is(err, errNumberCollision) && !database.IsRetryable(err) {
			break
		}
		if attempt < e.retries {
			metrics.RecordRetry(op)
			logrus.WithFields(logrus.Fields{"operation": op, "attempt": attempt, "error": err.Error()}).Warn("Retrying transaction")
		}
	}
	return domain.Storage(op, err)
}

// observe records metrics for one operation
func (e *Engine) observe(op string, err error, started time.Time) {
	metrics.RecordOperation(op, resultLabel(err), started)
}

// send delivers events once each; failures are logged and dropped
func (e *Engine) send(ctx context.Context, events ...notify.Event) {
	for _, ev := range events {
		ev.At = e.now()
		if err := e.notifier.Notify(ctx, ev); err != nil {
			logrus.WithFields(logrus.Fields{
				"kind":    ev.Kind,
				"user_id": ev.UserID,
				"error":   err.Error(),
			}).Warn("Notification failed")
		}
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyDecided):
		return "already_decided"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrNoActiveRound):
		return "no_active_round"
	case errors.Is(err, domain.ErrConflictingActiveRound):
		return "conflicting_active_round"
	case errors.Is(err, domain.ErrNoParticipants):
		return "no_participants"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidImageRef):
		return "invalid_input"
	}
	return "error"
}
