// Package notify delivers best-effort messages about ledger events to users.
// Each event is attempted once; nothing is queued or retried.
package notify

import (
	"context"       // Context for cancellation
	"encoding/json" // JSON encoding
	"strconv"       // String conversion
	"sync"          // Mutexes
	"time"          // Timestamps and durations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Event kinds
const (
	PaymentApproved = "payment_approved"
	PaymentRejected = "payment_rejected"
	TicketPurchased = "ticket_purchased"
	RoundWon        = "round_won"
	RoundLost       = "round_lost"
)

// Event is one message addressed to a single user
type Event struct {
	Kind   string         `json:"kind"`
	UserID uint           `json:"user_id"`
	Data   map[string]any `json:"data,omitempty"`
	At     time.Time      `json:"at"`
}

// Notifier sends an event to its user
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Redis publishes events as JSON on <prefix>:<user id>, where the chat
// transport (or anything else) subscribes.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis returns a Notifier publishing through rdb
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

// Channel returns the pub/sub channel of userID
func (r *Redis) Channel(userID uint) string {
	return r.prefix + ":" + strconv.FormatUint(uint64(userID), 10)
}

func (r *Redis) Notify(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.Channel(e.UserID), b).Err()
}

// Log writes events to the logger, used when no redis is configured
type Log struct{}

func (Log) Notify(_ context.Context, e Event) error {
	logrus.WithFields(logrus.Fields{
		"kind":    e.Kind,
		"user_id": e.UserID,
		"data":    e.Data,
	}).Info("Notification")
	return nil
}

// Recorder keeps events in memory, for tests
type Recorder struct {
	mu     sync.Mutex
	Events []Event
}

func (r *Recorder) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

// Kinds returns the kinds of the recorded events in order
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]string, len(r.Events))
	for i, e := range r.Events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Reset forgets every recorded event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = nil
}
