package engine

import (
	"context"                             // Context for cancellation
	"errors"                              // Error inspection
	database "lottery_system/internal/db" // Driver error classification
	"lottery_system/internal/domain"      // Domain models and errors
	"lottery_system/internal/metrics"     // Prometheus metrics
	"lottery_system/internal/notify"      // Notifications
	"time"                                // Timestamps and durations

	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// Purchase is the outcome of BuyTicket
type Purchase struct {
	Ticket  domain.Ticket       `json:"ticket"`
	Round   domain.LotteryRound `json:"round"`
	Balance decimal.Decimal     `json:"balance"` // Buyer balance after the debit
}

// Draw is the outcome of DrawWinner
type Draw struct {
	Round        domain.LotteryRound `json:"round"`        // The completed round
	Winner       domain.Ticket       `json:"winner"`       // Snapshot of the winning ticket, whose row is gone
	Cleared      int64               `json:"cleared"`      // Tickets removed with the round
	Participants []uint              `json:"participants"` // Distinct buyers of the round
	Next         domain.LotteryRound `json:"next"`         // The round opened in its place
}

// Bootstrap makes sure an active round exists, opening one at price if not
func (e *Engine) Bootstrap(ctx context.Context, price decimal.Decimal) (*domain.LotteryRound, error) {
	var out domain.LotteryRound
	err := e.inTx(ctx, "bootstrap", func(tx *gorm.DB) error {
		r, err := e.rounds.GetActiveForUpdate(ctx, tx)
		if errors.Is(err, domain.ErrNoActiveRound) {
			r, err = e.rounds.Open(ctx, tx, price)
		}
		if err != nil {
			return err
		}
		out = *r
		return nil
	})
	if errors.Is(err, domain.ErrConflictingActiveRound) {
		// another instance opened it first
		return e.rounds.GetActive(ctx, e.db)
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"round_id": out.ID, "ticket_price": out.TicketPrice.String()}).Info("Active round ready")
	return &out, nil
}

// GetActiveRound returns the open round or ErrNoActiveRound
func (e *Engine) GetActiveRound(ctx context.Context) (*domain.LotteryRound, error) {
	return e.rounds.GetActive(ctx, e.db)
}

// GetRoundHistory returns up to limit completed rounds, newest first
func (e *Engine) GetRoundHistory(ctx context.Context, limit int) ([]domain.LotteryRound, error) {
	return e.rounds.History(ctx, e.db, limit)
}

// MyTickets returns the tickets userID holds in the active round
func (e *Engine) MyTickets(ctx context.Context, userID uint) ([]domain.Ticket, error) {
	r, err := e.rounds.GetActive(ctx, e.db)
	if err != nil {
		return nil, err
	}
	return e.tickets.ListForUser(ctx, e.db, userID, r.ID)
}

// BuyTicket debits the active round's price from userID and issues a
// ticket. The debit and the issuance commit together or not at all.
func (e *Engine) BuyTicket(ctx context.Context, userID uint) (*Purchase, error) {
	start := time.Now()
	var out Purchase
	err := e.inTx(ctx, "buy_ticket", func(tx *gorm.DB) error {
		r, err := e.rounds.GetActiveShared(ctx, tx)
		if err != nil {
			return err
		}
		number, err := e.freeNumber(ctx, tx)
		if err != nil {
			return err
		}
		ok, err := e.wallets.Debit(ctx, tx, userID, r.TicketPrice, "ticket:"+number)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInsufficientFunds
		}
		t, err := e.tickets.Issue(ctx, tx, userID, r.ID, number)
		if err != nil {
			if database.IsDuplicate(err) {
				return errNumberCollision
			}
			return err
		}
		balance, err := e.wallets.GetBalance(ctx, tx, userID)
		if err != nil {
			return err
		}
		out = Purchase{Ticket: *t, Round: *r, Balance: balance}
		return nil
	})
	e.observe("buy_ticket", err, start)
	if err != nil {
		return nil, err
	}
	metrics.RecordTicketSold()
	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"round_id":      out.Round.ID,
		"ticket_number": out.Ticket.TicketNumber,
		"balance":       out.Balance.String(),
	}).Info("Ticket purchased")
	e.send(ctx, notify.Event{
		Kind:   notify.TicketPurchased,
		UserID: userID,
		Data:   map[string]any{"ticket_number": out.Ticket.TicketNumber, "round_id": out.Round.ID, "balance": out.Balance.String()},
	})
	return &out, nil
}

// freeNumber draws ticket numbers until one is unused
func (e *Engine) freeNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		n := e.numbers()
		taken, err := e.tickets.NumberTaken(ctx, tx, n)
		if err != nil {
			return "", err
		}
		if !taken {
			return n, nil
		}
	}
	return "", errNumberCollision
}

// DrawActive draws the currently active round
func (e *Engine) DrawActive(ctx context.Context) (*Draw, error) {
	r, err := e.rounds.GetActive(ctx, e.db)
	if err != nil {
		return nil, err
	}
	return e.DrawWinner(ctx, r.ID)
}

// DrawWinner picks a winning ticket of round id, completes the round,
// clears its tickets and opens the next round at the same price, all in
// one transaction. A round without tickets stays active.
func (e *Engine) DrawWinner(ctx context.Context, id uint) (*Draw, error) {
	start := time.Now()
	var out Draw
	err := e.inTx(ctx, "draw_winner", func(tx *gorm.DB) error {
		r, err := e.rounds.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.Status != domain.RoundActive {
			return domain.ErrInvalidState
		}
		winner, err := e.tickets.PickRandomWinner(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		if winner == nil {
			return domain.ErrNoParticipants
		}
		participants, err := e.tickets.Participants(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		completed, err := e.rounds.Complete(ctx, tx, r.ID, domain.WinnerRef{
			TicketID:     winner.ID,
			TicketNumber: winner.TicketNumber,
			UserID:       winner.UserID,
		})
		if err != nil {
			return err
		}
		cleared, err := e.tickets.ClearRound(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		next, err := e.rounds.Open(ctx, tx, r.TicketPrice)
		if err != nil {
			return err
		}
		out = Draw{Round: *completed, Winner: *winner, Cleared: cleared, Participants: participants, Next: *next}
		return nil
	})
	e.observe("draw_winner", err, start)
	if err != nil {
		logrus.WithFields(logrus.Fields{"round_id": id, "error": err.Error()}).Warn("Draw refused")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"round_id":      out.Round.ID,
		"winner_id":     out.Winner.UserID,
		"ticket_number": out.Winner.TicketNumber,
		"cleared":       out.Cleared,
		"next_round_id": out.Next.ID,
	}).Info("Round drawn")
	e.send(ctx, drawEvents(out)...)
	return &out, nil
}

func drawEvents(d Draw) []notify.Event {
	events := make([]notify.Event, 0, len(d.Participants))
	for _, uid := range d.Participants {
		kind := notify.RoundLost
		if uid == d.Winner.UserID {
			kind = notify.RoundWon
		}
		events = append(events, notify.Event{
			Kind:   kind,
			UserID: uid,
			Data:   map[string]any{"round_id": d.Round.ID, "ticket_number": d.Winner.TicketNumber},
		})
	}
	return events
}
