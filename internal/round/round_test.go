package round_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"lottery_system/internal/db/dbtest"
	"lottery_system/internal/domain"
	"lottery_system/internal/round"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var price = decimal.NewFromInt(10000)

func TestTicketNumbersFormat(t *testing.T) {
	gen := round.TicketNumbers(round.NewSeededSource(1))
	re := regexp.MustCompile(`^LT-[1-9][0-9]{5}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, re, gen())
	}
}

func TestOpenRejectsSecondActiveRound(t *testing.T) {
	db := dbtest.Open(t)
	m := round.NewManager()
	ctx := context.Background()

	_, err := m.GetActive(ctx, db)
	assert.ErrorIs(t, err, domain.ErrNoActiveRound)

	r, err := m.Open(ctx, db, price)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundActive, r.Status)

	_, err = m.Open(ctx, db, price)
	assert.ErrorIs(t, err, domain.ErrConflictingActiveRound)

	_, err = m.Open(ctx, db, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = m.Open(ctx, db, decimal.RequireFromString("10000.005"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	active, err := m.GetActive(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, r.ID, active.ID)
	assert.True(t, active.TicketPrice.Equal(price))
}

func TestActiveSlotIndexRejectsDirectInsert(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Now()
	first := domain.NewRound(price, now)
	require.NoError(t, db.Create(&first).Error)

	second := domain.NewRound(price, now)
	err := db.Create(&second).Error
	assert.Error(t, err, "the unique active slot must refuse a second active row")
}

func TestCompleteThenOpen(t *testing.T) {
	db := dbtest.Open(t)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := round.NewManager().WithClock(func() time.Time { return clock })
	ctx := context.Background()

	r, err := m.Open(ctx, db, price)
	require.NoError(t, err)

	winner := domain.WinnerRef{TicketID: 11, TicketNumber: "LT-555555", UserID: 3}
	done, err := m.Complete(ctx, db, r.ID, winner)
	require.NoError(t, err)
	assert.Equal(t, domain.RoundCompleted, done.Status)

	_, err = m.Complete(ctx, db, r.ID, winner)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = m.Complete(ctx, db, 999, winner)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	next, err := m.Open(ctx, db, price)
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, next.ID)

	history, err := m.History(ctx, db, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	got, ok := history[0].Winner()
	require.True(t, ok)
	assert.Equal(t, winner, got)
	require.NotNil(t, history[0].EndDate)
	assert.True(t, clock.Equal(*history[0].EndDate))

	active, err := m.Count(ctx, db, domain.RoundActive)
	require.NoError(t, err)
	assert.EqualValues(t, 1, active)
}

func TestHistoryNewestFirst(t *testing.T) {
	db := dbtest.Open(t)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := round.NewManager().WithClock(func() time.Time { return clock })
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		r, err := m.Open(ctx, db, price)
		require.NoError(t, err)
		clock = clock.Add(time.Hour)
		_, err = m.Complete(ctx, db, r.ID, domain.WinnerRef{TicketID: uint(i + 1), TicketNumber: "LT-100000", UserID: 1})
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	history, err := m.History(ctx, db, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, ids[1], history[1].ID)
	assert.Nil(t, history[0].WinnerUsername, "no account for user 1")
}

func TestHistoryIncludesWinnerUsername(t *testing.T) {
	db := dbtest.Open(t)
	m := round.NewManager()
	ctx := context.Background()

	user := domain.User{Username: "alice", Password: "x", Role: domain.RoleUser}
	require.NoError(t, db.Create(&user).Error)

	r, err := m.Open(ctx, db, price)
	require.NoError(t, err)
	_, err = m.Complete(ctx, db, r.ID, domain.WinnerRef{TicketID: 1, TicketNumber: "LT-123456", UserID: user.ID})
	require.NoError(t, err)

	history, err := m.History(ctx, db, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].WinnerUsername)
	assert.Equal(t, "alice", *history[0].WinnerUsername)
	assert.True(t, history[0].TicketPrice.Equal(price))
}

func TestTicketRegistry(t *testing.T) {
	db := dbtest.Open(t)
	reg := round.NewTickets(round.NewSeededSource(7))
	ctx := context.Background()

	winner, err := reg.PickRandomWinner(ctx, db, 1)
	require.NoError(t, err)
	assert.Nil(t, winner)

	_, err = reg.Issue(ctx, db, 10, 1, "LT-100001")
	require.NoError(t, err)
	_, err = reg.Issue(ctx, db, 11, 1, "LT-100002")
	require.NoError(t, err)
	_, err = reg.Issue(ctx, db, 10, 1, "LT-100003")
	require.NoError(t, err)
	_, err = reg.Issue(ctx, db, 12, 2, "LT-100004")
	require.NoError(t, err)

	_, err = reg.Issue(ctx, db, 12, 2, "LT-100004")
	assert.Error(t, err, "ticket numbers are unique")

	taken, err := reg.NumberTaken(ctx, db, "LT-100002")
	require.NoError(t, err)
	assert.True(t, taken)

	mine, err := reg.ListForUser(ctx, db, 10, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	participants, err := reg.Participants(ctx, db, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{10, 11}, participants)

	winner, err = reg.PickRandomWinner(ctx, db, 1)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, uint(1), winner.LotteryID)

	cleared, err := reg.ClearRound(ctx, db, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cleared)

	left, err := reg.Count(ctx, db, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, left, "other rounds keep their tickets")
}

func TestPickRandomWinnerIsUniform(t *testing.T) {
	db := dbtest.Open(t)
	reg := round.NewTickets(round.NewSeededSource(42))
	ctx := context.Background()

	for i, n := range []string{"LT-200001", "LT-200002", "LT-200003", "LT-200004"} {
		_, err := reg.Issue(ctx, db, uint(i+1), 1, n)
		require.NoError(t, err)
	}

	hits := map[uint]int{}
	const draws = 2000
	for i := 0; i < draws; i++ {
		w, err := reg.PickRandomWinner(ctx, db, 1)
		require.NoError(t, err)
		hits[w.UserID]++
	}
	require.Len(t, hits, 4)
	for uid, n := range hits {
		assert.InDelta(t, draws/4, n, draws/10, "user %d", uid)
	}
}
