package api

import (
	"lottery_system/internal/domain" // Importing domain models
	"lottery_system/internal/engine" // Ledger engine
	"lottery_system/internal/round"  // History limits
	"lottery_system/internal/utils"  // Utility functions
	"net/http"                       // HTTP status codes
	"time"                           // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// historyTTL bounds how stale a cached history page may be
const historyTTL = 60 * time.Second

// ListPaymentsHandler returns payment requests, pending by default, oldest first
func ListPaymentsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.PaymentStatus(c.DefaultQuery("status", string(domain.PaymentPending)))
		if status == "all" {
			status = "" // No filter
		}
		if status != "" && !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
			return
		}
		limit := queryLimit(c, 20, 100) // Page size
		reqs, err := eng.ListPayments(c.Request.Context(), status, limit)
		if err != nil {
			respondError(c, "list_payments", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": reqs, "limit": limit})
	}
}

// ApprovePaymentHandler approves a pending request and credits the payer
func ApprovePaymentHandler(eng *engine.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		a, err := eng.ApprovePayment(ctx, id)
		if err != nil {
			respondError(c, "approve_payment", err)
			return
		}
		_ = utils.BumpVersion(ctx, rdb, utils.WalletNS(a.Request.UserID)) // Balance changed
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment approved",
			"payment": a.Request,
			"user_id": a.Request.UserID,
			"balance": a.Balance,
		})
	}
}

// RejectPaymentHandler rejects a pending request
func RejectPaymentHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		pr, err := eng.RejectPayment(c.Request.Context(), id)
		if err != nil {
			respondError(c, "reject_payment", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment rejected", "payment": pr})
	}
}

// DrawWinnerHandler draws the active round and opens the next one
func DrawWinnerHandler(eng *engine.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		d, err := eng.DrawActive(ctx)
		if err != nil {
			respondError(c, "draw_winner", err)
			return
		}
		_ = utils.BumpVersion(ctx, rdb, utils.NSActiveRound, utils.NSRoundHistory) // Round replaced, history grew
		c.JSON(http.StatusOK, gin.H{
			"message":      "Winner drawn",
			"round":        d.Round,
			"winner":       d.Winner,
			"cleared":      d.Cleared,
			"participants": len(d.Participants),
			"next_round":   d.Next,
		})
	}
}

// RoundHistoryHandler returns recently completed rounds with their winners
func RoundHistoryHandler(eng *engine.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		limit := queryLimit(c, round.DefaultHistory, round.MaxHistory) // Page size
		var cached []domain.LotteryRound
		cacheKey, found, cacheErr := utils.GetVersioned(ctx, rdb, utils.NSRoundHistory, utils.HistorySuffix(limit), &cached)
		if cacheErr == nil && found {
			c.JSON(http.StatusOK, gin.H{"rounds": cached, "limit": limit, "cached": true})
			return
		}
		rounds, err := eng.GetRoundHistory(ctx, limit)
		if err != nil {
			respondError(c, "round_history", err)
			return
		}
		if cacheErr == nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, rounds, historyTTL)
		}
		c.JSON(http.StatusOK, gin.H{"rounds": rounds, "limit": limit, "cached": false})
	}
}
