package api

import (
	"lottery_system/internal/domain" // Importing domain models
	"lottery_system/internal/engine" // Ledger engine
	"lottery_system/internal/utils"  // Utility functions
	"net/http"                       // HTTP status codes
	"time"                           // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// activeRoundTTL bounds how stale the cached active round may be
const activeRoundTTL = 30 * time.Second

// BuyTicketHandler spends one ticket price of the caller's balance on a
// ticket in the active round
func BuyTicketHandler(eng *engine.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		p, err := eng.BuyTicket(ctx, userID)
		if err != nil {
			respondError(c, "buy_ticket", err)
			return
		}
		_ = utils.BumpVersion(ctx, rdb, utils.WalletNS(userID)) // Balance changed
		c.JSON(http.StatusCreated, gin.H{
			"message": "Ticket purchased",
			"ticket":  p.Ticket,
			"round":   p.Round,
			"balance": p.Balance,
		})
	}
}

// MyTicketsHandler lists the caller's tickets in the active round
func MyTicketsHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		tickets, err := eng.MyTickets(c.Request.Context(), userID)
		if err != nil {
			respondError(c, "my_tickets", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tickets": tickets})
	}
}

// ActiveRoundHandler returns the open round
func ActiveRoundHandler(eng *engine.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached domain.LotteryRound
		cacheKey, found, cacheErr := utils.GetVersioned(ctx, rdb, utils.NSActiveRound, "", &cached)
		if cacheErr == nil && found {
			c.JSON(http.StatusOK, gin.H{"round": cached, "cached": true})
			return
		}
		r, err := eng.GetActiveRound(ctx)
		if err != nil {
			respondError(c, "active_round", err)
			return
		}
		if cacheErr == nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, r, activeRoundTTL)
		}
		c.JSON(http.StatusOK, gin.H{"round": r, "cached": false})
	}
}
