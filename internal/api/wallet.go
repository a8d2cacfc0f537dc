package api

import (
	"lottery_system/internal/engine" // Ledger engine
	"lottery_system/internal/utils"  // Utility functions
	"net/http"                       // HTTP status codes
	"time"                           // Time durations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact decimal money
	"github.com/sirupsen/logrus"    // Logging library
)

// walletTTL bounds how stale a cached balance may be
const walletTTL = 60 * time.Second

// WalletResponse is the body of GET /wallet
type WalletResponse struct {
	UserID  uint            `json:"user_id"` // Wallet owner
	Balance decimal.Decimal `json:"balance"` // Spendable balance
}

// GetWalletHandler returns the balance of the authenticated user. Unknown
// users read as zero; nothing is created.
func GetWalletHandler(eng *engine.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		var cached WalletResponse
		cacheKey, found, cacheErr := utils.GetVersioned(ctx, rdb, utils.WalletNS(userID), "", &cached)
		if cacheErr == nil && found {
			c.JSON(http.StatusOK, gin.H{"wallet": cached, "cached": true}) // Return cached wallet
			return
		}
		balance, err := eng.GetBalance(ctx, userID) // Read through to the ledger
		if err != nil {
			respondError(c, "get_balance", err)
			return
		}
		resp := WalletResponse{UserID: userID, Balance: balance}
		if cacheErr == nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, walletTTL) // Cache under the generation read above
		}
		c.JSON(http.StatusOK, gin.H{"wallet": resp, "cached": false})
	}
}

// LedgerHistoryHandler returns the credits and debits of the authenticated user
func LedgerHistoryHandler(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		limit := queryLimit(c, 20, 100) // Page size
		txs, err := eng.LedgerHistory(c.Request.Context(), userID, limit)
		if err != nil {
			respondError(c, "ledger_history", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txs, "limit": limit})
	}
}

// SubmitPaymentRequest is the body of POST /wallet/payments
type SubmitPaymentRequest struct {
	ImageRef string           `json:"image_ref" binding:"required"` // Handle of the uploaded receipt
	Amount   *decimal.Decimal `json:"amount"`                       // Optional, defaults to the configured amount
}

// SubmitPaymentHandler queues a receipt for admin review
func SubmitPaymentHandler(eng *engine.Engine, defaultAmount decimal.Decimal) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req SubmitPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		amount := defaultAmount
		if req.Amount != nil {
			amount = *req.Amount
		}
		pr, err := eng.SubmitPayment(c.Request.Context(), userID, req.ImageRef, amount)
		if err != nil {
			respondError(c, "submit_payment", err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"request_id": pr.ID,
		}).Info("Receipt awaiting approval")
		c.JSON(http.StatusCreated, gin.H{"message": "Payment submitted, awaiting approval", "payment": pr})
	}
}
