package api

import (
	"lottery_system/internal/engine"     // Ledger engine
	"lottery_system/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
	"github.com/redis/go-redis/v9"                            // Redis client
	"github.com/shopspring/decimal"                           // Exact decimal money
	"gorm.io/gorm"                                            // GORM ORM library
)

// Deps is everything the HTTP surface needs
type Deps struct {
	DB            *gorm.DB        // Users table, admin checks
	Engine        *engine.Engine  // Ledger engine
	Redis         *redis.Client   // Optional cache, nil disables caching
	JWTSecret     string          // Token signing secret
	PaymentAmount decimal.Decimal // Default receipt amount
}

// NewRouter wires every route onto a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestIDMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus scrape endpoint

	// Auth routes
	r.POST("/user", RegisterHandler(d.DB))          // Registration endpoint
	r.GET("/user", LoginHandler(d.DB, d.JWTSecret)) // Login endpoint

	auth := middleware.JWTAuthMiddleware(d.JWTSecret)

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallet", auth)
	walletGroup.GET("", GetWalletHandler(d.Engine, d.Redis))                       // Balance
	walletGroup.GET("/transactions", LedgerHistoryHandler(d.Engine))               // Ledger entries
	walletGroup.POST("/payments", SubmitPaymentHandler(d.Engine, d.PaymentAmount)) // Submit receipt

	// Lottery routes (protected by JWT)
	lotteryGroup := r.Group("/lottery", auth)
	lotteryGroup.GET("/round", ActiveRoundHandler(d.Engine, d.Redis))  // Active round
	lotteryGroup.POST("/tickets", BuyTicketHandler(d.Engine, d.Redis)) // Buy ticket
	lotteryGroup.GET("/tickets", MyTicketsHandler(d.Engine))           // My tickets

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin", auth, middleware.AdminOnlyMiddleware(d.DB))
	adminGroup.GET("/payments", ListPaymentsHandler(d.Engine))                         // Review queue
	adminGroup.POST("/payments/:id/approve", ApprovePaymentHandler(d.Engine, d.Redis)) // Approve receipt
	adminGroup.POST("/payments/:id/reject", RejectPaymentHandler(d.Engine))            // Reject receipt
	adminGroup.POST("/draw", DrawWinnerHandler(d.Engine, d.Redis))                     // Draw active round
	adminGroup.GET("/rounds/history", RoundHistoryHandler(d.Engine, d.Redis))          // Completed rounds

	return r
}
