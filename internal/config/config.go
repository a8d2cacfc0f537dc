package config

import (
	"lottery_system/internal/domain" // Amount validation
	"os"                             // For environment variables
	"strconv"                        // For string to int conversion

	"github.com/joho/godotenv"      // For loading .env files
	"github.com/shopspring/decimal" // For money settings
)

// Defaults used when the environment leaves a setting empty
const (
	defaultTicketPrice   = "10000"          // Toman
	defaultPaymentAmount = "10000"          // Toman
	defaultTxRetries     = 3                // Attempts per transaction
	defaultNotifyPrefix  = "lottery:notify" // Redis channel prefix
)

// Config holds the application configuration
type Config struct {
	AppPort           string          // Application port
	DBUser            string          // Database user
	DBPassword        string          // Database password
	DBHost            string          // Database host
	DBPort            string          // Database port
	DBName            string          // Database name
	JWTSecret         string          // JWT secret key
	AdminUsername     string          // Username promoted to admin by cmd/migrate
	AdminPasswordHash string          // bcrypt hash for a newly seeded admin account
	RedisAddr         string          // Redis server address
	RedisPass         string          // Redis password
	RedisDB           int             // Redis database number
	IsProd            bool            // Is production environment
	TicketPrice       decimal.Decimal // Ticket price of a bootstrapped round
	PaymentAmount     decimal.Decimal // Amount of a receipt submitted without one
	TxRetries         int             // Attempts for a transaction hitting a deadlock
	NotifyPrefix      string          // Redis pub/sub channel prefix for notifications
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:           getEnv("APP_PORT", "8080"),                                    // Application port
		DBUser:            os.Getenv("DB_USER"),                                          // Database user
		DBPassword:        os.Getenv("DB_PASSWORD"),                                      // Database password
		DBHost:            getEnv("DB_HOST", "127.0.0.1"),                                // Database host
		DBPort:            getEnv("DB_PORT", "3306"),                                     // Database port
		DBName:            os.Getenv("DB_NAME"),                                          // Database name
		JWTSecret:         os.Getenv("JWT_SECRET"),                                       // JWT secret key
		AdminUsername:     os.Getenv("ADMIN_USERNAME"),                                   // Administrator account
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),                              // Administrator password hash
		RedisAddr:         os.Getenv("REDIS_ADDR"),                                       // Redis server address
		RedisPass:         os.Getenv("REDIS_PASS"),                                       // Redis password
		RedisDB:           redisDB,                                                       // Redis database number
		IsProd:            os.Getenv("IS_PROD") == "true",                                // Is production environment
		TicketPrice:       getEnvDecimal("DEFAULT_TICKET_PRICE", defaultTicketPrice),     // Bootstrap ticket price
		PaymentAmount:     getEnvDecimal("DEFAULT_PAYMENT_AMOUNT", defaultPaymentAmount), // Default receipt amount
		TxRetries:         getEnvInt("TX_RETRIES", defaultTxRetries),                     // Transaction attempts
		NotifyPrefix:      getEnv("NOTIFY_CHANNEL_PREFIX", defaultNotifyPrefix),          // Notification channel prefix
	}
}

// DSN builds the MySQL Data Source Name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// getEnv returns the variable or def when unset
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the variable as a positive int or def
func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

// getEnvDecimal returns the variable as a positive amount of at most two
// fraction digits, or def
func getEnvDecimal(key, def string) decimal.Decimal {
	if v, err := decimal.NewFromString(os.Getenv(key)); err == nil && domain.ValidAmount(v) {
		return v
	}
	return decimal.RequireFromString(def)
}
