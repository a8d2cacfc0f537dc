package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache namespaces. Each has a generation counter at {namespace}:version and
// its entries live under {namespace}:v{generation}{suffix}.
const (
	PrefixWallet   = "wallet:user:"   // wallet:user:{user_id}
	NSRoundHistory = "rounds:history" // Completed rounds, suffixed by page size
	NSActiveRound  = "rounds:active"  // Active round snapshot
)

// WalletNS is the balance cache namespace of userID
func WalletNS(userID uint) string { return PrefixWallet + strconv.FormatUint(uint64(userID), 10) }

// HistorySuffix keys one history page size inside NSRoundHistory
func HistorySuffix(limit int) string { return ":" + strconv.Itoa(limit) }

// versionKey holds the generation counter of ns
func versionKey(ns string) string { return ns + ":version" }

// GetVersioned reads the current generation of ns, then the entry cached
// under it into dest. The returned key is where a value read from the
// database after this call belongs; a writer that bumps ns in between
// retires that key, so a slow reader can never publish a stale value.
func GetVersioned(ctx context.Context, rdb *redis.Client, ns, suffix string, dest any) (string, bool, error) {
	if rdb == nil {
		return "", false, nil // Caching disabled
	}
	gen, err := rdb.Get(ctx, versionKey(ns)).Result() // Current generation
	if err == redis.Nil {
		gen = "0" // Never bumped
	} else if err != nil {
		return "", false, err // Redis error
	}
	key := ns + ":v" + gen + suffix
	found, err := GetCache(ctx, rdb, key, dest)
	return key, found, err
}

// BumpVersion starts a new generation of each namespace. Call it after the
// write commits; older entries are never read again and expire on their TTL.
func BumpVersion(ctx context.Context, rdb *redis.Client, namespaces ...string) error {
	if rdb == nil || len(namespaces) == 0 {
		return nil // Nothing to do
	}
	pipe := rdb.TxPipeline() // One round trip
	for _, ns := range namespaces {
		pipe.Incr(ctx, versionKey(ns)) // Advance generation
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client is a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}
