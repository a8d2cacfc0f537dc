package api

import (
	"lottery_system/internal/middleware" // Context keys
	"net/http"                           // HTTP status codes
	"strconv"                            // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
)

// currentUser returns the authenticated wallet owner, writing 401 if absent
func currentUser(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.UserIDKey)
	id, ok := v.(uint)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}

// pathID parses the :id path parameter, writing 400 if it is not a positive integer
func pathID(c *gin.Context) (uint, bool) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(v), true
}

// queryLimit reads ?limit= within [1, maxLimit], falling back to def
func queryLimit(c *gin.Context, def, maxLimit int) int {
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		if v > maxLimit {
			return maxLimit
		}
		return v
	}
	return def
}
