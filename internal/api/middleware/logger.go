// internal/api/middleware/logger.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// AccountHeader carries the tenant of a request.
	AccountHeader = "X-Account-ID"
	accountKey    = "account_id"
)

// Logger is a middleware that logs the request details
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		// Process request
		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Str("account_id", c.GetString(accountKey)).
			Str("user-agent", c.Request.UserAgent()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request processed")
	}
}

// Recovery recovers from panics and logs the error
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Msg("Recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// Account resolves the request account from the X-Account-ID header,
// falling back to defaultAccountID.
func Account(defaultAccountID string) gin.HandlerFunc {
	defaultAccountID = strings.TrimSpace(defaultAccountID)
	return func(c *gin.Context) {
		account := strings.TrimSpace(c.GetHeader(AccountHeader))
		if account == "" {
			account = defaultAccountID
		}
		c.Set(accountKey, account)
		c.Next()
	}
}

// AccountID returns the account resolved by Account.
func AccountID(c *gin.Context) string {
	return c.GetString(accountKey)
}
