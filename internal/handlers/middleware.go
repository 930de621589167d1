package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"restaurant_pos/internal/services"
)

const userIDKey = "user_id"

// UserIdentity resolves the X-User-ID header to an active user. Requests
// without the header pass through anonymously; payment will then fall back
// to the user that opened the session.
func UserIdentity(users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(header, 10, 64)
		if err != nil {
			badRequest(c, "invalid X-User-ID header")
			c.Abort()
			return
		}
		user, err := users.ActiveUser(uint(id))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

// currentUser returns the id set by UserIdentity, or 0.
func currentUser(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}

// RateLimit limits requests per client IP. rate uses the limiter format,
// e.g. "100-M".
func RateLimit(rate string) (gin.HandlerFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(memory.NewStore(), parsed)
	return mgin.NewMiddleware(instance), nil
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"status":   c.Writer.Status(),
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("Request handled")
			return
		}
		entry.Debug("Request handled")
	}
}
