package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tazhibayda/chat-service/internal/log"
	"github.com/tazhibayda/chat-service/internal/metrics"
	"github.com/tazhibayda/chat-service/internal/repo"
	"github.com/tazhibayda/chat-service/internal/security"
)

const (
	authUserKey  = "uid"
	requestIDKey = "X-Request-ID"
)

// RequestID propagates an inbound X-Request-ID or mints one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDKey, id)
		c.Next()
	}
}

// Identity resolves the authenticated user from a bearer session token
// and stores the external identity id in the context. It never aborts:
// the chat handlers answer unauthenticated requests themselves, with
// the 200 success:false body the frontend expects.
func Identity(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(h), "bearer ") {
			tok := strings.TrimSpace(h[len("Bearer "):])
			if claims, err := security.ParseAccess(jwtSecret, tok); err == nil {
				uid := claims.UID
				if uid == "" {
					uid = claims.Subject
				}
				c.Set(authUserKey, uid)
				c.Set("email", claims.Email)
			}
		}
		c.Next()
	}
}

// RateLimit applies a fixed window per user (or per client IP when
// anonymous) backed by Redis. Disabled when Redis is not configured;
// fails open on Redis errors.
func RateLimit(rds *repo.Redis, perMin int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rds == nil || perMin <= 0 {
			c.Next()
			return
		}
		key := c.GetString(authUserKey)
		if key == "" {
			key = c.ClientIP()
		}
		ok, err := rds.Allow(c.Request.Context(), "rl:chat:"+key, perMin, time.Minute)
		if err != nil {
			log.L().Warn("rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// Metrics records request count, latency and in-flight gauge.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).
			Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
