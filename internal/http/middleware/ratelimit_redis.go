package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"chess_arena/internal/logger"
	"chess_arena/internal/metrics"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// KeyFunc picks the identity a limit applies to.
type KeyFunc func(c *gin.Context) string

// ByIP limits per client address.
func ByIP(c *gin.Context) string { return c.ClientIP() }

// ByRoomAndIP limits per client address inside one room.
func ByRoomAndIP(c *gin.Context) string { return c.Param("code") + ":" + c.ClientIP() }

// Limiter is a fixed-window rate limiter on Redis INCR/EXPIRE. Without a
// Redis client, or when Redis errors, it counts in process memory instead.
type Limiter struct {
	rdb *redis.Client
	mem *memoryWindow
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, mem: newMemoryWindow()}
}

// ConnectRedis returns a client for addr, or nil when addr is empty or the
// server does not answer a ping.
func ConnectRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory rate limits", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// Limit allows maxRequests per window for each key.
// Redis key format: rl:<scope>:<window_seconds>:<key>
func (l *Limiter) Limit(scope string, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + key(c)
		count := l.incr(c.Request.Context(), ident, window)

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-count), 10))

		if count > int64(maxRequests) {
			metrics.RLBlocked.WithLabelValues(scope).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		metrics.RLRequests.WithLabelValues(scope).Inc()
		c.Next()
	}
}

func (l *Limiter) incr(ctx context.Context, ident string, window time.Duration) int64 {
	if l.rdb == nil {
		return l.mem.incr(ident, window)
	}
	key := "rl:" + ident
	val, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		logger.Debug("rate limit redis error", "error", err)
		return l.mem.incr(ident, window)
	}
	if val == 1 {
		// first increment, set expiry
		l.rdb.Expire(ctx, key, window)
	}
	return val
}
