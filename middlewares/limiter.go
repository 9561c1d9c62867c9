package middlewares

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Amm-ar/delivero-backend/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limitGeneral = rate.Limit(10)
	burstGeneral = 20
)

// visitor holds the rate limiter and the last time it was seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex
)

func init() {
	go cleanupVisitors()
}

// getVisitor retrieves or creates a rate limiter for the given key.
func getVisitor(key string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		limiter := rate.NewLimiter(limitGeneral, burstGeneral)
		visitors[key] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors removes stale entries so the map cannot grow unbounded.
func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimitMiddleware throttles per user when authenticated, per IP otherwise.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if userID := utils.CurrentUserID(c); userID != 0 {
			key = fmt.Sprintf("user:%d", userID)
		} else {
			key = "ip:" + c.ClientIP()
		}

		if !getVisitor(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many requests"})
			return
		}

		c.Next()
	}
}
