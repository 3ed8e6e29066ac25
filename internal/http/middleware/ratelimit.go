// README: Per-caller token bucket, used on the high-frequency presence route.
package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit allows each caller uid r events per second with the given burst.
// Must run after Auth.
func RateLimit(r rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	limiterFor := func(uid string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[uid]
		if !ok {
			l = rate.NewLimiter(r, burst)
			limiters[uid] = l
		}
		return l
	}
	return func(c *gin.Context) {
		if !limiterFor(CallerUID(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
