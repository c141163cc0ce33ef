package middleware

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter *rate.Limiter
	last    atomic.Int64 // unix nano
}

func (v *visitor) touch(now time.Time) { v.last.Store(now.UnixNano()) }

func (v *visitor) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, v.last.Load()))
}

// NewHTTPRateLimitPerIP ограничивает RPS для Gin-ручек c LRU-кэшем IP.
// Фоновая очистка живёт, пока не отменён ctx.
func NewHTTPRateLimitPerIP(
	ctx context.Context,
	limit, burst, cacheSize int,
	ttl time.Duration,
) gin.HandlerFunc {

	visitors, _ := lru.New[string, *visitor](cacheSize)

	// Периодическая очистка неактивных IP.
	go func() {
		ticker := time.NewTicker(ttl)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, key := range visitors.Keys() {
					if v, ok := visitors.Peek(key); ok && v.idle(time.Now()) > ttl {
						visitors.Remove(key)
					}
				}
			}
		}
	}()

	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		v, ok := visitors.Get(host)
		if !ok {
			fresh := &visitor{
				limiter: rate.NewLimiter(rate.Limit(limit), burst),
			}
			// параллельный запрос с того же IP мог успеть добавить свой
			if prev, found, _ := visitors.PeekOrAdd(host, fresh); found {
				v = prev
			} else {
				v = fresh
			}
		}
		v.touch(time.Now())

		if !v.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"code":    "rate_limited",
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
