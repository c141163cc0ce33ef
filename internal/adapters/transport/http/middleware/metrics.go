package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// RequestMetrics пишет латентность по шаблону маршрута, а не по сырому пути,
// чтобы /c/:username не раздувал кардинальность.
func RequestMetrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ts := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(ts))
	}
}
