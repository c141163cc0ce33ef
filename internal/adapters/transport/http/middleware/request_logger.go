package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// scrub прячет заголовки с токенами и cookie сессии.
func scrub(h http.Header) http.Header {
	clone := h.Clone()
	for k := range clone {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "authorization") || strings.Contains(lk, "cookie") {
			clone[k] = []string{"[redacted]"}
		}
	}
	return clone
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ce := log.Check(zap.DebugLevel, "↘︎ incoming request"); ce != nil {
			reqHeaders, _ := json.Marshal(scrub(c.Request.Header))
			ce.Write(
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("origin", c.GetHeader("Origin")),
				zap.ByteString("hdr", reqHeaders),
			)
		}

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", respStatus),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		}

		// Ошибки, которые handler сохранил в c.Errors
		for _, e := range c.Errors {
			log.Error("handler error", append(fields, zap.Error(e))...)
		}

		if c.IsAborted() && respStatus >= http.StatusBadRequest {
			log.Warn("↗︎ aborted", fields...)
			return
		}
		log.Info("↗︎ completed", fields...)
	}
}
