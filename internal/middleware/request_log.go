package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/errordata"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/requestdata"
)

// RequestLogger must run after AttachRequestContext so the handler's recorded
// error is visible here.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("Middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		kvs := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if uid := requestdata.UserID(ctx); uid != "" {
			kvs = append(kvs, "user_id", uid)
		}
		if ed := errordata.GetErrorData(ctx); ed != nil && ed.HasMessage() {
			kvs = append(kvs, "error", ed.Message)
		}

		switch {
		case status >= 500:
			reqLog.Error("Request failed", kvs...)
		case status >= 400:
			reqLog.Warn("Request rejected", kvs...)
		default:
			reqLog.Info("Request served", kvs...)
		}
	}
}
