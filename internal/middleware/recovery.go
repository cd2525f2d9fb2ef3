package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/errordata"
	"github.com/racon-ai/racon-backend/internal/response"
)

// Recovery turns a panic into a 500 envelope. It must sit inside
// RequestLogger so the failed request still gets its log line.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		errordata.Record(c.Request.Context(), fmt.Errorf("panic: %v", recovered))
		response.AbortWithError(c, http.StatusInternalServerError, "internal", "Internal server error!")
	})
}
