package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/errordata"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/requestdata"
	"github.com/racon-ai/racon-backend/internal/response"
	"github.com/racon-ai/racon-backend/internal/services"
)

const sessionCookie = "__session"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			errordata.Record(c.Request.Context(), services.ErrInvalidToken)
			unauthenticated(c)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			errordata.Record(c.Request.Context(), err)
			unauthenticated(c)
			return
		}
		if requestdata.UserID(ctx) == "" {
			unauthenticated(c)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func unauthenticated(c *gin.Context) {
	response.AbortWithError(c, http.StatusUnauthorized, "unauthorized", "Unauthenticated!")
}

// extractTokenFromAll looks at the query string first since websocket
// upgrades from browsers cannot carry headers.
func extractTokenFromAll(c *gin.Context) string {
	if qToken := strings.TrimSpace(c.Query("token")); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(sessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return ""
}
