package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	requestid "github.com/google/uuid"

	"orders_service/internal/auth"
)

const (
	ctxKeyUserID    = "UserID"
	ctxKeyUserEmail = "Email"
	ctxKeyRequestID = "RequestID"
)

// AuthMiddleware is the authorization boundary for every order operation.
// Each failure mode keeps its own message so a client can tell a missing
// header from a malformed one, but all of them are terminal 401s.
func AuthMiddleware(tokens *auth.TokenManager, lgr *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			newErrorResponse(c, http.StatusUnauthorized, "No token provided")

			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 {
			newErrorResponse(c, http.StatusUnauthorized, "Token error")

			return
		}

		if !strings.EqualFold(parts[0], "Bearer") {
			newErrorResponse(c, http.StatusUnauthorized, "Token malformatted")

			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			lgr.Warn("token verification failed", slog.String("path", c.Request.URL.Path))

			newErrorResponse(c, http.StatusUnauthorized, "Token invalid")

			return
		}

		c.Set(ctxKeyUserID, claims.UserID)
		c.Set(ctxKeyUserEmail, claims.Email)

		c.Next()
	}
}

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = requestid.NewString()
		}

		c.Set(ctxKeyRequestID, id)
		c.Writer.Header().Set("X-Request-Id", id)

		c.Next()
	}
}

// rateLimitMiddleware bounds requests per client IP on the credential
// endpoints. A nil limiter or non-positive limit disables the check.
func rateLimitMiddleware(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()

			return
		}

		if !limiter.Allow("ip:"+c.ClientIP(), limit, window) {
			newErrorResponse(c, http.StatusTooManyRequests, "Too many requests")

			return
		}

		c.Next()
	}
}
