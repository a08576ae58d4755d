package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys under which middleware stores values in the gin context.
const (
	RequestIDKey = "request_id"
	UserIDKey    = "user_id"
)

// RequestID takes X-Request-ID from the request or generates one, echoes it
// back and puts it on the request context for the logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(common.RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"client", c.ClientIP(),
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			l.Error(ctx, "request", args...)
		case status >= 400:
			l.Warn(ctx, "request", args...)
		case c.Request.URL.Path == "/healthz":
			l.Debug(ctx, "request", args...)
		default:
			l.Info(ctx, "request", args...)
		}
	}
}

// Recovery turns a panic in a handler into a 500 response.
func Recovery(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				l.Error(c.Request.Context(), "panic recovered",
					"error", fmt.Sprintf("%v", p),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{errorPayload{Code: "INTERNAL", Message: "internal server error"}})
			}
		}()
		c.Next()
	}
}

// Authenticate admits requests carrying a valid access token in
// "Authorization: Bearer <token>". The user id is put on the request context
// and in the gin keys.
func Authenticate(v TokenVerifier, fail func(*gin.Context, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader(common.AuthorizationHeader)), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
			fail(c, common.ErrUnauthenticated)
			return
		}

		claims, err := v.Verify(token, auth.AccessToken)
		if err != nil {
			fail(c, common.ErrInvalidToken)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}
