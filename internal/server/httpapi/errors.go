package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/validation"
	"github.com/gin-gonic/gin"
)

var errRouteNotFound = errors.New("route not found")

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var errorMappings = []errorMapping{
	{common.ErrEmailAlreadyRegistered, http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "Email already registered"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"},
	{common.ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "Invalid refresh token"},
	{common.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", "Access denied. No token provided."},
	{common.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token"},
	{common.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	{errRouteNotFound, http.StatusNotFound, "NOT_FOUND", "Route not found"},
}

// respondError writes the error body for err and aborts the chain. Anything
// not in the taxonomy becomes a 500 without detail.
func (s *Server) respondError(c *gin.Context, err error) {
	var ve *validation.Error
	if errors.As(err, &ve) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{errorPayload{
			Code: "VALIDATION_ERROR", Message: "Validation failed", Details: ve.Details(),
		}})
		return
	}
	if errors.Is(err, common.ErrValidation) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{errorPayload{
			Code: "VALIDATION_ERROR", Message: "Validation failed",
		}})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.AbortWithStatusJSON(m.status, errorBody{errorPayload{Code: m.code, Message: m.message}})
			return
		}
	}

	// services log their own internal failures
	if !errors.Is(err, common.ErrorInternal) {
		s.logger.Error(c.Request.Context(), "unhandled error", "error", err, "path", c.FullPath())
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{errorPayload{
		Code: "INTERNAL", Message: "internal server error",
	}})
}
