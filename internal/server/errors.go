package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skeebs10/settlr/internal/auth"
	"github.com/skeebs10/settlr/internal/service"
	"github.com/skeebs10/settlr/internal/settlement"
	"github.com/skeebs10/settlr/internal/storage"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware converts errors attached to the gin context into
// one JSON error response after the handler chain runs.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

// AbortWithError records the error for ErrorHandlingMiddleware and stops
// the handler chain.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, settlement.ErrInvalidClaim),
		errors.Is(err, settlement.ErrInvalidAmount),
		errors.Is(err, settlement.ErrInvalidReason):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}

	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: err.Error()}

	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}

	case errors.Is(err, service.ErrPaymentFailed):
		return http.StatusPaymentRequired, errorPayload{Type: "payment_failed", Message: err.Error()}

	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, settlement.ErrClaimNotFound),
		errors.Is(err, settlement.ErrItemNotFound),
		errors.Is(err, settlement.ErrParticipantNotFound),
		errors.Is(err, service.ErrIntentNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}

	case errors.Is(err, settlement.ErrCannotClose),
		errors.Is(err, settlement.ErrGraceExpired):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	case errors.Is(err, settlement.ErrCooldown):
		return http.StatusTooManyRequests, errorPayload{Type: "cooldown", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}
