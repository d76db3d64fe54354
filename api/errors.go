package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xraph/treasury"
)

// statusFor maps treasury errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, treasury.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, treasury.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, treasury.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, treasury.ErrInvariantViolation):
		return http.StatusConflict
	case errors.Is(err, treasury.ErrNotStarted):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	body := gin.H{"error": err.Error()}
	var ve treasury.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	var ie treasury.InvariantError
	if errors.As(err, &ie) {
		body["rule"] = ie.Rule
	}
	c.JSON(status, body)
}
