package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SystonTigers/receptionist-sub000/internal/quota"
	usagedomain "github.com/SystonTigers/receptionist-sub000/internal/usage/domain"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type validationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *validationError) Error() string { return e.Message }

func newValidationError(field, code, message string) *validationError {
	return &validationError{Field: field, Code: code, Message: message}
}

func invalidRequestError() *validationError {
	return newValidationError("body", "invalid_request", "request body could not be parsed")
}

// AbortWithError maps domain errors onto HTTP responses and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)

	var exceeded *quota.ExceededError
	if errors.As(err, &exceeded) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":      "quota_exceeded",
			"event_type": exceeded.EventType,
			"limit":      exceeded.Limit,
			"used":       exceeded.Used,
			"attempted":  exceeded.Attempted,
		})
		return
	}

	var invalid *validationError
	if errors.As(err, &invalid) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   invalid.Field,
			"code":    invalid.Code,
			"message": invalid.Message,
		})
		return
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, ErrTooManyRequests):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
	case errors.Is(err, ErrServiceUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service_unavailable"})
	case errors.Is(err, usagedomain.ErrInvalidTenant),
		errors.Is(err, usagedomain.ErrInvalidEventType):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
