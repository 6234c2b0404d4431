package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	accountdomain "github.com/brandforge/brandforge/internal/account/domain"
	paymentdomain "github.com/brandforge/brandforge/internal/payment/domain"
)

// APIError is the uniform error envelope returned by every handler.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

var (
	ErrNotFound = &APIError{
		Status: http.StatusNotFound, Code: "not_found", Message: "resource not found",
	}
	ErrUnauthorized = &APIError{
		Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required",
	}
	ErrServiceUnavailable = &APIError{
		Status: http.StatusServiceUnavailable, Code: "service_unavailable", Message: "service unavailable",
	}
)

func invalidRequestError() *APIError {
	return &APIError{
		Status: http.StatusBadRequest, Code: "invalid_request", Message: "request body could not be parsed",
	}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{
		Status: http.StatusBadRequest, Code: code, Message: message, Field: field,
	}
}

// AbortWithError maps domain errors onto the APIError envelope. Unknown
// errors surface as an opaque 500; their detail stays in the logs.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, accountdomain.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": &APIError{
			Code: "user_not_found", Message: "account not found",
		}})
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &APIError{
			Code: "invalid_signature", Message: "webhook signature verification failed",
		}})
	case errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidMetadata):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &APIError{
			Code: "invalid_payload", Message: "webhook payload rejected",
		}})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": &APIError{
			Code: "internal", Message: "internal server error",
		}})
	}
}
