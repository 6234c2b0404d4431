package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/brandforge/brandforge/internal/payment/domain"
)

// Stripe signs payloads up to a few hundred KB; anything larger is not ours.
const maxWebhookBody = 1 << 20

// StripeWebhook ingests provider events. Ignored event types still return
// 200 so the provider stops redelivering them.
func (s *Server) StripeWebhook(c *gin.Context) {
	if s.paymentSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err = s.paymentSvc.IngestWebhook(c.Request.Context(), payload, c.Request.Header)
	if err != nil && !errors.Is(err, paymentdomain.ErrEventIgnored) {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
