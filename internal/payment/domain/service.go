package domain

import (
	"context"
	"net/http"
)

// PaymentService turns verified provider webhooks into credit purchases.
type PaymentService interface {
	// IngestWebhook verifies and processes one webhook delivery. Replays of
	// an already-processed event return nil so the provider stops retrying.
	IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

// Service is the package alias for PaymentService.
type Service = PaymentService
