package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/brandforge/brandforge/internal/credit/domain"
	"github.com/brandforge/brandforge/internal/config"
	"github.com/brandforge/brandforge/internal/observability/logger"
	paymentdomain "github.com/brandforge/brandforge/internal/payment/domain"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const providerStripe = "stripe"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	CreditSvc creditdomain.Service
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	creditSvc     creditdomain.Service
	webhookSecret string
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		creditSvc:     p.CreditSvc,
		webhookSecret: strings.TrimSpace(p.Cfg.StripeWebhookSecret),
	}
}

// IngestWebhook verifies the Stripe signature, records the event once, and
// credits the brand for payment_intent.succeeded deliveries. Anything else
// is acknowledged and ignored.
func (s *Service) IngestWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	event, err := s.verify(payload, headers)
	if err != nil {
		return err
	}

	if event.Type != "payment_intent.succeeded" {
		return paymentdomain.ErrEventIgnored
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return paymentdomain.ErrInvalidPayload
	}

	brandID, packageID, err := parseIntentMetadata(intent.Metadata)
	if err != nil {
		s.log.Warn("stripe intent missing wallet metadata",
			zap.String("payment_intent", logger.MaskPaymentIntent(intent.ID)),
		)
		return err
	}

	record := &paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        providerStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		BrandID:         brandID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      time.Now().UTC(),
	}
	inserted, err := s.insertEvent(ctx, record)
	if err != nil {
		return err
	}
	if !inserted {
		// Replay of an event we already settled; acknowledge it.
		s.log.Info("stripe event replayed, skipping",
			zap.String("provider_event_id", event.ID),
		)
		return nil
	}

	result := s.creditSvc.Purchase(ctx, brandID, packageID, intent.ID)
	if !result.OK {
		// The event row keeps a NULL processed_at so the rejection stays
		// visible in payment_events; the response is still 2xx so Stripe
		// does not retry a permanent rejection like an unknown package.
		s.log.Error("credit purchase rejected",
			zap.String("brand_id", brandID.String()),
			zap.String("package_id", packageID.String()),
			zap.String("reason", result.Message),
		)
		return nil
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).
		Model(&paymentdomain.EventRecord{}).
		Where("id = ?", record.ID).
		Update("processed_at", now).Error
}

func (s *Service) verify(payload []byte, headers http.Header) (stripe.Event, error) {
	signature := headers.Get("Stripe-Signature")
	if s.webhookSecret == "" || signature == "" {
		return stripe.Event{}, paymentdomain.ErrInvalidSignature
	}
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, paymentdomain.ErrInvalidSignature
	}
	return event, nil
}

func (s *Service) insertEvent(ctx context.Context, record *paymentdomain.EventRecord) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func parseIntentMetadata(metadata map[string]string) (brandID, packageID snowflake.ID, err error) {
	brandID, err = parseID(metadata["brand_id"])
	if err != nil {
		return 0, 0, paymentdomain.ErrInvalidMetadata
	}
	packageID, err = parseID(metadata["package_id"])
	if err != nil {
		return 0, 0, paymentdomain.ErrInvalidMetadata
	}
	return brandID, packageID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, errors.New("invalid_id")
	}
	return id, nil
}
