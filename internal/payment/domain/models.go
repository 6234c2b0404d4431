package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord stores a received provider webhook event. ProviderEventID is
// unique so replayed deliveries are acknowledged without re-crediting.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	Provider        string         `gorm:"type:text;not null;index"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex"`
	EventType       string         `gorm:"type:text;not null"`
	BrandID         snowflake.ID   `gorm:"index"`
	Payload         datatypes.JSON `gorm:"type:jsonb"`
	ReceivedAt      time.Time      `gorm:"not null"`
	ProcessedAt     *time.Time     `gorm:""`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidMetadata  = errors.New("invalid_metadata")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrPurchaseRejected = errors.New("purchase_rejected")
)
