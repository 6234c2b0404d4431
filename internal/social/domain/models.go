package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ServiceConnection links a user account to an external social provider.
// Tokens are stored encrypted at rest by the connection flow (out of scope
// here); deletion only needs to remove the rows.
type ServiceConnection struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	UserID       snowflake.ID `gorm:"not null;index"`
	Provider     string       `gorm:"type:text;not null"`
	ExternalID   string       `gorm:"type:text"`
	AccessToken  string       `gorm:"type:text"`
	RefreshToken string       `gorm:"type:text"`
	ExpiresAt    *time.Time   `gorm:""`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ServiceConnection) TableName() string { return "service_connections" }
