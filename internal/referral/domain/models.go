package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReferralCode is a user's shareable referral code.
type ReferralCode struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex"`
	Code      string       `gorm:"type:text;not null;uniqueIndex"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ReferralCode) TableName() string { return "referral_codes" }

// ReferralSignup records a signup attributed to a referral code.
type ReferralSignup struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	ReferralCodeID snowflake.ID  `gorm:"not null;index"`
	NewUserID      *snowflake.ID `gorm:"index"`
	SignedUpAt     time.Time     `gorm:"not null"`
}

// TableName sets the database table name.
func (ReferralSignup) TableName() string { return "referral_signups" }

// ReferralSubscription records a paid subscription attributed to a referral code.
type ReferralSubscription struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	ReferralCodeID snowflake.ID `gorm:"not null;index"`
	PlanName       string       `gorm:"type:text"`
	SubscribedAt   time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (ReferralSubscription) TableName() string { return "referral_subscriptions" }

// Badge is a gamification badge earned by a user.
type Badge struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Kind      string       `gorm:"type:text;not null"`
	EarnedAt  time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Badge) TableName() string { return "badges" }

// LeaderboardEntry is a historical competition result. Placement columns are
// nullable so a deleted account can be unlinked without erasing the result.
type LeaderboardEntry struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	PeriodStart  time.Time     `gorm:"not null;index"`
	PeriodEnd    time.Time     `gorm:"not null"`
	WinnerID     *snowflake.ID `gorm:"index"`
	RunnerUpID   *snowflake.ID `gorm:"index"`
	ThirdPlaceID *snowflake.ID `gorm:"index"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LeaderboardEntry) TableName() string { return "leaderboard_entries" }
