package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Brand owns the prepaid AI-credit wallet. CreditsBalance is mutated only
// by the credit service's locked read-modify-write path; no other code may
// assign the column directly.
type Brand struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	OwnerID        snowflake.ID    `gorm:"not null;index"`
	OrgID          *snowflake.ID   `gorm:"index"`
	Name           string          `gorm:"type:text;not null"`
	LogoPath       string          `gorm:"type:text"`
	CreditsBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Brand) TableName() string { return "brands" }

// BrandAsset is an uploaded media file belonging to a brand.
type BrandAsset struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BrandID   snowflake.ID `gorm:"not null;index"`
	FilePath  string       `gorm:"type:text;not null"`
	Kind      string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BrandAsset) TableName() string { return "brand_assets" }

// BrandTweet is a tweet drafted or posted on behalf of a brand.
type BrandTweet struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BrandID   snowflake.ID `gorm:"not null;index"`
	Content   string       `gorm:"type:text;not null"`
	PostedAt  *time.Time   `gorm:""`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BrandTweet) TableName() string { return "brand_tweets" }

// BrandInstagramPost is an Instagram post drafted or published for a brand.
type BrandInstagramPost struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	BrandID   snowflake.ID `gorm:"not null;index"`
	Caption   string       `gorm:"type:text"`
	MediaPath string       `gorm:"type:text"`
	PostedAt  *time.Time   `gorm:""`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BrandInstagramPost) TableName() string { return "brand_instagram_posts" }
