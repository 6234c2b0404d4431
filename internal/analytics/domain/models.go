package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProfileImpression records one user viewing another's profile. ViewerID is
// nullable: when the viewer deletes their account the row is anonymized, not
// removed, so the profile owner's analytics stay intact.
type ProfileImpression struct {
	ID            snowflake.ID  `gorm:"primaryKey"`
	ProfileUserID snowflake.ID  `gorm:"not null;index"`
	ViewerID      *snowflake.ID `gorm:"index"`
	ViewedAt      time.Time     `gorm:"not null"`
}

// TableName sets the database table name.
func (ProfileImpression) TableName() string { return "profile_impressions" }

// PageView is a raw page-view row attributed to a user session.
type PageView struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	UserID   snowflake.ID `gorm:"not null;index"`
	Path     string       `gorm:"type:text;not null"`
	ViewedAt time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (PageView) TableName() string { return "page_views" }
