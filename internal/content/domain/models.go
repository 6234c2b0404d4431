package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BlogComment is a comment authored by a user on a blog post.
type BlogComment struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	AuthorID  snowflake.ID `gorm:"not null;index"`
	PostSlug  string       `gorm:"type:text;not null;index"`
	Body      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BlogComment) TableName() string { return "blog_comments" }

// ContentImage is an image uploaded by a user for use in generated content.
type ContentImage struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	FilePath  string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ContentImage) TableName() string { return "content_images" }

// Link is a profile link owned by a user.
type Link struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Title     string       `gorm:"type:text"`
	URL       string       `gorm:"type:text;not null"`
	SortOrder int          `gorm:"not null;default:0"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Link) TableName() string { return "links" }

// TweetConfiguration stores a user's saved tweet-generation settings.
type TweetConfiguration struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
	Tone      string       `gorm:"type:text"`
	Hashtags  string       `gorm:"type:text"`
	Schedule  string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TweetConfiguration) TableName() string { return "tweet_configurations" }
