package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is the platform account. File-valued columns hold paths relative to
// the configured media root; empty string means no file.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Username     string       `gorm:"type:text;not null;uniqueIndex"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string       `gorm:"type:text"`
	PasswordHash string       `gorm:"type:text"`
	IsAdmin      bool         `gorm:"not null;default:false"`

	ProfileImagePath string `gorm:"type:text"`
	BannerImagePath  string `gorm:"type:text"`
	Photo1Path       string `gorm:"type:text"`
	Photo2Path       string `gorm:"type:text"`
	Photo3Path       string `gorm:"type:text"`
	Photo4Path       string `gorm:"type:text"`
	Photo5Path       string `gorm:"type:text"`
	Photo6Path       string `gorm:"type:text"`

	JoinedAt    time.Time  `gorm:"not null"`
	LastLoginAt *time.Time `gorm:""`
	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// FileFields returns the file-valued profile columns paired with their
// current paths, in the fixed order the deletion flow reports them.
func (u User) FileFields() []FileField {
	return []FileField{
		{Name: "profile_image", Path: u.ProfileImagePath},
		{Name: "banner_image", Path: u.BannerImagePath},
		{Name: "photo_1", Path: u.Photo1Path},
		{Name: "photo_2", Path: u.Photo2Path},
		{Name: "photo_3", Path: u.Photo3Path},
		{Name: "photo_4", Path: u.Photo4Path},
		{Name: "photo_5", Path: u.Photo5Path},
		{Name: "photo_6", Path: u.Photo6Path},
	}
}

// FileField names a file-valued profile column and its stored path.
type FileField struct {
	Name string
	Path string
}
