package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Task is a campaign task posted by a brand owner for creators to apply to.
type Task struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	CreatorID   snowflake.ID    `gorm:"not null;index"`
	BrandID     *snowflake.ID   `gorm:"index"`
	Title       string          `gorm:"type:text;not null"`
	Description string          `gorm:"type:text"`
	Budget      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Status      string          `gorm:"type:text;not null;default:'open'"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }

// TaskApplication is a creator's application to a task.
type TaskApplication struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TaskID      snowflake.ID `gorm:"not null;index"`
	ApplicantID snowflake.ID `gorm:"not null;index"`
	Pitch       string       `gorm:"type:text"`
	Status      string       `gorm:"type:text;not null;default:'pending'"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (TaskApplication) TableName() string { return "task_applications" }
