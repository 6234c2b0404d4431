package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Conversation is a two-party direct-message thread. Membership is checked
// with a single participant_a_id = ? OR participant_b_id = ? predicate.
type Conversation struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	ParticipantAID snowflake.ID `gorm:"column:participant_a_id;not null;index"`
	ParticipantBID snowflake.ID `gorm:"column:participant_b_id;not null;index"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Conversation) TableName() string { return "conversations" }

// Message belongs to a conversation.
type Message struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	ConversationID snowflake.ID `gorm:"not null;index"`
	SenderID       snowflake.ID `gorm:"not null;index"`
	Body           string       `gorm:"type:text;not null"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "messages" }

// ChatRoom is the legacy single-owner chat room kept for older accounts.
type ChatRoom struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OwnerID   snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ChatRoom) TableName() string { return "chat_rooms" }

// ChatRoomMessage belongs to a legacy chat room.
type ChatRoomMessage struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	RoomID    snowflake.ID `gorm:"not null;index"`
	Body      string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ChatRoomMessage) TableName() string { return "chat_room_messages" }
