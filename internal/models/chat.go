package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User          `gorm:"foreignKey:UserID" json:"-"`
	Title     string         `gorm:"not null;default:'New Chat'" json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Message rows are append-only; a conversation's transcript is its
// messages ordered by created_at.
type Message struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation    *Conversation  `gorm:"foreignKey:ConversationID" json:"-"`
	Role            string         `gorm:"not null" json:"role"`
	Content         string         `gorm:"type:text" json:"content"`
	ToolInvocations datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"tool_invocations"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		m.ID = id
	}
	return nil
}
