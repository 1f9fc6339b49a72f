package models

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The schema has to migrate on sqlite too, so column defaults must not
// lean on Postgres functions; IDs come from the BeforeCreate hooks.
func TestMigrateAndCreateOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}, &Conversation{}, &Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	user := User{Email: "sam@example.com", PasswordHash: "x", DisplayName: "Sam"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID == uuid.Nil {
		t.Error("user ID not generated")
	}

	conv := Conversation{UserID: user.ID, Title: "New Chat"}
	if err := db.Create(&conv).Error; err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	if conv.ID == uuid.Nil {
		t.Error("conversation ID not generated")
	}

	msg := Message{ConversationID: conv.ID, Role: "user", Content: "hi"}
	if err := db.Create(&msg).Error; err != nil {
		t.Fatalf("create message: %v", err)
	}
	if msg.ID == uuid.Nil {
		t.Error("message ID not generated")
	}
}
