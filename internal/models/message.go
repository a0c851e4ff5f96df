package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RevealSentinel is the reserved system-message payload that signals consent
// to disclose the Instagram handle. A participant "has revealed" once a
// system message with this content exists with them as sender.
const RevealSentinel = "REVEAL_REQUEST"

// Message is one entry of a conversation between a matched pair.
// Messages are append-only and ordered by CreatedAt ascending.
type Message struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	SenderID   string    `gorm:"index;not null" json:"sender_id"`
	ReceiverID string    `gorm:"index;not null" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	IsSystem   bool      `json:"is_system"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// IsReveal reports whether the message is a reveal-consent sentinel.
func (m *Message) IsReveal() bool {
	return m.IsSystem && m.Content == RevealSentinel
}
