package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation type values
const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Conversation represents a chat between two or more users
// (MongoDB "conversations" collection)
type Conversation struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants  []primitive.ObjectID `bson:"participants" json:"participants"`
	Type          string               `bson:"type" json:"type"`
	Name          string               `bson:"name,omitempty" json:"name,omitempty"`
	LastMessageID *primitive.ObjectID  `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	CreatedByID   primitive.ObjectID   `bson:"created_by_id" json:"created_by_id"`
	IsActive      bool                 `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// ConversationView is a conversation joined with participant display data,
// its last message and the caller's unread count.
type ConversationView struct {
	Conversation
	ParticipantUsers []UserCompact `json:"participant_users,omitempty"`
	LastMessage      *Message      `json:"last_message,omitempty"`
	UnreadCount      int64         `json:"unread_count"`
}
