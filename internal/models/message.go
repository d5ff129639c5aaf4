package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message content types
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeAudio = "audio"
)

// ValidContentType reports whether t is a known message content type.
func ValidContentType(t string) bool {
	switch t {
	case ContentTypeText, ContentTypeImage, ContentTypeVideo, ContentTypeAudio:
		return true
	}
	return false
}

// Message represents a chat message (MongoDB "messages" collection).
// Deleted messages stay in storage and are excluded from default listings.
type Message struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID   `bson:"conversation_id" json:"conversation_id"`
	SenderID       primitive.ObjectID   `bson:"sender_id" json:"sender_id"`
	Content        string               `bson:"content" json:"content"`
	ContentType    string               `bson:"content_type" json:"content_type"`
	MediaURL       string               `bson:"media_url,omitempty" json:"media_url,omitempty"`
	ReadBy         []primitive.ObjectID `bson:"read_by" json:"read_by"`
	Deleted        bool                 `bson:"deleted" json:"deleted"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}
