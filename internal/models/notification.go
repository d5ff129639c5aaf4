package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType enumerates every event that may produce a notification.
type NotificationType string

const (
	NotificationLikePost      NotificationType = "like_post"
	NotificationCommentPost   NotificationType = "comment_post"
	NotificationReplyComment  NotificationType = "reply_comment"
	NotificationFollow        NotificationType = "follow"
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationFriendAccept  NotificationType = "friend_accept"
	NotificationMention       NotificationType = "mention"
	NotificationSystem        NotificationType = "system"
)

// EntityType identifies the kind of record a notification points at.
type EntityType string

const (
	EntityPost    EntityType = "posts"
	EntityComment EntityType = "comments"
	EntityUser    EntityType = "users"
)

// ValidNotificationType reports whether t is a known notification type.
func ValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationLikePost, NotificationCommentPost, NotificationReplyComment,
		NotificationFollow, NotificationFriendRequest, NotificationFriendAccept,
		NotificationMention, NotificationSystem:
		return true
	}
	return false
}

// ValidEntityType reports whether t is a known entity kind.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityPost, EntityComment, EntityUser:
		return true
	}
	return false
}

// Notification represents one user-facing event directed at a recipient
// (MongoDB "notifications" collection)
type Notification struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	RecipientID primitive.ObjectID     `bson:"recipient_id" json:"recipient_id"`
	SenderID    primitive.ObjectID     `bson:"sender_id" json:"sender_id"`
	Type        NotificationType       `bson:"type" json:"type"`
	EntityID    primitive.ObjectID     `bson:"entity_id" json:"entity_id"`
	EntityType  EntityType             `bson:"entity_type" json:"entity_type"`
	Message     string                 `bson:"message" json:"message"`
	IsRead      bool                   `bson:"is_read" json:"is_read"`
	Metadata    map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updated_at"`
}

// EnrichedNotification is a notification joined with sender/recipient
// display data, the shape pushed to live connections.
type EnrichedNotification struct {
	Notification
	Sender    UserCompact `json:"sender"`
	Recipient UserCompact `json:"recipient"`
}
