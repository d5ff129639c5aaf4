package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered account (MongoDB "users" collection)
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	ImageURL     string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Bio          string             `bson:"bio,omitempty" json:"bio,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserCompact is the embedded projection used when joining users into
// notifications, messages and conversations.
type UserCompact struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	ImageURL string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:       u.ID,
		Username: u.Username,
		ImageURL: u.ImageURL,
	}
}
