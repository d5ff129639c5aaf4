package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a user post (MongoDB "posts" collection)
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	AuthorID  primitive.ObjectID   `bson:"author_id" json:"author_id"`
	Caption   string               `bson:"caption" json:"caption"`
	Tags      []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	Location  string               `bson:"location,omitempty" json:"location,omitempty"`
	MediaURLs []string             `bson:"media_urls" json:"media_urls"`
	ViewCount int64                `bson:"view_count" json:"view_count"`
	Likes     []primitive.ObjectID `bson:"likes,omitempty" json:"likes,omitempty"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}
