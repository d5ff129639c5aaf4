package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hoangpn/socialite/backend/internal/models"
)

// SavedPostRepository defines the interface for saved post operations
type SavedPostRepository interface {
	Save(ctx context.Context, userID, postID primitive.ObjectID) error
	Unsave(ctx context.Context, userID, postID primitive.ObjectID) error
	IsSaved(ctx context.Context, userID, postID primitive.ObjectID) (bool, error)
	ListSaved(ctx context.Context, userID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.SavedPost, error)
}

// MongoSavedPostRepository implements SavedPostRepository for MongoDB
type MongoSavedPostRepository struct {
	collection *mongo.Collection
}

func NewMongoSavedPostRepository(db *mongo.Database) *MongoSavedPostRepository {
	return &MongoSavedPostRepository{collection: db.Collection("savedPosts")}
}

// Save records the bookmark idempotently; re-saving is a no-op.
func (r *MongoSavedPostRepository) Save(ctx context.Context, userID, postID primitive.ObjectID) error {
	filter := bson.M{"user_id": userID, "post_id": postID}
	update := bson.M{"$setOnInsert": bson.M{
		"user_id":    userID,
		"post_id":    postID,
		"created_at": time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoSavedPostRepository) Unsave(ctx context.Context, userID, postID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "post_id": postID})
	return err
}

func (r *MongoSavedPostRepository) IsSaved(ctx context.Context, userID, postID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "post_id": postID})
	return count > 0, err
}

// ListSaved returns limit+1 bookmarks for keyset pagination, newest first.
func (r *MongoSavedPostRepository) ListSaved(ctx context.Context, userID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.SavedPost, error) {
	filter := bson.M{"user_id": userID}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	var saved []models.SavedPost
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &saved); err != nil {
		return nil, err
	}
	return saved, nil
}
