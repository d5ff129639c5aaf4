package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FollowRepository defines the interface for follower relationships
type FollowRepository interface {
	Follow(ctx context.Context, followerID, followeeID primitive.ObjectID) error
	Unfollow(ctx context.Context, followerID, followeeID primitive.ObjectID) error
	IsFollowing(ctx context.Context, followerID, followeeID primitive.ObjectID) (bool, error)
	ListFollowerIDs(ctx context.Context, followeeID primitive.ObjectID) ([]primitive.ObjectID, error)
	ListFollowingIDs(ctx context.Context, followerID primitive.ObjectID) ([]primitive.ObjectID, error)
	CountFollowers(ctx context.Context, followeeID primitive.ObjectID) (int64, error)
	CountFollowing(ctx context.Context, followerID primitive.ObjectID) (int64, error)
}

// MongoFollowRepository implements FollowRepository for MongoDB
type MongoFollowRepository struct {
	collection *mongo.Collection
}

func NewMongoFollowRepository(db *mongo.Database) *MongoFollowRepository {
	return &MongoFollowRepository{collection: db.Collection("follows")}
}

// Follow records the relationship idempotently; re-following is a no-op.
func (r *MongoFollowRepository) Follow(ctx context.Context, followerID, followeeID primitive.ObjectID) error {
	filter := bson.M{"follower_id": followerID, "followee_id": followeeID}
	update := bson.M{"$setOnInsert": bson.M{
		"follower_id": followerID,
		"followee_id": followeeID,
		"created_at":  time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoFollowRepository) Unfollow(ctx context.Context, followerID, followeeID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	return err
}

func (r *MongoFollowRepository) IsFollowing(ctx context.Context, followerID, followeeID primitive.ObjectID) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"follower_id": followerID, "followee_id": followeeID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MongoFollowRepository) ListFollowerIDs(ctx context.Context, followeeID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.listSide(ctx, bson.M{"followee_id": followeeID}, "follower_id")
}

func (r *MongoFollowRepository) ListFollowingIDs(ctx context.Context, followerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.listSide(ctx, bson.M{"follower_id": followerID}, "followee_id")
}

func (r *MongoFollowRepository) listSide(ctx context.Context, filter bson.M, field string) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc[field].(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MongoFollowRepository) CountFollowers(ctx context.Context, followeeID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"followee_id": followeeID})
}

func (r *MongoFollowRepository) CountFollowing(ctx context.Context, followerID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"follower_id": followerID})
}
