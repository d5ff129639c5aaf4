package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
)

// FriendRepository defines the interface for friendship data operations
type FriendRepository interface {
	CreateRequest(ctx context.Context, friendship *models.Friendship) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Friendship, error)
	GetBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	ListPendingFor(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error)
}

// MongoFriendRepository implements FriendRepository for MongoDB
type MongoFriendRepository struct {
	collection *mongo.Collection
}

func NewMongoFriendRepository(db *mongo.Database) *MongoFriendRepository {
	return &MongoFriendRepository{collection: db.Collection("friends")}
}

func (r *MongoFriendRepository) CreateRequest(ctx context.Context, friendship *models.Friendship) error {
	friendship.ID = primitive.NewObjectID()
	friendship.Status = models.FriendStatusPending
	friendship.CreatedAt = time.Now()
	friendship.UpdatedAt = friendship.CreatedAt
	_, err := r.collection.InsertOne(ctx, friendship)
	return err
}

func (r *MongoFriendRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Friendship, error) {
	var friendship models.Friendship
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&friendship)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("friend request %s", id.Hex())
		}
		return nil, err
	}
	return &friendship, nil
}

// GetBetween finds the friendship between two users regardless of direction.
func (r *MongoFriendRepository) GetBetween(ctx context.Context, a, b primitive.ObjectID) (*models.Friendship, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"requester_id": a, "recipient_id": b},
		bson.M{"requester_id": b, "recipient_id": a},
	}}

	var friendship models.Friendship
	err := r.collection.FindOne(ctx, filter).Decode(&friendship)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("no friendship between %s and %s", a.Hex(), b.Hex())
		}
		return nil, err
	}
	return &friendship, nil
}

func (r *MongoFriendRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("friend request %s", id.Hex())
	}
	return nil
}

func (r *MongoFriendRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListFriendIDs returns the ids of every accepted friend of userID.
func (r *MongoFriendRepository) ListFriendIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"status": models.FriendStatusAccepted,
		"$or": bson.A{
			bson.M{"requester_id": userID},
			bson.M{"recipient_id": userID},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var friendships []models.Friendship
	if err = cursor.All(ctx, &friendships); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(friendships))
	for _, f := range friendships {
		if f.RequesterID == userID {
			ids = append(ids, f.RecipientID)
		} else {
			ids = append(ids, f.RequesterID)
		}
	}
	return ids, nil
}

func (r *MongoFriendRepository) ListPendingFor(ctx context.Context, userID primitive.ObjectID) ([]models.Friendship, error) {
	filter := bson.M{"recipient_id": userID, "status": models.FriendStatusPending}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var friendships []models.Friendship
	if err = cursor.All(ctx, &friendships); err != nil {
		return nil, err
	}
	return friendships, nil
}
