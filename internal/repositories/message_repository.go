package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
)

// MessageRepository defines the interface for message data operations
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	NewestNonDeleted(ctx context.Context, conversationID primitive.ObjectID) (*models.Message, error)
	CountUnread(ctx context.Context, conversationID, userID primitive.ObjectID) (int64, error)
}

// MongoMessageRepository implements MessageRepository for MongoDB
type MongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{collection: db.Collection("messages")}
}

func (r *MongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	message.UpdatedAt = message.CreatedAt
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

func (r *MongoMessageRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var message models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("message %s", id.Hex())
		}
		return nil, err
	}
	return &message, nil
}

// ListByConversation returns limit+1 non-deleted messages for keyset
// pagination, newest first.
func (r *MongoMessageRepository) ListByConversation(ctx context.Context, conversationID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID, "deleted": false}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	var messages []models.Message
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationRead adds userID to read_by on every message they have not
// yet read. $addToSet keeps the operation idempotent.
func (r *MongoMessageRepository) MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	filter := bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": userID},
		"read_by":         bson.M{"$ne": userID},
	}
	_, err := r.collection.UpdateMany(ctx, filter, bson.M{"$addToSet": bson.M{"read_by": userID}})
	return err
}

func (r *MongoMessageRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("message %s", id.Hex())
	}
	return nil
}

// NewestNonDeleted finds the most recent surviving message of a conversation,
// or nil when none remain.
func (r *MongoMessageRepository) NewestNonDeleted(ctx context.Context, conversationID primitive.ObjectID) (*models.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	var message models.Message
	err := r.collection.FindOne(ctx, bson.M{"conversation_id": conversationID, "deleted": false}, opts).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (r *MongoMessageRepository) CountUnread(ctx context.Context, conversationID, userID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"sender_id":       bson.M{"$ne": userID},
		"read_by":         bson.M{"$ne": userID},
		"deleted":         false,
	})
}
