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

// ConversationRepository defines the interface for conversation data operations
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error)
	GetActiveForParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, userID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Conversation, error)
	ListAllActiveForParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error)
	SetLastMessage(ctx context.Context, id primitive.ObjectID, messageID *primitive.ObjectID) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

// MongoConversationRepository implements ConversationRepository for MongoDB
type MongoConversationRepository struct {
	collection *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) *MongoConversationRepository {
	return &MongoConversationRepository{collection: db.Collection("conversations")}
}

func (r *MongoConversationRepository) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	conversation.ID = primitive.NewObjectID()
	conversation.IsActive = true
	conversation.CreatedAt = time.Now()
	conversation.UpdatedAt = conversation.CreatedAt
	_, err := r.collection.InsertOne(ctx, conversation)
	return err
}

func (r *MongoConversationRepository) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("conversation %s", id.Hex())
		}
		return nil, err
	}
	return &conversation, nil
}

// GetActiveForParticipant loads the conversation only when userID takes part
// in it and it has not been soft-deleted.
func (r *MongoConversationRepository) GetActiveForParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error) {
	filter := bson.M{"_id": id, "participants": userID, "is_active": true}

	var conversation models.Conversation
	err := r.collection.FindOne(ctx, filter).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("conversation %s", id.Hex())
		}
		return nil, err
	}
	return &conversation, nil
}

// ListForParticipant returns limit+1 active conversations for keyset
// pagination, newest first.
func (r *MongoConversationRepository) ListForParticipant(ctx context.Context, userID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Conversation, error) {
	filter := bson.M{"participants": userID, "is_active": true}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	var conversations []models.Conversation
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *MongoConversationRepository) ListAllActiveForParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	filter := bson.M{"participants": userID, "is_active": true}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []models.Conversation
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// SetLastMessage repoints the conversation's last-message reference; a nil
// messageID clears it.
func (r *MongoConversationRepository) SetLastMessage(ctx context.Context, id primitive.ObjectID, messageID *primitive.ObjectID) error {
	var update bson.M
	if messageID != nil {
		update = bson.M{"$set": bson.M{"last_message_id": *messageID, "updated_at": time.Now()}}
	} else {
		update = bson.M{
			"$unset": bson.M{"last_message_id": ""},
			"$set":   bson.M{"updated_at": time.Now()},
		}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("conversation %s", id.Hex())
	}
	return nil
}

// Deactivate soft-deletes the conversation.
func (r *MongoConversationRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("conversation %s", id.Hex())
	}
	return nil
}
