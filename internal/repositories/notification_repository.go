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

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	DeleteNotification(ctx context.Context, id primitive.ObjectID) error
	DeleteAllByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	CountByRecipient(ctx context.Context, recipientID primitive.ObjectID) (total, unread int64, err error)
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *MongoNotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.IsRead = false
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = notification.CreatedAt
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

func (r *MongoNotificationRepository) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var notification models.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("notification %s", id.Hex())
		}
		return nil, err
	}
	return &notification, nil
}

// ListByRecipient returns limit+1 notifications for keyset pagination, newest first.
func (r *MongoNotificationRepository) ListByRecipient(ctx context.Context, recipientID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Notification, error) {
	filter := bson.M{"recipient_id": recipientID}
	if before != nil {
		filter["_id"] = bson.M{"$lt": *before}
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	var notifications []models.Notification
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkAsRead flips the read flag and returns the updated record. Marking an
// already-read notification is a no-op success.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	after := options.After
	opts := options.FindOneAndUpdate().SetReturnDocument(after)

	var notification models.Notification
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}}, opts).Decode(&notification)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("notification %s", id.Hex())
		}
		return nil, err
	}
	return &notification, nil
}

// MarkAllAsRead flips every unread notification of the recipient in one bulk
// update and reports how many were modified.
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *MongoNotificationRepository) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoNotificationRepository) DeleteAllByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"recipient_id": recipientID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoNotificationRepository) CountByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID})
	if err != nil {
		return 0, 0, err
	}
	unread, err := r.collection.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "is_read": false})
	if err != nil {
		return 0, 0, err
	}
	return total, unread, nil
}
