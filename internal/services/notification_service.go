package services

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pagination"
	"github.com/hoangpn/socialite/backend/internal/realtime"
	"github.com/hoangpn/socialite/backend/internal/repositories"
)

// Pusher is the live-delivery dependency of the services. The realtime
// gateway implements it; tests substitute a recorder.
type Pusher interface {
	SendToUser(userID string, event string, data interface{})
}

// previewLength bounds the free-text excerpt embedded in metadata.
const previewLength = 50

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]+)`)

// systemSenderID is the reserved sender for system notifications.
var systemSenderID = primitive.NilObjectID

// NotificationService builds typed notification records, persists them and
// pushes them to the recipient's live connections when present. A push
// failure never fails the already-persisted notification.
type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	pusher        Pusher
	logger        *zap.Logger
}

func NewNotificationService(
	notifications repositories.NotificationRepository,
	users repositories.UserRepository,
	pusher Pusher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		pusher:        pusher,
		logger:        logger,
	}
}

// CreateNotificationParams carries the generic notification contract.
type CreateNotificationParams struct {
	Recipient  primitive.ObjectID
	Sender     primitive.ObjectID
	Type       models.NotificationType
	EntityID   primitive.ObjectID
	EntityType models.EntityType
	Message    string
	Metadata   map[string]interface{}
}

// Create persists a notification and hands it to the gateway for best-effort
// push. A self-action (sender == recipient) returns (nil, nil) without
// writing anything.
func (s *NotificationService) Create(ctx context.Context, p CreateNotificationParams) (*models.Notification, error) {
	if !models.ValidNotificationType(p.Type) {
		return nil, apperr.Invalid("unknown notification type %q", p.Type)
	}
	if !models.ValidEntityType(p.EntityType) {
		return nil, apperr.Invalid("unknown entity type %q", p.EntityType)
	}
	if p.Sender == p.Recipient {
		return nil, nil
	}

	notification := &models.Notification{
		RecipientID: p.Recipient,
		SenderID:    p.Sender,
		Type:        p.Type,
		EntityID:    p.EntityID,
		EntityType:  p.EntityType,
		Message:     p.Message,
		Metadata:    p.Metadata,
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	enriched := s.enrich(ctx, *notification, map[primitive.ObjectID]models.UserCompact{})
	s.pusher.SendToUser(p.Recipient.Hex(), realtime.EventNotification, enriched)

	return notification, nil
}

// enrich joins sender/recipient display data onto a notification. A user that
// cannot be loaded (deleted account, system sender) leaves a bare id.
func (s *NotificationService) enrich(ctx context.Context, n models.Notification, userCache map[primitive.ObjectID]models.UserCompact) models.EnrichedNotification {
	enriched := models.EnrichedNotification{Notification: n}
	enriched.Sender = s.compactUser(ctx, n.SenderID, userCache)
	enriched.Recipient = s.compactUser(ctx, n.RecipientID, userCache)
	return enriched
}

func (s *NotificationService) compactUser(ctx context.Context, id primitive.ObjectID, userCache map[primitive.ObjectID]models.UserCompact) models.UserCompact {
	if compact, ok := userCache[id]; ok {
		return compact
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		compact := models.UserCompact{ID: id}
		userCache[id] = compact
		return compact
	}
	compact := user.ToCompact()
	userCache[id] = compact
	return compact
}

func truncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

// NotifyLikePost notifies a post author that someone liked their post.
func (s *NotificationService) NotifyLikePost(ctx context.Context, postID, postAuthorID, likerID primitive.ObjectID) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  postAuthorID,
		Sender:     likerID,
		Type:       models.NotificationLikePost,
		EntityID:   postID,
		EntityType: models.EntityPost,
		Message:    "liked your post",
	})
}

// NotifyCommentPost notifies a post author about a new comment.
func (s *NotificationService) NotifyCommentPost(ctx context.Context, postID, postAuthorID, commenterID primitive.ObjectID, commentContent string) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  postAuthorID,
		Sender:     commenterID,
		Type:       models.NotificationCommentPost,
		EntityID:   postID,
		EntityType: models.EntityPost,
		Message:    "commented on your post",
		Metadata: map[string]interface{}{
			"commentContent": truncatePreview(commentContent),
		},
	})
}

// NotifyReplyComment notifies a comment author about a reply.
func (s *NotificationService) NotifyReplyComment(ctx context.Context, commentID, commentAuthorID, replierID primitive.ObjectID, replyContent string, postID primitive.ObjectID) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  commentAuthorID,
		Sender:     replierID,
		Type:       models.NotificationReplyComment,
		EntityID:   commentID,
		EntityType: models.EntityComment,
		Message:    "replied to your comment",
		Metadata: map[string]interface{}{
			"replyContent": truncatePreview(replyContent),
			"postId":       postID.Hex(),
		},
	})
}

// NotifyFollow notifies a user about a new follower.
func (s *NotificationService) NotifyFollow(ctx context.Context, followedUserID, followerID primitive.ObjectID) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  followedUserID,
		Sender:     followerID,
		Type:       models.NotificationFollow,
		EntityID:   followerID,
		EntityType: models.EntityUser,
		Message:    "started following you",
	})
}

// NotifyFriendRequest notifies a user about an incoming friend request.
func (s *NotificationService) NotifyFriendRequest(ctx context.Context, receiverID, senderID primitive.ObjectID) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  receiverID,
		Sender:     senderID,
		Type:       models.NotificationFriendRequest,
		EntityID:   senderID,
		EntityType: models.EntityUser,
		Message:    "sent you a friend request",
	})
}

// NotifyFriendAccept notifies a requester that their request was accepted.
func (s *NotificationService) NotifyFriendAccept(ctx context.Context, requesterID, accepterID primitive.ObjectID) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  requesterID,
		Sender:     accepterID,
		Type:       models.NotificationFriendAccept,
		EntityID:   accepterID,
		EntityType: models.EntityUser,
		Message:    "accepted your friend request",
	})
}

// NotifyMention notifies a user mentioned in a post or comment.
func (s *NotificationService) NotifyMention(ctx context.Context, mentionedUserID, mentionerID, entityID primitive.ObjectID, entityType models.EntityType, content string) (*models.Notification, error) {
	var message string
	switch entityType {
	case models.EntityPost:
		message = "mentioned you in a post"
	case models.EntityComment:
		message = "mentioned you in a comment"
	default:
		return nil, apperr.Invalid("mentions are only supported on posts and comments")
	}

	return s.Create(ctx, CreateNotificationParams{
		Recipient:  mentionedUserID,
		Sender:     mentionerID,
		Type:       models.NotificationMention,
		EntityID:   entityID,
		EntityType: entityType,
		Message:    message,
		Metadata: map[string]interface{}{
			"content": truncatePreview(content),
		},
	})
}

// NotifyMentions scans content for @username references and notifies every
// mentioned user that exists. Unknown usernames are ignored.
func (s *NotificationService) NotifyMentions(ctx context.Context, actorID, entityID primitive.ObjectID, entityType models.EntityType, content string) error {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	usernames := make([]string, 0, len(matches))
	for _, match := range matches {
		if !seen[match[1]] {
			seen[match[1]] = true
			usernames = append(usernames, match[1])
		}
	}

	mentioned, err := s.users.GetUsersByUsernames(ctx, usernames)
	if err != nil {
		return err
	}

	for _, user := range mentioned {
		if _, err := s.NotifyMention(ctx, user.ID, actorID, entityID, entityType, content); err != nil {
			return err
		}
	}
	return nil
}

// NotifySystem sends a system notification to a single recipient.
func (s *NotificationService) NotifySystem(ctx context.Context, recipientID primitive.ObjectID, message string, metadata map[string]interface{}) (*models.Notification, error) {
	return s.Create(ctx, CreateNotificationParams{
		Recipient:  recipientID,
		Sender:     systemSenderID,
		Type:       models.NotificationSystem,
		EntityID:   recipientID,
		EntityType: models.EntityUser,
		Message:    message,
		Metadata:   metadata,
	})
}

// List returns the recipient's notifications as a cursor-paginated connection.
func (s *NotificationService) List(ctx context.Context, userID primitive.ObjectID, cursor string, limit int64) (pagination.Connection[models.EnrichedNotification], error) {
	var zero pagination.Connection[models.EnrichedNotification]

	before, err := pagination.DecodeBound(cursor)
	if err != nil {
		return zero, apperr.Invalid("%v", err)
	}

	notifications, err := s.notifications.ListByRecipient(ctx, userID, before, limit)
	if err != nil {
		return zero, err
	}

	userCache := make(map[primitive.ObjectID]models.UserCompact)
	enriched := make([]models.EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = s.enrich(ctx, n, userCache)
	}

	return pagination.Apply(enriched, limit, func(n models.EnrichedNotification) string {
		return pagination.Encode(n.ID, n.CreatedAt)
	}), nil
}

// Get loads a single notification.
func (s *NotificationService) Get(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	return s.notifications.GetNotificationByID(ctx, id)
}

// MarkRead flips the read flag; already-read notifications are a no-op
// success. Ownership checks are the caller's responsibility.
func (s *NotificationService) MarkRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	return s.notifications.MarkAsRead(ctx, id)
}

// MarkAllRead flips every unread notification of the user in one bulk update.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notifications.MarkAllAsRead(ctx, userID)
}

// Delete removes one notification; deleting a missing one is a no-op success.
func (s *NotificationService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.notifications.DeleteNotification(ctx, id)
}

// DeleteAll removes every notification of the user.
func (s *NotificationService) DeleteAll(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.notifications.DeleteAllByRecipient(ctx, userID)
}

// Count reports total and unread notification counts for the user.
func (s *NotificationService) Count(ctx context.Context, userID primitive.ObjectID) (total, unread int64, err error) {
	return s.notifications.CountByRecipient(ctx, userID)
}
