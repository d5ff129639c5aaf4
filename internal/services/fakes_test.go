package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
)

// fakePusher records pushes instead of delivering them.
type fakePusher struct {
	mu     sync.Mutex
	pushes []recordedPush
}

type recordedPush struct {
	UserID string
	Event  string
	Data   interface{}
}

func (p *fakePusher) SendToUser(userID string, event string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, recordedPush{UserID: userID, Event: event, Data: data})
}

func (p *fakePusher) recorded() []recordedPush {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]recordedPush, len(p.pushes))
	copy(out, p.pushes)
	return out
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[primitive.ObjectID]models.User
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[primitive.ObjectID]models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperr.NotFound("user %s", id.Hex())
	}
	return &user, nil
}

func (r *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user with email %s", email)
}

func (r *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user %s", username)
}

func (r *fakeUserRepo) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetUsersByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	out := make([]models.User, 0, len(usernames))
	for _, username := range usernames {
		for _, user := range r.users {
			if user.Username == username {
				out = append(out, user)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListUsers(ctx context.Context, before *primitive.ObjectID, limit int64) ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateUser(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	if _, ok := r.users[id]; !ok {
		return apperr.NotFound("user %s", id.Hex())
	}
	return nil
}

// fakeNotificationRepo is an in-memory NotificationRepository holding
// notifications in insertion order (oldest first).
type fakeNotificationRepo struct {
	notifications []models.Notification
	clock         time.Time
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{clock: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, notification *models.Notification) error {
	r.clock = r.clock.Add(time.Second)
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = r.clock
	notification.UpdatedAt = r.clock
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) GetNotificationByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			copied := n
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("notification %s", id.Hex())
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Notification, error) {
	out := make([]models.Notification, 0)
	skipping := before != nil
	for i := len(r.notifications) - 1; i >= 0; i-- {
		n := r.notifications[i]
		if n.RecipientID != recipientID {
			continue
		}
		if skipping {
			if n.ID == *before {
				skipping = false
			}
			continue
		}
		out = append(out, n)
		if int64(len(out)) == limit+1 {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].IsRead = true
			copied := r.notifications[i]
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("notification %s", id.Hex())
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	var modified int64
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID && !r.notifications[i].IsRead {
			r.notifications[i].IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (r *fakeNotificationRepo) DeleteNotification(ctx context.Context, id primitive.ObjectID) error {
	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAllByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	kept := r.notifications[:0]
	var deleted int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return deleted, nil
}

func (r *fakeNotificationRepo) CountByRecipient(ctx context.Context, recipientID primitive.ObjectID) (total, unread int64, err error) {
	for _, n := range r.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		total++
		if !n.IsRead {
			unread++
		}
	}
	return total, unread, nil
}

// fakeConversationRepo is an in-memory ConversationRepository.
type fakeConversationRepo struct {
	conversations map[primitive.ObjectID]*models.Conversation
	clock         time.Time
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[primitive.ObjectID]*models.Conversation),
		clock:         time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *fakeConversationRepo) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	r.clock = r.clock.Add(time.Second)
	conversation.ID = primitive.NewObjectID()
	conversation.IsActive = true
	conversation.CreatedAt = r.clock
	conversation.UpdatedAt = r.clock
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *fakeConversationRepo) GetConversationByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, apperr.NotFound("conversation %s", id.Hex())
	}
	copied := *conversation
	return &copied, nil
}

func (r *fakeConversationRepo) GetActiveForParticipant(ctx context.Context, id, userID primitive.ObjectID) (*models.Conversation, error) {
	conversation, ok := r.conversations[id]
	if !ok || !conversation.IsActive {
		return nil, apperr.NotFound("conversation %s", id.Hex())
	}
	for _, participant := range conversation.Participants {
		if participant == userID {
			copied := *conversation
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("conversation %s", id.Hex())
}

func (r *fakeConversationRepo) ListForParticipant(ctx context.Context, userID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Conversation, error) {
	all, _ := r.ListAllActiveForParticipant(ctx, userID)
	if int64(len(all)) > limit+1 {
		all = all[:limit+1]
	}
	return all, nil
}

func (r *fakeConversationRepo) ListAllActiveForParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	out := make([]models.Conversation, 0)
	for _, conversation := range r.conversations {
		if !conversation.IsActive {
			continue
		}
		for _, participant := range conversation.Participants {
			if participant == userID {
				out = append(out, *conversation)
				break
			}
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) SetLastMessage(ctx context.Context, id primitive.ObjectID, messageID *primitive.ObjectID) error {
	conversation, ok := r.conversations[id]
	if !ok {
		return apperr.NotFound("conversation %s", id.Hex())
	}
	conversation.LastMessageID = messageID
	return nil
}

func (r *fakeConversationRepo) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	conversation, ok := r.conversations[id]
	if !ok {
		return apperr.NotFound("conversation %s", id.Hex())
	}
	conversation.IsActive = false
	return nil
}

// fakeMessageRepo is an in-memory MessageRepository holding messages in
// insertion order (oldest first).
type fakeMessageRepo struct {
	messages []*models.Message
	clock    time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{clock: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeMessageRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	r.clock = r.clock.Add(time.Second)
	message.ID = primitive.NewObjectID()
	message.CreatedAt = r.clock
	message.UpdatedAt = r.clock
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *fakeMessageRepo) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	for _, message := range r.messages {
		if message.ID == id {
			copied := *message
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("message %s", id.Hex())
}

func (r *fakeMessageRepo) ListByConversation(ctx context.Context, conversationID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]models.Message, error) {
	out := make([]models.Message, 0)
	skipping := before != nil
	for i := len(r.messages) - 1; i >= 0; i-- {
		message := r.messages[i]
		if message.ConversationID != conversationID || message.Deleted {
			continue
		}
		if skipping {
			if message.ID == *before {
				skipping = false
			}
			continue
		}
		out = append(out, *message)
		if int64(len(out)) == limit+1 {
			break
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, conversationID, userID primitive.ObjectID) error {
	for _, message := range r.messages {
		if message.ConversationID != conversationID || message.SenderID == userID {
			continue
		}
		read := false
		for _, reader := range message.ReadBy {
			if reader == userID {
				read = true
				break
			}
		}
		if !read {
			message.ReadBy = append(message.ReadBy, userID)
		}
	}
	return nil
}

func (r *fakeMessageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	for _, message := range r.messages {
		if message.ID == id {
			message.Deleted = true
			return nil
		}
	}
	return apperr.NotFound("message %s", id.Hex())
}

func (r *fakeMessageRepo) NewestNonDeleted(ctx context.Context, conversationID primitive.ObjectID) (*models.Message, error) {
	for i := len(r.messages) - 1; i >= 0; i-- {
		message := r.messages[i]
		if message.ConversationID == conversationID && !message.Deleted {
			copied := *message
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, conversationID, userID primitive.ObjectID) (int64, error) {
	var unread int64
	for _, message := range r.messages {
		if message.ConversationID != conversationID || message.Deleted || message.SenderID == userID {
			continue
		}
		read := false
		for _, reader := range message.ReadBy {
			if reader == userID {
				read = true
				break
			}
		}
		if !read {
			unread++
		}
	}
	return unread, nil
}
