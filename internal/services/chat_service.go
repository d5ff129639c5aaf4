package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pagination"
	"github.com/hoangpn/socialite/backend/internal/pubsub"
	"github.com/hoangpn/socialite/backend/internal/repositories"
)

// MessageEvent is the MESSAGE_RECEIVED payload. Subscribers filter on
// ConversationID; Participants carries the routing targets for push delivery.
type MessageEvent struct {
	ConversationID primitive.ObjectID   `json:"conversation_id"`
	Participants   []primitive.ObjectID `json:"participants"`
	Message        *models.Message      `json:"message"`
	Sender         models.UserCompact   `json:"sender"`
}

// ConversationEvent is the CONVERSATION_UPDATED payload.
type ConversationEvent struct {
	Conversation *models.ConversationView `json:"conversation"`
}

// ChatService owns conversations and messages. Store writes happen before
// pub/sub publishes; the steps are not one transaction, so a crash in
// between leaves a persisted record whose event was never delivered.
type ChatService struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	bus           pubsub.Bus
	logger        *zap.Logger
}

func NewChatService(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	bus pubsub.Bus,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		bus:           bus,
		logger:        logger,
	}
}

// CreateConversationParams carries the explicit-creation contract.
type CreateConversationParams struct {
	CreatorID      primitive.ObjectID
	ParticipantIDs []primitive.ObjectID
	Type           string
	Name           string
	InitialMessage string
}

// CreateConversation opens a conversation, optionally seeding it with a
// first message, and announces it to the participants.
func (s *ChatService) CreateConversation(ctx context.Context, p CreateConversationParams) (*models.ConversationView, error) {
	if p.Type == "" {
		p.Type = models.ConversationDirect
	}
	if p.Type != models.ConversationDirect && p.Type != models.ConversationGroup {
		return nil, apperr.Invalid("unknown conversation type %q", p.Type)
	}

	participants := p.ParticipantIDs
	creatorIncluded := false
	for _, id := range participants {
		if id == p.CreatorID {
			creatorIncluded = true
			break
		}
	}
	if !creatorIncluded {
		participants = append(participants, p.CreatorID)
	}
	if len(participants) < 2 {
		return nil, apperr.Invalid("a conversation needs at least two participants")
	}

	found, err := s.users.GetUsersByIDs(ctx, participants)
	if err != nil {
		return nil, err
	}
	if len(found) != len(participants) {
		return nil, apperr.NotFound("one or more participants")
	}

	name := ""
	if p.Type == models.ConversationGroup {
		name = p.Name
	}
	conversation := &models.Conversation{
		Participants: participants,
		Type:         p.Type,
		Name:         name,
		CreatedByID:  p.CreatorID,
	}
	if err := s.conversations.CreateConversation(ctx, conversation); err != nil {
		return nil, err
	}

	if p.InitialMessage != "" {
		message := &models.Message{
			ConversationID: conversation.ID,
			SenderID:       p.CreatorID,
			Content:        p.InitialMessage,
			ContentType:    models.ContentTypeText,
			ReadBy:         []primitive.ObjectID{p.CreatorID},
		}
		if err := s.messages.CreateMessage(ctx, message); err != nil {
			return nil, err
		}
		if err := s.conversations.SetLastMessage(ctx, conversation.ID, &message.ID); err != nil {
			return nil, err
		}
		conversation.LastMessageID = &message.ID
	}

	view, err := s.buildView(ctx, conversation, p.CreatorID, nil)
	if err != nil {
		return nil, err
	}

	s.announceConversation(view)
	return view, nil
}

// SendMessageParams carries the send-message contract.
type SendMessageParams struct {
	SenderID       primitive.ObjectID
	ConversationID primitive.ObjectID
	Content        string
	ContentType    string
	MediaURL       string
}

// SendMessage persists a message, repoints the conversation's last message
// and then announces both events. The persisted message is never rolled back
// if an announcement fails.
func (s *ChatService) SendMessage(ctx context.Context, p SendMessageParams) (*models.Message, error) {
	if p.Content == "" {
		return nil, apperr.Invalid("message content is required")
	}
	if p.ContentType == "" {
		p.ContentType = models.ContentTypeText
	}
	if !models.ValidContentType(p.ContentType) {
		return nil, apperr.Invalid("unknown content type %q", p.ContentType)
	}

	conversation, err := s.conversations.GetActiveForParticipant(ctx, p.ConversationID, p.SenderID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       p.SenderID,
		Content:        p.Content,
		ContentType:    p.ContentType,
		MediaURL:       p.MediaURL,
		ReadBy:         []primitive.ObjectID{p.SenderID},
	}
	if err := s.messages.CreateMessage(ctx, message); err != nil {
		return nil, err
	}
	if err := s.conversations.SetLastMessage(ctx, conversation.ID, &message.ID); err != nil {
		return nil, err
	}
	conversation.LastMessageID = &message.ID

	sender := s.compactParticipant(ctx, p.SenderID)
	event := MessageEvent{
		ConversationID: conversation.ID,
		Participants:   conversation.Participants,
		Message:        message,
		Sender:         sender,
	}
	s.bus.Publish(pubsub.TopicMessageReceived, event)

	view, err := s.buildView(ctx, conversation, p.SenderID, message)
	if err != nil {
		s.logger.Warn("build conversation view after send", zap.Error(err))
		return message, nil
	}
	s.announceConversation(view)

	return message, nil
}

// MarkConversationRead marks every message the user has not read; repeating
// the call is a no-op.
func (s *ChatService) MarkConversationRead(ctx context.Context, userID, conversationID primitive.ObjectID) error {
	if _, err := s.conversations.GetActiveForParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.messages.MarkConversationRead(ctx, conversationID, userID)
}

// DeleteMessage soft-deletes the caller's own message. When the message was
// the conversation's last one, the pointer is repaired to the newest
// surviving message, or cleared when none remain.
func (s *ChatService) DeleteMessage(ctx context.Context, userID, messageID primitive.ObjectID) error {
	message, err := s.messages.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return apperr.Forbidden("only the sender may delete a message")
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return err
	}

	conversation, err := s.conversations.GetConversationByID(ctx, message.ConversationID)
	if err != nil {
		return err
	}
	if conversation.LastMessageID == nil || *conversation.LastMessageID != messageID {
		return nil
	}

	newest, err := s.messages.NewestNonDeleted(ctx, conversation.ID)
	if err != nil {
		return err
	}
	var newestID *primitive.ObjectID
	if newest != nil {
		newestID = &newest.ID
	}
	if err := s.conversations.SetLastMessage(ctx, conversation.ID, newestID); err != nil {
		return err
	}
	conversation.LastMessageID = newestID

	view, err := s.buildView(ctx, conversation, userID, newest)
	if err != nil {
		s.logger.Warn("build conversation view after delete", zap.Error(err))
		return nil
	}
	s.announceConversation(view)

	return nil
}

// DeleteConversation soft-deletes a conversation for all participants.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID primitive.ObjectID) error {
	if _, err := s.conversations.GetActiveForParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	return s.conversations.Deactivate(ctx, conversationID)
}

// ListConversations returns the user's conversations as a cursor-paginated
// connection with unread counts.
func (s *ChatService) ListConversations(ctx context.Context, userID primitive.ObjectID, cursor string, limit int64) (pagination.Connection[models.ConversationView], error) {
	var zero pagination.Connection[models.ConversationView]

	before, err := pagination.DecodeBound(cursor)
	if err != nil {
		return zero, apperr.Invalid("%v", err)
	}

	conversations, err := s.conversations.ListForParticipant(ctx, userID, before, limit)
	if err != nil {
		return zero, err
	}

	views := make([]models.ConversationView, len(conversations))
	for i := range conversations {
		view, err := s.buildView(ctx, &conversations[i], userID, nil)
		if err != nil {
			return zero, err
		}
		views[i] = *view
	}

	return pagination.Apply(views, limit, func(v models.ConversationView) string {
		return pagination.Encode(v.ID, v.CreatedAt)
	}), nil
}

// GetConversation loads one conversation for a participant.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID primitive.ObjectID) (*models.ConversationView, error) {
	conversation, err := s.conversations.GetActiveForParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, conversation, userID, nil)
}

// ListMessages returns a conversation's messages as a cursor-paginated
// connection, newest first.
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID primitive.ObjectID, cursor string, limit int64) (pagination.Connection[models.Message], error) {
	var zero pagination.Connection[models.Message]

	if _, err := s.conversations.GetActiveForParticipant(ctx, conversationID, userID); err != nil {
		return zero, err
	}

	before, err := pagination.DecodeBound(cursor)
	if err != nil {
		return zero, apperr.Invalid("%v", err)
	}

	messages, err := s.messages.ListByConversation(ctx, conversationID, before, limit)
	if err != nil {
		return zero, err
	}

	return pagination.Apply(messages, limit, func(m models.Message) string {
		return pagination.Encode(m.ID, m.CreatedAt)
	}), nil
}

// SearchConversations filters the user's conversations by group name or
// another participant's username.
func (s *ChatService) SearchConversations(ctx context.Context, userID primitive.ObjectID, query string) ([]models.ConversationView, error) {
	conversations, err := s.conversations.ListAllActiveForParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	views := make([]models.ConversationView, 0)
	for i := range conversations {
		view, err := s.buildView(ctx, &conversations[i], userID, nil)
		if err != nil {
			return nil, err
		}

		if strings.Contains(strings.ToLower(view.Name), needle) {
			views = append(views, *view)
			continue
		}
		for _, participant := range view.ParticipantUsers {
			if participant.ID != userID && strings.Contains(strings.ToLower(participant.Username), needle) {
				views = append(views, *view)
				break
			}
		}
	}
	return views, nil
}

// buildView joins participant display data, the last message and the
// caller's unread count onto a conversation. lastMessage may be passed when
// the caller already holds it.
func (s *ChatService) buildView(ctx context.Context, conversation *models.Conversation, userID primitive.ObjectID, lastMessage *models.Message) (*models.ConversationView, error) {
	view := &models.ConversationView{Conversation: *conversation}

	participants, err := s.users.GetUsersByIDs(ctx, conversation.Participants)
	if err != nil {
		return nil, err
	}
	view.ParticipantUsers = make([]models.UserCompact, len(participants))
	for i := range participants {
		view.ParticipantUsers[i] = participants[i].ToCompact()
	}

	if lastMessage != nil {
		view.LastMessage = lastMessage
	} else if conversation.LastMessageID != nil {
		message, err := s.messages.GetMessageByID(ctx, *conversation.LastMessageID)
		if err == nil {
			view.LastMessage = message
		}
	}

	unread, err := s.messages.CountUnread(ctx, conversation.ID, userID)
	if err != nil {
		return nil, err
	}
	view.UnreadCount = unread

	return view, nil
}

func (s *ChatService) compactParticipant(ctx context.Context, id primitive.ObjectID) models.UserCompact {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return models.UserCompact{ID: id}
	}
	return user.ToCompact()
}

// announceConversation publishes CONVERSATION_UPDATED. Delivery failures are
// invisible to the triggering caller.
func (s *ChatService) announceConversation(view *models.ConversationView) {
	s.bus.Publish(pubsub.TopicConversationUpdated, ConversationEvent{Conversation: view})
}
