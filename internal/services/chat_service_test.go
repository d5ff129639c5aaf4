package services

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/apperr"
	"github.com/hoangpn/socialite/backend/internal/models"
	"github.com/hoangpn/socialite/backend/internal/pubsub"
)

type chatFixture struct {
	service       *ChatService
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	bus           *pubsub.LocalBus
	alice         models.User
	bob           models.User
	carol         models.User
}

func newChatFixture() *chatFixture {
	alice := testUser("alice")
	bob := testUser("bob")
	carol := testUser("carol")

	conversations := newFakeConversationRepo()
	messages := newFakeMessageRepo()
	bus := pubsub.NewLocalBus()
	service := NewChatService(conversations, messages, newFakeUserRepo(alice, bob, carol), bus, zap.NewNop())

	return &chatFixture{
		service:       service,
		conversations: conversations,
		messages:      messages,
		bus:           bus,
		alice:         alice,
		bob:           bob,
		carol:         carol,
	}
}

func (f *chatFixture) directConversation(t *testing.T) *models.ConversationView {
	t.Helper()
	view, err := f.service.CreateConversation(context.Background(), CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{f.bob.ID},
	})
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}
	return view
}

func awaitEvent(t *testing.T, stream <-chan pubsub.Event) pubsub.Event {
	t.Helper()
	select {
	case event := <-stream:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for bus event")
		return pubsub.Event{}
	}
}

func TestCreateConversationIncludesCreator(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)

	if len(view.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(view.Participants))
	}
	found := false
	for _, id := range view.Participants {
		if id == f.alice.ID {
			found = true
		}
	}
	if !found {
		t.Error("creator missing from participants")
	}
	if view.Type != models.ConversationDirect {
		t.Errorf("type = %q, want %q", view.Type, models.ConversationDirect)
	}
}

func TestCreateConversationNeedsTwoParticipants(t *testing.T) {
	f := newChatFixture()

	_, err := f.service.CreateConversation(context.Background(), CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{f.alice.ID},
	})
	if !apperr.IsInvalid(err) {
		t.Errorf("err = %v, want invalid", err)
	}
}

func TestCreateConversationRejectsUnknownParticipants(t *testing.T) {
	f := newChatFixture()

	_, err := f.service.CreateConversation(context.Background(), CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{primitive.NewObjectID()},
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestCreateConversationIgnoresGroupNameForDirect(t *testing.T) {
	f := newChatFixture()

	view, err := f.service.CreateConversation(context.Background(), CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{f.bob.ID},
		Name:           "should vanish",
	})
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}
	if view.Name != "" {
		t.Errorf("direct conversation name = %q, want empty", view.Name)
	}
}

func TestCreateConversationWithInitialMessage(t *testing.T) {
	f := newChatFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, cleanup := f.bus.Subscribe(ctx, pubsub.TopicConversationUpdated, nil)
	defer cleanup()

	view, err := f.service.CreateConversation(ctx, CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{f.bob.ID},
		InitialMessage: "hello bob",
	})
	if err != nil {
		t.Fatalf("CreateConversation returned error: %v", err)
	}

	if view.LastMessage == nil || view.LastMessage.Content != "hello bob" {
		t.Fatalf("last message = %+v, want the initial message", view.LastMessage)
	}
	if view.LastMessageID == nil || *view.LastMessageID != view.LastMessage.ID {
		t.Error("last message pointer not set")
	}

	event := awaitEvent(t, updates)
	payload, ok := event.Payload.(ConversationEvent)
	if !ok {
		t.Fatalf("payload has type %T, want ConversationEvent", event.Payload)
	}
	if payload.Conversation.ID != view.ID {
		t.Error("announced conversation id does not match")
	}
}

func TestSendMessagePublishesToBus(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received, cleanup := f.bus.Subscribe(ctx, pubsub.TopicMessageReceived, nil)
	defer cleanup()

	message, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID:       f.alice.ID,
		ConversationID: view.ID,
		Content:        "hi there",
	})
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if message.ContentType != models.ContentTypeText {
		t.Errorf("content type = %q, want text default", message.ContentType)
	}
	if len(message.ReadBy) != 1 || message.ReadBy[0] != f.alice.ID {
		t.Errorf("read_by = %v, want just the sender", message.ReadBy)
	}

	event := awaitEvent(t, received)
	payload, ok := event.Payload.(MessageEvent)
	if !ok {
		t.Fatalf("payload has type %T, want MessageEvent", event.Payload)
	}
	if payload.ConversationID != view.ID {
		t.Error("event conversation id does not match")
	}
	if payload.Sender.Username != "alice" {
		t.Errorf("event sender = %q, want alice", payload.Sender.Username)
	}
	if len(payload.Participants) != 2 {
		t.Errorf("event participants = %d, want 2", len(payload.Participants))
	}
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	_, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID:       f.alice.ID,
		ConversationID: view.ID,
	})
	if !apperr.IsInvalid(err) {
		t.Errorf("empty content err = %v, want invalid", err)
	}

	_, err = f.service.SendMessage(ctx, SendMessageParams{
		SenderID:       f.alice.ID,
		ConversationID: view.ID,
		Content:        "hi",
		ContentType:    "hologram",
	})
	if !apperr.IsInvalid(err) {
		t.Errorf("bad content type err = %v, want invalid", err)
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)

	_, err := f.service.SendMessage(context.Background(), SendMessageParams{
		SenderID:       f.carol.ID,
		ConversationID: view.ID,
		Content:        "let me in",
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestMarkConversationRead(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.service.SendMessage(ctx, SendMessageParams{
			SenderID:       f.alice.ID,
			ConversationID: view.ID,
			Content:        "ping",
		}); err != nil {
			t.Fatalf("SendMessage returned error: %v", err)
		}
	}

	unread, err := f.messages.CountUnread(ctx, view.ID, f.bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unread != 3 {
		t.Fatalf("unread before mark = %d, want 3", unread)
	}

	if err := f.service.MarkConversationRead(ctx, f.bob.ID, view.ID); err != nil {
		t.Fatalf("MarkConversationRead returned error: %v", err)
	}
	// Repeating must stay a no-op success.
	if err := f.service.MarkConversationRead(ctx, f.bob.ID, view.ID); err != nil {
		t.Fatalf("second MarkConversationRead returned error: %v", err)
	}

	unread, err = f.messages.CountUnread(ctx, view.ID, f.bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unread != 0 {
		t.Errorf("unread after mark = %d, want 0", unread)
	}
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	message, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID:       f.alice.ID,
		ConversationID: view.ID,
		Content:        "mine",
	})
	if err != nil {
		t.Fatal(err)
	}

	err = f.service.DeleteMessage(ctx, f.bob.ID, message.ID)
	if !apperr.IsForbidden(err) {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestDeleteMessageRepairsLastMessagePointer(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	first, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "first",
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "second",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.DeleteMessage(ctx, f.alice.ID, second.ID); err != nil {
		t.Fatalf("DeleteMessage returned error: %v", err)
	}

	conversation, err := f.conversations.GetConversationByID(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if conversation.LastMessageID == nil || *conversation.LastMessageID != first.ID {
		t.Errorf("last message pointer = %v, want repaired to %s", conversation.LastMessageID, first.ID.Hex())
	}
}

func TestDeleteMessageClearsPointerWhenNoneRemain(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	only, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "only",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.DeleteMessage(ctx, f.alice.ID, only.ID); err != nil {
		t.Fatalf("DeleteMessage returned error: %v", err)
	}

	conversation, err := f.conversations.GetConversationByID(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if conversation.LastMessageID != nil {
		t.Errorf("last message pointer = %s, want cleared", conversation.LastMessageID.Hex())
	}
}

func TestDeleteMessageKeepsPointerWhenNotLast(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	first, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "first",
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "second",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.DeleteMessage(ctx, f.alice.ID, first.ID); err != nil {
		t.Fatalf("DeleteMessage returned error: %v", err)
	}

	conversation, err := f.conversations.GetConversationByID(ctx, view.ID)
	if err != nil {
		t.Fatal(err)
	}
	if conversation.LastMessageID == nil || *conversation.LastMessageID != second.ID {
		t.Error("last message pointer changed although the deleted message was not last")
	}
}

func TestDeletedMessagesVanishFromListings(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	keep, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "keep",
	})
	if err != nil {
		t.Fatal(err)
	}
	drop, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "drop",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.service.DeleteMessage(ctx, f.alice.ID, drop.ID); err != nil {
		t.Fatal(err)
	}

	connection, err := f.service.ListMessages(ctx, f.bob.ID, view.ID, "", 10)
	if err != nil {
		t.Fatalf("ListMessages returned error: %v", err)
	}
	if len(connection.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(connection.Edges))
	}
	if connection.Edges[0].Node.ID != keep.ID {
		t.Error("surviving message missing from listing")
	}
}

func TestDeleteConversationHidesIt(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	if err := f.service.DeleteConversation(ctx, f.carol.ID, view.ID); !apperr.IsNotFound(err) {
		t.Errorf("non-participant delete err = %v, want not found", err)
	}

	if err := f.service.DeleteConversation(ctx, f.alice.ID, view.ID); err != nil {
		t.Fatalf("DeleteConversation returned error: %v", err)
	}

	if _, err := f.service.GetConversation(ctx, f.bob.ID, view.ID); !apperr.IsNotFound(err) {
		t.Errorf("get after delete err = %v, want not found", err)
	}
}

func TestListConversationsReportsUnread(t *testing.T) {
	f := newChatFixture()
	view := f.directConversation(t)
	ctx := context.Background()

	if _, err := f.service.SendMessage(ctx, SendMessageParams{
		SenderID: f.alice.ID, ConversationID: view.ID, Content: "unread for bob",
	}); err != nil {
		t.Fatal(err)
	}

	connection, err := f.service.ListConversations(ctx, f.bob.ID, "", 10)
	if err != nil {
		t.Fatalf("ListConversations returned error: %v", err)
	}
	if len(connection.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(connection.Edges))
	}
	if got := connection.Edges[0].Node.UnreadCount; got != 1 {
		t.Errorf("unread count = %d, want 1", got)
	}
}

func TestSearchConversations(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	if _, err := f.service.CreateConversation(ctx, CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{f.bob.ID, f.carol.ID},
		Type:           models.ConversationGroup,
		Name:           "Weekend Plans",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.CreateConversation(ctx, CreateConversationParams{
		CreatorID:      f.alice.ID,
		ParticipantIDs: []primitive.ObjectID{f.bob.ID},
	}); err != nil {
		t.Fatal(err)
	}

	byName, err := f.service.SearchConversations(ctx, f.alice.ID, "weekend")
	if err != nil {
		t.Fatalf("SearchConversations returned error: %v", err)
	}
	if len(byName) != 1 {
		t.Errorf("name search matched %d conversations, want 1", len(byName))
	}

	byUser, err := f.service.SearchConversations(ctx, f.alice.ID, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(byUser) != 2 {
		t.Errorf("username search matched %d conversations, want 2", len(byUser))
	}

	// The caller's own username never matches.
	bySelf, err := f.service.SearchConversations(ctx, f.alice.ID, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(bySelf) != 0 {
		t.Errorf("self search matched %d conversations, want 0", len(bySelf))
	}
}
