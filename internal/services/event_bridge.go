package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/internal/pubsub"
	"github.com/hoangpn/socialite/backend/internal/realtime"
)

// EventBridge consumes the chat topics and forwards each event to the live
// connections of the users it concerns. It is the in-process counterpart of
// a subscription consumer: delivery is best-effort and nothing is queued for
// offline users.
type EventBridge struct {
	bus    pubsub.Bus
	pusher Pusher
	logger *zap.Logger
}

func NewEventBridge(bus pubsub.Bus, pusher Pusher, logger *zap.Logger) *EventBridge {
	return &EventBridge{bus: bus, pusher: pusher, logger: logger}
}

// Start attaches to both topics and forwards events until ctx is done.
func (b *EventBridge) Start(ctx context.Context) {
	messages, _ := b.bus.Subscribe(ctx, pubsub.TopicMessageReceived, nil)
	conversations, _ := b.bus.Subscribe(ctx, pubsub.TopicConversationUpdated, nil)

	go func() {
		for {
			select {
			case event, ok := <-messages:
				if !ok {
					return
				}
				b.forwardMessage(event)
			case event, ok := <-conversations:
				if !ok {
					return
				}
				b.forwardConversation(event)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (b *EventBridge) forwardMessage(event pubsub.Event) {
	payload, ok := event.Payload.(MessageEvent)
	if !ok {
		b.logger.Warn("unexpected payload on MESSAGE_RECEIVED")
		return
	}
	for _, participant := range payload.Participants {
		if participant == payload.Message.SenderID {
			continue
		}
		b.pusher.SendToUser(participant.Hex(), realtime.EventMessageReceived, payload)
	}
}

func (b *EventBridge) forwardConversation(event pubsub.Event) {
	payload, ok := event.Payload.(ConversationEvent)
	if !ok {
		b.logger.Warn("unexpected payload on CONVERSATION_UPDATED")
		return
	}
	for _, participant := range payload.Conversation.Participants {
		b.pusher.SendToUser(participant.Hex(), realtime.EventConversationUpdated, payload)
	}
}
