package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testConnection(userID, id string) *connection {
	return &connection{
		id:     id,
		userID: userID,
		send:   make(chan []byte, 4),
	}
}

func receivePayload(t *testing.T, conn *connection) Frame {
	t.Helper()
	select {
	case payload := <-conn.send:
		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("payload did not unmarshal: %v", err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return Frame{}
	}
}

func assertNoPayload(t *testing.T, conn *connection) {
	t.Helper()
	select {
	case payload := <-conn.send:
		t.Fatalf("unexpected payload: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSendToUserDeliversToEveryConnection(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	first := testConnection("alice", "conn-1")
	second := testConnection("alice", "conn-2")
	gateway.register(first)
	gateway.register(second)

	gateway.SendToUser("alice", EventNotification, map[string]string{"message": "hi"})

	for _, conn := range []*connection{first, second} {
		frame := receivePayload(t, conn)
		if frame.Event != EventNotification {
			t.Errorf("event = %q, want %q", frame.Event, EventNotification)
		}
	}
}

func TestSendToOfflineUserIsNoOp(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	// Nothing registered for bob; must not panic or queue anything.
	gateway.SendToUser("bob", EventNotification, "payload")

	if gateway.IsOnline("bob") {
		t.Error("IsOnline(bob) = true, want false")
	}
}

func TestUnregisterStopsDelivery(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	conn := testConnection("alice", "conn-1")
	gateway.register(conn)
	gateway.unregister(conn)

	gateway.SendToUser("alice", EventNotification, "gone")
	assertNoPayload(t, conn)
}

func TestUnregisterDropsEmptyUserBucket(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	conn := testConnection("alice", "conn-1")
	gateway.register(conn)

	if !gateway.IsOnline("alice") {
		t.Fatal("IsOnline(alice) = false after register")
	}

	gateway.unregister(conn)

	if gateway.IsOnline("alice") {
		t.Error("IsOnline(alice) = true after last connection closed")
	}
	if users := gateway.OnlineUsers(); len(users) != 0 {
		t.Errorf("OnlineUsers = %v, want empty", users)
	}
}

func TestUnregisterKeepsOtherConnections(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	first := testConnection("alice", "conn-1")
	second := testConnection("alice", "conn-2")
	gateway.register(first)
	gateway.register(second)

	gateway.unregister(first)

	if !gateway.IsOnline("alice") {
		t.Fatal("IsOnline(alice) = false while a connection remains")
	}

	gateway.SendToUser("alice", EventNotification, "still here")
	receivePayload(t, second)
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	conn := testConnection("alice", "conn-1")
	gateway.register(conn)
	gateway.unregister(conn)
	gateway.unregister(conn)
}

func TestSendToUsers(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	alice := testConnection("alice", "conn-1")
	bob := testConnection("bob", "conn-2")
	gateway.register(alice)
	gateway.register(bob)

	gateway.SendToUsers([]string{"alice", "bob", "carol"}, EventMessageReceived, "group message")

	for _, conn := range []*connection{alice, bob} {
		frame := receivePayload(t, conn)
		if frame.Event != EventMessageReceived {
			t.Errorf("event = %q, want %q", frame.Event, EventMessageReceived)
		}
	}
}

func TestSendDuringDisconnectDoesNotPanic(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	for i := 0; i < 2000; i++ {
		conn := testConnection("alice", "conn-1")
		gateway.register(conn)

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			gateway.SendToUser("alice", EventNotification, "racing")
		}()
		go func() {
			defer wg.Done()
			<-start
			gateway.unregister(conn)
		}()
		close(start)
		wg.Wait()
	}
}

func TestTrySendAfterCloseIsDropped(t *testing.T) {
	conn := testConnection("alice", "conn-1")
	conn.closeSend()

	conn.trySend([]byte("late"))
	conn.closeSend()
}

func TestTrySendDropsWhenBufferFull(t *testing.T) {
	conn := &connection{id: "conn-1", userID: "alice", send: make(chan []byte, 1)}

	conn.trySend([]byte("first"))
	conn.trySend([]byte("second")) // must not block

	if got := string(<-conn.send); got != "first" {
		t.Errorf("buffered payload = %q, want first", got)
	}
	select {
	case payload := <-conn.send:
		t.Fatalf("unexpected second payload: %s", payload)
	default:
	}
}

func TestFrameShape(t *testing.T) {
	gateway := NewGateway(nil, zap.NewNop())

	conn := testConnection("alice", "conn-1")
	gateway.register(conn)

	gateway.SendToUser("alice", EventConversationUpdated, map[string]interface{}{"unread": 3})

	frame := receivePayload(t, conn)
	if frame.Event != EventConversationUpdated {
		t.Errorf("event = %q, want %q", frame.Event, EventConversationUpdated)
	}
	data, ok := frame.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data has type %T, want object", frame.Data)
	}
	if data["unread"] != float64(3) {
		t.Errorf("data.unread = %v, want 3", data["unread"])
	}
}
