package socket

import (
	"context"
	"testing"

	"github.com/racon-ai/racon-backend/internal/testutil"
)

func newTestClient(t *testing.T, hub *Hub, userID string) *Client {
	t.Helper()
	return NewClient(nil, hub, userID, func() {}, testutil.Logger(t))
}

func TestPublishToUserReachesOnlyOwner(t *testing.T) {
	hub := NewHub(testutil.Logger(t))
	alice := newTestClient(t, hub, "alice")
	bob := newTestClient(t, hub, "bob")
	hub.Subscribe(alice, []string{UserChannel("alice")})
	hub.Subscribe(bob, []string{UserChannel("bob")})

	hub.PublishToUser(context.Background(), "alice", "chat_created", map[string]string{"_id": "c1"})

	select {
	case msg := <-alice.Outbound:
		ev, ok := msg.Data.(Event)
		if msg.Channel != "user:alice" || !ok || ev.Action != "chat_created" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	default:
		t.Fatal("alice received nothing")
	}
	select {
	case msg := <-bob.Outbound:
		t.Fatalf("bob received alice's event: %+v", msg)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(testutil.Logger(t))
	c := newTestClient(t, hub, "u1")
	hub.Subscribe(c, []string{UserChannel("u1")})
	if hub.SubscriberCount(UserChannel("u1")) != 1 {
		t.Fatal("expected one subscriber")
	}
	hub.Unsubscribe(c)
	if hub.SubscriberCount(UserChannel("u1")) != 0 {
		t.Fatal("expected no subscribers")
	}

	hub.PublishToUser(context.Background(), "u1", "chat_updated", nil)
	if len(c.Outbound) != 0 {
		t.Fatal("unsubscribed client received a message")
	}
}

func TestClientAllowedOnlyOwnChannel(t *testing.T) {
	c := newTestClient(t, NewHub(testutil.Logger(t)), "u1")
	if !c.allowed("user:u1") {
		t.Fatal("own channel should be allowed")
	}
	if c.allowed("user:u2") || c.allowed("") {
		t.Fatal("foreign channel should be rejected")
	}
}

func TestFullOutboundDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(testutil.Logger(t))
	c := newTestClient(t, hub, "u1")
	hub.Subscribe(c, []string{UserChannel("u1")})
	for i := 0; i < OutboundChanBuffer+10; i++ {
		hub.PublishToUser(context.Background(), "u1", "chat_updated", i)
	}
	if len(c.Outbound) != OutboundChanBuffer {
		t.Fatalf("expected a full buffer, got %d", len(c.Outbound))
	}
}

func TestPubSubEnvelopeRoundTrip(t *testing.T) {
	raw, err := encodePubSubMessage(envelope{Origin: "node-1", Message: Message{Channel: "user:u1", Data: "x"}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := decodePubSubMessage(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Origin != "node-1" || env.Message.Channel != "user:u1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if _, err := decodePubSubMessage("{"); err == nil {
		t.Fatal("expected decode error")
	}
}
