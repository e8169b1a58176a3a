package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/akay/lokanta/models"
)

// fakeTransport, realtime kanalına giden çağrıları kaydeder.
type fakeTransport struct {
	mu     sync.Mutex
	joins  []string
	sends  []models.Message
	typing []string
}

func (f *fakeTransport) JoinRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins = append(f.joins, roomID)
	return nil
}

func (f *fakeTransport) Send(roomID, senderID, content string, msgType models.MessageType, localID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, models.Message{
		RoomID: roomID, SenderID: senderID, Content: content, Type: msgType, LocalID: localID,
	})
}

func (f *fakeTransport) Typing(roomID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, roomID+"|"+userID)
}

func newChatFixture(t *testing.T) (ChatService, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{}
	chat := NewChatService(transport, func() string { return "me" }, zerolog.Nop())
	t.Cleanup(chat.Close)
	return chat, transport
}

func TestSendMessageOptimisticEcho(t *testing.T) {
	chat, transport := newChatFixture(t)

	sent := chat.SendMessage("room-1", "merhaba", models.MessageTypeText)
	if sent.LocalID == "" {
		t.Fatal("no LocalID assigned")
	}
	if sent.Delivery != models.DeliveryPending {
		t.Errorf("delivery = %s, want pending", sent.Delivery)
	}
	if !sent.Mine {
		t.Error("own message not marked Mine")
	}

	// Yerel echo listeye anında girer.
	msgs := chat.Messages("room-1")
	if len(msgs) != 1 || msgs[0].Content != "merhaba" {
		t.Fatalf("messages = %+v", msgs)
	}

	// Transport'a aynı LocalID ile gitmiş olmalı.
	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.sends) != 1 || transport.sends[0].LocalID != sent.LocalID {
		t.Errorf("sends = %+v", transport.sends)
	}
}

func TestServerEchoConfirmsByLocalID(t *testing.T) {
	chat, _ := newChatFixture(t)

	sent := chat.SendMessage("room-1", "merhaba", models.MessageTypeText)

	chat.ApplyIncoming(models.Message{
		ID:       "srv-1",
		LocalID:  sent.LocalID,
		RoomID:   "room-1",
		SenderID: "me",
		Content:  "merhaba",
		SentAt:   time.Now(),
	})

	msgs := chat.Messages("room-1")
	if len(msgs) != 1 {
		t.Fatalf("echo duplicated: %d messages", len(msgs))
	}
	if msgs[0].ID != "srv-1" || msgs[0].Delivery != models.DeliveryConfirmed {
		t.Errorf("message = %+v, want confirmed with server id", msgs[0])
	}
}

func TestServerEchoConfirmsByHeuristic(t *testing.T) {
	chat, _ := newChatFixture(t)

	chat.SendMessage("room-1", "merhaba", models.MessageTypeText)

	// LocalID'siz echo — aynı oda, aynı içerik, 1sn penceresi içinde.
	chat.ApplyIncoming(models.Message{
		ID:       "srv-1",
		RoomID:   "room-1",
		SenderID: "me",
		Content:  "merhaba",
		SentAt:   time.Now(),
	})

	msgs := chat.Messages("room-1")
	if len(msgs) != 1 {
		t.Fatalf("heuristic missed, %d messages", len(msgs))
	}
	if msgs[0].Delivery != models.DeliveryConfirmed {
		t.Errorf("delivery = %s, want confirmed", msgs[0].Delivery)
	}
}

func TestIncomingDeduplicatesByID(t *testing.T) {
	chat, _ := newChatFixture(t)

	incoming := models.Message{
		ID: "srv-1", RoomID: "room-1", SenderID: "other", Content: "selam", SentAt: time.Now(),
	}
	chat.ApplyIncoming(incoming)
	chat.ApplyIncoming(incoming)

	msgs := chat.Messages("room-1")
	if len(msgs) != 1 {
		t.Errorf("messages = %d, want 1 after duplicate delivery", len(msgs))
	}
	if msgs[0].Mine {
		t.Error("other user's message marked Mine")
	}
}

func TestDistinctMessagesSameContentKept(t *testing.T) {
	chat, _ := newChatFixture(t)

	// Aynı içerikli ama farklı id'li, pencere DIŞI iki mesaj — ikisi de kalır.
	now := time.Now()
	chat.ApplyIncoming(models.Message{ID: "srv-1", RoomID: "r", SenderID: "other", Content: "ok", SentAt: now})
	chat.ApplyIncoming(models.Message{ID: "srv-2", RoomID: "r", SenderID: "other", Content: "ok", SentAt: now.Add(5 * time.Second)})

	if got := len(chat.Messages("r")); got != 2 {
		t.Errorf("messages = %d, want 2", got)
	}
}

func TestConversationsSortedByRecency(t *testing.T) {
	chat, _ := newChatFixture(t)

	chat.OpenRoom(context.Background(), "room-a", "Ayşe")
	chat.OpenRoom(context.Background(), "room-b", "Burak")

	now := time.Now()
	chat.ApplyIncoming(models.Message{ID: "m1", RoomID: "room-a", SenderID: "o", Content: "eski", SentAt: now.Add(-time.Hour)})
	chat.ApplyIncoming(models.Message{ID: "m2", RoomID: "room-b", SenderID: "o", Content: "yeni", SentAt: now})

	convs := chat.Conversations()
	if len(convs) != 2 {
		t.Fatalf("conversations = %d, want 2", len(convs))
	}
	if convs[0].RoomID != "room-b" || convs[0].LastPreview != "yeni" {
		t.Errorf("first conversation = %+v, want room-b", convs[0])
	}
}

func TestOpenRoomJoins(t *testing.T) {
	chat, transport := newChatFixture(t)

	chat.OpenRoom(context.Background(), "room-1", "Oda")

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.joins) != 1 || transport.joins[0] != "room-1" {
		t.Errorf("joins = %v", transport.joins)
	}
}

func TestTypingAutoClears(t *testing.T) {
	chat, _ := newChatFixture(t)

	chat.SetTyping("room-1", "other")
	if users := chat.TypingUsers("room-1"); len(users) != 1 || users[0] != "other" {
		t.Fatalf("typing users = %v, want [other]", users)
	}

	// TTL dolunca gösterge kendiliğinden söner.
	time.Sleep(typingTTL + 500*time.Millisecond)
	if users := chat.TypingUsers("room-1"); len(users) != 0 {
		t.Errorf("typing users = %v, want cleared after TTL", users)
	}
}

func TestTypingClearedByIncomingMessage(t *testing.T) {
	chat, _ := newChatFixture(t)

	chat.SetTyping("room-1", "other")
	chat.ApplyIncoming(models.Message{
		ID: "m1", RoomID: "room-1", SenderID: "other", Content: "yazdım", SentAt: time.Now(),
	})

	if users := chat.TypingUsers("room-1"); len(users) != 0 {
		t.Errorf("typing users = %v, want cleared after message", users)
	}
}

func TestNotifyTypingUsesSessionUser(t *testing.T) {
	chat, transport := newChatFixture(t)

	chat.NotifyTyping("room-1")

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.typing) != 1 || transport.typing[0] != "room-1|me" {
		t.Errorf("typing = %v", transport.typing)
	}
}

func TestNotifyTypingThrottled(t *testing.T) {
	chat, transport := newChatFixture(t)

	// Aynı pencere içindeki tekrarlar tek sinyale iner.
	chat.NotifyTyping("room-1")
	chat.NotifyTyping("room-1")
	chat.NotifyTyping("room-1")

	// Farklı oda kendi penceresini kullanır.
	chat.NotifyTyping("room-2")

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.typing) != 2 {
		t.Errorf("typing emits = %v, want one per room", transport.typing)
	}
}
