package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/api"
	"github.com/akay/lokanta/models"
)

// fakeBroadcaster, EmitMarkRead çağrılarını kaydeder.
type fakeBroadcaster struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeBroadcaster) EmitMarkRead(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
}

func (f *fakeBroadcaster) emitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type notifyFixture struct {
	notify    NotifyService
	broadcast *fakeBroadcaster

	mu            sync.Mutex
	notifications []models.Notification
	failMarkIDs   map[string]bool
	listFails     bool
}

func newNotifyFixture(t *testing.T) *notifyFixture {
	t.Helper()
	f := &notifyFixture{
		broadcast:   &fakeBroadcaster{},
		failMarkIDs: make(map[string]bool),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/notifications" && r.Method == http.MethodGet:
			if f.listFails {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"boom"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success":       true,
				"notifications": f.notifications,
			})
		case r.Method == http.MethodPatch:
			// /notifications/:id/read
			id := r.URL.Path[len("/notifications/") : len(r.URL.Path)-len("/read")]
			if f.failMarkIDs[id] {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"mark failed"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client := api.NewClient(srv.URL, 5*time.Second, zerolog.Nop())
	f.notify = NewNotifyService(client, f.broadcast, zerolog.Nop())
	return f
}

func notif(id string, typ models.NotificationType, read bool) models.Notification {
	return models.Notification{ID: id, Type: typ, Title: "t-" + id, IsRead: read}
}

func TestLoadInitialComputesCounters(t *testing.T) {
	f := newNotifyFixture(t)
	f.mu.Lock()
	f.notifications = []models.Notification{
		notif("n1", models.NotificationTypeMessage, false),
		notif("n2", models.NotificationTypeBooking, false),
		notif("n3", models.NotificationTypeMessage, true),
		notif("n4", models.NotificationTypeSystem, false),
	}
	f.mu.Unlock()

	f.notify.LoadInitial(context.Background())

	if got := len(f.notify.Notifications()); got != 4 {
		t.Errorf("notifications = %d, want 4", got)
	}
	if got := f.notify.UnreadCount(); got != 3 {
		t.Errorf("unread = %d, want 3", got)
	}
	if got := f.notify.UnreadMessageCount(); got != 1 {
		t.Errorf("unread messages = %d, want 1", got)
	}
}

func TestLoadInitialFailureZeroesState(t *testing.T) {
	f := newNotifyFixture(t)
	f.mu.Lock()
	f.notifications = []models.Notification{notif("n1", models.NotificationTypeMessage, false)}
	f.mu.Unlock()
	f.notify.LoadInitial(context.Background())

	f.mu.Lock()
	f.listFails = true
	f.mu.Unlock()

	// Başarısız yükleme eski cache'i BIRAKMAZ — boşaltır.
	f.notify.LoadInitial(context.Background())
	if got := len(f.notify.Notifications()); got != 0 {
		t.Errorf("notifications = %d, want 0 after failed load", got)
	}
	if f.notify.UnreadCount() != 0 || f.notify.UnreadMessageCount() != 0 {
		t.Error("counters not zeroed after failed load")
	}
}

func TestOnPushDeduplicatesByID(t *testing.T) {
	f := newNotifyFixture(t)

	n := notif("n1", models.NotificationTypeMessage, false)
	f.notify.OnPush(n)
	f.notify.OnPush(n)
	f.notify.OnPush(n)

	if got := len(f.notify.Notifications()); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
	if got := f.notify.UnreadCount(); got != 1 {
		t.Errorf("unread = %d, want 1 (no double count)", got)
	}
}

func TestOnPushPrependsNewestFirst(t *testing.T) {
	f := newNotifyFixture(t)

	f.notify.OnPush(notif("n1", models.NotificationTypeSystem, false))
	f.notify.OnPush(notif("n2", models.NotificationTypeMessage, false))

	items := f.notify.Notifications()
	if len(items) != 2 || items[0].ID != "n2" {
		t.Errorf("order = %v, want newest first", items)
	}
	if got := f.notify.UnreadMessageCount(); got != 1 {
		t.Errorf("unread messages = %d, want 1", got)
	}
}

func TestCounterInvariantHolds(t *testing.T) {
	f := newNotifyFixture(t)

	// Karışık bir işlem dizisi — her adımda 0 <= msg <= toplam.
	check := func(step string) {
		t.Helper()
		msg, total := f.notify.UnreadMessageCount(), f.notify.UnreadCount()
		if msg < 0 || msg > total {
			t.Fatalf("%s: invariant violated: msg=%d total=%d", step, msg, total)
		}
	}

	f.notify.OnPush(notif("n1", models.NotificationTypeMessage, false))
	check("push message")
	f.notify.OnPush(notif("n2", models.NotificationTypeBooking, false))
	check("push booking")
	_ = f.notify.MarkRead(context.Background(), "n1")
	check("mark read")
	f.notify.SetUnreadCount(0)
	check("server count override")
}

func TestMarkReadOptimisticConfirm(t *testing.T) {
	f := newNotifyFixture(t)
	f.notify.OnPush(notif("n1", models.NotificationTypeMessage, false))

	if err := f.notify.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	items := f.notify.Notifications()
	if !items[0].IsRead {
		t.Error("notification not flipped to read")
	}
	if f.notify.UnreadCount() != 0 || f.notify.UnreadMessageCount() != 0 {
		t.Error("counters not decremented")
	}
	if got := f.broadcast.emitted(); len(got) != 1 || got[0] != "n1" {
		t.Errorf("broadcast = %v, want [n1]", got)
	}
}

func TestMarkReadRevertsOnFailure(t *testing.T) {
	f := newNotifyFixture(t)
	f.notify.OnPush(notif("n1", models.NotificationTypeMessage, false))
	f.mu.Lock()
	f.failMarkIDs["n1"] = true
	f.mu.Unlock()

	if err := f.notify.MarkRead(context.Background(), "n1"); err == nil {
		t.Fatal("expected error")
	}

	// Server reddetti — yerel flip geri alınır, sayaçlar eski haline döner.
	items := f.notify.Notifications()
	if items[0].IsRead {
		t.Error("failed mark left notification read")
	}
	if f.notify.UnreadCount() != 1 || f.notify.UnreadMessageCount() != 1 {
		t.Error("counters not restored after revert")
	}
	if got := f.broadcast.emitted(); len(got) != 0 {
		t.Errorf("broadcast = %v, want none on failure", got)
	}
}

func TestMarkReadAlreadyReadIsNoop(t *testing.T) {
	f := newNotifyFixture(t)
	f.notify.OnPush(notif("n1", models.NotificationTypeMessage, true))

	if err := f.notify.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if err := f.notify.MarkRead(context.Background(), "missing"); err != nil {
		t.Fatalf("MarkRead on unknown id failed: %v", err)
	}
	if got := f.broadcast.emitted(); len(got) != 0 {
		t.Errorf("broadcast = %v, want none for no-op", got)
	}
}

func TestMarkAllReadPartialFailure(t *testing.T) {
	f := newNotifyFixture(t)
	f.notify.OnPush(notif("n3", models.NotificationTypeSystem, false))
	f.notify.OnPush(notif("n2", models.NotificationTypeBooking, false))
	f.notify.OnPush(notif("n1", models.NotificationTypeMessage, false))
	f.mu.Lock()
	f.failMarkIDs["n2"] = true
	f.mu.Unlock()

	err := f.notify.MarkAllRead(context.Background())
	if err == nil {
		t.Fatal("expected first error to surface")
	}

	// Ortadaki hata kalanları durdurmaz: n1 ve n3 okunmuş kalır,
	// sadece n2 revert edilir.
	state := make(map[string]bool)
	for _, n := range f.notify.Notifications() {
		state[n.ID] = n.IsRead
	}
	if !state["n1"] {
		t.Error("n1 should stay read")
	}
	if state["n2"] {
		t.Error("n2 should be reverted to unread")
	}
	if !state["n3"] {
		t.Error("n3 should still be marked despite n2 failing")
	}
	if got := f.notify.UnreadCount(); got != 1 {
		t.Errorf("unread = %d, want 1", got)
	}
	if got := f.broadcast.emitted(); len(got) != 2 {
		t.Errorf("broadcast = %v, want n1 and n3", got)
	}
}

func TestSetUnreadCountIsAuthoritative(t *testing.T) {
	f := newNotifyFixture(t)
	f.notify.OnPush(notif("n1", models.NotificationTypeMessage, false))

	f.notify.SetUnreadCount(5)
	if got := f.notify.UnreadCount(); got != 5 {
		t.Errorf("unread = %d, want server value 5", got)
	}

	f.notify.SetUnreadCount(-3)
	if got := f.notify.UnreadCount(); got != 0 {
		t.Errorf("unread = %d, want floored 0", got)
	}
}
