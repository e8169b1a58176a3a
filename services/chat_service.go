package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/models"
	"github.com/akay/lokanta/pkg/cache"
	"github.com/akay/lokanta/pkg/ratelimit"
	"github.com/akay/lokanta/realtime"
)

const (
	// typingTTL: "yazıyor" göstergesinin yenilenmezse sönme süresi.
	typingTTL = 3 * time.Second

	// confirmTimeout: optimistic echo bu süre içinde server'dan
	// onay (ya da echo) almazsa failed'a düşer.
	confirmTimeout = 10 * time.Second

	// echoWindow: id eşleşmediğinde fallback heuristic'in zaman penceresi —
	// aynı oda + aynı içerik + pending bir echo'ya 1 saniyeden yakın.
	echoWindow = time.Second

	// typingEmitWindow: oda başına en fazla bir typing sinyali bu pencere
	// içinde gider — her tuş vuruşu ayrı event üretmez, gösterge TTL'i
	// (3s) dolmadan sinyal zaten yenilenir.
	typingEmitWindow = 2 * time.Second
)

// MessageTransport, chat'in realtime kanalına ihtiyaç duyduğu yüzey.
// realtime.Conn sağlar; testlerde fake geçilir.
type MessageTransport interface {
	JoinRoom(ctx context.Context, roomID string) error
	Send(roomID, senderID, content string, msgType models.MessageType, localID string)
	Typing(roomID, userID string)
}

// ChatService, conversation ve mesaj state'inin iş mantığı.
//
// Oda başına sıralı, append-only mesaj listesi tutar. Gönderimler
// optimistic'tir: yerel echo anında listeye girer, server echo'su
// geldiğinde YENİ kayıt açmak yerine mevcut echo onaylanır.
type ChatService interface {
	OpenRoom(ctx context.Context, roomID, name string)
	Conversations() []models.Conversation
	Messages(roomID string) []models.Message
	SendMessage(roomID, content string, msgType models.MessageType) models.Message
	ApplyIncoming(msg models.Message)
	NotifyTyping(roomID string)
	SetTyping(roomID, userID string)
	ClearTyping(roomID, userID string)
	TypingUsers(roomID string) []string
	Subscribe(fn func(roomID string)) (cancel func())
	Close()
}

type chatService struct {
	transport MessageTransport
	userID    func() string
	log       zerolog.Logger

	mu    sync.Mutex
	rooms map[string]*roomState

	// typing: "roomID|userID" anahtarlı, kendiliğinden sönen gösterge seti.
	typing *cache.TTLCache[string, struct{}]

	// typingThrottle: outbound typing sinyali oda başına pencerelenir.
	typingThrottle *ratelimit.Throttle

	subSeq int
	subs   map[int]func(string)
}

type roomState struct {
	name     string
	messages []models.Message
}

// NewChatService, constructor. userID, aktif oturumun kullanıcı id'sini
// sağlar — Mine ve sender alanları buradan çözülür.
func NewChatService(transport MessageTransport, userID func() string, log zerolog.Logger) ChatService {
	return &chatService{
		transport:      transport,
		userID:         userID,
		log:            log,
		rooms:          make(map[string]*roomState),
		typing:         cache.New[string, struct{}](typingTTL, typingTTL),
		typingThrottle: ratelimit.NewThrottle(1, typingEmitWindow),
		subs:           make(map[int]func(string)),
	}
}

// OpenRoom, conversation'ı yerel state'e kaydeder ve odaya katılma
// niyetini gönderir. Katılamama ölümcül değildir — log'lanır, ekran
// yine açılır; mesaj geçmişi REST'ten, yenileri user-stream'den gelir.
func (s *chatService) OpenRoom(ctx context.Context, roomID, name string) {
	s.mu.Lock()
	if _, ok := s.rooms[roomID]; !ok {
		s.rooms[roomID] = &roomState{name: name}
	} else if name != "" {
		s.rooms[roomID].name = name
	}
	s.mu.Unlock()

	if s.transport != nil {
		if err := s.transport.JoinRoom(ctx, roomID); err != nil {
			s.log.Warn().Str("room_id", roomID).Err(err).Msg("join room failed")
		}
	}
}

// Conversations, odaları son mesaj zamanına göre (en yeni başta) döner.
func (s *chatService) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Conversation, 0, len(s.rooms))
	for roomID, room := range s.rooms {
		conv := models.Conversation{RoomID: roomID, Name: room.name}
		if n := len(room.messages); n > 0 {
			last := room.messages[n-1]
			conv.LastPreview = last.Content
			conv.UpdatedAt = last.SentAt
		}
		out = append(out, conv)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Messages, odanın mesajlarının kopyasını döner (gönderim sırasıyla).
func (s *chatService) Messages(roomID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(room.messages))
	copy(out, room.messages)
	return out
}

// SendMessage, optimistic gönderim yapar.
//
// Yerel echo LocalID (uuid) ve pending durumuyla HEMEN listeye eklenir —
// kullanıcı mesajını anında görür. Server echo'su onaylar; confirmTimeout
// içinde onay gelmezse echo failed'a düşer (UI retry gösterebilir).
func (s *chatService) SendMessage(roomID, content string, msgType models.MessageType) models.Message {
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	msg := models.Message{
		LocalID:  uuid.NewString(),
		RoomID:   roomID,
		SenderID: s.userID(),
		Content:  content,
		Type:     msgType,
		SentAt:   time.Now(),
		Delivery: models.DeliveryPending,
		Mine:     true,
	}

	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		room = &roomState{}
		s.rooms[roomID] = room
	}
	room.messages = append(room.messages, msg)
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	s.notify(subs, roomID)

	if s.transport != nil {
		s.transport.Send(roomID, msg.SenderID, content, msgType, msg.LocalID)
	}

	localID := msg.LocalID
	time.AfterFunc(confirmTimeout, func() { s.expirePending(roomID, localID) })

	return msg
}

// expirePending, onaysız kalan echo'yu failed'a düşürür.
func (s *chatService) expirePending(roomID, localID string) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	changed := false
	for i := range room.messages {
		if room.messages[i].LocalID == localID && room.messages[i].Delivery == models.DeliveryPending {
			room.messages[i].Delivery = models.DeliveryFailed
			changed = true
		}
	}
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()

	if changed {
		s.log.Warn().Str("room_id", roomID).Msg("message delivery unconfirmed")
		s.notify(subs, roomID)
	}
}

// ApplyIncoming, realtime'dan gelen mesajı oda listesine uygular.
//
// Duplicate koruması iki katmanlıdır:
//  1. Stable id: listede aynı id varsa mesaj yok sayılır; pending bir
//     echo'nun LocalID'si eşleşiyorsa echo onaylanır.
//  2. Heuristic: id eşleşmedi ama aynı odada aynı içerikli, 1 saniye
//     yakınında PENDING bir yerel echo varsa bu onun server echo'sudur —
//     yeni kayıt açılmaz, echo onaylanıp server id'sini alır.
func (s *chatService) ApplyIncoming(msg models.Message) {
	msg.Mine = msg.SenderID != "" && msg.SenderID == s.userID()
	if msg.Delivery == "" {
		msg.Delivery = models.DeliveryConfirmed
	}

	s.mu.Lock()
	room, ok := s.rooms[msg.RoomID]
	if !ok {
		room = &roomState{}
		s.rooms[msg.RoomID] = room
	}

	for i := range room.messages {
		existing := &room.messages[i]

		if msg.ID != "" && existing.ID == msg.ID {
			s.mu.Unlock()
			return
		}

		// Kendi gönderimimizin server echo'su — LocalID ya da heuristic.
		confirms := (msg.LocalID != "" && existing.LocalID == msg.LocalID) ||
			(existing.Delivery == models.DeliveryPending &&
				existing.Content == msg.Content &&
				absDuration(existing.SentAt.Sub(msg.SentAt)) <= echoWindow)
		if confirms && existing.Delivery != models.DeliveryConfirmed {
			existing.ID = msg.ID
			existing.Delivery = models.DeliveryConfirmed
			if !msg.SentAt.IsZero() {
				existing.SentAt = msg.SentAt
			}
			subs := s.snapshotSubsLocked()
			s.mu.Unlock()
			s.notify(subs, msg.RoomID)
			return
		}
	}

	room.messages = append(room.messages, msg)
	subs := s.snapshotSubsLocked()
	s.mu.Unlock()
	s.notify(subs, msg.RoomID)

	// Karşı taraf mesaj attıysa typing göstergesi söner.
	if !msg.Mine {
		s.typing.Delete(typingKey(msg.RoomID, msg.SenderID))
	}
}

// NotifyTyping, "ben yazıyorum" sinyalini karşıya gönderir.
// Oda başına throttle edilir — her tuş vuruşu ayrı event üretmez.
func (s *chatService) NotifyTyping(roomID string) {
	if s.transport == nil || !s.typingThrottle.Allow(roomID) {
		return
	}
	s.transport.Typing(roomID, s.userID())
}

// SetTyping, karşı tarafın yazıyor göstergesini açar.
// TTL içinde yenilenmezse kendiliğinden söner — "kapandı" sinyali gelmese de
// gösterge asılı kalmaz.
func (s *chatService) SetTyping(roomID, userID string) {
	s.typing.Set(typingKey(roomID, userID), struct{}{})
}

// ClearTyping, göstergeyi TTL'i beklemeden kapatır (açık "durdu" sinyali).
func (s *chatService) ClearTyping(roomID, userID string) {
	s.typing.Delete(typingKey(roomID, userID))
}

// TypingUsers, odada şu an yazmakta olan kullanıcı id'lerini döner.
func (s *chatService) TypingUsers(roomID string) []string {
	prefix := roomID + "|"
	keys := s.typing.KeysFunc(func(key string) bool {
		return strings.HasPrefix(key, prefix)
	})

	users := make([]string, 0, len(keys))
	for _, key := range keys {
		users = append(users, strings.TrimPrefix(key, prefix))
	}
	sort.Strings(users)
	return users
}

// Subscribe, oda state'i her değiştiğinde oda id'siyle çağrılır.
func (s *chatService) Subscribe(fn func(string)) func() {
	s.mu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close, typing cache'inin ve throttle'ın temizlik goroutine'lerini durdurur.
func (s *chatService) Close() {
	s.typing.Close()
	s.typingThrottle.Close()
}

// BindRealtime, realtime handler'larını chat service'e bağlar.
// main'deki wire-up tek satıra iner.
func BindRealtime(conn *realtime.Conn, chat ChatService) {
	conn.OnReceive(chat.ApplyIncoming)
	conn.OnTyping(func(t realtime.TypingData) {
		if t.IsTyping {
			chat.SetTyping(t.RoomID, t.UserID)
		} else {
			chat.ClearTyping(t.RoomID, t.UserID)
		}
	})
}

func (s *chatService) snapshotSubsLocked() []func(string) {
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *chatService) notify(subs []func(string), roomID string) {
	for _, fn := range subs {
		fn(roomID)
	}
}

func typingKey(roomID, userID string) string {
	return roomID + "|" + userID
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
