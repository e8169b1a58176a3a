package realtime

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/models"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// readWait: server'dan herhangi bir event (heartbeat_ack dahil) için
	// beklenen maksimum süre. 3 heartbeat kaçırma = 30s × 3 = 90s.
	readWait = 90 * time.Second

	// heartbeatInterval: client'ın "hâlâ bağlıyım" sinyali gönderme aralığı.
	heartbeatInterval = 30 * time.Second

	// maxMessageSize: inbound event üst sınırı (byte). Push event'leri
	// küçüktür — büyük veri REST ile taşınır.
	maxMessageSize = 4096

	// sendBufferSize: outbound event buffer'ı. Doluysa event düşer —
	// tüm outbound'lar fire-and-forget'tir, bloklamak kabul edilmez.
	sendBufferSize = 64

	// Reconnect politikası: en fazla 5 deneme, 1'er saniye arayla,
	// sonra sessizce pes edilir. UI yalnızca binary bir
	// connected/reconnecting göstergesi sunar, hard fail yoktur.
	maxReconnectAttempts = 5
	reconnectDelay       = time.Second
)

// State, bağlantının gözlemlenebilir durumu.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// TokenFunc, WebSocket handshake'ine eklenecek access token'ı sağlar.
// Her (re)connect'te çağrılır — refresh sonrası yeni token kullanılmalıdır.
type TokenFunc func() string

// Conn, backend push transport'una açılan tek kalıcı bağlantıdır.
//
// Kullanıcı başına bir Conn yaşar; Connect idempotent'tir — canlı bir
// bağlantı varken tekrar çağrılırsa ikinci bir bağlantı AÇMAZ.
// Disconnect bağlantıyı ve iç state'i temizler, sonraki Connect sıfırdan kurar.
type Conn struct {
	url     string
	log     zerolog.Logger
	tokenFn TokenFunc

	mu      sync.Mutex
	ws      *websocket.Conn
	state   State
	ready   *gate
	genStop chan struct{} // bağlantı jenerasyonunu kapatma sinyali
	userID  string
	lastSeq int64

	// writeMu: gorilla/websocket aynı anda tek bir yazma destekler.
	writeMu sync.Mutex

	// send: outbound event buffer'ı. Jenerasyonlar arası kalıcıdır —
	// reconnect sırasında emit edilen event'ler bağlantı dönünce akar.
	send chan []byte

	handlerMu      sync.RWMutex
	onReceive      []func(models.Message)
	onTyping       []func(TypingData)
	onNotification []func(models.Notification)
	onUnread       []func(int)
}

// NewConn, constructor. Bağlantı açmaz — Connect ile kurulur.
func NewConn(rawURL string, tokenFn TokenFunc, log zerolog.Logger) *Conn {
	return &Conn{
		url:     rawURL,
		log:     log,
		tokenFn: tokenFn,
		state:   StateDisconnected,
		send:    make(chan []byte, sendBufferSize),
	}
}

// Connect, push transport'una bağlanır. Idempotent: canlı bağlantı
// varken çağrılırsa hiçbir şey yapmadan döner.
//
// İlk dial senkron yapılır (ctx ile sınırlı) — başarısızlık çağırana
// döner. Kurulduktan SONRA kopan bağlantı için otomatik reconnect
// devreye girer (bounded, sessiz).
func (c *Conn) Connect(ctx context.Context, userID string) error {
	c.mu.Lock()
	if c.ws != nil {
		c.mu.Unlock()
		return nil
	}
	if c.genStop != nil {
		// Canlı bir jenerasyon var (reconnect döngüsü hâlâ deniyor).
		// İkinci bir jenerasyon başlatmak çift bağlantı demek olurdu —
		// onun gate'ine katılıp sonucunu bekleriz.
		ready := c.ready
		c.mu.Unlock()
		if err := ready.wait(ctx); err != nil {
			return fmt.Errorf("realtime connect: %w", err)
		}
		return nil
	}
	c.state = StateConnecting
	c.ready = newGate()
	c.genStop = make(chan struct{})
	c.userID = userID
	ready, genStop := c.ready, c.genStop
	c.mu.Unlock()

	ws, err := c.dial(ctx, userID)
	if err != nil {
		c.clearGeneration(genStop)
		ready.resolve(false)
		c.log.Error().Err(err).Msg("connect failed")
		return fmt.Errorf("realtime connect: %w", err)
	}

	c.adopt(ws, ready, genStop)
	c.log.Info().Str("user_id", userID).Msg("connected")
	return nil
}

// dial, tek bir WebSocket handshake'i yapar. Auth token query parameter
// olarak gider — WebSocket upgrade sırasında custom header gönderilemez.
func (c *Conn) dial(ctx context.Context, userID string) (*websocket.Conn, error) {
	q := url.Values{"userId": {userID}}
	if c.tokenFn != nil {
		if token := c.tokenFn(); token != "" {
			q.Set("token", token)
		}
	}

	dialer := websocket.Dialer{HandshakeTimeout: writeWait}
	ws, _, err := dialer.DialContext(ctx, c.url+"/ws?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// adopt, kurulan ws bağlantısını aktif hale getirir ve pump'ları başlatır.
func (c *Conn) adopt(ws *websocket.Conn, ready *gate, genStop chan struct{}) {
	c.mu.Lock()
	c.ws = ws
	c.state = StateConnected
	c.mu.Unlock()

	ready.resolve(true)

	go c.readPump(ws, genStop)
	go c.writePump(ws, genStop)
}

// clearGeneration, bağlantı kuramadan biten jenerasyonun izlerini siler.
// Sadece hâlâ güncel jenerasyonsa dokunur — bu arada Disconnect/Connect
// yeni bir jenerasyon başlatmışsa onu ezmeyiz.
func (c *Conn) clearGeneration(genStop chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genStop != genStop {
		return
	}
	c.genStop = nil
	c.ready = nil
	c.state = StateDisconnected
}

// State, bağlantının anlık durumunu döner.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitReady, bağlantı handshake'i tamamlanana kadar bekler.
// JoinRoom gibi "bağlantı hazır olmadan gönderilemez" işlemlerin
// poll'suz readiness sinyalidir.
func (c *Conn) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()

	if ready == nil {
		return fmt.Errorf("not connected")
	}
	return ready.wait(ctx)
}

// JoinRoom, conversation odasına katılma niyetini gönderir.
// Handshake tamamlanmamışsa tamamlanmasını bekler (ctx ile sınırlı) —
// sabit gecikmeli poll YOKTUR. Hata log'lanır ve döner; çağıran taraf
// genelde sadece log'lar (join kaçırmak ölümcül değildir, server
// user-stream'ini zaten otomatik bağlar).
func (c *Conn) JoinRoom(ctx context.Context, roomID string) error {
	if err := c.WaitReady(ctx); err != nil {
		c.log.Warn().Str("room_id", roomID).Err(err).Msg("join_room skipped, connection not ready")
		return err
	}

	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	c.emit(Event{Op: OpJoinRoom, Data: JoinRoomData{RoomID: roomID, UserID: userID}})
	return nil
}

// Send, typed bir mesaj event'i gönderir — teslimat onayı beklenmez.
func (c *Conn) Send(roomID, senderID, content string, msgType models.MessageType, localID string) {
	c.emit(Event{Op: OpSend, Data: SendMessageData{
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Type:     string(msgType),
		LocalID:  localID,
	}})
}

// Typing, "yazıyor" sinyali gönderir.
func (c *Conn) Typing(roomID, userID string) {
	c.emit(Event{Op: OpTyping, Data: TypingData{RoomID: roomID, UserID: userID, IsTyping: true}})
}

// EmitMarkRead, read-state değişikliğini diğer aktif oturumlara yayar —
// aynı hesapla açık ikinci bir tab kendi sayacını düşürebilsin.
func (c *Conn) EmitMarkRead(notificationID string) {
	c.mu.Lock()
	userID := c.userID
	c.mu.Unlock()

	c.emit(Event{Op: OpMarkRead, Data: MarkReadData{NotificationID: notificationID, UserID: userID}})
}

// OnReceive, inbound mesaj handler'ı kaydeder.
func (c *Conn) OnReceive(fn func(models.Message)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onReceive = append(c.onReceive, fn)
}

// OnTyping, typing indicator handler'ı kaydeder.
func (c *Conn) OnTyping(fn func(TypingData)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onTyping = append(c.onTyping, fn)
}

// OnNotification, push bildirimi handler'ı kaydeder
// (hem restaurant_notification hem new_notification için çağrılır).
func (c *Conn) OnNotification(fn func(models.Notification)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onNotification = append(c.onNotification, fn)
}

// OnUnreadCount, server'ın push'ladığı otoriter sayaç handler'ı kaydeder.
func (c *Conn) OnUnreadCount(fn func(int)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onUnread = append(c.onUnread, fn)
}

// Disconnect, bağlantıyı kapatır ve iç state'i sıfırlar.
// Sonraki Connect çağrısı sıfırdan yeni bir bağlantı kurar.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	ws := c.ws
	genStop := c.genStop
	c.ws = nil
	c.ready = nil
	c.genStop = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if genStop != nil {
		close(genStop)
	}
	if ws != nil {
		_ = ws.Close()
	}
	c.log.Info().Msg("disconnected")
}

// emit, event'i outbound buffer'a ekler. Buffer doluysa event düşer —
// push kanalı best-effort'tur, kritik yazmalar REST ile yapılır.
func (c *Conn) emit(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		c.log.Error().Str("op", event.Op).Err(err).Msg("failed to marshal outbound event")
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn().Str("op", event.Op).Msg("send buffer full, event dropped")
	}
}

// readPump, server'dan gelen event'leri okur ve dispatch eder.
// Bağlantı kopana kadar döngüde kalır; kopuşta reconnect'i tetikler.
func (c *Conn) readPump(ws *websocket.Conn, genStop chan struct{}) {
	defer func() {
		_ = ws.Close()
		c.handleDrop(ws, genStop)
	}()

	ws.SetReadLimit(maxMessageSize)
	if err := ws.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		c.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}

		// Her inbound event (heartbeat_ack dahil) deadline'ı yeniler.
		if err := ws.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.log.Warn().Err(err).Msg("invalid inbound event")
			continue
		}

		c.trackSeq(event.Seq)
		c.dispatch(event)
	}
}

// trackSeq, seq gap'lerini log'lar. Push kanalı exactly-once garanti
// etmez — gap tespiti sadece gözlemlenebilirlik içindir.
func (c *Conn) trackSeq(seq int64) {
	if seq == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSeq > 0 && seq > c.lastSeq+1 {
		c.log.Debug().Int64("expected", c.lastSeq+1).Int64("got", seq).Msg("event sequence gap")
	}
	if seq > c.lastSeq {
		c.lastSeq = seq
	}
}

// dispatch, inbound event'i op'una göre kayıtlı handler'lara dağıtır.
//
// event.Data tipi any'dir — doğrudan cast edilemez. json.Marshal +
// Unmarshal roundtrip'i payload'ı typed struct'a çevirmenin en güvenli yolu.
func (c *Conn) dispatch(event Event) {
	switch event.Op {
	case OpHeartbeatAck:
		// Deadline readPump'ta zaten yenilendi.

	case OpReceiveMessage:
		var msg models.Message
		if !decodeData(event.Data, &msg, c.log, event.Op) {
			return
		}
		c.handlerMu.RLock()
		handlers := c.onReceive
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(msg)
		}

	case OpUserTyping:
		var typing TypingData
		if !decodeData(event.Data, &typing, c.log, event.Op) {
			return
		}
		c.handlerMu.RLock()
		handlers := c.onTyping
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(typing)
		}

	case OpRestaurantNotif, OpNewNotification:
		var notif models.Notification
		if !decodeData(event.Data, &notif, c.log, event.Op) {
			return
		}
		c.handlerMu.RLock()
		handlers := c.onNotification
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(notif)
		}

	case OpUnreadNotifCount:
		var count UnreadCountData
		if !decodeData(event.Data, &count, c.log, event.Op) {
			return
		}
		c.handlerMu.RLock()
		handlers := c.onUnread
		c.handlerMu.RUnlock()
		for _, fn := range handlers {
			fn(count.Count)
		}

	default:
		c.log.Debug().Str("op", event.Op).Msg("unknown inbound op")
	}
}

// decodeData, any tipindeki event payload'ını typed struct'a çevirir.
func decodeData(data, out any, log zerolog.Logger, op string) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Warn().Str("op", op).Err(err).Msg("failed to re-encode event data")
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn().Str("op", op).Err(err).Msg("failed to decode event data")
		return false
	}
	return true
}

// writePump, outbound buffer'ı ws'e yazar ve periyodik heartbeat gönderir.
func (c *Conn) writePump(ws *websocket.Conn, genStop chan struct{}) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	heartbeat, _ := json.Marshal(Event{Op: OpHeartbeat})

	for {
		select {
		case <-genStop:
			c.writeMu.Lock()
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.CloseMessage, nil)
			c.writeMu.Unlock()
			return

		case <-ticker.C:
			if err := c.writeMessage(ws, heartbeat); err != nil {
				return
			}

		case data := <-c.send:
			if err := c.writeMessage(ws, data); err != nil {
				return
			}
		}
	}
}

// writeMessage, ws'e mutex korumalı tek bir text frame yazar.
func (c *Conn) writeMessage(ws *websocket.Conn, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

// handleDrop, kopan bağlantı için reconnect döngüsünü başlatır.
// Disconnect ile kapatılmışsa (genStop kapalı) reconnect YAPILMAZ.
func (c *Conn) handleDrop(ws *websocket.Conn, genStop chan struct{}) {
	select {
	case <-genStop:
		return // kasıtlı kapanış
	default:
	}

	c.mu.Lock()
	if c.ws != ws {
		// Bu jenerasyon zaten değişmiş — başka bir pump ilgilendi.
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.state = StateReconnecting
	c.ready = newGate()
	ready := c.ready
	userID := c.userID
	c.mu.Unlock()

	c.log.Warn().Msg("connection dropped, reconnecting")

	go func() {
		for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
			select {
			case <-genStop:
				return
			case <-time.After(reconnectDelay):
			}

			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			newWS, err := c.dial(ctx, userID)
			cancel()
			if err != nil {
				c.log.Warn().Int("attempt", attempt).Err(err).Msg("reconnect failed")
				continue
			}

			c.adopt(newWS, ready, genStop)
			c.log.Info().Int("attempt", attempt).Msg("reconnected")
			return
		}

		// Denemeler tükendi — sessizce pes et. UI "reconnecting"
		// göstergesinden "disconnected"a döner, hard fail yok.
		// Jenerasyon temizlenir ki sonraki Connect sıfırdan kurabilsin.
		c.clearGeneration(genStop)
		ready.resolve(false)
		c.log.Error().Int("attempts", maxReconnectAttempts).Msg("reconnect attempts exhausted, giving up")
	}()
}
