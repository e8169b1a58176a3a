// Package realtime, backend push transport'una açılan WebSocket client'ını barındırır.
//
// Mimari:
// - Conn: tek kalıcı bağlantı (kullanıcı başına bir tane) + reconnect
// - Event: client-server arası iletilen mesaj formatı
// - Handler kayıtları: inbound event'ler op'a göre dispatch edilir
//
// Event akışı (inbound):
// 1. Backend bir push event yayınlar (yeni mesaj, yeni bildirim...)
// 2. Conn'un read pump'ı event'i okur ve op'a göre kayıtlı handler'lara dağıtır
// 3. Handler'lar (chat / notification service) in-memory view state'i günceller
//
// Event akışı (outbound):
// send_message, join_room, typing, mark_notification_read — hepsi
// fire-and-forget: UI teslimat onayı beklemez, optimistic echo ayrı uygulanır.
package realtime

// Event, WebSocket üzerinden iletilen bir mesajı temsil eder.
//
// Op (operation): Event türü — "receive_message", "heartbeat" vb.
// Data: Event'e özgü payload.
// Seq: Server'ın outbound event'lere verdiği artan sayı; client eksik
// event tespiti için takip edebilir (şimdilik sadece log'lanır).
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server operasyonları
const (
	OpHeartbeat = "heartbeat"  // 30sn'de bir — "hâlâ bağlıyım" sinyali
	OpJoinRoom  = "join_room"  // conversation odasına katılma niyeti
	OpSend      = "send_message"
	OpTyping    = "typing"
	OpMarkRead  = "mark_notification_read" // read-state'i diğer oturumlara yay
)

// Server → Client operasyonları
const (
	OpHeartbeatAck     = "heartbeat_ack"
	OpReceiveMessage   = "receive_message"
	OpUserTyping       = "user_typing"
	OpRestaurantNotif  = "restaurant_notification"
	OpNewNotification  = "new_notification"
	OpUnreadNotifCount = "unread_notification_count"
)

// JoinRoomData, join_room event'inin payload'ı.
type JoinRoomData struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// SendMessageData, send_message event'inin payload'ı.
type SendMessageData struct {
	RoomID   string `json:"roomId"`
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
	Type     string `json:"type"`    // "text", "image", "file"
	LocalID  string `json:"localId"` // optimistic echo eşleştirmesi için
}

// TypingData, typing / user_typing event'lerinin payload'ı.
type TypingData struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// MarkReadData, mark_notification_read event'inin payload'ı.
type MarkReadData struct {
	NotificationID string `json:"notificationId"`
	UserID         string `json:"userId"`
}

// UnreadCountData, unread_notification_count event'inin payload'ı.
// Backend zaman zaman otoriter sayacı push'lar — client kendi türetilmiş
// sayacını bununla karşılaştırıp log'lar (source of truth backend'dedir).
type UnreadCountData struct {
	Count int `json:"count"`
}
