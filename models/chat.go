package models

import "time"

// MessageType, mesaj içeriğinin türü.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// DeliveryState, optimistic olarak eklenen bir mesajın durumu.
//
// Optimistic update'in takip edilebilir olması için her local mesaj
// pending → confirmed (veya failed) geçişi yaşar. Böylece server'dan
// onayı gelmemiş bir mesaj, onaylanmış mesajdan ayırt edilebilir —
// sessizce diverge eden state yerine görünür bir durum.
type DeliveryState string

const (
	DeliveryPending   DeliveryState = "pending"
	DeliveryConfirmed DeliveryState = "confirmed"
	DeliveryFailed    DeliveryState = "failed"
)

// Conversation, bir chat odasının listede görünen hali.
type Conversation struct {
	RoomID      string    `json:"roomId"`
	Name        string    `json:"name"`
	LastPreview string    `json:"lastPreview,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message, tek bir chat mesajı. Client açısından append-only —
// düzenleme/silme yok.
//
// ID backend'in atadığı kalıcı kimliktir; LocalID ise optimistic echo
// için client'ın ürettiği uuid. Push kanalından dönen mesaj LocalID
// üzerinden pending kaydıyla eşleştirilir.
type Message struct {
	ID       string        `json:"_id,omitempty"`
	LocalID  string        `json:"localId,omitempty"`
	RoomID   string        `json:"roomId"`
	SenderID string        `json:"senderId"`
	Content  string        `json:"content"`
	Type     MessageType   `json:"type"`
	SentAt   time.Time     `json:"sentAt"`
	Delivery DeliveryState `json:"-"` // sadece local state, wire'a çıkmaz
	Mine     bool          `json:"-"` // senderId == session user id
}
