package models

import "time"

// NotificationType, bildirimin türü.
// Go'da enum yoktur, bunun yerine typed constant'lar kullanılır.
type NotificationType string

const (
	NotificationTypeMessage NotificationType = "message" // yeni chat mesajı
	NotificationTypeBooking NotificationType = "booking" // yeni rezervasyon
	NotificationTypeDeal    NotificationType = "deal"    // deal onayı/red
	NotificationTypeSystem  NotificationType = "system"  // genel duyuru
)

// Notification, kullanıcıya gösterilen tek bir bildirim.
//
// Source of truth backend'dedir; client sadece sıralı (en yeni önce)
// bir cache tutar. IsRead false→true yönünde tek sefer değişir,
// asla geri dönmez.
type Notification struct {
	ID           string           `json:"_id"`
	Type         NotificationType `json:"type"`
	Title        string           `json:"title"`
	Message      string           `json:"message"`
	IsRead       bool             `json:"isRead"`
	CreatedAt    time.Time        `json:"createdAt"`
	RestaurantID string           `json:"restaurantId,omitempty"`
	ActionID     string           `json:"actionId,omitempty"` // ilgili deal/booking/conversation
}

// IsMessage, bildirim "unread messages" alt sayacına dahil mi?
func (n *Notification) IsMessage() bool {
	return n.Type == NotificationTypeMessage
}
