package models

import "time"

// CapacityOverview, doluluk ekranının özet objesi.
type CapacityOverview struct {
	RestaurantID  string  `json:"restaurantId"`
	TotalSeats    int     `json:"totalSeats"`
	BookedSeats   int     `json:"bookedSeats"`
	OccupancyRate float64 `json:"occupancyRate"` // 0..1
	Date          string  `json:"date"`          // "2026-08-29"
}

// CapacityWarning, backend'in ürettiği kapasite uyarısı
// (ör: "cumartesi akşamı %95 dolu").
type CapacityWarning struct {
	ID       string    `json:"_id"`
	Date     string    `json:"date"`
	Slot     string    `json:"slot,omitempty"` // "18:00-20:00"
	Severity string    `json:"severity"`       // "info", "warning", "critical"
	Message  string    `json:"message"`
	IssuedAt time.Time `json:"issuedAt,omitempty"`
}

// TimelineSlot, gün içi doluluk zaman çizelgesinin tek dilimi.
type TimelineSlot struct {
	Start    string `json:"start"` // "18:00"
	End      string `json:"end"`
	Booked   int    `json:"booked"`
	Capacity int    `json:"capacity"`
}

// UpdateCapacityRequest, toplam kapasite güncelleme payload'ı.
type UpdateCapacityRequest struct {
	TotalSeats int `json:"totalSeats" validate:"gte=1,lte=5000"`
}

// Validate, UpdateCapacityRequest'i client tarafında doğrular.
func (r *UpdateCapacityRequest) Validate() error {
	return validateStruct(r)
}
