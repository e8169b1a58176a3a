package models

import "time"

// Deal, bir restoranın yayınladığı indirim kampanyası.
type Deal struct {
	ID           string    `json:"_id"`
	RestaurantID string    `json:"restaurantId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Discount     int       `json:"discount"` // yüzde
	StartsAt     time.Time `json:"startsAt"`
	EndsAt       time.Time `json:"endsAt"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// DealRequest, deal oluşturma formu.
type DealRequest struct {
	Title       string    `json:"title" validate:"required,max=120"`
	Description string    `json:"description" validate:"max=600"`
	Discount    int       `json:"discount" validate:"gte=1,lte=100"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

// Validate, DealRequest'i client tarafında doğrular.
func (r *DealRequest) Validate() error {
	return validateStruct(r)
}

// DealFilter, deal listeleme sorgusunun parametreleri.
// Zero value "filtre yok" demektir — sadece dolu alanlar query'ye eklenir.
type DealFilter struct {
	ActiveOnly bool
	From       time.Time
	To         time.Time
}
