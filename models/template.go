package models

import "time"

// Template, tekrar kullanılabilir "hot deal" şablonu.
// Deal'den farkı: template yayınlanmaz, deal üretmek için saklanır.
type Template struct {
	ID           string    `json:"_id"`
	RestaurantID string    `json:"restaurantId"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Discount     int       `json:"discount"`
	Recurrence   string    `json:"recurrence,omitempty"` // "daily", "weekly", ...
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitempty"`
}

// TemplateRequest, template oluşturma/güncelleme formu.
type TemplateRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"max=600"`
	Discount    int    `json:"discount" validate:"gte=1,lte=100"`
	Recurrence  string `json:"recurrence" validate:"omitempty,oneof=daily weekly monthly"`
}

// Validate, TemplateRequest'i client tarafında doğrular.
func (r *TemplateRequest) Validate() error {
	return validateStruct(r)
}

// TemplatePatch, partial update payload'ı.
// Pointer field'lar nil ise o alan değiştirilmez.
type TemplatePatch struct {
	Name        *string `json:"name,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Discount    *int    `json:"discount,omitempty"`
	Recurrence  *string `json:"recurrence,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}
