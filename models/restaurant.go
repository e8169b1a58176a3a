package models

import "time"

// Restaurant, yönetilen restoranın profil kaydı.
// Backend bazı endpoint'lerde Mongo-style "_id" döner — ikisi de map'lenir.
type Restaurant struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city,omitempty"`
	Cuisine     string    `json:"cuisine,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Description string    `json:"description,omitempty"`
	OpeningTime string    `json:"openingTime,omitempty"`
	ClosingTime string    `json:"closingTime,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// ProfileRequest, restoran profili oluşturma/güncelleme formu.
type ProfileRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Address     string `json:"address" validate:"required,max=240"`
	City        string `json:"city" validate:"max=80"`
	Cuisine     string `json:"cuisine" validate:"max=80"`
	Phone       string `json:"phone" validate:"max=32"`
	Description string `json:"description" validate:"max=1000"`
	OpeningTime string `json:"openingTime" validate:"omitempty,len=5"`
	ClosingTime string `json:"closingTime" validate:"omitempty,len=5"`
}

// Validate, ProfileRequest'i client tarafında doğrular.
func (r *ProfileRequest) Validate() error {
	return validateStruct(r)
}
