package models

import "time"

// RevenueOverview, gelir ekranının aggregate objesi.
// Hesaplama tamamen backend'de yapılır — client sadece render eder.
type RevenueOverview struct {
	RestaurantID string  `json:"restaurantId"`
	Month        string  `json:"month,omitempty"` // "2026-08"
	Total        float64 `json:"total"`
	DealRevenue  float64 `json:"dealRevenue"`
	BookingCount int     `json:"bookingCount"`
	Currency     string  `json:"currency"`
}

// BillingInfo, fatura/ödeme bilgileri.
type BillingInfo struct {
	RestaurantID string `json:"restaurantId"`
	CompanyName  string `json:"companyName"`
	TaxID        string `json:"taxId,omitempty"`
	IBAN         string `json:"iban,omitempty"`
	Plan         string `json:"plan"` // "basic", "premium", ...
}

// Invoice, tek bir fatura kaydı.
type Invoice struct {
	ID       string    `json:"_id"`
	Number   string    `json:"number"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"` // "paid", "open", "overdue"
	IssuedAt time.Time `json:"issuedAt"`
	DueAt    time.Time `json:"dueAt,omitempty"`
}
