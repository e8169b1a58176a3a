package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/akay/lokanta/models"
)

// profileResponse, restaurant endpoint'lerinin ortak yanıt zarfı.
// Restaurant null olabilir — yeni hesapta henüz profil yoktur;
// bu durumda flow restaurant-creation view'ına gider.
type profileResponse struct {
	User       *models.User       `json:"user,omitempty"`
	Restaurant *models.Restaurant `json:"restaurant"`
}

// GetProfile, aktif kullanıcının restoran profilini getirir.
// Restaurant nil dönebilir — bu bir hata DEĞİLDİR (profil henüz oluşturulmamış).
func (c *Client) GetProfile(ctx context.Context) (*models.Restaurant, error) {
	var resp profileResponse
	if err := c.do(ctx, http.MethodGet, "/restaurant/profile", nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Restaurant, nil
}

// CreateProfile, yeni restoran profili oluşturur.
func (c *Client) CreateProfile(ctx context.Context, req models.ProfileRequest) (*models.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := c.do(ctx, http.MethodPost, "/restaurant", nil, req, &resp, true); err != nil {
		return nil, err
	}
	return resp.Restaurant, nil
}

// UpdateProfile, mevcut profili günceller.
func (c *Client) UpdateProfile(ctx context.Context, req models.ProfileRequest) (*models.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := c.do(ctx, http.MethodPut, "/restaurant/profile", nil, req, &resp, true); err != nil {
		return nil, err
	}
	return resp.Restaurant, nil
}

// RevenueOverview, gelir özetini getirir. month opsiyoneldir ("2026-08").
func (c *Client) RevenueOverview(ctx context.Context, restaurantID, month string) (*models.RevenueOverview, error) {
	q := url.Values{"restaurantId": {restaurantID}}
	if month != "" {
		q.Set("month", month)
	}

	var overview models.RevenueOverview
	if err := c.do(ctx, http.MethodGet, "/restaurant/revenue-overview", q, nil, &overview, true); err != nil {
		return nil, err
	}
	return &overview, nil
}

// BillingInfo, fatura bilgilerini getirir.
func (c *Client) BillingInfo(ctx context.Context, restaurantID string) (*models.BillingInfo, error) {
	q := url.Values{"restaurantId": {restaurantID}}

	var info models.BillingInfo
	if err := c.do(ctx, http.MethodGet, "/restaurant/billing-info", q, nil, &info, true); err != nil {
		return nil, err
	}
	return &info, nil
}

// Invoices, fatura listesini getirir.
func (c *Client) Invoices(ctx context.Context, restaurantID string) ([]models.Invoice, error) {
	q := url.Values{"restaurantId": {restaurantID}}

	var invoices []models.Invoice
	if err := c.do(ctx, http.MethodGet, "/restaurant/invoices", q, nil, &invoices, true); err != nil {
		return nil, err
	}
	return invoices, nil
}
