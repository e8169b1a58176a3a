package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/akay/lokanta/models"
)

// ListDeals, restoran deal'lerini filtreyle listeler.
func (c *Client) ListDeals(ctx context.Context, restaurantID string, filter models.DealFilter) ([]models.Deal, error) {
	q := url.Values{"restaurantId": {restaurantID}}
	if filter.ActiveOnly {
		q.Set("active", "true")
	}
	if !filter.From.IsZero() {
		q.Set("from", filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		q.Set("to", filter.To.Format(time.RFC3339))
	}

	var deals []models.Deal
	if err := c.do(ctx, http.MethodGet, "/deal", q, nil, &deals, true); err != nil {
		return nil, err
	}
	return deals, nil
}

// CreateDeal, yeni bir deal yayınlar.
func (c *Client) CreateDeal(ctx context.Context, restaurantID string, req models.DealRequest) (*models.Deal, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := struct {
		models.DealRequest
		RestaurantID string `json:"restaurantId"`
	}{req, restaurantID}

	var deal models.Deal
	if err := c.do(ctx, http.MethodPost, "/deal", nil, payload, &deal, true); err != nil {
		return nil, err
	}
	return &deal, nil
}
