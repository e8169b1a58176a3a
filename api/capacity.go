package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/akay/lokanta/models"
)

// CapacityOverview, verilen günün doluluk özetini getirir (date: "2026-08-29").
func (c *Client) CapacityOverview(ctx context.Context, restaurantID, date string) (*models.CapacityOverview, error) {
	q := url.Values{"restaurantId": {restaurantID}, "date": {date}}

	var overview models.CapacityOverview
	if err := c.do(ctx, http.MethodGet, "/capacity/overview", q, nil, &overview, true); err != nil {
		return nil, err
	}
	return &overview, nil
}

// CapacityWarnings, verilen tarih aralığındaki kapasite uyarılarını getirir.
func (c *Client) CapacityWarnings(ctx context.Context, restaurantID, from, to string) ([]models.CapacityWarning, error) {
	q := url.Values{"restaurantId": {restaurantID}, "from": {from}, "to": {to}}

	var warnings []models.CapacityWarning
	if err := c.do(ctx, http.MethodGet, "/capacity/warnings", q, nil, &warnings, true); err != nil {
		return nil, err
	}
	return warnings, nil
}

// CapacityTimeline, gün içi doluluk zaman çizelgesini getirir.
func (c *Client) CapacityTimeline(ctx context.Context, restaurantID, date string) ([]models.TimelineSlot, error) {
	q := url.Values{"restaurantId": {restaurantID}, "date": {date}}

	var slots []models.TimelineSlot
	if err := c.do(ctx, http.MethodGet, "/capacity/timeline", q, nil, &slots, true); err != nil {
		return nil, err
	}
	return slots, nil
}

// UpdateCapacity, toplam koltuk kapasitesini günceller.
func (c *Client) UpdateCapacity(ctx context.Context, restaurantID string, req models.UpdateCapacityRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, "/capacity/"+restaurantID, nil, req, nil, true)
}
