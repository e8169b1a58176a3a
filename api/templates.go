package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/akay/lokanta/models"
)

// ListTemplates, hot-deal şablonlarını listeler.
func (c *Client) ListTemplates(ctx context.Context, restaurantID string) ([]models.Template, error) {
	q := url.Values{"restaurantId": {restaurantID}}

	var templates []models.Template
	if err := c.do(ctx, http.MethodGet, "/templates", q, nil, &templates, true); err != nil {
		return nil, err
	}
	return templates, nil
}

// CreateTemplate, yeni şablon oluşturur.
func (c *Client) CreateTemplate(ctx context.Context, restaurantID string, req models.TemplateRequest) (*models.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := struct {
		models.TemplateRequest
		RestaurantID string `json:"restaurantId"`
	}{req, restaurantID}

	var tmpl models.Template
	if err := c.do(ctx, http.MethodPost, "/templates", nil, payload, &tmpl, true); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// UpdateTemplate, şablonun tamamını günceller (PUT).
func (c *Client) UpdateTemplate(ctx context.Context, id string, req models.TemplateRequest) (*models.Template, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var tmpl models.Template
	if err := c.do(ctx, http.MethodPut, "/templates/"+id, nil, req, &tmpl, true); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// PatchTemplate, şablonda partial update yapar (PATCH) —
// sadece dolu (non-nil) alanlar gönderilir.
func (c *Client) PatchTemplate(ctx context.Context, id string, patch models.TemplatePatch) (*models.Template, error) {
	var tmpl models.Template
	if err := c.do(ctx, http.MethodPatch, "/templates/"+id, nil, patch, &tmpl, true); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// DeleteTemplate, şablonu siler.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/templates/"+id, nil, nil, nil, true)
}
