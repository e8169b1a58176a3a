package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/akay/lokanta/models"
	"github.com/akay/lokanta/pkg"
)

// notificationsResponse, GET /notifications yanıt zarfı.
type notificationsResponse struct {
	Success       bool                  `json:"success"`
	Notifications []models.Notification `json:"notifications"`
}

// ListNotifications, bildirim sayfasını getirir.
// unreadOnly=true sadece okunmamışları ister.
func (c *Client) ListNotifications(ctx context.Context, page, limit int, unreadOnly bool) ([]models.Notification, error) {
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	if unreadOnly {
		q.Set("unreadOnly", "true")
	}

	var resp notificationsResponse
	if err := c.do(ctx, http.MethodGet, "/notifications", q, nil, &resp, true); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, pkg.NewAPIError(0, "notification list request rejected")
	}
	return resp.Notifications, nil
}

// MarkNotificationRead, tek bir bildirimi okundu işaretler.
// Optimistic local update'in REST onayıdır — çağıran taraf hatada
// local flip'i geri alır.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodPatch, "/notifications/"+id+"/read", nil, nil, &resp, true); err != nil {
		return err
	}
	if !resp.Success {
		return pkg.NewAPIError(0, "mark read request rejected")
	}
	return nil
}
