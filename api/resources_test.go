package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/models"
)

func TestListNotificationsQuery(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":       true,
			"notifications": []models.Notification{{ID: "n1"}},
		})
	}))

	items, err := client.ListNotifications(context.Background(), 2, 25, true)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "n1" {
		t.Errorf("items = %+v", items)
	}

	if gotQuery.Get("page") != "2" || gotQuery.Get("limit") != "25" || gotQuery.Get("unreadOnly") != "true" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestListNotificationsRejectedEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))

	if _, err := client.ListNotifications(context.Background(), 1, 10, false); err == nil {
		t.Error("expected error for success=false envelope")
	}
}

func TestMarkNotificationReadPath(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	if err := client.MarkNotificationRead(context.Background(), "n-7"); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/notifications/n-7/read" {
		t.Errorf("request = %s %s", gotMethod, gotPath)
	}
}

func TestListDealsFilterQuery(t *testing.T) {
	var gotQuery url.Values
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode([]models.Deal{})
	}))

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.ListDeals(context.Background(), "rest-1", models.DealFilter{
		ActiveOnly: true,
		From:       from,
	})
	if err != nil {
		t.Fatalf("ListDeals failed: %v", err)
	}

	if gotQuery.Get("restaurantId") != "rest-1" {
		t.Errorf("restaurantId = %q", gotQuery.Get("restaurantId"))
	}
	if gotQuery.Get("active") != "true" {
		t.Errorf("active = %q", gotQuery.Get("active"))
	}
	if gotQuery.Get("from") != from.Format(time.RFC3339) {
		t.Errorf("from = %q", gotQuery.Get("from"))
	}
	if gotQuery.Has("to") {
		t.Error("zero To leaked into query")
	}
}

func TestGetProfileNilRestaurant(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"restaurant":null}`))
	}))

	restaurant, err := client.GetProfile(context.Background())
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if restaurant != nil {
		t.Errorf("restaurant = %+v, want nil", restaurant)
	}
}

func TestValidationShortCircuitsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached backend despite invalid payload")
	}))
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, time.Second, zerolog.Nop())

	// StartsAt olmadan deal oluşturulamaz — network'e çıkmadan reddedilir.
	if _, err := client.CreateDeal(context.Background(), "rest-1", models.DealRequest{}); err == nil {
		t.Error("expected validation error")
	}
}
