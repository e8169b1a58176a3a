package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/models"
	"github.com/akay/lokanta/pkg"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop()), srv
}

func TestAuthHeadersBothConventions(t *testing.T) {
	var gotBearer, gotRaw string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBearer = r.Header.Get("Authorization")
		gotRaw = r.Header.Get("x-access-token")
		_, _ = w.Write([]byte(`{}`))
	}))

	client.SetTokenSource(func() (string, string) { return "tok-123", "ref-123" })

	if err := client.do(context.Background(), http.MethodGet, "/x", nil, nil, nil, true); err != nil {
		t.Fatalf("do failed: %v", err)
	}

	if gotBearer != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotBearer, "Bearer tok-123")
	}
	if gotRaw != "tok-123" {
		t.Errorf("x-access-token = %q, want %q", gotRaw, "tok-123")
	}
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		message  string
	}{
		{"error envelope", http.StatusNotFound, `{"success":false,"error":"deal not found"}`, pkg.ErrNotFound, "deal not found"},
		{"message envelope", http.StatusBadRequest, `{"message":"invalid payload"}`, pkg.ErrBadRequest, "invalid payload"},
		{"unparseable body", http.StatusConflict, `<html>oops</html>`, pkg.ErrConflict, ""},
		{"server error", http.StatusBadGateway, `{}`, pkg.ErrUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			err := client.do(context.Background(), http.MethodGet, "/x", nil, nil, nil, false)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not match sentinel %v", err, tt.sentinel)
			}

			var apiErr *pkg.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is not APIError: %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if tt.message != "" && apiErr.Message != tt.message {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.message)
			}
		})
	}
}

func TestNetworkErrorIsUnavailable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 500*time.Millisecond, zerolog.Nop())

	err := client.do(context.Background(), http.MethodGet, "/x", nil, nil, nil, false)
	if !errors.Is(err, pkg.ErrUnavailable) {
		t.Errorf("network error %v does not map to ErrUnavailable", err)
	}
}

func TestRefreshRetriesOnce(t *testing.T) {
	var refreshCalls, protectedCalls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/refresh-token":
			refreshCalls.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refreshToken"] != "ref-old" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(models.Session{AccessToken: "tok-new", RefreshToken: "ref-new"})
		case "/protected":
			protectedCalls.Add(1)
			if r.Header.Get("x-access-token") != "tok-new" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"expired"}`))
				return
			}
			_, _ = w.Write([]byte(`{}`))
		}
	}))

	var mu sync.Mutex
	access, refresh := "tok-old", "ref-old"
	client.SetTokenSource(func() (string, string) {
		mu.Lock()
		defer mu.Unlock()
		return access, refresh
	})
	client.OnRefreshed(func(sess models.Session) {
		mu.Lock()
		defer mu.Unlock()
		access, refresh = sess.AccessToken, sess.RefreshToken
	})

	if err := client.do(context.Background(), http.MethodGet, "/protected", nil, nil, nil, true); err != nil {
		t.Fatalf("do failed: %v", err)
	}

	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	// İlk çağrı 401, refresh sonrası tek tekrar.
	if got := protectedCalls.Load(); got != 2 {
		t.Errorf("protected calls = %d, want 2", got)
	}
}

func TestRefreshFailureSignalsExpired(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))

	var expired atomic.Bool
	client.SetTokenSource(func() (string, string) { return "tok", "ref" })
	client.OnTokenExpired(func() { expired.Store(true) })

	err := client.do(context.Background(), http.MethodGet, "/protected", nil, nil, nil, true)
	if !errors.Is(err, pkg.ErrTokenExpired) {
		t.Errorf("error %v does not match ErrTokenExpired", err)
	}
	if !expired.Load() {
		t.Error("onTokenExpired not called")
	}
}

func TestConcurrentRefreshIsSingleFlight(t *testing.T) {
	var refreshCalls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/refresh-token":
			refreshCalls.Add(1)
			time.Sleep(100 * time.Millisecond) // eşzamanlı 401'ler biriksin
			_ = json.NewEncoder(w).Encode(models.Session{AccessToken: "tok-new", RefreshToken: "ref-new"})
		default:
			if r.Header.Get("x-access-token") != "tok-new" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		}
	}))

	var mu sync.Mutex
	access, refresh := "tok-old", "ref-old"
	client.SetTokenSource(func() (string, string) {
		mu.Lock()
		defer mu.Unlock()
		return access, refresh
	})
	client.OnRefreshed(func(sess models.Session) {
		mu.Lock()
		defer mu.Unlock()
		access, refresh = sess.AccessToken, sess.RefreshToken
	})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.do(context.Background(), http.MethodGet, "/protected", nil, nil, nil, true)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1 (single-flight)", got)
	}
}

func TestWaitRefreshReturnsWhenIdle(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.WaitRefresh(ctx); err != nil {
		t.Errorf("WaitRefresh = %v, want nil when no refresh in flight", err)
	}
}

func TestLoginRejectsMissingToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Session{User: models.User{ID: "u1"}})
	}))

	_, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.c", Password: "secret1"})
	if err == nil {
		t.Fatal("expected error for missing access token")
	}
}
