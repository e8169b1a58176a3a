// Package api, backend REST API'sine giden tüm çağrıları sarar.
//
// Her domain ekranının kendi resource dosyası vardır (auth, restaurant,
// deals, templates, capacity, notifications) — hepsi bu dosyadaki ortak
// Client üzerinden geçer. Ortak Client şunları garanti eder:
//
//   - Her korumalı request hem "Authorization: Bearer <t>" hem de ham
//     "x-access-token: <t>" header'ı taşır (backend iki convention'dan
//     herhangi birini okuyabilir)
//   - Her hata, backend'in hata zarfı çözülerek pkg.APIError'a normalize
//     edilir — view katmanına asla ham HTTP hatası sızmaz
//   - 401 alan korumalı bir çağrı, TEK bir refresh denemesi yapar ve
//     request'i bir kez tekrarlar. Eşzamanlı 401'ler aynı refresh'i
//     paylaşır (single-flight). Refresh de başarısızsa kayıtlı
//     onTokenExpired callback'i tetiklenir — "token expired" sinyali.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/akay/lokanta/models"
	"github.com/akay/lokanta/pkg"
	"github.com/akay/lokanta/pkg/i18n"
)

// TokenSource, Client'ın her request'te güncel token çiftini okuduğu callback.
// Session service kaydeder — Client token state'inin sahibi DEĞİLDİR.
type TokenSource func() (accessToken, refreshToken string)

// Client, backend REST API client'ı.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu             sync.RWMutex
	tokenSource    TokenSource
	onTokenExpired func()
	onRefreshed    func(models.Session)

	// refreshing: devam eden refresh denemesi. nil değilse yeni 401'ler
	// kendi refresh'lerini başlatmak yerine bunun bitmesini bekler.
	refreshMu  sync.Mutex
	refreshing *refreshAttempt
}

// refreshAttempt, tam bir kez çözülen refresh "gate"idir.
// done kapandığında sonuç (sess/err) okunabilir durumdadır.
type refreshAttempt struct {
	done chan struct{}
	sess models.Session
	err  error
}

// NewClient, constructor.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetTokenSource, token çiftini sağlayan callback'i kaydeder.
func (c *Client) SetTokenSource(src TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokenSource = src
}

// OnTokenExpired, refresh denemesi de tükendiğinde çağrılacak callback'i kaydeder.
func (c *Client) OnTokenExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTokenExpired = fn
}

// OnRefreshed, interceptor'ın aldığı yeni session'ı persist etmesi için
// session service'in kaydettiği callback.
func (c *Client) OnRefreshed(fn func(models.Session)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefreshed = fn
}

// WaitRefresh, devam eden bir refresh varsa bitmesini bekler.
//
// Route guard'ın "grace period" problemi budur: guard tam refresh
// sırasında çalışırsa storage'da henüz yeni token yoktur. Sabit bir
// bekleme süresi yerine guard bu gate'i bekler — refresh yoksa anında
// döner, varsa bittiği anda döner. Keyfi timing sabiti kalmaz.
func (c *Client) WaitRefresh(ctx context.Context) error {
	c.refreshMu.Lock()
	attempt := c.refreshing
	c.refreshMu.Unlock()

	if attempt == nil {
		return nil
	}

	select {
	case <-attempt.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tokens, kayıtlı token source'tan güncel çifti okur.
func (c *Client) tokens() (string, string) {
	c.mu.RLock()
	src := c.tokenSource
	c.mu.RUnlock()
	if src == nil {
		return "", ""
	}
	return src()
}

// do, tek bir REST çağrısını çalıştırır.
//
// authed=true ise token header'ları eklenir ve 401 yanıtı refresh
// interceptor'ından geçer. out nil değilse başarılı yanıt JSON decode edilir.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	if err := c.doOnce(ctx, method, path, query, body, out, authed); err != nil {
		// Sadece korumalı çağrıların 401'i refresh tetikler.
		if authed && isUnauthorized(err) {
			if refreshErr := c.refreshTokens(ctx); refreshErr != nil {
				return refreshErr
			}
			// Yeni token ile tek tekrar — ikinci 401 olduğu gibi döner.
			return c.doOnce(ctx, method, path, query, body, out, authed)
		}
		return err
	}
	return nil
}

// doOnce, interceptor'sız tek bir HTTP round-trip.
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return pkg.NewAPIError(0, i18n.T("errors.encodeRequest"))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return pkg.NewAPIError(0, i18n.T("errors.badRequest"))
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		access, _ := c.tokens()
		if access != "" {
			// Backend'lerin bir kısmı Bearer convention'ı, bir kısmı ham
			// header okur — ikisini de gönderiyoruz.
			req.Header.Set("Authorization", "Bearer "+access)
			req.Header.Set("x-access-token", access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("method", method).Str("path", path).Err(err).Msg("request failed")
		return pkg.NewAPIError(0, i18n.T("errors.network"))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return normalizeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkg.NewAPIError(0, i18n.T("errors.decodeResponse"))
		}
	}
	return nil
}

// refreshTokens, single-flight token refresh.
// İlk gelen goroutine refresh'i çalıştırır, diğerleri sonucu paylaşır.
func (c *Client) refreshTokens(ctx context.Context) error {
	c.refreshMu.Lock()
	if attempt := c.refreshing; attempt != nil {
		c.refreshMu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	attempt := &refreshAttempt{done: make(chan struct{})}
	c.refreshing = attempt
	c.refreshMu.Unlock()

	attempt.sess, attempt.err = c.runRefresh(ctx)

	c.refreshMu.Lock()
	c.refreshing = nil
	c.refreshMu.Unlock()
	close(attempt.done)

	return attempt.err
}

// runRefresh, refresh endpoint'ini çağırır ve sonucu session service'e iletir.
func (c *Client) runRefresh(ctx context.Context) (models.Session, error) {
	_, refresh := c.tokens()
	if refresh == "" {
		c.signalExpired()
		return models.Session{}, fmt.Errorf("%w: no refresh token", pkg.ErrTokenExpired)
	}

	var sess models.Session
	err := c.doOnce(ctx, http.MethodPost, "/refresh-token", nil,
		map[string]string{"refreshToken": refresh}, &sess, false)
	if err != nil {
		c.log.Info().Err(err).Msg("token refresh failed, session expired")
		c.signalExpired()
		return models.Session{}, fmt.Errorf("%w: refresh failed", pkg.ErrTokenExpired)
	}

	c.mu.RLock()
	onRefreshed := c.onRefreshed
	c.mu.RUnlock()
	if onRefreshed != nil {
		onRefreshed(sess)
	}

	c.log.Debug().Msg("access token refreshed")
	return sess, nil
}

// signalExpired, "token expired" sinyalini tetikler.
func (c *Client) signalExpired() {
	c.mu.RLock()
	fn := c.onTokenExpired
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// isUnauthorized, normalize edilmiş error'un 401 olup olmadığını söyler.
func isUnauthorized(err error) bool {
	apiErr, ok := err.(*pkg.APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// errorEnvelope, backend'in iki farklı hata zarfını da karşılar:
// {"success":false,"error":"..."} veya {"message":"..."}.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// normalizeError, 4xx/5xx yanıtı pkg.APIError'a çevirir.
func normalizeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var env errorEnvelope
	_ = json.Unmarshal(data, &env)

	message := env.Error
	if message == "" {
		message = env.Message
	}
	return pkg.NewAPIError(resp.StatusCode, message)
}
