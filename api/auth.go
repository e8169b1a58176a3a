package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/akay/lokanta/models"
	"github.com/akay/lokanta/pkg"
	"github.com/akay/lokanta/pkg/i18n"
)

// Login, authentication endpoint'ini çağırır.
// Başarıda token çifti + user döner; hata normalize edilmiş olarak gelir.
// State mutation YAPMAZ — persist etmek session service'in işi.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.Session, error) {
	var sess models.Session
	if err := c.do(ctx, http.MethodPost, "/authenticate", nil, req, &sess, false); err != nil {
		return models.Session{}, err
	}

	if sess.AccessToken == "" {
		return models.Session{}, pkg.NewAPIError(0, "login response missing access token")
	}
	return sess, nil
}

// Logout, backend'e oturum kapatma niyetini bildirir.
// Refresh token "x-auth-token" header'ında gider (backend convention'ı).
// Çağıran taraf bu hatayı yutar — logout fire-and-forget'tir.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user/logout", nil)
	if err != nil {
		return pkg.NewAPIError(0, i18n.T("errors.badRequest"))
	}
	if refreshToken != "" {
		req.Header.Set("x-auth-token", refreshToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkg.NewAPIError(0, i18n.T("errors.network"))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return normalizeError(resp)
	}

	// {message} yanıtı bilgi amaçlı — içeriğine ihtiyacımız yok ama
	// debug log'da görmek faydalı.
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		c.log.Debug().Str("message", body.Message).Msg("logout acknowledged")
	}
	return nil
}
