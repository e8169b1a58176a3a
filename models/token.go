package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims, backend'in verdiği JWT access token'ının payload'ı.
//
// Client token'ı İMZA DOĞRULAMADAN parse eder — secret backend'dedir,
// client'ın işi sadece exp claim'inden token ömrünü okumaktır.
// Güvenlik kararı değildir: token'ı backend zaten her request'te doğrular,
// client sadece "refresh'i ne zaman tetiklemeliyim" bilgisine bakar.
type TokenClaims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseAccessTokenExpiry, access token'ın exp claim'ini okur.
// Token parse edilemiyorsa veya exp taşımıyorsa error döner —
// çağıran taraf bu durumda expiry timer'ı kurmaz, refresh'i 401'e bırakır.
func ParseAccessTokenExpiry(token string) (time.Time, error) {
	claims := &TokenClaims{}
	parser := jwt.NewParser()

	// ParseUnverified: imza kontrolü YOK — sadece payload decode edilir.
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("access token has no exp claim")
	}

	return claims.ExpiresAt.Time, nil
}
