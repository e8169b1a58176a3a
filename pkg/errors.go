// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını ve backend hata zarfının
// normalize edilmiş halini içerir.
//
// Go'da error'lar basit değerlerdir (string taşıyan struct'lar).
// errors.New() ile sabit error değişkenleri tanımlarız.
// Böylece error karşılaştırması string yerine referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrUnauthorized) { ... }
//
// Bu, typo'ya açık string karşılaştırmasından çok daha güvenlidir.
package pkg

import (
	"errors"
	"fmt"

	"github.com/akay/lokanta/pkg/i18n"
)

// Domain-level error'lar.
// API wrapper katmanı backend yanıtlarını bu error'lara map'ler,
// service katmanı errors.Is ile yakalar.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("service unavailable")
	ErrInternal     = errors.New("internal error")

	// ErrTokenExpired, refresh denemesi de tükendiğinde üretilen
	// "oturum süresi doldu" sinyalidir. Session service bu error'u
	// yakalayıp tüm local state'i temizler ve login'e yönlendirir.
	ErrTokenExpired = errors.New("token expired")
)

// APIError, backend'den dönen hatanın normalize edilmiş hali.
//
// Backend hata zarfı tutarlı değildir: bazen {"success":false,"error":"..."},
// bazen {"message":"..."} döner. API katmanı ikisini de çözüp tek bir
// APIError üretir — üst katmanlar hiçbir zaman ham HTTP yanıtı görmez.
type APIError struct {
	Status  int    // HTTP status code (network hatasında 0)
	Message string // kullanıcıya gösterilebilir mesaj
}

// Error, error interface implementasyonu.
func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Unwrap, APIError'u status code'una göre domain error'una bağlar.
// Böylece errors.Is(err, pkg.ErrUnauthorized) gibi kontroller
// APIError üzerinden de çalışır.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 0, 502, 503, 504:
		return ErrUnavailable
	default:
		return ErrInternal
	}
}

// NewAPIError, normalize edilmiş bir API error oluşturur.
// message boşsa status'a göre lokalize bir fallback kullanılır —
// kullanıcı her zaman anlamlı bir mesaj görür, boş hata yüzeye çıkmaz.
func NewAPIError(status int, message string) *APIError {
	if message == "" {
		message = fallbackMessage(status)
	}
	return &APIError{Status: status, Message: message}
}

// fallbackMessage, mesaj taşımayan hatalar için status bazlı lokalize metin.
func fallbackMessage(status int) string {
	switch status {
	case 400:
		return i18n.T("errors.badRequest")
	case 401:
		return i18n.T("errors.unauthorized")
	case 403:
		return i18n.T("errors.forbidden")
	case 404:
		return i18n.T("errors.notFound")
	case 409:
		return i18n.T("errors.conflict")
	case 0:
		return i18n.T("errors.network")
	case 502, 503, 504:
		return i18n.T("errors.unavailable")
	default:
		return i18n.T("errors.internal")
	}
}
