// Package i18n, kullanıcıya gösterilen metinlerin çoklu dil desteğini sağlar.
//
// Dashboard'un kendi ürettiği mesajlar (form validation hataları, network
// hata fallback'leri) kullanıcının diline göre döner. Backend'den gelen
// hata mesajları olduğu gibi gösterilir — onların dili backend'in işidir.
//
// Dil, uygulama açılışında config'ten bir kez set edilir (SetLanguage);
// sonrasında sadece okunur.
//
// Kullanım:
//
//	i18n.T("errors.network")
//	// → "Ağ hatası, lütfen bağlantınızı kontrol edin"
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

// SupportedLanguages — desteklenen dil kodları.
var SupportedLanguages = []string{"en", "tr"}

// DefaultLanguage — varsayılan dil.
const DefaultLanguage = "en"

// translations, tüm dil çevirilerini bellekte tutan harita.
// map[lang]map[key]value formatında. init'te embedded dosyalardan
// yüklenir, sonra sadece okunur — thread-safe.
var (
	translations map[string]map[string]string
	loadOnce     sync.Once

	langMu   sync.RWMutex
	language = DefaultLanguage
)

func init() {
	sub, err := fs.Sub(EmbeddedLocales, "locales")
	if err != nil {
		panic("i18n: locales not embedded: " + err.Error())
	}
	if err := load(sub); err != nil {
		panic("i18n: " + err.Error())
	}
}

// load, çeviri dosyalarını fs'ten yükler.
// Her dil için bir JSON dosyası beklenir: en.json, tr.json.
//
// sync.Once nedir?
// Bir fonksiyonun programın ömrü boyunca sadece BİR KERE çalışmasını garanti eder.
// Birden fazla goroutine aynı anda çağırsa bile sadece biri çalışır, diğerleri bekler.
func load(localesFS fs.FS) error {
	var loadErr error

	loadOnce.Do(func() {
		translations = make(map[string]map[string]string)

		for _, lang := range SupportedLanguages {
			fileName := lang + ".json"

			data, err := fs.ReadFile(localesFS, fileName)
			if err != nil {
				loadErr = fmt.Errorf("failed to read translation file %s: %w", fileName, err)
				return
			}

			// Nested JSON'u flat key'lere dönüştür: {"errors": {"network": "..."}} → "errors.network"
			var nested map[string]any
			if err := json.Unmarshal(data, &nested); err != nil {
				loadErr = fmt.Errorf("failed to parse translation file %s: %w", fileName, err)
				return
			}

			flat := make(map[string]string)
			flattenMap("", nested, flat)
			translations[lang] = flat
		}
	})

	return loadErr
}

// SetLanguage, aktif dili değiştirir. Desteklenmeyen dil yok sayılır —
// varsayılan dil devrede kalır.
func SetLanguage(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !isSupported(lang) {
		return
	}
	langMu.Lock()
	language = lang
	langMu.Unlock()
}

// Language, aktif dil kodunu döner.
func Language() string {
	langMu.RLock()
	defer langMu.RUnlock()
	return language
}

// T, çeviri anahtarına karşılık gelen metni aktif dilde döner.
// Anahtar bulunamazsa → İngilizce'ye düşer.
// İngilizce'de de yoksa → anahtarın kendisini döner.
// Eksik çeviri hiçbir zaman boş string göstermez.
func T(key string) string {
	lang := Language()

	if msg, ok := translations[lang][key]; ok {
		return msg
	}
	if msg, ok := translations[DefaultLanguage][key]; ok {
		return msg
	}
	return key
}

// Tf, parametreli çeviri: template fmt.Sprintf ile doldurulur.
//
// Örnek:
//
//	i18n.Tf("validation.min", "password", "6")
//	→ "password must be at least 6 characters"
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

// ─── Helpers ───

func isSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// flattenMap, nested JSON'u "dot notation" key'lere dönüştürür.
// {"errors": {"network": "..."}} → {"errors.network": "..."}
func flattenMap(prefix string, src map[string]any, dst map[string]string) {
	for k, v := range src {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			dst[key] = val
		case map[string]any:
			flattenMap(key, val, dst)
		}
	}
}
