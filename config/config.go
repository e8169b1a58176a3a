// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Config struct'ı tüm ayarları tek bir yerde toplar, böylece
// her yerde ayrı ayrı os.Getenv() çağırmak yerine tek bir Config nesnesi taşırız.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — Single Responsibility: her struct tek bir concern'ü temsil eder.
type Config struct {
	API      APIConfig
	Realtime RealtimeConfig
	Storage  StorageConfig
	Log      LogConfig
	// Language, kullanıcıya gösterilen mesajların dili ("en" | "tr").
	Language string
}

// APIConfig, backend REST API ayarları.
type APIConfig struct {
	BaseURL string        // REST endpoint'i (ör: https://api.example.com)
	Timeout time.Duration // her request için üst sınır
}

// RealtimeConfig, WebSocket push transport ayarları.
// REST ve realtime endpoint'leri bağımsız konfigüre edilir —
// production'da genelde farklı host'larda yaşarlar.
type RealtimeConfig struct {
	URL string // ör: wss://push.example.com
}

// StorageConfig, local SQLite key-value storage ayarları.
type StorageConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/lokanta.db)
	// Key, token'ların at-rest şifrelemesi için secret.
	// Boş bırakılırsa token'lar düz metin saklanır (development).
	Key string
}

// LogConfig, logging ayarları.
type LogConfig struct {
	Level  string // debug | info | warn | error
	Pretty bool   // true → console writer (development)
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	// Production'da bu dosya olmaz, gerçek env variable'lar kullanılır.
	_ = godotenv.Load()

	baseURL := getEnv("API_BASE_URL", "")
	if baseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL environment variable is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid API_BASE_URL: %q", baseURL)
	}

	timeoutSec, err := strconv.Atoi(getEnv("HTTP_TIMEOUT_SECONDS", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS: %w", err)
	}

	// Realtime URL verilmemişse REST host'undan türet (http→ws, https→wss).
	realtimeURL := getEnv("REALTIME_URL", "")
	if realtimeURL == "" {
		scheme := "ws"
		if parsed.Scheme == "https" {
			scheme = "wss"
		}
		realtimeURL = fmt.Sprintf("%s://%s", scheme, parsed.Host)
	}

	pretty, err := strconv.ParseBool(getEnv("LOG_PRETTY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: baseURL,
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		Realtime: RealtimeConfig{
			URL: realtimeURL,
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", "./data/lokanta.db"),
			Key:  getEnv("STORAGE_KEY", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: pretty,
		},
		Language: getEnv("LANGUAGE", "en"),
	}

	return cfg, nil
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
