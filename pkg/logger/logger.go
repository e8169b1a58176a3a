// Package logger, zerolog tabanlı structured logging kurulumunu yapar.
//
// Neden zerolog?
// Standart log paketi düz metin üretir — production'da log'ları parse etmek
// (hangi kullanıcı, hangi component, hangi hata?) zordur. zerolog her satırı
// JSON olarak üretir ve allocation yapmadan field ekler:
//
//	log.Info().Str("component", "realtime").Msg("connected")
//	→ {"level":"info","component":"realtime","message":"connected"}
//
// Her subsystem kendi logger'ını "component" field'ı ile alır — tek bir
// global logger yerine, constructor'lara değer olarak geçirilir.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New, root logger'ı oluşturur.
//
// level: "debug", "info", "warn", "error" (bilinmeyen değer → info)
// pretty: true ise insan-okunur console çıktısı (development),
// false ise satır başına bir JSON objesi (production).
func New(level string, pretty bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// For, component field'ı eklenmiş bir child logger döner.
// Her paket kendi adıyla loglar: For(root, "session"), For(root, "realtime")...
func For(root zerolog.Logger, component string) zerolog.Logger {
	return root.With().Str("component", component).Logger()
}

// parseLevel, string log seviyesini zerolog.Level'a çevirir.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
