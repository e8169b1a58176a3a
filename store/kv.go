package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/akay/lokanta/pkg/crypto"
)

// Persist edilen key'ler: oturum üçlüsü + restoran seçimi + schema versiyonu.
const (
	KeySchemaVersion = "schema_version"
	KeyToken         = "token"
	KeyRefreshToken  = "refresh_token"
	KeyUser          = "user"
	KeyRestaurantID  = "restaurant_id"
)

// encryptedKeys, at-rest şifreleme uygulanan key'ler.
// User kaydı ve restaurant id hassas değildir — sadece token çifti şifrelenir.
var encryptedKeys = map[string]bool{
	KeyToken:        true,
	KeyRefreshToken: true,
}

// Get, bir key'in değerini okur. Key yoksa ("", nil) döner —
// "yok" bu storage'da bir hata değildir, logout olmuş state'tir.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.conn.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %s: %w", key, err)
	}

	if encryptedKeys[key] && s.cipherKey != nil {
		plain, err := crypto.Decrypt(value, s.cipherKey)
		if err != nil {
			// Yanlış STORAGE_KEY veya bozuk veri — değeri yok say.
			// Kullanıcı tekrar login olur; bozuk token'la devam etmekten iyidir.
			s.log.Warn().Str("key", key).Err(err).Msg("stored value could not be decrypted, treating as empty")
			return "", nil
		}
		return plain, nil
	}

	return value, nil
}

// Set, bir key'in değerini yazar (upsert). Şifrelenen key'ler cipher
// anahtarı varsa şifrelenir.
func (s *Store) Set(key, value string) error {
	if encryptedKeys[key] && s.cipherKey != nil {
		enc, err := crypto.Encrypt(value, s.cipherKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt key %s: %w", key, err)
		}
		value = enc
	}

	_, err := s.conn.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete, bir key'i siler. Var olmayan key için no-op.
func (s *Store) Delete(key string) error {
	if _, err := s.conn.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Clear, schema_version dışındaki tüm key'leri siler.
// Logout'un storage karşılığı: token, refresh token, user, restaurant id
// tek seferde gider; versiyon kaydı kalır.
func (s *Store) Clear() error {
	if _, err := s.conn.Exec("DELETE FROM kv WHERE key != ?", KeySchemaVersion); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}
