// Package crypto — AES-256-GCM şifreleme/çözümleme fonksiyonları.
//
// Access/refresh token gibi hassas değerleri local storage'da (SQLite)
// şifrelenmiş saklamak için kullanılır. Disk'e düz metin token yazmak,
// makineyi paylaşan herkesin oturumu çalabilmesi demektir.
//
// AES-256-GCM nedir?
// - AES-256: 256-bit anahtar ile şifreleme (symmetric encryption)
// - GCM (Galois/Counter Mode): hem gizlilik hem bütünlük sağlar (authenticated encryption)
// - Nonce: her şifreleme için rastgele üretilen 12-byte değer — aynı key ile bile
//   her ciphertext farklı olur
//
// Kullanım:
//   key, _ := crypto.DeriveKey("uygulama-secret'ı")
//   encrypted, _ := crypto.Encrypt("token...", key)
//   decrypted, _ := crypto.Decrypt(encrypted, key)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey, verilen secret'tan HKDF-SHA256 ile 32-byte AES-256 anahtarı türetir.
//
// HKDF nedir?
// "HMAC-based Key Derivation Function" — keyfi uzunluktaki bir secret'tan
// kriptografik olarak güvenli, sabit uzunlukta anahtar üretir.
// Secret'ı doğrudan anahtar olarak kullanmak yerine türetmek,
// secret formatından (uzunluk, entropi dağılımı) bağımsızlık sağlar.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("storage secret must not be empty")
	}

	h := hkdf.New(sha256.New, []byte(secret), nil, []byte("lokanta-storage-v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("hkdf key derivation: %w", err)
	}
	return key, nil
}

// Encrypt, plaintext'i AES-256-GCM ile şifreler.
// Dönen string base64-encoded: nonce (12 byte) + ciphertext + auth tag.
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	// Nonce: her şifreleme için rastgele 12-byte değer (GCM standardı).
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation: %w", err)
	}

	// Seal: nonce prefix'i + ciphertext + authentication tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt, AES-256-GCM ile şifrelenmiş base64 string'i çözer.
func Decrypt(encoded string, key []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open (decryption failed — wrong key or corrupted data): %w", err)
	}

	return string(plaintext), nil
}
