// Package store, client'ın durable key-value storage'ını yönetir.
//
// Dashboard'un persist ettiği state küçüktür: token, refresh token,
// user kaydı (JSON) ve aktif restaurant id. Yine de düz dosya yerine
// SQLite kullanılır:
//   - WAL modunda birden fazla process aynı dosyayı güvenle paylaşır
//     (aynı hesapla açılmış ikinci bir "tab"/process senaryosu)
//   - updated_at kolonu sayesinde dışarıdan yapılan değişiklikler
//     watcher tarafından gözlemlenebilir (bkz. watcher.go)
//   - schema_migrations tablosu ile persist edilen shape versiyonlanır
//
// modernc.org/sqlite pure-Go driver'dır — CGO gerekmez, her platformda çalışır.
package store

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/akay/lokanta/pkg/crypto"
)

// SchemaVersion, persist edilen kv shape'inin sürümü.
// Shape değişirse artırılır; Restore eski sürümü boş storage gibi okur
// (migration denemek yerine — kayıp sadece "tekrar login" demektir).
const SchemaVersion = "1"

// Store, SQLite bağlantısını ve opsiyonel at-rest şifreleme anahtarını sarar.
// *sql.DB Go'nun built-in connection pool'udur — thread-safe'dir.
type Store struct {
	conn *sql.DB
	log  zerolog.Logger

	// cipherKey: token değerlerinin at-rest şifrelemesi için AES anahtarı.
	// nil ise değerler düz metin saklanır (development).
	cipherKey []byte

	// watcher state — bkz. watcher.go
	watchMu   sync.Mutex
	watchers  map[int]chan ChangeEvent
	watchSeq  int
	stopWatch chan struct{}
	watchOnce sync.Once
	stopOnce  sync.Once
}

// Open, SQLite storage'ı açar, migration'ları çalıştırır ve schema
// versiyonunu yazar. secret boş değilse token anahtarları bu secret'tan
// türetilen anahtarla şifrelenir.
func Open(path string, secret string, log zerolog.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// "_pragma=foreign_keys(1)" → FK constraint'leri aktif (SQLite'ta varsayılan kapalı)
	// "_pragma=journal_mode(WAL)" → eşzamanlı okuma/yazma; ikinci process
	// aynı dosyayı okurken yazma bloklanmaz
	// "_pragma=busy_timeout(5000)" → kilitli dosyada 5sn'ye kadar bekle
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping storage: %w", err)
	}

	s := &Store{
		conn:      conn,
		log:       log,
		watchers:  make(map[int]chan ChangeEvent),
		stopWatch: make(chan struct{}),
	}

	if secret != "" {
		key, err := crypto.DeriveKey(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to derive storage key: %w", err)
		}
		s.cipherKey = key
	}

	if err := s.runMigrations(migrationsFS()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.writeSchemaVersion(); err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Msg("storage opened")
	return s, nil
}

// Close, watcher'ı durdurur ve bağlantıyı kapatır.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopWatch) })

	s.watchMu.Lock()
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
	s.watchMu.Unlock()

	return s.conn.Close()
}

// writeSchemaVersion, schema_version key'ini (yoksa) yazar.
// Var olan farklı bir sürümün üstüne YAZMAZ — Restore tarafı uyumsuz
// sürümü görüp storage'ı boş kabul eder, veri sessizce bozulmaz.
func (s *Store) writeSchemaVersion() error {
	current, err := s.Get(KeySchemaVersion)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	return s.Set(KeySchemaVersion, SchemaVersion)
}

// runMigrations, migrations/ dizinindeki SQL dosyalarını sırayla çalıştırır.
// Dosya isimleri sıralıdır: 001_init.sql, 002_... — schema_migrations
// tablosu hangi migration'ların uygulandığını takip eder, böylece
// idempotent olmayan komutlar tekrar çalıştırılmaz.
func (s *Store) runMigrations(migrations fs.FS) error {
	if _, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrations, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied := make(map[string]bool)
	rows, err := s.conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate migration rows: %w", err)
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrations, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		// Statement-by-statement çalıştır — SQLite Exec() her statement'ı
		// ayrı autocommit'te çalıştırır, yarım kalan migration'da hangi
		// statement'ın patladığını bilmek isteriz.
		for i, stmt := range splitStatements(string(content)) {
			if _, err := s.conn.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute migration %s (statement %d): %w", file, i+1, err)
			}
		}

		if _, err := s.conn.Exec(
			"INSERT INTO schema_migrations (filename) VALUES (?)", file,
		); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		s.log.Debug().Str("migration", file).Msg("migration applied")
	}

	return nil
}

// splitStatements, SQL metnini statement'lara böler.
// Noktalı virgül (;) ile ayırır ama string literal'lerin içindeki
// noktalı virgülleri (tek tırnak ile çevrili) yoksayar.
func splitStatements(sqlText string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	for i := 0; i < len(sqlText); i++ {
		ch := sqlText[i]

		if ch == '\'' {
			// '' escape'i handle et
			if inString && i+1 < len(sqlText) && sqlText[i+1] == '\'' {
				current.WriteByte(ch)
				current.WriteByte(sqlText[i+1])
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
