package store

import (
	"fmt"
	"time"
)

// ChangeEvent, kv tablosunda gözlemlenen bir değişikliktir.
// Removed=true → key silinmiş (başka bir process logout yapmış olabilir).
type ChangeEvent struct {
	Key     string
	Removed bool
}

// watchPollInterval: dış değişiklik tarama aralığı.
// Tarayıcıdaki "storage" event'inin karşılığı bizde yok — aynı SQLite
// dosyasını kullanan ikinci bir process'in yazdığını ancak poll ederek
// görebiliriz. 500ms, "başka tab'da logout" senaryosu için fazlasıyla hızlı.
const watchPollInterval = 500 * time.Millisecond

// Watch, kv değişikliklerini taşıyan bir channel döner.
// İkinci dönen değer aboneliği iptal eder — owning component unmount
// olduğunda çağrılmalıdır, yoksa channel sızar.
//
// Not: kendi process'imizin yazdığı değişiklikler de event üretir.
// Dinleyiciler idempotent olmalıdır (ör: token silme event'ine iki kez
// tepki vermek zararsızdır).
func (s *Store) Watch() (<-chan ChangeEvent, func()) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	// İlk abone poll goroutine'ini başlatır.
	s.watchOnce.Do(func() {
		go s.pollLoop()
	})

	s.watchSeq++
	id := s.watchSeq
	ch := make(chan ChangeEvent, 16)
	s.watchers[id] = ch

	cancel := func() {
		s.watchMu.Lock()
		defer s.watchMu.Unlock()
		if c, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(c)
		}
	}

	return ch, cancel
}

// pollLoop, kv tablosunun snapshot'ını periyodik karşılaştırır
// ve farkları abonelere dağıtır.
func (s *Store) pollLoop() {
	snapshot, err := s.snapshot()
	if err != nil {
		s.log.Error().Err(err).Msg("watcher initial snapshot failed")
		snapshot = map[string]int64{}
	}

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopWatch:
			return
		case <-ticker.C:
			current, err := s.snapshot()
			if err != nil {
				s.log.Error().Err(err).Msg("watcher snapshot failed")
				continue
			}

			// Silinen key'ler
			for key := range snapshot {
				if _, ok := current[key]; !ok {
					s.fanout(ChangeEvent{Key: key, Removed: true})
				}
			}
			// Yeni veya güncellenen key'ler
			for key, ts := range current {
				if prev, ok := snapshot[key]; !ok || prev != ts {
					s.fanout(ChangeEvent{Key: key})
				}
			}

			snapshot = current
		}
	}
}

// snapshot, kv tablosunun key → updated_at görüntüsünü alır.
func (s *Store) snapshot() (map[string]int64, error) {
	rows, err := s.conn.Query("SELECT key, updated_at FROM kv")
	if err != nil {
		return nil, fmt.Errorf("failed to query kv snapshot: %w", err)
	}
	defer rows.Close()

	snap := make(map[string]int64)
	for rows.Next() {
		var key string
		var ts int64
		if err := rows.Scan(&key, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		snap[key] = ts
	}
	return snap, rows.Err()
}

// fanout, event'i tüm abonelere gönderir. Yavaş abone bloklamaz —
// buffer doluysa event düşer (watcher best-effort bir sinyaldir,
// source of truth her zaman storage'ın kendisidir).
func (s *Store) fanout(ev ChangeEvent) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	for _, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}
