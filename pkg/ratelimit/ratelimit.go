// Package ratelimit — Throttle: outbound sinyallerin debounce edilmesi.
//
// Realtime kanalından giden bazı event'ler her tuş vuruşunda üretilebilir
// (typing göstergesi gibi). Hepsini göndermek hem bant genişliği israfıdır
// hem de server tarafında spam'dir. Throttle, key başına sliding window
// ile "bu pencere içinde en fazla N emit" kuralını uygular.
//
// Tasarım:
// - Her key (ör: oda id'si) için window içinde emit sayısı takip edilir.
// - Window süresi dolunca sayaç sıfırlanır (yeni pencere başlar).
// - Background goroutine ile süresi dolmuş bucket'lar temizlenir (memory leak engeli).
//
// Neden in-memory?
// Throttle tamamen local bir karardır — persist edilecek bir şey yok.
// sync.RWMutex ile thread-safe: RLock okuma, Lock yazma.
//
// Neden ayrı paket?
// Hiçbir proje içi pakete bağımlı değildir (leaf dependency) —
// services ↔ realtime arasında import cycle oluşturmadan ikisinden de
// kullanılabilir.
package ratelimit

import (
	"sync"
	"time"
)

// bucket, bir key için emit sayacı ve window başlangıç zamanı tutar.
//
// Sliding window algoritması:
// - İlk emit geldiğinde windowStart = now, count = 1.
// - Sonraki emit'ler: windowStart + window süresi geçmemişse count++.
// - Süre geçmişse window sıfırlanır (yeni pencere başlar).
type bucket struct {
	count       int
	windowStart time.Time
}

// Throttle, key bazlı outbound sinyal sınırlayıcı.
//
// maxEmits: Bir window içinde izin verilen maksimum emit sayısı.
// window: Pencere süresi (örn: 2 saniye).
//
// Kullanım:
//
//	throttle := ratelimit.NewThrottle(1, 2*time.Second)
//	// Typing sinyali göndermeden önce:
//	if throttle.Allow(roomID) { transport.Typing(roomID, userID) }
type Throttle struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxEmits    int
	window      time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewThrottle, yeni throttle oluşturur ve arka plan temizleme
// goroutine'ini başlatır.
func NewThrottle(maxEmits int, window time.Duration) *Throttle {
	t := &Throttle{
		buckets:     make(map[string]*bucket),
		maxEmits:    maxEmits,
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	// Background cleanup — süresi dolmuş bucket'ları temizler.
	// Uzun oturumlarda ziyaret edilmiş her oda için bucket birikmesin.
	go t.cleanupLoop()

	return t
}

// Allow, verilen key için emit'e izin verilip verilmediğini söyler.
//
// true: Sinyal gönderilebilir (limit aşılmadı).
// false: Pencere dolu → caller sinyali sessizce düşürmeli.
func (t *Throttle) Allow(key string) bool {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	b, exists := t.buckets[key]
	if !exists {
		t.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	// Window süresi dolmuş mu?
	if now.Sub(b.windowStart) > t.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= t.maxEmits
}

// Reset, key'in sayacını sıfırlar — bir sonraki emit anında geçer.
func (t *Throttle) Reset(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.buckets, key)
}

// Close, temizleme goroutine'ini durdurur.
func (t *Throttle) Close() {
	t.stopOnce.Do(func() { close(t.stopCleanup) })
}

// cleanupLoop, arka planda süresi dolmuş bucket'ları temizler.
func (t *Throttle) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stopCleanup:
			return
		}
	}
}

// cleanup, süresi dolmuş tüm bucket'ları siler.
func (t *Throttle) cleanup() {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for key, b := range t.buckets {
		if now.Sub(b.windowStart) > t.window {
			delete(t.buckets, key)
		}
	}
}
