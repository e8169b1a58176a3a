package realtime

import (
	"context"
	"fmt"
	"sync"
)

// gate, "A işlemini ancak P koşulu sağlandıktan sonra yap" problemini
// çözen, tam bir kez çözülen readiness sinyalidir.
//
// Eski dashboard'larda bu ihtiyaç poll-with-backoff ile karşılanır
// (bağlantı state'ini 20 denemeye kadar artan gecikmeyle yokla).
// Bu disguised bir race condition'dır: timing sabitleri keyfidir ve
// yavaş ağda yanlış negatif üretir. gate bunun yerine açık bir state
// machine'dir: {pending, ready, failed} — bekleyenler channel üzerinden
// tam çözülme anında uyanır, keyfi bekleme sabiti kalmaz.
type gate struct {
	once   sync.Once
	done   chan struct{}
	failed bool
}

func newGate() *gate {
	return &gate{done: make(chan struct{})}
}

// resolve, gate'i ready (ok=true) veya failed (ok=false) olarak çözer.
// İkinci ve sonraki çağrılar no-op — sinyal tam bir kez verilir.
func (g *gate) resolve(ok bool) {
	g.once.Do(func() {
		g.failed = !ok
		close(g.done)
	})
}

// wait, gate çözülene veya ctx iptal olana kadar bekler.
func (g *gate) wait(ctx context.Context) error {
	select {
	case <-g.done:
		if g.failed {
			return fmt.Errorf("connection handshake failed")
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
