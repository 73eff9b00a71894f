package internal

import (
	"math/rand"
	"sync"
	"time"
)

// Non-crypto rng for watch-loop jitter only. Key generation has its own
// entropy source on the Prober.
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func randInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	rngMu.Lock()
	v := rng.Int63n(n)
	rngMu.Unlock()
	return v
}
