package audio

import (
	"math"
	"sync/atomic"
)

// gain is a volume multiplier readable from the real-time callback without
// locks. Values are clamped to [0, 2].
type gain struct {
	bits atomic.Uint32
}

func (g *gain) set(v float32) {
	if v < 0 {
		v = 0
	}
	if v > 2 {
		v = 2
	}
	g.bits.Store(math.Float32bits(v))
}

func (g *gain) get() float32 {
	return math.Float32frombits(g.bits.Load())
}
