// Package sfx maps stable identifiers to preloaded sound effects. A JSON
// registry (sfx.json) names each effect and its variations; Load decodes
// every referenced file into the engine cache up front so gameplay never
// decodes on a hot path.
package sfx

import (
	"math/rand/v2"
	"time"

	"github.com/stepfever/gameaudio/audio"
)

var loaded map[Id]*Sound

// Sound is one logical effect with weighted variations. Playing it picks one
// variation at random, respecting per-sound and per-variation throttling.
type Sound struct {
	Id         Id
	ThrottleMs int
	Variations []*Variant

	lastPlayed time.Time
}

// Variant is one concrete audio file behind a Sound.
type Variant struct {
	Path       string
	Weight     float64
	ThrottleMs int

	lastPlayed time.Time
}

func (s *Sound) play() bool {
	if len(s.Variations) == 0 {
		return false
	}
	if time.Since(s.lastPlayed) <= time.Duration(s.ThrottleMs)*time.Millisecond {
		return false
	}

	candidates := make([]*Variant, 0, len(s.Variations))
	weightSum := 0.0
	for _, v := range s.Variations {
		if time.Since(v.lastPlayed) > time.Duration(v.ThrottleMs)*time.Millisecond {
			candidates = append(candidates, v)
			weightSum += v.Weight
		}
	}
	if len(candidates) == 0 {
		return false
	}

	// Roulette pick; rounding residue lands on the last candidate.
	pick := rand.Float64() * weightSum
	v := candidates[len(candidates)-1]
	for _, c := range candidates[:len(candidates)-1] {
		if pick <= c.Weight {
			v = c
			break
		}
		pick -= c.Weight
	}
	audio.PlaySfx(v.Path)
	now := time.Now()
	v.lastPlayed = now
	s.lastPlayed = now
	return true
}
