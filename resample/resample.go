// Package resample converts interleaved PCM16 audio between sample rates and
// channel layouts using a polyphase FIR filter bank designed from a
// Kaiser-windowed sinc prototype.
//
// The rational ratio L/M is reduced from the output and input rates; one
// low-pass filter of length baseTaps*L is sliced into L phase sub-filters of
// baseTaps coefficients each, so every output frame costs a single short
// convolution against a per-channel delay line.
package resample

import (
	"errors"
	"math"
)

// Defaults used by callers that have no reason to tune filter quality.
const (
	DefaultTaps = 32
	DefaultBeta = 8.6
)

var (
	ErrBadRate     = errors.New("resample: sample rates must be positive")
	ErrBadChannels = errors.New("resample: channel counts must be positive")
	ErrBadTaps     = errors.New("resample: base taps must be positive")
	ErrFrameAlign  = errors.New("resample: input length must be a multiple of the channel count")
)

// Resampler is a stateful streaming converter. It is not safe for concurrent
// use; a stream owns exactly one.
type Resampler struct {
	l, m  int // interpolation / decimation factors, gcd-reduced
	inCh  int
	outCh int
	taps  int // coefficients per phase

	phases [][]float64 // l sub-filters, stored for direct convolution
	delay  [][]float64 // one circular line per input channel
	dpos   int         // index of the most recent frame in the delay lines
	phase  int         // accumulator; consumes input while >= l
	conv   []float64   // scratch: one convolved value per input channel

	flushed bool
}

// New builds a resampler from inRate/inCh interleaved PCM16 to outRate/outCh.
// baseTaps controls filter length (and so quality and latency); beta is the
// Kaiser window shape parameter.
func New(inRate, outRate, inCh, outCh, baseTaps int, beta float64) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, ErrBadRate
	}
	if inCh <= 0 || outCh <= 0 {
		return nil, ErrBadChannels
	}
	if baseTaps <= 0 {
		return nil, ErrBadTaps
	}
	g := gcd(outRate, inRate)
	r := &Resampler{
		l:     outRate / g,
		m:     inRate / g,
		inCh:  inCh,
		outCh: outCh,
		taps:  baseTaps,
		conv:  make([]float64, inCh),
	}
	r.phases = design(r.l, r.m, baseTaps, beta)
	r.delay = make([][]float64, inCh)
	for c := range r.delay {
		r.delay[c] = make([]float64, baseTaps)
	}
	r.dpos = baseTaps - 1
	return r, nil
}

// Ratio reports the reduced interpolation and decimation factors.
func (r *Resampler) Ratio() (l, m int) { return r.l, r.m }

// Taps reports the number of coefficients per phase, which is also the
// delay-line length and the settling time in input frames.
func (r *Resampler) Taps() int { return r.taps }

// SetFractionalPhase aligns the first output to a sub-sample position within
// the next input frame. frac is in [0, 1); it is quantized to the nearest of
// the l filter phases. Call before pushing any input.
func (r *Resampler) SetFractionalPhase(frac float64) {
	p := int(math.Round(frac*float64(r.l))) % r.l
	if p < 0 {
		p += r.l
	}
	r.phase = p
}

// Reset clears all streaming state so the resampler can be reused for a new
// pass over the same rates and layout.
func (r *Resampler) Reset() {
	for c := range r.delay {
		clear(r.delay[c])
	}
	r.dpos = r.taps - 1
	r.phase = 0
	r.flushed = false
}

// Process converts in (interleaved PCM16 frames) and appends the produced
// output frames to out, returning the extended slice. State is retained
// between calls: input that does not yet yield output stays in the delay
// lines. Calling Process with empty input flushes the remaining buffered
// state; further empty calls are no-ops.
func (r *Resampler) Process(in []int16, out []int16) ([]int16, error) {
	if len(in) == 0 {
		return r.flush(out), nil
	}
	if len(in)%r.inCh != 0 {
		return out, ErrFrameAlign
	}
	frames := len(in) / r.inCh
	pos := 0
	for {
		for r.phase >= r.l {
			if pos >= frames {
				return out, nil
			}
			r.shift(in[pos*r.inCh:])
			pos++
			r.phase -= r.l
		}
		out = r.emit(out)
		r.phase += r.m
	}
}

// flush pushes one delay line's worth of silence through the filter so the
// tail of the signal drains, then marks the stream finished.
func (r *Resampler) flush(out []int16) []int16 {
	if r.flushed {
		return out
	}
	r.flushed = true
	for i := 0; i < r.taps; i++ {
		for r.phase >= r.l {
			r.shiftZero()
			r.phase -= r.l
		}
		out = r.emit(out)
		r.phase += r.m
	}
	return out
}

// shift pushes the leading frame of in into the delay lines.
func (r *Resampler) shift(in []int16) {
	r.dpos++
	if r.dpos == r.taps {
		r.dpos = 0
	}
	for c := 0; c < r.inCh; c++ {
		r.delay[c][r.dpos] = float64(in[c]) / 32768
	}
}

func (r *Resampler) shiftZero() {
	r.dpos++
	if r.dpos == r.taps {
		r.dpos = 0
	}
	for c := 0; c < r.inCh; c++ {
		r.delay[c][r.dpos] = 0
	}
}

// emit convolves the current phase against every input channel's delay line,
// maps the result onto the output layout and appends the quantized frame.
func (r *Resampler) emit(out []int16) []int16 {
	coefs := r.phases[r.phase]
	for c := 0; c < r.inCh; c++ {
		line := r.delay[c]
		acc := 0.0
		idx := r.dpos
		for k := 0; k < r.taps; k++ {
			acc += coefs[k] * line[idx]
			idx--
			if idx < 0 {
				idx = r.taps - 1
			}
		}
		r.conv[c] = acc
	}
	// Source channels replicate cyclically when the output has more.
	for c := 0; c < r.outCh; c++ {
		out = append(out, quantize(r.conv[c%r.inCh]))
	}
	return out
}

// quantize maps a normalized float sample to PCM16, rounding half away from
// zero and clamping.
func quantize(v float64) int16 {
	s := math.Round(v * 32768)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
