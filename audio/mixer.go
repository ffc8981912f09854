package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/stepfever/gameaudio/ring"
)

const (
	// maxVoices bounds the number of simultaneously playing sound effects.
	maxVoices = 64
	// sfxQueueSize is the intake capacity between the command loop and the
	// callback; senders drop rather than block when it is full.
	sfxQueueSize = 64
)

// voice is one in-flight sound effect playback: a shared immutable buffer and
// a cursor into it.
type voice struct {
	data []int16
	pos  int
}

// mixer renders device audio. Fill runs on the platform driver's thread at
// its own cadence and must not allocate, lock or block: it drains the music
// ring, ingests newly queued effects non-blockingly, mixes with saturating
// addition, and converts into the device's sample format.
type mixer struct {
	music  *ring.Buffer
	format SampleFormat
	intake chan []int16

	voices  []voice // fixed capacity, compacted in place
	scratch []int16 // persistent; reallocated only when the request size changes

	musicGain gain
	sfxGain   gain

	dropped atomic.Uint64 // effects discarded because intake or voices were full
}

func newMixer(music *ring.Buffer, format SampleFormat) *mixer {
	m := &mixer{
		music:  music,
		format: format,
		intake: make(chan []int16, sfxQueueSize),
		voices: make([]voice, 0, maxVoices),
	}
	m.musicGain.set(1)
	m.sfxGain.set(1)
	return m
}

// enqueue hands a decoded effect buffer to the callback. It never blocks;
// when the intake is full the effect is dropped and counted.
func (m *mixer) enqueue(data []int16) {
	select {
	case m.intake <- data:
	default:
		m.dropped.Add(1)
	}
}

// Fill renders the next len(out) bytes of device audio.
func (m *mixer) Fill(out []byte) {
	n := len(out) / m.format.BytesPerSample()
	if len(m.scratch) != n {
		m.scratch = make([]int16, n)
	}
	m.fillMusic()
	m.admitSfx()
	m.mixSfx()
	m.convert(out)
}

// fillMusic drains the ring into the scratch buffer, zero-filling on underrun.
func (m *mixer) fillMusic() {
	popped := m.music.Pop(m.scratch)
	if g := m.musicGain.get(); g != 1 {
		for i := 0; i < popped; i++ {
			m.scratch[i] = scale(m.scratch[i], g)
		}
	}
	for i := popped; i < len(m.scratch); i++ {
		m.scratch[i] = 0
	}
}

// admitSfx moves newly queued effects into the voice list without blocking.
func (m *mixer) admitSfx() {
	for {
		select {
		case data := <-m.intake:
			if len(m.voices) == cap(m.voices) {
				m.dropped.Add(1)
				continue
			}
			m.voices = append(m.voices, voice{data: data})
		default:
			return
		}
	}
}

// mixSfx adds every active voice into the scratch buffer with saturating
// arithmetic, retaining only voices with samples left.
func (m *mixer) mixSfx() {
	g := m.sfxGain.get()
	kept := m.voices[:0]
	for i := range m.voices {
		v := m.voices[i]
		n := len(v.data) - v.pos
		if n > len(m.scratch) {
			n = len(m.scratch)
		}
		for j := 0; j < n; j++ {
			s := v.data[v.pos+j]
			if g != 1 {
				s = scale(s, g)
			}
			m.scratch[j] = satAdd(m.scratch[j], s)
		}
		v.pos += n
		if v.pos < len(v.data) {
			kept = append(kept, v)
		}
	}
	m.voices = kept
}

// convert writes the scratch buffer into the device's native representation.
// The three supported formats share the mixing path above.
func (m *mixer) convert(out []byte) {
	switch m.format {
	case FormatInt16:
		for i, s := range m.scratch {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
		}
	case FormatUint16:
		for i, s := range m.scratch {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(int32(s)+32768))
		}
	case FormatFloat32:
		for i, s := range m.scratch {
			bits := math.Float32bits(float32(s) / 32768)
			binary.LittleEndian.PutUint32(out[4*i:], bits)
		}
	}
}

func satAdd(a, b int16) int16 {
	s := int32(a) + int32(b)
	if s > math.MaxInt16 {
		return math.MaxInt16
	}
	if s < math.MinInt16 {
		return math.MinInt16
	}
	return int16(s)
}

func scale(s int16, g float32) int16 {
	v := int32(float32(s) * g)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
