package audio

import (
	"io"
	"math"
)

// Stream is the decoder contract the engine pulls audio data from. Any
// container decoder exposing its layout, a fallible frame seek and pull-based
// packet decoding can feed the engine; loaders.Stream satisfies it.
type Stream interface {
	SampleRate() int
	Channels() int
	Seek(frame int64) error
	// ReadPacket returns the next interleaved PCM16 packet, io.EOF at end of
	// stream. The slice is only valid until the next call.
	ReadPacket() ([]int16, error)
	Close() error
}

// Opener resolves an asset path into a decodable stream.
type Opener func(path string) (Stream, error)

// Cut selects a playable sub-window of a music asset. It is a value type;
// copy it freely.
type Cut struct {
	// Start is the offset into the asset, in seconds.
	Start float64
	// Length is the playable duration in seconds. Zero (the zero value),
	// negative, or +Inf all mean unclipped.
	Length float64
}

func (c Cut) unclipped() bool {
	return c.Length <= 0 || math.IsInf(c.Length, 1)
}

// MemoryStream serves interleaved PCM16 from memory. It backs synthesized
// assets and tests; the data is shared, not copied, and must stay immutable.
type MemoryStream struct {
	data     []int16
	rate     int
	channels int
	pos      int64 // frame cursor
	packet   int   // frames per ReadPacket
}

// NewMemoryStream wraps data (interleaved, channels-aligned) as a Stream.
func NewMemoryStream(data []int16, rate, channels int) *MemoryStream {
	return &MemoryStream{
		data:     data,
		rate:     rate,
		channels: channels,
		packet:   1024,
	}
}

func (s *MemoryStream) SampleRate() int { return s.rate }
func (s *MemoryStream) Channels() int   { return s.channels }
func (s *MemoryStream) Close() error    { return nil }

func (s *MemoryStream) frames() int64 {
	return int64(len(s.data) / s.channels)
}

func (s *MemoryStream) Seek(frame int64) error {
	if frame < 0 {
		frame = 0
	}
	if total := s.frames(); frame > total {
		frame = total
	}
	s.pos = frame
	return nil
}

func (s *MemoryStream) ReadPacket() ([]int16, error) {
	remaining := s.frames() - s.pos
	if remaining <= 0 {
		return nil, io.EOF
	}
	n := int64(s.packet)
	if n > remaining {
		n = remaining
	}
	start := s.pos * int64(s.channels)
	s.pos += n
	return s.data[start : start+n*int64(s.channels)], nil
}
