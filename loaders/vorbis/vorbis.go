// Package vorbis decodes OGG/Vorbis containers. Importing it registers the
// "ogg" and "oga" extensions with the loaders registry.
package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/stepfever/gameaudio/loaders"
)

// packetSize is the number of float samples requested per decode call.
const packetSize = 4096

var ErrBadHeaders = errors.New("vorbis: invalid identification headers")

func init() {
	loaders.Register("ogg", New)
	loaders.Register("oga", New)
}

type stream struct {
	dec  *oggvorbis.Reader
	fbuf []float32
	pbuf []int16
	lead int // leftover samples of a partial frame from the previous read
}

// New decodes an OGG/Vorbis stream from r. Seeking requires r to be an
// io.Seeker over the whole container, which loaders.Open guarantees.
func New(r io.ReadSeeker) (loaders.Stream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	if dec.Channels() <= 0 || dec.SampleRate() <= 0 {
		return nil, ErrBadHeaders
	}
	return &stream{
		dec:  dec,
		fbuf: make([]float32, packetSize),
		pbuf: make([]int16, packetSize),
	}, nil
}

func (s *stream) SampleRate() int { return s.dec.SampleRate() }
func (s *stream) Channels() int   { return s.dec.Channels() }
func (s *stream) Close() error    { return nil }

func (s *stream) Seek(frame int64) error {
	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("vorbis: seek to frame %d: %w", frame, err)
	}
	s.lead = 0
	return nil
}

func (s *stream) ReadPacket() ([]int16, error) {
	ch := s.dec.Channels()
	for {
		n, err := s.dec.Read(s.fbuf[s.lead:])
		total := s.lead + n
		frames := total / ch
		if frames == 0 {
			if err != nil {
				return nil, err
			}
			// Vorbis may yield empty packets mid-stream; keep pulling.
			s.lead = total
			continue
		}
		use := frames * ch
		for i := 0; i < use; i++ {
			s.pbuf[i] = pcm16(s.fbuf[i])
		}
		s.lead = copy(s.fbuf, s.fbuf[use:total])
		return s.pbuf[:use], nil
	}
}

func pcm16(v float32) int16 {
	s := int32(v * 32768)
	if s > 32767 {
		return 32767
	}
	if s < -32768 {
		return -32768
	}
	return int16(s)
}
