// Package mp3 decodes MPEG-1 layer 3 streams via hajimehoshi/go-mp3.
// Importing it registers the "mp3" extension with the loaders registry.
package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/stepfever/gameaudio/loaders"
)

// go-mp3 always emits 16-bit little-endian stereo, 4 bytes per frame.
const (
	channels      = 2
	bytesPerFrame = 4
	packetBytes   = 8192
)

func init() {
	loaders.Register("mp3", New)
}

type stream struct {
	dec  *gomp3.Decoder
	buf  []byte
	pbuf []int16
	lead int // leftover bytes of a partial frame from the previous read
}

// New decodes an MP3 stream from r.
func New(r io.ReadSeeker) (loaders.Stream, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &stream{
		dec:  dec,
		buf:  make([]byte, packetBytes),
		pbuf: make([]int16, packetBytes/2),
	}, nil
}

func (s *stream) SampleRate() int { return s.dec.SampleRate() }
func (s *stream) Channels() int   { return channels }
func (s *stream) Close() error    { return nil }

func (s *stream) Seek(frame int64) error {
	if _, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("mp3: seek to frame %d: %w", frame, err)
	}
	s.lead = 0
	return nil
}

func (s *stream) ReadPacket() ([]int16, error) {
	for {
		n, err := s.dec.Read(s.buf[s.lead:])
		total := s.lead + n
		use := total / bytesPerFrame * bytesPerFrame
		if use == 0 {
			if err != nil {
				return nil, err
			}
			s.lead = total
			continue
		}
		for i := 0; i < use/2; i++ {
			s.pbuf[i] = int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		}
		s.lead = copy(s.buf, s.buf[use:total])
		return s.pbuf[:use/2], nil
	}
}
