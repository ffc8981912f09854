// Package loaders resolves audio asset paths into decodable streams.
//
// Format packages (loaders/wav, loaders/mp3, loaders/vorbis) register
// themselves by file extension in their init functions; import them blank to
// enable a format, the way image codecs are enabled:
//
//	import _ "github.com/stepfever/gameaudio/loaders/wav"
package loaders

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Stream is a pull-based decoder over one opened audio asset.
type Stream interface {
	// SampleRate of the source in Hz.
	SampleRate() int
	// Channels in the source (1=mono, 2=stereo).
	Channels() int
	// Seek positions the stream at the given source frame. Containers that
	// cannot seek return an error; playback then falls back to decoding from
	// the start.
	Seek(frame int64) error
	// ReadPacket decodes the next run of interleaved PCM16 samples, always a
	// whole number of frames. The returned slice is only valid until the next
	// call. It returns io.EOF once the stream is exhausted.
	ReadPacket() ([]int16, error)
	Close() error
}

// OpenFunc decodes a stream from raw container bytes.
type OpenFunc func(r io.ReadSeeker) (Stream, error)

var (
	mtx      sync.RWMutex
	registry = map[string]OpenFunc{}
)

// Register associates a lowercase file extension (without dot) with a
// decoder. Later registrations for the same extension win.
func Register(ext string, fn OpenFunc) {
	mtx.Lock()
	registry[ext] = fn
	mtx.Unlock()
}

func lookup(ext string) (OpenFunc, bool) {
	mtx.RLock()
	fn, ok := registry[ext]
	mtx.RUnlock()
	return fn, ok
}

// Decode decodes an already-open container using the format registered for
// ext. The caller keeps ownership of r.
func Decode(ext string, r io.ReadSeeker) (Stream, error) {
	fn, ok := lookup(strings.ToLower(ext))
	if !ok {
		return nil, fmt.Errorf("loaders: no decoder registered for %q", ext)
	}
	return fn(r)
}

// Ext reports the registry key for a path: its lowercased extension without
// the leading dot.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Open opens the file at path with the decoder registered for its extension.
// Closing the returned stream closes the file.
func Open(path string) (Stream, error) {
	fn, ok := lookup(Ext(path))
	if !ok {
		return nil, fmt.Errorf("loaders: no decoder registered for %q", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loaders: %w", err)
	}
	s, err := fn(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("loaders: %s: %w", path, err)
	}
	return &fileStream{Stream: s, f: f}, nil
}

type fileStream struct {
	Stream
	f *os.File
}

func (s *fileStream) Close() error {
	err := s.Stream.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}
