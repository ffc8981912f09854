package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/stepfever/gameaudio/resample"
)

// sfxCache stores fully decoded and resampled sound effects keyed by path.
// Entries are immutable, shared by reference and never evicted: bundled game
// sound sets are small and fixed for the process lifetime.
type sfxCache struct {
	mu      sync.Mutex
	entries map[string][]int16
}

func newSfxCache() *sfxCache {
	return &sfxCache{entries: make(map[string][]int16)}
}

// get returns the buffer for path, decoding it synchronously on the calling
// goroutine on a miss. A failed decode leaves the cache unpopulated so a
// later call retries.
func (c *sfxCache) get(path string, open Opener, outRate, outCh int) ([]int16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if data, ok := c.entries[path]; ok {
		return data, nil
	}
	src, err := open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := decodeAll(src, outRate, outCh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.entries[path] = data
	return data, nil
}

// put stores a pre-decoded buffer under key. The first entry for a key wins;
// entries are created once and never mutated.
func (c *sfxCache) put(key string, data []int16) {
	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = data
	}
	c.mu.Unlock()
}

// decodeAll runs a stream fully through a fresh resampler targeting the
// device layout and collects the complete output.
func decodeAll(src Stream, outRate, outCh int) ([]int16, error) {
	rs, err := resample.New(src.SampleRate(), outRate, src.Channels(), outCh,
		resample.DefaultTaps, resample.DefaultBeta)
	if err != nil {
		return nil, err
	}
	out := make([]int16, 0, 4096)
	for {
		pkt, err := src.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out, err = rs.Process(pkt, out)
		if err != nil {
			return nil, err
		}
	}
	return rs.Process(nil, out)
}
