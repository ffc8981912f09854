package audio

import (
	"errors"
	"testing"
)

func countingOpener(frames int, calls *int) Opener {
	data := make([]int16, frames)
	for i := range data {
		data[i] = int16(i)
	}
	return func(path string) (Stream, error) {
		*calls++
		return NewMemoryStream(data, testRate, 1), nil
	}
}

func TestCacheDecodesOnce(t *testing.T) {
	calls := 0
	c := newSfxCache()
	open := countingOpener(100, &calls)

	first, err := c.get("hit.wav", open, testRate, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := c.get("hit.wav", open, testRate, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if calls != 1 {
		t.Fatalf("opener called %d times, want 1", calls)
	}
	if &first[0] != &second[0] {
		t.Fatal("cache handed out different buffers for the same key")
	}
}

func TestCacheRetriesAfterFailure(t *testing.T) {
	calls := 0
	c := newSfxCache()
	open := func(path string) (Stream, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("disk on fire")
		}
		return NewMemoryStream(make([]int16, 100), testRate, 1), nil
	}

	if _, err := c.get("hit.wav", open, testRate, 1); err == nil {
		t.Fatal("expected the first get to fail")
	}
	if _, err := c.get("hit.wav", open, testRate, 1); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("opener called %d times, want 2", calls)
	}
}

func TestCachePutFirstWins(t *testing.T) {
	c := newSfxCache()
	a := []int16{1, 2, 3}
	b := []int16{4, 5, 6}
	c.put("k", a)
	c.put("k", b)
	got, err := c.get("k", nil, testRate, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if &got[0] != &a[0] {
		t.Fatal("a later put replaced the original entry")
	}
}

func TestDecodeAllLength(t *testing.T) {
	const frames = 1000
	s := NewMemoryStream(make([]int16, frames), testRate, 1)
	out, err := decodeAll(s, testRate, 1)
	if err != nil {
		t.Fatalf("decodeAll: %v", err)
	}
	if len(out) < frames || len(out) > frames+64 {
		t.Fatalf("decoded %d frames, want about %d", len(out), frames)
	}
}

func TestDecodeAllUpmixes(t *testing.T) {
	s := NewMemoryStream(make([]int16, 100), testRate, 1)
	out, err := decodeAll(s, testRate, 2)
	if err != nil {
		t.Fatalf("decodeAll: %v", err)
	}
	if len(out)%2 != 0 {
		t.Fatalf("stereo output has odd length %d", len(out))
	}
}
