package audio

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type closableStream struct {
	*MemoryStream
	closed *atomic.Bool
}

func (s closableStream) Close() error {
	s.closed.Store(true)
	return nil
}

type trackState struct {
	opened atomic.Bool
	closed atomic.Bool
}

// trackingOpener serves looping-friendly streams for the given paths and
// records when each is opened and closed.
func trackingOpener(frames int, paths ...string) (Opener, map[string]*trackState) {
	states := make(map[string]*trackState, len(paths))
	for _, p := range paths {
		states[p] = &trackState{}
	}
	data := make([]int16, frames)
	for i := range data {
		data[i] = int16(i + 1)
	}
	open := func(path string) (Stream, error) {
		st := states[path]
		st.opened.Store(true)
		return closableStream{
			MemoryStream: NewMemoryStream(data, testRate, 1),
			closed:       &st.closed,
		}, nil
	}
	return open, states
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestEngine(t *testing.T, open Opener) *engine {
	t.Helper()
	e := newEngine(NewNullDevice(testRate, 1), open, 1<<14)
	if err := e.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		close(e.commands)
		<-e.loopDone
		e.device.Close()
	})
	return e
}

// Playing a new track halts and closes the previous one before the
// replacement starts decoding.
func TestEngineReplacesTrack(t *testing.T) {
	open, tracks := trackingOpener(480, "a", "b")
	e := newTestEngine(t, open)

	e.send(playMusicCmd{path: "a", looping: true})
	waitFor(t, "first track to open", func() bool { return tracks["a"].opened.Load() })

	e.send(playMusicCmd{path: "b", looping: true})
	waitFor(t, "first track to close", func() bool { return tracks["a"].closed.Load() })
	waitFor(t, "second track to open", func() bool { return tracks["b"].opened.Load() })
	if tracks["b"].closed.Load() {
		t.Fatal("replacement track was closed while it should be playing")
	}
}

func TestEngineStopMusic(t *testing.T) {
	open, tracks := trackingOpener(480, "a")
	e := newTestEngine(t, open)

	e.send(playMusicCmd{path: "a", looping: true})
	waitFor(t, "track to open", func() bool { return tracks["a"].opened.Load() })

	e.send(stopMusicCmd{})
	waitFor(t, "track to close", func() bool { return tracks["a"].closed.Load() })
}

// Closing the command channel halts any running worker.
func TestEngineShutdownHaltsWorker(t *testing.T) {
	open, tracks := trackingOpener(480, "a")
	e := newEngine(NewNullDevice(testRate, 1), open, 1<<14)
	if err := e.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	e.send(playMusicCmd{path: "a", looping: true})
	waitFor(t, "track to open", func() bool { return tracks["a"].opened.Load() })

	close(e.commands)
	select {
	case <-e.loopDone:
	case <-time.After(10 * time.Second):
		t.Fatal("command loop did not exit")
	}
	if !tracks["a"].closed.Load() {
		t.Fatal("worker stream left open after shutdown")
	}
	e.device.Close()
}

// send drops rather than blocks when the queue is full and nobody drains it.
func TestSendNeverBlocks(t *testing.T) {
	e := newEngine(NewNullDevice(testRate, 1), nil, 1<<10)
	done := make(chan struct{})
	go func() {
		for i := 0; i < commandQueueSize+50; i++ {
			e.send(stopMusicCmd{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("send blocked on a full queue")
	}
}

func TestErrorLatchKeepsFirst(t *testing.T) {
	var l errorLatch
	if l.load() != nil {
		t.Fatal("fresh latch is not empty")
	}
	l.store(nil)
	if l.load() != nil {
		t.Fatal("storing nil latched something")
	}
	first := errors.New("first")
	l.store(first)
	l.store(errors.New("second"))
	if l.load() != first {
		t.Fatalf("load = %v, want the first error", l.load())
	}
}

// Init wires the package-level engine exactly once.
func TestInitIdempotent(t *testing.T) {
	dev := NewNullDevice(testRate, 2)
	if err := Init(&Options{Device: dev}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := Init(nil); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if got := SampleRate(); got != testRate {
		t.Fatalf("SampleRate = %d, want %d", got, testRate)
	}

	tone := make([]int16, 256)
	if err := PreloadStream("tone", NewMemoryStream(tone, testRate, 2)); err != nil {
		t.Fatalf("PreloadStream: %v", err)
	}
	PlaySfx("tone")
	SetMusicVolume(0.5)
	SetSfxVolume(1.5)
	if err := Err(); err != nil {
		t.Fatalf("Err = %v, want nil", err)
	}
}
