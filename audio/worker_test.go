package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/stepfever/gameaudio/resample"
	"github.com/stepfever/gameaudio/ring"
)

const testRate = 48000

// rampOpener returns an opener serving a fresh mono stream of frames samples,
// sample i holding value base+i.
func rampOpener(frames int, base int) Opener {
	data := make([]int16, frames)
	for i := range data {
		data[i] = int16(base + i)
	}
	return func(path string) (Stream, error) {
		return NewMemoryStream(data, testRate, 1), nil
	}
}

// noSeekStream refuses frame seeks, like a container without an index.
type noSeekStream struct{ *MemoryStream }

func (noSeekStream) Seek(frame int64) error {
	return errors.New("stream is not seekable")
}

// drainUntilDone pops the ring while the worker runs, returning everything
// produced. It fails the test if the worker does not finish in time.
func drainUntilDone(t *testing.T, w *musicWorker, rb *ring.Buffer, limit int) []int16 {
	t.Helper()
	var all []int16
	buf := make([]int16, 4096)
	deadline := time.After(10 * time.Second)
	for {
		n := rb.Pop(buf)
		all = append(all, buf[:n]...)
		if len(all) > limit {
			w.halt()
			t.Fatalf("worker produced more than %d samples", limit)
		}
		if n == 0 {
			select {
			case <-w.done:
				// Catch anything pushed between the last Pop and done.
				for {
					n := rb.Pop(buf)
					if n == 0 {
						return all
					}
					all = append(all, buf[:n]...)
				}
			case <-deadline:
				w.halt()
				t.Fatal("worker did not finish in time")
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}
}

// A length cap yields exactly round(Length*outRate) output frames.
func TestWorkerCutLength(t *testing.T) {
	rb := ring.New(1 << 15)
	cut := Cut{Start: 0.25, Length: 0.125}
	w := newMusicWorker("ramp", cut, false, rampOpener(testRate, 0), rb, testRate, 1)
	w.start()

	out := drainUntilDone(t, w, rb, 1<<20)
	want := int(0.125 * testRate)
	if len(out) != want {
		t.Fatalf("produced %d frames, want %d", len(out), want)
	}
	// The window must begin at the cut start, give or take the resampler's
	// group delay of half a filter length.
	startFrame := int(0.25 * testRate)
	if d := int(out[0]) - startFrame; d < -resample.DefaultTaps || d > resample.DefaultTaps {
		t.Fatalf("first frame holds source index %d, want about %d", out[0], startFrame)
	}
	for i := 1; i < len(out); i++ {
		if out[i] != out[i-1]+1 {
			t.Fatalf("frame %d breaks the ramp: %d after %d", i, out[i], out[i-1])
		}
	}
}

// Without a cut the whole track plays, plus the filter's settling frames.
func TestWorkerPlaysWholeTrack(t *testing.T) {
	const frames = 4800
	rb := ring.New(1 << 14)
	w := newMusicWorker("ramp", Cut{}, false, rampOpener(frames, 1), rb, testRate, 1)
	w.start()

	out := drainUntilDone(t, w, rb, 1<<20)
	if len(out) < frames || len(out) > frames+2*resample.DefaultTaps {
		t.Fatalf("produced %d frames, want about %d", len(out), frames)
	}
}

// When the container cannot seek, the worker decodes from the top and drops
// whole source frames to reach the cut start.
func TestWorkerSeekFallback(t *testing.T) {
	const base = 1000
	data := make([]int16, testRate)
	for i := range data {
		data[i] = int16(base + i)
	}
	open := func(path string) (Stream, error) {
		return noSeekStream{NewMemoryStream(data, testRate, 1)}, nil
	}

	rb := ring.New(1 << 15)
	cut := Cut{Start: 0.1, Length: 0.05}
	w := newMusicWorker("ramp", cut, false, open, rb, testRate, 1)
	w.start()

	out := drainUntilDone(t, w, rb, 1<<20)
	// Leading zeros are the unsettled filter; past them the ramp must start at
	// the cut frame.
	lead := 0
	for lead < len(out) && out[lead] == 0 {
		lead++
	}
	if lead >= len(out) || lead > 2*resample.DefaultTaps {
		t.Fatalf("%d leading zero frames, expected the cut to start sooner", lead)
	}
	wantFirst := int16(base + int(0.1*testRate))
	if out[lead] != wantFirst {
		t.Fatalf("cut starts at value %d, want %d", out[lead], wantFirst)
	}
}

// A looping track repeats with a gap of silence in between.
func TestWorkerLoops(t *testing.T) {
	const frames = 480
	const base = 100
	rb := ring.New(1 << 12)
	w := newMusicWorker("ramp", Cut{}, true, rampOpener(frames, base), rb, testRate, 1)
	w.start()
	defer w.halt()

	var all []int16
	buf := make([]int16, 1024)
	deadline := time.Now().Add(10 * time.Second)
	starts := 0
	for starts < 2 && time.Now().Before(deadline) {
		n := rb.Pop(buf)
		if n == 0 {
			time.Sleep(time.Millisecond)
			continue
		}
		for _, s := range buf[:n] {
			if s == base {
				starts++
			}
		}
		all = append(all, buf[:n]...)
	}
	if starts < 2 {
		t.Fatal("track did not loop")
	}
	gap := 0
	for _, s := range all {
		if s == 0 {
			gap++
		}
	}
	// Half a second of silence separates iterations.
	if minGap := int(0.4 * testRate); gap < minGap {
		t.Fatalf("only %d silent frames between iterations, want at least %d", gap, minGap)
	}
}

// halt returns promptly even when the ring is full and nobody is draining it.
func TestWorkerHaltWhileBlocked(t *testing.T) {
	rb := ring.New(256)
	w := newMusicWorker("ramp", Cut{}, true, rampOpener(testRate, 1), rb, testRate, 1)
	w.start()
	time.Sleep(50 * time.Millisecond) // let it fill the ring and block

	halted := make(chan struct{})
	go func() {
		w.halt()
		close(halted)
	}()
	select {
	case <-halted:
	case <-time.After(5 * time.Second):
		t.Fatal("halt did not return while the ring was full")
	}
}

func TestWorkerOpenFailure(t *testing.T) {
	open := func(path string) (Stream, error) {
		return nil, errors.New("no such file")
	}
	w := newMusicWorker("missing", Cut{}, false, open, ring.New(256), testRate, 1)
	w.start()
	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not terminate after a failed open")
	}
}
