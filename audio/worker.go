package audio

import (
	"io"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/stepfever/gameaudio/resample"
	"github.com/stepfever/gameaudio/ring"
)

const (
	// prerollFrames of source audio are decoded ahead of the cut start so the
	// resampler's delay line has settled before audible output begins.
	prerollFrames = 512
	// ringFullRetry is how long the decoder sleeps when the ring has no room.
	ringFullRetry = 5 * time.Millisecond
	// loopGap of silence separates loop iterations audibly.
	loopGap = 500 * time.Millisecond
)

// musicWorker streams one decoded, resampled track into the ring until the
// track ends or its stop flag is raised. The command loop owns the handle:
// it raises stop and joins via halt before ever starting a replacement, so at
// most one producer writes to the ring.
type musicWorker struct {
	path    string
	cut     Cut
	looping bool

	open    Opener
	ring    *ring.Buffer
	outRate int
	outCh   int

	stop atomic.Bool
	done chan struct{}
}

// segment carries the per-iteration pre-roll and length-cap accounting.
type segment struct {
	skipIn  int64 // source frames still to drop (fallback seek path)
	discard int64 // produced frames still to drop (pre-roll)
	remain  int64 // produced frames still allowed; -1 when unclipped
}

func newMusicWorker(path string, cut Cut, looping bool, open Opener, rb *ring.Buffer, outRate, outCh int) *musicWorker {
	return &musicWorker{
		path:    path,
		cut:     cut,
		looping: looping,
		open:    open,
		ring:    rb,
		outRate: outRate,
		outCh:   outCh,
		done:    make(chan struct{}),
	}
}

func (w *musicWorker) start() { go w.run() }

// halt raises the stop flag and joins the worker goroutine. The worker polls
// the flag at every potentially-looping point, so shutdown latency is bounded
// by one ring-full retry.
func (w *musicWorker) halt() {
	w.stop.Store(true)
	<-w.done
}

func (w *musicWorker) stopped() bool { return w.stop.Load() }

func (w *musicWorker) run() {
	defer close(w.done)

	src, err := w.open(w.path)
	if err != nil {
		log.Printf("audio: open music %s: %v", w.path, err)
		return
	}
	defer src.Close()

	rs, err := resample.New(src.SampleRate(), w.outRate, src.Channels(), w.outCh,
		resample.DefaultTaps, resample.DefaultBeta)
	if err != nil {
		log.Printf("audio: music %s: %v", w.path, err)
		return
	}

	for {
		seg, ok := w.seekToCut(src, rs)
		if !ok {
			return
		}
		if !w.playSegment(src, rs, seg) {
			return
		}
		if !w.looping || w.stopped() {
			return
		}
		if !w.pushSilence() {
			return
		}
		if err := src.Seek(0); err != nil {
			log.Printf("audio: rewind music %s: %v", w.path, err)
			return
		}
		rs.Reset()
	}
}

// seekToCut positions src just ahead of the cut start. When the container can
// seek, it lands prerollFrames early, aligns the resampler to the fractional
// start position, and arranges for the pre-roll output to be discarded. When
// it cannot, whole source frames are skipped from the top instead; that path
// has no sub-sample alignment. Returns false when the source is unusable.
func (w *musicWorker) seekToCut(src Stream, rs *resample.Resampler) (segment, bool) {
	inRate := float64(src.SampleRate())
	start := w.cut.Start
	if start < 0 {
		start = 0
	}
	startFrame := int64(start * inRate)
	frac := start*inRate - float64(startFrame)

	seg := segment{remain: -1}
	if !w.cut.unclipped() {
		seg.remain = int64(math.Round(w.cut.Length * float64(w.outRate)))
	}

	pre := int64(prerollFrames)
	if pre > startFrame {
		pre = startFrame
	}
	if err := src.Seek(startFrame - pre); err != nil {
		// A fresh or rewound stream is positioned at frame zero, so decoding
		// forward and dropping frames still reaches the cut start.
		log.Printf("audio: seek music %s to frame %d: %v; decoding from start",
			w.path, startFrame-pre, err)
		seg.skipIn = startFrame
		return seg, true
	}
	rs.SetFractionalPhase(frac)
	seg.discard = int64(math.Ceil(float64(pre) * float64(w.outRate) / inRate))
	return seg, true
}

// playSegment decodes until the source ends, the length cap is reached or the
// stop flag is raised. Stop exits immediately without flushing; the other two
// drain the resampler. Returns false when the worker must terminate.
func (w *musicWorker) playSegment(src Stream, rs *resample.Resampler, seg segment) bool {
	out := make([]int16, 0, 8192)
	channels := src.Channels()
	for !w.stopped() {
		pkt, err := src.ReadPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("audio: decode music %s: %v", w.path, err)
			return false
		}
		if seg.skipIn > 0 {
			drop := seg.skipIn
			if frames := int64(len(pkt) / channels); drop > frames {
				drop = frames
			}
			pkt = pkt[drop*int64(channels):]
			seg.skipIn -= drop
			if len(pkt) == 0 {
				continue
			}
		}
		out, err = rs.Process(pkt, out[:0])
		if err != nil {
			log.Printf("audio: resample music %s: %v", w.path, err)
			return false
		}
		if !w.emit(&seg, out) {
			return false
		}
		if seg.remain == 0 {
			break
		}
	}
	if w.stopped() {
		return false
	}
	out, _ = rs.Process(nil, out[:0])
	return w.emit(&seg, out)
}

// emit applies the pre-roll discard and the length cap to produced frames,
// then pushes the rest into the ring.
func (w *musicWorker) emit(seg *segment, buf []int16) bool {
	ch := int64(w.outCh)
	if seg.discard > 0 {
		d := seg.discard
		if frames := int64(len(buf)) / ch; d > frames {
			d = frames
		}
		buf = buf[d*ch:]
		seg.discard -= d
	}
	if seg.remain >= 0 {
		if frames := int64(len(buf)) / ch; frames > seg.remain {
			buf = buf[:seg.remain*ch]
		}
		seg.remain -= int64(len(buf)) / ch
	}
	return w.pushAll(buf)
}

// pushAll writes buf into the ring, sleeping briefly whenever it is full and
// checking the stop flag on every retry.
func (w *musicWorker) pushAll(buf []int16) bool {
	for len(buf) > 0 {
		if w.stopped() {
			return false
		}
		n := w.ring.Push(buf)
		if n == 0 {
			time.Sleep(ringFullRetry)
			continue
		}
		buf = buf[n:]
	}
	return true
}

// pushSilence inserts the loop gap between iterations.
func (w *musicWorker) pushSilence() bool {
	frames := int(loopGap.Seconds() * float64(w.outRate))
	return w.pushAll(make([]int16, frames*w.outCh))
}
