// Package audio is a real-time game audio engine: it decodes compressed
// assets, resamples them to the device layout on the fly, and mixes one
// streamed music track plus any number of one-shot sound effects inside the
// platform's audio callback, with no locks, allocation or blocking on the
// real-time path.
//
// Call Init once at startup, then fire and forget:
//
//	if err := audio.Init(nil); err != nil {
//		log.Fatal(err)
//	}
//	audio.PlayMusic("songs/stage1.ogg", audio.Cut{}, true)
//	audio.PlaySfx("sfx/hit.wav")
package audio

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stepfever/gameaudio/loaders"
	_ "github.com/stepfever/gameaudio/loaders/mp3"
	_ "github.com/stepfever/gameaudio/loaders/vorbis"
	_ "github.com/stepfever/gameaudio/loaders/wav"
)

const (
	DefaultSampleRate   = 48000
	DefaultChannelCount = 2
	// DefaultRingSize holds roughly two thirds of a second of stereo audio at
	// the default rate.
	DefaultRingSize = 1 << 16
)

// Options configures Init. The zero value selects defaults throughout.
type Options struct {
	// SampleRate of the output device. Default 48000.
	SampleRate int
	// ChannelCount of the output device. Default 2.
	ChannelCount int
	// Format of the output device samples. Default FormatInt16.
	Format SampleFormat
	// BufferSize of the underlying device buffer. 0 uses the driver default.
	// Bigger buffers add latency; smaller ones risk underruns.
	BufferSize time.Duration
	// RingSize is the music ring capacity in samples, rounded up to a power
	// of two. Default DefaultRingSize.
	RingSize int
	// Opener resolves asset paths. Default: the loaders registry.
	Opener Opener
	// Device overrides the platform output, for tests and headless hosts.
	Device Device
}

var (
	initMu sync.Mutex
	shared atomic.Pointer[engine]
)

// Init constructs the process-wide engine: it opens the output device,
// starts the stream and spawns the command loop. It is idempotent; the first
// call wins and later calls return nil without effect.
//
// Audio is a fail-fast startup dependency: a missing output device or
// unusable default configuration is reported here, once, and nowhere else.
func Init(opts *Options) error {
	initMu.Lock()
	defer initMu.Unlock()
	if shared.Load() != nil {
		return nil
	}
	if opts == nil {
		opts = &Options{}
	}
	rate := opts.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	channels := opts.ChannelCount
	if channels == 0 {
		channels = DefaultChannelCount
	}
	ringSize := opts.RingSize
	if ringSize == 0 {
		ringSize = DefaultRingSize
	}
	open := opts.Opener
	if open == nil {
		open = defaultOpen
	}
	device := opts.Device
	if device == nil {
		var err error
		device, err = openDefaultDevice(rate, channels, opts.BufferSize, opts.Format)
		if err != nil {
			return err
		}
	}
	e := newEngine(device, open, ringSize)
	if err := e.start(); err != nil {
		_ = device.Close()
		return err
	}
	shared.Store(e)
	return nil
}

func defaultOpen(path string) (Stream, error) {
	return loaders.Open(path)
}

func current() *engine {
	e := shared.Load()
	if e == nil {
		log.Printf("audio: engine not initialized")
	}
	return e
}

// SampleRate reports the rate the engine mixes at, 0 before Init.
func SampleRate() int {
	if e := shared.Load(); e != nil {
		return e.device.SampleRate()
	}
	return 0
}

// PlaySfx plays the sound effect at path. The first use decodes and resamples
// the file on the calling goroutine and caches the result forever; later uses
// reuse the shared buffer. Decode failures are logged and the call is a
// silent no-op, leaving the cache unpopulated so a later call retries.
func PlaySfx(path string) {
	e := current()
	if e == nil {
		return
	}
	data, err := e.cache.get(path, e.open, e.device.SampleRate(), e.device.ChannelCount())
	if err != nil {
		log.Printf("audio: sfx %s: %v", path, err)
		return
	}
	e.send(playSfxCmd{data: data})
}

// Preload decodes the effect at path into the cache without playing it, so
// the first PlaySfx on a hot path costs nothing.
func Preload(path string) error {
	e := current()
	if e == nil {
		return nil
	}
	_, err := e.cache.get(path, e.open, e.device.SampleRate(), e.device.ChannelCount())
	return err
}

// PreloadStream decodes an already-open stream into the cache under key.
// The caller keeps ownership of s. Used by asset registries that read from
// virtual filesystems rather than disk paths.
func PreloadStream(key string, s Stream) error {
	e := current()
	if e == nil {
		return nil
	}
	data, err := decodeAll(s, e.device.SampleRate(), e.device.ChannelCount())
	if err != nil {
		return err
	}
	e.cache.put(key, data)
	return nil
}

// PlayMusic starts streaming the track at path, replacing the current track
// if any. cut selects a sub-window of the asset; looping repeats it with a
// short gap of silence between iterations. Fire-and-forget: errors after
// this point stop playback silently (the mixer emits silence) and are logged.
func PlayMusic(path string, cut Cut, looping bool) {
	if e := current(); e != nil {
		e.send(playMusicCmd{path: path, cut: cut, looping: looping})
	}
}

// StopMusic stops the current track, if any. Fire-and-forget.
func StopMusic() {
	if e := current(); e != nil {
		e.send(stopMusicCmd{})
	}
}

// SetMusicVolume sets the music gain, clamped to [0, 2].
func SetMusicVolume(v float32) {
	if e := shared.Load(); e != nil {
		e.mixer.musicGain.set(v)
	}
}

// SetSfxVolume sets the sound-effect gain, clamped to [0, 2].
func SetSfxVolume(v float32) {
	if e := shared.Load(); e != nil {
		e.mixer.sfxGain.set(v)
	}
}

// Err reports the first asynchronous device error observed since Init, nil
// when none occurred.
func Err() error {
	if e := shared.Load(); e != nil {
		return e.lastErr.load()
	}
	return nil
}
