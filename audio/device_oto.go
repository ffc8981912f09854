package audio

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoDevice adapts ebitengine/oto to the Device contract. oto pulls device
// buffers through an io.Reader from its playback machinery, which serves as
// the per-callback fill function.
type otoDevice struct {
	ctx      *oto.Context
	player   *oto.Player
	rate     int
	channels int
	format   SampleFormat
}

// openDefaultDevice opens the platform's default output. There is no device
// to fall back to; the error propagates out of Init.
func openDefaultDevice(rate, channels int, bufferSize time.Duration, format SampleFormat) (*otoDevice, error) {
	var otoFormat oto.Format
	switch format {
	case FormatInt16:
		otoFormat = oto.FormatSignedInt16LE
	case FormatFloat32:
		otoFormat = oto.FormatFloat32LE
	default:
		// The backend has no unsigned 16-bit mode; such devices must be
		// provided through Options.Device.
		return nil, fmt.Errorf("audio: sample format %v not supported by the output backend", format)
	}
	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: channels,
		Format:       otoFormat,
		BufferSize:   bufferSize,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio: open output device: %w", err)
	}
	<-ready
	return &otoDevice{
		ctx:      ctx,
		rate:     rate,
		channels: channels,
		format:   format,
	}, nil
}

func (d *otoDevice) SampleRate() int      { return d.rate }
func (d *otoDevice) ChannelCount() int    { return d.channels }
func (d *otoDevice) Format() SampleFormat { return d.format }

func (d *otoDevice) Start(fill func(out []byte), onError func(error)) error {
	// The backend reports failures through Player.Err rather than a callback;
	// surface the first one it latches.
	d.player = d.ctx.NewPlayer(&pullReader{fill: fill})
	d.player.Play()
	if err := d.player.Err(); err != nil {
		onError(err)
	}
	return nil
}

func (d *otoDevice) Close() error {
	if d.player != nil {
		return d.player.Close()
	}
	return nil
}

// pullReader turns oto's pull reads into fill callbacks.
type pullReader struct {
	fill func(out []byte)
}

func (r *pullReader) Read(p []byte) (int, error) {
	r.fill(p)
	return len(p), nil
}
