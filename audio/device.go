package audio

import (
	"sync"
	"time"
)

// SampleFormat enumerates the device sample encodings the mixer can emit.
type SampleFormat int

const (
	FormatInt16 SampleFormat = iota
	FormatUint16
	FormatFloat32
)

// BytesPerSample reports the on-wire width of one sample.
func (f SampleFormat) BytesPerSample() int {
	if f == FormatFloat32 {
		return 4
	}
	return 2
}

func (f SampleFormat) String() string {
	switch f {
	case FormatInt16:
		return "int16"
	case FormatUint16:
		return "uint16"
	case FormatFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// Device abstracts the platform audio output. Start hands the device a fill
// callback that it invokes from its own thread at its own cadence; the
// callback must fill the whole slice and must not block. onError receives
// asynchronous stream failures.
type Device interface {
	SampleRate() int
	ChannelCount() int
	Format() SampleFormat
	Start(fill func(out []byte), onError func(error)) error
	Close() error
}

// NullDevice paces a fill callback in real time without any hardware. It
// serves tests and headless hosts where starting without audio beats not
// starting at all.
type NullDevice struct {
	rate     int
	channels int

	stop chan struct{}
	once sync.Once
}

// NewNullDevice creates a silent output at the given rate and layout.
func NewNullDevice(rate, channels int) *NullDevice {
	return &NullDevice{
		rate:     rate,
		channels: channels,
		stop:     make(chan struct{}),
	}
}

func (d *NullDevice) SampleRate() int      { return d.rate }
func (d *NullDevice) ChannelCount() int    { return d.channels }
func (d *NullDevice) Format() SampleFormat { return FormatInt16 }

func (d *NullDevice) Start(fill func(out []byte), onError func(error)) error {
	buf := make([]byte, 4096*FormatInt16.BytesPerSample())
	period := time.Duration(float64(time.Second) * float64(len(buf)/2) /
		float64(d.channels) / float64(d.rate))
	go func() {
		for {
			select {
			case <-d.stop:
				return
			default:
			}
			fill(buf)
			time.Sleep(period)
		}
	}()
	return nil
}

func (d *NullDevice) Close() error {
	d.once.Do(func() { close(d.stop) })
	return nil
}
