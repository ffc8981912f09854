package audio

import (
	"fmt"
	"log"
	"sync"

	"github.com/stepfever/gameaudio/ring"
)

// commandQueueSize bounds the mutation queue. Sends never block: a full queue
// drops the command with a logged warning, which only happens when callers
// outrun the loop by orders of magnitude.
const commandQueueSize = 256

type command interface{ isCommand() }

type playSfxCmd struct{ data []int16 }
type playMusicCmd struct {
	path    string
	cut     Cut
	looping bool
}
type stopMusicCmd struct{}

func (playSfxCmd) isCommand()   {}
func (playMusicCmd) isCommand() {}
func (stopMusicCmd) isCommand() {}

// engine wires the device callback, the command loop and the caches together.
// One is constructed per process by Init.
type engine struct {
	device   Device
	ring     *ring.Buffer
	mixer    *mixer
	cache    *sfxCache
	open     Opener
	commands chan command

	lastErr  errorLatch
	loopDone chan struct{}

	// worker is owned by the command loop goroutine exclusively; it is
	// replaced only after the previous handle has been signaled and joined.
	worker *musicWorker
}

func newEngine(device Device, open Opener, ringSize int) *engine {
	rb := ring.New(ringSize)
	return &engine{
		device:   device,
		ring:     rb,
		mixer:    newMixer(rb, device.Format()),
		cache:    newSfxCache(),
		open:     open,
		commands: make(chan command, commandQueueSize),
		loopDone: make(chan struct{}),
	}
}

// startEngine begins device output and the command loop.
func (e *engine) start() error {
	err := e.device.Start(e.mixer.Fill, func(err error) {
		e.lastErr.store(err)
		log.Printf("audio: device error: %v", err)
	})
	if err != nil {
		return fmt.Errorf("audio: start output stream: %w", err)
	}
	go e.loop()
	return nil
}

// send enqueues a command without ever blocking the caller.
func (e *engine) send(cmd command) {
	select {
	case e.commands <- cmd:
	default:
		log.Printf("audio: command queue full, dropping %T", cmd)
	}
}

// loop serializes all playback mutations. Track replacement is synchronous
// from its viewpoint: the previous worker is signaled and joined before the
// ring is cleared and a new one spawned, so at most one decoder ever writes
// to the ring. The loop exits when the command channel is closed.
func (e *engine) loop() {
	defer close(e.loopDone)
	for cmd := range e.commands {
		switch c := cmd.(type) {
		case playSfxCmd:
			e.mixer.enqueue(c.data)
		case playMusicCmd:
			e.haltWorker()
			e.ring.Clear()
			e.worker = newMusicWorker(c.path, c.cut, c.looping, e.open, e.ring,
				e.device.SampleRate(), e.device.ChannelCount())
			e.worker.start()
		case stopMusicCmd:
			e.haltWorker()
			e.ring.Clear()
		}
	}
	e.haltWorker()
}

func (e *engine) haltWorker() {
	if e.worker != nil {
		e.worker.halt()
		e.worker = nil
	}
}

// errorLatch retains the first error stored into it, for postmortem queries
// about asynchronous device failures.
type errorLatch struct {
	mu  sync.Mutex
	err error
}

func (l *errorLatch) store(err error) {
	if err == nil {
		return
	}
	l.mu.Lock()
	if l.err == nil {
		l.err = err
	}
	l.mu.Unlock()
}

func (l *errorLatch) load() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
