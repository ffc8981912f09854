// Package ring provides a lock-free single-producer/single-consumer circular
// buffer of interleaved PCM16 samples. It is the only piece of state shared
// between the music decoder and the real-time audio callback, so neither side
// may ever block or allocate while using it.
package ring

import "sync/atomic"

// Buffer is a fixed-capacity SPSC ring. Exactly one goroutine may call Push
// and exactly one may call Pop at any time. Back-pressure is communicated
// through return values, never through blocking.
//
// head and tail increase monotonically and are masked on access; their
// difference is the occupied sample count and never exceeds the capacity.
// Go's atomic loads and stores are sequentially consistent, which covers the
// release/acquire pairing the publish protocol needs: the writer stores head
// only after the sample copy completes, and the reader loads head before
// computing how much it may consume (symmetrically for tail).
type Buffer struct {
	buf  []int16
	mask uint64
	head atomic.Uint64 // writer position
	tail atomic.Uint64 // reader position
}

// New creates a Buffer holding at least capacity samples. The capacity is
// rounded up to the next power of two.
func New(capacity int) *Buffer {
	size := uint64(2)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &Buffer{
		buf:  make([]int16, size),
		mask: size - 1,
	}
}

// Cap reports the buffer capacity in samples.
func (b *Buffer) Cap() int { return len(b.buf) }

// Len reports the number of samples currently buffered.
func (b *Buffer) Len() int { return int(b.head.Load() - b.tail.Load()) }

// Push copies as many leading samples of src as fit into free space and
// returns the count, 0 when the buffer is full. Only the producer may call it.
func (b *Buffer) Push(src []int16) int {
	head := b.head.Load()
	tail := b.tail.Load()
	free := uint64(len(b.buf)) - (head - tail)
	n := uint64(len(src))
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	start := head & b.mask
	copied := copy(b.buf[start:], src[:n])
	copy(b.buf, src[copied:n])
	b.head.Store(head + n)
	return int(n)
}

// Pop copies up to len(dst) buffered samples into dst and returns the count,
// 0 when the buffer is empty. Only the consumer may call it.
func (b *Buffer) Pop(dst []int16) int {
	head := b.head.Load()
	tail := b.tail.Load()
	n := head - tail
	if n > uint64(len(dst)) {
		n = uint64(len(dst))
	}
	if n == 0 {
		return 0
	}
	start := tail & b.mask
	copied := copy(dst[:n], b.buf[start:])
	copy(dst[copied:n], b.buf)
	b.tail.Store(tail + n)
	return int(n)
}

// Clear snaps the write position to the current read position, making the
// buffer appear empty to the reader. It is best-effort: it does not
// synchronize with an in-flight Push, which would require blocking the
// real-time reader. Callers must quiesce the producer first.
func (b *Buffer) Clear() {
	b.head.Store(b.tail.Load())
}
