package uartx

import "sync/atomic"

// BufferSize is the receive ring capacity shared by every instance. It must
// be a power of two.
const BufferSize = 128

const bufferMask = BufferSize - 1

// Fails to compile unless BufferSize is a power of two.
var _ [0]struct{} = [BufferSize & bufferMask]struct{}{}

// RingBuffer is a single-producer, single-consumer byte ring. Put is called
// only from the interrupt handler; every other method belongs to the
// foreground. The cursors are free-running and only masked when indexing, so
// a full ring and an empty ring are distinguishable.
//
// The producer never waits: when the consumer falls more than BufferSize
// bytes behind, the oldest bytes are overwritten. The consumer notices the lap
// on its next access, skips to the oldest byte still stored and counts the
// skipped bytes in Overruns.
type RingBuffer struct {
	buf  [BufferSize]byte
	head atomic.Uint32 // written by Put only
	tail atomic.Uint32 // written by the foreground only
	lost atomic.Uint32 // written by the foreground only
}

// NewRingBuffer returns an empty ring buffer.
func NewRingBuffer() *RingBuffer {
	return &RingBuffer{}
}

// Size returns the capacity of the buffer in bytes.
func (rb *RingBuffer) Size() int {
	return BufferSize
}

// Used returns how many unread bytes are stored, at most Size.
func (rb *RingBuffer) Used() int {
	n := rb.head.Load() - rb.tail.Load()
	if n > BufferSize {
		n = BufferSize
	}
	return int(n)
}

// Put stores a byte, overwriting the oldest unread byte if the ring is full.
func (rb *RingBuffer) Put(val byte) {
	h := rb.head.Load()
	rb.buf[h&bufferMask] = val // 1) write data
	rb.head.Store(h + 1)       // 2) publish
}

// Get returns the oldest unread byte. If the buffer is empty, it returns
// (0, false).
func (rb *RingBuffer) Get() (byte, bool) {
	t := rb.catchUp()
	if rb.head.Load() == t {
		return 0, false
	}
	v := rb.buf[t&bufferMask] // 1) read current element
	rb.tail.Store(t + 1)      // 2) publish consumption
	return v, true
}

// Peek returns the oldest unread byte without consuming it.
func (rb *RingBuffer) Peek() (byte, bool) {
	t := rb.catchUp()
	if rb.head.Load() == t {
		return 0, false
	}
	return rb.buf[t&bufferMask], true
}

// Flush discards every unread byte. Bytes already overwritten still count
// as overruns. Storage is left untouched.
func (rb *RingBuffer) Flush() {
	rb.catchUp()
	rb.tail.Store(rb.head.Load())
}

// Clear resets both cursors and the overrun count. The producer must not be
// running.
func (rb *RingBuffer) Clear() {
	rb.head.Store(0)
	rb.tail.Store(0)
	rb.lost.Store(0)
}

// Overruns returns how many bytes were overwritten before they were read.
func (rb *RingBuffer) Overruns() uint32 {
	rb.catchUp()
	return rb.lost.Load()
}

// catchUp moves the read cursor past bytes the producer has overwritten and
// returns it.
func (rb *RingBuffer) catchUp() uint32 {
	h, t := rb.head.Load(), rb.tail.Load()
	if n := h - t; n > BufferSize {
		t = h - BufferSize
		rb.lost.Add(n - BufferSize)
		rb.tail.Store(t)
	}
	return t
}
