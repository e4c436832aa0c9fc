// uartirq/ring.go

// Ring buffer shared by the receive and transmit paths.
//
// The index protocol is the classic power-of-two scheme: indices wrap with a
// bitwise AND, the buffer is empty when head == tail, and one slot is
// sacrificed so that full (next(head) == tail) is distinguishable from empty
// without a separate counter. Usable capacity is therefore size-1 bytes.
//
// head is written only by the producer context and tail only by the consumer
// context. With single-byte index registers this is safe without locks; see
// reg8 for the per-platform register type.

package uartirq

// RingBuffer is a fixed-capacity circular byte buffer. One side of each
// instance runs in interrupt context, the other in mainline code.
type RingBuffer struct {
	buf  []reg8
	mask uint8
	head reg8 // next slot to write, producer-owned
	tail reg8 // next slot to read, consumer-owned
}

// NewRingBuffer returns a ring buffer with the given number of slots, which
// must be a power of two between 2 and 256.
func NewRingBuffer(size int) *RingBuffer {
	if size < 2 || size > 256 || size&(size-1) != 0 {
		panic("uartirq: ring size must be a power of two in [2,256]")
	}
	return &RingBuffer{buf: make([]reg8, size), mask: uint8(size - 1)}
}

// Size returns the total number of slots. One slot never holds data.
func (rb *RingBuffer) Size() int {
	return len(rb.buf)
}

// Used returns the number of unread bytes in the buffer.
func (rb *RingBuffer) Used() int {
	return int((rb.head.Get() - rb.tail.Get()) & rb.mask)
}

// Put stores one byte. If the buffer is full it returns false and mutates
// nothing.
func (rb *RingBuffer) Put(val byte) bool {
	h := (rb.head.Get() + 1) & rb.mask
	if h == rb.tail.Get() {
		return false
	}
	rb.buf[h].Set(val) // 1) write the slot
	rb.head.Set(h)     // 2) publish
	return true
}

// Get removes and returns the oldest byte. If the buffer is empty it returns
// (0, false) and mutates nothing.
func (rb *RingBuffer) Get() (byte, bool) {
	t := rb.tail.Get()
	if rb.head.Get() == t {
		return 0, false
	}
	t = (t + 1) & rb.mask
	v := rb.buf[t].Get() // 1) read the slot
	rb.tail.Set(t)       // 2) publish consumption
	return v, true
}

// Drain discards all unread bytes by advancing tail to head. It is a
// consumer-side operation: a racing producer simply sees the new tail on its
// next Put.
func (rb *RingBuffer) Drain() {
	rb.tail.Set(rb.head.Get())
}

// Clear resets both indices to zero. Only safe while the interrupt side of
// this buffer is not yet enabled (driver init).
func (rb *RingBuffer) Clear() {
	rb.head.Set(0)
	rb.tail.Set(0)
}
