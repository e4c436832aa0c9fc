// uartirq/uartirq.go

// Package uartirq is an interrupt-driven UART driver with receive and
// transmit ring buffers. The receive interrupt pushes incoming bytes (and
// latches their hardware status) into the RX ring; mainline code pulls them
// with non-blocking reads. Mainline writes push into the TX ring and arm the
// transmit-ready interrupt, which drains the ring and masks itself when it
// runs empty.
//
// Each ring index is written by exactly one execution context (interrupt
// handler XOR mainline), which is what makes the driver safe without locks.
// The hardware itself sits behind the Hardware interface; uartirq_avr.go
// provides the AVR USART0 backend and SimBus a register-free one for tests
// and host tooling.
package uartirq

import (
	"errors"
	"runtime"
)

// ErrBufferEmpty is returned by ReadByte when no received data is available.
var ErrBufferEmpty = errors.New("UART buffer empty")

// RxFlags is the receive status latched by the last receive interrupt. It is
// a single cell, not a per-byte queue: when several bytes arrive between
// reads, only the flags of the last arrival remain observable.
type RxFlags uint8

const (
	// RxFrameError reports a malformed stop bit detected by the hardware.
	RxFrameError RxFlags = 1 << iota
	// RxOverrun reports that the hardware lost a byte because the data
	// register was not read before the next byte arrived.
	RxOverrun
	// RxBufferOverflow reports that the software receive buffer was full and
	// the byte was dropped. It overrides any hardware-reported condition for
	// that event.
	RxBufferOverflow
)

func (f RxFlags) String() string {
	if f == 0 {
		return "ok"
	}
	s := ""
	if f&RxBufferOverflow != 0 {
		s += "|overflow"
	}
	if f&RxOverrun != 0 {
		s += "|overrun"
	}
	if f&RxFrameError != 0 {
		s += "|framing"
	}
	if s == "" {
		return "unknown"
	}
	return s[1:]
}

// Default ring sizes in slots. Powers of two; one slot per ring is sacrificed
// to the full/empty distinction, so the usable capacity is one less.
const (
	RxBufferSize = 64
	TxBufferSize = 64
)

// UARTConfig is the high-level configuration accepted by the hardware
// backends' Configure, mirroring the config shape used across TinyGo UART
// drivers. The divisor-level entry point is Init.
type UARTConfig struct {
	BaudRate uint32
}

// Hardware is the capability surface the driver needs from a serial
// peripheral. Backends implement it over their register layout; the driver
// core never touches registers directly.
type Hardware interface {
	// ReadRx returns the received byte together with the hardware status
	// flags describing it. Called once per receive interrupt; the backend
	// must read status before (or together with) data so the flags belong to
	// this byte.
	ReadRx() (byte, RxFlags)

	// WriteTx hands one byte to the transmitter. Called only from the
	// transmit interrupt, which fires only while SetTxInterrupt(true).
	WriteTx(b byte)

	// SetTxInterrupt unmasks or masks the transmit-ready interrupt source.
	SetTxInterrupt(enable bool)

	// Program sets the baud divisor and speed mode from cfg.
	Program(cfg BaudConfig)

	// EnableRxTx enables the receiver, the transmitter and the
	// receive-complete interrupt.
	EnableRxTx()

	// EnableInterrupts enables the global interrupt mechanism. From then on
	// the receive interrupt may preempt mainline code at any time.
	EnableInterrupts()
}

// UART is one buffered serial channel pair. The zero value is not usable;
// construct with New or use the package-level hardware instances.
type UART struct {
	hw Hardware

	rx *RingBuffer
	tx *RingBuffer

	// Latched status of the most recent receive interrupt (last-error-wins).
	lastRxErr reg8

	notify   chan struct{} // coalesced RX readiness hint
	txNotify chan struct{} // coalesced TX progress hint

	stats stats
}

// New returns a driver bound to hw with the default ring sizes. Call Init
// before use.
func New(hw Hardware) *UART {
	return NewWithSizes(hw, RxBufferSize, TxBufferSize)
}

// NewWithSizes returns a driver with explicit ring sizes. Sizes must be
// powers of two; see NewRingBuffer.
func NewWithSizes(hw Hardware, rxSize, txSize int) *UART {
	return &UART{
		hw:       hw,
		rx:       NewRingBuffer(rxSize),
		tx:       NewRingBuffer(txSize),
		notify:   make(chan struct{}, 1),
		txNotify: make(chan struct{}, 1),
	}
}

// Init resets both rings to empty regardless of prior state, programs the
// baud divisor and speed mode, enables the receiver, transmitter and
// receive-complete interrupt, and finally enables interrupts globally. From
// this point on receive interrupts fire asynchronously.
func (u *UART) Init(cfg BaudConfig) {
	u.rx.Clear()
	u.tx.Clear()
	u.lastRxErr.Set(0)
	u.hw.Program(cfg)
	u.hw.EnableRxTx()
	u.hw.EnableInterrupts()
}

// ---------------------------- Receive side ----------------------------

// TryReadByte pops one byte from the receive buffer without blocking. The
// returned flags are the currently latched receive status, which is not
// bound to this specific byte (see RxFlags). ok is false when no data is
// available, in which case nothing is mutated.
func (u *UART) TryReadByte() (b byte, flags RxFlags, ok bool) {
	b, ok = u.rx.Get()
	if !ok {
		return 0, 0, false
	}
	return b, RxFlags(u.lastRxErr.Get()), true
}

// ReadByte pops one byte from the receive buffer, returning ErrBufferEmpty
// when none is available. The latched status is not reported; use
// TryReadByte when error flags matter.
func (u *UART) ReadByte() (byte, error) {
	b, ok := u.rx.Get()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return b, nil
}

// Read implements io.Reader with non-blocking semantics, matching
// machine.UART: it copies whatever is buffered, up to len(p), and returns
// (0, nil) when nothing is waiting. It never returns io.EOF for an idle UART.
func (u *UART) Read(p []byte) (int, error) {
	return u.TryRead(p), nil
}

// TryRead returns immediately with up to len(p) bytes copied from the RX
// buffer. It never blocks; 0 means no data now.
func (u *UART) TryRead(p []byte) int {
	n := 0
	for n < len(p) {
		b, ok := u.rx.Get()
		if !ok {
			break
		}
		p[n] = b
		n++
	}
	return n
}

// Buffered returns the number of unread bytes in the receive buffer.
func (u *UART) Buffered() int {
	return u.rx.Used()
}

// LastError returns the currently latched receive status without consuming
// any data.
func (u *UART) LastError() RxFlags {
	return RxFlags(u.lastRxErr.Get())
}

// FlushRx discards all unread received bytes, silently. A receive interrupt
// racing the flush is resolved by its next push seeing the advanced tail.
func (u *UART) FlushRx() {
	u.rx.Drain()
}

// Readable returns a coalesced notification channel for RX readiness. The
// receive interrupt sends on it after enqueueing; callers must re-check
// state after waking.
func (u *UART) Readable() <-chan struct{} { return u.notify }

// ---------------------------- Transmit side ----------------------------

// WriteByte queues one byte for transmission. If the transmit buffer is full
// it spins until the transmit interrupt frees a slot, so it always succeeds
// eventually. After queueing it (re-)arms the transmit-ready interrupt so
// draining starts or resumes.
func (u *UART) WriteByte(b byte) error {
	for !u.tx.Put(b) {
		runtime.Gosched()
	}
	u.hw.SetTxInterrupt(true)
	return nil
}

// TryWriteByte queues one byte without blocking. It returns false, leaving
// the transmit path untouched, when the buffer is full.
func (u *UART) TryWriteByte(b byte) bool {
	if !u.tx.Put(b) {
		return false
	}
	u.hw.SetTxInterrupt(true)
	return true
}

// TryWrite queues as many bytes of p as fit without blocking and returns the
// count. 0 means no space now.
func (u *UART) TryWrite(p []byte) int {
	n := 0
	for n < len(p) && u.tx.Put(p[n]) {
		n++
	}
	if n > 0 {
		u.hw.SetTxInterrupt(true)
	}
	return n
}

// Write implements io.Writer with WriteByte's per-byte spin-wait. It returns
// once all of p is queued; it does not wait for the bytes to reach the wire.
func (u *UART) Write(p []byte) (int, error) {
	for _, b := range p {
		_ = u.WriteByte(b)
	}
	return len(p), nil
}

// WriteString queues every byte of s in order, blocking per byte exactly as
// WriteByte does.
func (u *UART) WriteString(s string) {
	for i := 0; i < len(s); i++ {
		_ = u.WriteByte(s[i])
	}
}

// TxPending returns the number of bytes queued but not yet transmitted.
func (u *UART) TxPending() int {
	return u.tx.Used()
}

// TxFree returns the remaining space in the transmit buffer in bytes.
func (u *UART) TxFree() int {
	return u.tx.Size() - 1 - u.tx.Used()
}

// Writable returns a coalesced notification channel for TX progress. The
// transmit interrupt sends on it whenever it runs; callers must re-check
// state after waking.
func (u *UART) Writable() <-chan struct{} { return u.txNotify }

// ---------------------------- Interrupt side ----------------------------

// handleRxInterrupt services one receive-complete interrupt: read status and
// data, classify, store, latch. Never blocks; bounded time.
func (u *UART) handleRxInterrupt() {
	data, flags := u.hw.ReadRx()
	if !u.rx.Put(data) {
		// RX ring full: the byte is dropped and the overflow marker takes
		// priority over whatever the hardware reported.
		flags = RxBufferOverflow
		u.dbgRxDrop()
	} else {
		u.dbgRxByte()
	}
	u.lastRxErr.Set(uint8(flags))
	select {
	case u.notify <- struct{}{}:
	default:
	}
}

// handleTxInterrupt services one transmit-ready interrupt: emit the next
// queued byte, or mask the interrupt source when the queue is empty (idle
// until the next write re-arms it).
func (u *UART) handleTxInterrupt() {
	if b, ok := u.tx.Get(); ok {
		u.hw.WriteTx(b)
		u.dbgTxByte()
	} else {
		u.hw.SetTxInterrupt(false)
	}
	select {
	case u.txNotify <- struct{}{}:
	default:
	}
}
