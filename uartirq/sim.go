// uartirq/sim.go

package uartirq

import "sync"

// SimBus is an in-memory Hardware backend standing in for a serial
// peripheral in tests, host demos and the loopback tool. Received bytes are
// injected with Inject, which runs the real receive interrupt handler;
// transmitted bytes accumulate in a capture buffer.
//
// The interrupt context is whichever goroutine calls Inject or ServiceTx.
// The rings' single-writer discipline holds as long as one goroutine plays
// the interrupt side per direction, mirroring the hardware it replaces.
type SimBus struct {
	u *UART

	// AutoDrain, when set, services transmit interrupts synchronously inside
	// SetTxInterrupt, emulating a transmitter that is always ready. When
	// clear, the caller drives draining explicitly with ServiceTx.
	AutoDrain bool

	mu        sync.Mutex
	txEnabled bool
	pendData  byte
	pendFlags RxFlags
	sent      []byte

	cfg    BaudConfig
	rxtxOn bool
	irqOn  bool
}

// NewSim returns a simulated bus and a driver bound to it, using the default
// ring sizes.
func NewSim() (*UART, *SimBus) {
	return NewSimWithSizes(RxBufferSize, TxBufferSize)
}

// NewSimWithSizes is NewSim with explicit ring sizes (powers of two).
func NewSimWithSizes(rxSize, txSize int) (*UART, *SimBus) {
	s := &SimBus{}
	u := NewWithSizes(s, rxSize, txSize)
	s.u = u
	return u, s
}

// ---------------------------- Stimulus side ----------------------------

// Inject delivers one byte as if it had arrived on the wire, running the
// receive interrupt handler with the given hardware status flags.
func (s *SimBus) Inject(b byte, flags RxFlags) {
	s.mu.Lock()
	s.pendData, s.pendFlags = b, flags
	s.mu.Unlock()
	s.u.handleRxInterrupt()
}

// InjectString delivers each byte of str in order with clean status.
func (s *SimBus) InjectString(str string) {
	for i := 0; i < len(str); i++ {
		s.Inject(str[i], 0)
	}
}

// ServiceTx runs transmit interrupts for as long as the interrupt source
// stays enabled, emulating a transmitter that is ready again immediately
// after each byte. It returns when the handler has masked itself (TX ring
// empty).
func (s *SimBus) ServiceTx() {
	for s.TxInterruptEnabled() {
		s.u.handleTxInterrupt()
	}
}

// Sent returns a copy of everything transmitted so far.
func (s *SimBus) Sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

// ResetSent clears the capture buffer.
func (s *SimBus) ResetSent() {
	s.mu.Lock()
	s.sent = s.sent[:0]
	s.mu.Unlock()
}

// TxInterruptEnabled reports whether the transmit-ready interrupt source is
// currently unmasked.
func (s *SimBus) TxInterruptEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txEnabled
}

// Programmed returns the last BaudConfig handed to Program.
func (s *SimBus) Programmed() BaudConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Running reports whether EnableRxTx and EnableInterrupts have both been
// called, i.e. the driver finished Init.
func (s *SimBus) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rxtxOn && s.irqOn
}

// ---------------------------- Hardware side ----------------------------

func (s *SimBus) ReadRx() (byte, RxFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendData, s.pendFlags
}

func (s *SimBus) WriteTx(b byte) {
	s.mu.Lock()
	s.sent = append(s.sent, b)
	s.mu.Unlock()
}

func (s *SimBus) SetTxInterrupt(enable bool) {
	s.mu.Lock()
	s.txEnabled = enable
	auto := enable && s.AutoDrain
	s.mu.Unlock()
	if auto {
		s.ServiceTx()
	}
}

func (s *SimBus) Program(cfg BaudConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *SimBus) EnableRxTx() {
	s.mu.Lock()
	s.rxtxOn = true
	s.mu.Unlock()
}

func (s *SimBus) EnableInterrupts() {
	s.mu.Lock()
	s.irqOn = true
	s.mu.Unlock()
}
