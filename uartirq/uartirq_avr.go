// uartirq/uartirq_avr.go

//go:build atmega328p

package uartirq

import (
	"device/avr"
	"machine"
	"runtime/interrupt"

	"tinygo.org/x/drivers"
)

// UART0 drives the chip's USART0 through the interrupt-driven core. The
// receive-complete vector feeds the RX ring; the data-register-empty vector
// drains the TX ring and masks itself when there is nothing left.
var (
	UART0  = &_UART0
	_UART0 = UART{
		hw:       usart0{},
		rx:       NewRingBuffer(RxBufferSize),
		tx:       NewRingBuffer(TxBufferSize),
		notify:   make(chan struct{}, 1),
		txNotify: make(chan struct{}, 1),
	}
)

func init() {
	interrupt.New(avr.IRQ_USART_RX, handleUSART0Rx)
	interrupt.New(avr.IRQ_USART_UDRE, handleUSART0Udre)
}

func handleUSART0Rx(interrupt.Interrupt)   { _UART0.handleRxInterrupt() }
func handleUSART0Udre(interrupt.Interrupt) { _UART0.handleTxInterrupt() }

// Configure programs the UART from a high-level config, computing the
// normal-speed divisor from the CPU clock, and brings the driver up.
func (u *UART) Configure(cfg UARTConfig) error {
	br := cfg.BaudRate
	if br == 0 {
		br = 9600
	}
	u.Init(BaudSelect(br, machine.CPUFrequency()))
	return nil
}

// The driver satisfies the tinygo.org/x/drivers UART interface (an
// io.Reader/io.Writer with Buffered), so it can be handed directly to
// ecosystem device drivers.
var _ drivers.UART = (*UART)(nil)

// usart0 implements Hardware over the memory-mapped USART0 registers.
type usart0 struct{}

// ReadRx reads status before data: UCSR0A describes the byte sitting in
// UDR0 until UDR0 is read.
func (usart0) ReadRx() (byte, RxFlags) {
	st := avr.UCSR0A.Get()
	data := avr.UDR0.Get()
	var flags RxFlags
	if st&avr.UCSR0A_FE0 != 0 {
		flags |= RxFrameError
	}
	if st&avr.UCSR0A_DOR0 != 0 {
		flags |= RxOverrun
	}
	return data, flags
}

func (usart0) WriteTx(b byte) {
	avr.UDR0.Set(b)
}

func (usart0) SetTxInterrupt(enable bool) {
	if enable {
		avr.UCSR0B.SetBits(avr.UCSR0B_UDRIE0)
	} else {
		avr.UCSR0B.ClearBits(avr.UCSR0B_UDRIE0)
	}
}

func (usart0) Program(cfg BaudConfig) {
	if cfg.DoubleSpeed() {
		avr.UCSR0A.Set(avr.UCSR0A_U2X0)
	}
	div := cfg.Divisor()
	avr.UBRR0H.Set(uint8(div >> 8))
	avr.UBRR0L.Set(uint8(div))
	// Frame format: asynchronous, 8 data bits, no parity, 1 stop bit.
	avr.UCSR0C.Set(avr.UCSR0C_UCSZ01 | avr.UCSR0C_UCSZ00)
}

func (usart0) EnableRxTx() {
	avr.UCSR0B.Set(avr.UCSR0B_RXCIE0 | avr.UCSR0B_RXEN0 | avr.UCSR0B_TXEN0)
}

func (usart0) EnableInterrupts() {
	avr.Asm("sei")
}
