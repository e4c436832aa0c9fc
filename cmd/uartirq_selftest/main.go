//go:build atmega328p

// On-device selftest: brings the UART up at 9600 baud, announces itself,
// then echoes everything it receives. Receive status flags are reported
// inline so a host running `uartirq-host listen` can spot framing/overrun/
// overflow conditions while hammering the link.
package main

import (
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-uartirq/uartirq"
)

var u = uartirq.UART0

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	u.Init(uartirq.BaudSelect(9600, machine.CPUFrequency()))
	u.WriteString("uartirq selftest ready\r\n")

	lastFlags := uartirq.RxFlags(0)
	for {
		b, flags, ok := u.TryReadByte()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		led.Set(!led.Get())
		_ = u.WriteByte(b)
		if flags != lastFlags {
			lastFlags = flags
			u.WriteString(" [")
			u.WriteString(flags.String())
			u.WriteString("] ")
		}
	}
}
