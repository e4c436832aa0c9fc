// uartirq/baud.go

package uartirq

// BaudConfig carries the hardware baud-rate divisor, with bit 15 selecting
// double-speed mode. Compute it with BaudSelect or BaudSelectDoubleSpeed and
// pass it to Init; the driver core treats it as opaque and hands it to the
// backend's Program.
type BaudConfig uint16

const doubleSpeedBit = 0x8000

// BaudSelect returns the divisor for normal-speed operation. clockHz is the
// peripheral clock in Hz, baud the desired bit rate.
func BaudSelect(baud, clockHz uint32) BaudConfig {
	return BaudConfig(clockHz/(baud*16) - 1)
}

// BaudSelectDoubleSpeed returns the divisor for double-speed operation (the
// transmitter clocked at 8 samples per bit instead of 16), with the mode bit
// set so Program selects double speed. Useful when the normal-speed divisor
// is too coarse for the target rate, e.g. 115200 baud on a 16 MHz clock.
func BaudSelectDoubleSpeed(baud, clockHz uint32) BaudConfig {
	return BaudConfig(clockHz/(baud*8)-1) | doubleSpeedBit
}

// DoubleSpeed reports whether the double-speed mode bit is set.
func (c BaudConfig) DoubleSpeed() bool {
	return c&doubleSpeedBit != 0
}

// Divisor returns the numeric divisor with the mode bit stripped.
func (c BaudConfig) Divisor() uint16 {
	return uint16(c &^ doubleSpeedBit)
}
