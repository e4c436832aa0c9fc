// uartirq/reg_host.go

//go:build !tinygo

package uartirq

import "sync/atomic"

// reg8 is the host stand-in for volatile.Register8 so the driver and its
// tests build with the regular Go toolchain. Tests model interrupt context
// with goroutines, so accesses are atomic to keep the race detector quiet.
type reg8 struct {
	v uint32
}

func (r *reg8) Get() uint8 {
	return uint8(atomic.LoadUint32(&r.v))
}

func (r *reg8) Set(value uint8) {
	atomic.StoreUint32(&r.v, uint32(value))
}
