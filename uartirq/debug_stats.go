// uartirq/debug_stats.go

//go:build uartirqdebug

package uartirq

import "sync/atomic"

// Stats holds driver counters since the last reset. Only compiled in with
// the uartirqdebug build tag; the hooks are no-ops otherwise.
type Stats struct {
	RxBytes uint32 // bytes stored by the receive interrupt
	RxDrops uint32 // bytes dropped on RX ring overflow
	TxBytes uint32 // bytes handed to the transmitter
}

type stats struct {
	rxBytes uint32
	rxDrops uint32
	txBytes uint32
}

func (u *UART) dbgRxByte() { atomic.AddUint32(&u.stats.rxBytes, 1) }
func (u *UART) dbgRxDrop() { atomic.AddUint32(&u.stats.rxDrops, 1) }
func (u *UART) dbgTxByte() { atomic.AddUint32(&u.stats.txBytes, 1) }

// DebugStats returns a copy of the counters.
func (u *UART) DebugStats() Stats {
	return Stats{
		RxBytes: atomic.LoadUint32(&u.stats.rxBytes),
		RxDrops: atomic.LoadUint32(&u.stats.rxDrops),
		TxBytes: atomic.LoadUint32(&u.stats.txBytes),
	}
}

// DebugReset zeroes the counters.
func (u *UART) DebugReset() {
	atomic.StoreUint32(&u.stats.rxBytes, 0)
	atomic.StoreUint32(&u.stats.rxDrops, 0)
	atomic.StoreUint32(&u.stats.txBytes, 0)
}
