// uartirq/debug_stubs.go

//go:build !uartirqdebug

package uartirq

// No-op counter hooks for regular builds. The real ones live in
// debug_stats.go behind the uartirqdebug build tag.

type stats struct{}

func (u *UART) dbgRxByte() {}
func (u *UART) dbgRxDrop() {}
func (u *UART) dbgTxByte() {}
