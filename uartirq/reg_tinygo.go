// uartirq/reg_tinygo.go

//go:build tinygo

package uartirq

import "runtime/volatile"

// reg8 is a single-byte cell shared between interrupt and mainline context.
// On TinyGo targets volatile access is sufficient: single-byte loads and
// stores are atomic on every supported core.
type reg8 = volatile.Register8
