//go:build rp2040

package main

import (
	"runtime/volatile"
	"stopwatch/core"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latching side effects
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// InitClock hands the RP2040's 1MHz free-running timer to the scheduler
func InitClock() {
	core.SetHardwareTimer(GetHardwareTime)
}

// GetHardwareTime reads the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return timerRAWL.Get()
}
