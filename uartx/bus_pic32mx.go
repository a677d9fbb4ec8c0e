//go:build pic32mx

package uartx

import (
	"runtime/volatile"
	"unsafe"
)

// mmio accesses SFRs through their KSEG1 (uncached) addresses.
type mmio struct{}

func (mmio) Load(addr uintptr) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(addr)).Get()
}

func (mmio) Store(addr uintptr, v uint32) {
	(*volatile.Register32)(unsafe.Pointer(addr)).Set(v)
}

var defaultBus Bus = mmio{}

// dispatch is called by the multi-vector exception stubs with the vector
// number of the interrupt being serviced.
//
//export uartx_dispatch
func dispatch(vector uint32) {
	Dispatch(int(vector))
}
