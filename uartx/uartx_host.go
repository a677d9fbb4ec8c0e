//go:build !pic32mx

package uartx

// Host build: there are no SFRs, so instances start on a bus that reads
// zero and ignores stores. Tests and the simulator swap in a real model with
// UseBus.

type idleBus struct{}

func (idleBus) Load(uintptr) uint32   { return 0 }
func (idleBus) Store(uintptr, uint32) {}

var defaultBus Bus = idleBus{}

// UseBus rebinds every compiled-in instance to bus. Call it before Init and
// never while an instance is in use.
func UseBus(bus Bus) {
	if bus == nil {
		bus = idleBus{}
	}
	for _, u := range instances {
		u.bind(bus)
	}
}
