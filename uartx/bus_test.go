package uartx

import "sync"

// access is one recorded bus operation.
type access struct {
	store bool
	addr  uintptr
	val   uint32
}

// fakeBus is word memory with PIC32 CLR/SET/INV alias semantics. Loads of
// the scripted address return the script in order, repeating the last value.
type fakeBus struct {
	mu     sync.Mutex
	mem    map[uintptr]uint32
	script map[uintptr][]uint32
	log    []access
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		mem:    make(map[uintptr]uint32),
		script: make(map[uintptr][]uint32),
	}
}

func (b *fakeBus) Load(addr uintptr) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.mem[addr]
	if s := b.script[addr]; len(s) > 0 {
		v = s[0]
		if len(s) > 1 {
			b.script[addr] = s[1:]
		}
	}
	b.log = append(b.log, access{addr: addr, val: v})
	return v
}

func (b *fakeBus) Store(addr uintptr, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = append(b.log, access{store: true, addr: addr, val: v})
	reg := addr &^ 0xF
	switch addr & 0xF {
	case clrOffset:
		b.mem[reg] &^= v
	case setOffset:
		b.mem[reg] |= v
	case invOffset:
		b.mem[reg] ^= v
	default:
		b.mem[addr] = v
	}
}

func (b *fakeBus) get(addr uintptr) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mem[addr]
}

func (b *fakeBus) set(addr uintptr, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mem[addr] = v
}

// setScript makes successive loads of addr return vals.
func (b *fakeBus) setScript(addr uintptr, vals ...uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script[addr] = vals
}

func (b *fakeBus) accesses() []access {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]access(nil), b.log...)
}

func (b *fakeBus) resetLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.log = nil
}

// newTestUART returns a private instance wired like UART1 on bus.
func newTestUART(bus Bus) *UART {
	u := newUART("TEST", _UART1.Regs.Base(), _UART1.Interrupt)
	u.bind(bus)
	return &u
}

// deliver simulates the hardware receiving b and raising the interrupt.
func deliver(u *UART, bus *fakeBus, b byte) {
	bus.set(u.Regs.Base()+uintptr(RXREG), uint32(b))
	bus.set(u.Interrupt.IFS, bus.get(u.Interrupt.IFS)|u.Interrupt.RXMask)
	u.handleInterrupt()
}
