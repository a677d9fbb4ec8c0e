// Package sim is a register-level model of the PIC32MX UART modules and the
// slice of the interrupt controller they use. A Board implements uartx.Bus;
// bind it with uartx.UseBus and the real driver runs against it unchanged.
//
// Receive interrupts are raised by calling uartx.Dispatch on the goroutine
// that delivered the byte. Delivery is serialized per board, which stands in
// for the CPU masking a vector while its handler runs.
package sim

import (
	"sync"

	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
)

// Alias offsets of every SFR.
const (
	aliasMask = 0xF
	clrOffset = 0x4
	setOffset = 0x8
	invOffset = 0xC
)

// blockSize covers UxMODE through the aliases of UxBRG.
const blockSize = uintptr(uartx.BRG) + 0x10

// Board is word-addressed SFR memory with one Port per compiled-in UART.
type Board struct {
	mu    sync.Mutex // guards mem and every Port's state
	irqMu sync.Mutex // held while a handler runs

	mem   map[uintptr]uint32
	ports []*Port
}

// NewBoard returns a board with every register reset to zero and a Port for
// each instance in uartx.Instances.
func NewBoard() *Board {
	b := &Board{mem: make(map[uintptr]uint32)}
	for _, u := range uartx.Instances() {
		b.ports = append(b.ports, newPort(b, u))
	}
	return b
}

// Ports returns the board's ports in module order.
func (b *Board) Ports() []*Port { return b.ports }

// Port returns the port modelling the named instance, or nil.
func (b *Board) Port(name string) *Port {
	for _, p := range b.ports {
		if p.name == name {
			return p
		}
	}
	return nil
}

// portAt returns the port whose register block holds reg and reg's offset.
func (b *Board) portAt(reg uintptr) (*Port, uartx.Reg) {
	for _, p := range b.ports {
		if reg >= p.base && reg < p.base+blockSize {
			return p, uartx.Reg(reg - p.base)
		}
	}
	return nil, 0
}

// Load implements uartx.Bus. Reading UxRXREG pops the receive FIFO.
func (b *Board) Load(addr uintptr) uint32 {
	reg := addr &^ aliasMask
	b.mu.Lock()
	v := b.peek(reg)
	if p, off := b.portAt(reg); p != nil && off == uartx.RXREG {
		v = p.pop()
	}
	b.mu.Unlock()

	if glog.V(3) {
		glog.Infof("load  %08x -> %08x", addr, v)
	}
	return v
}

// Store implements uartx.Bus with CLR/SET/INV alias decoding. A plain store
// to UxTXREG transmits; stores that can unmask a receive interrupt re-check
// the receive line.
func (b *Board) Store(addr uintptr, v uint32) {
	if glog.V(3) {
		glog.Infof("store %08x <- %08x", addr, v)
	}
	reg := addr &^ aliasMask

	b.mu.Lock()
	switch addr & aliasMask {
	case clrOffset:
		b.mem[reg] &^= v
	case setOffset:
		b.mem[reg] |= v
	case invOffset:
		b.mem[reg] ^= v
	default:
		b.mem[reg] = v
	}

	var (
		tx      *Port
		recheck []*Port
	)
	if p, off := b.portAt(reg); p != nil {
		switch off {
		case uartx.TXREG:
			if addr&aliasMask == 0 && p.accept(byte(v)) {
				tx = p
			}
		case uartx.MODE, uartx.STA:
			recheck = append(recheck, p)
		}
	}
	for _, p := range b.ports {
		if reg == p.irq.IEC {
			recheck = append(recheck, p)
		}
	}
	b.mu.Unlock()

	if tx != nil {
		tx.forward(byte(v))
	}
	for _, p := range recheck {
		p.service()
	}
}

// Reg returns the value of the register at addr without side effects.
func (b *Board) Reg(addr uintptr) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peek(addr &^ aliasMask)
}

// peek returns reg with status bits composed from port state. Callers hold mu.
func (b *Board) peek(reg uintptr) uint32 {
	v := b.mem[reg]
	if p, off := b.portAt(reg); p != nil && off == uartx.STA {
		v = p.status(v)
	}
	return v
}
