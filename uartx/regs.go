package uartx

// Bus performs word-sized volatile accesses at physical addresses. On the
// target it is plain MMIO; on the host it is usually a simulator.
type Bus interface {
	Load(addr uintptr) uint32
	Store(addr uintptr, v uint32)
}

// Reg is a register offset relative to a UART module's base address.
type Reg uintptr

// UxMODE, UxSTA, UxTXREG, UxRXREG and UxBRG.
const (
	MODE  Reg = 0x00
	STA   Reg = 0x10
	TXREG Reg = 0x20
	RXREG Reg = 0x30
	BRG   Reg = 0x40
)

// Every PIC32 SFR is followed by CLR, SET and INV aliases. Writing a mask to
// an alias clears, sets or inverts those bits atomically in hardware.
const (
	clrOffset = 0x4
	setOffset = 0x8
	invOffset = 0xC
)

// UxMODE bits.
const (
	MODE_BRGH = 1 << 3  // high speed: 4x clock per bit instead of 16x
	MODE_ON   = 1 << 15 // module enable
)

// UxSTA bits.
const (
	STA_URXDA = 1 << 0  // receive buffer has data
	STA_OERR  = 1 << 1  // receive overrun
	STA_TRMT  = 1 << 8  // transmit shift register empty
	STA_UTXBF = 1 << 9  // transmit buffer full
	STA_UTXEN = 1 << 10 // transmitter enable
	STA_URXEN = 1 << 12 // receiver enable
)

// Registers gives typed access to one UART module's register block.
// It performs no validation; values go to the hardware as written.
type Registers struct {
	bus  Bus
	base uintptr
}

// NewRegisters binds a register block at base to bus.
func NewRegisters(bus Bus, base uintptr) Registers {
	return Registers{bus: bus, base: base}
}

// Base returns the address of the module's UxMODE register.
func (r Registers) Base() uintptr { return r.base }

func (r Registers) Load(reg Reg) uint32 {
	return r.bus.Load(r.base + uintptr(reg))
}

func (r Registers) Store(reg Reg, v uint32) {
	r.bus.Store(r.base+uintptr(reg), v)
}

// SetBits sets mask in reg through the SET alias.
func (r Registers) SetBits(reg Reg, mask uint32) {
	r.bus.Store(r.base+uintptr(reg)+setOffset, mask)
}

// ClearBits clears mask in reg through the CLR alias.
func (r Registers) ClearBits(reg Reg, mask uint32) {
	r.bus.Store(r.base+uintptr(reg)+clrOffset, mask)
}

// HasBits reports whether every bit in mask is set in reg.
func (r Registers) HasBits(reg Reg, mask uint32) bool {
	return r.Load(reg)&mask == mask
}
