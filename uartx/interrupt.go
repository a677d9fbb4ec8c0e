package uartx

// Interrupt controller registers used by the UART modules (PIC32MX1xx/2xx).
const (
	IFS1 uintptr = 0xBF881040
	IEC1 uintptr = 0xBF881070
	IPC8 uintptr = 0xBF881110
	IPC9 uintptr = 0xBF881120
)

// Priority and Subpriority are shared by every UART receive interrupt (IPL4).
const (
	Priority    = 4
	Subpriority = 0
)

// NumVectors is the size of the CPU's multi-vector table.
const NumVectors = 64

const ipcFieldMask = 0x1F // priority <4:2>, subpriority <1:0>

// Interrupt describes one UART's slice of the interrupt controller.
type Interrupt struct {
	bus Bus

	Vector int
	IFS    uintptr // flag register
	IEC    uintptr // enable register
	IPC    uintptr // priority register

	Mask          uint32 // error, receive and transmit bits in IFS/IEC
	RXMask        uint32 // receive bit in IFS/IEC
	PriorityShift uint8  // position of the 5-bit priority field in IPC
}

// Disable masks every interrupt source of the module.
func (irq *Interrupt) Disable() {
	irq.bus.Store(irq.IEC+clrOffset, irq.Mask)
}

// Enable unmasks the receive interrupt only.
func (irq *Interrupt) Enable() {
	irq.bus.Store(irq.IEC+setOffset, irq.RXMask)
}

// Enabled reports whether the receive interrupt is unmasked.
func (irq *Interrupt) Enabled() bool {
	return irq.bus.Load(irq.IEC)&irq.RXMask != 0
}

func (irq *Interrupt) SetPriority(prio, sub uint8) {
	v := uint32(prio&0x7)<<2 | uint32(sub&0x3)
	irq.bus.Store(irq.IPC+clrOffset, ipcFieldMask<<irq.PriorityShift)
	irq.bus.Store(irq.IPC+setOffset, v<<irq.PriorityShift)
}

// Priority returns the priority and subpriority programmed in IPC.
func (irq *Interrupt) Priority() (prio, sub uint8) {
	v := irq.bus.Load(irq.IPC) >> irq.PriorityShift & ipcFieldMask
	return uint8(v >> 2), uint8(v & 0x3)
}

// ClearPending acknowledges every pending flag of the module.
func (irq *Interrupt) ClearPending() {
	irq.bus.Store(irq.IFS+clrOffset, irq.Mask)
}

// Pending reports whether the receive flag is raised.
func (irq *Interrupt) Pending() bool {
	return irq.bus.Load(irq.IFS)&irq.RXMask != 0
}

var handlers [NumVectors]func()

// setHandler installs h for vector. It is called from package init only, so
// the table is fixed before any interrupt can fire.
func setHandler(vector int, h func()) {
	if handlers[vector] != nil {
		panic("uartx: vector already bound")
	}
	handlers[vector] = h
}

// Dispatch runs the handler bound to vector. The platform's interrupt entry
// calls it with the vector masked, so handlers never nest.
func Dispatch(vector int) {
	if vector < 0 || vector >= NumVectors || handlers[vector] == nil {
		panic("uartx: unhandled interrupt")
	}
	handlers[vector]()
}

// handleInterrupt moves exactly one byte from UxRXREG into the ring, then
// acknowledges the interrupt and coalesces a Readable wake-up.
func (u *UART) handleInterrupt() {
	b := byte(u.Regs.Load(RXREG))
	u.dbgOnByte()
	u.Buffer.Put(b)
	u.Interrupt.ClearPending()

	select {
	case u.notify <- struct{}{}:
		u.dbgNotify(true)
	default:
		u.dbgNotify(false)
	}
	u.dbgISR()
}
