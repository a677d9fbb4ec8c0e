//go:build uartxdebug

package uartx

import "sync/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	// ISR-level
	ISRCount      uint32 // number of receive interrupts serviced
	NotifySent    uint32 // notify channel sends that succeeded
	NotifyDropped uint32 // notify channel sends that were dropped (already pending)

	// Ring buffer
	RingPuts       uint32 // bytes stored into free space
	RingOverwrites uint32 // bytes stored over an unread byte
	RingMaxUsed    uint32 // high-water mark of ring occupancy

	// Blocking API behaviour
	ReadWaits     uint32 // times a blocking read had to wait
	SpuriousWakes uint32 // notify received but no data available
	Timeouts      uint32 // context ends in blocking reads

	// Transmit
	TxSpins uint32 // UTXBF polls that found the buffer full
}

func (u *UART) DebugReset() {
	// Zero the struct by reassigning (safe as Stats is POD)
	u.stats = Stats{}
}

func (u *UART) DebugStats() Stats {
	// Return a copy; 32-bit atomic loads are single instructions on MIPS32.
	return Stats{
		ISRCount:      atomic.LoadUint32(&u.stats.ISRCount),
		NotifySent:    atomic.LoadUint32(&u.stats.NotifySent),
		NotifyDropped: atomic.LoadUint32(&u.stats.NotifyDropped),

		RingPuts:       atomic.LoadUint32(&u.stats.RingPuts),
		RingOverwrites: atomic.LoadUint32(&u.stats.RingOverwrites),
		RingMaxUsed:    atomic.LoadUint32(&u.stats.RingMaxUsed),

		ReadWaits:     atomic.LoadUint32(&u.stats.ReadWaits),
		SpuriousWakes: atomic.LoadUint32(&u.stats.SpuriousWakes),
		Timeouts:      atomic.LoadUint32(&u.stats.Timeouts),

		TxSpins: atomic.LoadUint32(&u.stats.TxSpins),
	}
}

// Regs is a snapshot of the module's registers and its interrupt slice.
type Regs struct {
	MODE uint32
	STA  uint32
	BRG  uint32
	IFS  uint32 // masked to this module's bits
	IEC  uint32 // masked to this module's bits
	IPC  uint32 // 5-bit priority field, shifted down
}

func (u *UART) DebugRegs() Regs {
	irq := &u.Interrupt
	return Regs{
		MODE: u.Regs.Load(MODE),
		STA:  u.Regs.Load(STA),
		BRG:  u.Regs.Load(BRG),
		IFS:  irq.bus.Load(irq.IFS) & irq.Mask,
		IEC:  irq.bus.Load(irq.IEC) & irq.Mask,
		IPC:  irq.bus.Load(irq.IPC) >> irq.PriorityShift & ipcFieldMask,
	}
}
