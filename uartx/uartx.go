// uartx/uartx.go

// Package uartx provides an interrupt-driven UART driver for the PIC32MX1xx/2xx
// family. Each received byte raises one receive interrupt, whose handler moves
// it into a software ring buffer; foreground reads drain that ring without
// blocking. Transmission is synchronous: WriteByte spins until the transmit
// buffer has room and then stores the byte.
//
// Pin mapping (PPS) and port direction must be configured by the caller
// before Init, and interrupts must be enabled in multi-vector mode.
package uartx

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferEmpty is returned by reads when no received byte is buffered.
	ErrBufferEmpty = errors.New("UART buffer empty")
	// ErrInvalidBaudRate is returned by Configure when the baud rate cannot be
	// produced from the peripheral clock.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
)

// DefaultBaudRate is used by Configure when Config.BaudRate is zero.
const DefaultBaudRate = 115200

// Speed selects the UxMODE.BRGH setting used by Configure.
type Speed uint8

const (
	// SpeedAuto picks whichever mode gives the smaller baud error.
	SpeedAuto Speed = iota
	// SpeedStandard uses 16 clocks per bit.
	SpeedStandard
	// SpeedHigh uses 4 clocks per bit (double speed).
	SpeedHigh
)

// Config is the validated front end to Init.
type Config struct {
	BaudRate uint32
	Speed    Speed
}

// UART is one PIC32 UART module. Instances are static (UART1, UART2) and live
// for the whole program.
//
// Invariants:
//   - Buffer.Put is called only by handleInterrupt.
//   - Every other Buffer method is called only from the foreground.
//   - Regs is written from the foreground only, except RXREG reads and the
//     IFS acknowledge done by the handler.
type UART struct {
	Buffer    *RingBuffer // software RX ring fed by the interrupt handler
	Regs      Registers   // UxMODE..UxBRG
	Interrupt Interrupt

	notify chan struct{} // coalesced RX readiness notifications

	name      string
	formatter Formatter
	baud      uint32
	double    bool

	stats Stats
}

func newUART(name string, base uintptr, irq Interrupt) UART {
	u := UART{
		Buffer:    NewRingBuffer(),
		Regs:      NewRegisters(nil, base),
		Interrupt: irq,
		notify:    make(chan struct{}, 1),
		name:      name,
	}
	u.bind(defaultBus)
	return u
}

// bind points the register block and interrupt descriptor at bus.
func (u *UART) bind(bus Bus) {
	u.Regs.bus = bus
	u.Interrupt.bus = bus
}

// Name returns the instance name, e.g. "UART1".
func (u *UART) Name() string { return u.name }

// Baud returns the baud rate passed to the last Init.
func (u *UART) Baud() uint32 { return u.baud }

// DoubleSpeed reports whether the last Init selected double-speed mode.
func (u *UART) DoubleSpeed() bool { return u.double }

// Init resets the receive ring, wires the receive interrupt and programs the
// baud divisor, status and mode registers. It does not validate its
// arguments and must not run concurrently with itself on the same instance.
func (u *UART) Init(baud uint32, doubleSpeed bool) {
	// Mask first so the handler cannot touch the ring while it is reset.
	u.Interrupt.Disable()
	u.Buffer.Clear()

	u.Interrupt.SetPriority(Priority, Subpriority)
	u.Interrupt.ClearPending()
	u.Interrupt.Enable()

	u.Regs.Store(BRG, Divisor(PeripheralClock(), baud, doubleSpeed))
	u.Regs.Store(STA, STA_UTXEN|STA_URXEN)
	mode := uint32(MODE_ON)
	if doubleSpeed {
		mode |= MODE_BRGH
	}
	u.Regs.Store(MODE, mode)

	u.baud = baud
	u.double = doubleSpeed
}

// Configure validates cfg against the peripheral clock and calls Init.
func (u *UART) Configure(cfg Config) error {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	clock := PeripheralClock()

	var double bool
	switch cfg.Speed {
	case SpeedAuto:
		double = BestSpeed(clock, cfg.BaudRate)
	case SpeedHigh:
		double = true
	}

	k := uint64(multiplier(double))
	if q := uint64(clock) / (k * uint64(cfg.BaudRate)); q == 0 || q-1 > maxDivisor {
		return fmt.Errorf("%s: %d baud from %d Hz: %w", u.name, cfg.BaudRate, clock, ErrInvalidBaudRate)
	}

	u.Init(cfg.BaudRate, double)
	return nil
}

// BytesAvailable returns the number of received bytes waiting in the ring.
func (u *UART) BytesAvailable() int {
	return u.Buffer.Used()
}

// Buffered is BytesAvailable under the name used by TinyGo's machine.UART.
func (u *UART) Buffered() int { return u.BytesAvailable() }

// Flush discards every received byte not yet read.
func (u *UART) Flush() {
	u.Buffer.Flush()
}

// Overruns returns how many received bytes were overwritten before being read.
func (u *UART) Overruns() uint32 {
	return u.Buffer.Overruns()
}

// ReadByte reads a single byte from the software RX buffer.
// If there is no data available, it returns ErrBufferEmpty.
func (u *UART) ReadByte() (byte, error) {
	b, ok := u.Buffer.Get()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return b, nil
}

// PeekByte returns the next byte ReadByte would return without consuming it.
func (u *UART) PeekByte() (byte, error) {
	b, ok := u.Buffer.Peek()
	if !ok {
		return 0, ErrBufferEmpty
	}
	return b, nil
}

// TryRead returns immediately with up to len(p) bytes copied from the RX buffer.
// A return value of 0 means “no data now”.
func (u *UART) TryRead(p []byte) int {
	n := 0
	for n < len(p) {
		b, ok := u.Buffer.Get()
		if !ok {
			break
		}
		p[n] = b
		n++
	}
	return n
}

// Read copies min(len(p), BytesAvailable()) bytes in arrival order. It never
// blocks; a count below len(p) means the ring ran dry.
func (u *UART) Read(p []byte) (int, error) {
	return u.TryRead(p), nil
}

// WriteByte spins while the transmit buffer is full, then writes c to
// UxTXREG. There is no timeout: if the transmitter never drains (module off,
// line stuck) the call never returns.
func (u *UART) WriteByte(c byte) error {
	for u.Regs.HasBits(STA, STA_UTXBF) {
		u.dbgTxSpin()
	}
	u.Regs.Store(TXREG, uint32(c))
	return nil
}

// Write implements io.Writer by calling WriteByte for each byte in order.
func (u *UART) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := u.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// TryWrite stores bytes while the transmit buffer has room and returns how
// many were accepted. It never spins.
func (u *UART) TryWrite(p []byte) int {
	n := 0
	for n < len(p) && !u.Regs.HasBits(STA, STA_UTXBF) {
		u.Regs.Store(TXREG, uint32(p[n]))
		n++
	}
	return n
}

// Writev writes the provided buffers in sequence with the same blocking behaviour as Write.
// It stops on the first error and returns the total number of bytes written up to that point.
func (u *UART) Writev(bufs ...[]byte) (int, error) {
	sent := 0
	for _, p := range bufs {
		n, err := u.Write(p)
		sent += n
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}
