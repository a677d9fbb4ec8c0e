package sim

import (
	"io"

	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
)

// FIFODepth is the size of each module's hardware receive FIFO.
const FIFODepth = 8

// Port models one UART module: its receive FIFO, its transmitter and the
// line it is wired to.
type Port struct {
	board *Board
	name  string
	base  uintptr
	irq   uartx.Interrupt

	// Guarded by board.mu.
	rx      []byte
	stalled bool
	out     io.Writer
	peer    *Port
	sent    []byte
	dropped int
}

func newPort(b *Board, u *uartx.UART) *Port {
	return &Port{
		board: b,
		name:  u.Name(),
		base:  u.Regs.Base(),
		irq:   u.Interrupt,
	}
}

// Name returns the name of the modelled instance.
func (p *Port) Name() string { return p.name }

// Base returns the module's base address.
func (p *Port) Base() uintptr { return p.base }

func (p *Port) reg(r uartx.Reg) uintptr { return p.base + uintptr(r) }

// receiving reports whether the module is on with its receiver enabled.
// Callers hold board.mu.
func (p *Port) receiving() bool {
	m := p.board.mem
	return m[p.reg(uartx.MODE)]&uartx.MODE_ON != 0 && m[p.reg(uartx.STA)]&uartx.STA_URXEN != 0
}

func (p *Port) transmitting() bool {
	m := p.board.mem
	return m[p.reg(uartx.MODE)]&uartx.MODE_ON != 0 && m[p.reg(uartx.STA)]&uartx.STA_UTXEN != 0
}

// status composes the read-only UxSTA bits onto the stored value.
func (p *Port) status(v uint32) uint32 {
	v &^= uartx.STA_URXDA | uartx.STA_UTXBF | uartx.STA_TRMT
	if len(p.rx) > 0 {
		v |= uartx.STA_URXDA
	}
	if p.stalled {
		v |= uartx.STA_UTXBF
	} else {
		v |= uartx.STA_TRMT
	}
	return v
}

// pop removes the oldest byte from the receive FIFO. An empty FIFO reads
// as zero.
func (p *Port) pop() uint32 {
	if len(p.rx) == 0 {
		return 0
	}
	c := p.rx[0]
	p.rx = p.rx[1:]
	return uint32(c)
}

// accept records c as transmitted when the transmitter is enabled. Callers
// hold board.mu.
func (p *Port) accept(c byte) bool {
	if !p.transmitting() {
		p.dropped++
		glog.Warningf("%s: TXREG write %#02x with transmitter disabled", p.name, c)
		return false
	}
	p.sent = append(p.sent, c)
	return true
}

// forward puts c on the line. Called without board.mu.
func (p *Port) forward(c byte) {
	p.board.mu.Lock()
	out, peer := p.out, p.peer
	p.board.mu.Unlock()

	if out != nil {
		if _, err := out.Write([]byte{c}); err != nil {
			glog.Errorf("%s: output: %v", p.name, err)
		}
	}
	if peer != nil {
		peer.Deliver(c)
	}
}

// Deliver models c arriving on the receive pin. It returns false when the
// byte is lost: the receiver is off, or the FIFO is full, which also sets
// UxSTA.OERR.
func (p *Port) Deliver(c byte) bool {
	b := p.board
	b.mu.Lock()
	if !p.receiving() {
		b.mu.Unlock()
		glog.V(2).Infof("%s: receiver off, dropped %#02x", p.name, c)
		return false
	}
	if len(p.rx) >= FIFODepth {
		b.mem[p.reg(uartx.STA)] |= uartx.STA_OERR
		b.mu.Unlock()
		glog.Warningf("%s: receive FIFO overrun, dropped %#02x", p.name, c)
		return false
	}
	p.rx = append(p.rx, c)
	b.mu.Unlock()

	p.service()
	return true
}

// Send delivers each byte of data in order and returns how many were
// accepted.
func (p *Port) Send(data []byte) int {
	n := 0
	for _, c := range data {
		if p.Deliver(c) {
			n++
		}
	}
	return n
}

// service raises the receive flag while the FIFO holds data and runs the
// handler for as long as the interrupt stays enabled.
func (p *Port) service() {
	b := p.board
	b.irqMu.Lock()
	defer b.irqMu.Unlock()

	for {
		b.mu.Lock()
		ready := len(p.rx) > 0 && p.receiving()
		if ready {
			b.mem[p.irq.IFS] |= p.irq.RXMask
		}
		fire := ready && b.mem[p.irq.IEC]&p.irq.RXMask != 0
		b.mu.Unlock()
		if !fire {
			return
		}
		if glog.V(2) {
			glog.Infof("%s: vector %d", p.name, p.irq.Vector)
		}
		uartx.Dispatch(p.irq.Vector)
	}
}

// Buffered returns how many bytes wait in the hardware receive FIFO.
func (p *Port) Buffered() int {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	return len(p.rx)
}

// SetTxStalled holds UxSTA.UTXBF set while stalled is true, so WriteByte
// spins.
func (p *Port) SetTxStalled(stalled bool) {
	p.board.mu.Lock()
	p.stalled = stalled
	p.board.mu.Unlock()
	glog.Infof("%s: transmitter stalled=%v", p.name, stalled)
}

// SetOutput copies every transmitted byte to w. A nil w disconnects it.
func (p *Port) SetOutput(w io.Writer) {
	p.board.mu.Lock()
	p.out = w
	p.board.mu.Unlock()
}

// Connect wires p's transmit line to q's receive line and q's to p's.
// Connect(p) with itself is a loopback.
func (p *Port) Connect(q *Port) {
	p.board.mu.Lock()
	p.peer = q
	if q != nil {
		q.peer = p
	}
	p.board.mu.Unlock()
}

// Disconnect removes p's wiring in both directions.
func (p *Port) Disconnect() {
	p.board.mu.Lock()
	if q := p.peer; q != nil && q.peer == p {
		q.peer = nil
	}
	p.peer = nil
	p.board.mu.Unlock()
}

// Transmitted returns a copy of every byte accepted by the transmitter.
func (p *Port) Transmitted() []byte {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	return append([]byte(nil), p.sent...)
}

// ResetTransmitted clears the transmit log.
func (p *Port) ResetTransmitted() {
	p.board.mu.Lock()
	p.sent = nil
	p.board.mu.Unlock()
}

// Dropped returns how many TXREG writes were ignored because the
// transmitter was disabled.
func (p *Port) Dropped() int {
	p.board.mu.Lock()
	defer p.board.mu.Unlock()
	return p.dropped
}
