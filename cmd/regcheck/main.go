//go:build pic32mx

package main

import (
	"time"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
)

// Prints UART1's register block and interrupt slice before and after Init,
// on UART2 so the output does not disturb the module under test. Expect
// BRG=00000033, STA with UTXEN|URXEN, MODE=00008000, priority 4/0 and the
// receive interrupt enabled.
func main() {
	time.Sleep(2 * time.Second)

	con := uartx.UART2
	con.Init(115200, true)

	u := uartx.UART1
	line(con, "Before Init:")
	report(con, u)

	u.Init(9600, false)

	line(con, "After Init(9600, false):")
	report(con, u)

	for {
		time.Sleep(time.Second)
	}
}

func report(con, u *uartx.UART) {
	irq := &u.Interrupt
	prio, sub := irq.Priority()
	line(con, "-----------------------------")
	field(con, "UxMODE   = 0x", u.Regs.Load(uartx.MODE))
	field(con, "UxSTA    = 0x", u.Regs.Load(uartx.STA))
	field(con, "UxBRG    = 0x", u.Regs.Load(uartx.BRG))
	field(con, "priority = 0x", uint32(prio))
	field(con, "subprio  = 0x", uint32(sub))
	field(con, "RX enabled = ", boolBit(irq.Enabled()))
	field(con, "RX pending = ", boolBit(irq.Pending()))
	field(con, "ring used  = 0x", uint32(u.BytesAvailable()))
}

func line(con *uartx.UART, s string) {
	_, _ = con.Write([]byte(s))
	_, _ = con.Write([]byte("\r\n"))
}

func field(con *uartx.UART, label string, v uint32) {
	_, _ = con.Write([]byte(label))
	line(con, hex32(v))
}

func hex32(v uint32) string {
	const hexdigits = "0123456789abcdef"
	var b [8]byte
	for i := 0; i < 8; i++ {
		shift := uint(28 - 4*i)
		b[i] = hexdigits[(v>>shift)&0xF]
	}
	return string(b[:])
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
