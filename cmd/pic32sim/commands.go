//go:build !pic32mx

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
	"github.com/jangala-dev/tinygo-uartx-pic32/uartx/sim"
)

const boardKey = "$board"

var errUsage = errors.New("usage")

func newShell(board *sim.Board) *ishell.Shell {
	sh := ishell.New()
	sh.Set(boardKey, board)
	sh.SetPrompt("pic32> ")
	for _, cmd := range commands {
		sh.AddCmd(cmd)
	}
	return sh
}

func boardFrom(c *ishell.Context) *sim.Board {
	return c.Get(boardKey).(*sim.Board)
}

// uartArg resolves Args[0] ("1", "uart1", "UART1") to an instance and its
// port.
func uartArg(c *ishell.Context) (*uartx.UART, *sim.Port, error) {
	if len(c.Args) == 0 {
		return nil, nil, errUsage
	}
	name := strings.ToUpper(c.Args[0])
	if !strings.HasPrefix(name, "UART") {
		name = "UART" + name
	}
	u := uartx.Lookup(name)
	if u == nil {
		return nil, nil, fmt.Errorf("no %s in this build", name)
	}
	return u, boardFrom(c).Port(name), nil
}

// withUART wraps fn with instance lookup and error reporting.
func withUART(usage string, fn func(c *ishell.Context, u *uartx.UART, p *sim.Port) error) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		u, p, err := uartArg(c)
		if err == nil {
			err = fn(c, u, p)
		}
		if errors.Is(err, errUsage) {
			err = fmt.Errorf("usage: %s", usage)
		}
		if err != nil {
			c.Err(err)
		}
	}
}

func parseSpeed(s string) (uartx.Speed, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return uartx.SpeedAuto, nil
	case "std", "standard":
		return uartx.SpeedStandard, nil
	case "high", "double":
		return uartx.SpeedHigh, nil
	}
	return 0, fmt.Errorf("unknown speed %q", s)
}

// baudArg parses a baud rate that Init can divide by: nonzero, with k*baud
// neither overflowing nor exceeding the peripheral clock.
func baudArg(s string, double bool) (uint32, error) {
	baud, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	k := uint64(16)
	if double {
		k = 4
	}
	clock := uint64(uartx.PeripheralClock())
	if baud == 0 || k*baud > math.MaxUint32 || k*baud > clock {
		return 0, fmt.Errorf("baud %d out of range for a %d Hz clock", baud, clock)
	}
	return uint32(baud), nil
}

// printfArgs turns shell words into Printf operands: integers when they
// parse as one, strings otherwise.
func printfArgs(words []string) []any {
	args := make([]any, len(words))
	for i, w := range words {
		if n, err := strconv.ParseInt(w, 0, 64); err == nil {
			args[i] = n
		} else {
			args[i] = w
		}
	}
	return args
}

var commands = []*ishell.Cmd{
	{
		Name: "init",
		Help: "UART BAUD [double]: Init with the raw divisor",
		Func: withUART("init UART BAUD [double]", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			if len(c.Args) < 2 {
				return errUsage
			}
			double := len(c.Args) > 2 && c.Args[2] == "double"
			baud, err := baudArg(c.Args[1], double)
			if err != nil {
				return err
			}
			clock := uartx.PeripheralClock()
			div := uartx.Divisor(clock, baud, double)
			u.Init(baud, double)
			c.Printf("%s: BRG=%d (%d baud actual)\n", u.Name(), div, uartx.ActualBaud(clock, div, double))
			return nil
		}),
	},
	{
		Name: "config",
		Help: "UART [BAUD] [auto|std|high]: validated Configure",
		Func: withUART("config UART [BAUD] [auto|std|high]", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			var cfg uartx.Config
			if len(c.Args) > 1 {
				baud, err := strconv.ParseUint(c.Args[1], 10, 32)
				if err != nil {
					return err
				}
				cfg.BaudRate = uint32(baud)
			}
			if len(c.Args) > 2 {
				s, err := parseSpeed(c.Args[2])
				if err != nil {
					return err
				}
				cfg.Speed = s
			}
			if err := u.Configure(cfg); err != nil {
				return err
			}
			c.Printf("%s: %d baud, double speed %v\n", u.Name(), u.Baud(), u.DoubleSpeed())
			return nil
		}),
	},
	{
		Name: "send",
		Help: "UART TEXT...: bytes arrive on the receive line",
		Func: withUART("send UART TEXT...", func(c *ishell.Context, _ *uartx.UART, p *sim.Port) error {
			data := []byte(strings.Join(c.Args[1:], " "))
			c.Printf("delivered %d/%d\n", p.Send(data), len(data))
			return nil
		}),
	},
	{
		Name: "sendhex",
		Help: "UART HEX...: like send, bytes given in hex",
		Func: withUART("sendhex UART HEX...", func(c *ishell.Context, _ *uartx.UART, p *sim.Port) error {
			data, err := hex.DecodeString(strings.Join(c.Args[1:], ""))
			if err != nil {
				return err
			}
			c.Printf("delivered %d/%d\n", p.Send(data), len(data))
			return nil
		}),
	},
	{
		Name: "avail",
		Help: "UART: bytes waiting in the receive ring",
		Func: withUART("avail UART", func(c *ishell.Context, u *uartx.UART, p *sim.Port) error {
			c.Printf("%s: available=%d fifo=%d overruns=%d\n", u.Name(), u.BytesAvailable(), p.Buffered(), u.Overruns())
			return nil
		}),
	},
	{
		Name: "read",
		Help: "UART [N] [TIMEOUT]: read up to N bytes, waiting up to TIMEOUT for the first",
		Func: withUART("read UART [N] [TIMEOUT]", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			n := uartx.BufferSize
			if len(c.Args) > 1 {
				v, err := strconv.Atoi(c.Args[1])
				if err != nil || v <= 0 {
					return errUsage
				}
				n = v
			}
			buf := make([]byte, n)
			var got int
			if len(c.Args) > 2 {
				d, err := time.ParseDuration(c.Args[2])
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(context.Background(), d)
				defer cancel()
				if got, err = u.ReadBlocking(ctx, buf); err != nil {
					return err
				}
			} else {
				got, _ = u.Read(buf)
			}
			c.Printf("%d bytes: %q\n", got, buf[:got])
			return nil
		}),
	},
	{
		Name: "peek",
		Help: "UART: next byte without consuming it",
		Func: withUART("peek UART", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			b, err := u.PeekByte()
			if err != nil {
				return err
			}
			c.Printf("%#02x %q\n", b, b)
			return nil
		}),
	},
	{
		Name: "flush",
		Help: "UART: discard unread bytes",
		Func: withUART("flush UART", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			u.Flush()
			return nil
		}),
	},
	{
		Name: "write",
		Help: "UART TEXT...: transmit text",
		Func: withUART("write UART TEXT...", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			n, err := u.Write([]byte(strings.Join(c.Args[1:], " ")))
			c.Printf("wrote %d\n", n)
			return err
		}),
	},
	{
		Name: "printf",
		Help: "UART FORMAT [ARGS...]: formatted transmit",
		Func: withUART("printf UART FORMAT [ARGS...]", func(c *ishell.Context, u *uartx.UART, _ *sim.Port) error {
			if len(c.Args) < 2 {
				return errUsage
			}
			format, err := strconv.Unquote(`"` + c.Args[1] + `"`)
			if err != nil {
				format = c.Args[1]
			}
			n, err := u.Printf(format, printfArgs(c.Args[2:])...)
			c.Printf("wrote %d\n", n)
			return err
		}),
	},
	{
		Name: "tx",
		Help: "UART [clear]: bytes the transmitter accepted",
		Func: withUART("tx UART [clear]", func(c *ishell.Context, u *uartx.UART, p *sim.Port) error {
			data := p.Transmitted()
			c.Printf("%s: %d bytes, %d dropped\n", u.Name(), len(data), p.Dropped())
			if len(data) > 0 {
				c.Print(hex.Dump(data))
			}
			if len(c.Args) > 1 && c.Args[1] == "clear" {
				p.ResetTransmitted()
			}
			return nil
		}),
	},
	{
		Name: "regs",
		Help: "UART: register block and interrupt state",
		Func: withUART("regs UART", func(c *ishell.Context, u *uartx.UART, p *sim.Port) error {
			b := boardFrom(c)
			for _, r := range []struct {
				name string
				reg  uartx.Reg
			}{{"MODE", uartx.MODE}, {"STA", uartx.STA}, {"BRG", uartx.BRG}} {
				c.Printf("%-5s %08x\n", r.name, b.Reg(p.Base()+uintptr(r.reg)))
			}
			irq := u.Interrupt
			c.Printf("IFS   %08x\n", b.Reg(irq.IFS)&irq.Mask)
			c.Printf("IEC   %08x\n", b.Reg(irq.IEC)&irq.Mask)
			c.Printf("IPC   %02x (vector %d)\n", b.Reg(irq.IPC)>>irq.PriorityShift&0x1F, irq.Vector)
			return nil
		}),
	},
	{
		Name: "stall",
		Help: "UART on|off: hold the transmit buffer full",
		Func: withUART("stall UART on|off", func(c *ishell.Context, _ *uartx.UART, p *sim.Port) error {
			if len(c.Args) < 2 {
				return errUsage
			}
			p.SetTxStalled(c.Args[1] == "on")
			return nil
		}),
	},
	{
		Name: "link",
		Help: "UART [UART]: cross-wire two UARTs, or loop one back to itself",
		Func: withUART("link UART [UART]", func(c *ishell.Context, _ *uartx.UART, p *sim.Port) error {
			q := p
			if len(c.Args) > 1 {
				c.Args = c.Args[1:]
				_, other, err := uartArg(c)
				if err != nil {
					return err
				}
				q = other
			}
			p.Connect(q)
			return nil
		}),
	},
	{
		Name: "unlink",
		Help: "UART: remove wiring",
		Func: withUART("unlink UART", func(c *ishell.Context, _ *uartx.UART, p *sim.Port) error {
			p.Disconnect()
			return nil
		}),
	},
}
