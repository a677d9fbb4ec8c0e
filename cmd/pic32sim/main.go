//go:build !pic32mx

// Command pic32sim runs the uartx driver against a simulated PIC32MX board
// and exposes it through an interactive shell.
//
// Commands can also come from a script (-script, one command per line) or
// from the command line with -e. A simulated UART can be bridged to a new
// pseudo-terminal (-pty) or to a real serial port (-port) so external tools
// see the driver's transmit output and feed its receive line.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/buildkite/shellwords"
	"github.com/creack/pty"
	"github.com/golang/glog"
	"go.bug.st/serial"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
	"github.com/jangala-dev/tinygo-uartx-pic32/uartx/sim"
	"github.com/jangala-dev/tinygo-uartx-pic32/uartx/textfmt"
)

var (
	evalOnly   = flag.Bool("e", false, "run the command given as arguments and exit")
	scriptPath = flag.String("script", "", "file of shell commands to run before the prompt")
	clockHz    = flag.Uint("clock", 8_000_000, "peripheral bus clock in Hz")
	ptyUART    = flag.String("pty", "", "bridge this UART to a new pseudo-terminal")
	portName   = flag.String("port", "", "bridge -port-uart to this serial device")
	portUART   = flag.String("port-uart", "UART1", "UART bridged to -port")
	portBaud   = flag.Int("port-baud", 115200, "baud rate of -port")
	lang       = flag.String("lang", "", "render printf numbers for this BCP 47 language")
	charset    = flag.String("charset", "", "transcode printf output: latin1 or cp437")
)

var charsets = map[string]*charmap.Charmap{
	"latin1": charmap.ISO8859_1,
	"cp437":  charmap.CodePage437,
}

func main() {
	flag.Parse()
	defer glog.Flush()

	clock := uint32(*clockHz)
	uartx.PeripheralClock = func() uint32 { return clock }

	board := sim.NewBoard()
	uartx.UseBus(board)

	if err := setFormatter(); err != nil {
		glog.Exit(err)
	}
	if *ptyUART != "" {
		if err := bridgePTY(board, *ptyUART); err != nil {
			glog.Exit(err)
		}
	}
	if *portName != "" {
		if err := bridgeSerial(board, *portUART, *portName, *portBaud); err != nil {
			glog.Exit(err)
		}
	}

	sh := newShell(board)
	if *scriptPath != "" {
		if err := runScript(sh, *scriptPath); err != nil {
			glog.Exit(err)
		}
	}
	if args := flag.Args(); len(args) > 0 {
		if err := sh.Process(args...); err != nil {
			glog.Exit(err)
		}
	}
	if *evalOnly {
		return
	}
	sh.Run()
}

func setFormatter() error {
	var f uartx.Formatter
	if *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			return fmt.Errorf("-lang: %w", err)
		}
		f = textfmt.New(tag)
	}
	if *charset != "" {
		cm, ok := charsets[strings.ToLower(*charset)]
		if !ok {
			return fmt.Errorf("-charset: unknown %q", *charset)
		}
		f = textfmt.Encoded(f, cm)
	}
	if f != nil {
		for _, u := range uartx.Instances() {
			u.SetFormatter(f)
		}
	}
	return nil
}

// runScript feeds each non-empty, non-comment line of path to the shell.
func runScript(sh *ishell.Shell, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args, err := shellwords.Split(line)
		if err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
		glog.V(1).Infof("%s:%d: %q", path, n, args)
		if err := sh.Process(args...); err != nil {
			return fmt.Errorf("%s:%d: %w", path, n, err)
		}
	}
	return sc.Err()
}

func bridgePTY(board *sim.Board, name string) error {
	p := board.Port(name)
	if p == nil {
		return fmt.Errorf("-pty: no port %q", name)
	}
	ptmx, tty, err := pty.Open()
	if err != nil {
		return fmt.Errorf("-pty: %w", err)
	}
	glog.Infof("%s bridged to %s", name, tty.Name())
	fmt.Printf("%s on %s\n", name, tty.Name())
	go func() {
		defer tty.Close()
		defer ptmx.Close()
		if err := sim.Bridge(p, ptmx); err != nil {
			glog.Errorf("%s: pty bridge: %v", name, err)
		}
	}()
	return nil
}

func bridgeSerial(board *sim.Board, name, dev string, baud int) error {
	p := board.Port(name)
	if p == nil {
		return fmt.Errorf("-port-uart: no port %q", name)
	}
	sp, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		if ports, lerr := serial.GetPortsList(); lerr == nil {
			glog.Infof("available serial ports: %v", ports)
		}
		return fmt.Errorf("-port %s: %w", dev, err)
	}
	glog.Infof("%s bridged to %s at %d baud", name, dev, baud)
	go func() {
		defer sp.Close()
		if err := sim.Bridge(p, sp); err != nil {
			glog.Errorf("%s: serial bridge: %v", name, err)
		}
	}()
	return nil
}
