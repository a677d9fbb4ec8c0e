//go:build !pic32mx

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
	"github.com/jangala-dev/tinygo-uartx-pic32/uartx/sim"
)

func TestPrintfArgs(t *testing.T) {
	require.Equal(t, []any{int64(42), "abc", int64(255), "1.5"}, printfArgs([]string{"42", "abc", "0xff", "1.5"}))
	require.Empty(t, printfArgs(nil))
}

func TestBaudArg(t *testing.T) {
	cases := []struct {
		in     string
		double bool
		want   uint32
		ok     bool
	}{
		{"9600", false, 9600, true},
		{"500000", false, 500000, true},
		{"500001", false, 0, false},
		{"2000000", true, 2000000, true},
		{"0", false, 0, false},
		{"4294967295", true, 0, false},
		{"-1", false, 0, false},
		{"fast", false, 0, false},
	}
	for _, c := range cases {
		got, err := baudArg(c.in, c.double)
		if !c.ok {
			require.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestParseSpeed(t *testing.T) {
	cases := map[string]uartx.Speed{
		"":       uartx.SpeedAuto,
		"auto":   uartx.SpeedAuto,
		"std":    uartx.SpeedStandard,
		"HIGH":   uartx.SpeedHigh,
		"double": uartx.SpeedHigh,
	}
	for in, want := range cases {
		got, err := parseSpeed(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := parseSpeed("turbo")
	require.Error(t, err)
}

type step struct {
	args    []string
	wantOut string // substring of the command's output
	wantErr string // substring of the returned error
}

func TestShellCommands(t *testing.T) {
	cases := []struct {
		name  string
		steps []step
		check func(t *testing.T, b *sim.Board)
	}{
		{
			name:  "init",
			steps: []step{{args: []string{"init", "1", "9600"}, wantOut: "UART1: BRG=51 (9615 baud actual)"}},
			check: func(t *testing.T, b *sim.Board) {
				require.EqualValues(t, 51, b.Reg(b.Port("UART1").Base()+uintptr(uartx.BRG)))
			},
		},
		{
			name:  "init double",
			steps: []step{{args: []string{"init", "uart2", "115200", "double"}, wantOut: "UART2: BRG=16"}},
			check: func(t *testing.T, b *sim.Board) {
				require.EqualValues(t, uartx.MODE_ON|uartx.MODE_BRGH, b.Reg(b.Port("UART2").Base()))
			},
		},
		{
			name:  "init zero baud",
			steps: []step{{args: []string{"init", "1", "0"}, wantErr: "out of range"}},
			check: func(t *testing.T, b *sim.Board) {
				require.Zero(t, b.Reg(b.Port("UART1").Base()), "MODE written")
			},
		},
		{
			name:  "init faster than the clock",
			steps: []step{{args: []string{"init", "1", "1000000"}, wantErr: "out of range"}},
		},
		{
			name:  "init divisor product overflows",
			steps: []step{{args: []string{"init", "1", "4294967295"}, wantErr: "out of range"}},
		},
		{
			name:  "init usage",
			steps: []step{{args: []string{"init", "1"}, wantErr: "usage: init"}},
		},
		{
			name:  "unknown uart",
			steps: []step{{args: []string{"init", "3", "9600"}, wantErr: "no UART3"}},
		},
		{
			name: "config",
			steps: []step{
				{args: []string{"config", "1", "9600", "std"}, wantOut: "UART1: 9600 baud, double speed false"},
				{args: []string{"config", "1", "1"}, wantErr: "invalid baud rate"},
				{args: []string{"config", "1", "9600", "turbo"}, wantErr: "unknown speed"},
			},
		},
		{
			name: "send and read",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"send", "1", "hello", "world"}, wantOut: "delivered 11/11"},
				{args: []string{"read", "1", "5"}, wantOut: `5 bytes: "hello"`},
				{args: []string{"avail", "1"}, wantOut: "available=6 fifo=0 overruns=0"},
				{args: []string{"read", "1"}, wantOut: `6 bytes: " world"`},
				{args: []string{"read", "1", "4", "10ms"}, wantErr: "deadline exceeded"},
				{args: []string{"read", "1", "x"}, wantErr: "usage: read"},
			},
		},
		{
			name: "peek and flush",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"peek", "1"}, wantErr: "UART buffer empty"},
				{args: []string{"sendhex", "1", "41", "42"}, wantOut: "delivered 2/2"},
				{args: []string{"peek", "1"}, wantOut: "0x41 'A'"},
				{args: []string{"flush", "1"}},
				{args: []string{"avail", "1"}, wantOut: "available=0"},
				{args: []string{"sendhex", "1", "zz"}, wantErr: "invalid byte"},
			},
		},
		{
			name: "write and tx",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"write", "1", "hi", "there"}, wantOut: "wrote 8"},
				{args: []string{"tx", "1", "clear"}, wantOut: "UART1: 8 bytes, 0 dropped"},
				{args: []string{"tx", "1"}, wantOut: "UART1: 0 bytes"},
			},
		},
		{
			name: "printf",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"printf", "1", `n=%d\r\n`, "42"}, wantOut: "wrote 6"},
				{args: []string{"printf", "1"}, wantErr: "usage: printf"},
			},
			check: func(t *testing.T, b *sim.Board) {
				require.Equal(t, "n=42\r\n", string(b.Port("UART1").Transmitted()))
			},
		},
		{
			name: "loopback",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"link", "1"}},
				{args: []string{"write", "1", "ab"}},
				{args: []string{"avail", "1"}, wantOut: "available=2"},
				{args: []string{"unlink", "1"}},
				{args: []string{"write", "1", "cd"}},
				{args: []string{"avail", "1"}, wantOut: "available=2"},
			},
		},
		{
			name: "cross link",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"init", "2", "9600"}},
				{args: []string{"link", "1", "2"}},
				{args: []string{"write", "2", "xyz"}},
				{args: []string{"read", "1"}, wantOut: `3 bytes: "xyz"`},
				{args: []string{"link", "1", "9"}, wantErr: "no UART9"},
			},
		},
		{
			name: "stall",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"stall", "1", "on"}},
				{args: []string{"stall", "1"}, wantErr: "usage: stall"},
			},
			check: func(t *testing.T, b *sim.Board) {
				require.NotZero(t, b.Reg(b.Port("UART1").Base()+uintptr(uartx.STA))&uartx.STA_UTXBF)
				require.Zero(t, uartx.UART1.TryWrite([]byte("x")))
				b.Port("UART1").SetTxStalled(false)
			},
		},
		{
			name: "regs",
			steps: []step{
				{args: []string{"init", "1", "9600"}},
				{args: []string{"regs", "1"}, wantOut: "BRG   00000033"},
				{args: []string{"regs", "1"}, wantOut: "IEC   00000100"},
				{args: []string{"regs", "1"}, wantOut: "IPC   10 (vector 32)"},
			},
		},
	}

	sh := newShell(sim.NewBoard())
	var out bytes.Buffer
	sh.SetOut(&out)

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := newTestBoard(t)
			sh.Set(boardKey, b)
			for _, s := range c.steps {
				out.Reset()
				err := sh.Process(s.args...)
				if s.wantErr != "" {
					require.ErrorContains(t, err, s.wantErr, "%q", s.args)
					continue
				}
				require.NoError(t, err, "%q", s.args)
				require.Contains(t, out.String(), s.wantOut, "%q", s.args)
			}
			if c.check != nil {
				c.check(t, b)
			}
		})
	}
}

func TestRunScript(t *testing.T) {
	b := newTestBoard(t)
	sh := newShell(b)
	sh.SetOut(io.Discard)
	dir := t.TempDir()

	ok := filepath.Join(dir, "ok.sh")
	require.NoError(t, os.WriteFile(ok, []byte(`# bring up UART1
init 1 9600

send 1 "hello world"
printf 1 'v=%d' 7
`), 0o644))
	require.NoError(t, runScript(sh, ok))
	require.Equal(t, 11, uartx.UART1.BytesAvailable())
	require.Equal(t, "v=7", string(b.Port("UART1").Transmitted()))

	bad := filepath.Join(dir, "bad.sh")
	require.NoError(t, os.WriteFile(bad, []byte("init 1 9600\ninit 1 0\nsend 1 x\n"), 0o644))
	err := runScript(sh, bad)
	require.ErrorContains(t, err, "bad.sh:2: ")
	require.Zero(t, uartx.UART1.BytesAvailable(), "script continued after a failed command")

	require.Error(t, runScript(sh, filepath.Join(dir, "missing.sh")))
}

func newTestBoard(t *testing.T) *sim.Board {
	t.Helper()
	b := sim.NewBoard()
	uartx.UseBus(b)
	t.Cleanup(func() { uartx.UseBus(nil) })
	return b
}
