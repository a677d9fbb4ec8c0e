//go:build uartxdebug

package uartx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebugStats_CountsReceivePath(t *testing.T) {
	bus := newFakeBus()
	u := newTestUART(bus)
	u.Init(9600, false)
	u.DebugReset()

	for i := 0; i < BufferSize+3; i++ {
		deliver(u, bus, byte(i))
	}

	s := u.DebugStats()
	require.EqualValues(t, BufferSize+3, s.ISRCount)
	require.EqualValues(t, BufferSize, s.RingPuts)
	require.EqualValues(t, 3, s.RingOverwrites)
	require.EqualValues(t, BufferSize, s.RingMaxUsed)
	require.EqualValues(t, 1, s.NotifySent)
	require.EqualValues(t, BufferSize+2, s.NotifyDropped)
}

func TestDebugStats_Timeouts(t *testing.T) {
	u := newTestUART(newFakeBus())
	u.DebugReset()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, u.WaitReadable(ctx))

	s := u.DebugStats()
	require.EqualValues(t, 1, s.Timeouts)
	require.GreaterOrEqual(t, s.ReadWaits, uint32(1))
}

func TestDebugStats_TxSpins(t *testing.T) {
	bus := newFakeBus()
	u := newTestUART(bus)
	u.DebugReset()
	bus.setScript(u.Regs.Base()+uintptr(STA), STA_UTXBF, STA_UTXBF, 0)

	require.NoError(t, u.WriteByte('k'))
	require.EqualValues(t, 2, u.DebugStats().TxSpins)
}

func TestDebugRegs(t *testing.T) {
	bus := newFakeBus()
	u := newTestUART(bus)
	bus.set(u.Interrupt.IEC, 0xFFFF0000)
	u.Init(9600, true)

	r := u.DebugRegs()
	require.EqualValues(t, MODE_ON|MODE_BRGH, r.MODE)
	require.EqualValues(t, STA_UTXEN|STA_URXEN, r.STA)
	require.EqualValues(t, 207, r.BRG)
	require.EqualValues(t, u.Interrupt.RXMask, r.IEC)
	require.Zero(t, r.IFS)
	require.EqualValues(t, 0x10, r.IPC)
}
