package uartx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDivisor(t *testing.T) {
	cases := []struct {
		clock, baud uint32
		double      bool
		want        uint32
	}{
		{8_000_000, 9600, false, 51},
		{8_000_000, 9600, true, 207},
		{8_000_000, 115200, false, 3},
		{8_000_000, 115200, true, 16},
		{40_000_000, 115200, false, 20},
		{40_000_000, 9600, true, 1040},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Divisor(c.clock, c.baud, c.double),
			"clock=%d baud=%d double=%v", c.clock, c.baud, c.double)
	}
}

func TestDivisor_Unchecked(t *testing.T) {
	require.Panics(t, func() { Divisor(8_000_000, 0, false) })
	require.EqualValues(t, 0xFFFFFFFF, Divisor(8_000_000, 1_000_000, false))
}

func TestActualBaud(t *testing.T) {
	require.EqualValues(t, 9615, ActualBaud(8_000_000, 51, false))
	require.EqualValues(t, 125000, ActualBaud(8_000_000, 3, false))
	require.EqualValues(t, 117647, ActualBaud(8_000_000, 16, true))
}

func TestBestSpeed(t *testing.T) {
	// 115200 from 8 MHz: 125000 (8.5% off) standard vs 117647 (2.1%) double.
	require.True(t, BestSpeed(8_000_000, 115200))
	// 9600: both modes land on 9615; ties stay in standard mode.
	require.False(t, BestSpeed(8_000_000, 9600))
	// 300 baud needs a divisor above 0xFFFF in double-speed mode.
	require.False(t, BestSpeed(80_000_000, 300))
	// Too fast for standard mode, possible in double-speed mode.
	require.True(t, BestSpeed(8_000_000, 1_000_000))
}

func TestConfigure(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantBRG uint32
		wantDbl bool
		wantErr bool
	}{
		{name: "default baud", cfg: Config{}, wantBRG: 16, wantDbl: true},
		{name: "standard 9600", cfg: Config{BaudRate: 9600, Speed: SpeedStandard}, wantBRG: 51},
		{name: "high 9600", cfg: Config{BaudRate: 9600, Speed: SpeedHigh}, wantBRG: 207, wantDbl: true},
		{name: "auto 9600", cfg: Config{BaudRate: 9600}, wantBRG: 51},
		{name: "too fast", cfg: Config{BaudRate: 10_000_000}, wantErr: true},
		{name: "too slow", cfg: Config{BaudRate: 1}, wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			bus := newFakeBus()
			u := newTestUART(bus)
			err := u.Configure(c.cfg)
			if c.wantErr {
				require.ErrorIs(t, err, ErrInvalidBaudRate)
				require.Zero(t, bus.get(u.Regs.Base()+uintptr(MODE)), "MODE written on error")
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.wantBRG, bus.get(u.Regs.Base()+uintptr(BRG)))
			require.Equal(t, c.wantDbl, u.DoubleSpeed())
		})
	}
}

func TestConfigure_UsesPeripheralClock(t *testing.T) {
	saved := PeripheralClock
	defer func() { PeripheralClock = saved }()
	PeripheralClock = func() uint32 { return 40_000_000 }

	bus := newFakeBus()
	u := newTestUART(bus)
	require.NoError(t, u.Configure(Config{BaudRate: 115200, Speed: SpeedStandard}))
	require.EqualValues(t, 20, bus.get(u.Regs.Base()+uintptr(BRG)))
	require.EqualValues(t, 115200, u.Baud())
}
