package uartx

// PeripheralClock returns the peripheral bus clock in Hz. Clock
// configuration lives outside the driver; integrators replace this hook
// before calling Init when PBCLK is not 8 MHz.
var PeripheralClock = func() uint32 { return 8_000_000 }

const maxDivisor = 0xFFFF

func multiplier(doubleSpeed bool) uint32 {
	if doubleSpeed {
		return 4
	}
	return 16
}

// Divisor returns the UxBRG value for baud: clock/(k*baud) - 1, truncating,
// with k = 4 in double-speed mode and 16 otherwise. Inputs are not checked:
// baud == 0 divides by zero, and clock < k*baud wraps to 0xFFFFFFFF. Use
// Configure for validated input.
func Divisor(clock, baud uint32, doubleSpeed bool) uint32 {
	return clock/(multiplier(doubleSpeed)*baud) - 1
}

// ActualBaud returns the bit rate the hardware produces for divisor.
func ActualBaud(clock, divisor uint32, doubleSpeed bool) uint32 {
	return uint32(uint64(clock) / (uint64(multiplier(doubleSpeed)) * (uint64(divisor) + 1)))
}

// BestSpeed reports whether double-speed mode gets closer to baud than
// standard mode. Ties go to standard mode, which samples each bit more often.
func BestSpeed(clock, baud uint32) bool {
	stdErr, stdOK := baudError(clock, baud, false)
	dblErr, dblOK := baudError(clock, baud, true)
	switch {
	case !dblOK:
		return false
	case !stdOK:
		return true
	}
	return dblErr < stdErr
}

// baudError returns |actual - baud| and whether the divisor fits UxBRG.
func baudError(clock, baud uint32, doubleSpeed bool) (uint32, bool) {
	k := uint64(multiplier(doubleSpeed))
	q := uint64(clock) / (k * uint64(baud))
	if q == 0 || q-1 > maxDivisor {
		return 0, false
	}
	actual := ActualBaud(clock, uint32(q-1), doubleSpeed)
	if actual > baud {
		return actual - baud, true
	}
	return baud - actual, true
}
