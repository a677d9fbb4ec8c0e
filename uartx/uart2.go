//go:build !uartx_nouart2

package uartx

// UART2: U2RX is IRQ 54 (IFS1/IEC1 bit 22) on vector 37, priority in IPC9<12:8>.
var (
	UART2  = &_UART2
	_UART2 = newUART("UART2", 0xBF806200, Interrupt{
		Vector:        37,
		IFS:           IFS1,
		IEC:           IEC1,
		IPC:           IPC9,
		Mask:          0x00E00000,
		RXMask:        0x00400000,
		PriorityShift: 8,
	})
)

func init() {
	register(UART2)
}
