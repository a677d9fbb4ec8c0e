//go:build !uartx_nouart1

package uartx

// UART1: U1RX is IRQ 40 (IFS1/IEC1 bit 8) on vector 32, priority in IPC8<4:0>.
var (
	UART1  = &_UART1
	_UART1 = newUART("UART1", 0xBF806000, Interrupt{
		Vector:        32,
		IFS:           IFS1,
		IEC:           IEC1,
		IPC:           IPC8,
		Mask:          0x00000380,
		RXMask:        0x00000100,
		PriorityShift: 0,
	})
)

func init() {
	register(UART1)
}
