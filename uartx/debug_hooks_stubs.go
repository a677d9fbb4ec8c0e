//go:build !uartxdebug

package uartx

func (u *UART) dbgISR()          {}
func (u *UART) dbgOnByte()       {}
func (u *UART) dbgNotify(bool)   {}
func (u *UART) dbgReadWait()     {}
func (u *UART) dbgSpuriousWake() {}
func (u *UART) dbgTimeout()      {}
func (u *UART) dbgTxSpin()       {}
