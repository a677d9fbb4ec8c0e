//go:build uartxdebug

package uartx

import "sync/atomic"

// Called at ISR exit, after the byte is in the ring.
func (u *UART) dbgISR() {
	atomic.AddUint32(&u.stats.ISRCount, 1)
	used := uint32(u.Buffer.Used())
	for {
		max := atomic.LoadUint32(&u.stats.RingMaxUsed)
		if used <= max {
			break
		}
		if atomic.CompareAndSwapUint32(&u.stats.RingMaxUsed, max, used) {
			break
		}
	}
}

// Called per received byte, before Put.
func (u *UART) dbgOnByte() {
	if u.Buffer.Used() == BufferSize {
		atomic.AddUint32(&u.stats.RingOverwrites, 1)
		return
	}
	atomic.AddUint32(&u.stats.RingPuts, 1)
}

func (u *UART) dbgNotify(sent bool) {
	if sent {
		atomic.AddUint32(&u.stats.NotifySent, 1)
	} else {
		atomic.AddUint32(&u.stats.NotifyDropped, 1)
	}
}

func (u *UART) dbgReadWait() {
	atomic.AddUint32(&u.stats.ReadWaits, 1)
}
func (u *UART) dbgSpuriousWake() {
	atomic.AddUint32(&u.stats.SpuriousWakes, 1)
}
func (u *UART) dbgTimeout() {
	atomic.AddUint32(&u.stats.Timeouts, 1)
}
func (u *UART) dbgTxSpin() {
	atomic.AddUint32(&u.stats.TxSpins, 1)
}
