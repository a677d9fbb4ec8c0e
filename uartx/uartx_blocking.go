// uartx/uartx_blocking.go

package uartx

import (
	"context"
	"time"
)

// Readable returns a coalesced notification for RX readiness.
// Each receive interrupt sends on this channel without blocking; callers must
// re-check state after waking.
func (u *UART) Readable() <-chan struct{} { return u.notify }

// WaitReadable blocks until data is available or ctx is done.
func (u *UART) WaitReadable(ctx context.Context) error {
	for {
		if u.Buffered() > 0 {
			return nil
		}
		u.dbgReadWait()
		select {
		case <-u.notify:
			// re-check; if empty, it was a spurious wake (coalesced notify)
			if u.Buffered() == 0 {
				u.dbgSpuriousWake()
			}
		case <-ctx.Done():
			u.dbgTimeout()
			return ctx.Err()
		}
	}
}

// ReadBlocking blocks until at least one byte is available, then reads up to len(p).
func (u *UART) ReadBlocking(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if n := u.TryRead(p); n > 0 {
			return n, nil
		}
		if err := u.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadFullBlocking fills p completely or returns the bytes read so far with
// the context error.
func (u *UART) ReadFullBlocking(ctx context.Context, p []byte) (int, error) {
	read := 0
	for read < len(p) {
		if n := u.TryRead(p[read:]); n > 0 {
			read += n
			continue
		}
		if err := u.WaitReadable(ctx); err != nil {
			return read, err
		}
	}
	return read, nil
}

// ReadByteBlocking blocks for a single byte or until ctx is done.
func (u *UART) ReadByteBlocking(ctx context.Context) (byte, error) {
	for {
		if b, err := u.ReadByte(); err == nil {
			return b, nil
		}
		if err := u.WaitReadable(ctx); err != nil {
			return 0, err
		}
	}
}

// ReadWithTimeout is ReadBlocking with a deadline of d from now.
func (u *UART) ReadWithTimeout(p []byte, d time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return u.ReadBlocking(ctx, p)
}
