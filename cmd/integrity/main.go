//go:build !pic32mx

// Command integrity runs a framed request/ack integrity test between UART1
// and UART2 cross-wired on the simulated board.
//
// Each frame is start, seq, len, payload, crc8(seq, len, payload). The
// receiver answers ACK or NAK with the sequence number; the sender
// retransmits on NAK or timeout. -flip corrupts one bit in every Nth byte on
// the UART1 -> UART2 line to exercise the recovery path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/sigurn/crc8"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
	"github.com/jangala-dev/tinygo-uartx-pic32/uartx/sim"
)

const (
	frameStart = 0x7E
	ack        = 0x06
	nak        = 0x15
	maxPayload = 64
)

var (
	baud       = flag.Uint("baud", 115200, "baud rate for both UARTs")
	totalBytes = flag.Int("bytes", 16*1024, "payload bytes to transfer")
	payload    = flag.Int("payload", 48, "payload bytes per frame (max 64)")
	flip       = flag.Int("flip", 0, "corrupt every Nth byte on the data line (0: never)")
	ackTimeout = flag.Duration("ack-timeout", 100*time.Millisecond, "sender wait per frame")
	retries    = flag.Int("retries", 8, "retransmissions per frame before giving up")
)

var crcTable = crc8.MakeTable(crc8.CRC8)

var (
	errBadLength   = errors.New("bad frame length")
	errBadChecksum = errors.New("bad checksum")
)

func pattern(i int) byte { return byte((i*31 + 0x55) & 0xFF) }

type result struct {
	frames      int
	retransmits int
	badFrames   int
	duplicates  int
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *payload <= 0 || *payload > maxPayload {
		glog.Exitf("-payload must be in 1..%d", maxPayload)
	}

	board := sim.NewBoard()
	uartx.UseBus(board)

	tx, rx := uartx.UART1, uartx.UART2
	for _, u := range []*uartx.UART{tx, rx} {
		if err := u.Configure(uartx.Config{BaudRate: uint32(*baud)}); err != nil {
			glog.Exit(err)
		}
		glog.Infof("%s: %d baud, double speed %v", u.Name(), u.Baud(), u.DoubleSpeed())
	}

	txPort, rxPort := board.Port(tx.Name()), board.Port(rx.Name())
	txPort.SetOutput(&line{dst: rxPort, every: *flip})
	rxPort.SetOutput(&line{dst: txPort})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var res result
	recvDone := make(chan error, 1)
	go func() { recvDone <- receive(ctx, rx, &res) }()

	start := time.Now()
	err := send(tx, &res)
	cancel()
	if rerr := <-recvDone; rerr != nil && !errors.Is(rerr, context.Canceled) {
		glog.Errorf("receiver: %v", rerr)
	}
	elapsed := time.Since(start)

	glog.Infof("frames=%d retransmits=%d bad=%d duplicates=%d overruns=%d/%d elapsed=%v",
		res.frames, res.retransmits, res.badFrames, res.duplicates, tx.Overruns(), rx.Overruns(), elapsed)
	if err != nil {
		glog.Exitf("FAIL: %v", err)
	}
	fmt.Printf("PASS %d bytes in %d frames (%d retransmits)\n", *totalBytes, res.frames, res.retransmits)
}

// line carries bytes to dst, flipping bit 0 of every Nth byte.
type line struct {
	dst   *sim.Port
	every int
	n     int
}

func (l *line) Write(p []byte) (int, error) {
	for _, c := range p {
		l.n++
		if l.every > 0 && l.n%l.every == 0 {
			c ^= 0x01
		}
		l.dst.Deliver(c)
	}
	return len(p), nil
}

func buildFrame(seq byte, data []byte) []byte {
	f := make([]byte, 0, len(data)+4)
	f = append(f, frameStart, seq, byte(len(data)))
	f = append(f, data...)
	return append(f, crc8.Checksum(f[1:], crcTable))
}

func send(u *uartx.UART, res *result) error {
	data := make([]byte, *payload)
	resp := make([]byte, 2)

	for off, seq := 0, byte(0); off < *totalBytes; seq++ {
		k := min(*payload, *totalBytes-off)
		for j := 0; j < k; j++ {
			data[j] = pattern(off + j)
		}
		frame := buildFrame(seq, data[:k])

		delivered := false
		for attempt := 0; attempt <= *retries && !delivered; attempt++ {
			if attempt > 0 {
				res.retransmits++
				glog.V(1).Infof("seq %d: retransmit %d", seq, attempt)
			}
			u.Flush()
			if _, err := u.Write(frame); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), *ackTimeout)
			_, err := u.ReadFullBlocking(ctx, resp)
			cancel()
			switch {
			case err != nil:
				glog.V(1).Infof("seq %d: no reply: %v", seq, err)
			case resp[0] == ack && resp[1] == seq:
				delivered = true
			default:
				glog.V(1).Infof("seq %d: reply % x", seq, resp)
			}
		}
		if !delivered {
			return fmt.Errorf("seq %d at offset %d: no ACK after %d attempts", seq, off, *retries+1)
		}
		res.frames++
		off += k
	}
	return nil
}

func receive(ctx context.Context, u *uartx.UART, res *result) error {
	var (
		buf     [maxPayload + 3]byte // seq, len, payload, crc
		next    int                  // offset of the next expected payload byte
		lastSeq = -1
	)
	for {
		c, err := u.ReadByteBlocking(ctx)
		if err != nil {
			return err
		}
		if c != frameStart {
			continue
		}

		err = readFull(ctx, u, buf[:2])
		seq, n := buf[0], int(buf[1])
		if err == nil && (n == 0 || n > maxPayload) {
			err = errBadLength
		}
		if err == nil {
			err = readFull(ctx, u, buf[2:n+3])
		}
		if err == nil && crc8.Checksum(buf[:n+2], crcTable) != buf[n+2] {
			err = errBadChecksum
		}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			res.badFrames++
			u.Flush()
			continue
		case errors.Is(err, errBadLength), errors.Is(err, errBadChecksum):
			glog.V(1).Infof("seq %d: %v", seq, err)
			res.badFrames++
			u.Flush()
			reply(u, nak, seq)
			continue
		case err != nil:
			return err
		}

		if int(seq) == lastSeq {
			res.duplicates++
			reply(u, ack, seq)
			continue
		}
		body := buf[2 : n+2]
		for j, b := range body {
			if b != pattern(next+j) {
				return fmt.Errorf("seq %d: byte %d is %#02x, want %#02x", seq, next+j, b, pattern(next+j))
			}
		}
		next += n
		lastSeq = int(seq)
		reply(u, ack, seq)
	}
}

// readFull reads len(p) bytes, giving up on a partial frame after a short
// idle period.
func readFull(parent context.Context, u *uartx.UART, p []byte) error {
	ctx, cancel := context.WithTimeout(parent, *ackTimeout/2)
	defer cancel()
	_, err := u.ReadFullBlocking(ctx, p)
	if err != nil && parent.Err() != nil {
		return parent.Err()
	}
	return err
}

func reply(u *uartx.UART, code, seq byte) {
	_, _ = u.Write([]byte{code, seq})
}
