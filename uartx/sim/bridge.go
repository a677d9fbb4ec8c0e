package sim

import (
	"errors"
	"io"
	"os"

	"github.com/golang/glog"
)

// Bridge connects p to an external byte stream: bytes read from rw arrive on
// p's receive line and p's transmit output is written to rw. It blocks until
// reading rw fails and returns nil when rw reached EOF or was closed.
func Bridge(p *Port, rw io.ReadWriter) error {
	p.SetOutput(rw)
	defer p.SetOutput(nil)

	glog.Infof("%s: bridge up", p.name)
	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			if got := p.Send(buf[:n]); got < n {
				glog.Warningf("%s: bridge lost %d of %d bytes", p.name, n-got, n)
			}
		}
		if err != nil {
			glog.Infof("%s: bridge down: %v", p.name, err)
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
