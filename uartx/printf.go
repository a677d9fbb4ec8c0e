package uartx

import (
	"fmt"
	"io"
)

// Formatter renders a format string and its arguments to w.
type Formatter interface {
	Fprintf(w io.Writer, format string, args ...any) (int, error)
}

type stdFormatter struct{}

func (stdFormatter) Fprintf(w io.Writer, format string, args ...any) (int, error) {
	return fmt.Fprintf(w, format, args...)
}

// DefaultFormatter is used by instances without their own Formatter.
var DefaultFormatter Formatter = stdFormatter{}

// SetFormatter replaces the renderer used by Printf. A nil f restores
// DefaultFormatter.
func (u *UART) SetFormatter(f Formatter) {
	u.formatter = f
}

// Printf renders format and args and transmits the result with Write. The
// text is rendered twice: once to measure it and once into a buffer of
// exactly that size.
func (u *UART) Printf(format string, args ...any) (int, error) {
	f := u.formatter
	if f == nil {
		f = DefaultFormatter
	}

	var c countWriter
	if _, err := f.Fprintf(&c, format, args...); err != nil {
		return 0, err
	}

	w := fixedWriter{buf: make([]byte, 0, c.n)}
	if _, err := f.Fprintf(&w, format, args...); err != nil {
		return 0, err
	}
	return u.Write(w.buf)
}

type countWriter struct{ n int }

func (c *countWriter) Write(p []byte) (int, error) {
	c.n += len(p)
	return len(p), nil
}

// fixedWriter appends into a preallocated buffer and truncates anything past
// its capacity, so a renderer that is not deterministic cannot grow it.
type fixedWriter struct{ buf []byte }

func (w *fixedWriter) Write(p []byte) (int, error) {
	room := cap(w.buf) - len(w.buf)
	if len(p) > room {
		p = p[:room]
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}
