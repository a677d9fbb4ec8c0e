// Package textfmt provides uartx.Formatter implementations built on
// golang.org/x/text: locale-aware number rendering and single-byte character
// encodings for terminals that do not speak UTF-8.
package textfmt

import (
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"

	"github.com/jangala-dev/tinygo-uartx-pic32/uartx"
)

type printer struct {
	p *message.Printer
}

// New returns a Formatter that renders numbers with tag's grouping and
// decimal conventions.
func New(tag language.Tag) uartx.Formatter {
	return printer{p: message.NewPrinter(tag)}
}

func (f printer) Fprintf(w io.Writer, format string, args ...any) (int, error) {
	return f.p.Fprintf(w, format, args...)
}

type encoded struct {
	f   uartx.Formatter
	enc encoding.Encoding
}

// Encoded returns a Formatter that renders with f and transcodes the UTF-8
// result with enc. Runes enc cannot represent are replaced with its
// substitute byte.
func Encoded(f uartx.Formatter, enc encoding.Encoding) uartx.Formatter {
	if f == nil {
		f = uartx.DefaultFormatter
	}
	return encoded{f: f, enc: enc}
}

// Fprintf returns the number of encoded bytes written to w.
func (e encoded) Fprintf(w io.Writer, format string, args ...any) (int, error) {
	cw := &countingWriter{w: w}
	tw := transform.NewWriter(cw, encoding.ReplaceUnsupported(e.enc.NewEncoder()))
	_, err := e.f.Fprintf(tw, format, args...)
	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
