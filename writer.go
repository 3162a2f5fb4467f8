package xdrzcc

import (
	"fmt"
	"strings"
)

// outputWriter accumulates generated code. Emitted C carries its own
// indentation in the format strings, so the writer only provides
// line-oriented helpers.
type outputWriter struct {
	buffer strings.Builder
}

func newOutputWriter() *outputWriter {
	return &outputWriter{}
}

// linef writes a formatted line.
func (o *outputWriter) linef(format string, args ...any) {
	fmt.Fprintf(&o.buffer, format, args...)
	o.buffer.WriteByte('\n')
}

// line writes s verbatim followed by a newline.
func (o *outputWriter) line(s string) {
	o.buffer.WriteString(s)
	o.buffer.WriteByte('\n')
}

// raw writes s verbatim.
func (o *outputWriter) raw(s string) {
	o.buffer.WriteString(s)
}

func (o *outputWriter) blank() {
	o.buffer.WriteByte('\n')
}

func (o *outputWriter) output() string {
	return o.buffer.String()
}
