package emit

import (
	"bytes"
	"fmt"
	"strings"
)

// writer accumulates Go source line by line. Blocks are opened and closed
// by block, so braces always balance.
type writer struct {
	buf   bytes.Buffer
	depth int
}

// line writes one indented line.
func (w *writer) line(format string, args ...any) {
	w.buf.WriteString(strings.Repeat("\t", w.depth))
	if len(args) == 0 {
		w.buf.WriteString(format)
	} else {
		fmt.Fprintf(&w.buf, format, args...)
	}
	w.buf.WriteByte('\n')
}

// blank writes an empty line.
func (w *writer) blank() {
	w.buf.WriteByte('\n')
}

// block writes "header {", the body one level deeper, and the closing brace.
func (w *writer) block(header string, body func()) {
	w.line("%s {", header)
	w.depth++
	body()
	w.depth--
	w.line("}")
}

// paren writes "header (", the body one level deeper, and the closing paren.
func (w *writer) paren(header string, body func()) {
	w.line("%s (", header)
	w.depth++
	body()
	w.depth--
	w.line(")")
}

// comment writes text as // lines.
func (w *writer) comment(text string) {
	for l := range strings.SplitSeq(text, "\n") {
		w.line("// %s", l)
	}
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }
