package dump

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// emitter builds an indented JSON document with fields in visit order.
//
// encoding/json is not used here on purpose: the document's objects are
// dynamic ordered field lists (maps would lose visit order), and strings must
// be escaped permissively so embedded markup stays readable — the standard
// encoder escapes HTML and all non-ASCII control sequences more aggressively
// than the document format wants.
type emitter struct {
	buf   bytes.Buffer
	first []bool // per open container: true until the first element is written
}

func newEmitter() *emitter { return &emitter{} }

func (e *emitter) bytes() []byte { return e.buf.Bytes() }

func (e *emitter) indent() {
	for range e.first {
		e.buf.WriteString("  ")
	}
}

// sep writes the element separator for the current container: a comma if the
// container already has elements, then a newline and indentation.
func (e *emitter) sep() {
	if len(e.first) == 0 {
		return
	}
	if e.first[len(e.first)-1] {
		e.first[len(e.first)-1] = false
	} else {
		e.buf.WriteByte(',')
	}
	e.buf.WriteByte('\n')
	e.indent()
}

func (e *emitter) beginObject() {
	e.buf.WriteByte('{')
	e.first = append(e.first, true)
}

func (e *emitter) endObject() {
	empty := e.first[len(e.first)-1]
	e.first = e.first[:len(e.first)-1]
	if !empty {
		e.buf.WriteByte('\n')
		e.indent()
	}
	e.buf.WriteByte('}')
}

func (e *emitter) beginArray() {
	e.buf.WriteByte('[')
	e.first = append(e.first, true)
}

func (e *emitter) endArray() {
	empty := e.first[len(e.first)-1]
	e.first = e.first[:len(e.first)-1]
	if !empty {
		e.buf.WriteByte('\n')
		e.indent()
	}
	e.buf.WriteByte(']')
}

// key writes the separator and the quoted field name.
func (e *emitter) key(name string) {
	e.sep()
	e.buf.WriteString(quote(name))
	e.buf.WriteString(": ")
}

// element positions the emitter for the next array element.
func (e *emitter) element() { e.sep() }

func (e *emitter) null()          { e.buf.WriteString("null") }
func (e *emitter) str(s string)   { e.buf.WriteString(quote(s)) }
func (e *emitter) boolean(b bool) { e.buf.WriteString(strconv.FormatBool(b)) }

func (e *emitter) integer(i int64)   { e.buf.WriteString(strconv.FormatInt(i, 10)) }
func (e *emitter) unsigned(u uint64) { e.buf.WriteString(strconv.FormatUint(u, 10)) }

// number writes a float, collapsing integral values to plain integers so
// documents diff cleanly. Non-finite values have no JSON representation and
// degrade to null.
func (e *emitter) number(f float64) {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		e.buf.WriteString("null")
	case f == math.Trunc(f) && math.Abs(f) < 1<<53:
		e.buf.WriteString(strconv.FormatInt(int64(f), 10))
	default:
		e.buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
}

func (e *emitter) newline() { e.buf.WriteByte('\n') }

// quote escapes a string permissively: only the quote, backslash, and control
// characters are escaped. Printable characters, including non-ASCII and
// embedded markup, pass through untouched.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
