package dump

import (
	"math"
	"testing"
)

func TestEmitterOrderingAndIndentation(t *testing.T) {
	e := newEmitter()
	e.beginObject()
	e.key("b")
	e.str("first")
	e.key("a")
	e.beginObject()
	e.key("nested")
	e.integer(1)
	e.endObject()
	e.key("list")
	e.beginArray()
	e.element()
	e.integer(1)
	e.element()
	e.integer(2)
	e.endArray()
	e.endObject()
	e.newline()

	want := `{
  "b": "first",
  "a": {
    "nested": 1
  },
  "list": [
    1,
    2
  ]
}
`
	if got := string(e.bytes()); got != want {
		t.Errorf("emitter output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitterEmptyContainers(t *testing.T) {
	e := newEmitter()
	e.beginObject()
	e.key("obj")
	e.beginObject()
	e.endObject()
	e.key("arr")
	e.beginArray()
	e.endArray()
	e.endObject()

	want := `{
  "obj": {},
  "arr": []
}`
	if got := string(e.bytes()); got != want {
		t.Errorf("emitter output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitterNumberFormatting(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.0, "1"},
		{-3.0, "-3"},
		{2.5, "2.5"},
		{0.1, "0.1"},
		{math.NaN(), "null"},
		{math.Inf(1), "null"},
		{math.Inf(-1), "null"},
		{1e20, "1e+20"}, // too large for exact integer collapse
	}
	for _, tt := range tests {
		e := newEmitter()
		e.number(tt.in)
		if got := string(e.bytes()); got != tt.want {
			t.Errorf("number(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuotePermissiveEscaping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\there", `"tab\there"`},
		{"bell\x07", `"bell\u0007"`},
		// Non-ASCII and markup pass through untouched.
		{"héllo <b>bold</b> & more", `"héllo <b>bold</b> & more"`},
		{"emoji ✓", `"emoji ✓"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEmitterBooleansAndNull(t *testing.T) {
	e := newEmitter()
	e.beginObject()
	e.key("yes")
	e.boolean(true)
	e.key("no")
	e.boolean(false)
	e.key("none")
	e.null()
	e.endObject()

	want := `{
  "yes": true,
  "no": false,
  "none": null
}`
	if got := string(e.bytes()); got != want {
		t.Errorf("emitter output mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
