// Package termhtml converts raw terminal output into HTML that is safe to
// inject into a page.
//
// Decoding runs in three stages: ANSI escape sequences become styled spans
// (text is HTML-escaped), residual entities are decoded so that markup sent
// deliberately by the server (such as <br>) renders, and the result is passed
// through a strict allow-list sanitizer so that the entity stage can never
// re-introduce active markup from the stream.
//
// Decoding never fails. Sequences that cannot be interpreted degrade to
// literal text or are dropped.
package termhtml

import (
	"html"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const esc = '\x1b'

// Decoder converts raw terminal chunks into safe markup. The zero value is
// ready to use and is safe for concurrent use.
//
// Each chunk is decoded on its own: SGR state starts from the default style
// and is closed at the end of the chunk, so a color set in one chunk does not
// carry into the next. An escape sequence split across two chunks degrades to
// literal text (for example "[3" followed by "1m").
type Decoder struct {
	// ExpandEscapes turns literal backslash escapes ("\x1b", "\n", "\r")
	// into the control characters they name before decoding. Some servers
	// forward output in its escaped textual form.
	ExpandEscapes bool
}

// Decode converts one chunk with the default decoder.
func Decode(raw string) string {
	return Decoder{}.Decode(raw)
}

// Decode converts one chunk. The same input always yields the same output.
func (d Decoder) Decode(raw string) string {
	if raw == "" {
		return ""
	}
	if d.ExpandEscapes {
		raw = ExpandEscapes(raw)
	}
	markup := ToMarkup(raw)
	return Sanitize(html.UnescapeString(markup))
}

var escapeExpander = strings.NewReplacer(
	`\r`, "",
	`\n`, "\n",
	`\x1b`, "\x1b",
	`\x1B`, "\x1b",
	`\u001b`, "\x1b",
	`\033`, "\x1b",
)

// ExpandEscapes turns literal escape text into the control characters it
// names. Literal "\r" is dropped.
func ExpandEscapes(raw string) string {
	return escapeExpander.Replace(raw)
}

// ToMarkup is the first decoding stage: it renders SGR sequences as inline
// styled spans, escapes text and drops every other control sequence. Its
// output is not sanitized.
func ToMarkup(raw string) string {
	var (
		out  strings.Builder
		cur  style
		open bool
	)
	out.Grow(len(raw) + len(raw)/4)

	setStyle := func(next style) {
		if next == cur {
			return
		}
		if open {
			out.WriteString("</span>")
			open = false
		}
		cur = next
		if !cur.isZero() {
			out.WriteString(`<span style="` + cur.css() + `">`)
			open = true
		}
	}

	s := raw
	for len(s) > 0 {
		// Plain text up to the next control byte.
		i := strings.IndexFunc(s, isControl)
		if i < 0 {
			out.WriteString(html.EscapeString(s))
			break
		}
		if i > 0 {
			out.WriteString(html.EscapeString(s[:i]))
			s = s[i:]
		}

		switch s[0] {
		case '\n', '\t':
			out.WriteByte(s[0])
			s = s[1:]
			continue
		case esc:
		default:
			// Carriage returns, bells, backspaces and other C0 controls
			// have no place in static markup.
			s = s[1:]
			continue
		}

		seq, _, n, _ := ansi.DecodeSequence(s, 0, nil)
		if n <= 0 {
			n = 1
			seq = s[:1]
		}
		s = s[n:]

		switch classify(seq) {
		case seqSGR:
			if next, ok := applySGR(cur, seq[2:len(seq)-1]); ok {
				setStyle(next)
			} else {
				out.WriteString(html.EscapeString(literal(seq)))
			}
		case seqIncomplete:
			out.WriteString(html.EscapeString(literal(seq)))
		default:
			// Cursor movement, OSC titles, charset selection: no visual
			// equivalent in appended markup.
		}
	}
	if open {
		out.WriteString("</span>")
	}
	return out.String()
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

type seqKind int

const (
	seqOther seqKind = iota
	seqSGR
	seqIncomplete
)

// classify inspects an escape sequence returned by the ANSI decoder.
func classify(seq string) seqKind {
	if len(seq) < 2 {
		return seqIncomplete
	}
	switch seq[1] {
	case '[':
		final := seq[len(seq)-1]
		if len(seq) < 3 || final < 0x40 || final > 0x7e {
			return seqIncomplete
		}
		if final == 'm' && isSGRParams(seq[2:len(seq)-1]) {
			return seqSGR
		}
		return seqOther
	case ']', 'P', '_', '^', 'X':
		if strings.HasSuffix(seq, "\x07") || strings.HasSuffix(seq, "\x1b\\") {
			return seqOther
		}
		return seqIncomplete
	default:
		return seqOther
	}
}

// isSGRParams reports whether the CSI parameter bytes belong to a plain SGR
// sequence (no private markers or intermediates).
func isSGRParams(params string) bool {
	for i := 0; i < len(params); i++ {
		c := params[i]
		if (c < '0' || c > '9') && c != ';' && c != ':' {
			return false
		}
	}
	return true
}

// literal renders an uninterpretable sequence as the text following its
// introducer, minus any control characters.
func literal(seq string) string {
	return strings.Map(func(r rune) rune {
		if isControl(r) {
			return -1
		}
		return r
	}, seq[1:])
}

// Plain strips every escape sequence and control character except newlines
// and tabs. It is the rendition used for terminal sinks.
func Plain(raw string) string {
	var out strings.Builder
	out.Grow(len(raw))

	s := raw
	for len(s) > 0 {
		i := strings.IndexFunc(s, isControl)
		if i < 0 {
			out.WriteString(s)
			break
		}
		out.WriteString(s[:i])
		s = s[i:]

		switch s[0] {
		case '\n', '\t':
			out.WriteByte(s[0])
			s = s[1:]
		case esc:
			_, _, n, _ := ansi.DecodeSequence(s, 0, nil)
			if n <= 0 {
				n = 1
			}
			s = s[n:]
		default:
			s = s[1:]
		}
	}
	return out.String()
}
