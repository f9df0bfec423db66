package reader

import (
	"strings"
	"unicode/utf16"
)

// ExtractText returns the visible text of the page in content-stream
// order. It collects the string operands of the Tj, TJ, ' and "
// operators inside BT/ET blocks; positioning operators separate runs
// with a space. Fonts carrying a custom CMap are not remapped.
func (p *Page) ExtractText() (string, error) {
	content, err := p.ContentStream()
	if err != nil {
		return "", err
	}
	var out strings.Builder
	sc := contentScanner{parser: parser{buf: content}}
	sc.run(&out)
	return strings.TrimSpace(out.String()), nil
}

// contentScanner walks a content stream as alternating operands and
// operators, keeping the string operands until an operator decides
// whether they are text.
type contentScanner struct {
	parser
	inText  bool
	pending []String
}

func (sc *contentScanner) run(out *strings.Builder) {
	for {
		sc.skipSpace()
		if sc.off >= len(sc.buf) {
			return
		}
		if startsValue(sc.buf[sc.off]) {
			obj, err := sc.value()
			if err != nil {
				// Lost sync; step one byte and pick the scan back up.
				sc.off++
				continue
			}
			sc.operand(obj)
			continue
		}
		op := sc.token()
		if op == "" {
			sc.off++ // stray delimiter
			continue
		}
		sc.operator(op, out)
	}
}

// startsValue reports whether b opens an operand rather than an
// operator keyword.
func startsValue(b byte) bool {
	return b == '(' || b == '[' || b == '/' || b == '<' ||
		b == '+' || b == '-' || b == '.' || ('0' <= b && b <= '9')
}

func (sc *contentScanner) operand(obj Object) {
	switch v := obj.(type) {
	case String:
		sc.pending = append(sc.pending, v)
	case Array:
		for _, el := range v {
			if s, ok := el.(String); ok {
				sc.pending = append(sc.pending, s)
			}
		}
	}
}

func (sc *contentScanner) operator(op string, out *strings.Builder) {
	switch op {
	case "BT":
		sc.inText = true
	case "ET":
		sc.inText = false
		out.WriteByte(' ')
	case "Tj", "TJ", "'", `"`:
		if sc.inText {
			for _, s := range sc.pending {
				out.WriteString(textString(s.Value))
			}
		}
	case "Td", "TD", "T*":
		out.WriteByte(' ')
	}
	sc.pending = sc.pending[:0]
}

// textString decodes extracted string bytes: UTF-16BE behind a byte
// order mark, otherwise a single-byte encoding read as Latin-1.
func textString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		return utf16BE(b[2:])
	}
	var out strings.Builder
	for _, c := range b {
		out.WriteRune(rune(c))
	}
	return out.String()
}

func utf16BE(b []byte) string {
	codes := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		codes = append(codes, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(codes))
}
