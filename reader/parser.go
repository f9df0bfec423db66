package reader

import (
	"fmt"
	"io"
	"strconv"
)

// parser decodes PDF syntax from a byte slice. It covers the object
// forms the renderer's own output contains: numbers, names, strings,
// arrays, dictionaries, references, and streams with a direct
// /Length.
type parser struct {
	buf []byte
	off int
}

func newParser(data []byte) *parser { return &parser{buf: data} }

func isSpace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipSpace advances past whitespace and % comments.
func (p *parser) skipSpace() {
	for p.off < len(p.buf) {
		switch b := p.buf[p.off]; {
		case isSpace(b):
			p.off++
		case b == '%':
			for p.off < len(p.buf) && p.buf[p.off] != '\n' && p.buf[p.off] != '\r' {
				p.off++
			}
		default:
			return
		}
	}
}

// token consumes the next run of regular characters.
func (p *parser) token() string {
	p.skipSpace()
	start := p.off
	for p.off < len(p.buf) && !isSpace(p.buf[p.off]) && !isDelim(p.buf[p.off]) {
		p.off++
	}
	return string(p.buf[start:p.off])
}

// hasKeyword consumes kw when it appears at the current position.
func (p *parser) hasKeyword(kw string) bool {
	if p.off+len(kw) <= len(p.buf) && string(p.buf[p.off:p.off+len(kw)]) == kw {
		p.off += len(kw)
		return true
	}
	return false
}

// value parses the next object.
func (p *parser) value() (Object, error) {
	p.skipSpace()
	if p.off >= len(p.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	switch p.buf[p.off] {
	case '/':
		return p.name()
	case '(':
		return p.literalString()
	case '[':
		return p.array()
	case '<':
		if p.off+1 < len(p.buf) && p.buf[p.off+1] == '<' {
			return p.dict()
		}
		return p.hexString()
	default:
		return p.keywordOrNumber()
	}
}

// keywordOrNumber handles true/false/null, numbers, and "N G R"
// references.
func (p *parser) keywordOrNumber() (Object, error) {
	start := p.off
	tok := p.token()
	switch tok {
	case "true":
		return Boolean(true), nil
	case "false":
		return Boolean(false), nil
	case "null":
		return Null{}, nil
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		if ref, ok := p.reference(int(n)); ok {
			return ref, nil
		}
		return Integer(n), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Real(f), nil
	}
	return nil, fmt.Errorf("reader: bad token %q at offset %d", tok, start)
}

// reference tries to complete "num gen R" after the first number was
// read. On any mismatch the position is restored and the number
// stands alone. The R must end at a boundary so that operators like
// RG in content streams stay untouched.
func (p *parser) reference(num int) (Reference, bool) {
	reset := p.off
	gen, err := strconv.Atoi(p.token())
	if err == nil && gen >= 0 {
		p.skipSpace()
		if p.off < len(p.buf) && p.buf[p.off] == 'R' &&
			(p.off+1 >= len(p.buf) || isSpace(p.buf[p.off+1]) || isDelim(p.buf[p.off+1])) {
			p.off++
			return Reference{Number: num, Generation: gen}, true
		}
	}
	p.off = reset
	return Reference{}, false
}

// name reads a /Name, expanding #xx hex escapes.
func (p *parser) name() (Name, error) {
	p.off++ // '/'
	out := make([]byte, 0, 16)
	for p.off < len(p.buf) {
		b := p.buf[p.off]
		if isSpace(b) || isDelim(b) {
			break
		}
		if b == '#' && p.off+2 < len(p.buf) {
			hi, lo := hexVal(p.buf[p.off+1]), hexVal(p.buf[p.off+2])
			if hi >= 0 && lo >= 0 {
				out = append(out, byte(hi<<4|lo))
				p.off += 3
				continue
			}
		}
		out = append(out, b)
		p.off++
	}
	return Name(out), nil
}

// literalString reads (text), balancing nested parens and resolving
// backslash escapes.
func (p *parser) literalString() (String, error) {
	p.off++ // '('
	out := make([]byte, 0, 32)
	depth := 1
	for p.off < len(p.buf) {
		b := p.buf[p.off]
		p.off++
		switch b {
		case '(':
			depth++
			out = append(out, b)
		case ')':
			depth--
			if depth == 0 {
				return String{Value: out}, nil
			}
			out = append(out, b)
		case '\\':
			if p.off >= len(p.buf) {
				return String{}, fmt.Errorf("reader: string escape at end of input")
			}
			e := p.buf[p.off]
			p.off++
			if e >= '0' && e <= '7' {
				v := int(e - '0')
				for n := 0; n < 2 && p.off < len(p.buf) && p.buf[p.off] >= '0' && p.buf[p.off] <= '7'; n++ {
					v = v*8 + int(p.buf[p.off]-'0')
					p.off++
				}
				out = append(out, byte(v))
			} else {
				out = append(out, unescape(e))
			}
		default:
			out = append(out, b)
		}
	}
	return String{}, fmt.Errorf("reader: unterminated string")
}

// unescape maps the named string escapes; any other escaped character
// stands for itself.
func unescape(b byte) byte {
	switch b {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	}
	return b
}

// hexString reads <hex digits>, ignoring whitespace; an odd trailing
// nibble is padded with zero.
func (p *parser) hexString() (String, error) {
	p.off++ // '<'
	out := make([]byte, 0, 16)
	hi := -1
	for p.off < len(p.buf) {
		b := p.buf[p.off]
		p.off++
		switch {
		case b == '>':
			if hi >= 0 {
				out = append(out, byte(hi<<4))
			}
			return String{Value: out, IsHex: true}, nil
		case isSpace(b):
		default:
			v := hexVal(b)
			if v < 0 {
				return String{}, fmt.Errorf("reader: %q in hex string", b)
			}
			if hi < 0 {
				hi = v
			} else {
				out = append(out, byte(hi<<4|v))
				hi = -1
			}
		}
	}
	return String{}, fmt.Errorf("reader: unterminated hex string")
}

func (p *parser) array() (Array, error) {
	p.off++ // '['
	var arr Array
	for {
		p.skipSpace()
		if p.off >= len(p.buf) {
			return nil, fmt.Errorf("reader: unterminated array")
		}
		if p.buf[p.off] == ']' {
			p.off++
			return arr, nil
		}
		el, err := p.value()
		if err != nil {
			return nil, fmt.Errorf("reader: array element %d: %w", len(arr), err)
		}
		arr = append(arr, el)
	}
}

func (p *parser) dict() (Dict, error) {
	p.off += 2 // '<<'
	d := make(Dict)
	for {
		p.skipSpace()
		if p.off+1 < len(p.buf) && p.buf[p.off] == '>' && p.buf[p.off+1] == '>' {
			p.off += 2
			return d, nil
		}
		if p.off >= len(p.buf) {
			return nil, fmt.Errorf("reader: unterminated dictionary")
		}
		if p.buf[p.off] != '/' {
			return nil, fmt.Errorf("reader: dictionary key at offset %d is not a name", p.off)
		}
		key, err := p.name()
		if err != nil {
			return nil, err
		}
		val, err := p.value()
		if err != nil {
			return nil, fmt.Errorf("reader: value of /%s: %w", key, err)
		}
		d[key] = val
	}
}

// indirect parses "N G obj ... endobj", attaching stream data when
// the body is a stream header. /Length must be direct, which holds
// for everything the engine and the archival rewriter write.
func (p *parser) indirect() (*IndirectObject, error) {
	num, err := strconv.Atoi(p.token())
	if err != nil {
		return nil, fmt.Errorf("reader: object number: %w", err)
	}
	gen, err := strconv.Atoi(p.token())
	if err != nil {
		return nil, fmt.Errorf("reader: object generation: %w", err)
	}
	if kw := p.token(); kw != "obj" {
		return nil, fmt.Errorf("reader: expected obj keyword, found %q", kw)
	}
	val, err := p.value()
	if err != nil {
		return nil, fmt.Errorf("reader: object %d %d: %w", num, gen, err)
	}

	p.skipSpace()
	if p.hasKeyword("stream") {
		header, ok := val.(Dict)
		if !ok {
			return nil, fmt.Errorf("reader: stream without a dictionary in object %d", num)
		}
		// One EOL follows the keyword before the body.
		if p.off < len(p.buf) && p.buf[p.off] == '\r' {
			p.off++
		}
		if p.off < len(p.buf) && p.buf[p.off] == '\n' {
			p.off++
		}
		length, _ := header.GetInt("Length")
		end := p.off + int(length)
		if length < 0 || end > len(p.buf) {
			return nil, fmt.Errorf("reader: stream in object %d runs past end of file", num)
		}
		body := append([]byte(nil), p.buf[p.off:end]...)
		p.off = end
		p.skipSpace()
		p.hasKeyword("endstream")
		val = Stream{Dict: header, Data: body}
	}

	p.skipSpace()
	p.hasKeyword("endobj")
	return &IndirectObject{
		Reference: Reference{Number: num, Generation: gen},
		Value:     val,
	}, nil
}

// hexVal returns a hex digit's value, -1 for anything else.
func hexVal(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b - '0')
	case 'a' <= b && b <= 'f':
		return int(b-'a') + 10
	case 'A' <= b && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}
