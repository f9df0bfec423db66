package reader

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"io"
)

// Decode returns the stream body with its /Filter chain undone. Flate
// and ASCIIHex cover everything the engine and the archival rewriter
// write; any other filter is an error naming it.
func (s Stream) Decode() ([]byte, error) {
	data := s.Data
	for _, f := range s.filters() {
		var err error
		switch f {
		case "FlateDecode", "Fl":
			data, err = inflate(data)
		case "ASCIIHexDecode", "AHx":
			data, err = unhexBody(data)
		default:
			return nil, fmt.Errorf("reader: filter %s is not supported", f)
		}
		if err != nil {
			return nil, fmt.Errorf("reader: %s: %w", f, err)
		}
	}
	return data, nil
}

// filters normalizes /Filter, which is a single name or an array.
func (s Stream) filters() []Name {
	switch f := s.Dict["Filter"].(type) {
	case Name:
		return []Name{f}
	case Array:
		names := make([]Name, 0, len(f))
		for _, el := range f {
			if n, ok := el.(Name); ok {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// unhexBody decodes hex data terminated by '>', padding an odd
// trailing nibble with zero.
func unhexBody(data []byte) ([]byte, error) {
	compact := make([]byte, 0, len(data)/2)
	for _, b := range data {
		if b == '>' {
			break
		}
		if !isSpace(b) {
			compact = append(compact, b)
		}
	}
	if len(compact)%2 == 1 {
		compact = append(compact, '0')
	}
	out := make([]byte, hex.DecodedLen(len(compact)))
	if _, err := hex.Decode(out, compact); err != nil {
		return nil, err
	}
	return out, nil
}
