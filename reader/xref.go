package reader

import (
	"bytes"
	"fmt"
	"strconv"
)

// xrefEntry locates one numbered object in the file.
type xrefEntry struct {
	offset int64
	inUse  bool
}

type xrefTable map[int]xrefEntry

// loadXref follows startxref to the cross-reference table and merges
// any /Prev sections behind it, newest entries winning. Only classic
// tables are understood: the engine and the archival rewriter both
// write them, and cross-reference streams never appear in this
// renderer's output.
func loadXref(data []byte) (xrefTable, Dict, error) {
	offset, err := startXref(data)
	if err != nil {
		return nil, nil, err
	}

	table := make(xrefTable)
	var trailer Dict
	visited := make(map[int64]bool)
	for {
		if visited[offset] {
			return nil, nil, fmt.Errorf("reader: xref /Prev cycle at offset %d", offset)
		}
		visited[offset] = true

		section, sectTrailer, err := readXrefSection(data, offset)
		if err != nil {
			return nil, nil, err
		}
		for num, ent := range section {
			if _, seen := table[num]; !seen {
				table[num] = ent
			}
		}
		if trailer == nil {
			trailer = sectTrailer
		}
		prev, ok := sectTrailer.GetInt("Prev")
		if !ok {
			return table, trailer, nil
		}
		offset = prev
	}
}

// startXref finds the byte offset recorded after the startxref
// keyword near the end of the file.
func startXref(data []byte) (int64, error) {
	tail := data
	if len(tail) > 1024 {
		tail = tail[len(tail)-1024:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("reader: no startxref marker")
	}
	p := newParser(tail[idx+len("startxref"):])
	off, err := strconv.ParseInt(p.token(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("reader: startxref offset: %w", err)
	}
	return off, nil
}

// readXrefSection reads one xref table and its trailer dictionary.
func readXrefSection(data []byte, offset int64) (xrefTable, Dict, error) {
	if offset < 0 || offset >= int64(len(data)) {
		return nil, nil, fmt.Errorf("reader: xref offset %d outside file", offset)
	}

	p := newParser(data[offset:])
	if kw := p.token(); kw != "xref" {
		return nil, nil, fmt.Errorf("reader: expected xref table at offset %d, found %q (cross-reference streams are not supported)", offset, kw)
	}

	section := make(xrefTable)
	for {
		p.skipSpace()
		if p.hasKeyword("trailer") {
			break
		}
		if p.off >= len(p.buf) {
			return nil, nil, fmt.Errorf("reader: xref table without a trailer")
		}
		first, err := strconv.Atoi(p.token())
		if err != nil {
			return nil, nil, fmt.Errorf("reader: xref subsection start: %w", err)
		}
		count, err := strconv.Atoi(p.token())
		if err != nil {
			return nil, nil, fmt.Errorf("reader: xref subsection count: %w", err)
		}
		for i := 0; i < count; i++ {
			off, err := strconv.ParseInt(p.token(), 10, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("reader: xref entry %d: %w", first+i, err)
			}
			p.token() // generation, unused
			kind := p.token()
			section[first+i] = xrefEntry{offset: off, inUse: kind == "n"}
		}
	}

	obj, err := p.value()
	if err != nil {
		return nil, nil, fmt.Errorf("reader: trailer: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("reader: trailer is a %T, not a dictionary", obj)
	}
	return section, trailer, nil
}
