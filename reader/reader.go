// Package reader parses PDF files back into an object graph: xref
// table, trailer, page tree, content streams, and basic text
// extraction.
//
// Within docpdf it serves two callers: the pdfa package, which
// re-reads freshly rendered output to verify archival markers, and
// tests, which assert on the visible text of rendered documents. It
// handles the subset of PDF the renderer itself produces (classic
// xref tables, flate-compressed streams, unencrypted files).
package reader

import (
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Document is a parsed PDF file.
type Document struct {
	Version string // from the file header, e.g. "1.7"
	xref    xrefTable
	trailer Dict
	data    []byte
	pages   []*Page
}

// Open parses a PDF file from disk.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reader: opening %s: %w", filename, err)
	}
	return Parse(data)
}

// ReadFrom parses a PDF document from r. The content is read entirely
// into memory for random access.
func ReadFrom(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reader: reading input: %w", err)
	}
	return Parse(data)
}

// Parse builds a Document from raw PDF bytes.
func Parse(data []byte) (*Document, error) {
	doc := &Document{data: data}

	doc.Version = parseVersion(data)

	xref, trailer, err := loadXref(data)
	if err != nil {
		return nil, err
	}
	doc.xref = xref
	doc.trailer = trailer

	if _, encrypted := trailer["Encrypt"]; encrypted {
		return nil, fmt.Errorf("reader: document is encrypted")
	}

	if err := doc.buildPageList(); err != nil {
		return nil, err
	}

	return doc, nil
}

// parseVersion extracts the version from the "%PDF-x.y" file header.
func parseVersion(data []byte) string {
	if len(data) < 8 {
		return ""
	}
	header := string(data[:min(20, len(data))])
	if idx := strings.Index(header, "%PDF-"); idx >= 0 {
		end := idx + 5
		for end < len(header) && header[end] != '\n' && header[end] != '\r' {
			end++
		}
		return header[idx+5 : end]
	}
	return ""
}

// NumPages returns the total number of pages in the document.
func (d *Document) NumPages() int {
	return len(d.pages)
}

// Page returns the page at the given 1-based index.
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("reader: page %d out of range [1, %d]", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Pages returns an iterator over all pages. Index is 1-based.
func (d *Document) Pages() iter.Seq2[int, *Page] {
	return func(yield func(int, *Page) bool) {
		for i, page := range d.pages {
			if !yield(i+1, page) {
				return
			}
		}
	}
}

// Trailer returns the document's trailer dictionary.
func (d *Document) Trailer() Dict {
	return d.trailer
}

// Catalog returns the document catalog (the trailer's /Root).
func (d *Document) Catalog() (Dict, error) {
	obj, err := d.resolveIfRef(d.trailer["Root"])
	if err != nil {
		return nil, fmt.Errorf("reader: resolving catalog: %w", err)
	}
	catalog, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("reader: /Root is not a dictionary")
	}
	return catalog, nil
}

// Metadata returns the document information dictionary entries.
func (d *Document) Metadata() map[string]string {
	meta := make(map[string]string)

	infoObj, ok := d.trailer["Info"]
	if !ok {
		return meta
	}

	resolved, err := d.resolveIfRef(infoObj)
	if err != nil {
		return meta
	}
	infoDict, ok := resolved.(Dict)
	if !ok {
		return meta
	}

	for _, key := range []Name{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate"} {
		if v, ok := infoDict[key]; ok {
			if s, ok := v.(String); ok {
				meta[string(key)] = textString(s.Value)
			}
		}
	}
	return meta
}

// resolve resolves an indirect reference to the actual object.
func (d *Document) resolve(ref Reference) (Object, error) {
	entry, ok := d.xref[ref.Number]
	if !ok || !entry.inUse {
		return Null{}, nil
	}

	if entry.offset < 0 || int(entry.offset) >= len(d.data) {
		return nil, fmt.Errorf("reader: object %d offset %d out of bounds", ref.Number, entry.offset)
	}

	p := newParser(d.data[entry.offset:])
	obj, err := p.indirect()
	if err != nil {
		return nil, fmt.Errorf("reader: parsing object %d: %w", ref.Number, err)
	}

	return obj.Value, nil
}

// resolveIfRef resolves an object if it is a Reference, otherwise
// returns it as-is.
func (d *Document) resolveIfRef(obj Object) (Object, error) {
	if ref, ok := obj.(Reference); ok {
		return d.resolve(ref)
	}
	return obj, nil
}

// ResolveReference resolves an indirect reference to the actual object.
func (d *Document) ResolveReference(ref Reference) (Object, error) {
	return d.resolve(ref)
}
