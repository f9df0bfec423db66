package pdfa

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/lvillar/docpdf/reader"
)

// Report lists the archival compliance markers found in a file. It is
// a marker check, not a full ISO 19005 validation: it confirms the
// structures Rewrite produces, which is what tests and the inspect
// command need.
type Report struct {
	Version      string
	OutputIntent bool
	Metadata     bool
	Part         string
	Conformance  string
	FileID       bool
	Encrypted    bool
	Problems     []string
}

// Conformant reports whether every required marker is present.
func (r *Report) Conformant() bool {
	return len(r.Problems) == 0
}

var (
	partRe        = regexp.MustCompile(`<pdfaid:part>\s*([^<\s]+)\s*</pdfaid:part>`)
	conformanceRe = regexp.MustCompile(`<pdfaid:conformance>\s*([^<\s]+)\s*</pdfaid:conformance>`)
)

// Verify parses data and reports which PDF/A-2b markers it carries.
// Structural parse failures are returned as errors; missing markers
// land in the report's Problems.
func Verify(data []byte) (*Report, error) {
	doc, err := reader.Parse(data)
	if err != nil {
		if bytes.Contains(data, []byte("/Encrypt")) {
			return &Report{
				Encrypted: true,
				Problems:  []string{"file is encrypted; encryption is forbidden in archival files"},
			}, nil
		}
		return nil, fmt.Errorf("pdfa: parsing file: %w", err)
	}

	r := &Report{Version: doc.Version}
	if doc.Version < "1.7" {
		r.Problems = append(r.Problems, fmt.Sprintf("file version %s, need at least 1.7", doc.Version))
	}

	catalog, err := doc.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pdfa: reading catalog: %w", err)
	}
	if _, ok := catalog["OutputIntents"]; ok && bytes.Contains(data, []byte("/GTS_PDFA1")) {
		r.OutputIntent = true
	} else {
		r.Problems = append(r.Problems, "no PDF/A output intent")
	}
	if _, ok := catalog["Metadata"]; ok {
		r.Metadata = true
	} else {
		r.Problems = append(r.Problems, "no XMP metadata stream in catalog")
	}

	// The XMP packet is stored uncompressed, so the identification
	// schema is visible in the raw bytes.
	if m := partRe.FindSubmatch(data); m != nil {
		r.Part = string(m[1])
	}
	if m := conformanceRe.FindSubmatch(data); m != nil {
		r.Conformance = string(m[1])
	}
	if r.Part != "2" || r.Conformance != "B" {
		r.Problems = append(r.Problems,
			fmt.Sprintf("XMP identifies part %q conformance %q, need part 2 conformance B", r.Part, r.Conformance))
	}

	if _, ok := doc.Trailer()["ID"]; ok {
		r.FileID = true
	} else {
		r.Problems = append(r.Problems, "trailer carries no file identifier")
	}

	return r, nil
}
