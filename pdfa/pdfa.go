// Package pdfa rewrites a finished PDF into a PDF/A-2b archival
// document: it bumps the file version, embeds an sRGB output intent
// and an XMP metadata packet, stamps a deterministic file identifier,
// and rebuilds the cross-reference table around the added objects.
package pdfa

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoProfile means Rewrite was called without ICC profile data.
	ErrNoProfile = errors.New("pdfa: missing ICC color profile")
	// ErrBadProfile means the profile data is not an ICC profile.
	ErrBadProfile = errors.New("pdfa: not an ICC color profile")
	// ErrMalformed means the input bytes are not a rewritable PDF.
	ErrMalformed = errors.New("pdfa: malformed PDF input")
)

// Info carries the archival metadata written into the XMP packet and
// the ICC profile embedded as the output intent.
type Info struct {
	Profile []byte
	Title   string
	Author  string
	Subject string
	Creator string
	Created time.Time
}

// sRGB identification strings for the output intent dictionary.
const outputCondition = "sRGB IEC61966-2.1"

var (
	objMarkerRe = regexp.MustCompile(`(?m)^(\d+)\s+(\d+)\s+obj\b`)
	catalogRe   = regexp.MustCompile(`/Type\s*/Catalog\b`)
	sizeRe      = regexp.MustCompile(`/Size\s+\d+`)
	idRe        = regexp.MustCompile(`/ID\s*\[[^\]]*\]`)
)

// Rewrite converts the PDF in data to PDF/A-2b and returns the new
// file. The input is not modified. Rewriting is deterministic: the
// same input and Info produce identical output bytes.
func Rewrite(data []byte, info Info) ([]byte, error) {
	if len(info.Profile) == 0 {
		return nil, ErrNoProfile
	}
	if err := checkProfile(info.Profile); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.")) || len(data) < 16 {
		return nil, ErrMalformed
	}

	out := make([]byte, len(data))
	copy(out, data)

	// PDF/A-2 requires file version 1.7. The version digit is replaced
	// in place so no object offset shifts.
	out[7] = '7'

	maxObj := maxObjectNumber(out)
	if maxObj == 0 {
		return nil, fmt.Errorf("%w: no objects found", ErrMalformed)
	}
	iccNum := maxObj + 1
	intentNum := maxObj + 2
	metaNum := maxObj + 3

	out, err := patchCatalog(out, intentNum, metaNum)
	if err != nil {
		return nil, err
	}

	// The file identifier is derived from the content so identical
	// inputs keep identical output bytes.
	docID := uuid.NewSHA1(uuid.NameSpaceURL, out)

	var objs bytes.Buffer
	writeICCObject(&objs, iccNum, info.Profile)
	writeIntentObject(&objs, intentNum, iccNum)
	writeMetadataObject(&objs, metaNum, info, "uuid:"+docID.String())

	out, err = insertBeforeXref(out, objs.Bytes())
	if err != nil {
		return nil, err
	}
	out, err = patchTrailer(out, maxObj+4, docID)
	if err != nil {
		return nil, err
	}
	return rebuildXref(out)
}

// LoadProfile reads an ICC color profile from path, checking the ICC
// signature before accepting it.
func LoadProfile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfa: reading profile: %w", err)
	}
	if err := checkProfile(data); err != nil {
		return nil, err
	}
	return data, nil
}

// checkProfile verifies the "acsp" signature at byte 36 of the ICC
// header.
func checkProfile(data []byte) error {
	if len(data) < 128 || string(data[36:40]) != "acsp" {
		return ErrBadProfile
	}
	return nil
}

func maxObjectNumber(data []byte) int {
	max := 0
	for _, m := range objMarkerRe.FindAllSubmatchIndex(data, -1) {
		if n, err := strconv.Atoi(string(data[m[2]:m[3]])); err == nil && n > max {
			max = n
		}
	}
	return max
}

// patchCatalog inserts /OutputIntents and /Metadata entries into the
// document catalog dictionary.
func patchCatalog(data []byte, intentNum, metaNum int) ([]byte, error) {
	loc := catalogRe.FindIndex(data)
	if loc == nil {
		return nil, fmt.Errorf("%w: catalog not found", ErrMalformed)
	}
	start := findDictStart(data, loc[0])
	end := findDictEnd(data, loc[0])
	if start < 0 || end < 0 {
		return nil, fmt.Errorf("%w: unbalanced catalog dictionary", ErrMalformed)
	}

	extra := fmt.Sprintf(" /OutputIntents [%d 0 R] /Metadata %d 0 R ", intentNum, metaNum)
	result := make([]byte, 0, len(data)+len(extra))
	result = append(result, data[:end]...)
	result = append(result, []byte(extra)...)
	result = append(result, data[end:]...)
	return result, nil
}

func writeICCObject(buf *bytes.Buffer, num int, profile []byte) {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(profile)
	zw.Close()

	fmt.Fprintf(buf, "%d 0 obj\n<< /N 3 /Filter /FlateDecode /Length %d >>\nstream\n",
		num, compressed.Len())
	buf.Write(compressed.Bytes())
	buf.WriteString("\nendstream\nendobj\n")
}

func writeIntentObject(buf *bytes.Buffer, num, iccNum int) {
	fmt.Fprintf(buf, "%d 0 obj\n<< /Type /OutputIntent /S /GTS_PDFA1"+
		" /OutputConditionIdentifier (%s) /Info (%s)"+
		" /DestOutputProfile %d 0 R >>\nendobj\n",
		num, outputCondition, outputCondition, iccNum)
}

func writeMetadataObject(buf *bytes.Buffer, num int, info Info, docID string) {
	packet := xmpPacket(info, docID)
	// XMP streams stay uncompressed so archival tooling can read the
	// packet without decoding the file.
	fmt.Fprintf(buf, "%d 0 obj\n<< /Type /Metadata /Subtype /XML /Length %d >>\nstream\n",
		num, len(packet))
	buf.Write(packet)
	buf.WriteString("\nendstream\nendobj\n")
}

// insertBeforeXref splices the new object definitions between the last
// body object and the xref table.
func insertBeforeXref(data, objs []byte) ([]byte, error) {
	xrefIdx := bytes.LastIndex(data, []byte("\nxref\n"))
	if xrefIdx < 0 {
		return nil, fmt.Errorf("%w: xref table not found", ErrMalformed)
	}
	result := make([]byte, 0, len(data)+len(objs))
	result = append(result, data[:xrefIdx+1]...)
	result = append(result, objs...)
	result = append(result, data[xrefIdx+1:]...)
	return result, nil
}

// patchTrailer updates /Size for the appended objects and stamps the
// deterministic /ID pair.
func patchTrailer(data []byte, size int, docID uuid.UUID) ([]byte, error) {
	trailerIdx := bytes.LastIndex(data, []byte("trailer"))
	if trailerIdx < 0 {
		return nil, fmt.Errorf("%w: trailer not found", ErrMalformed)
	}
	trailer := data[trailerIdx:]

	trailer = sizeRe.ReplaceAll(trailer, []byte(fmt.Sprintf("/Size %d", size)))

	hexID := hex.EncodeToString(docID[:])
	idEntry := []byte(fmt.Sprintf("/ID [<%s> <%s>]", hexID, hexID))
	if idRe.Match(trailer) {
		trailer = idRe.ReplaceAll(trailer, idEntry)
	} else if end := bytes.Index(trailer, []byte(">>")); end >= 0 {
		patched := make([]byte, 0, len(trailer)+len(idEntry)+2)
		patched = append(patched, trailer[:end]...)
		patched = append(patched, ' ')
		patched = append(patched, idEntry...)
		patched = append(patched, ' ')
		patched = append(patched, trailer[end:]...)
		trailer = patched
	}

	result := make([]byte, 0, trailerIdx+len(trailer))
	result = append(result, data[:trailerIdx]...)
	result = append(result, trailer...)
	return result, nil
}

// rebuildXref scans the body for object definitions and rebuilds the
// cross-reference table and startxref with correct offsets.
func rebuildXref(data []byte) ([]byte, error) {
	matches := objMarkerRe.FindAllSubmatchIndex(data, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no objects found", ErrMalformed)
	}

	type objInfo struct {
		gen, offset int
	}
	offsets := make(map[int]objInfo)
	maxObj := 0
	for _, m := range matches {
		num, _ := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, _ := strconv.Atoi(string(data[m[4]:m[5]]))
		offsets[num] = objInfo{gen: gen, offset: m[0]}
		if num > maxObj {
			maxObj = num
		}
	}

	xrefIdx := bytes.LastIndex(data, []byte("\nxref\n"))
	if xrefIdx < 0 {
		return nil, fmt.Errorf("%w: xref table not found", ErrMalformed)
	}
	trailerIdx := bytes.Index(data[xrefIdx:], []byte("trailer"))
	if trailerIdx < 0 {
		return nil, fmt.Errorf("%w: trailer not found", ErrMalformed)
	}
	trailerAbs := xrefIdx + trailerIdx
	startxrefIdx := bytes.Index(data[trailerAbs:], []byte("startxref"))
	if startxrefIdx < 0 {
		return nil, fmt.Errorf("%w: startxref not found", ErrMalformed)
	}
	trailerDict := bytes.TrimSpace(data[trailerAbs+7 : trailerAbs+startxrefIdx])

	body := data[:xrefIdx+1]

	var xref bytes.Buffer
	xref.WriteString("xref\n")
	fmt.Fprintf(&xref, "0 %d\n", maxObj+1)
	xref.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxObj; i++ {
		if obj, ok := offsets[i]; ok {
			fmt.Fprintf(&xref, "%010d %05d n \n", obj.offset, obj.gen)
		} else {
			xref.WriteString("0000000000 00000 f \n")
		}
	}

	var result bytes.Buffer
	result.Write(body)
	newXrefOffset := result.Len()
	result.Write(xref.Bytes())
	result.WriteString("trailer\n")
	result.Write(trailerDict)
	fmt.Fprintf(&result, "\nstartxref\n%d\n%%%%EOF\n", newXrefOffset)
	return result.Bytes(), nil
}

// findDictStart searches backward from pos for the nearest "<<".
func findDictStart(data []byte, pos int) int {
	depth := 0
	for i := pos - 1; i > 0; i-- {
		if i+1 < len(data) && data[i] == '>' && data[i+1] == '>' {
			depth++
		}
		if data[i] == '<' && data[i-1] == '<' {
			if depth == 0 {
				return i - 1
			}
			depth--
		}
	}
	return -1
}

// findDictEnd searches forward from pos, which sits inside a
// dictionary body, for that dictionary's closing ">>". Nested
// dictionaries opened after pos are skipped over by depth.
func findDictEnd(data []byte, pos int) int {
	depth := 0
	for i := pos; i < len(data)-1; i++ {
		if data[i] == '<' && data[i+1] == '<' {
			depth++
			i++
			continue
		}
		if data[i] == '>' && data[i+1] == '>' {
			if depth == 0 {
				return i
			}
			depth--
			i++
		}
	}
	return -1
}
