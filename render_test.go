package docpdf_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lvillar/docpdf"
	"github.com/lvillar/docpdf/reader"
	"github.com/lvillar/docpdf/schema"
)

// buildDoc assembles a document whose root slot holds the given nodes
// in order. Node slots must already be wired by the caller.
func buildDoc(nodes ...*schema.Node) *schema.Document {
	doc := &schema.Document{
		Root:  "root",
		Nodes: map[schema.NodeID]*schema.Node{},
		Slots: map[schema.SlotID]*schema.Slot{},
	}
	root := &schema.Node{ID: "root", Type: schema.NodeRoot, Slots: []schema.SlotID{"s-root"}}
	rootSlot := &schema.Slot{ID: "s-root", NodeID: "root", Name: "default"}
	doc.Nodes["root"] = root
	doc.Slots["s-root"] = rootSlot
	for _, n := range nodes {
		doc.Nodes[n.ID] = n
		rootSlot.Children = append(rootSlot.Children, n.ID)
	}
	return doc
}

func textNode(id schema.NodeID, content string) *schema.Node {
	return &schema.Node{
		ID:    id,
		Type:  schema.NodeText,
		Props: map[string]schema.Value{"content": schema.FromAny(content)},
	}
}

// addSlot attaches a named slot with children to an existing node.
func addSlot(doc *schema.Document, owner schema.NodeID, name string, children ...*schema.Node) schema.SlotID {
	id := schema.SlotID(fmt.Sprintf("s-%s-%s", owner, name))
	slot := &schema.Slot{ID: id, NodeID: owner, Name: name}
	for _, c := range children {
		doc.Nodes[c.ID] = c
		slot.Children = append(slot.Children, c.ID)
	}
	doc.Slots[id] = slot
	n := doc.Nodes[owner]
	n.Slots = append(n.Slots, id)
	return id
}

func render(t *testing.T, doc *schema.Document, theme *schema.Theme, data map[string]any, opts ...docpdf.Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := docpdf.Render(&buf, doc, theme, data, opts...); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.Bytes()
}

func extractAllText(t *testing.T, pdf []byte) string {
	t.Helper()
	doc, err := reader.Parse(pdf)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	var sb strings.Builder
	for _, page := range doc.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			t.Fatalf("extracting text: %v", err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestRenderProducesPDF(t *testing.T) {
	out := render(t, buildDoc(textNode("t1", "hello")), nil, nil)
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF: %q", out[:8])
	}
	if !bytes.Contains(out, []byte("%%EOF")) {
		t.Fatal("output has no EOF marker")
	}
}

func TestRenderNilDocument(t *testing.T) {
	err := docpdf.Render(&bytes.Buffer{}, nil, nil, nil)
	if !errors.Is(err, docpdf.ErrNilDocument) {
		t.Fatalf("expected ErrNilDocument, got %v", err)
	}
	var re *docpdf.RenderError
	if !errors.As(err, &re) || re.Op != "render" {
		t.Fatalf("expected RenderError with op render, got %v", err)
	}
}

func TestRenderMissingRoot(t *testing.T) {
	doc := buildDoc()
	doc.Root = "nowhere"
	err := docpdf.Render(&bytes.Buffer{}, doc, nil, nil)
	if !errors.Is(err, docpdf.ErrMissingRoot) {
		t.Fatalf("expected ErrMissingRoot, got %v", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	doc := buildDoc(textNode("t1", "same input"), textNode("t2", "same bytes"))
	data := map[string]any{"n": 42}
	a := render(t, doc, nil, data)
	b := render(t, doc, nil, data)
	if !bytes.Equal(a, b) {
		t.Fatal("two renders of identical input differ")
	}
}

func TestRenderMetadata(t *testing.T) {
	out := render(t, buildDoc(textNode("t1", "x")), nil, nil,
		docpdf.WithMetadata(docpdf.Metadata{
			Title:  "Quarterly Report",
			Author: "Finance",
		}))

	doc, err := reader.Parse(out)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	meta := doc.Metadata()
	if meta["Title"] != "Quarterly Report" {
		t.Errorf("title = %q", meta["Title"])
	}
	if meta["Author"] != "Finance" {
		t.Errorf("author = %q", meta["Author"])
	}
}

func TestRenderMaxOutputSize(t *testing.T) {
	doc := buildDoc(textNode("t1", "payload"))
	err := docpdf.Render(&bytes.Buffer{}, doc, nil, nil, docpdf.WithMaxOutputSize(64))
	if !errors.Is(err, docpdf.ErrOutputTooLarge) {
		t.Fatalf("expected ErrOutputTooLarge, got %v", err)
	}
}

func TestRenderUnknownNodeTypeDegrades(t *testing.T) {
	doc := buildDoc(
		textNode("t1", "before"),
		&schema.Node{ID: "weird", Type: schema.NodeType("hologram")},
		textNode("t2", "after"),
	)
	text := extractAllText(t, render(t, doc, nil, nil))
	if !strings.Contains(text, "before") || !strings.Contains(text, "after") {
		t.Fatalf("siblings of unknown node missing: %q", text)
	}
}

func TestRenderInterpolation(t *testing.T) {
	doc := buildDoc(textNode("t1", "Hello {{ user.name }}, order {{ order.id }}"))
	data := map[string]any{
		"user":  map[string]any{"name": "Ada"},
		"order": map[string]any{"id": 7},
	}
	text := extractAllText(t, render(t, doc, nil, data))
	if !strings.Contains(text, "Hello Ada, order 7") {
		t.Fatalf("interpolation failed: %q", text)
	}
}

func TestRenderPageBreak(t *testing.T) {
	doc := buildDoc(
		textNode("t1", "page one"),
		&schema.Node{ID: "br", Type: schema.NodePageBreak},
		textNode("t2", "page two"),
	)
	out := render(t, doc, nil, nil)
	parsed, err := reader.Parse(out)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if parsed.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", parsed.NumPages())
	}
}

func TestRenderConditional(t *testing.T) {
	tests := []struct {
		name      string
		condition any
		inverse   bool
		want      bool
	}{
		{"true renders", true, false, true},
		{"true inverse skips", true, true, false},
		{"false skips", false, false, false},
		{"false inverse renders", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := &schema.Node{
				ID:   "cond",
				Type: schema.NodeConditional,
				Props: map[string]schema.Value{
					"condition": schema.FromAny("flag"),
					"inverse":   schema.FromAny(tt.inverse),
				},
			}
			doc := buildDoc(cond)
			addSlot(doc, "cond", "default", textNode("inner", "visible"))

			text := extractAllText(t, render(t, doc, nil, map[string]any{"flag": tt.condition}))
			if got := strings.Contains(text, "visible"); got != tt.want {
				t.Fatalf("rendered=%v want %v", got, tt.want)
			}
		})
	}
}

func TestRenderConditionalMissingConditionSkips(t *testing.T) {
	// An unresolvable condition renders nothing even with inverse set.
	cond := &schema.Node{
		ID:   "cond",
		Type: schema.NodeConditional,
		Props: map[string]schema.Value{
			"condition": schema.FromAny("no.such.path"),
			"inverse":   schema.FromAny(true),
		},
	}
	doc := buildDoc(cond)
	addSlot(doc, "cond", "default", textNode("inner", "visible"))

	text := extractAllText(t, render(t, doc, nil, nil))
	if strings.Contains(text, "visible") {
		t.Fatal("invalid condition must skip regardless of inverse")
	}
}

func TestRenderLoopScope(t *testing.T) {
	loop := &schema.Node{
		ID:   "loop",
		Type: schema.NodeLoop,
		Props: map[string]schema.Value{
			"expression": schema.FromAny("names"),
			"alias":      schema.FromAny("who"),
		},
	}
	doc := buildDoc(loop)
	addSlot(doc, "loop", "default",
		textNode("row", "{{ who_index }}: {{ who }} first={{ who_first }} last={{ who_last }}"))

	data := map[string]any{"names": []any{"ana", "bo"}}
	text := extractAllText(t, render(t, doc, nil, data))

	for _, want := range []string{
		"0: ana first=true last=false",
		"1: bo first=false last=true",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestRenderNestedLoops(t *testing.T) {
	outer := &schema.Node{
		ID:   "outer",
		Type: schema.NodeLoop,
		Props: map[string]schema.Value{
			"expression": schema.FromAny("groups"),
			"alias":      schema.FromAny("g"),
		},
	}
	doc := buildDoc(outer)
	inner := &schema.Node{
		ID:   "inner",
		Type: schema.NodeLoop,
		Props: map[string]schema.Value{
			"expression": schema.FromAny("g.members"),
			"alias":      schema.FromAny("m"),
		},
	}
	addSlot(doc, "outer", "default", inner)
	addSlot(doc, "inner", "default", textNode("cell", "{{ g.name }}/{{ m }}"))

	data := map[string]any{"groups": []any{
		map[string]any{"name": "A", "members": []any{"x", "y"}},
		map[string]any{"name": "B", "members": []any{"z"}},
	}}
	text := extractAllText(t, render(t, doc, nil, data))
	for _, want := range []string{"A/x", "A/y", "B/z"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestRenderHeaderOnEveryPage(t *testing.T) {
	header := &schema.Node{ID: "hdr", Type: schema.NodePageHeader}
	footer := &schema.Node{ID: "ftr", Type: schema.NodePageFooter}
	doc := buildDoc(
		header,
		textNode("t1", "one"),
		&schema.Node{ID: "br1", Type: schema.NodePageBreak},
		textNode("t2", "two"),
		&schema.Node{ID: "br2", Type: schema.NodePageBreak},
		textNode("t3", "three"),
		footer,
	)
	addSlot(doc, "hdr", "default", textNode("hdr-text", "RUNNING HEAD"))
	addSlot(doc, "ftr", "default", textNode("ftr-text", "Page {{ page }} of {{ pages }}"))

	out := render(t, doc, nil, nil)
	parsed, err := reader.Parse(out)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if parsed.NumPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", parsed.NumPages())
	}

	for pageNum, page := range parsed.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			t.Fatalf("page %d: %v", pageNum, err)
		}
		if !strings.Contains(text, "RUNNING HEAD") {
			t.Errorf("page %d missing header", pageNum)
		}
		want := fmt.Sprintf("Page %d of 3", pageNum)
		if !strings.Contains(text, want) {
			t.Errorf("page %d missing %q: %q", pageNum, want, text)
		}
	}
}

func TestRenderFooterTableStaysOnPage(t *testing.T) {
	footer := &schema.Node{ID: "ftr", Type: schema.NodePageFooter}
	doc := buildDoc(textNode("t1", "body"), footer)
	table := &schema.Node{
		ID:   "ftab",
		Type: schema.NodeTable,
		Props: map[string]schema.Value{
			"rows":    schema.FromAny(1.0),
			"columns": schema.FromAny(1.0),
		},
	}
	addSlot(doc, "ftr", "default", table)
	addSlot(doc, "ftab", "cell-0-0", textNode("fcell", "totals"))

	out := render(t, doc, nil, nil)
	parsed, err := reader.Parse(out)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	// The footer band draws below the bottom margin; a table there
	// must overlay the page, not append a new one.
	if parsed.NumPages() != 1 {
		t.Fatalf("expected 1 page, got %d", parsed.NumPages())
	}
	text := extractAllText(t, out)
	if !strings.Contains(text, "totals") {
		t.Fatalf("footer cell missing: %q", text)
	}
}

func TestRenderThemePreset(t *testing.T) {
	theme := &schema.Theme{
		DocumentStyles: schema.Styles{"fontSize": schema.FromAny(10.0)},
		BlockStylePresets: map[string]schema.Styles{
			"title": {"fontSize": schema.FromAny(20.0), "fontWeight": schema.FromAny(700.0)},
		},
	}
	n := textNode("t1", "Styled Title")
	n.StylePreset = "title"
	out := render(t, buildDoc(n), theme, nil)
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("not a PDF")
	}
	text := extractAllText(t, out)
	if !strings.Contains(text, "Styled Title") {
		t.Fatalf("styled text missing: %q", text)
	}
}

func TestRenderMissingAssetSkipped(t *testing.T) {
	img := &schema.Node{
		ID:    "img",
		Type:  schema.NodeImage,
		Props: map[string]schema.Value{"assetId": schema.FromAny("logo")},
	}
	doc := buildDoc(img, textNode("t1", "still here"))

	// Empty resolver: the asset is unknown but rendering continues.
	text := extractAllText(t, render(t, doc, nil, nil,
		docpdf.WithAssetResolver(docpdf.AssetMap{})))
	if !strings.Contains(text, "still here") {
		t.Fatalf("missing sibling text: %q", text)
	}
}

func TestRenderAssetResolverFailureFatal(t *testing.T) {
	img := &schema.Node{
		ID:    "img",
		Type:  schema.NodeImage,
		Props: map[string]schema.Value{"assetId": schema.FromAny("logo")},
	}
	doc := buildDoc(img)

	broken := docpdf.AssetResolverFunc(func(id string) ([]byte, string, error) {
		return nil, "", errors.New("backend unreachable")
	})
	err := docpdf.Render(&bytes.Buffer{}, doc, nil, nil, docpdf.WithAssetResolver(broken))
	if !errors.Is(err, docpdf.ErrAssetResolver) {
		t.Fatalf("expected ErrAssetResolver, got %v", err)
	}
}

func TestRenderBarcode(t *testing.T) {
	bc := &schema.Node{
		ID:   "bc",
		Type: schema.NodeBarcode,
		Props: map[string]schema.Value{
			"content": schema.FromAny("https://example.com/{{ id }}"),
			"format":  schema.FromAny("qr"),
		},
	}
	out := render(t, buildDoc(bc), nil, map[string]any{"id": "x1"})
	if !bytes.Contains(out, []byte("/XObject")) {
		t.Fatal("expected an image XObject for the barcode")
	}
}

func TestRenderBarcodeEmptyContentSkipped(t *testing.T) {
	bc := &schema.Node{
		ID:    "bc",
		Type:  schema.NodeBarcode,
		Props: map[string]schema.Value{"content": schema.FromAny("{{ missing }}")},
	}
	doc := buildDoc(bc, textNode("t1", "after barcode"))
	text := extractAllText(t, render(t, doc, nil, nil))
	if !strings.Contains(text, "after barcode") {
		t.Fatalf("sibling text missing: %q", text)
	}
}

func TestRenderTableGrid(t *testing.T) {
	table := &schema.Node{
		ID:   "tbl",
		Type: schema.NodeTable,
		Props: map[string]schema.Value{
			"rows":       schema.FromAny(2),
			"columns":    schema.FromAny(2),
			"headerRows": schema.FromAny(1),
		},
	}
	doc := buildDoc(table)
	addSlot(doc, "tbl", "cell-0-0", textNode("c00", "Name"))
	addSlot(doc, "tbl", "cell-0-1", textNode("c01", "Total"))
	addSlot(doc, "tbl", "cell-1-0", textNode("c10", "Widgets"))
	addSlot(doc, "tbl", "cell-1-1", textNode("c11", "12.50"))

	text := extractAllText(t, render(t, doc, nil, nil))
	for _, want := range []string{"Name", "Total", "Widgets", "12.50"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing cell %q in %q", want, text)
		}
	}
}

func datatableDoc(items []any) *schema.Document {
	dt := &schema.Node{
		ID:   "dt",
		Type: schema.NodeDatatable,
		Props: map[string]schema.Value{
			"expression": schema.FromAny("items"),
			"alias":      schema.FromAny("it"),
		},
	}
	doc := buildDoc(dt)

	col1 := &schema.Node{
		ID:    "col-name",
		Type:  schema.NodeDatatableColumn,
		Props: map[string]schema.Value{"header": schema.FromAny("Item"), "size": schema.FromAny(2)},
	}
	col2 := &schema.Node{
		ID:    "col-qty",
		Type:  schema.NodeDatatableColumn,
		Props: map[string]schema.Value{"header": schema.FromAny("Qty"), "size": schema.FromAny(1)},
	}
	addSlot(doc, "dt", "columns", col1, col2)
	addSlot(doc, "col-name", "body", textNode("cell-name", "{{ it.name }}"))
	addSlot(doc, "col-qty", "body", textNode("cell-qty", "{{ it.qty }}"))
	return doc
}

func TestRenderDatatable(t *testing.T) {
	items := []any{
		map[string]any{"name": "bolts", "qty": 4},
		map[string]any{"name": "nuts", "qty": 9},
	}
	text := extractAllText(t, render(t, datatableDoc(items), nil, map[string]any{"items": items}))
	for _, want := range []string{"Item", "Qty", "bolts", "4", "nuts", "9"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
}

func TestRenderDatatableEmptyKeepsHeader(t *testing.T) {
	text := extractAllText(t, render(t, datatableDoc(nil), nil, map[string]any{"items": []any{}}))
	if !strings.Contains(text, "Item") || !strings.Contains(text, "Qty") {
		t.Fatalf("header row missing for empty iterable: %q", text)
	}
	if strings.Contains(text, "bolts") {
		t.Fatal("unexpected body rows")
	}
}

func TestRenderColumns(t *testing.T) {
	cols := &schema.Node{
		ID:    "cols",
		Type:  schema.NodeColumns,
		Props: map[string]schema.Value{"sizes": schema.FromAny([]any{1.0, 1.0})},
	}
	doc := buildDoc(cols)
	addSlot(doc, "cols", "col-0", textNode("left", "left column"))
	addSlot(doc, "cols", "col-1", textNode("right", "right column"))

	text := extractAllText(t, render(t, doc, nil, nil))
	if !strings.Contains(text, "left column") || !strings.Contains(text, "right column") {
		t.Fatalf("column content missing: %q", text)
	}
}

func TestRenderArchivalMissingProfile(t *testing.T) {
	err := docpdf.Render(&bytes.Buffer{}, buildDoc(), nil, nil, docpdf.WithArchival())
	if !errors.Is(err, docpdf.ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
	var re *docpdf.RenderError
	if !errors.As(err, &re) || re.Op != "archive" {
		t.Fatalf("expected RenderError with op archive, got %v", err)
	}
}

func TestRenderArchivalNeedsEmbeddedFont(t *testing.T) {
	// Core PDF fonts are not embeddable; archival output must refuse
	// to draw text with them.
	profile := make([]byte, 128)
	copy(profile[36:], "acsp")

	err := docpdf.Render(&bytes.Buffer{}, buildDoc(textNode("t1", "text")), nil, nil,
		docpdf.WithArchival(), docpdf.WithColorProfile(profile))
	if !errors.Is(err, docpdf.ErrFontNotEmbedded) {
		t.Fatalf("expected ErrFontNotEmbedded, got %v", err)
	}
}

func TestRenderJSON(t *testing.T) {
	docJSON := []byte(`{
		"root": "root",
		"nodes": {
			"root": {"id": "root", "type": "root", "slots": ["s1"]},
			"t": {"id": "t", "type": "text", "props": {"content": "Hi {{ name }}"}}
		},
		"slots": {
			"s1": {"id": "s1", "nodeId": "root", "name": "default", "children": ["t"]}
		}
	}`)
	var buf bytes.Buffer
	err := docpdf.RenderJSON(&buf, docJSON, nil, []byte(`{"name":"there"}`))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(extractAllText(t, buf.Bytes()), "Hi there") {
		t.Fatal("interpolated text missing")
	}

	if err := docpdf.RenderJSON(&buf, []byte(`{not json`), nil, nil); err == nil {
		t.Fatal("expected parse error")
	}
}
