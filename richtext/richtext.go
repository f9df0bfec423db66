// Package richtext converts the editor's structured rich-text
// documents (paragraphs, headings, lists, inline marks, embedded
// expression atoms) into flat blocks of styled runs ready for layout.
//
// The input shape is the node/marks JSON the editor produces:
//
//	{"type": "doc", "content": [
//	  {"type": "paragraph", "content": [
//	    {"type": "text", "text": "Total: ", "marks": [{"type": "bold"}]},
//	    {"type": "expression", "attrs": {"raw": "order.total"}}
//	  ]}
//	]}
//
// Unrecognized node types are skipped; a malformed document converts
// to no blocks. Expression atoms are resolved through a caller-supplied
// callback so the conversion itself stays free of evaluation concerns.
package richtext

import (
	"strings"

	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// Run is a span of text sharing one inline style.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Color     *style.RGB // nil inherits the block color
}

// Kind discriminates the block shapes produced by Convert.
type Kind int

const (
	Paragraph Kind = iota
	Heading
	ListItem
)

// Block is one laid-out unit of rich text.
type Block struct {
	Kind    Kind
	Level   int  // heading level, 1-based
	Depth   int  // list nesting depth, 1-based for list items
	Ordered bool // numbered rather than bulleted
	Index   int  // 1-based position within its list; 0 for continuations
	Runs    []Run
}

// Text returns the concatenated run text of b.
func (b Block) Text() string {
	var sb strings.Builder
	for _, r := range b.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// ResolveFunc evaluates an embedded expression atom to its display
// text. A nil ResolveFunc renders atoms as empty.
type ResolveFunc func(schema.Expression) string

// Convert turns a rich-text value into blocks. A bare string value
// becomes a single paragraph. defaultLang is the dialect assumed for
// expression atoms that do not name one.
func Convert(v schema.Value, defaultLang schema.Language, resolve ResolveFunc) []Block {
	if s, ok := v.Str(); ok {
		if s == "" {
			return nil
		}
		return []Block{{Kind: Paragraph, Runs: []Run{{Text: s}}}}
	}
	if v.Kind() != schema.Map {
		return nil
	}

	c := converter{lang: defaultLang, resolve: resolve}
	if t, _ := v.Field("type").Str(); t == "doc" {
		c.blocks(v.Field("content"), 0)
	} else {
		c.blocks(schema.ListValue(v), 0)
	}
	return c.out
}

type converter struct {
	lang    schema.Language
	resolve ResolveFunc
	out     []Block
}

// blocks walks a content list at the given list depth.
func (c *converter) blocks(content schema.Value, depth int) {
	list, ok := content.List()
	if !ok {
		return
	}
	for _, n := range list {
		c.block(n, depth)
	}
}

func (c *converter) block(n schema.Value, depth int) {
	t, _ := n.Field("type").Str()
	switch t {
	case "paragraph":
		c.out = append(c.out, Block{
			Kind:  Paragraph,
			Depth: depth,
			Runs:  c.runs(n.Field("content"), inline{}),
		})
	case "heading":
		level, ok := n.Field("attrs").Field("level").Int()
		if !ok || level < 1 {
			level = 1
		}
		c.out = append(c.out, Block{
			Kind:  Heading,
			Level: level,
			Depth: depth,
			Runs:  c.runs(n.Field("content"), inline{}),
		})
	case "bulletList":
		c.list(n, depth, false)
	case "orderedList":
		c.list(n, depth, true)
	default:
		// Unknown block types are skipped, not errors.
	}
}

func (c *converter) list(n schema.Value, depth int, ordered bool) {
	items, ok := n.Field("content").List()
	if !ok {
		return
	}
	index := 0
	for _, item := range items {
		if t, _ := item.Field("type").Str(); t != "listItem" {
			continue
		}
		index++
		c.listItem(item, depth+1, ordered, index)
	}
}

// listItem emits the item's paragraphs as ListItem blocks. Only the
// first paragraph carries the label index; the rest are continuations.
// Nested lists inside the item recurse one depth further.
func (c *converter) listItem(item schema.Value, depth int, ordered bool, index int) {
	children, ok := item.Field("content").List()
	if !ok {
		return
	}
	first := true
	for _, child := range children {
		t, _ := child.Field("type").Str()
		switch t {
		case "paragraph", "heading":
			idx := 0
			if first {
				idx = index
				first = false
			}
			c.out = append(c.out, Block{
				Kind:    ListItem,
				Depth:   depth,
				Ordered: ordered,
				Index:   idx,
				Runs:    c.runs(child.Field("content"), inline{}),
			})
		case "bulletList":
			c.list(child, depth, false)
		case "orderedList":
			c.list(child, depth, true)
		}
	}
}

// inline is the mark state accumulated down the inline tree.
type inline struct {
	bold, italic, underline, strike bool
	color                           *style.RGB
}

func (c *converter) runs(content schema.Value, st inline) []Run {
	list, ok := content.List()
	if !ok {
		return nil
	}
	var runs []Run
	for _, n := range list {
		t, _ := n.Field("type").Str()
		marked := applyMarks(st, n.Field("marks"))
		switch t {
		case "text":
			txt, ok := n.Field("text").Str()
			if !ok || txt == "" {
				continue
			}
			runs = append(runs, c.run(txt, marked))
		case "hardBreak":
			runs = append(runs, Run{Text: "\n"})
		case "expression":
			runs = append(runs, c.run(c.atom(n), marked))
		default:
			// Unknown inline types are skipped.
		}
	}
	// Drop empty atom results so trailing marks do not produce
	// zero-width runs.
	filtered := runs[:0]
	for _, r := range runs {
		if r.Text != "" {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (c *converter) run(text string, st inline) Run {
	return Run{
		Text:      text,
		Bold:      st.bold,
		Italic:    st.italic,
		Underline: st.underline,
		Strike:    st.strike,
		Color:     st.color,
	}
}

// atom resolves an embedded expression to its display text.
func (c *converter) atom(n schema.Value) string {
	if c.resolve == nil {
		return ""
	}
	expr := schema.ExpressionFromValue(n.Field("attrs"), c.lang)
	if expr.IsZero() {
		return ""
	}
	return c.resolve(expr)
}

func applyMarks(st inline, marks schema.Value) inline {
	list, ok := marks.List()
	if !ok {
		return st
	}
	for _, m := range list {
		t, _ := m.Field("type").Str()
		switch t {
		case "bold", "strong":
			st.bold = true
		case "italic", "em":
			st.italic = true
		case "underline":
			st.underline = true
		case "strike", "strikethrough":
			st.strike = true
		case "textStyle":
			if col, ok := style.ParseColor(m.Field("attrs").Field("color")); ok {
				st.color = &col
			}
		}
	}
	return st
}
