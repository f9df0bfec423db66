package richtext_test

import (
	"encoding/json"
	"testing"

	"github.com/lvillar/docpdf/richtext"
	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

func value(t *testing.T, src string) schema.Value {
	t.Helper()
	var v schema.Value
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestConvertParagraphWithMarks(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "paragraph", "content": [
			{"type": "text", "text": "plain "},
			{"type": "text", "text": "bold", "marks": [{"type": "bold"}]},
			{"type": "text", "text": " mixed", "marks": [
				{"type": "italic"},
				{"type": "underline"},
				{"type": "strike"},
				{"type": "textStyle", "attrs": {"color": "#ff0000"}}
			]}
		]}
	]}`)

	blocks := richtext.Convert(v, schema.LangQuery, nil)
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
	b := blocks[0]
	if b.Kind != richtext.Paragraph || len(b.Runs) != 3 {
		t.Fatalf("block = %+v", b)
	}
	if b.Runs[0].Text != "plain " || b.Runs[0].Bold {
		t.Errorf("run 0 = %+v", b.Runs[0])
	}
	if !b.Runs[1].Bold || b.Runs[1].Text != "bold" {
		t.Errorf("run 1 = %+v", b.Runs[1])
	}
	r := b.Runs[2]
	if !r.Italic || !r.Underline || !r.Strike {
		t.Errorf("run 2 marks = %+v", r)
	}
	if r.Color == nil || *r.Color != (style.RGB{R: 255, G: 0, B: 0}) {
		t.Errorf("run 2 color = %+v", r.Color)
	}
	if b.Text() != "plain bold mixed" {
		t.Errorf("text = %q", b.Text())
	}
}

func TestConvertHeadings(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "heading", "attrs": {"level": 2}, "content": [
			{"type": "text", "text": "Section"}
		]},
		{"type": "heading", "content": [
			{"type": "text", "text": "Untitled level"}
		]}
	]}`)

	blocks := richtext.Convert(v, schema.LangQuery, nil)
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	if blocks[0].Kind != richtext.Heading || blocks[0].Level != 2 {
		t.Errorf("heading = %+v", blocks[0])
	}
	if blocks[1].Level != 1 {
		t.Errorf("default level = %d, want 1", blocks[1].Level)
	}
}

func TestConvertLists(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "bulletList", "content": [
			{"type": "listItem", "content": [
				{"type": "paragraph", "content": [{"type": "text", "text": "first"}]}
			]},
			{"type": "listItem", "content": [
				{"type": "paragraph", "content": [{"type": "text", "text": "second"}]},
				{"type": "orderedList", "content": [
					{"type": "listItem", "content": [
						{"type": "paragraph", "content": [{"type": "text", "text": "nested"}]}
					]}
				]}
			]}
		]}
	]}`)

	blocks := richtext.Convert(v, schema.LangQuery, nil)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3: %+v", len(blocks), blocks)
	}

	if blocks[0].Kind != richtext.ListItem || blocks[0].Ordered || blocks[0].Depth != 1 || blocks[0].Index != 1 {
		t.Errorf("item 1 = %+v", blocks[0])
	}
	if blocks[1].Index != 2 || blocks[1].Text() != "second" {
		t.Errorf("item 2 = %+v", blocks[1])
	}
	nested := blocks[2]
	if !nested.Ordered || nested.Depth != 2 || nested.Index != 1 || nested.Text() != "nested" {
		t.Errorf("nested item = %+v", nested)
	}
}

func TestConvertExpressionAtom(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "paragraph", "content": [
			{"type": "text", "text": "Total: "},
			{"type": "expression", "attrs": {"raw": "order.total"},
			 "marks": [{"type": "bold"}]}
		]}
	]}`)

	var seen schema.Expression
	blocks := richtext.Convert(v, schema.LangQuery, func(e schema.Expression) string {
		seen = e
		return "42"
	})
	if len(blocks) != 1 || len(blocks[0].Runs) != 2 {
		t.Fatalf("blocks = %+v", blocks)
	}
	if seen.Raw != "order.total" || seen.Language != schema.LangQuery {
		t.Errorf("resolved expression = %+v", seen)
	}
	atom := blocks[0].Runs[1]
	if atom.Text != "42" || !atom.Bold {
		t.Errorf("atom run = %+v", atom)
	}
}

func TestConvertAtomWithoutResolver(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "paragraph", "content": [
			{"type": "text", "text": "x"},
			{"type": "expression", "attrs": {"raw": "order.total"}}
		]}
	]}`)
	blocks := richtext.Convert(v, schema.LangQuery, nil)
	if len(blocks) != 1 || len(blocks[0].Runs) != 1 {
		t.Fatalf("unresolved atom should vanish: %+v", blocks)
	}
}

func TestConvertHardBreak(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "paragraph", "content": [
			{"type": "text", "text": "a"},
			{"type": "hardBreak"},
			{"type": "text", "text": "b"}
		]}
	]}`)
	blocks := richtext.Convert(v, schema.LangQuery, nil)
	if blocks[0].Text() != "a\nb" {
		t.Errorf("text = %q", blocks[0].Text())
	}
}

func TestConvertUnknownTypesSkipped(t *testing.T) {
	v := value(t, `{"type": "doc", "content": [
		{"type": "videoEmbed", "attrs": {"src": "x"}},
		{"type": "paragraph", "content": [
			{"type": "text", "text": "kept"},
			{"type": "mention", "attrs": {"id": "u1"}}
		]}
	]}`)
	blocks := richtext.Convert(v, schema.LangQuery, nil)
	if len(blocks) != 1 || blocks[0].Text() != "kept" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestConvertBareString(t *testing.T) {
	blocks := richtext.Convert(schema.StringValue("hello"), schema.LangQuery, nil)
	if len(blocks) != 1 || blocks[0].Text() != "hello" {
		t.Errorf("blocks = %+v", blocks)
	}
	if blocks := richtext.Convert(schema.StringValue(""), schema.LangQuery, nil); blocks != nil {
		t.Errorf("empty string = %+v", blocks)
	}
}

func TestConvertMalformed(t *testing.T) {
	if blocks := richtext.Convert(schema.NumberValue(4), schema.LangQuery, nil); blocks != nil {
		t.Errorf("number = %+v", blocks)
	}
	if blocks := richtext.Convert(schema.Value{}, schema.LangQuery, nil); blocks != nil {
		t.Errorf("absent = %+v", blocks)
	}
}
