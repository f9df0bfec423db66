package style_test

import (
	"testing"

	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

func styles(kv map[string]any) schema.Styles {
	s := make(schema.Styles, len(kv))
	for k, v := range kv {
		s[k] = schema.FromAny(v)
	}
	return s
}

func TestCascadePrecedence(t *testing.T) {
	// Inline wins over preset wins over document default.
	r := style.NewResolver(
		styles(map[string]any{"fontSize": 10}),
		map[string]schema.Styles{"big": styles(map[string]any{"fontSize": 18})},
	)

	node := &schema.Node{
		ID:          "n",
		Type:        schema.NodeText,
		StylePreset: "big",
		Styles:      styles(map[string]any{"fontSize": 24}),
	}
	if got := r.Resolve(node, nil).FontSize; got != 24 {
		t.Errorf("inline layer: fontSize = %v, want 24", got)
	}

	node.Styles = nil
	if got := r.Resolve(node, nil).FontSize; got != 18 {
		t.Errorf("preset layer: fontSize = %v, want 18", got)
	}

	node.StylePreset = ""
	if got := r.Resolve(node, nil).FontSize; got != 10 {
		t.Errorf("document layer: fontSize = %v, want 10", got)
	}
}

func TestAbsentPresetSkipped(t *testing.T) {
	r := style.NewResolver(nil, nil)
	node := &schema.Node{ID: "n", Type: schema.NodeText, StylePreset: "ghost"}
	c := r.Resolve(node, nil)
	if c.FontSize != 11 {
		t.Errorf("fontSize = %v, want engine default 11", c.FontSize)
	}
}

func TestInheritableSubset(t *testing.T) {
	r := style.NewResolver(nil, nil)
	parent := r.Resolve(&schema.Node{
		ID:   "p",
		Type: schema.NodeContainer,
		Styles: styles(map[string]any{
			"fontFamily":      "times",
			"fontSize":        16,
			"fontWeight":      700,
			"color":           "#ff0000",
			"lineHeight":      1.8,
			"letterSpacing":   0.5,
			"textAlign":       "center",
			"backgroundColor": "#eeeeee",
			"padding":         12,
			"marginTop":       20,
			"borderWidth":     2,
		}),
	}, nil)

	child := r.Resolve(&schema.Node{ID: "c", Type: schema.NodeText}, parent)

	if child.FontFamily != "times" || child.FontSize != 16 || !child.Bold {
		t.Errorf("font inheritance: %+v", child)
	}
	if child.Color != (style.RGB{255, 0, 0}) {
		t.Errorf("color inheritance: %+v", child.Color)
	}
	if child.LineHeight != 1.8 || child.LetterSpacing != 0.5 || child.Align != style.AlignCenter {
		t.Errorf("text inheritance: %+v", child)
	}
	if child.Background == nil || *child.Background != (style.RGB{238, 238, 238}) {
		t.Errorf("background inheritance: %+v", child.Background)
	}

	// Non-inheritable keys must reset on the child.
	if child.Padding != (style.Box{}) {
		t.Errorf("padding leaked to child: %+v", child.Padding)
	}
	if child.Margin != (style.Box{}) {
		t.Errorf("margin leaked to child: %+v", child.Margin)
	}
	if child.Border.Width != 0 {
		t.Errorf("border leaked to child: %+v", child.Border)
	}
}

func TestChildOverridesInherited(t *testing.T) {
	r := style.NewResolver(nil, map[string]schema.Styles{
		"quiet": styles(map[string]any{"color": "gray"}),
	})
	parent := r.Resolve(&schema.Node{
		ID: "p", Type: schema.NodeContainer,
		Styles: styles(map[string]any{"color": "red"}),
	}, nil)

	// Preset overrides the inherited value.
	child := r.Resolve(&schema.Node{ID: "c", Type: schema.NodeText, StylePreset: "quiet"}, parent)
	if child.Color != (style.RGB{128, 128, 128}) {
		t.Errorf("preset over inherited: %+v", child.Color)
	}

	// Inline overrides both.
	child = r.Resolve(&schema.Node{
		ID: "c2", Type: schema.NodeText, StylePreset: "quiet",
		Styles: styles(map[string]any{"color": "blue"}),
	}, parent)
	if child.Color != (style.RGB{0, 0, 255}) {
		t.Errorf("inline over preset: %+v", child.Color)
	}
}

func TestDocumentDefaultsReachDescendants(t *testing.T) {
	// Document-level inheritable keys flow down through the chain.
	r := style.NewResolver(styles(map[string]any{"fontFamily": "courier"}), nil)
	root := r.Resolve(&schema.Node{ID: "r", Type: schema.NodeRoot}, nil)
	mid := r.Resolve(&schema.Node{ID: "m", Type: schema.NodeContainer}, root)
	leaf := r.Resolve(&schema.Node{ID: "l", Type: schema.NodeText}, mid)
	if leaf.FontFamily != "courier" {
		t.Errorf("fontFamily = %q, want courier", leaf.FontFamily)
	}
}

func TestDocumentBoxDefaultsStayOnRoot(t *testing.T) {
	// Non-inheritable box keys from documentStyles style the root
	// only; re-applying them per node would pad every nested block.
	r := style.NewResolver(styles(map[string]any{"padding": 12}), nil)
	root := r.Resolve(&schema.Node{ID: "r", Type: schema.NodeRoot}, nil)
	if root.Padding.Top != 12 {
		t.Fatalf("root padding = %v, want 12", root.Padding.Top)
	}
	child := r.Resolve(&schema.Node{ID: "c", Type: schema.NodeText}, root)
	if child.Padding.Top != 0 {
		t.Errorf("child padding = %v, want 0", child.Padding.Top)
	}
}

func TestUnknownKeysIgnored(t *testing.T) {
	r := style.NewResolver(nil, nil)
	c := r.Resolve(&schema.Node{
		ID: "n", Type: schema.NodeText,
		Styles: styles(map[string]any{"blink": true, "fontSize": 13}),
	}, nil)
	if c.FontSize != 13 {
		t.Errorf("fontSize = %v, want 13", c.FontSize)
	}
}

func TestMalformedValuesKeepDefaults(t *testing.T) {
	r := style.NewResolver(nil, nil)
	c := r.Resolve(&schema.Node{
		ID: "n", Type: schema.NodeText,
		Styles: styles(map[string]any{
			"fontSize":  "huge",
			"color":     "#zzz",
			"textAlign": "diagonal",
			"opacity":   3,
		}),
	}, nil)
	if c.FontSize != 11 || c.Color != (style.RGB{0, 0, 0}) || c.Align != style.AlignLeft || c.Opacity != 1 {
		t.Errorf("malformed values changed defaults: %+v", c)
	}
}

func TestFontWeight(t *testing.T) {
	tests := []struct {
		v    any
		bold bool
	}{
		{700, true},
		{800, true},
		{699, false},
		{400, false},
		{"bold", true},
		{"bolder", true},
		{"normal", false},
		{"lighter", false},
	}
	r := style.NewResolver(nil, nil)
	for _, tt := range tests {
		c := r.Resolve(&schema.Node{
			ID: "n", Type: schema.NodeText,
			Styles: styles(map[string]any{"fontWeight": tt.v}),
		}, nil)
		if c.Bold != tt.bold {
			t.Errorf("fontWeight %v: bold = %v, want %v", tt.v, c.Bold, tt.bold)
		}
	}
}

func TestFontStyleString(t *testing.T) {
	c := style.Default()
	if c.FontStyle() != "" {
		t.Errorf("default style = %q", c.FontStyle())
	}
	c.Bold = true
	c.Italic = true
	if c.FontStyle() != "BI" {
		t.Errorf("bold italic = %q", c.FontStyle())
	}
}

func TestOverlay(t *testing.T) {
	base := styles(map[string]any{"a": 1, "b": 1})
	over := styles(map[string]any{"b": 2, "c": 2})
	out := style.Overlay(base, over)
	if n, _ := out.Get("a").Num(); n != 1 {
		t.Errorf("a = %v", n)
	}
	if n, _ := out.Get("b").Num(); n != 2 {
		t.Errorf("b = %v", n)
	}
	if n, _ := out.Get("c").Num(); n != 2 {
		t.Errorf("c = %v", n)
	}
	if _, ok := base.Get("c").Num(); ok {
		t.Error("Overlay mutated its input")
	}
}
