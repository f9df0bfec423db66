package schema_test

import (
	"errors"
	"testing"

	"github.com/lvillar/docpdf/schema"
)

func TestParseTheme(t *testing.T) {
	theme, err := schema.ParseTheme([]byte(`{
		"documentStyles": {"fontFamily": "Helvetica", "fontSize": 11},
		"blockStylePresets": {
			"card": {"backgroundColor": "#f5f5f5", "padding": 8}
		},
		"pageSettings": {"format": "letter", "orientation": "landscape"}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if s, ok := theme.DocumentStyles.Get("fontFamily").Str(); !ok || s != "Helvetica" {
		t.Errorf("fontFamily = %q, %v", s, ok)
	}
	preset, ok := theme.Preset("card")
	if !ok {
		t.Fatal("preset card not found")
	}
	if s, _ := preset.Get("backgroundColor").Str(); s != "#f5f5f5" {
		t.Errorf("backgroundColor = %q", s)
	}
	if _, ok := theme.Preset("ghost"); ok {
		t.Error("absent preset must resolve to no preset, not an entry")
	}
	if _, ok := theme.Preset(""); ok {
		t.Error("empty preset name must resolve to no preset")
	}
}

func TestParseThemeYAML(t *testing.T) {
	theme, err := schema.ParseThemeYAML([]byte(`
documentStyles:
  fontFamily: times
  color: "#333333"
blockStylePresets:
  title:
    fontSize: 24
    fontWeight: bold
pageSettings:
  format: a5
  margins:
    top: 30
    right: 25
    bottom: 30
    left: 25
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s, _ := theme.DocumentStyles.Get("fontFamily").Str(); s != "times" {
		t.Errorf("fontFamily = %q", s)
	}
	preset, ok := theme.Preset("title")
	if !ok {
		t.Fatal("preset title not found")
	}
	if n, _ := preset.Get("fontSize").Num(); n != 24 {
		t.Errorf("fontSize = %v", n)
	}
	if theme.PageSettings == nil || theme.PageSettings.Margins.Top != 30 {
		t.Errorf("pageSettings = %+v", theme.PageSettings)
	}
}

func TestPageSettingsNormalize(t *testing.T) {
	n := (*schema.PageSettings)(nil).Normalize()
	if n.Format != schema.FormatA4 || n.Orientation != schema.Portrait {
		t.Errorf("nil normalize = %+v", n)
	}
	if n.Margins.Top != 20 || n.Margins.Left != 20 {
		t.Errorf("default margins = %+v", n.Margins)
	}

	n = (&schema.PageSettings{Format: "LETTER", Orientation: "Landscape"}).Normalize()
	if n.Format != schema.FormatLetter || n.Orientation != schema.Landscape {
		t.Errorf("case-insensitive normalize = %+v", n)
	}

	n = (&schema.PageSettings{Format: "b7", Orientation: "sideways"}).Normalize()
	if n.Format != schema.FormatA4 || n.Orientation != schema.Portrait {
		t.Errorf("unknown values must fall back to defaults, got %+v", n)
	}

	n = (&schema.PageSettings{Margins: &schema.Margins{Top: -5, Left: 10}}).Normalize()
	if n.Margins.Top != 0 || n.Margins.Left != 10 {
		t.Errorf("negative margin clamp = %+v", n.Margins)
	}
}

func TestPageSettingsValidate(t *testing.T) {
	if err := (&schema.PageSettings{Format: "a4", Orientation: "portrait"}).Validate(); err != nil {
		t.Errorf("valid settings rejected: %v", err)
	}
	err := (&schema.PageSettings{Format: "b7"}).Validate()
	if !errors.Is(err, schema.ErrInvalidFormat) {
		t.Errorf("want ErrInvalidFormat, got %v", err)
	}
	err = (&schema.PageSettings{Orientation: "diagonal"}).Validate()
	if !errors.Is(err, schema.ErrInvalidOrientation) {
		t.Errorf("want ErrInvalidOrientation, got %v", err)
	}
	err = (&schema.PageSettings{Margins: &schema.Margins{Top: -1}}).Validate()
	if !errors.Is(err, schema.ErrInvalidMargins) {
		t.Errorf("want ErrInvalidMargins, got %v", err)
	}
}

func TestPageSizePt(t *testing.T) {
	tests := []struct {
		format      string
		orientation string
		w, h        float64
	}{
		{"a4", "portrait", 595.28, 841.89},
		{"a4", "landscape", 841.89, 595.28},
		{"letter", "portrait", 612, 792},
		{"", "", 595.28, 841.89},
	}
	for _, tt := range tests {
		p := &schema.PageSettings{Format: tt.format, Orientation: tt.orientation}
		w, h := p.SizePt()
		if w != tt.w || h != tt.h {
			t.Errorf("%s/%s = %v x %v, want %v x %v", tt.format, tt.orientation, w, h, tt.w, tt.h)
		}
	}
}
