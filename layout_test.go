package docpdf

import (
	"math"
	"testing"

	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

func almostEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestColumnWidths(t *testing.T) {
	tests := []struct {
		name  string
		sizes []float64
		n     int
		want  []float64
	}{
		{"proportional", []float64{1, 1, 2}, 3, []float64{25, 25, 50}},
		{"even split without sizes", nil, 4, []float64{25, 25, 25, 25}},
		{"even split on length mismatch", []float64{1, 2}, 3, []float64{100.0 / 3, 100.0 / 3, 100.0 / 3}},
		{"even split on zero total", []float64{0, 0}, 2, []float64{50, 50}},
		{"negative clamped", []float64{-1, 1}, 2, []float64{0, 100}},
		{"single column", []float64{7}, 1, []float64{100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := columnWidths(tt.sizes, tt.n)
			if !almostEqual(got, tt.want) {
				t.Fatalf("columnWidths(%v, %d) = %v, want %v", tt.sizes, tt.n, got, tt.want)
			}
		})
	}

	if columnWidths(nil, 0) != nil {
		t.Fatal("zero columns should yield nil")
	}
}

func TestParseBorderStyle(t *testing.T) {
	tests := []struct {
		in   string
		want borderStyle
	}{
		{"all", borderAll},
		{"horizontal", borderHorizontal},
		{"vertical", borderVertical},
		{"none", borderNone},
		{"", borderAll},
		{"zigzag", borderAll},
	}
	for _, tt := range tests {
		if got := parseBorderStyle(schema.FromAny(tt.in)); got != tt.want {
			t.Errorf("parseBorderStyle(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := parseBorderStyle(schema.Value{}); got != borderAll {
		t.Errorf("absent border style should default to all, got %v", got)
	}
}

func TestPlacedImageSize(t *testing.T) {
	widthSt := func(w float64) *style.Computed {
		st := style.Default()
		st.Width = &style.Length{Value: w}
		return st
	}

	// Only width set: height follows the intrinsic aspect ratio.
	w, h := placedImageSize(widthSt(100), 500, 200, 100)
	if w != 100 || h != 50 {
		t.Errorf("width-only: got %gx%g, want 100x50", w, h)
	}

	// Neither set: spans the content width.
	w, h = placedImageSize(style.Default(), 500, 200, 100)
	if w != 500 || h != 250 {
		t.Errorf("intrinsic: got %gx%g, want 500x250", w, h)
	}

	// Both set: used as-is, ratio ignored.
	st := widthSt(80)
	st.Height = &style.Length{Value: 30}
	w, h = placedImageSize(st, 500, 200, 100)
	if w != 80 || h != 30 {
		t.Errorf("both: got %gx%g, want 80x30", w, h)
	}
}

func TestBarcodeSize(t *testing.T) {
	w, h := barcodeSize(style.Default(), 500, true)
	if w != h {
		t.Errorf("square symbology default should be square, got %gx%g", w, h)
	}
	w, h = barcodeSize(style.Default(), 500, false)
	if w <= h {
		t.Errorf("linear symbology default should be wide, got %gx%g", w, h)
	}

	st := style.Default()
	st.Width = &style.Length{Value: 60}
	w, h = barcodeSize(st, 500, true)
	if w != 60 || h != 60 {
		t.Errorf("square follows explicit width, got %gx%g", w, h)
	}
}

func TestNormalizeFontStyle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"b", "B"},
		{"IB", "BI"},
		{"bi", "BI"},
		{"BIU", "BI"},
		{"x", ""},
	}
	for _, tt := range tests {
		if got := normalizeFontStyle(tt.in); got != tt.want {
			t.Errorf("normalizeFontStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
