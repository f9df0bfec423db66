// Package style resolves the three-layer style cascade (document
// defaults, theme preset, inline overrides) into the typed property set
// the renderers consume, and carries an inheritable subset down the
// node tree.
//
// Resolution never fails: unknown keys are ignored, unparsable values
// leave the property at its current default.
package style

import (
	"strings"

	"github.com/lvillar/docpdf/schema"
)

// Text alignments as the PDF engine expects them.
const (
	AlignLeft    = "L"
	AlignCenter  = "C"
	AlignRight   = "R"
	AlignJustify = "J"
)

// Box holds four side lengths in points.
type Box struct {
	Top, Right, Bottom, Left float64
}

// Border is a stroked box border.
type Border struct {
	Width float64
	Color RGB
}

// Computed is the fully resolved style for one node. The zero value is
// not useful; start from Default.
type Computed struct {
	// Inheritable subset, carried to descendants.
	FontFamily    string
	FontSize      float64 // points
	Bold          bool
	Color         RGB
	LineHeight    float64 // multiplier over FontSize
	LetterSpacing float64 // points
	Align         string
	Background    *RGB

	// Per-node properties.
	Italic   bool
	Margin   Box
	Padding  Box
	Width    *Length
	Height   *Length
	Border   Border
	Opacity  float64
	Overflow string
}

// Default returns the engine defaults a document starts from.
func Default() *Computed {
	return &Computed{
		FontFamily: "helvetica",
		FontSize:   11,
		Color:      RGB{0, 0, 0},
		LineHeight: 1.4,
		Align:      AlignLeft,
		Opacity:    1,
	}
}

// LineHeightPt returns the resolved line height in points.
func (c *Computed) LineHeightPt() float64 {
	return c.FontSize * c.LineHeight
}

// FontStyle returns the engine style string for the computed weight and
// slant.
func (c *Computed) FontStyle() string {
	s := ""
	if c.Bold {
		s += "B"
	}
	if c.Italic {
		s += "I"
	}
	return s
}

// inherit copies the inheritable subset of parent onto fresh engine
// defaults. Non-inheritable properties reset.
func inherit(parent *Computed) *Computed {
	c := Default()
	if parent == nil {
		return c
	}
	c.FontFamily = parent.FontFamily
	c.FontSize = parent.FontSize
	c.Bold = parent.Bold
	c.Color = parent.Color
	c.LineHeight = parent.LineHeight
	c.LetterSpacing = parent.LetterSpacing
	c.Align = parent.Align
	if parent.Background != nil {
		bg := *parent.Background
		c.Background = &bg
	}
	return c
}

// Resolver applies the cascade for one document: document-level
// defaults (theme overlaid by the document's own override) plus the
// theme's named presets.
type Resolver struct {
	doc     schema.Styles
	presets map[string]schema.Styles
}

// NewResolver builds a resolver from the merged document-level styles
// and the theme's preset table.
func NewResolver(doc schema.Styles, presets map[string]schema.Styles) *Resolver {
	return &Resolver{doc: doc, presets: presets}
}

// Overlay returns base with over's entries written on top. Either map
// may be nil; the inputs are not modified.
func Overlay(base, over schema.Styles) schema.Styles {
	out := make(schema.Styles, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Resolve computes the style for a node. parent is the resolved style
// of the node's parent, or nil for the root: the root takes the
// document-level defaults as its base layer, descendants take the
// inherited subset of their parent instead, and in both cases the
// node's preset and inline styles are applied on top, later wins.
func (r *Resolver) Resolve(node *schema.Node, parent *Computed) *Computed {
	c := inherit(parent)
	if parent == nil {
		apply(c, r.doc)
	}
	if node == nil {
		return c
	}
	if preset, ok := r.presets[node.StylePreset]; ok && node.StylePreset != "" {
		apply(c, preset)
	}
	apply(c, node.Styles)
	return c
}

// apply writes every recognized, parsable entry of s onto c. Unknown
// keys and malformed values are skipped.
func apply(c *Computed, s schema.Styles) {
	for key, v := range s {
		switch key {
		case "fontFamily":
			if f, ok := v.Str(); ok && strings.TrimSpace(f) != "" {
				c.FontFamily = strings.TrimSpace(f)
			}
		case "fontSize":
			if pt, ok := ParsePt(v); ok && pt > 0 {
				c.FontSize = pt
			}
		case "fontWeight":
			if b, ok := parseWeight(v); ok {
				c.Bold = b
			}
		case "fontStyle":
			if fs, ok := v.Str(); ok {
				c.Italic = strings.EqualFold(strings.TrimSpace(fs), "italic")
			}
		case "color":
			if col, ok := ParseColor(v); ok {
				c.Color = col
			}
		case "lineHeight":
			if lh, ok := parseLineHeight(v, c.FontSize); ok {
				c.LineHeight = lh
			}
		case "letterSpacing":
			if pt, ok := ParsePt(v); ok {
				c.LetterSpacing = pt
			}
		case "textAlign":
			if a, ok := parseAlign(v); ok {
				c.Align = a
			}
		case "backgroundColor":
			if col, ok := ParseColor(v); ok {
				bg := col
				c.Background = &bg
			}
		case "margin":
			if pt, ok := ParsePt(v); ok {
				c.Margin = Box{pt, pt, pt, pt}
			}
		case "marginTop":
			setSide(&c.Margin.Top, v)
		case "marginRight":
			setSide(&c.Margin.Right, v)
		case "marginBottom":
			setSide(&c.Margin.Bottom, v)
		case "marginLeft":
			setSide(&c.Margin.Left, v)
		case "padding":
			if pt, ok := ParsePt(v); ok && pt >= 0 {
				c.Padding = Box{pt, pt, pt, pt}
			}
		case "paddingTop":
			setSide(&c.Padding.Top, v)
		case "paddingRight":
			setSide(&c.Padding.Right, v)
		case "paddingBottom":
			setSide(&c.Padding.Bottom, v)
		case "paddingLeft":
			setSide(&c.Padding.Left, v)
		case "width":
			if l, ok := ParseLength(v); ok {
				c.Width = &l
			}
		case "height":
			if l, ok := ParseLength(v); ok {
				c.Height = &l
			}
		case "borderWidth":
			if pt, ok := ParsePt(v); ok && pt >= 0 {
				c.Border.Width = pt
			}
		case "borderColor":
			if col, ok := ParseColor(v); ok {
				c.Border.Color = col
			}
		case "opacity":
			if n, ok := v.Num(); ok && n >= 0 && n <= 1 {
				c.Opacity = n
			}
		case "overflow":
			if ov, ok := v.Str(); ok {
				c.Overflow = strings.ToLower(strings.TrimSpace(ov))
			}
		}
	}
}

func setSide(dst *float64, v schema.Value) {
	if pt, ok := ParsePt(v); ok {
		*dst = pt
	}
}

// parseWeight maps numeric weights and keywords to the boolean bold
// the engine supports. Numbers bold at 700 and above.
func parseWeight(v schema.Value) (bold, ok bool) {
	if n, isNum := v.Num(); isNum {
		return n >= 700, true
	}
	if s, isStr := v.Str(); isStr {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "bold", "bolder":
			return true, true
		case "normal", "lighter":
			return false, true
		}
	}
	return false, false
}

// parseLineHeight accepts a bare multiplier, a percentage, or an
// absolute length (converted to a multiplier over the current size).
func parseLineHeight(v schema.Value, fontSize float64) (float64, bool) {
	if n, ok := v.Num(); ok && n > 0 {
		return n, true
	}
	l, ok := ParseLength(v)
	if !ok || l.Value <= 0 {
		return 0, false
	}
	if l.Percent {
		return l.Value / 100, true
	}
	if fontSize <= 0 {
		return 0, false
	}
	return l.Value / fontSize, true
}

func parseAlign(v schema.Value) (string, bool) {
	s, ok := v.Str()
	if !ok {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "start":
		return AlignLeft, true
	case "center":
		return AlignCenter, true
	case "right", "end":
		return AlignRight, true
	case "justify":
		return AlignJustify, true
	}
	return "", false
}
