package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Page setting validation errors.
var (
	ErrInvalidFormat      = errors.New("schema: invalid page format")
	ErrInvalidOrientation = errors.New("schema: invalid page orientation")
	ErrInvalidMargins     = errors.New("schema: invalid page margins")
)

// Theme carries the presentation defaults supplied alongside a
// document: document-level styles, named block style presets, and page
// settings. A document's own overrides take precedence over all three.
type Theme struct {
	DocumentStyles    Styles            `json:"documentStyles,omitempty" yaml:"documentStyles,omitempty"`
	BlockStylePresets map[string]Styles `json:"blockStylePresets,omitempty" yaml:"blockStylePresets,omitempty"`
	PageSettings      *PageSettings     `json:"pageSettings,omitempty" yaml:"pageSettings,omitempty"`
}

// Preset returns the named block style preset. Absent names resolve to
// no preset rather than an error.
func (t *Theme) Preset(name string) (Styles, bool) {
	if t == nil || name == "" {
		return nil, false
	}
	s, ok := t.BlockStylePresets[name]
	return s, ok
}

// ParseTheme decodes a JSON theme.
func ParseTheme(data []byte) (*Theme, error) {
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("schema: parsing theme: %w", err)
	}
	return &t, nil
}

// ParseThemeYAML decodes a YAML theme. Themes are authored by hand more
// often than documents, so both encodings are accepted.
func ParseThemeYAML(data []byte) (*Theme, error) {
	var t Theme
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("schema: parsing theme: %w", err)
	}
	return &t, nil
}

// Page formats accepted by PageSettings, matched case-insensitively.
const (
	FormatA3      = "a3"
	FormatA4      = "a4"
	FormatA5      = "a5"
	FormatLetter  = "letter"
	FormatLegal   = "legal"
	FormatTabloid = "tabloid"
)

// Orientations accepted by PageSettings.
const (
	Portrait  = "portrait"
	Landscape = "landscape"
)

// PageSettings selects the page geometry for a document. Zero fields
// fall back to A4 portrait with 20pt margins.
type PageSettings struct {
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
	Orientation string   `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Margins     *Margins `json:"margins,omitempty" yaml:"margins,omitempty"`
}

// Margins are the page margins in points.
type Margins struct {
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
	Left   float64 `json:"left" yaml:"left"`
}

// DefaultPageSettings returns the fixed fallback geometry: A4 portrait,
// 20pt margins on all sides.
func DefaultPageSettings() *PageSettings {
	return &PageSettings{
		Format:      FormatA4,
		Orientation: Portrait,
		Margins:     &Margins{Top: 20, Right: 20, Bottom: 20, Left: 20},
	}
}

// Normalize returns a copy of p with every field populated, lowercased,
// and unrecognized values replaced by the defaults. A nil receiver
// yields DefaultPageSettings. Rendering never fails on page settings;
// use Validate for strict checking.
func (p *PageSettings) Normalize() *PageSettings {
	out := DefaultPageSettings()
	if p == nil {
		return out
	}
	if f := strings.ToLower(strings.TrimSpace(p.Format)); validFormat(f) {
		out.Format = f
	}
	if o := strings.ToLower(strings.TrimSpace(p.Orientation)); o == Portrait || o == Landscape {
		out.Orientation = o
	}
	if p.Margins != nil {
		m := *p.Margins
		if m.Top < 0 {
			m.Top = 0
		}
		if m.Right < 0 {
			m.Right = 0
		}
		if m.Bottom < 0 {
			m.Bottom = 0
		}
		if m.Left < 0 {
			m.Left = 0
		}
		out.Margins = &m
	}
	return out
}

// Validate reports every invalid page setting. Used by strict surfaces
// (CLI validate); the render path normalizes instead.
func (p *PageSettings) Validate() error {
	if p == nil {
		return nil
	}
	var errs error
	if f := strings.ToLower(strings.TrimSpace(p.Format)); f != "" && !validFormat(f) {
		errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrInvalidFormat, p.Format))
	}
	if o := strings.ToLower(strings.TrimSpace(p.Orientation)); o != "" && o != Portrait && o != Landscape {
		errs = multierr.Append(errs, fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation))
	}
	if m := p.Margins; m != nil {
		if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
			errs = multierr.Append(errs, fmt.Errorf("%w: %+v", ErrInvalidMargins, *m))
		}
	}
	return errs
}

func validFormat(f string) bool {
	switch f {
	case FormatA3, FormatA4, FormatA5, FormatLetter, FormatLegal, FormatTabloid:
		return true
	}
	return false
}

// SizePt returns the page size in points for the normalized settings,
// orientation applied.
func (p *PageSettings) SizePt() (w, h float64) {
	n := p.Normalize()
	switch n.Format {
	case FormatA3:
		w, h = 841.89, 1190.55
	case FormatA5:
		w, h = 419.53, 595.28
	case FormatLetter:
		w, h = 612, 792
	case FormatLegal:
		w, h = 612, 1008
	case FormatTabloid:
		w, h = 792, 1224
	default:
		w, h = 595.28, 841.89
	}
	if n.Orientation == Landscape {
		w, h = h, w
	}
	return w, h
}
