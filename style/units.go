package style

import (
	"strconv"
	"strings"

	"github.com/lvillar/docpdf/schema"
)

// Conversion factors to points.
const (
	ptPerMm = 72.0 / 25.4
	ptPerCm = 10 * ptPerMm
	ptPerPx = 0.75
	ptPerEm = 12.0
)

// Length is a resolved length in points, or a percentage for engines
// that lay out proportionally (column and image widths).
type Length struct {
	Value   float64
	Percent bool
}

// Pt returns the length in points, resolving a percentage against the
// given reference length.
func (l Length) Pt(ref float64) float64 {
	if l.Percent {
		return ref * l.Value / 100
	}
	return l.Value
}

// ParseLength converts a style value to a Length. Numbers are points.
// Strings accept the suffixes px (×0.75), pt, mm, cm, em, rem (×12pt),
// and % (passed through); a bare numeric string is points. Anything
// else reports false so the caller keeps its default.
func ParseLength(v schema.Value) (Length, bool) {
	switch v.Kind() {
	case schema.Number:
		n, _ := v.Num()
		return Length{Value: n}, true
	case schema.String:
		s, _ := v.Str()
		return parseLengthString(s)
	default:
		return Length{}, false
	}
}

func parseLengthString(s string) (Length, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Length{}, false
	}

	if rest, ok := strings.CutSuffix(s, "%"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return Length{}, false
		}
		return Length{Value: n, Percent: true}, true
	}

	factor := 1.0
	num := s
	switch {
	case strings.HasSuffix(s, "rem"):
		factor, num = ptPerEm, strings.TrimSuffix(s, "rem")
	case strings.HasSuffix(s, "em"):
		factor, num = ptPerEm, strings.TrimSuffix(s, "em")
	case strings.HasSuffix(s, "px"):
		factor, num = ptPerPx, strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "pt"):
		num = strings.TrimSuffix(s, "pt")
	case strings.HasSuffix(s, "mm"):
		factor, num = ptPerMm, strings.TrimSuffix(s, "mm")
	case strings.HasSuffix(s, "cm"):
		factor, num = ptPerCm, strings.TrimSuffix(s, "cm")
	}

	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: n * factor}, true
}

// ParsePt is ParseLength restricted to absolute lengths; percentages
// report false.
func ParsePt(v schema.Value) (float64, bool) {
	l, ok := ParseLength(v)
	if !ok || l.Percent {
		return 0, false
	}
	return l.Value, true
}
