package style

import (
	"strconv"
	"strings"

	"github.com/lvillar/docpdf/schema"
)

// RGB is an sRGB color with 8-bit channels.
type RGB struct {
	R, G, B int
}

var namedColors = map[string]RGB{
	"black":     {0, 0, 0},
	"white":     {255, 255, 255},
	"red":       {255, 0, 0},
	"green":     {0, 128, 0},
	"blue":      {0, 0, 255},
	"yellow":    {255, 255, 0},
	"orange":    {255, 165, 0},
	"purple":    {128, 0, 128},
	"gray":      {128, 128, 128},
	"grey":      {128, 128, 128},
	"lightgray": {211, 211, 211},
	"lightgrey": {211, 211, 211},
	"silver":    {192, 192, 192},
	"navy":      {0, 0, 128},
	"teal":      {0, 128, 128},
	"maroon":    {128, 0, 0},
}

// ParseColor converts a style value to an RGB color. Accepted forms are
// "#rgb", "#rrggbb", "rgb(r, g, b)", and a small named set. Anything
// else reports false so the caller keeps its default.
func ParseColor(v schema.Value) (RGB, bool) {
	s, ok := v.Str()
	if !ok {
		return RGB{}, false
	}
	s = strings.TrimSpace(strings.ToLower(s))

	if c, ok := namedColors[s]; ok {
		return c, true
	}

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		return parseHex(hex)
	}

	if inner, ok := strings.CutPrefix(s, "rgb("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return RGB{}, false
		}
		parts := strings.Split(inner, ",")
		if len(parts) != 3 {
			return RGB{}, false
		}
		var ch [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return RGB{}, false
			}
			ch[i] = n
		}
		return RGB{ch[0], ch[1], ch[2]}, true
	}

	return RGB{}, false
}

func parseHex(hex string) (RGB, bool) {
	switch len(hex) {
	case 3:
		var ch [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseInt(string(hex[i]), 16, 0)
			if err != nil {
				return RGB{}, false
			}
			ch[i] = int(n)*16 + int(n)
		}
		return RGB{ch[0], ch[1], ch[2]}, true
	case 6:
		var ch [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.ParseInt(hex[2*i:2*i+2], 16, 0)
			if err != nil {
				return RGB{}, false
			}
			ch[i] = int(n)
		}
		return RGB{ch[0], ch[1], ch[2]}, true
	default:
		return RGB{}, false
	}
}
