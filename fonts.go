package docpdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Engine fallback used when a family resolves to nothing.
const defaultFontFamily = "helvetica"

// coreFamilies maps common family names onto the engine's built-in
// fonts. Built-ins carry no glyph programs, so they are unusable in
// archival mode.
var coreFamilies = map[string]string{
	"helvetica":       "helvetica",
	"arial":           "helvetica",
	"sans":            "helvetica",
	"sans-serif":      "helvetica",
	"times":           "times",
	"times new roman": "times",
	"serif":           "times",
	"georgia":         "times",
	"courier":         "courier",
	"courier new":     "courier",
	"mono":            "courier",
	"monospace":       "courier",
}

// dirVariants maps the filename suffix convention used by WithFontDir
// to engine style strings.
var dirVariants = map[string]string{
	"Regular":     "",
	"Bold":        "B",
	"Italic":      "I",
	"Oblique":     "I",
	"BoldItalic":  "BI",
	"BoldOblique": "BI",
}

// fontCache resolves (family, bold, italic) to a font registered on
// one output document. It is scoped to a single render call: embedded
// fonts are bound to the PDF they are written into and must not be
// reused across documents.
type fontCache struct {
	pdf      *fpdf.Fpdf
	embedded map[string]bool // family|style with registered TTF data
	archival bool
	log      *zap.Logger
}

func newFontCache(pdf *fpdf.Fpdf, cfg *renderConfig) (*fontCache, error) {
	fc := &fontCache{
		pdf:      pdf,
		embedded: make(map[string]bool),
		archival: cfg.archival,
		log:      cfg.logger,
	}
	for _, f := range cfg.fonts {
		fc.register(f.family, f.style, f.data)
	}
	if cfg.fontDir != "" {
		if err := fc.loadDir(cfg.fontDir); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

// register embeds TTF data under the given family and style.
func (fc *fontCache) register(family, styleStr string, ttf []byte) {
	family = strings.ToLower(strings.TrimSpace(family))
	if family == "" || len(ttf) == 0 {
		return
	}
	styleStr = normalizeFontStyle(styleStr)
	fc.pdf.AddUTF8FontFromBytes(family, styleStr, ttf)
	fc.embedded[family+"|"+styleStr] = true
}

// loadDir registers every TTF in dir following the
// Family-Variant.ttf naming convention.
func (fc *fontCache) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("docpdf: reading font dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		family, variant := base, "Regular"
		if idx := strings.LastIndex(base, "-"); idx > 0 {
			family, variant = base[:idx], base[idx+1:]
		}
		styleStr, ok := dirVariants[variant]
		if !ok {
			fc.log.Debug("skipping font file with unknown variant",
				zap.String("file", e.Name()))
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("docpdf: reading font %s: %w", e.Name(), err)
		}
		fc.register(family, styleStr, data)
	}
	return nil
}

// resolve maps a family and B/I style onto a font the engine knows.
// Preference order: the embedded font in the exact style, the embedded
// regular cut, a core font, the default sans family. In archival mode
// only embedded fonts qualify; resolving to anything else is fatal,
// because the output would carry an unembedded glyph program.
func (fc *fontCache) resolve(family, styleStr string) (string, string, error) {
	fam := strings.ToLower(strings.TrimSpace(family))
	if fam == "" {
		fam = defaultFontFamily
	}
	if fc.embedded[fam+"|"+styleStr] {
		return fam, styleStr, nil
	}
	if fc.embedded[fam+"|"] {
		return fam, "", nil
	}
	if fc.archival {
		return "", "", fmt.Errorf("%w: family %q", ErrFontNotEmbedded, family)
	}
	if core, ok := coreFamilies[fam]; ok {
		return core, styleStr, nil
	}
	fc.log.Debug("unknown font family, using default",
		zap.String("family", family))
	return defaultFontFamily, styleStr, nil
}

// setFont makes the resolved font current on the document. Underline
// is an engine text attribute rather than a separate cut, so it is
// appended after resolution.
func (fc *fontCache) setFont(family string, bold, italic, underline bool, size float64) error {
	want := ""
	if bold {
		want += "B"
	}
	if italic {
		want += "I"
	}
	fam, styleStr, err := fc.resolve(family, want)
	if err != nil {
		return err
	}
	if underline {
		styleStr += "U"
	}
	fc.pdf.SetFont(fam, styleStr, size)
	return nil
}

// normalizeFontStyle reduces a style string to the canonical "", "B",
// "I", or "BI".
func normalizeFontStyle(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	out := ""
	if strings.Contains(s, "B") {
		out += "B"
	}
	if strings.Contains(s, "I") {
		out += "I"
	}
	return out
}
