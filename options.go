package docpdf

import (
	"time"

	"go.uber.org/zap"

	"github.com/lvillar/docpdf/eval"
	"github.com/lvillar/docpdf/schema"
)

// Option is a functional option for a single render invocation.
type Option func(*renderConfig)

// Metadata is the document information written into the output.
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

type renderConfig struct {
	archival    bool
	profile     []byte
	meta        Metadata
	created     time.Time
	maxOutput   int64
	assets      AssetResolver
	evaluator   eval.Evaluator
	fonts       []fontFile
	fontDir     string
	logger      *zap.Logger
	defaultLang schema.Language
}

type fontFile struct {
	family string
	style  string
	data   []byte
}

func defaultConfig() *renderConfig {
	return &renderConfig{
		created:     time.Unix(0, 0).UTC(),
		logger:      zap.NewNop(),
		defaultLang: schema.LangQuery,
	}
}

// WithArchival requests PDF/A-2b output. Archival mode additionally
// requires an ICC color profile (WithColorProfile) and embeddable font
// data (WithFont or WithFontDir) for every family the document uses.
func WithArchival() Option {
	return func(c *renderConfig) {
		c.archival = true
	}
}

// WithColorProfile supplies the sRGB ICC profile embedded as the
// archival output intent.
func WithColorProfile(icc []byte) Option {
	return func(c *renderConfig) {
		c.profile = icc
	}
}

// WithMetadata sets the document information dictionary.
func WithMetadata(m Metadata) Option {
	return func(c *renderConfig) {
		c.meta = m
	}
}

// WithCreationTime pins the document creation timestamp. The default
// is a fixed reference time so identical inputs produce identical
// bytes; pass time.Now() for wall-clock stamps.
func WithCreationTime(t time.Time) Option {
	return func(c *renderConfig) {
		c.created = t.UTC()
	}
}

// WithMaxOutputSize aborts the render when the produced document would
// exceed n bytes, with an error distinguishable from rendering defects.
// Zero means unlimited.
func WithMaxOutputSize(n int64) Option {
	return func(c *renderConfig) {
		c.maxOutput = n
	}
}

// WithAssetResolver supplies the resolver image nodes fetch their
// bytes through. Without one, every image node is skipped.
func WithAssetResolver(r AssetResolver) Option {
	return func(c *renderConfig) {
		c.assets = r
	}
}

// WithEvaluator replaces the built-in expression evaluator.
func WithEvaluator(e eval.Evaluator) Option {
	return func(c *renderConfig) {
		c.evaluator = e
	}
}

// WithFont registers TTF data for a family and style ("", "B", "I",
// "BI"). Registered fonts are embedded in the output and are required
// for any family used in archival mode.
func WithFont(family, style string, ttf []byte) Option {
	return func(c *renderConfig) {
		c.fonts = append(c.fonts, fontFile{family: family, style: style, data: ttf})
	}
}

// WithFontDir loads TTF files from dir by naming convention:
// Family-Regular.ttf, Family-Bold.ttf, Family-Italic.ttf,
// Family-BoldItalic.ttf.
func WithFontDir(dir string) Option {
	return func(c *renderConfig) {
		c.fontDir = dir
	}
}

// WithLogger attaches a logger for render diagnostics (skipped nodes,
// degraded references). The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *renderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultLanguage sets the dialect assumed for bare-string
// expressions and {{ ... }} interpolation spans. The default is the
// query dialect.
func WithDefaultLanguage(lang schema.Language) Option {
	return func(c *renderConfig) {
		if lang != "" {
			c.defaultLang = lang
		}
	}
}
