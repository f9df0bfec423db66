// Package docpdf renders template documents to PDF.
//
// A template is a typed node/slot graph (package schema) paired with a
// theme and a data payload. Render walks the graph, resolves each
// node's style through the document → theme → inline cascade, evaluates
// the embedded expressions against the payload, and lays the result out
// on paginated pages through the fpdf engine. Archival mode
// post-processes the output into a PDF/A-2b document (package pdfa).
//
// Rendering is deterministic: the same document, theme, data and
// options produce identical bytes. A renderer is built per call, so
// concurrent Render invocations are independent.
package docpdf

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"

	"github.com/lvillar/docpdf/eval"
	"github.com/lvillar/docpdf/pdfa"
	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// Render draws doc with the given theme and data payload and writes the
// finished PDF to w. theme, data and opts may all be nil or empty; the
// built-in defaults apply. Structural defects in individual nodes
// degrade to empty output for that node; the returned error covers only
// failures that abort the whole document, wrapped in *RenderError.
func Render(w io.Writer, doc *schema.Document, theme *schema.Theme, data map[string]any, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if doc == nil {
		return newRenderError("render", ErrNilDocument)
	}
	if doc.Node(doc.Root) == nil {
		return newRenderError("render", fmt.Errorf("%w: %q", ErrMissingRoot, doc.Root))
	}
	if cfg.archival && len(cfg.profile) == 0 {
		return newRenderError("archive", ErrProfileMissing)
	}

	out, err := renderDocument(doc, theme, data, cfg)
	if err != nil {
		return err
	}

	if cfg.archival {
		out, err = pdfa.Rewrite(out, pdfa.Info{
			Profile: cfg.profile,
			Title:   cfg.meta.Title,
			Author:  cfg.meta.Author,
			Subject: cfg.meta.Subject,
			Creator: cfg.meta.Creator,
			Created: cfg.created,
		})
		if err != nil {
			return newRenderError("archive", err)
		}
	}

	if cfg.maxOutput > 0 && int64(len(out)) > cfg.maxOutput {
		return newRenderError("write", fmt.Errorf("%w: %d bytes, limit %d",
			ErrOutputTooLarge, len(out), cfg.maxOutput))
	}
	if _, err := w.Write(out); err != nil {
		return newRenderError("write", err)
	}
	return nil
}

// RenderJSON is Render for wire-format inputs: doc and theme are JSON
// documents, data is a JSON object. theme and data may be nil.
func RenderJSON(w io.Writer, docJSON, themeJSON, dataJSON []byte, opts ...Option) error {
	doc, err := schema.ParseDocument(docJSON)
	if err != nil {
		return newRenderError("parse", err)
	}
	var theme *schema.Theme
	if len(themeJSON) > 0 {
		if theme, err = schema.ParseTheme(themeJSON); err != nil {
			return newRenderError("parse", err)
		}
	}
	var data map[string]any
	if len(dataJSON) > 0 {
		if data, err = schema.ParseData(dataJSON); err != nil {
			return newRenderError("parse", err)
		}
	}
	return Render(w, doc, theme, data, opts...)
}

// renderDocument runs the two rendering passes and returns the raw PDF
// bytes: a flow pass that lays out the body across pages, then a band
// pass that overlays the header and footer onto every produced page.
func renderDocument(doc *schema.Document, theme *schema.Theme, data map[string]any, cfg *renderConfig) (out []byte, err error) {
	// The engine reports defects through pdf.Err, but a malformed node
	// graph can still drive it into a panic. Contain it to this call.
	defer func() {
		if rec := recover(); rec != nil {
			err = newRenderError("render", fmt.Errorf("renderer panic: %v", rec))
		}
	}()

	settings := doc.PageSettings
	if settings == nil && theme != nil {
		settings = theme.PageSettings
	}
	settings = settings.Normalize()
	pageW, pageH := settings.SizePt()
	m := settings.Margins

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetMargins(m.Left, m.Top, m.Right)
	pdf.SetAutoPageBreak(true, m.Bottom)
	pdf.SetCreationDate(cfg.created)
	pdf.SetTitle(cfg.meta.Title, true)
	pdf.SetAuthor(cfg.meta.Author, true)
	pdf.SetSubject(cfg.meta.Subject, true)
	pdf.SetCreator(cfg.meta.Creator, true)

	fonts, err := newFontCache(pdf, cfg)
	if err != nil {
		return nil, newRenderError("fonts", err)
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		evaluator = eval.New(cfg.defaultLang)
	}

	var themeStyles schema.Styles
	var presets map[string]schema.Styles
	if theme != nil {
		themeStyles = theme.DocumentStyles
		presets = theme.BlockStylePresets
	}
	docStyles := style.Overlay(themeStyles, doc.DocumentStyles)

	r := &renderer{
		pdf:        pdf,
		doc:        doc,
		resolver:   style.NewResolver(docStyles, presets),
		eval:       evaluator,
		fonts:      fonts,
		assets:     cfg.assets,
		log:        cfg.logger,
		lang:       cfg.defaultLang,
		pageBottom: m.Bottom,
	}
	r.buildRegistry()

	pdf.AddPage()
	if err := r.renderNode(doc.Root, renderContext{data: data}); err != nil {
		return nil, newRenderError("render", err)
	}

	if err := r.renderBands(data, m, pageH); err != nil {
		return nil, newRenderError("render", err)
	}

	if pdf.Err() {
		return nil, newRenderError("render", pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, newRenderError("render", err)
	}
	return buf.Bytes(), nil
}

// renderBands overlays the page header and footer subtrees onto every
// page of the finished layout. Each page's band sees a loop scope with
// the current and total page numbers; page breaks are inert inside a
// band. When a document declares several header (or footer) nodes, the
// one with the smallest id wins.
func (r *renderer) renderBands(data map[string]any, m *schema.Margins, pageH float64) error {
	header := firstOfType(r.doc, schema.NodePageHeader)
	footer := firstOfType(r.doc, schema.NodePageFooter)
	if header == nil && footer == nil {
		return nil
	}

	rootStyle := r.resolver.Resolve(r.doc.Node(r.doc.Root), nil)
	total := r.pdf.PageCount()

	r.pdf.SetAutoPageBreak(false, r.pageBottom)
	defer r.pdf.SetAutoPageBreak(true, r.pageBottom)

	for page := 1; page <= total; page++ {
		r.pdf.SetPage(page)
		ctx := renderContext{
			data:   data,
			loop:   map[string]any{"page": page, "pages": total},
			parent: rootStyle,
			band:   true,
		}
		if header != nil {
			r.pdf.SetXY(m.Left, headerBandY)
			if err := r.renderBand(header, ctx); err != nil {
				return err
			}
		}
		if footer != nil {
			r.pdf.SetXY(m.Left, pageH-m.Bottom+footerBandInset)
			if err := r.renderBand(footer, ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Vertical anchors for the overlay bands, in points: the header starts
// near the physical page top, the footer just below the bottom margin
// line.
const (
	headerBandY     = 6.0
	footerBandInset = 4.0
)

func (r *renderer) renderBand(n *schema.Node, ctx renderContext) error {
	ctx.parent = r.resolver.Resolve(n, ctx.parent)
	return r.renderChildren(n, ctx)
}
