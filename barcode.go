package docpdf

import (
	"bytes"
	"fmt"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/pdf417"
	"github.com/boombuler/barcode/qr"
	"go.uber.org/zap"

	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// Default display sizes in points. Square symbologies get a square
// box, linear ones a wide short one; explicit style dimensions win.
const (
	barcodeSquarePt = 120.0
	barcodeLinearW  = 180.0
	barcodeLinearH  = 54.0
)

// renderBarcode encodes the node's interpolated content in the
// requested symbology and places the symbol like an inline image.
// Empty content and encoding failures skip the node with a warning:
// a bad barcode should not take the whole document down.
func (r *renderer) renderBarcode(n *schema.Node, ctx renderContext, st *style.Computed) error {
	raw, _ := n.Prop("content").Str()
	content, err := r.eval.InterpolateTemplate(raw, ctx.data, ctx.loop)
	if err != nil {
		return fmt.Errorf("%w: barcode content on node %s: %v", ErrEvaluator, n.ID, err)
	}
	if content == "" {
		return nil
	}
	format, _ := n.Prop("format").Str()
	if format == "" {
		format = "qr"
	}

	square := format == "qr" || format == "datamatrix"
	var code barcode.Barcode
	switch format {
	case "qr":
		code, err = qr.Encode(content, qr.M, qr.Auto)
	case "code128":
		code, err = code128.Encode(content)
	case "ean":
		code, err = ean.Encode(content)
	case "datamatrix":
		code, err = datamatrix.Encode(content)
	case "pdf417":
		code, err = pdf417.Encode(content, 2)
	default:
		r.log.Warn("unknown barcode format, skipping",
			zap.String("node", string(n.ID)), zap.String("format", format))
		return nil
	}
	if err != nil {
		r.log.Warn("barcode encoding failed, skipping",
			zap.String("node", string(n.ID)), zap.String("format", format), zap.Error(err))
		return nil
	}

	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	contentW := pageW - lm - rm
	w, h := barcodeSize(st, contentW, square)

	// Scale to pixels at the asset resolution so the symbol stays
	// crisp at print size.
	px := func(pt float64) int { return int(pt / 72.0 * assetDPI) }
	scaled, err := barcode.Scale(code, px(w), px(h))
	if err != nil {
		r.log.Warn("barcode scaling failed, skipping",
			zap.String("node", string(n.ID)), zap.Error(err))
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return fmt.Errorf("encode barcode image: %w", err)
	}

	name := "barcode-" + string(n.ID)
	opt := fpdf.ImageOptions{ImageType: "png"}
	if r.pdf.RegisterImageOptionsReader(name, opt, &buf) == nil {
		return nil
	}

	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}
	r.pdf.ImageOptions(name, r.pdf.GetX(), 0, w, h, true, opt, 0, "")
	if st.Margin.Bottom > 0 {
		r.pdf.Ln(st.Margin.Bottom)
	}
	return nil
}

func barcodeSize(st *style.Computed, contentW float64, square bool) (w, h float64) {
	if square {
		w, h = barcodeSquarePt, barcodeSquarePt
	} else {
		w, h = barcodeLinearW, barcodeLinearH
	}
	if st.Width != nil {
		w = st.Width.Pt(contentW)
		if square && st.Height == nil {
			h = w
		}
	}
	if st.Height != nil {
		h = st.Height.Pt(contentW)
		if square && st.Width == nil {
			w = h
		}
	}
	return w, h
}
