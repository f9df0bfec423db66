package docpdf

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// borderStyle selects which cell edges tables and datatables stroke.
type borderStyle int

const (
	borderAll borderStyle = iota
	borderHorizontal
	borderVertical
	borderNone
)

func parseBorderStyle(v schema.Value) borderStyle {
	s, _ := v.Str()
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal":
		return borderHorizontal
	case "vertical":
		return borderVertical
	case "none":
		return borderNone
	default:
		return borderAll
	}
}

const defaultCellPadding = 3.0

// renderRow lays out one row of cells: a content pass that renders
// each cell into its column box while measuring the tallest cell, then
// a border pass once the row height is known. cells entries may be nil
// for empty cells. Starts a new page first when the row would begin
// past the bottom margin, except inside a band: bands overlay an
// existing page and never grow the document.
func (r *renderer) renderRow(cells []func() error, widths []float64, border borderStyle, st *style.Computed, pad float64, band bool) error {
	pageW, pageH := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	contentW := pageW - lm - rm

	minH := st.LineHeightPt() + 2*pad
	if !band && r.pdf.GetY()+minH > pageH-r.pageBottom {
		r.pdf.AddPage()
	}
	y0 := r.pdf.GetY()
	rowH := minH

	xs := make([]float64, len(cells)+1)
	x := lm
	for i, cell := range cells {
		xs[i] = x
		w := contentW * widths[i] / 100
		r.pdf.SetLeftMargin(x + pad)
		r.pdf.SetRightMargin(pageW - (x + w - pad))
		r.pdf.SetXY(x+pad, y0+pad)
		if cell != nil {
			if err := cell(); err != nil {
				r.pdf.SetLeftMargin(lm)
				r.pdf.SetRightMargin(rm)
				return err
			}
		}
		if h := r.pdf.GetY() - y0 + pad; h > rowH {
			rowH = h
		}
		x += w
	}
	xs[len(cells)] = x
	r.pdf.SetLeftMargin(lm)
	r.pdf.SetRightMargin(rm)

	if border != borderNone {
		bw := st.Border.Width
		if bw <= 0 {
			bw = 0.5
		}
		r.pdf.SetLineWidth(bw)
		r.pdf.SetDrawColor(st.Border.Color.R, st.Border.Color.G, st.Border.Color.B)
		switch border {
		case borderAll:
			for i := 0; i < len(cells); i++ {
				r.pdf.Rect(xs[i], y0, xs[i+1]-xs[i], rowH, "D")
			}
		case borderHorizontal:
			r.pdf.Line(xs[0], y0, xs[len(cells)], y0)
			r.pdf.Line(xs[0], y0+rowH, xs[len(cells)], y0+rowH)
		case borderVertical:
			for _, bx := range xs {
				r.pdf.Line(bx, y0, bx, y0+rowH)
			}
		}
	}

	r.pdf.SetXY(lm, y0+rowH)
	return nil
}

// renderTable draws a fixed rows×columns grid. Cell content lives in
// slots named "cell-{row}-{col}"; missing cell slots are simply empty.
// The first headerRows rows render in a bold weight.
func (r *renderer) renderTable(n *schema.Node, ctx renderContext, st *style.Computed) error {
	rows, _ := n.Prop("rows").Int()
	cols, _ := n.Prop("columns").Int()
	if rows <= 0 || cols <= 0 {
		r.log.Debug("table without a positive row/column count",
			zap.String("node", string(n.ID)))
		return nil
	}

	border := parseBorderStyle(n.Prop("borderStyle"))
	headerRows, ok := n.Prop("headerRows").Int()
	if !ok || headerRows < 0 {
		headerRows = 0
	}
	pad := defaultCellPadding
	if p, ok := style.ParsePt(n.Prop("cellPadding")); ok && p >= 0 {
		pad = p
	}
	widths := columnWidths(numberList(n.Prop("sizes")), cols)

	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}
	err := r.withoutPageBreak(func() error {
		for row := 0; row < rows; row++ {
			rst := st
			if row < headerRows {
				h := *st
				h.Bold = true
				rst = &h
			}
			child := ctx
			child.parent = rst

			cells := make([]func() error, cols)
			for col := 0; col < cols; col++ {
				slot := r.doc.SlotNamed(n, fmt.Sprintf("cell-%d-%d", row, col))
				if slot == nil {
					continue
				}
				sid := slot.ID
				cells[col] = func() error { return r.renderSlot(sid, child) }
			}
			if err := r.renderRow(cells, widths, border, rst, pad, ctx.band); err != nil {
				return err
			}
		}
		return nil
	})
	if st.Margin.Bottom > 0 {
		r.pdf.Ln(st.Margin.Bottom)
	}
	return err
}
