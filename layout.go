package docpdf

import (
	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// columnWidths distributes width between n columns as percentages:
// size_i/Σsize when sizes are given, an even split otherwise. Sizes
// that do not cover every column, or that sum to nothing, fall back to
// the even split.
func columnWidths(sizes []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	total := 0.0
	for _, s := range sizes {
		if s > 0 {
			total += s
		}
	}
	if len(sizes) != n || total <= 0 {
		for i := range out {
			out[i] = 100.0 / float64(n)
		}
		return out
	}
	for i, s := range sizes {
		if s < 0 {
			s = 0
		}
		out[i] = s / total * 100
	}
	return out
}

// numberList extracts the numeric elements of a list value, in order.
func numberList(v schema.Value) []float64 {
	list, ok := v.List()
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(list))
	for _, e := range list {
		n, _ := e.Num()
		out = append(out, n)
	}
	return out
}

// renderColumns lays the node's slots out side by side. Each slot is
// one column; widths follow the sizes prop, and the gap prop becomes
// symmetric half-padding on interior edges (outer edges stay flush).
func (r *renderer) renderColumns(n *schema.Node, ctx renderContext, st *style.Computed) error {
	if len(n.Slots) == 0 {
		return nil
	}
	widths := columnWidths(numberList(n.Prop("sizes")), len(n.Slots))
	gap, _ := style.ParsePt(n.Prop("gap"))
	if gap < 0 {
		gap = 0
	}

	pageW, _ := r.pdf.GetPageSize()
	lm, _, rm, _ := r.pdf.GetMargins()
	contentW := pageW - lm - rm

	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}
	y0 := r.pdf.GetY()
	maxY := y0

	child := ctx
	child.parent = st

	err := r.withoutPageBreak(func() error {
		x := lm
		for i, sid := range n.Slots {
			w := contentW * widths[i] / 100
			padL, padR := 0.0, 0.0
			if i > 0 {
				padL = gap / 2
			}
			if i < len(n.Slots)-1 {
				padR = gap / 2
			}
			r.pdf.SetLeftMargin(x + padL)
			r.pdf.SetRightMargin(pageW - (x + w - padR))
			r.pdf.SetXY(x+padL, y0)
			if err := r.renderSlot(sid, child); err != nil {
				return err
			}
			if y := r.pdf.GetY(); y > maxY {
				maxY = y
			}
			x += w
		}
		return nil
	})

	r.pdf.SetLeftMargin(lm)
	r.pdf.SetRightMargin(rm)
	r.pdf.SetXY(lm, maxY)
	if st.Margin.Bottom > 0 {
		r.pdf.Ln(st.Margin.Bottom)
	}
	return err
}
