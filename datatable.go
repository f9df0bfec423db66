package docpdf

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lvillar/docpdf/eval"
	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// renderDatatable draws a schema-driven table: the declared
// datatable-column children define the columns, an iterable expression
// supplies the rows. The header row is emitted exactly once (unless
// disabled) regardless of the row count; each body row renders every
// column's "body" slot under that row's loop scope.
func (r *renderer) renderDatatable(n *schema.Node, ctx renderContext, st *style.Computed) error {
	colNodes := r.datatableColumns(n)
	if len(colNodes) == 0 {
		r.log.Debug("datatable without columns", zap.String("node", string(n.ID)))
		return nil
	}

	sizes := make([]float64, len(colNodes))
	for i, c := range colNodes {
		sizes[i], _ = c.Prop("size").Num()
	}
	widths := columnWidths(sizes, len(colNodes))

	border := parseBorderStyle(n.Prop("borderStyle"))
	pad := defaultCellPadding
	if p, ok := style.ParsePt(n.Prop("cellPadding")); ok && p >= 0 {
		pad = p
	}
	showHeader := true
	if b, ok := n.Prop("showHeader").Bool(); ok {
		showHeader = b
	}

	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}

	err := r.withoutPageBreak(func() error {
		if showHeader {
			hst := *st
			hst.Bold = true
			cells := make([]func() error, len(colNodes))
			for i, c := range colNodes {
				header, _ := c.Prop("header").Str()
				cells[i] = func() error {
					text, err := r.eval.InterpolateTemplate(header, ctx.data, ctx.loop)
					if err != nil {
						return fmt.Errorf("%w: datatable header: %v", ErrEvaluator, err)
					}
					if text == "" {
						return nil
					}
					if err := r.fonts.setFont(hst.FontFamily, true, hst.Italic, false, hst.FontSize); err != nil {
						return err
					}
					r.pdf.SetTextColor(hst.Color.R, hst.Color.G, hst.Color.B)
					r.pdf.MultiCell(0, hst.LineHeightPt(), text, "", hst.Align, false)
					return nil
				}
			}
			if err := r.renderRow(cells, widths, border, &hst, pad, ctx.band); err != nil {
				return err
			}
		}

		expr := schema.ExpressionFromValue(n.Prop("expression"), r.lang)
		items, err := r.eval.EvaluateIterable(expr, ctx.data, ctx.loop)
		if err != nil {
			return fmt.Errorf("%w: iterable on node %s: %v", ErrEvaluator, n.ID, err)
		}
		alias, _ := n.Prop("alias").Str()
		indexAlias, _ := n.Prop("indexAlias").Str()

		for i, item := range items {
			rowCtx := ctx
			rowCtx.parent = st
			rowCtx.loop = eval.LoopScope(ctx.loop, alias, item, i, len(items), indexAlias)

			cells := make([]func() error, len(colNodes))
			for j, c := range colNodes {
				slot := r.doc.SlotNamed(c, "body")
				if slot == nil {
					continue
				}
				sid := slot.ID
				cells[j] = func() error { return r.renderSlot(sid, rowCtx) }
			}
			if err := r.renderRow(cells, widths, border, st, pad, ctx.band); err != nil {
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

// datatableColumns collects the datatable-column children across the
// node's slots, in slot order. Other child types are ignored.
func (r *renderer) datatableColumns(n *schema.Node) []*schema.Node {
	var cols []*schema.Node
	for _, sid := range n.Slots {
		slot := r.doc.Slot(sid)
		if slot == nil {
			continue
		}
		for _, cid := range slot.Children {
			c := r.doc.Node(cid)
			if c != nil && c.Type == schema.NodeDatatableColumn {
				cols = append(cols, c)
			}
		}
	}
	return cols
}
