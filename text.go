package docpdf

import (
	"fmt"

	"github.com/lvillar/docpdf/eval"
	"github.com/lvillar/docpdf/richtext"
	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// Heading sizes as multipliers over the block font size.
func headingScale(level int) float64 {
	switch level {
	case 1:
		return 2.0
	case 2:
		return 1.5
	case 3:
		return 1.25
	default:
		return 1.1
	}
}

const listIndentPt = 14.0

// renderText converts the node's rich-text content into blocks and
// lays them out. A bare string content is interpolated ({{ ... }}
// spans); structured content resolves its embedded expression atoms
// against the current loop scope.
func (r *renderer) renderText(n *schema.Node, ctx renderContext, st *style.Computed) error {
	content := n.Prop("content")

	var blocks []richtext.Block
	if s, ok := content.Str(); ok {
		text, err := r.eval.InterpolateTemplate(s, ctx.data, ctx.loop)
		if err != nil {
			return fmt.Errorf("%w: interpolating node %s: %v", ErrEvaluator, n.ID, err)
		}
		if text == "" {
			return nil
		}
		blocks = []richtext.Block{{Kind: richtext.Paragraph, Runs: []richtext.Run{{Text: text}}}}
	} else {
		var evalErr error
		blocks = richtext.Convert(content, r.lang, func(e schema.Expression) string {
			v, err := r.eval.Evaluate(e, ctx.data, ctx.loop)
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return eval.Stringify(v)
		})
		if evalErr != nil {
			return fmt.Errorf("%w: expression atom in node %s: %v", ErrEvaluator, n.ID, evalErr)
		}
	}

	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}
	err := r.layoutBlocks(blocks, st)
	if st.Margin.Bottom > 0 {
		r.pdf.Ln(st.Margin.Bottom)
	}
	return err
}

// layoutBlocks draws converted rich-text blocks at the current flow
// position.
func (r *renderer) layoutBlocks(blocks []richtext.Block, st *style.Computed) error {
	lm, _, _, _ := r.pdf.GetMargins()

	for _, b := range blocks {
		bst := *st
		indent := 0.0
		label := ""

		switch b.Kind {
		case richtext.Heading:
			bst.FontSize = st.FontSize * headingScale(b.Level)
			bst.Bold = true
			r.pdf.Ln(bst.LineHeightPt() * 0.4)
		case richtext.ListItem:
			indent = float64(b.Depth) * listIndentPt
			switch {
			case b.Index == 0:
				label = "" // continuation paragraph inside the item
			case b.Ordered:
				label = fmt.Sprintf("%d. ", b.Index)
			default:
				label = "• "
			}
		}

		lineH := bst.LineHeightPt()
		r.pdf.SetX(lm + indent)

		if label != "" {
			if err := r.fonts.setFont(bst.FontFamily, bst.Bold, bst.Italic, false, bst.FontSize); err != nil {
				return err
			}
			r.pdf.SetTextColor(bst.Color.R, bst.Color.G, bst.Color.B)
			r.pdf.Write(lineH, label)
		}

		if err := r.writeRuns(b.Runs, &bst, lineH); err != nil {
			return err
		}

		switch b.Kind {
		case richtext.Heading:
			r.pdf.Ln(lineH * 0.3)
		case richtext.Paragraph:
			r.pdf.Ln(lineH * 0.25)
		}
	}
	return nil
}

// writeRuns flows a block's runs, restyling the font per run. Strike
// marks are drawn as a line overlay when the run stays on one line;
// the engine has no native strike attribute.
func (r *renderer) writeRuns(runs []richtext.Run, bst *style.Computed, lineH float64) error {
	if len(runs) == 0 {
		return nil
	}

	// A uniformly styled block with a non-left alignment goes through
	// the wrapping cell path, which is the only aligned primitive.
	if bst.Align != style.AlignLeft && uniformRuns(runs) {
		run := runs[0]
		text := ""
		for _, rn := range runs {
			text += rn.Text
		}
		if err := r.fonts.setFont(bst.FontFamily, bst.Bold || run.Bold, bst.Italic || run.Italic, run.Underline, bst.FontSize); err != nil {
			return err
		}
		r.applyRunColor(run, bst)
		fill := false
		if bst.Background != nil {
			r.pdf.SetFillColor(bst.Background.R, bst.Background.G, bst.Background.B)
			fill = true
		}
		// MultiCell advances below the drawn text on its own.
		r.pdf.MultiCell(0, lineH, text, "", bst.Align, fill)
		return nil
	}

	for _, run := range runs {
		if err := r.fonts.setFont(bst.FontFamily, bst.Bold || run.Bold, bst.Italic || run.Italic, run.Underline, bst.FontSize); err != nil {
			return err
		}
		r.applyRunColor(run, bst)
		x0, y0 := r.pdf.GetXY()
		r.pdf.Write(lineH, run.Text)
		if run.Strike {
			x1, y1 := r.pdf.GetXY()
			if y1 == y0 && x1 > x0 {
				col := bst.Color
				if run.Color != nil {
					col = *run.Color
				}
				r.pdf.SetDrawColor(col.R, col.G, col.B)
				r.pdf.SetLineWidth(bst.FontSize * 0.06)
				r.pdf.Line(x0, y0+lineH*0.55, x1, y0+lineH*0.55)
			}
		}
	}
	r.pdf.Ln(lineH)
	return nil
}

func (r *renderer) applyRunColor(run richtext.Run, bst *style.Computed) {
	col := bst.Color
	if run.Color != nil {
		col = *run.Color
	}
	r.pdf.SetTextColor(col.R, col.G, col.B)
}

// uniformRuns reports whether every run shares the first run's inline
// style, making the block drawable as one cell.
func uniformRuns(runs []richtext.Run) bool {
	first := runs[0]
	for _, rn := range runs[1:] {
		if rn.Bold != first.Bold || rn.Italic != first.Italic ||
			rn.Underline != first.Underline || rn.Strike != first.Strike ||
			(rn.Color == nil) != (first.Color == nil) {
			return false
		}
		if rn.Color != nil && *rn.Color != *first.Color {
			return false
		}
	}
	return !first.Strike
}
