package docpdf

import (
	"fmt"
	"sort"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/lvillar/docpdf/eval"
	"github.com/lvillar/docpdf/schema"
	"github.com/lvillar/docpdf/style"
)

// renderContext carries the per-branch state of one traversal: the
// runtime data, the current loop scope, and the parent's resolved
// style. Contexts are copied, never mutated, on descent, so sibling
// branches cannot observe each other's scopes.
type renderContext struct {
	data   map[string]any
	loop   map[string]any
	parent *style.Computed
	band   bool // rendering inside a page-end header/footer band
}

// nodeRenderer draws one node. The resolved style is the node's own
// cascade result; ctx.parent still holds the parent's.
type nodeRenderer func(n *schema.Node, ctx renderContext, st *style.Computed) error

// renderer holds the per-call machinery: the output document, the
// style resolver, the evaluator, and the dispatch table. One renderer
// per render invocation, discarded with it.
type renderer struct {
	pdf        *fpdf.Fpdf
	doc        *schema.Document
	resolver   *style.Resolver
	eval       eval.Evaluator
	fonts      *fontCache
	assets     AssetResolver
	log        *zap.Logger
	lang       schema.Language
	pageBottom float64
	renderers  map[schema.NodeType]nodeRenderer
}

func (r *renderer) buildRegistry() {
	r.renderers = map[schema.NodeType]nodeRenderer{
		schema.NodeRoot:        r.renderBlock,
		schema.NodeContainer:   r.renderBlock,
		schema.NodeText:        r.renderText,
		schema.NodeColumns:     r.renderColumns,
		schema.NodeTable:       r.renderTable,
		schema.NodeConditional: r.renderConditional,
		schema.NodeLoop:        r.renderLoop,
		schema.NodeDatatable:   r.renderDatatable,
		schema.NodeImage:       r.renderImage,
		schema.NodeBarcode:     r.renderBarcode,
		schema.NodePageBreak:   r.renderPageBreak,
		// Header and footer bands are drawn by the page-end overlay
		// pass; in the main flow they render nothing.
		schema.NodePageHeader:      r.renderNothing,
		schema.NodePageFooter:      r.renderNothing,
		schema.NodeDatatableColumn: r.renderNothing, // only meaningful inside a datatable
	}
}

// renderNode dispatches a node to its renderer. Missing nodes and
// unknown types render nothing; one bad node must not abort the page.
func (r *renderer) renderNode(id schema.NodeID, ctx renderContext) error {
	n := r.doc.Node(id)
	if n == nil {
		r.log.Debug("skipping missing node", zap.String("node", string(id)))
		return nil
	}
	fn, ok := r.renderers[n.Type]
	if !ok {
		r.log.Debug("skipping unknown node type",
			zap.String("node", string(id)), zap.String("type", string(n.Type)))
		return nil
	}
	st := r.resolver.Resolve(n, ctx.parent)
	return fn(n, ctx, st)
}

// renderSlot renders a slot's children in order.
func (r *renderer) renderSlot(id schema.SlotID, ctx renderContext) error {
	slot := r.doc.Slot(id)
	if slot == nil {
		r.log.Debug("skipping missing slot", zap.String("slot", string(id)))
		return nil
	}
	for _, child := range slot.Children {
		if err := r.renderNode(child, ctx); err != nil {
			return err
		}
	}
	return nil
}

// renderChildren renders every slot of n in declaration order.
// ctx.parent must already be n's resolved style.
func (r *renderer) renderChildren(n *schema.Node, ctx renderContext) error {
	for _, sid := range n.Slots {
		if err := r.renderSlot(sid, ctx); err != nil {
			return err
		}
	}
	return nil
}

// renderBlock wraps children in a styled block: outer margins, inner
// padding, and the inherited style set. Used by root and container.
func (r *renderer) renderBlock(n *schema.Node, ctx renderContext, st *style.Computed) error {
	if st.Margin.Top > 0 {
		r.pdf.Ln(st.Margin.Top)
	}
	lm, _, rm, _ := r.pdf.GetMargins()

	indentL := st.Margin.Left + st.Padding.Left
	indentR := st.Margin.Right + st.Padding.Right
	if indentL > 0 {
		r.pdf.SetLeftMargin(lm + indentL)
		r.pdf.SetX(lm + indentL)
	}
	if indentR > 0 {
		r.pdf.SetRightMargin(rm + indentR)
	}
	if st.Padding.Top > 0 {
		r.pdf.Ln(st.Padding.Top)
	}

	child := ctx
	child.parent = st
	err := r.renderChildren(n, child)

	if st.Padding.Bottom > 0 {
		r.pdf.Ln(st.Padding.Bottom)
	}
	r.pdf.SetLeftMargin(lm)
	r.pdf.SetRightMargin(rm)
	if st.Margin.Bottom > 0 {
		r.pdf.Ln(st.Margin.Bottom)
	}
	return err
}

// renderConditional renders the node's children iff the condition
// holds, XORed with the inverse flag. A missing or invalid condition
// renders nothing regardless of inverse.
func (r *renderer) renderConditional(n *schema.Node, ctx renderContext, st *style.Computed) error {
	expr := schema.ExpressionFromValue(n.Prop("condition"), r.lang)
	res, ok, err := r.eval.EvaluateCondition(expr, ctx.data, ctx.loop)
	if err != nil {
		return fmt.Errorf("%w: condition on node %s: %v", ErrEvaluator, n.ID, err)
	}
	if !ok {
		r.log.Debug("conditional with no usable condition",
			zap.String("node", string(n.ID)))
		return nil
	}
	inverse, _ := n.Prop("inverse").Bool()
	if res == inverse {
		return nil
	}
	child := ctx
	child.parent = st
	return r.renderChildren(n, child)
}

// renderLoop evaluates the iterable and renders the body once per
// element under a fresh loop scope. Scopes stack: an inner loop's
// bindings are layered over the outer loop's, so nested bodies can
// reference both aliases.
func (r *renderer) renderLoop(n *schema.Node, ctx renderContext, st *style.Computed) error {
	expr := schema.ExpressionFromValue(n.Prop("expression"), r.lang)
	items, err := r.eval.EvaluateIterable(expr, ctx.data, ctx.loop)
	if err != nil {
		return fmt.Errorf("%w: iterable on node %s: %v", ErrEvaluator, n.ID, err)
	}
	alias, _ := n.Prop("alias").Str()
	indexAlias, _ := n.Prop("indexAlias").Str()
	for i, item := range items {
		child := ctx
		child.parent = st
		child.loop = eval.LoopScope(ctx.loop, alias, item, i, len(items), indexAlias)
		if err := r.renderChildren(n, child); err != nil {
			return err
		}
	}
	return nil
}

// renderPageBreak forces a hard page boundary. Inside a header/footer
// band it is inert: bands overlay existing pages and never create new
// ones.
func (r *renderer) renderPageBreak(n *schema.Node, ctx renderContext, st *style.Computed) error {
	if ctx.band {
		return nil
	}
	r.pdf.AddPage()
	return nil
}

func (r *renderer) renderNothing(n *schema.Node, ctx renderContext, st *style.Computed) error {
	return nil
}

// withoutPageBreak runs f with automatic page breaking suspended, for
// geometry that manages its own vertical space (table rows, columns).
func (r *renderer) withoutPageBreak(f func() error) error {
	r.pdf.SetAutoPageBreak(false, r.pageBottom)
	err := f()
	r.pdf.SetAutoPageBreak(true, r.pageBottom)
	return err
}

// firstOfType returns the node of type t with the smallest id, or nil.
// Deterministic so repeated renders of the same document pick the same
// header/footer subtree.
func firstOfType(doc *schema.Document, t schema.NodeType) *schema.Node {
	nodes := doc.FindByType(t)
	if len(nodes) == 0 {
		return nil
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes[0]
}
