// Package schema defines the template document model consumed by the
// renderer: a normalized graph of typed nodes and named slots, plus the
// theme (document styles, named block presets, page settings) supplied
// alongside it.
//
// Documents are produced by an editor and arrive as JSON:
//
//	{
//	  "root": "n1",
//	  "nodes": {
//	    "n1": {"id": "n1", "type": "root", "slots": ["s1"]},
//	    "n2": {"id": "n2", "type": "text",
//	           "props": {"content": "Hello {{ name }}"}}
//	  },
//	  "slots": {
//	    "s1": {"id": "s1", "nodeId": "n1", "name": "content",
//	           "children": ["n2"]}
//	  }
//	}
//
// The graph is read-only at render time. Structural problems (dangling
// references, back-reference mismatches) are reported by Validate;
// the renderer itself degrades per node instead of failing whole
// documents.
package schema

import (
	"encoding/json"
	"fmt"

	"go.uber.org/multierr"
)

// NodeID identifies a node within a document.
type NodeID string

// SlotID identifies a slot within a document.
type SlotID string

// NodeType selects the renderer for a node. Unknown types render to
// nothing.
type NodeType string

const (
	NodeRoot            NodeType = "root"
	NodeText            NodeType = "text"
	NodeContainer       NodeType = "container"
	NodeColumns         NodeType = "columns"
	NodeTable           NodeType = "table"
	NodeConditional     NodeType = "conditional"
	NodeLoop            NodeType = "loop"
	NodeDatatable       NodeType = "datatable"
	NodeDatatableColumn NodeType = "datatable-column"
	NodeImage           NodeType = "image"
	NodeBarcode         NodeType = "barcode"
	NodePageBreak       NodeType = "pagebreak"
	NodePageHeader      NodeType = "pageheader"
	NodePageFooter      NodeType = "pagefooter"
)

// Document is the normalized node/slot graph for one template document.
// The renderer only reads it; ownership stays with the caller.
type Document struct {
	Root  NodeID           `json:"root"`
	Nodes map[NodeID]*Node `json:"nodes"`
	Slots map[SlotID]*Slot `json:"slots"`

	// Document-level overrides of the theme. Either may be absent.
	DocumentStyles Styles        `json:"documentStylesOverride,omitempty"`
	PageSettings   *PageSettings `json:"pageSettingsOverride,omitempty"`
}

// Node is a typed element of the template tree.
type Node struct {
	ID          NodeID           `json:"id"`
	Type        NodeType         `json:"type"`
	Props       map[string]Value `json:"props,omitempty"`
	Styles      Styles           `json:"styles,omitempty"`
	StylePreset string           `json:"stylePreset,omitempty"`
	Slots       []SlotID         `json:"slots,omitempty"`
}

// Prop returns the named prop, or Absent when missing.
func (n *Node) Prop(key string) Value {
	if n == nil {
		return Value{}
	}
	return n.Props[key]
}

// Slot is a named, ordered child list owned by a node. Child order is
// render order.
type Slot struct {
	ID       SlotID   `json:"id"`
	NodeID   NodeID   `json:"nodeId"`
	Name     string   `json:"name"`
	Children []NodeID `json:"children"`
}

// Styles is a flat style property map. Unknown keys are ignored by the
// renderers that consume them.
type Styles map[string]Value

// Get returns the named style value, or Absent. Safe on a nil map.
func (s Styles) Get(key string) Value {
	return s[key]
}

// Node returns the node with the given id, or nil.
func (d *Document) Node(id NodeID) *Node {
	if d == nil {
		return nil
	}
	return d.Nodes[id]
}

// Slot returns the slot with the given id, or nil.
func (d *Document) Slot(id SlotID) *Slot {
	if d == nil {
		return nil
	}
	return d.Slots[id]
}

// SlotNamed returns the slot with the given name among n's slots, or
// nil when n declares no such slot.
func (d *Document) SlotNamed(n *Node, name string) *Slot {
	if d == nil || n == nil {
		return nil
	}
	for _, id := range n.Slots {
		if s := d.Slots[id]; s != nil && s.Name == name {
			return s
		}
	}
	return nil
}

// FindByType returns all nodes of the given type in unspecified order.
func (d *Document) FindByType(t NodeType) []*Node {
	if d == nil {
		return nil
	}
	var out []*Node
	for _, n := range d.Nodes {
		if n != nil && n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks the structural invariants of the graph: the root node
// exists, every slot referenced by a node exists and points back at its
// owner, and every slot child resolves to a node. All problems are
// collected into one error.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("schema: nil document")
	}
	var errs error
	if d.Root == "" {
		errs = multierr.Append(errs, fmt.Errorf("schema: document has no root"))
	} else if d.Nodes[d.Root] == nil {
		errs = multierr.Append(errs, fmt.Errorf("schema: root node %q not found", d.Root))
	}
	for id, n := range d.Nodes {
		if n == nil {
			errs = multierr.Append(errs, fmt.Errorf("schema: node %q is nil", id))
			continue
		}
		if n.ID != id {
			errs = multierr.Append(errs, fmt.Errorf("schema: node %q keyed as %q", n.ID, id))
		}
		for _, sid := range n.Slots {
			s := d.Slots[sid]
			if s == nil {
				errs = multierr.Append(errs, fmt.Errorf("schema: node %q references missing slot %q", id, sid))
				continue
			}
			if s.NodeID != id {
				errs = multierr.Append(errs, fmt.Errorf("schema: slot %q owned by %q but referenced by %q", sid, s.NodeID, id))
			}
		}
	}
	for id, s := range d.Slots {
		if s == nil {
			errs = multierr.Append(errs, fmt.Errorf("schema: slot %q is nil", id))
			continue
		}
		if s.ID != id {
			errs = multierr.Append(errs, fmt.Errorf("schema: slot %q keyed as %q", s.ID, id))
		}
		if d.Nodes[s.NodeID] == nil {
			errs = multierr.Append(errs, fmt.Errorf("schema: slot %q owned by missing node %q", id, s.NodeID))
		}
		for _, cid := range s.Children {
			if d.Nodes[cid] == nil {
				errs = multierr.Append(errs, fmt.Errorf("schema: slot %q lists missing child %q", id, cid))
			}
		}
	}
	return errs
}

// ParseDocument decodes a JSON template document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parsing document: %w", err)
	}
	return &doc, nil
}

// ParseData decodes the flat runtime data map used for expression
// evaluation.
func ParseData(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("schema: parsing data: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}
