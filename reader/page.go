package reader

import "fmt"

// Rectangle is a PDF rectangle array [llx lly urx ury].
type Rectangle struct {
	LLX, LLY, URX, URY float64
}

func (r Rectangle) Width() float64  { return r.URX - r.LLX }
func (r Rectangle) Height() float64 { return r.URY - r.LLY }

// Page is one leaf of the page tree.
type Page struct {
	Number   int
	MediaBox Rectangle
	contents []Stream
}

// ContentStream returns the page's decoded drawing operators.
// Multiple content streams concatenate into one logical stream.
func (p *Page) ContentStream() ([]byte, error) {
	var out []byte
	for _, s := range p.contents {
		body, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("reader: content of page %d: %w", p.Number, err)
		}
		out = append(out, body...)
		out = append(out, '\n')
	}
	return out, nil
}

// buildPageList flattens the page tree into d.pages in reading order.
func (d *Document) buildPageList() error {
	catalog, err := d.Catalog()
	if err != nil {
		return err
	}
	root, err := d.resolveIfRef(catalog["Pages"])
	if err != nil {
		return fmt.Errorf("reader: page tree root: %w", err)
	}
	rootDict, ok := root.(Dict)
	if !ok {
		return fmt.Errorf("reader: /Pages is a %T, not a dictionary", root)
	}
	d.pages = nil
	return d.walkPages(rootDict, Rectangle{})
}

// walkPages descends the page tree. MediaBox inherits downward: the
// engine sets it once on the tree root and overrides per page only
// for odd sizes.
func (d *Document) walkPages(node Dict, box Rectangle) error {
	if mb, ok := node["MediaBox"]; ok {
		if resolved, err := d.resolveIfRef(mb); err == nil {
			if r, ok := rectangle(resolved); ok {
				box = r
			}
		}
	}

	if node.GetName("Type") == "Page" {
		page := &Page{Number: len(d.pages) + 1, MediaBox: box}
		if err := d.collectContents(node, page); err != nil {
			return err
		}
		d.pages = append(d.pages, page)
		return nil
	}

	kidsObj, err := d.resolveIfRef(node["Kids"])
	if err != nil {
		return fmt.Errorf("reader: page tree kids: %w", err)
	}
	kids, _ := kidsObj.(Array)
	for _, kid := range kids {
		resolved, err := d.resolveIfRef(kid)
		if err != nil {
			return fmt.Errorf("reader: page tree node: %w", err)
		}
		if kidDict, ok := resolved.(Dict); ok {
			if err := d.walkPages(kidDict, box); err != nil {
				return err
			}
		}
	}
	return nil
}

// collectContents resolves /Contents into the page's stream list.
func (d *Document) collectContents(node Dict, page *Page) error {
	contents, ok := node["Contents"]
	if !ok {
		return nil
	}
	resolved, err := d.resolveIfRef(contents)
	if err != nil {
		return fmt.Errorf("reader: contents of page %d: %w", page.Number, err)
	}
	switch c := resolved.(type) {
	case Stream:
		page.contents = []Stream{c}
	case Array:
		for _, el := range c {
			if obj, err := d.resolveIfRef(el); err == nil {
				if s, ok := obj.(Stream); ok {
					page.contents = append(page.contents, s)
				}
			}
		}
	}
	return nil
}

// rectangle converts a 4-number array.
func rectangle(obj Object) (Rectangle, bool) {
	arr, ok := obj.(Array)
	if !ok || len(arr) != 4 {
		return Rectangle{}, false
	}
	var v [4]float64
	for i, el := range arr {
		switch n := el.(type) {
		case Integer:
			v[i] = float64(n)
		case Real:
			v[i] = float64(n)
		default:
			return Rectangle{}, false
		}
	}
	return Rectangle{LLX: v[0], LLY: v[1], URX: v[2], URY: v[3]}, true
}
