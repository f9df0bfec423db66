package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lvillar/docpdf/reader"
)

// RegisterDefaultResources adds the built-in resources to the server:
// starter template material under the docpdf:// scheme and PDF
// inspection under the pdf:// scheme.
func RegisterDefaultResources(s *Server) {
	s.AddResource(Resource{
		URI:         "docpdf://theme/default",
		Name:        "Default Theme",
		Description: "A starter theme with document styles, block style presets, and A4 page settings. Use as the 'theme' argument of render_template.",
		MIMEType:    "application/json",
		Handler:     handleThemeResource,
	})

	s.AddResource(Resource{
		URI:         "docpdf://sample/letter",
		Name:        "Sample Document",
		Description: "A small template document showing text nodes, interpolation, a conditional, and a page footer. Use as the 'document' argument of render_template.",
		MIMEType:    "application/json",
		Handler:     handleSampleResource,
	})

	s.AddResource(Resource{
		URI:         "pdf://text",
		Name:        "PDF Text Content",
		Description: "Extract all text content from a PDF file. Pass the file path as a query parameter: pdf://text?path=/path/to/file.pdf",
		MIMEType:    "text/plain",
		Handler:     handleTextResource,
	})

	s.AddResource(Resource{
		URI:         "pdf://metadata",
		Name:        "PDF Metadata",
		Description: "Get metadata from a PDF file (title, author, subject, etc.). Pass the file path as a query parameter: pdf://metadata?path=/path/to/file.pdf",
		MIMEType:    "application/json",
		Handler:     handleMetadataResource,
	})
}

// defaultTheme is the starter theme served to clients. Kept as raw JSON
// so the resource shows exactly what a theme file looks like.
const defaultTheme = `{
  "documentStyles": {
    "fontFamily": "helvetica",
    "fontSize": 11,
    "lineHeight": 1.4,
    "color": "#1a1a1a"
  },
  "blockStylePresets": {
    "title": {"fontSize": 22, "fontWeight": 700, "marginBottom": "12pt"},
    "subtle": {"color": "#666666", "fontSize": 9},
    "callout": {"backgroundColor": "#f0f4ff", "padding": "8pt"}
  },
  "pageSettings": {
    "format": "a4",
    "orientation": "portrait",
    "margins": {"top": 40, "right": 40, "bottom": 40, "left": 40}
  }
}`

// sampleDocument demonstrates the node/slot graph shape.
const sampleDocument = `{
  "root": "root",
  "nodes": {
    "root": {"id": "root", "type": "root", "slots": ["s-root"]},
    "title": {"id": "title", "type": "text", "stylePreset": "title",
      "props": {"content": "Hello {{ recipient.name }}"}},
    "body": {"id": "body", "type": "text",
      "props": {"content": "Thank you for your order of {{ order.item }}."}},
    "ps": {"id": "ps", "type": "conditional", "slots": ["s-ps"],
      "props": {"condition": "order.express"}},
    "ps-text": {"id": "ps-text", "type": "text", "stylePreset": "subtle",
      "props": {"content": "Your order ships with express delivery."}},
    "footer": {"id": "footer", "type": "pagefooter", "slots": ["s-footer"]},
    "pageno": {"id": "pageno", "type": "text", "stylePreset": "subtle",
      "props": {"content": "Page {{ page }} of {{ pages }}"}}
  },
  "slots": {
    "s-root": {"id": "s-root", "nodeId": "root", "name": "default",
      "children": ["title", "body", "ps", "footer"]},
    "s-ps": {"id": "s-ps", "nodeId": "ps", "name": "default", "children": ["ps-text"]},
    "s-footer": {"id": "s-footer", "nodeId": "footer", "name": "default", "children": ["pageno"]}
  }
}`

func handleThemeResource(uri string) ([]ResourceContent, error) {
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     defaultTheme,
	}}, nil
}

func handleSampleResource(uri string) ([]ResourceContent, error) {
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     sampleDocument,
	}}, nil
}

func extractPathFromURI(uri string) string {
	// Parse path from URI like pdf://text?path=/foo/bar.pdf
	if idx := strings.Index(uri, "path="); idx >= 0 {
		return uri[idx+5:]
	}
	return ""
}

func handleTextResource(uri string) ([]ResourceContent, error) {
	path := extractPathFromURI(uri)
	if path == "" {
		return nil, fmt.Errorf("missing 'path' parameter in URI")
	}

	doc, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	var result strings.Builder
	for pageNum, page := range doc.Pages() {
		text, err := page.ExtractText()
		if err != nil {
			fmt.Fprintf(&result, "--- Page %d (error: %v) ---\n", pageNum, err)
			continue
		}
		fmt.Fprintf(&result, "--- Page %d ---\n%s\n\n", pageNum, text)
	}

	return []ResourceContent{{
		URI:      uri,
		MIMEType: "text/plain",
		Text:     result.String(),
	}}, nil
}

func handleMetadataResource(uri string) ([]ResourceContent, error) {
	path := extractPathFromURI(uri)
	if path == "" {
		return nil, fmt.Errorf("missing 'path' parameter in URI")
	}

	doc, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	info := map[string]interface{}{
		"version":  doc.Version,
		"numPages": doc.NumPages(),
		"metadata": doc.Metadata(),
	}

	jsonBytes, _ := json.MarshalIndent(info, "", "  ")
	return []ResourceContent{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(jsonBytes),
	}}, nil
}
