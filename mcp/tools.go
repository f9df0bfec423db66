package mcp

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/lvillar/docpdf"
	"github.com/lvillar/docpdf/pdfa"
	"github.com/lvillar/docpdf/reader"
	"github.com/lvillar/docpdf/schema"
	"go.uber.org/multierr"
)

// RegisterDefaultTools adds the built-in rendering tools to the server.
func RegisterDefaultTools(s *Server) {
	s.AddTool(renderTemplateTool())
	s.AddTool(validateTemplateTool())
	s.AddTool(pdfInfoTool())
	s.AddTool(extractTextTool())
}

func renderTemplateTool() Tool {
	return Tool{
		Name:        "render_template",
		Description: "Render a template document to PDF. Takes the document graph, an optional theme, and an optional data payload. Returns the PDF as base64 or writes it to a file.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"document": map[string]interface{}{
					"type":        "object",
					"description": "Template document: root id plus node and slot maps",
				},
				"theme": map[string]interface{}{
					"type":        "object",
					"description": "Optional theme with document styles, block style presets, and page settings",
				},
				"data": map[string]interface{}{
					"type":        "object",
					"description": "Optional data payload the document's expressions evaluate against",
				},
				"outputPath": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to save the PDF. If omitted, returns base64.",
				},
			},
			"required": []string{"document"},
		},
		Handler: handleRenderTemplate,
	}
}

func handleRenderTemplate(args map[string]interface{}) (ToolResult, error) {
	docArg, ok := args["document"]
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'document' argument")
	}
	docJSON, err := json.Marshal(docArg)
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding document: %w", err)
	}

	var themeJSON, dataJSON []byte
	if t, ok := args["theme"]; ok {
		if themeJSON, err = json.Marshal(t); err != nil {
			return ToolResult{}, fmt.Errorf("encoding theme: %w", err)
		}
	}
	if d, ok := args["data"]; ok {
		if dataJSON, err = json.Marshal(d); err != nil {
			return ToolResult{}, fmt.Errorf("encoding data: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := docpdf.RenderJSON(&buf, docJSON, themeJSON, dataJSON); err != nil {
		return ToolResult{}, fmt.Errorf("rendering: %w", err)
	}

	if outputPath, ok := args["outputPath"].(string); ok && outputPath != "" {
		if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
			return ToolResult{}, fmt.Errorf("writing file: %w", err)
		}
		return ToolResult{
			Content: []ContentBlock{{
				Type: "text",
				Text: fmt.Sprintf("PDF rendered: %s (%d bytes)", outputPath, buf.Len()),
			}},
		}, nil
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return ToolResult{
		Content: []ContentBlock{{
			Type: "text",
			Text: fmt.Sprintf("PDF rendered (%d bytes). Base64 data:\n%s", buf.Len(), encoded),
		}},
	}, nil
}

func validateTemplateTool() Tool {
	return Tool{
		Name:        "validate_template",
		Description: "Validate a template document without rendering it: checks the root node, node and slot references, node types, and page settings. Returns every problem found.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"document": map[string]interface{}{
					"type":        "object",
					"description": "Template document: root id plus node and slot maps",
				},
			},
			"required": []string{"document"},
		},
		Handler: handleValidateTemplate,
	}
}

func handleValidateTemplate(args map[string]interface{}) (ToolResult, error) {
	docArg, ok := args["document"]
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'document' argument")
	}
	docJSON, err := json.Marshal(docArg)
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding document: %w", err)
	}

	doc, err := schema.ParseDocument(docJSON)
	if err != nil {
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: fmt.Sprintf("Document does not parse: %v", err)}},
			IsError: true,
		}, nil
	}

	if err := doc.Validate(); err != nil {
		var sb strings.Builder
		sb.WriteString("Document is invalid:\n")
		for _, e := range multierr.Errors(err) {
			fmt.Fprintf(&sb, "- %v\n", e)
		}
		return ToolResult{
			Content: []ContentBlock{{Type: "text", Text: sb.String()}},
			IsError: true,
		}, nil
	}

	return ToolResult{
		Content: []ContentBlock{{
			Type: "text",
			Text: fmt.Sprintf("Document is valid: %d nodes, %d slots", len(doc.Nodes), len(doc.Slots)),
		}},
	}, nil
}

func pdfInfoTool() Tool {
	return Tool{
		Name:        "pdf_info",
		Description: "Get information about a PDF file: version, page count, page dimensions, metadata, and archival compliance markers.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
			},
			"required": []string{"path"},
		},
		Handler: handlePDFInfo,
	}
}

func handlePDFInfo(args map[string]interface{}) (ToolResult, error) {
	path, ok := args["path"].(string)
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("reading PDF: %w", err)
	}
	doc, err := reader.Parse(data)
	if err != nil {
		return ToolResult{}, fmt.Errorf("parsing PDF: %w", err)
	}

	info := map[string]interface{}{
		"version":  doc.Version,
		"numPages": doc.NumPages(),
		"metadata": doc.Metadata(),
	}

	pageInfos := make([]map[string]interface{}, 0)
	for pageNum, page := range doc.Pages() {
		mb := page.MediaBox
		pageInfos = append(pageInfos, map[string]interface{}{
			"page":   pageNum,
			"width":  mb.Width(),
			"height": mb.Height(),
		})
	}
	info["pages"] = pageInfos

	if report, err := pdfa.Verify(data); err == nil {
		info["archival"] = map[string]interface{}{
			"conformant":  report.Conformant(),
			"part":        report.Part,
			"conformance": report.Conformance,
			"problems":    report.Problems,
		}
	}

	jsonBytes, _ := json.MarshalIndent(info, "", "  ")
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(jsonBytes)}},
	}, nil
}

func extractTextTool() Tool {
	return Tool{
		Name:        "extract_text",
		Description: "Extract text content from a PDF file. Returns the text from all pages or specific pages.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the PDF file",
				},
				"pages": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Specific page numbers to extract (1-based). Omit for all pages.",
				},
			},
			"required": []string{"path"},
		},
		Handler: handleExtractText,
	}
}

func handleExtractText(args map[string]interface{}) (ToolResult, error) {
	path, ok := args["path"].(string)
	if !ok {
		return ToolResult{}, fmt.Errorf("missing 'path' argument")
	}

	doc, err := reader.Open(path)
	if err != nil {
		return ToolResult{}, fmt.Errorf("opening PDF: %w", err)
	}

	pageSet := make(map[int]bool)
	if pagesArg, ok := args["pages"].([]interface{}); ok {
		for _, p := range pagesArg {
			if num, ok := p.(float64); ok {
				pageSet[int(num)] = true
			}
		}
	}

	var result strings.Builder
	for pageNum, page := range doc.Pages() {
		if len(pageSet) > 0 && !pageSet[pageNum] {
			continue
		}

		text, err := page.ExtractText()
		if err != nil {
			fmt.Fprintf(&result, "--- Page %d (error: %v) ---\n", pageNum, err)
			continue
		}

		fmt.Fprintf(&result, "--- Page %d ---\n%s\n\n", pageNum, text)
	}

	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: result.String()}},
	}, nil
}
