// Command docpdf-mcp is an MCP (Model Context Protocol) server that
// exposes the template renderer to AI assistants.
//
// # Installation
//
//	go install github.com/lvillar/docpdf/cmd/docpdf-mcp@latest
//
// # Configuration for Claude Desktop
//
// Add to ~/.config/claude/claude_desktop_config.json:
//
//	{
//	  "mcpServers": {
//	    "docpdf": {
//	      "command": "docpdf-mcp"
//	    }
//	  }
//	}
//
// # Available Tools
//
//   - render_template: Render a template document to PDF
//   - validate_template: Validate a template document without rendering
//   - pdf_info: Get detailed PDF information
//   - extract_text: Extract text from PDFs
//
// # Available Resources
//
//   - docpdf://theme/default : A starter theme
//   - docpdf://sample/letter : A sample template document
//   - pdf://text?path=... : Extract text content
//   - pdf://metadata?path=... : Get document metadata
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/lvillar/docpdf/mcp"
)

func main() {
	server := mcp.NewServer()
	if os.Getenv("DOCPDF_MCP_DEBUG") != "" {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		if log, err := cfg.Build(); err == nil {
			server.SetLogger(log)
			defer log.Sync()
		}
	}

	mcp.RegisterDefaultTools(server)
	mcp.RegisterDefaultResources(server)

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "docpdf-mcp: %v\n", err)
		os.Exit(1)
	}
}
