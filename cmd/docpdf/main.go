// Command docpdf renders template documents to PDF from the command
// line and inspects the results.
//
//	docpdf render doc.json --data payload.json --theme theme.yaml -o out.pdf
//	docpdf validate doc.json
//	docpdf inspect out.pdf
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lvillar/docpdf"
	"github.com/lvillar/docpdf/pdfa"
	"github.com/lvillar/docpdf/reader"
	"github.com/lvillar/docpdf/schema"
)

func main() {
	app := &cli.Command{
		Name:            "docpdf",
		Usage:           "render template documents to PDF",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log render diagnostics to stderr"},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Render a template document to PDF",
				ArgsUsage: "DOCUMENT",
				Action:    runRender,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output `FILE` (default: document name with .pdf)"},
					&cli.StringFlag{Name: "theme", Usage: "theme `FILE` (JSON or YAML)"},
					&cli.StringFlag{Name: "data", Usage: "data payload `FILE` (JSON)"},
					&cli.BoolFlag{Name: "pdfa", Usage: "produce PDF/A-2b archival output"},
					&cli.StringFlag{Name: "profile", Usage: "ICC color profile `FILE` for archival output"},
					&cli.StringFlag{Name: "font-dir", Usage: "load TTF fonts from `DIR` (Family-Style.ttf naming)"},
					&cli.StringFlag{Name: "title", Usage: "document title"},
					&cli.StringFlag{Name: "author", Usage: "document author"},
				},
			},
			{
				Name:      "validate",
				Usage:     "Check a template document without rendering it",
				ArgsUsage: "DOCUMENT",
				Action:    runValidate,
			},
			{
				Name:      "inspect",
				Usage:     "Show PDF structure, metadata, and archival compliance markers",
				ArgsUsage: "FILE",
				Action:    runInspect,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "docpdf: %v\n", err)
		os.Exit(1)
	}
}

func logger(cmd *cli.Command) (*zap.Logger, error) {
	if !cmd.Root().Bool("verbose") {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	docPath := cmd.Args().Get(0)
	if docPath == "" {
		return fmt.Errorf("missing document argument")
	}

	docJSON, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	doc, err := schema.ParseDocument(docJSON)
	if err != nil {
		return err
	}

	var theme *schema.Theme
	if path := cmd.String("theme"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading theme: %w", err)
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			theme, err = schema.ParseThemeYAML(raw)
		} else {
			theme, err = schema.ParseTheme(raw)
		}
		if err != nil {
			return err
		}
	}

	var data map[string]any
	if path := cmd.String("data"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading data: %w", err)
		}
		if data, err = schema.ParseData(raw); err != nil {
			return err
		}
	}

	log, err := logger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := []docpdf.Option{
		docpdf.WithLogger(log),
		docpdf.WithMetadata(docpdf.Metadata{
			Title:  cmd.String("title"),
			Author: cmd.String("author"),
		}),
	}
	if dir := cmd.String("font-dir"); dir != "" {
		opts = append(opts, docpdf.WithFontDir(dir))
	}
	if cmd.Bool("pdfa") {
		opts = append(opts, docpdf.WithArchival())
		if path := cmd.String("profile"); path != "" {
			icc, err := pdfa.LoadProfile(path)
			if err != nil {
				return err
			}
			opts = append(opts, docpdf.WithColorProfile(icc))
		}
	}

	outPath := cmd.String("out")
	if outPath == "" {
		outPath = strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".pdf"
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer out.Close()

	if err := docpdf.Render(out, doc, theme, data, opts...); err != nil {
		return err
	}
	log.Info("document rendered", zap.String("output", outPath))
	return nil
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	docPath := cmd.Args().Get(0)
	if docPath == "" {
		return fmt.Errorf("missing document argument")
	}

	raw, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	doc, err := schema.ParseDocument(raw)
	if err != nil {
		return err
	}

	if err := doc.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Printf("invalid: %v\n", e)
		}
		return fmt.Errorf("%d problem(s) found", len(multierr.Errors(err)))
	}

	fmt.Printf("%s: valid (%d nodes, %d slots)\n", docPath, len(doc.Nodes), len(doc.Slots))
	return nil
}

func runInspect(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().Get(0)
	if path == "" {
		return fmt.Errorf("missing file argument")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	doc, err := reader.Parse(data)
	if err != nil {
		return err
	}

	fmt.Printf("version:  %s\n", doc.Version)
	fmt.Printf("pages:    %d\n", doc.NumPages())
	for key, value := range doc.Metadata() {
		fmt.Printf("%-9s %s\n", strings.ToLower(key)+":", value)
	}

	report, err := pdfa.Verify(data)
	if err != nil {
		return err
	}
	if report.Conformant() {
		fmt.Printf("archival: PDF/A-%s%s\n", report.Part, strings.ToLower(report.Conformance))
	} else {
		fmt.Println("archival: no")
		for _, p := range report.Problems {
			fmt.Printf("  - %s\n", p)
		}
	}
	return nil
}
