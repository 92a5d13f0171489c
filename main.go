package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/amineabbassi/MatchMyCV/audit"
	"github.com/amineabbassi/MatchMyCV/config"
	"github.com/amineabbassi/MatchMyCV/extract"
)

// Server identity constants.
const (
	serverName    = "cvtext"
	serverVersion = "0.1.0"
)

// MCP tool parameter key constants — shared between schema definitions and
// argument extraction so a typo in one place is caught by the other.
const (
	argURI   = "uri"
	argPaths = "paths"
)

// TextExtractor is the extraction surface the tools depend on.
type TextExtractor interface {
	ExtractURI(ctx context.Context, uri string) (extract.Result, error)
}

// DocumentAuditor is the audit surface the tools depend on.
type DocumentAuditor interface {
	Run(ctx context.Context, paths []string) (*audit.Report, error)
}

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	ex := extract.New(extract.ConfigFrom(cfg), logger)
	aud := audit.New(ex, cfg.AuditWorkers, logger)

	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, ex, aud, cfg)

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v\n", err)
	}
}

// registerTools binds MCP tool definitions to their handlers.
// It accepts interfaces so tests can inject mocks.
func registerTools(s *server.MCPServer, ex TextExtractor, aud DocumentAuditor, cfg *config.Config) {
	// extract_text — extract normalized text from one PDF
	s.AddTool(
		mcp.NewTool("extract_text",
			mcp.WithDescription("Extract normalized text from a PDF resume. "+
				"Pass an absolute file path or an http:// / https:// / file:// URI. "+
				"Falls back to glyph-geometry reconstruction for design-tool exports."),
			mcp.WithString(argURI,
				mcp.Required(),
				mcp.Description("Absolute file path or URI of the PDF"),
			),
		),
		extractTextHandler(ex),
	)

	// audit_documents — quality audit over several local PDFs
	s.AddTool(
		mcp.NewTool("audit_documents",
			mcp.WithDescription("Audit text extraction quality for local PDF files. "+
				"Returns a Markdown table with the strategy used and quality metrics per file."),
			mcp.WithString(argPaths,
				mcp.Required(),
				mcp.Description("Absolute file paths separated by newlines or commas"),
			),
		),
		auditDocumentsHandler(aud),
	)

	// get_extraction_info — strategies and configuration
	s.AddTool(
		mcp.NewTool("get_extraction_info",
			mcp.WithDescription("Return the extraction strategies and active configuration."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(extractionInfo(cfg)), nil
		},
	)
}

func extractTextHandler(ex TextExtractor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		uri, ok := req.Params.Arguments[argURI].(string)
		if !ok || uri == "" {
			return mcp.NewToolResultError(argURI + " is required"), nil
		}
		res, err := ex.ExtractURI(ctx, uri)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Text), nil
	}
}

func auditDocumentsHandler(aud DocumentAuditor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, _ := req.Params.Arguments[argPaths].(string)
		paths := splitPaths(raw)
		if len(paths) == 0 {
			return mcp.NewToolResultError(argPaths + " is required"), nil
		}
		report, err := aud.Run(ctx, paths)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(report.Markdown()), nil
	}
}

func splitPaths(raw string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == ',' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func extractionInfo(cfg *config.Config) string {
	ec := extract.ConfigFrom(cfg)
	return fmt.Sprintf(`# PDF Text Extraction Info

## Strategies
1. primary — embedded text layer
2. geometry — glyph geometry reconstruction plus first-page link annotations (when the text layer is empty or spaced letters)
3. low-tolerance — raw content stream scan (when reconstruction yields nothing)

## Configuration
- Max file size: %d MB
- Audit workers: %d
- Line tolerance: %.2f
- Gap bands: <= %.2f small, >= %.2f large
- Default space threshold: %.2f
- Spaced-letter match fraction: %.2f`,
		cfg.MaxFileSizeMB(),
		cfg.AuditWorkers,
		ec.Tuning.LineTolerance,
		ec.Tuning.SmallGap, ec.Tuning.LargeGap,
		ec.Tuning.DefaultThreshold,
		ec.Classifier.MatchFraction,
	)
}
