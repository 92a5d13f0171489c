// Command cvaudit extracts text from PDF resumes and reports how the
// extraction went, bypassing the MCP server entirely.
//
//	cvaudit [-xlsx report.xlsx] [-workers n] [-text] resume.pdf...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/amineabbassi/MatchMyCV/audit"
	"github.com/amineabbassi/MatchMyCV/config"
	"github.com/amineabbassi/MatchMyCV/extract"
)

func main() {
	cfg := config.Load()

	xlsxPath := flag.String("xlsx", "", "also write the report to this .xlsx file")
	workers := flag.Int("workers", cfg.AuditWorkers, "documents extracted concurrently")
	showText := flag.Bool("text", false, "print the extracted text of every document")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: cvaudit [flags] file.pdf...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ex := extract.New(extract.ConfigFrom(cfg), logger)
	report, err := audit.New(ex, *workers, logger).Run(ctx, flag.Args())
	if err != nil {
		logger.Error("audit interrupted", "error", err)
		os.Exit(1)
	}

	fmt.Println(report.Markdown())
	if *showText {
		for _, row := range report.Rows {
			if row.Err != nil {
				continue
			}
			fmt.Printf("\n## %s\n\n%s\n", row.Path, row.Text)
		}
	}

	if *xlsxPath != "" {
		if err := report.WriteXLSX(*xlsxPath); err != nil {
			logger.Error("write xlsx", "path", *xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("wrote xlsx report", "path", *xlsxPath)
	}

	if report.Failed() > 0 {
		os.Exit(1)
	}
}
