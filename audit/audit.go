package audit

// audit.go — batch quality audit of extracted resume text.
//
// Each document is extracted independently and scored with cheap text
// metrics, so a reviewer can spot files where the fallback strategies kicked
// in or where the output still looks damaged.

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/amineabbassi/MatchMyCV/extract"
)

// FileExtractor is the part of *extract.Extractor the auditor needs.
type FileExtractor interface {
	ExtractFile(ctx context.Context, path string) (extract.Result, error)
}

// Row is the audit of one document. Err is set when extraction failed; the
// metrics are then zero.
type Row struct {
	Path           string
	Strategy       extract.Strategy
	Pages          int
	Corrupted      bool
	Chars          int
	Lines          int
	SpacedRatio    float64
	PrintableRatio float64
	WordlikeRatio  float64
	Links          []string
	Warnings       []string
	Duration       time.Duration
	Text           string
	Err            error
}

// Report is the outcome of one audit run. Rows follow the input order.
type Report struct {
	ID      uuid.UUID
	Started time.Time
	Rows    []Row
}

// Failed returns the number of documents that produced no text.
func (r *Report) Failed() int {
	n := 0
	for _, row := range r.Rows {
		if row.Err != nil {
			n++
		}
	}
	return n
}

// Auditor runs extractions with bounded concurrency.
type Auditor struct {
	ex      FileExtractor
	workers int
	logger  *slog.Logger
}

// New returns an Auditor running at most workers extractions at once.
func New(ex FileExtractor, workers int, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 1
	}
	return &Auditor{ex: ex, workers: workers, logger: logger}
}

// Run audits every path. A document that fails to extract becomes a row with
// Err set; only cancellation of ctx fails the run.
func (a *Auditor) Run(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{
		ID:      uuid.New(),
		Started: time.Now(),
		Rows:    make([]Row, len(paths)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Rows[i] = a.auditOne(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	a.logger.InfoContext(ctx, "audit complete",
		"run_id", report.ID, "documents", len(paths), "failed", report.Failed(),
		"duration_ms", time.Since(report.Started).Milliseconds())
	return report, nil
}

func (a *Auditor) auditOne(ctx context.Context, path string) Row {
	start := time.Now()
	res, err := a.ex.ExtractFile(ctx, path)
	row := Row{
		Path:      path,
		Strategy:  res.Strategy,
		Pages:     res.Pages,
		Corrupted: res.Corrupted,
		Links:     res.Links,
		Warnings:  res.Warnings,
		Duration:  time.Since(start),
		Err:       err,
	}
	if err != nil {
		a.logger.WarnContext(ctx, "audit extraction failed", "path", path, "error", err)
		return row
	}
	row.Text = res.Text
	row.Chars = len([]rune(res.Text))
	row.Lines = nonBlankLines(res.Text)
	row.SpacedRatio = extract.SpacedLineRatio(res.Text, 0)
	row.PrintableRatio = printableRatio(res.Text)
	row.WordlikeRatio = wordlikeRatio(res.Text)
	return row
}

func nonBlankLines(text string) int {
	n := 0
	for _, ln := range strings.Split(text, "\n") {
		if strings.TrimSpace(ln) != "" {
			n++
		}
	}
	return n
}
