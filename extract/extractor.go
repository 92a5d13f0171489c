package extract

// extractor.go — strategy sequencing and document intake.
//
// Strategies run in order and every per-path failure is recorded as a
// warning and treated as a signal to try the next one:
//
//	primary text layer → (empty or spaced letters) glyph reconstruction
//	+ first-page links → (still empty) low-tolerance content scan
//
// Only exhausting every strategy surfaces an error.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/amineabbassi/MatchMyCV/config"
)

// Strategy names the path that produced a Result.
type Strategy string

const (
	StrategyPrimary      Strategy = "primary"
	StrategyGeometry     Strategy = "geometry"
	StrategyLowTolerance Strategy = "low-tolerance"
)

// Strategy seams; tests replace them to force a particular path.
var (
	readPlainText  = primaryText
	readGlyphPages = readGlyphs
	readLinks      = harvestLinks
	readRawText    = lowToleranceText
)

// Config carries every tunable of one extraction. It is passed explicitly;
// nothing is read from process-wide state.
type Config struct {
	Classifier Classifier
	Tuning     Tuning
	Fallback   Tolerance
	Normalizer *Normalizer

	MaxFileSizeBytes int64
	HTTPTimeout      time.Duration
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Classifier:       DefaultClassifier(),
		Tuning:           DefaultTuning(),
		Fallback:         DefaultTolerance(),
		Normalizer:       NewNormalizer(),
		MaxFileSizeBytes: config.DefaultMaxFileBytes,
		HTTPTimeout:      config.DefaultHTTPTimeout,
	}
}

// ConfigFrom applies environment configuration on top of the defaults.
func ConfigFrom(c *config.Config) Config {
	cfg := DefaultConfig()
	cfg.MaxFileSizeBytes = c.MaxFileSizeBytes
	cfg.HTTPTimeout = c.HTTPTimeout
	cfg.Tuning.LineTolerance = c.Override(config.EnvLineTolerance, cfg.Tuning.LineTolerance)
	cfg.Tuning.SmallGap = c.Override(config.EnvSmallGap, cfg.Tuning.SmallGap)
	cfg.Tuning.LargeGap = c.Override(config.EnvLargeGap, cfg.Tuning.LargeGap)
	cfg.Tuning.DefaultThreshold = c.Override(config.EnvDefaultThreshold, cfg.Tuning.DefaultThreshold)
	cfg.Classifier.MatchFraction = c.Override(config.EnvMatchFraction, cfg.Classifier.MatchFraction)
	return cfg
}

// Result is the outcome of one extraction. Text is the only field meant for
// downstream consumers; the rest is diagnostic.
type Result struct {
	Text      string
	Strategy  Strategy
	Pages     int
	Corrupted bool     // the primary text layer looked like spaced letters
	Links     []string // harvested URIs appended to Text
	Warnings  []string // swallowed per-path failures
}

// Extractor turns PDF bytes into normalized text. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
	client *http.Client
}

// New returns an Extractor. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Normalizer == nil {
		cfg.Normalizer = NewNormalizer()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = config.DefaultMaxFileBytes
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = config.DefaultHTTPTimeout
	}
	return &Extractor{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// ExtractText is Extract reduced to the normalized text.
func (e *Extractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	res, err := e.Extract(ctx, data)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Extract runs every strategy needed to obtain text from data. The returned
// error, if any, is an *ExtractionError wrapping ErrOpenFailure or
// ErrEmptyExtraction.
func (e *Extractor) Extract(ctx context.Context, data []byte) (Result, error) {
	var (
		res        Result
		unreadable int
		attempts   int
	)
	warn := func(path string, err error) {
		attempts++
		if errors.Is(err, errUnreadable) {
			unreadable++
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", path, err))
	}

	// Primary text layer.
	var primary string
	if err := safely(func() error {
		var err error
		primary, res.Pages, err = readPlainText(data)
		return err
	}); err != nil {
		warn(string(StrategyPrimary), err)
		primary = ""
	} else {
		attempts++
	}
	primary = strings.TrimSpace(primary)
	if primary != "" {
		res.Corrupted = LooksSpacedLetters(primary, e.cfg.Classifier)
		e.logger.DebugContext(ctx, "primary extraction",
			"chars", len(primary), "corrupted", res.Corrupted)
		if !res.Corrupted {
			return e.finish(ctx, res, StrategyPrimary, primary)
		}
	}

	// Glyph reconstruction, plus links that exist only as annotations.
	var glyphs []Glyph
	if err := safely(func() error {
		var (
			pages int
			err   error
		)
		glyphs, pages, err = readGlyphPages(data)
		if pages > res.Pages {
			res.Pages = pages
		}
		return err
	}); err != nil {
		warn(string(StrategyGeometry), err)
	} else {
		attempts++
	}
	if text := strings.TrimSpace(Reconstruct(glyphs, e.cfg.Tuning)); text != "" {
		e.logger.DebugContext(ctx, "glyph reconstruction", "glyphs", len(glyphs))
		var uris []string
		if err := safely(func() error {
			var err error
			uris, err = readLinks(data)
			return err
		}); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("links: %v", err))
			uris = nil
		}
		text, res.Links = appendLinks(text, uris)
		return e.finish(ctx, res, StrategyGeometry, text)
	}

	// Last resort: raw content streams with tight tolerances.
	var raw string
	if err := safely(func() error {
		var (
			pages int
			err   error
		)
		raw, pages, err = readRawText(data, e.cfg.Fallback)
		if pages > res.Pages {
			res.Pages = pages
		}
		return err
	}); err != nil {
		warn(string(StrategyLowTolerance), err)
		raw = ""
	} else {
		attempts++
	}
	if strings.TrimSpace(raw) != "" {
		return e.finish(ctx, res, StrategyLowTolerance, raw)
	}

	// A spaced-letter text layer still beats no text at all.
	if primary != "" {
		res.Warnings = append(res.Warnings, "returning spaced-letter text layer")
		return e.finish(ctx, res, StrategyPrimary, primary)
	}

	kind := ErrEmptyExtraction
	if attempts > 0 && unreadable == attempts {
		kind = ErrOpenFailure
	}
	e.logger.DebugContext(ctx, "extraction exhausted", "kind", kind, "warnings", len(res.Warnings))
	return res, &ExtractionError{Kind: kind, Warnings: res.Warnings}
}

func (e *Extractor) finish(ctx context.Context, res Result, s Strategy, text string) (Result, error) {
	res.Strategy = s
	res.Text = e.cfg.Normalizer.Normalize(text)
	if res.Text == "" {
		return res, &ExtractionError{Kind: ErrEmptyExtraction, Warnings: res.Warnings}
	}
	e.logger.DebugContext(ctx, "extraction complete",
		"strategy", s, "pages", res.Pages, "chars", len(res.Text), "links", len(res.Links))
	return res, nil
}

// ---- intake ----------------------------------------------------------------

// ExtractFile reads a local PDF and extracts its text.
func (e *Extractor) ExtractFile(ctx context.Context, filePath string) (Result, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("file not found: %s", filePath)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("not a file: %s", filePath)
	}
	if info.Size() > e.cfg.MaxFileSizeBytes {
		return Result{}, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), e.cfg.MaxFileSizeBytes)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("read file: %w", err)
	}
	return e.Extract(ctx, data)
}

// ExtractURI extracts text from a file://, http:// or https:// URI. A URI
// without a scheme is treated as a local path.
func (e *Extractor) ExtractURI(ctx context.Context, uri string) (Result, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Result{}, fmt.Errorf("invalid URI: %s", uri)
	}

	switch u.Scheme {
	case "":
		if u.Path == "" {
			return Result{}, fmt.Errorf("invalid URI: %s", uri)
		}
		return e.ExtractFile(ctx, u.Path)
	case "file":
		return e.ExtractFile(ctx, u.Path)
	case "http", "https":
		data, err := e.fetch(ctx, uri)
		if err != nil {
			return Result{}, err
		}
		return e.Extract(ctx, data)
	default:
		return Result{}, fmt.Errorf("unsupported URI scheme: %q (expected file, http, or https)", u.Scheme)
	}
}

func (e *Extractor) fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, uri)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxFileSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(data)) > e.cfg.MaxFileSizeBytes {
		return nil, fmt.Errorf("response too large: more than %d bytes", e.cfg.MaxFileSizeBytes)
	}
	return data, nil
}
