package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/amineabbassi/MatchMyCV/config"
)

const linkedIn = "https://www.linkedin.com/in/jane-doe"

func newTestExtractor() *Extractor {
	return New(DefaultConfig(), nil)
}

// spacedTextLayer is a text layer in which every line is a spaced-letter run.
func spacedTextLayer() string {
	return strings.Repeat(spacedName+"\n", 12)
}

func designToolPDF(t *testing.T, links ...string) []byte {
	t.Helper()
	return buildPDF(t, testPage{
		content: glyphLine(700, "Jane", "Doe") + glyphLine(680, "Software", "Engineer"),
		links:   links,
	})
}

func hasWarning(res Result, prefix string) bool {
	return slices.ContainsFunc(res.Warnings, func(w string) bool { return strings.HasPrefix(w, prefix) })
}

// ---- Extract: strategy selection ----

func TestExtract_PrimaryTextLayer(t *testing.T) {
	data := buildPDF(t, testPage{content: "BT /F1 12 Tf 72 700 Td (Hello resume world) Tj ET"})

	res, err := newTestExtractor().Extract(context.Background(), data)
	assertNoErr(t, err)
	assertEqual(t, res.Text, "Hello resume world")
	if res.Strategy != StrategyPrimary {
		t.Errorf("strategy: got %q, want primary", res.Strategy)
	}
	if res.Pages != 1 || res.Corrupted {
		t.Errorf("got pages=%d corrupted=%v", res.Pages, res.Corrupted)
	}
}

func TestExtract_SpacedLettersFallBackToGeometry(t *testing.T) {
	restoreStrategies(t)
	readPlainText = func([]byte) (string, int, error) { return spacedTextLayer(), 1, nil }

	res, err := newTestExtractor().Extract(context.Background(), designToolPDF(t))
	assertNoErr(t, err)
	if res.Strategy != StrategyGeometry || !res.Corrupted {
		t.Errorf("got strategy=%q corrupted=%v, want geometry and corrupted", res.Strategy, res.Corrupted)
	}
	assertEqual(t, res.Text, "Jane Doe\nSoftware Engineer")
}

func TestExtract_DesignToolExportRecoversLinkedIn(t *testing.T) {
	noTextLayer(t)

	res, err := newTestExtractor().Extract(context.Background(), designToolPDF(t, linkedIn))
	assertNoErr(t, err)
	if res.Strategy != StrategyGeometry {
		t.Errorf("strategy: got %q, want geometry", res.Strategy)
	}
	if !strings.HasSuffix(res.Text, "\n"+linkedIn) {
		t.Errorf("expected text to end with the LinkedIn URI, got:\n%s", res.Text)
	}
	if n := strings.Count(res.Text, linkedIn); n != 1 {
		t.Errorf("LinkedIn URI appears %d times, want 1", n)
	}
	if !slices.Equal(res.Links, []string{linkedIn}) {
		t.Errorf("links: got %v", res.Links)
	}
}

func TestExtract_VisibleLinkNotDuplicated(t *testing.T) {
	noTextLayer(t)
	data := buildPDF(t, testPage{
		content: glyphLine(700, "Jane", "Doe") + glyphLine(680, linkedIn),
		links:   []string{linkedIn},
	})

	res, err := newTestExtractor().Extract(context.Background(), data)
	assertNoErr(t, err)
	assertEqual(t, res.Text, "Jane Doe\n"+linkedIn)
	if len(res.Links) != 0 {
		t.Errorf("links: got %v, want none appended", res.Links)
	}
}

func TestExtract_LowTolerancePath(t *testing.T) {
	noTextLayer(t)
	readGlyphPages = func([]byte) ([]Glyph, int, error) { return nil, 1, nil }
	data := buildPDF(t, testPage{content: "BT /F1 12 Tf 72 700 Td (Hello) Tj 0 -14 Td (World) Tj ET"})

	res, err := newTestExtractor().Extract(context.Background(), data)
	assertNoErr(t, err)
	if res.Strategy != StrategyLowTolerance {
		t.Errorf("strategy: got %q, want low-tolerance", res.Strategy)
	}
	assertEqual(t, res.Text, "Hello\nWorld")
}

func TestExtract_ReaderPanicsBecomeWarnings(t *testing.T) {
	restoreStrategies(t)
	readPlainText = func([]byte) (string, int, error) { panic("malformed xref") }
	readGlyphPages = func([]byte) ([]Glyph, int, error) {
		return wordGlyphs(82, 0, "Jane", "Doe"), 1, nil
	}
	readLinks = func([]byte) ([]string, error) { panic("bad annotation") }

	res, err := newTestExtractor().Extract(context.Background(), nil)
	assertNoErr(t, err)
	assertEqual(t, res.Text, "Jane Doe")
	if !hasWarning(res, "primary: pdf reader panic") {
		t.Errorf("missing primary warning: %v", res.Warnings)
	}
	if !hasWarning(res, "links: pdf reader panic") {
		t.Errorf("missing links warning: %v", res.Warnings)
	}
}

func TestExtract_LinkFailureKeepsText(t *testing.T) {
	noTextLayer(t)
	readGlyphPages = func([]byte) ([]Glyph, int, error) {
		return wordGlyphs(82, 0, "Jane", "Doe"), 1, nil
	}
	readLinks = func([]byte) ([]string, error) { return []string{"lost"}, errors.New("annots unreadable") }

	res, err := newTestExtractor().Extract(context.Background(), nil)
	assertNoErr(t, err)
	assertEqual(t, res.Text, "Jane Doe")
	if len(res.Links) != 0 {
		t.Errorf("links collected before a failure must be discarded, got %v", res.Links)
	}
}

func TestExtract_SpacedLayerIsLastResort(t *testing.T) {
	restoreStrategies(t)
	readPlainText = func([]byte) (string, int, error) { return spacedTextLayer(), 2, nil }
	readGlyphPages = func([]byte) ([]Glyph, int, error) { return nil, 2, nil }
	readRawText = func([]byte, Tolerance) (string, int, error) { return "  \n ", 2, nil }

	res, err := newTestExtractor().Extract(context.Background(), nil)
	assertNoErr(t, err)
	if res.Strategy != StrategyPrimary || !res.Corrupted {
		t.Errorf("got strategy=%q corrupted=%v", res.Strategy, res.Corrupted)
	}
	assertContains(t, res.Text, spacedName)
	if res.Pages != 2 {
		t.Errorf("pages: got %d, want 2", res.Pages)
	}
}

// ---- Extract: errors ----

func TestExtract_OpenFailure(t *testing.T) {
	_, err := newTestExtractor().Extract(context.Background(), []byte("this is not a pdf"))
	assertErr(t, err)
	if !errors.Is(err, ErrOpenFailure) {
		t.Fatalf("expected ErrOpenFailure, got %v", err)
	}
	var xerr *ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExtractionError, got %T", err)
	}
	if len(xerr.Warnings) != 3 {
		t.Errorf("warnings: got %v, want one per strategy", xerr.Warnings)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	data := buildPDF(t, testPage{content: "q Q"})

	_, err := newTestExtractor().Extract(context.Background(), data)
	assertErr(t, err)
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Errorf("expected ErrEmptyExtraction, got %v", err)
	}
}

func TestExtract_EmptyWhenAnyPathOpened(t *testing.T) {
	restoreStrategies(t)
	unreadable := func() error { return errors.Join(errUnreadable, errors.New("bad header")) }
	readPlainText = func([]byte) (string, int, error) { return "", 0, unreadable() }
	readGlyphPages = func([]byte) ([]Glyph, int, error) { return nil, 0, unreadable() }
	readRawText = func([]byte, Tolerance) (string, int, error) { return "", 1, nil }

	_, err := newTestExtractor().Extract(context.Background(), nil)
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Errorf("expected ErrEmptyExtraction, got %v", err)
	}
}

func TestExtract_WhitespaceOnlyNormalizesToEmpty(t *testing.T) {
	restoreStrategies(t)
	readPlainText = func([]byte) (string, int, error) { return "", 1, nil }
	readGlyphPages = func([]byte) ([]Glyph, int, error) { return nil, 1, nil }
	readRawText = func([]byte, Tolerance) (string, int, error) { return "\ufffd\ufffd", 1, nil }

	_, err := newTestExtractor().Extract(context.Background(), nil)
	if !errors.Is(err, ErrEmptyExtraction) {
		t.Errorf("expected ErrEmptyExtraction, got %v", err)
	}
}

func TestExtractText(t *testing.T) {
	data := buildPDF(t, testPage{content: "BT /F1 12 Tf 72 700 Td (Hello resume world) Tj ET"})
	text, err := newTestExtractor().ExtractText(context.Background(), data)
	assertNoErr(t, err)
	assertEqual(t, text, "Hello resume world")

	_, err = newTestExtractor().ExtractText(context.Background(), []byte("nope"))
	assertErr(t, err)
}

// ---- configuration ----

func TestConfigFrom_AppliesOverrides(t *testing.T) {
	cfg := ConfigFrom(&config.Config{
		MaxFileSizeBytes: 1024,
		Overrides: map[string]float64{
			config.EnvLineTolerance: 5,
			config.EnvMatchFraction: 0.5,
		},
	})
	if cfg.MaxFileSizeBytes != 1024 {
		t.Errorf("max size: got %d", cfg.MaxFileSizeBytes)
	}
	if cfg.Tuning.LineTolerance != 5 || cfg.Classifier.MatchFraction != 0.5 {
		t.Errorf("overrides not applied: %+v %+v", cfg.Tuning, cfg.Classifier)
	}
	if cfg.Tuning.SmallGap != DefaultTuning().SmallGap {
		t.Errorf("unset tuning changed: %v", cfg.Tuning.SmallGap)
	}
}

func TestNew_FillsZeroConfig(t *testing.T) {
	ex := New(Config{}, nil)
	if ex.cfg.Normalizer == nil || ex.cfg.MaxFileSizeBytes != config.DefaultMaxFileBytes {
		t.Errorf("zero config not defaulted: %+v", ex.cfg)
	}
}

// ---- ExtractFile ----

func TestExtractFile_Valid(t *testing.T) {
	path := writeTempFile(t, "resume.pdf", buildPDF(t, testPage{
		content: "BT /F1 12 Tf 72 700 Td (Hello resume world) Tj ET",
	}))
	res, err := newTestExtractor().ExtractFile(context.Background(), path)
	assertNoErr(t, err)
	assertEqual(t, res.Text, "Hello resume world")
}

func TestExtractFile_NotFound(t *testing.T) {
	_, err := newTestExtractor().ExtractFile(context.Background(), "/nonexistent/resume.pdf")
	assertErr(t, err)
	assertContains(t, err.Error(), "file not found")
}

func TestExtractFile_Directory(t *testing.T) {
	_, err := newTestExtractor().ExtractFile(context.Background(), t.TempDir())
	assertErr(t, err)
	assertContains(t, err.Error(), "not a file")
}

func TestExtractFile_TooLarge(t *testing.T) {
	path := writeTempFile(t, "big.pdf", []byte(strings.Repeat("x", 64)))
	ex := New(Config{MaxFileSizeBytes: 32}, nil)
	_, err := ex.ExtractFile(context.Background(), path)
	assertErr(t, err)
	assertContains(t, err.Error(), "file too large")
}

// ---- ExtractURI ----

func TestExtractURI_FileSchemeAndBarePath(t *testing.T) {
	path := writeTempFile(t, "resume.pdf", buildPDF(t, testPage{
		content: "BT /F1 12 Tf 72 700 Td (Hello resume world) Tj ET",
	}))
	ex := newTestExtractor()
	for _, uri := range []string{"file://" + path, path} {
		res, err := ex.ExtractURI(context.Background(), uri)
		assertNoErr(t, err)
		assertEqual(t, res.Text, "Hello resume world")
	}
}

func TestExtractURI_HTTP(t *testing.T) {
	data := buildPDF(t, testPage{content: "BT /F1 12 Tf 72 700 Td (Hello resume world) Tj ET"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resume.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	ex := newTestExtractor()
	res, err := ex.ExtractURI(context.Background(), srv.URL+"/resume.pdf")
	assertNoErr(t, err)
	assertEqual(t, res.Text, "Hello resume world")

	_, err = ex.ExtractURI(context.Background(), srv.URL+"/missing.pdf")
	assertErr(t, err)
	assertContains(t, err.Error(), "HTTP 404")
}

func TestExtractURI_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, err := New(Config{MaxFileSizeBytes: 32}, nil).ExtractURI(context.Background(), srv.URL)
	assertErr(t, err)
	assertContains(t, err.Error(), "response too large")
}

func TestExtractURI_Invalid(t *testing.T) {
	ex := newTestExtractor()
	cases := map[string]string{
		"ftp://example.com/resume.pdf": "unsupported URI scheme",
		"":                             "invalid URI",
		"http://[::1":                  "invalid URI",
	}
	for uri, want := range cases {
		_, err := ex.ExtractURI(context.Background(), uri)
		assertErr(t, err)
		assertContains(t, err.Error(), want)
	}
}
