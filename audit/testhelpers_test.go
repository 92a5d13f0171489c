package audit

// Shared test helpers for the audit package.

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amineabbassi/MatchMyCV/extract"
)

// ---- assertion helpers -----------------------------------------------------

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

// ---- fake extractor --------------------------------------------------------

// fakeExtractor serves canned results keyed by path. Paths it does not know
// fail the way an unreadable document does.
type fakeExtractor struct {
	results map[string]extract.Result
	delay   map[string]time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeExtractor) ExtractFile(ctx context.Context, path string) (extract.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(f.delay[path]):
	case <-ctx.Done():
		return extract.Result{}, ctx.Err()
	}

	res, ok := f.results[path]
	if !ok {
		return extract.Result{Warnings: []string{"primary: unreadable"}},
			&extract.ExtractionError{Kind: extract.ErrOpenFailure}
	}
	return res, nil
}
