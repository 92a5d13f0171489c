package extract

// Shared test helpers for the extract package.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
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

func assertEqual(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

// ---- strategy stubs --------------------------------------------------------

// restoreStrategies puts the real strategy functions back when the test ends.
func restoreStrategies(t *testing.T) {
	t.Helper()
	plain, glyphs, links, raw := readPlainText, readGlyphPages, readLinks, readRawText
	t.Cleanup(func() {
		readPlainText, readGlyphPages, readLinks, readRawText = plain, glyphs, links, raw
	})
}

// noTextLayer simulates a document whose text layer yields nothing.
func noTextLayer(t *testing.T) {
	t.Helper()
	restoreStrategies(t)
	readPlainText = func([]byte) (string, int, error) { return "", 1, nil }
}

// ---- PDF factory -----------------------------------------------------------

// testPage is one page of a generated PDF: a raw content stream plus the URIs
// of link annotations placed on it. When toUnicode is set the page also
// carries /F2, a two-byte Identity-H font mapped by that CMap.
type testPage struct {
	content   string
	links     []string
	toUnicode string
}

// buildPDF writes a minimal, valid PDF with an inherited US Letter MediaBox
// and one Helvetica font (/F1) whose glyphs are all 500 units wide.
func buildPDF(t *testing.T, pages ...testPage) []byte {
	t.Helper()

	var objs []string
	add := func(body string) int {
		objs = append(objs, body)
		return len(objs)
	}
	add("<< /Type /Catalog /Pages 2 0 R >>")
	add("") // page tree, filled in once the kids are known
	widths := strings.TrimSpace(strings.Repeat("500 ", 95))
	add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>")

	var kids []string
	for _, p := range pages {
		contents := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.content), p.content))
		annots := ""
		if len(p.links) > 0 {
			refs := make([]string, 0, len(p.links))
			for i, uri := range p.links {
				n := add(fmt.Sprintf("<< /Type /Annot /Subtype /Link /Rect [72 %d 300 %d] /Border [0 0 0] "+
					"/A << /Type /Action /S /URI /URI (%s) >> >>", 40+i*20, 52+i*20, uri))
				refs = append(refs, fmt.Sprintf("%d 0 R", n))
			}
			annots = " /Annots [" + strings.Join(refs, " ") + "]"
		}
		fonts := "/F1 3 0 R"
		if p.toUnicode != "" {
			cmap := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.toUnicode), p.toUnicode))
			cid := add("<< /Type /Font /Subtype /CIDFontType2 /BaseFont /Subset " +
				"/CIDSystemInfo << /Registry (Adobe) /Ordering (Identity) /Supplement 0 >> /DW 500 >>")
			f2 := add(fmt.Sprintf("<< /Type /Font /Subtype /Type0 /BaseFont /Subset /Encoding /Identity-H "+
				"/DescendantFonts [%d 0 R] /ToUnicode %d 0 R >>", cid, cmap))
			fonts += fmt.Sprintf(" /F2 %d 0 R", f2)
		}
		page := add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << /Font << %s >> >> "+
			"/Contents %d 0 R%s >>", fonts, contents, annots))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>",
		strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// Glyph layout used by glyphLine: 10pt Helvetica, every glyph 5pt wide.
const (
	testGlyphWidth = 5.0
	testKerning    = 0.2
	testWordGap    = 2.5
)

// glyphLine lays words out one glyph at a time, each with its own text
// matrix and no space glyphs, the way design tools export text.
func glyphLine(y float64, words ...string) string {
	var b strings.Builder
	b.WriteString("BT /F1 10 Tf\n")
	x := 72.0
	for wi, w := range words {
		if wi > 0 {
			x += testWordGap
		}
		for i, r := range w {
			if i > 0 {
				x += testKerning
			}
			fmt.Fprintf(&b, "1 0 0 1 %.2f %.2f Tm (%s) Tj\n", x, y, pdfEscape(string(r)))
			x += testGlyphWidth
		}
	}
	b.WriteString("ET\n")
	return b.String()
}

func pdfEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// writeTempFile writes data to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

// wordGlyphs builds glyphs for words on one line using the same layout as
// glyphLine, without going through a PDF.
func wordGlyphs(top float64, page int, words ...string) []Glyph {
	var out []Glyph
	x := 72.0
	for wi, w := range words {
		if wi > 0 {
			x += testWordGap
		}
		for i, r := range w {
			if i > 0 {
				x += testKerning
			}
			out = append(out, Glyph{Text: string(r), X0: x, X1: x + testGlyphWidth, Top: top, Page: page})
			x += testGlyphWidth
		}
	}
	return out
}
