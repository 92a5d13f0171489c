package extract

// geometry.go — line and word reconstruction from glyph boxes.
//
// Design-tool exports often place every character with its own text matrix,
// so the text layer carries no word or line boundaries. Here glyphs are
// bucketed into lines by their vertical position and spaces are re-inserted
// where the horizontal gap to the previous glyph is wider than that line's
// own threshold.

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyph is one rendered character with its horizontal extent and vertical
// position. Top grows downwards from the top of the page.
type Glyph struct {
	Text string
	X0   float64
	X1   float64
	Top  float64
	Page int
}

// Tuning holds the empirically tuned constants of the reconstruction.
type Tuning struct {
	LineTolerance    float64 // vertical quantization band for line buckets
	MinGap           float64 // gaps at or below are overlap artifacts
	MaxGap           float64 // gaps at or above are column breaks
	SmallGap         float64 // upper bound of the intra-word band
	LargeGap         float64 // lower bound of the inter-word band
	MedianFactor     float64
	MinThreshold     float64
	DefaultThreshold float64 // used when a line has no plausible gaps
}

// DefaultTuning returns the tuned reconstruction constants.
func DefaultTuning() Tuning {
	return Tuning{
		LineTolerance:    3.0,
		MinGap:           0.05,
		MaxGap:           50.0,
		SmallGap:         0.8,
		LargeGap:         1.6,
		MedianFactor:     1.5,
		MinThreshold:     1.0,
		DefaultThreshold: 4.0,
	}
}

// Characters that never get a space inserted before them, and characters
// that never get one inserted after them.
var (
	noSpaceBefore = map[string]bool{
		".": true, ",": true, ":": true, ";": true, "/": true,
		")": true, "]": true, "}": true, "-": true, "–": true, "—": true,
	}
	noSpaceAfter = map[string]bool{
		"(": true, "[": true, "{": true, "/": true, "-": true,
		"–": true, "—": true, "@": true, ".": true,
	}
)

// Reconstruct rebuilds text from glyphs: pages in ascending order, lines top
// to bottom, glyphs left to right. The input order of glyphs does not matter.
func Reconstruct(glyphs []Glyph, t Tuning) string {
	byPage := make(map[int][]Glyph)
	for _, g := range glyphs {
		byPage[g.Page] = append(byPage[g.Page], g)
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	var lines []string
	for _, p := range pages {
		lines = append(lines, reconstructPage(byPage[p], t)...)
	}
	return strings.Join(lines, "\n")
}

func reconstructPage(glyphs []Glyph, t Tuning) []string {
	tol := t.LineTolerance
	if tol <= 0 {
		tol = 1
	}
	buckets := make(map[int][]Glyph)
	for _, g := range glyphs {
		if strings.TrimSpace(g.Text) == "" {
			continue
		}
		key := int(math.RoundToEven(g.Top / tol))
		buckets[key] = append(buckets[key], g)
	}
	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var out []string
	for _, k := range keys {
		line := buckets[k]
		sort.SliceStable(line, func(i, j int) bool { return line[i].X0 < line[j].X0 })
		if s := assembleLine(line, t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func assembleLine(line []Glyph, t Tuning) string {
	gaps := make([]float64, 0, len(line))
	for i := 1; i < len(line); i++ {
		gaps = append(gaps, glyphGap(line[i-1], line[i]))
	}
	threshold := spaceThreshold(gaps, t)

	var b strings.Builder
	for i, g := range line {
		if i > 0 {
			prev := line[i-1]
			if glyphGap(prev, g) > threshold && !noSpaceBefore[g.Text] && !noSpaceAfter[prev.Text] {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.Text)
	}
	return strings.TrimSpace(b.String())
}

func glyphGap(prev, cur Glyph) float64 {
	return math.Max(0, cur.X0-prev.X1)
}

// spaceThreshold picks the gap above which a space is inserted on one line.
// When the plausible gaps fall into a tight intra-word band and a wide
// inter-word band, the threshold is the midpoint between the two.
func spaceThreshold(gaps []float64, t Tuning) float64 {
	var plausible, small, large []float64
	for _, g := range gaps {
		if g <= t.MinGap || g >= t.MaxGap {
			continue
		}
		plausible = append(plausible, g)
		if g <= t.SmallGap {
			small = append(small, g)
		}
		if g >= t.LargeGap {
			large = append(large, g)
		}
	}
	switch {
	case len(small) > 0 && len(large) > 0:
		return (maxOf(small) + minOf(large)) / 2
	case len(plausible) > 0:
		return math.Max(t.MinThreshold, median(plausible)*t.MedianFactor)
	default:
		return t.DefaultThreshold
	}
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Max(m, x)
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		m = math.Min(m, x)
	}
	return m
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// ---- glyph reader ----------------------------------------------------------

// readGlyphs opens data with the geometry-capable reader and returns every
// non-blank glyph along with the page count. A page whose content stream
// cannot be interpreted contributes no glyphs.
func readGlyphs(data []byte) (glyphs []Glyph, pages int, err error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errUnreadable, err)
	}
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		glyphs = append(glyphs, pageGlyphs(r.Page(i), i-1)...)
	}
	return glyphs, pages, nil
}

func pageGlyphs(p pdf.Page, index int) (out []Glyph) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()
	if p.V.IsNull() {
		return nil
	}
	top := pageTop(p)
	for _, t := range p.Content().Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		out = append(out, Glyph{
			Text: t.S,
			X0:   t.X,
			X1:   t.X + t.W,
			Top:  top - (t.Y + t.FontSize),
			Page: index,
		})
	}
	return out
}

// maxPageTreeDepth bounds the Parent walk on malformed page trees.
const maxPageTreeDepth = 32

// pageTop returns the upper edge of the page's MediaBox, looking through
// inherited attributes. Zero when no MediaBox is found.
func pageTop(p pdf.Page) float64 {
	v := p.V
	for i := 0; i < maxPageTreeDepth && !v.IsNull(); i++ {
		if box := v.Key("MediaBox"); box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(3).Float64()
		}
		v = v.Key("Parent")
	}
	return 0
}
