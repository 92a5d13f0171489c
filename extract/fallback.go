package extract

// fallback.go — last-resort direct extraction from raw content streams.
//
// This path reads the page content with pdfcpu and walks the text operators
// itself, so it still works when the glyph reader rejects the file. Spacing
// decisions use fixed, tight tolerances instead of glyph geometry. Shown
// strings are decoded through the page's font resources (see fontcodes.go).

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// Tolerance is the spacing tolerance of the low-tolerance fallback, in text
// space units.
type Tolerance struct {
	X float64 // horizontal displacement that becomes a space
	Y float64 // vertical displacement that becomes a line break
}

// DefaultTolerance returns the 1-unit tolerances.
func DefaultTolerance() Tolerance {
	return Tolerance{X: 1, Y: 1}
}

// lowToleranceText extracts every page's content stream text, pages joined
// by line breaks. Pages whose content cannot be read are skipped.
func lowToleranceText(data []byte, tol Tolerance) (string, int, error) {
	ctx, err := readContext(data)
	if err != nil {
		return "", 0, err
	}
	var parts []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil || len(content) == 0 {
			continue
		}
		fonts := pageFonts(ctx, pageNr)
		if text := strings.TrimSpace(scanContent(content, tol, fonts)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), ctx.PageCount, nil
}

// ---- content stream scanner ------------------------------------------------

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokName
	tokArrayOpen
	tokArrayClose
	tokOperator
	tokOther
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// scanContent interprets the text operators of one content stream. fonts
// maps font resource names to decoders; unknown fonts decode as WinAnsi.
func scanContent(content []byte, tol Tolerance, fonts map[string]*fontDecoder) string {
	var (
		out      strings.Builder
		operands []token
		fontSize = 1.0
		lineY    = math.NaN()
		dec      = defaultDecoder
	)
	newline := func() {
		if out.Len() > 0 && !strings.HasSuffix(out.String(), "\n") {
			out.WriteByte('\n')
		}
	}
	space := func() {
		s := out.String()
		if out.Len() > 0 && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			out.WriteByte(' ')
		}
	}
	number := func(i int) float64 {
		if i < 0 || i >= len(operands) || operands[i].kind != tokNumber {
			return 0
		}
		return operands[i].num
	}

	lx := &lexer{data: content}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}
		n := len(operands)
		switch tok.text {
		case "Tf":
			dec = defaultDecoder
			if n >= 2 && operands[n-2].kind == tokName {
				if fd := fonts[operands[n-2].text]; fd != nil {
					dec = fd
				}
			}
			if size := math.Abs(number(n - 1)); size > 0 {
				fontSize = size
			}
		case "Td", "TD":
			if math.Abs(number(n-1)) > tol.Y {
				newline()
			}
		case "Tm":
			y := number(n - 1)
			if !math.IsNaN(lineY) && math.Abs(y-lineY) > tol.Y {
				newline()
			}
			lineY = y
		case "T*":
			newline()
		case "Tj":
			if n > 0 && operands[n-1].kind == tokString {
				out.WriteString(dec.decode(operands[n-1].text))
			}
		case "'", "\"":
			newline()
			if n > 0 && operands[n-1].kind == tokString {
				out.WriteString(dec.decode(operands[n-1].text))
			}
		case "TJ":
			for _, el := range arrayOperand(operands) {
				switch el.kind {
				case tokString:
					out.WriteString(dec.decode(el.text))
				case tokNumber:
					if -el.num/1000*fontSize > tol.X {
						space()
					}
				}
			}
		case "BI":
			lx.skipInlineImage()
		}
		operands = operands[:0]
	}
	return out.String()
}

// arrayOperand returns the elements of the last array on the operand stack.
func arrayOperand(operands []token) []token {
	end := -1
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].kind == tokArrayClose && end < 0 {
			end = i
		}
		if operands[i].kind == tokArrayOpen && end >= 0 {
			return operands[i+1 : end]
		}
	}
	return nil
}

type lexer struct {
	data []byte
	pos  int
}

func isDelimiter(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func (l *lexer) next() (token, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.pos++
			return token{kind: tokString, text: l.literal()}, true
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return token{kind: tokOther, text: "<<"}, true
			}
			l.pos++
			return token{kind: tokString, text: l.hex()}, true
		case c == '>':
			l.pos++
			if l.pos < len(l.data) && l.data[l.pos] == '>' {
				l.pos++
			}
			return token{kind: tokOther, text: ">>"}, true
		case c == '[':
			l.pos++
			return token{kind: tokArrayOpen}, true
		case c == ']':
			l.pos++
			return token{kind: tokArrayClose}, true
		case c == '{' || c == '}':
			l.pos++
		case c == '/':
			l.pos++
			return token{kind: tokName, text: l.regular()}, true
		default:
			word := l.regular()
			if word == "" {
				l.pos++
				continue
			}
			if f, err := strconv.ParseFloat(word, 64); err == nil {
				return token{kind: tokNumber, num: f, text: word}, true
			}
			return token{kind: tokOperator, text: word}, true
		}
	}
	return token{}, false
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// literal reads a parenthesised string whose opening paren was consumed.
func (l *lexer) literal() string {
	var raw []byte
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			if l.pos >= len(l.data) {
				continue
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				raw = append(raw, '\n')
			case 'r':
				raw = append(raw, '\r')
			case 't':
				raw = append(raw, '\t')
			case 'b', 'f':
			case '\r', '\n':
				if e == '\r' && l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for k := 0; k < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; k++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					raw = append(raw, byte(v))
				} else {
					raw = append(raw, e)
				}
			}
		case '(':
			depth++
			raw = append(raw, c)
		case ')':
			depth--
			if depth == 0 {
				return string(raw)
			}
			raw = append(raw, c)
		default:
			raw = append(raw, c)
		}
	}
	return string(raw)
}

// hex reads a hex string whose opening angle bracket was consumed.
func (l *lexer) hex() string {
	var digits []byte
	for l.pos < len(l.data) && l.data[l.pos] != '>' {
		if c := l.data[l.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	raw := make([]byte, 0, len(digits)/2)
	for i := 0; i+1 < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			return ""
		}
		raw = append(raw, byte(v))
	}
	return string(raw)
}

// skipInlineImage advances past the binary payload of an inline image.
func (l *lexer) skipInlineImage() {
	idx := strings.Index(string(l.data[l.pos:]), " ID")
	if idx < 0 {
		l.pos = len(l.data)
		return
	}
	l.pos += idx + 3
	end := strings.Index(string(l.data[l.pos:]), "EI")
	if end < 0 {
		l.pos = len(l.data)
		return
	}
	l.pos += end + 2
}
