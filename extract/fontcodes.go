package extract

// fontcodes.go — maps the string bytes shown by text operators to Unicode,
// using each font's ToUnicode CMap where one is embedded and the font's
// simple encoding otherwise.

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

// maxCMapRange bounds how many codes a single bfrange entry may expand to.
const maxCMapRange = 0xFFFF

type fontDecoder struct {
	width   int               // code length in bytes
	cmap    map[string]string // raw code -> text
	charset *charmap.Charmap  // single-byte fallback
}

// defaultDecoder applies when the current font is unknown.
var defaultDecoder = &fontDecoder{width: 1, charset: charmap.Windows1252}

// pageFonts builds a decoder per font resource name of one page.
func pageFonts(ctx *model.Context, pageNr int) map[string]*fontDecoder {
	_, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil || inh == nil {
		return nil
	}
	fonts, err := ctx.DereferenceDict(inh.Resources["Font"])
	if err != nil || fonts == nil {
		return nil
	}
	out := make(map[string]*fontDecoder, len(fonts))
	for name, obj := range fonts {
		fd, err := ctx.DereferenceDict(obj)
		if err != nil || fd == nil {
			continue
		}
		out[name] = newFontDecoder(ctx, fd)
	}
	return out
}

func newFontDecoder(ctx *model.Context, font types.Dict) *fontDecoder {
	d := &fontDecoder{width: 1, charset: charmap.Windows1252}
	if st := font.NameEntry("Subtype"); st != nil && *st == "Type0" {
		d.width = 2
	}
	if enc := font.NameEntry("Encoding"); enc != nil && *enc == "MacRomanEncoding" {
		d.charset = charmap.Macintosh
	}
	obj, ok := font.Find("ToUnicode")
	if !ok {
		return d
	}
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return d
	}
	if err := sd.Decode(); err != nil {
		return d
	}
	d.parseCMap(sd.Content)
	return d
}

// decode maps shown bytes to text and drops control characters. Two-byte
// codes with no ToUnicode entry are dropped: a CID alone names a glyph, not
// a character.
func (d *fontDecoder) decode(raw string) string {
	var b strings.Builder
	write := func(s string) {
		for _, r := range s {
			if !unicode.IsControl(r) {
				b.WriteRune(r)
			}
		}
	}
	if len(d.cmap) == 0 && d.width > 1 {
		return ""
	}
	for i := 0; i < len(raw); {
		n := d.width
		if len(d.cmap) == 0 || i+n > len(raw) {
			n = 1
		}
		code := raw[i : i+n]
		if s, ok := d.cmap[code]; ok {
			write(s)
		} else if n == 1 && d.width == 1 {
			write(string(d.charset.DecodeByte(code[0])))
		}
		i += n
	}
	return b.String()
}

// parseCMap reads the codespace and the bfchar/bfrange mappings of a
// ToUnicode CMap. Entries that do not parse are skipped.
func (d *fontDecoder) parseCMap(data []byte) {
	d.cmap = make(map[string]string)
	lx := &lexer{data: data}
	var operands []token
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}
		switch tok.text {
		case "endcodespacerange":
			if len(operands) > 0 && operands[0].kind == tokString {
				if n := len(operands[0].text); n == 1 || n == 2 {
					d.width = n
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(operands); i += 2 {
				if operands[i].kind == tokString && operands[i+1].kind == tokString {
					d.cmap[operands[i].text] = utf16Text(operands[i+1].text)
				}
			}
		case "endbfrange":
			d.addRanges(operands)
		}
		operands = operands[:0]
	}
}

// addRanges expands "<lo> <hi> <dst>" and "<lo> <hi> [<dst>...]" entries.
func (d *fontDecoder) addRanges(ops []token) {
	for i := 0; i+2 < len(ops); {
		lo, hi := ops[i], ops[i+1]
		if lo.kind != tokString || hi.kind != tokString || len(lo.text) != len(hi.text) || len(lo.text) > 4 {
			return
		}
		from, to := codeValue(lo.text), codeValue(hi.text)
		if to < from || to-from > maxCMapRange {
			return
		}
		switch ops[i+2].kind {
		case tokString:
			base := []rune(utf16Text(ops[i+2].text))
			if len(base) > 0 {
				for k := uint32(0); k <= to-from; k++ {
					r := append([]rune(nil), base...)
					r[len(r)-1] += rune(k)
					d.cmap[codeString(from+k, len(lo.text))] = string(r)
				}
			}
			i += 3
		case tokArrayOpen:
			j, k := i+3, uint32(0)
			for ; j < len(ops) && ops[j].kind != tokArrayClose; j++ {
				if k <= to-from && ops[j].kind == tokString {
					d.cmap[codeString(from+k, len(lo.text))] = utf16Text(ops[j].text)
				}
				k++
			}
			i = j + 1
		default:
			return
		}
	}
}

func codeValue(s string) uint32 {
	var v uint32
	for i := 0; i < len(s); i++ {
		v = v<<8 | uint32(s[i])
	}
	return v
}

func codeString(v uint32, n int) string {
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return string(b)
}

// utf16Text decodes a big-endian UTF-16 destination string.
func utf16Text(s string) string {
	if len(s)%2 == 1 {
		return s
	}
	units := make([]uint16, 0, len(s)/2)
	for i := 0; i+1 < len(s); i += 2 {
		units = append(units, uint16(s[i])<<8|uint16(s[i+1]))
	}
	return string(utf16.Decode(units))
}
