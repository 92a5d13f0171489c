package extract

// normalize.go — text repair applied to every extraction path.
//
// The passes run in a fixed order. Link and email lines are recognised before
// the generic prose repairs because the letter-boundary rules would otherwise
// split URLs and addresses apart.

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// word matches one Unicode word character.
const word = `[\p{L}\p{N}_]`

var (
	reSpaceBeforePunct = regexp.MustCompile(`[ \t]+([.,/–—-])`)
	reSpaceAfterOpen   = regexp.MustCompile(`([(\[{/])[ \t]+`)
	reMultiSpace       = regexp.MustCompile(`[ \t\f\v]{2,}`)
	reMultiBlank       = regexp.MustCompile(`\n{3,}`)
	reAnySpace         = regexp.MustCompile(`\s+`)
	reSchemePrefix     = regexp.MustCompile(`(?i)^https?:/{1,2}`)

	// The dot and hyphen joins require whitespace at the separator, so each
	// match shortens the line.
	reAroundAt  = regexp.MustCompile(`\s*@\s*`)
	reDottedRun = regexp.MustCompile(`(` + word + `)(?:\s+\.\s*|\s*\.\s+)(` + word + `)`)

	reDotUpper    = regexp.MustCompile(`\.([A-Z])`)
	reCamelJoin   = regexp.MustCompile(`([a-z])([A-Z])`)
	reDigitLetter = regexp.MustCompile(`(\d)([A-Za-z])`)
	reColonWord   = regexp.MustCompile(`:(` + word + `)`)
	reHyphenJoin  = regexp.MustCompile(`(` + word + `)(?:\s+-\s*|\s*-\s+)(` + word + `)`)
	reEnDash      = regexp.MustCompile(`\s*–\s*`)
)

// TokenFix is one literal substring repair.
type TokenFix struct {
	Bad  string
	Good string
}

// DefaultTokenFixes repairs compound tokens that design-tool exports split
// or join. Order matters: longer tokens sharing a prefix come first.
var DefaultTokenFixes = []TokenFix{
	{"Bachelorof", "Bachelor of"},
	{"Masterin", "Master in"},
	{"Facultyof", "Faculty of"},
	{"Sciencesof", "Sciences of"},
	{"Saa S", "SaaS"},
	{"Mongo DB", "MongoDB"},
	{"Open AIAPI", "OpenAI API"},
	{"Open AI", "OpenAI"},
	{"Type Script", "TypeScript"},
	{"Web Sockets", "WebSockets"},
	{"Gmb H", "GmbH"},
}

// Normalizer repairs extracted text. The zero value applies no token fixes;
// use NewNormalizer for the default table.
type Normalizer struct {
	Fixes []TokenFix
}

// NewNormalizer returns a Normalizer using DefaultTokenFixes followed by extra.
func NewNormalizer(extra ...TokenFix) *Normalizer {
	fixes := make([]TokenFix, 0, len(DefaultTokenFixes)+len(extra))
	fixes = append(fixes, DefaultTokenFixes...)
	fixes = append(fixes, extra...)
	return &Normalizer{Fixes: fixes}
}

// Normalize repairs text with the default token table.
func Normalize(text string) string {
	return (&Normalizer{Fixes: DefaultTokenFixes}).Normalize(text)
}

// Normalize runs every repair pass over text. Normalizing its own output is
// a no-op.
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\ufffd", "")

	text = reSpaceBeforePunct.ReplaceAllString(text, "$1")
	text = reSpaceAfterOpen.ReplaceAllString(text, "$1")
	text = reMultiSpace.ReplaceAllString(text, " ")
	text = reMultiBlank.ReplaceAllString(text, "\n\n")

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, ln := range lines {
		lines[i] = n.repairLine(strings.TrimSpace(ln))
	}

	out := reMultiBlank.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func (n *Normalizer) repairLine(line string) string {
	if line == "" {
		return ""
	}
	switch {
	case isLinkLine(line):
		line = reAnySpace.ReplaceAllString(line, "")
		return reSchemePrefix.ReplaceAllString(line, "https://")
	case strings.Contains(line, "@"):
		line = reAroundAt.ReplaceAllString(line, "@")
		line = replaceUntilStable(reDottedRun, line, "$1.$2")
		return strings.TrimSpace(reMultiSpace.ReplaceAllString(line, " "))
	}

	line = reDotUpper.ReplaceAllString(line, ". $1")
	line = reCamelJoin.ReplaceAllString(line, "$1 $2")
	line = reDigitLetter.ReplaceAllString(line, "$1 $2")
	line = reColonWord.ReplaceAllString(line, ": $1")
	line = replaceUntilStable(reHyphenJoin, line, "$1-$2")
	line = reEnDash.ReplaceAllString(line, " – ")
	for _, fix := range n.Fixes {
		line = strings.ReplaceAll(line, fix.Bad, fix.Good)
	}
	return strings.TrimSpace(reMultiSpace.ReplaceAllString(line, " "))
}

func isLinkLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "http") ||
		strings.Contains(lower, "www.") ||
		strings.Contains(lower, "linkedin.com")
}

// replaceUntilStable reapplies re until it stops matching, so runs such as
// "a . b . c" whose matches share a character are fully joined.
func replaceUntilStable(re *regexp.Regexp, s, repl string) string {
	for {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			return s
		}
		s = next
	}
}
