package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// reSpacedLetters matches a run of at least seven standalone single-character
// tokens such as "J A N E D O E". Six or fewer ("a b c d e f") do not match.
var reSpacedLetters = regexp.MustCompile(`(?:\b[A-Za-z0-9]\b\s+){6,}\b[A-Za-z0-9]\b`)

// Classifier holds the thresholds for spaced-letter detection.
type Classifier struct {
	MinChars      int     // texts with fewer runes are always clean
	MaxLines      int     // non-blank lines inspected from the top
	MinLines      int     // inspected lines required before a verdict
	MatchFraction float64 // fraction of inspected lines that must match
}

// DefaultClassifier returns the tuned thresholds.
func DefaultClassifier() Classifier {
	return Classifier{
		MinChars:      200,
		MaxLines:      60,
		MinLines:      10,
		MatchFraction: 0.2,
	}
}

// LooksSpacedLetters reports whether text looks like an extraction that
// emitted words as isolated single characters.
func LooksSpacedLetters(text string, c Classifier) bool {
	if utf8.RuneCountInString(text) < c.MinChars {
		return false
	}
	checked, matched := spacedLineCounts(text, c.MaxLines)
	if checked < c.MinLines || checked == 0 {
		return false
	}
	return float64(matched)/float64(checked) >= c.MatchFraction
}

// SpacedLineRatio returns the fraction of non-blank lines (up to maxLines,
// all lines when maxLines <= 0) that contain a spaced-letter run.
func SpacedLineRatio(text string, maxLines int) float64 {
	checked, matched := spacedLineCounts(text, maxLines)
	if checked == 0 {
		return 0
	}
	return float64(matched) / float64(checked)
}

func spacedLineCounts(text string, maxLines int) (checked, matched int) {
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		if maxLines > 0 && checked == maxLines {
			break
		}
		checked++
		if reSpacedLetters.MatchString(ln) {
			matched++
		}
	}
	return checked, matched
}
