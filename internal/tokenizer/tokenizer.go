// Package tokenizer splits filenames into positional segments.
package tokenizer

import (
	"regexp"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/model"
)

// DelimiterClass is the regex character class of segment delimiters.
const DelimiterClass = `[_\-.\s]`

var (
	delimiterPattern = regexp.MustCompile(DelimiterClass + `+`)
	fourDigits       = regexp.MustCompile(`^\d{4}$`)
	twoDigits        = regexp.MustCompile(`^\d{2}$`)
)

// Tokenize splits a filename on delimiters and merges adjacent digit groups that form a date.
// An empty filename yields no tokens.
func Tokenize(filename string) []model.Token {
	if filename == "" {
		return nil
	}

	var segments []string
	for _, s := range delimiterPattern.Split(filename, -1) {
		if s != "" {
			segments = append(segments, s)
		}
	}

	segments = mergeDates(segments)

	tokens := make([]model.Token, len(segments))
	for i, s := range segments {
		tokens[i] = model.NewToken(s, i)
	}
	return tokens
}

// IsDelimiter reports whether r separates segments.
func IsDelimiter(r rune) bool {
	switch r {
	case '_', '-', '.':
		return true
	}
	return strings.ContainsRune(" \t\n\r\f\v", r)
}

// mergeDates joins YYYY,MM,DD and MM,DD,YYYY runs into one dash-joined segment.
func mergeDates(segments []string) []string {
	if len(segments) < 3 {
		return segments
	}

	merged := make([]string, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		if i+2 < len(segments) && isDateRun(segments[i], segments[i+1], segments[i+2]) {
			merged = append(merged, segments[i]+"-"+segments[i+1]+"-"+segments[i+2])
			i += 2
			continue
		}
		merged = append(merged, segments[i])
	}
	return merged
}

func isDateRun(a, b, c string) bool {
	if fourDigits.MatchString(a) && twoDigits.MatchString(b) && twoDigits.MatchString(c) {
		return true
	}
	return twoDigits.MatchString(a) && twoDigits.MatchString(b) && fourDigits.MatchString(c)
}
