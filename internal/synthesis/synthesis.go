// Package synthesis builds group-extraction patterns from a tokenized filename.
package synthesis

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/inference"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/tokenizer"
)

const (
	delimiterFragment = tokenizer.DelimiterClass + `+`
	edgeFragment      = tokenizer.DelimiterClass + `*`
	segmentFragment   = `[^_\-.\s]+`
)

// GenerateGroupPattern builds an anchored pattern with exactly one capturing group at
// the position of groupToken. Every other segment becomes a non-capturing fragment
// joined by the shared delimiter class, and delimiters may also lead or trail the name.
// A trailing image extension is emitted as a case-insensitive literal so
// flexible-extension rewriting can widen it.
func GenerateGroupPattern(tokens []model.Token, groupToken model.Token) (string, error) {
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: token list is empty", common.ErrInvalidArgument)
	}

	ordered := make([]model.Token, len(tokens))
	copy(ordered, tokens)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	group := -1
	for i, tok := range ordered {
		if tok.Position == groupToken.Position {
			group = i
			break
		}
	}
	if group < 0 {
		return "", fmt.Errorf("%w: no token at position %d", common.ErrInvalidGroupToken, groupToken.Position)
	}

	var b strings.Builder
	b.WriteString("^" + edgeFragment)
	last := len(ordered) - 1
	for i, tok := range ordered {
		if i > 0 {
			b.WriteString(delimiterFragment)
		}
		if i == last && i > 0 && i != group && isExtension(tok) {
			b.WriteString(`(?i:` + regexp.QuoteMeta(tok.Value) + `)`)
			continue
		}
		body := segmentShape(tok.Value)
		if i == group {
			body = "(" + body + ")"
		}
		b.WriteString(body)
	}
	b.WriteString(edgeFragment + "$")

	return b.String(), nil
}

// segmentShape matches one token. Merged dates span several delimiter-separated parts.
func segmentShape(value string) string {
	parts := strings.FieldsFunc(value, tokenizer.IsDelimiter)
	if len(parts) <= 1 {
		return segmentFragment
	}
	shapes := make([]string, len(parts))
	for i := range parts {
		shapes[i] = segmentFragment
	}
	return strings.Join(shapes, delimiterFragment)
}

func isExtension(tok model.Token) bool {
	return tok.SuggestedType == model.TokenExtension || inference.IsImageExtension(tok.Value)
}

// CaptureCount returns the number of capturing groups in a pattern.
func CaptureCount(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, &common.RegexError{Pattern: pattern, Err: err}
	}
	return re.NumSubexp(), nil
}

// ExtractGroupID applies a group pattern to a filename and returns the captured text.
func ExtractGroupID(re *regexp.Regexp, filename string) (string, bool) {
	m := re.FindStringSubmatch(filename)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
