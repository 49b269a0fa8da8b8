// Package inference infers the semantic type of filename segments across a sample set.
package inference

import (
	"fmt"

	"github.com/Veraticus/shot-grouper/internal/model"
)

// positionStats summarizes the values seen at one token position.
type positionStats struct {
	values     []string
	distinct   []string
	position   int
	uniqueness float64
	extension  float64
	camera     float64
	date       float64
	index      float64
}

// Infer computes suggestions for each token position and relabels every token.
// tokenized must hold the tokens of every filename in filenames.
func Infer(cfg Config, filenames []string, tokenized map[string][]model.Token) *model.TokenAnalysis {
	analysis := &model.TokenAnalysis{
		Filenames:      append([]string(nil), filenames...),
		TokenizedFiles: make(map[string][]model.Token, len(filenames)),
		TypeConfidence: make(map[model.TokenType]float64),
	}

	for _, stats := range collectPositions(filenames, tokenized) {
		analysis.Suggestions = append(analysis.Suggestions, suggest(cfg, stats)...)
	}

	for _, s := range analysis.Suggestions {
		if s.Confidence > analysis.TypeConfidence[s.Type] {
			analysis.TypeConfidence[s.Type] = s.Confidence
		}
	}

	for _, name := range filenames {
		tokens := tokenized[name]
		labeled := make([]model.Token, len(tokens))
		for i, tok := range tokens {
			labeled[i] = Relabel(tok, analysis.Suggestions)
		}
		analysis.TokenizedFiles[name] = labeled
	}

	return analysis
}

func collectPositions(filenames []string, tokenized map[string][]model.Token) []positionStats {
	byPosition := make(map[int][]string)
	maxPosition := -1
	lastShared := -1
	for i, name := range filenames {
		if n := len(tokenized[name]) - 1; i == 0 || n < lastShared {
			lastShared = n
		}
		for _, tok := range tokenized[name] {
			byPosition[tok.Position] = append(byPosition[tok.Position], tok.Value)
			maxPosition = max(maxPosition, tok.Position)
		}
	}

	var out []positionStats
	for pos := 0; pos <= maxPosition; pos++ {
		values := byPosition[pos]
		if len(values) == 0 {
			continue
		}

		stats := positionStats{
			position: pos,
			values:   values,
			distinct: distinctValues(values),
		}
		stats.uniqueness = float64(len(stats.distinct)) / float64(len(values))

		// Extensions are only considered at the last position every file has.
		if pos == lastShared {
			stats.extension = fraction(stats.distinct, IsImageExtension)
		}
		stats.camera = fraction(values, func(v string) bool {
			_, ok := CameraRole(v)
			return ok
		})
		stats.date = fraction(values, IsDate)
		stats.index = fraction(values, IsIndex)

		out = append(out, stats)
	}
	return out
}

func suggest(cfg Config, stats positionStats) []model.TokenSuggestion {
	var out []model.TokenSuggestion

	add := func(t model.TokenType, confidence float64, description string, accept func(string) bool) {
		out = append(out, model.TokenSuggestion{
			Type:        t,
			Description: fmt.Sprintf("%s at position %d", description, stats.position),
			Examples:    examples(stats.distinct, accept, cfg.MaxExamples),
			Position:    stats.position,
			Confidence:  model.ClampConfidence(confidence),
		})
	}

	if stats.extension > cfg.ExtensionThreshold {
		add(model.TokenExtension, stats.extension, "File extension", IsImageExtension)
	}
	if stats.camera > cfg.CameraThreshold {
		add(model.TokenCameraSide, stats.camera, "Camera side indicator", func(v string) bool {
			_, ok := CameraRole(v)
			return ok
		})
	}
	if stats.date > cfg.DateThreshold {
		add(model.TokenDate, stats.date, "Date stamp", IsDate)
	}
	if stats.index > cfg.IndexThreshold {
		add(model.TokenIndex, stats.index, "Sequence number", IsIndex)
	}

	if stats.uniqueness > cfg.GroupUniquenessMin &&
		stats.camera < cfg.GroupExclusionMax &&
		stats.date < cfg.GroupExclusionMax &&
		stats.index < cfg.GroupExclusionMax {
		add(model.TokenGroupID, stats.uniqueness*cfg.GroupWeight, "Unique per capture (likely group ID)", nil)
	}

	if stats.uniqueness < cfg.AffixUniquenessMax {
		if stats.position == 0 {
			add(model.TokenPrefix, (1-stats.uniqueness)*cfg.PrefixWeight, "Constant prefix", nil)
		} else {
			add(model.TokenSuffix, (1-stats.uniqueness)*cfg.SuffixWeight, "Constant segment", nil)
		}
	}

	return out
}

// Accepts reports whether a suggestion's type predicate accepts a token.
// Value-typed suggestions test the token value; positional ones test the position.
func Accepts(s model.TokenSuggestion, tok model.Token) bool {
	switch s.Type {
	case model.TokenExtension:
		return IsImageExtension(tok.Value)
	case model.TokenCameraSide:
		_, ok := CameraRole(tok.Value)
		return ok
	case model.TokenDate:
		return IsDate(tok.Value)
	case model.TokenIndex:
		return IsIndex(tok.Value)
	case model.TokenGroupID, model.TokenPrefix, model.TokenSuffix:
		return tok.Position == s.Position
	}
	return false
}

// Relabel returns the token labeled with the highest-confidence suggestion that accepts it.
// Earlier suggestions win ties. Tokens no suggestion accepts are UNKNOWN.
func Relabel(tok model.Token, suggestions []model.TokenSuggestion) model.Token {
	var best *model.TokenSuggestion
	for i := range suggestions {
		s := &suggestions[i]
		if !Accepts(*s, tok) {
			continue
		}
		if best == nil || s.Confidence > best.Confidence {
			best = s
		}
	}
	if best == nil {
		return tok.WithType(model.TokenUnknown, 0)
	}
	return tok.WithType(best.Type, best.Confidence)
}

func distinctValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func fraction(values []string, match func(string) bool) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if match(v) {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

func examples(distinct []string, accept func(string) bool, limit int) []string {
	var out []string
	for _, v := range distinct {
		if len(out) >= limit {
			break
		}
		if accept == nil || accept(v) {
			out = append(out, v)
		}
	}
	return out
}
