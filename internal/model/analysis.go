package model

// TokenSuggestion describes a token type inferred at one position across a sample set.
type TokenSuggestion struct {
	Type        TokenType `json:"type"`
	Description string    `json:"description"`
	Examples    []string  `json:"examples"`
	Position    int       `json:"position"`
	Confidence  float64   `json:"confidence"`
}

// TokenAnalysis is the result of analyzing a sample set of filenames.
// It is shared through the analysis cache and must be treated as read-only.
type TokenAnalysis struct {
	TokenizedFiles map[string][]Token    `json:"tokenized_files"`
	TypeConfidence map[TokenType]float64 `json:"type_confidence"`
	Filenames      []string              `json:"filenames"`
	Suggestions    []TokenSuggestion     `json:"suggestions"`
}

// TokensFor returns a copy of the tokens of one analyzed filename.
func (a *TokenAnalysis) TokensFor(filename string) ([]Token, bool) {
	tokens, ok := a.TokenizedFiles[filename]
	if !ok {
		return nil, false
	}
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out, true
}

// SuggestionsOfType returns the suggestions of a type, in analysis order.
func (a *TokenAnalysis) SuggestionsOfType(t TokenType) []TokenSuggestion {
	var out []TokenSuggestion
	for _, s := range a.Suggestions {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// BestSuggestion returns the highest-confidence suggestion of a type.
func (a *TokenAnalysis) BestSuggestion(t TokenType) (TokenSuggestion, bool) {
	var best TokenSuggestion
	found := false
	for _, s := range a.SuggestionsOfType(t) {
		if !found || s.Confidence > best.Confidence {
			best = s
			found = true
		}
	}
	return best, found
}
