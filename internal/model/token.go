// Package model defines the core data structures for the grouper engine.
package model

// TokenType is the semantic type of a filename segment.
type TokenType string

// Token type constants.
const (
	TokenPrefix     TokenType = "prefix"
	TokenSuffix     TokenType = "suffix"
	TokenGroupID    TokenType = "group_id"
	TokenCameraSide TokenType = "camera_side"
	TokenDate       TokenType = "date"
	TokenIndex      TokenType = "index"
	TokenExtension  TokenType = "extension"
	TokenUnknown    TokenType = "unknown"
)

// ManualConfidence is the confidence assigned when a user reclassifies a token.
const ManualConfidence = 0.9

// TokenTypes lists every token type in display order.
func TokenTypes() []TokenType {
	return []TokenType{
		TokenPrefix,
		TokenSuffix,
		TokenGroupID,
		TokenCameraSide,
		TokenDate,
		TokenIndex,
		TokenExtension,
		TokenUnknown,
	}
}

// IsValid reports whether t is one of the known token types.
func (t TokenType) IsValid() bool {
	switch t {
	case TokenPrefix, TokenSuffix, TokenGroupID, TokenCameraSide,
		TokenDate, TokenIndex, TokenExtension, TokenUnknown:
		return true
	}
	return false
}

// DisplayName returns a human readable label for the type.
func (t TokenType) DisplayName() string {
	switch t {
	case TokenPrefix:
		return "Prefix"
	case TokenSuffix:
		return "Suffix"
	case TokenGroupID:
		return "Group ID"
	case TokenCameraSide:
		return "Camera/Side"
	case TokenDate:
		return "Date"
	case TokenIndex:
		return "Index"
	case TokenExtension:
		return "Extension"
	default:
		return "Unknown"
	}
}

// Token is one delimiter-separated segment of a filename.
// Tokens are values; reclassification returns a modified copy.
type Token struct {
	Value         string    `json:"value" yaml:"value"`
	SuggestedType TokenType `json:"suggested_type" yaml:"suggested_type"`
	Position      int       `json:"position" yaml:"position"`
	Confidence    float64   `json:"confidence" yaml:"confidence"`
}

// NewToken creates an unclassified token.
func NewToken(value string, position int) Token {
	return Token{
		Value:         value,
		Position:      position,
		SuggestedType: TokenUnknown,
	}
}

// WithType returns a copy of the token labeled with the given type and confidence.
// Confidence is clamped to [0, 1].
func (t Token) WithType(tokenType TokenType, confidence float64) Token {
	t.SuggestedType = tokenType
	t.Confidence = ClampConfidence(confidence)
	return t
}

// Reclassify returns a copy of the token with a user-chosen type.
func (t Token) Reclassify(tokenType TokenType) Token {
	return t.WithType(tokenType, ManualConfidence)
}

// ClampConfidence limits a confidence score to the range [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
