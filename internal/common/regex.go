package common

import "regexp"

// CompileRegex compiles a pattern, optionally case-insensitive.
// Failures are returned as *RegexError carrying the pattern text.
func CompileRegex(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &RegexError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// CompileFullMatch compiles a pattern that must match an entire string.
func CompileFullMatch(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	if _, err := regexp.Compile(pattern); err != nil {
		return nil, &RegexError{Pattern: pattern, Err: err}
	}
	return CompileRegex(`^(?:`+pattern+`)$`, caseSensitive)
}
