package model

import (
	"fmt"
	"strings"
)

// RuleType is the predicate a role rule applies to a filename.
type RuleType string

// Rule type constants.
const (
	RuleEquals        RuleType = "equals"
	RuleContains      RuleType = "contains"
	RuleStartsWith    RuleType = "starts_with"
	RuleEndsWith      RuleType = "ends_with"
	RuleRegexOverride RuleType = "regex"
)

// IsValid reports whether t is a known rule type.
func (t RuleType) IsValid() bool {
	switch t {
	case RuleEquals, RuleContains, RuleStartsWith, RuleEndsWith, RuleRegexOverride:
		return true
	}
	return false
}

// ParseRuleType parses a rule type name. Dashes and underscores are interchangeable.
func ParseRuleType(s string) (RuleType, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch normalized {
	case "regex_override":
		normalized = string(RuleRegexOverride)
	case "startswith":
		normalized = string(RuleStartsWith)
	case "endswith":
		normalized = string(RuleEndsWith)
	}
	t := RuleType(normalized)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown rule type %q (valid: equals, contains, starts_with, ends_with, regex)", s)
	}
	return t, nil
}

// RoleRule assigns files to a role when its predicate matches the filename.
type RoleRule struct {
	Role          ImageRole `json:"role" yaml:"role"`
	Type          RuleType  `json:"type" yaml:"type"`
	Value         string    `json:"value" yaml:"value"`
	Priority      int       `json:"priority" yaml:"priority"` // Lower priority is evaluated first
	CaseSensitive bool      `json:"case_sensitive" yaml:"case_sensitive"`
}

// String renders the rule for display.
func (r RoleRule) String() string {
	cs := ""
	if r.CaseSensitive {
		cs = " (case-sensitive)"
	}
	return fmt.Sprintf("%s %s %q%s [priority %d]", r.Role, r.Type, r.Value, cs, r.Priority)
}
