package pattern

import (
	"regexp"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/model"
)

// GenerateRegexPattern builds one pattern matching any rule of a role. ok is false when
// no rule with a non-empty value targets the role.
//
// A single case-insensitive fragment is prefixed with (?i). When several fragments are
// joined, case-insensitive ones use the scoped (?i:...) form so the flag cannot leak
// into case-sensitive alternatives.
func GenerateRegexPattern(rules []Rule, role model.ImageRole) (string, bool) {
	var roleRules []Rule
	for _, r := range RulesForRole(rules, role) {
		if r.Value != "" {
			roleRules = append(roleRules, r)
		}
	}
	if len(roleRules) == 0 {
		return "", false
	}

	if len(roleRules) == 1 {
		r := roleRules[0]
		body := fragment(r)
		if !r.CaseSensitive {
			body = "(?i)" + body
		}
		return body, true
	}

	parts := make([]string, len(roleRules))
	for i, r := range roleRules {
		body := fragment(r)
		if !r.CaseSensitive {
			body = "(?i:" + body + ")"
		}
		parts[i] = body
	}
	return "(?:" + strings.Join(parts, "|") + ")", true
}

// fragment converts a rule into an anchored expression matching whole filenames.
func fragment(r Rule) string {
	v := regexp.QuoteMeta(r.Value)
	switch r.Type {
	case model.RuleEquals:
		return "^" + v + "$"
	case model.RuleContains:
		return ".*" + v + ".*"
	case model.RuleStartsWith:
		return "^" + v + ".*"
	case model.RuleEndsWith:
		return ".*" + v + "$"
	case model.RuleRegexOverride:
		return "^(?:" + r.Value + ")$"
	}
	return v
}

// GenerateRolePatterns builds the pattern of every role that has rules.
func GenerateRolePatterns(rules []Rule) map[model.ImageRole]string {
	out := make(map[model.ImageRole]string)
	for _, role := range model.Roles() {
		if p, ok := GenerateRegexPattern(rules, role); ok {
			out[role] = p
		}
	}
	return out
}
