package pattern

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
)

// Ensure Engine implements Classifier interface.
var _ Classifier = (*Engine)(nil)

// Engine evaluates role rules. Compiled regular expressions are memoized, so one
// Engine can be shared across goroutines.
type Engine struct {
	compiled map[regexKey]*regexp.Regexp
	mu       sync.RWMutex
}

type regexKey struct {
	pattern       string
	caseSensitive bool
}

// NewEngine creates a rule engine.
func NewEngine() *Engine {
	return &Engine{
		compiled: make(map[regexKey]*regexp.Regexp),
	}
}

// Classify returns the role of filename. Roles are tried in precedence order
// (overview, front, rear) and rules within a role by ascending priority; the first
// matching rule decides. matched is false when no rule matches.
//
// An empty filename or nil rule list is a caller error. An invalid regex rule is a
// rule-configuration error and is returned rather than treated as a non-match.
func (e *Engine) Classify(filename string, rules []Rule) (model.ImageRole, bool, error) {
	if filename == "" {
		return "", false, fmt.Errorf("%w: filename cannot be empty", common.ErrInvalidArgument)
	}
	if rules == nil {
		return "", false, common.ErrNilRules
	}

	byRole := groupByRole(rules)
	for _, role := range model.Roles() {
		for _, rule := range byRole[role] {
			ok, err := e.Matches(filename, rule)
			if err != nil {
				return "", false, err
			}
			if ok {
				return role, true, nil
			}
		}
	}

	return "", false, nil
}

// ClassifyFilenames classifies every filename and buckets them per role.
// Filenames that match no rule are left out.
func (e *Engine) ClassifyFilenames(filenames []string, rules []Rule) (map[model.ImageRole][]string, error) {
	if rules == nil {
		return nil, common.ErrNilRules
	}

	result := make(map[model.ImageRole][]string)
	for _, name := range filenames {
		if name == "" {
			continue
		}
		role, ok, err := e.Classify(name, rules)
		if err != nil {
			return nil, fmt.Errorf("failed to classify %s: %w", name, err)
		}
		if ok {
			result[role] = append(result[role], name)
		}
	}

	return result, nil
}

// Matches reports whether one rule matches a filename. Rules with an empty value never match.
func (e *Engine) Matches(filename string, rule Rule) (bool, error) {
	if rule.Value == "" {
		return false, nil
	}

	if rule.Type == model.RuleRegexOverride {
		re, err := e.regex(rule.Value, rule.CaseSensitive)
		if err != nil {
			return false, err
		}
		return re.MatchString(filename), nil
	}

	text, value := filename, rule.Value
	if !rule.CaseSensitive {
		text = strings.ToLower(text)
		value = strings.ToLower(value)
	}

	switch rule.Type {
	case model.RuleEquals:
		return text == value, nil
	case model.RuleContains:
		return strings.Contains(text, value), nil
	case model.RuleStartsWith:
		return strings.HasPrefix(text, value), nil
	case model.RuleEndsWith:
		return strings.HasSuffix(text, value), nil
	}

	return false, fmt.Errorf("%w: unknown rule type %q", common.ErrInvalidArgument, rule.Type)
}

// regex returns the memoized full-match expression of a regex rule.
func (e *Engine) regex(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	key := regexKey{pattern: pattern, caseSensitive: caseSensitive}

	e.mu.RLock()
	re, ok := e.compiled[key]
	e.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := common.CompileFullMatch(pattern, caseSensitive)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.compiled[key] = re
	e.mu.Unlock()

	return re, nil
}

// groupByRole buckets rules per role, each bucket sorted by ascending priority.
// Rules with equal priority keep their relative order.
func groupByRole(rules []Rule) map[model.ImageRole][]Rule {
	byRole := make(map[model.ImageRole][]Rule)
	for _, r := range rules {
		byRole[r.Role] = append(byRole[r.Role], r)
	}
	for _, bucket := range byRole {
		sortByPriority(bucket)
	}
	return byRole
}

// sortByPriority sorts rules by priority (lowest first).
func sortByPriority(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
}

// RulesForRole returns the rules of one role sorted by priority.
func RulesForRole(rules []Rule, role model.ImageRole) []Rule {
	return groupByRole(rules)[role]
}
