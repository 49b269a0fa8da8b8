package pattern

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/inference"
	"github.com/Veraticus/shot-grouper/internal/model"
)

// SuggestRules proposes role rules from the camera-side tokens of an analysis.
// Each distinct side indicator becomes a case-insensitive rule matching it as a whole
// segment. Overview rules come first; priorities follow first-seen order within a role.
func SuggestRules(analysis *model.TokenAnalysis) []Rule {
	if analysis == nil {
		return nil
	}

	seen := make(map[string]bool)
	byRole := make(map[model.ImageRole][]string)
	for _, name := range analysis.Filenames {
		for _, tok := range analysis.TokenizedFiles[name] {
			if tok.SuggestedType != model.TokenCameraSide {
				continue
			}
			role, ok := inference.CameraRole(tok.Value)
			if !ok {
				continue
			}
			word := strings.ToLower(tok.Value)
			if seen[word] {
				continue
			}
			seen[word] = true
			byRole[role] = append(byRole[role], word)
		}
	}

	var rules []Rule
	for _, role := range model.Roles() {
		for i, word := range byRole[role] {
			rules = append(rules, Rule{
				Role:     role,
				Type:     model.RuleRegexOverride,
				Value:    segmentRegex(word),
				Priority: i,
			})
		}
	}
	return rules
}

// segmentRegex matches word as a complete delimiter-bounded segment.
func segmentRegex(word string) string {
	return `(?:.*[_\-.\s])?` + regexp.QuoteMeta(word) + `(?:[_\-.\s].*)?`
}

// SortRules orders rules by role precedence, then priority.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		pi, pj := rules[i].Role.Precedence(), rules[j].Role.Precedence()
		if pi != pj {
			return pi < pj
		}
		return rules[i].Priority < rules[j].Priority
	})
}
