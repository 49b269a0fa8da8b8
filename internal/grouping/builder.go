// Package grouping assembles pattern configurations and validates them against sample filenames.
package grouping

import (
	"fmt"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
	"github.com/Veraticus/shot-grouper/internal/synthesis"
)

// BuildConfiguration synthesizes the group pattern and every role pattern. A nil
// groupToken yields a configuration without a group pattern, which validation reports.
func BuildConfiguration(tokens []model.Token, groupToken *model.Token, rules []model.RoleRule, flexible bool) (*model.PatternConfiguration, error) {
	cfg := model.NewPatternConfiguration()
	cfg.Tokens = append([]model.Token(nil), tokens...)
	cfg.Rules = append([]model.RoleRule{}, rules...)
	cfg.FlexibleExtension = flexible

	if groupToken != nil {
		groupPattern, err := synthesis.GenerateGroupPattern(tokens, *groupToken)
		if err != nil {
			return nil, fmt.Errorf("failed to build group pattern: %w", err)
		}
		tok := *groupToken
		cfg.GroupToken = &tok
		cfg.GroupPattern = groupPattern
	}

	cfg.RolePatterns = pattern.GenerateRolePatterns(cfg.Rules)

	if flexible {
		cfg.GroupPattern = synthesis.ApplyFlexibleExtension(cfg.GroupPattern)
		for role, p := range cfg.RolePatterns {
			cfg.RolePatterns[role] = synthesis.ApplyFlexibleExtension(p)
		}
	}

	common.LogDebug("built pattern configuration", common.Fields{
		"group_pattern": cfg.GroupPattern,
		"roles":         len(cfg.RolePatterns),
		"rules":         len(cfg.Rules),
		"flexible":      flexible,
	})

	return cfg, nil
}
