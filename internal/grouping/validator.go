package grouping

import (
	"fmt"
	"regexp"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
)

// ValidateConfiguration checks a configuration and, when samples are given and the
// patterns are usable, validates it against them. The sample report is nil when sample
// validation did not run.
func (v *Validator) ValidateConfiguration(cfg *model.PatternConfiguration, samples []string) (*model.ValidationResult, *SampleReport, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: configuration cannot be nil", common.ErrInvalidArgument)
	}

	result := &model.ValidationResult{}
	validateGroupPattern(cfg, result)

	rules := cfg.Rules
	if rules == nil {
		rules = []model.RoleRule{}
	}
	ruleResult, err := pattern.ValidateRules(rules)
	if err != nil {
		return nil, nil, err
	}
	result.Merge(ruleResult)

	if len(rules) > 0 {
		validateRolePatterns(cfg, result)
	}

	if len(samples) == 0 || !result.Valid() {
		return result, nil, nil
	}

	report, sampleResult, err := v.ValidateSamples(samples, cfg.GroupPattern, rules)
	if err != nil {
		return nil, nil, err
	}
	result.Merge(sampleResult)

	return result, report, nil
}

func validateGroupPattern(cfg *model.PatternConfiguration, result *model.ValidationResult) {
	if cfg.GroupToken == nil {
		result.AddError(model.IssueNoGroupToken, "no group id token selected")
	}

	if cfg.GroupPattern == "" {
		result.AddError(model.IssueEmptyGroupPattern, "group pattern is empty")
		return
	}

	re, err := regexp.Compile(cfg.GroupPattern)
	if err != nil {
		issue := result.AddError(model.IssueInvalidGroupPattern, fmt.Sprintf("invalid group pattern: %v", err))
		issue.Pattern = cfg.GroupPattern
		return
	}
	if n := re.NumSubexp(); n != 1 {
		issue := result.AddError(model.IssueGroupCaptureCount,
			fmt.Sprintf("group pattern must have exactly one capturing group, found %d", n))
		issue.Pattern = cfg.GroupPattern
	}
}

func validateRolePatterns(cfg *model.PatternConfiguration, result *model.ValidationResult) {
	if !cfg.HasRolePattern() {
		result.AddError(model.IssueNoRolePattern, "no role pattern is defined")
		return
	}

	for _, role := range model.Roles() {
		p := cfg.RolePattern(role)
		if p == "" || hasRoleIssue(result, model.IssueInvalidRegex, role) {
			continue
		}
		if _, err := regexp.Compile(p); err != nil {
			issue := result.AddError(model.IssueInvalidRegex,
				fmt.Sprintf("invalid %s pattern: %v", role.DisplayName(), err))
			issue.Pattern = p
			issue.Role = role
		}
	}
}

// hasRoleIssue reports whether an error with code was already recorded for role.
func hasRoleIssue(result *model.ValidationResult, code model.IssueCode, role model.ImageRole) bool {
	for _, issue := range result.Errors {
		if issue.Code == code && issue.Role == role {
			return true
		}
	}
	return false
}
