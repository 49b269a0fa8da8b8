package pattern

import (
	"errors"
	"fmt"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
)

// ValidateRules checks a rule list. A nil list is a caller error. An empty list is
// reported as an error because no file could ever be classified.
func ValidateRules(rules []Rule) (*model.ValidationResult, error) {
	if rules == nil {
		return nil, common.ErrNilRules
	}

	result := &model.ValidationResult{}

	if len(rules) == 0 {
		result.AddError(model.IssueNoRoleRules, "no role rules defined")
	}

	perRole := make(map[model.ImageRole]int)
	for i, rule := range rules {
		if !rule.Role.IsValid() {
			issue := result.AddError(model.IssueInvalidRuleValue,
				fmt.Sprintf("rule %d targets unknown role %q", i+1, rule.Role))
			issue.Pattern = rule.Value
			continue
		}
		perRole[rule.Role]++

		if !rule.Type.IsValid() {
			issue := result.AddError(model.IssueInvalidRuleValue,
				fmt.Sprintf("rule %d has unknown type %q", i+1, rule.Type))
			issue.Role = rule.Role
			continue
		}

		if rule.Value == "" {
			issue := result.AddWarning(model.IssueEmptyRuleValue,
				fmt.Sprintf("%s rule %d has an empty value and will never match", rule.Role.DisplayName(), i+1))
			issue.Role = rule.Role
			continue
		}

		if rule.Type == model.RuleRegexOverride {
			if _, err := common.CompileFullMatch(rule.Value, rule.CaseSensitive); err != nil {
				issue := result.AddError(model.IssueInvalidRegex, regexMessage(err))
				issue.Pattern = rule.Value
				issue.Role = rule.Role
			}
		}
	}

	for _, role := range model.Roles() {
		if perRole[role] == 0 {
			issue := result.AddWarning(model.IssueMissingRoleRules,
				fmt.Sprintf("no rules for %s: files will never be classified as %s", role.DisplayName(), role))
			issue.Role = role
		}
	}

	return result, nil
}

func regexMessage(err error) string {
	var regexErr *common.RegexError
	if errors.As(err, &regexErr) {
		return fmt.Sprintf("invalid regular expression: %v", regexErr.Err)
	}
	return err.Error()
}
