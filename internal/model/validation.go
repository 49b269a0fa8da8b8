package model

import "fmt"

// Severity distinguishes blocking errors from advisory warnings.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueCode identifies the kind of a validation issue.
type IssueCode string

// Configuration errors block pattern usage.
const (
	IssueNoGroupToken        IssueCode = "no_group_token"
	IssueEmptyGroupPattern   IssueCode = "empty_group_pattern"
	IssueInvalidGroupPattern IssueCode = "invalid_group_pattern"
	IssueGroupCaptureCount   IssueCode = "group_capture_count"
	IssueNoRoleRules         IssueCode = "no_role_rules"
	IssueNoRolePattern       IssueCode = "no_role_pattern"
	IssueInvalidRegex        IssueCode = "invalid_regex"
	IssueInvalidRuleValue    IssueCode = "invalid_rule_value"
	IssueNoMatchedFiles      IssueCode = "no_matched_files"
)

// Configuration warnings are shown but do not block usage.
const (
	IssueEmptyRuleValue   IssueCode = "empty_rule_value"
	IssueMissingRoleRules IssueCode = "missing_role_rules"
	IssueLowMatchRate     IssueCode = "low_match_rate"
	IssueIncompleteGroups IssueCode = "incomplete_groups"
)

// Issue is one validation finding.
type Issue struct {
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Pattern  string    `json:"pattern,omitempty"` // Offending pattern text, when relevant
	Role     ImageRole `json:"role,omitempty"`
}

func (i Issue) String() string {
	if i.Pattern != "" {
		return fmt.Sprintf("%s: %s (pattern %q)", i.Severity, i.Message, i.Pattern)
	}
	return fmt.Sprintf("%s: %s", i.Severity, i.Message)
}

// ValidationResult collects errors and warnings. It is valid iff it has no errors.
type ValidationResult struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether no errors were recorded.
func (v *ValidationResult) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records a blocking issue.
func (v *ValidationResult) AddError(code IssueCode, message string) *Issue {
	v.Errors = append(v.Errors, Issue{Code: code, Severity: SeverityError, Message: message})
	return &v.Errors[len(v.Errors)-1]
}

// AddWarning records an advisory issue.
func (v *ValidationResult) AddWarning(code IssueCode, message string) *Issue {
	v.Warnings = append(v.Warnings, Issue{Code: code, Severity: SeverityWarning, Message: message})
	return &v.Warnings[len(v.Warnings)-1]
}

// Merge appends the issues of other.
func (v *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	v.Errors = append(v.Errors, other.Errors...)
	v.Warnings = append(v.Warnings, other.Warnings...)
}

// HasIssue reports whether an issue with the given code was recorded.
func (v *ValidationResult) HasIssue(code IssueCode) bool {
	for _, i := range v.Errors {
		if i.Code == code {
			return true
		}
	}
	for _, i := range v.Warnings {
		if i.Code == code {
			return true
		}
	}
	return false
}
