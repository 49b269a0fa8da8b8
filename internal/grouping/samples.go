package grouping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
)

// MinMatchRate is the fraction of samples below which a low match rate is reported.
const MinMatchRate = 0.5

// Reasons recorded for unmatched sample files.
const (
	ReasonNoGroupMatch  = "no group match"
	ReasonEmptyGroupID  = "empty group id"
	ReasonNoRoleMatched = "no role rule matched"
)

// maxReportedGroups bounds how many incomplete groups are named in a warning message.
const maxReportedGroups = 3

// SampleReport is the outcome of applying a group pattern and role rules to sample filenames.
type SampleReport struct {
	FileToGroupID          map[string]string
	FileToRole             map[string]model.ImageRole
	UnmatchedReasons       map[string]string
	GroupsWithMissingRoles map[string][]model.ImageRole
	UnmatchedFiles         []string
	MatchedCount           int
	TotalCount             int
}

// MatchRate returns the fraction of samples that were matched.
func (r *SampleReport) MatchRate() float64 {
	if r.TotalCount == 0 {
		return 0
	}
	return float64(r.MatchedCount) / float64(r.TotalCount)
}

// Groups returns the matched files of every group id, sorted.
func (r *SampleReport) Groups() map[string][]string {
	out := make(map[string][]string)
	for file, id := range r.FileToGroupID {
		if _, ok := r.FileToRole[file]; ok {
			out[id] = append(out[id], file)
		}
	}
	for _, files := range out {
		sort.Strings(files)
	}
	return out
}

// GroupIDs returns the matched group ids in sorted order.
func (r *SampleReport) GroupIDs() []string {
	groups := r.Groups()
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Validator checks configurations against sample filenames.
type Validator struct {
	classifier pattern.Classifier
}

// NewValidator creates a validator classifying files with classifier.
func NewValidator(classifier pattern.Classifier) *Validator {
	return &Validator{classifier: classifier}
}

// ValidateSamples applies groupPattern and rules to every filename. A file is matched when
// the pattern extracts a non-empty group id and a rule assigns it a role. The returned
// result holds the sample-level issues: no matched files, a low match rate and groups
// missing a role that has rules.
func (v *Validator) ValidateSamples(filenames []string, groupPattern string, rules []model.RoleRule) (*SampleReport, *model.ValidationResult, error) {
	if rules == nil {
		return nil, nil, common.ErrNilRules
	}
	re, err := regexp.Compile(groupPattern)
	if err != nil {
		return nil, nil, &common.RegexError{Pattern: groupPattern, Err: err}
	}

	report := &SampleReport{
		FileToGroupID:          make(map[string]string),
		FileToRole:             make(map[string]model.ImageRole),
		UnmatchedReasons:       make(map[string]string),
		GroupsWithMissingRoles: make(map[string][]model.ImageRole),
	}

	for _, name := range filenames {
		if name == "" {
			continue
		}
		report.TotalCount++

		m := re.FindStringSubmatch(name)
		if m == nil {
			report.unmatched(name, ReasonNoGroupMatch)
			continue
		}
		if len(m) < 2 || m[1] == "" {
			report.unmatched(name, ReasonEmptyGroupID)
			continue
		}
		report.FileToGroupID[name] = m[1]

		role, ok, err := v.classifier.Classify(name, rules)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to classify %q: %w", name, err)
		}
		if !ok {
			report.unmatched(name, ReasonNoRoleMatched)
			continue
		}
		report.FileToRole[name] = role
		report.MatchedCount++
	}

	report.findIncompleteGroups(requiredRoles(rules))

	result := &model.ValidationResult{}
	switch {
	case report.TotalCount > 0 && report.MatchedCount == 0:
		issue := result.AddError(model.IssueNoMatchedFiles,
			fmt.Sprintf("none of the %d sample files matched the group pattern and role rules", report.TotalCount))
		issue.Pattern = groupPattern
	case report.TotalCount > 0 && report.MatchRate() < MinMatchRate:
		result.AddWarning(model.IssueLowMatchRate,
			fmt.Sprintf("only %d of %d sample files matched (%.0f%%)",
				report.MatchedCount, report.TotalCount, report.MatchRate()*100))
	}
	if len(report.GroupsWithMissingRoles) > 0 {
		result.AddWarning(model.IssueIncompleteGroups, incompleteMessage(report.GroupsWithMissingRoles))
	}

	common.LogDebug("validated samples", common.Fields{
		"total":      report.TotalCount,
		"matched":    report.MatchedCount,
		"incomplete": len(report.GroupsWithMissingRoles),
	})

	return report, result, nil
}

func (r *SampleReport) unmatched(name, reason string) {
	r.UnmatchedFiles = append(r.UnmatchedFiles, name)
	r.UnmatchedReasons[name] = reason
}

// findIncompleteGroups records every group lacking one of the required roles.
func (r *SampleReport) findIncompleteGroups(required []model.ImageRole) {
	present := make(map[string]map[model.ImageRole]bool)
	for file, role := range r.FileToRole {
		id := r.FileToGroupID[file]
		if present[id] == nil {
			present[id] = make(map[model.ImageRole]bool)
		}
		present[id][role] = true
	}

	for id, roles := range present {
		var missing []model.ImageRole
		for _, role := range required {
			if !roles[role] {
				missing = append(missing, role)
			}
		}
		if len(missing) > 0 {
			r.GroupsWithMissingRoles[id] = missing
		}
	}
}

// requiredRoles returns, in precedence order, the roles targeted by a rule that can match.
func requiredRoles(rules []model.RoleRule) []model.ImageRole {
	has := make(map[model.ImageRole]bool)
	for _, r := range rules {
		if r.Value != "" {
			has[r.Role] = true
		}
	}
	var out []model.ImageRole
	for _, role := range model.Roles() {
		if has[role] {
			out = append(out, role)
		}
	}
	return out
}

func incompleteMessage(groups map[string][]model.ImageRole) string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	examples := make([]string, 0, maxReportedGroups)
	for _, id := range ids {
		if len(examples) == maxReportedGroups {
			break
		}
		names := make([]string, len(groups[id]))
		for i, role := range groups[id] {
			names[i] = string(role)
		}
		examples = append(examples, fmt.Sprintf("%s (missing %s)", id, strings.Join(names, ", ")))
	}

	msg := fmt.Sprintf("%d group(s) are missing required roles: %s", len(groups), strings.Join(examples, "; "))
	if len(ids) > maxReportedGroups {
		msg += fmt.Sprintf("; and %d more", len(ids)-maxReportedGroups)
	}
	return msg
}
