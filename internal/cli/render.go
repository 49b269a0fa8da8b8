package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/grouping"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
	"github.com/Veraticus/shot-grouper/internal/storage"
	"github.com/charmbracelet/lipgloss"
)

// maxListedUnmatched bounds the unmatched files listed in a sample report.
const maxListedUnmatched = 10

// renderTable renders rows as padded columns under a styled header.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(line(headers)))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(line(row))
	}
	return b.String()
}

// RenderTokens renders the tokens of one filename.
func RenderTokens(filename string, tokens []model.Token) string {
	rows := make([][]string, len(tokens))
	for i, tok := range tokens {
		rows[i] = []string{
			fmt.Sprintf("%d", tok.Position),
			tok.Value,
			tok.SuggestedType.DisplayName(),
			fmt.Sprintf("%.0f%%", tok.Confidence*100),
		}
	}
	return BoldStyle.Render(filename) + "\n" + renderTable([]string{"Pos", "Value", "Type", "Confidence"}, rows)
}

// RenderSuggestions renders inferred token suggestions, most confident first.
func RenderSuggestions(suggestions []model.TokenSuggestion) string {
	if len(suggestions) == 0 {
		return SubtleStyle.Render("No token types could be inferred.")
	}

	ordered := append([]model.TokenSuggestion(nil), suggestions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence != ordered[j].Confidence {
			return ordered[i].Confidence > ordered[j].Confidence
		}
		return ordered[i].Position < ordered[j].Position
	})

	rows := make([][]string, len(ordered))
	for i, s := range ordered {
		rows[i] = []string{
			fmt.Sprintf("%d", s.Position),
			s.Type.DisplayName(),
			fmt.Sprintf("%.0f%%", s.Confidence*100),
			strings.Join(s.Examples, ", "),
		}
	}
	return renderTable([]string{"Pos", "Type", "Confidence", "Examples"}, rows)
}

// RenderTypeConfidence renders the overall confidence of each token type.
func RenderTypeConfidence(confidence map[model.TokenType]float64) string {
	var lines []string
	for _, t := range model.TokenTypes() {
		c, ok := confidence[t]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  • %-12s %3.0f%%", t.DisplayName(), c*100))
	}
	return strings.Join(lines, "\n")
}

// RenderIssues renders validation errors and warnings.
func RenderIssues(result *model.ValidationResult) string {
	if result == nil {
		return ""
	}
	if result.Valid() && len(result.Warnings) == 0 {
		return FormatSuccess("Configuration is valid")
	}

	var lines []string
	for _, issue := range result.Errors {
		lines = append(lines, FormatError(issue.Message))
		if issue.Pattern != "" {
			lines = append(lines, "    "+FormatPattern(issue.Pattern))
		}
	}
	for _, issue := range result.Warnings {
		lines = append(lines, FormatWarning(issue.Message))
		if issue.Pattern != "" {
			lines = append(lines, "    "+FormatPattern(issue.Pattern))
		}
	}
	if result.Valid() {
		lines = append(lines, FormatSuccess("Configuration is usable"))
	}
	return strings.Join(lines, "\n")
}

// RenderConfiguration renders the patterns and rules of a configuration.
func RenderConfiguration(title string, cfg *model.PatternConfiguration) string {
	var b strings.Builder

	group := SubtleStyle.Render("(none)")
	if cfg.GroupToken != nil {
		group = fmt.Sprintf("%q at position %d", cfg.GroupToken.Value, cfg.GroupToken.Position)
	}
	fmt.Fprintf(&b, "Group token:   %s\n", group)
	fmt.Fprintf(&b, "Group pattern: %s\n", FormatPattern(cfg.GroupPattern))
	for _, role := range model.Roles() {
		fmt.Fprintf(&b, "%-14s %s\n", role.DisplayName()+":", FormatPattern(cfg.RolePattern(role)))
	}
	if cfg.FlexibleExtension {
		b.WriteString(SubtleStyle.Render("Any image extension accepted") + "\n")
	}

	if len(cfg.Rules) > 0 {
		b.WriteString("\nRules:\n")
		rules := append([]model.RoleRule(nil), cfg.Rules...)
		pattern.SortRules(rules)
		for i, r := range rules {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, r)
		}
	}

	return RenderBox(title, strings.TrimRight(b.String(), "\n"))
}

// RenderSampleReport summarizes how sample files were grouped.
func RenderSampleReport(report *grouping.SampleReport, verbose bool) string {
	if report == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d of %d files matched (%.0f%%), %d groups\n",
		FolderIcon, report.MatchedCount, report.TotalCount, report.MatchRate()*100, len(report.GroupIDs()))

	if verbose {
		groups := report.Groups()
		for _, id := range report.GroupIDs() {
			line := BoldStyle.Render(id)
			if missing := report.GroupsWithMissingRoles[id]; len(missing) > 0 {
				names := make([]string, len(missing))
				for i, role := range missing {
					names[i] = string(role)
				}
				line += " " + WarningStyle.Render("missing "+strings.Join(names, ", "))
			}
			b.WriteString(line + "\n")
			for _, file := range groups[id] {
				fmt.Fprintf(&b, "    %-9s %s\n", report.FileToRole[file], file)
			}
		}
	}

	if len(report.UnmatchedFiles) > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Unmatched files (%d):", len(report.UnmatchedFiles))) + "\n")
		for i, file := range report.UnmatchedFiles {
			if i == maxListedUnmatched {
				fmt.Fprintf(&b, "    ... and %d more\n", len(report.UnmatchedFiles)-maxListedUnmatched)
				break
			}
			fmt.Fprintf(&b, "    %s %s\n", file, SubtleStyle.Render("("+report.UnmatchedReasons[file]+")"))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// RenderPresets lists stored presets.
func RenderPresets(records []storage.PresetRecord) string {
	if len(records) == 0 {
		return SubtleStyle.Render("No presets saved yet.")
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		lastUsed := "never"
		if r.LastUsedAt != nil {
			lastUsed = r.LastUsedAt.Local().Format("2006-01-02 15:04")
		}
		rows[i] = []string{
			r.Name,
			fmt.Sprintf("%d", len(r.Document.Rules)),
			fmt.Sprintf("%d", r.UseCount),
			lastUsed,
			r.UpdatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return renderTable([]string{"Name", "Rules", "Uses", "Last used", "Updated"}, rows)
}
