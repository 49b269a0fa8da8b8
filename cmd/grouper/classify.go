package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/shot-grouper/internal/cli"
	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/config"
	"github.com/Veraticus/shot-grouper/internal/grouping"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
	"github.com/Veraticus/shot-grouper/internal/preset"
	"github.com/Veraticus/shot-grouper/internal/synthesis"
	"github.com/spf13/cobra"
)

type classifyOptions struct {
	presetName   string
	presetFile   string
	groupPattern string
	rules        []string
	asJSON       bool
	verbose      bool
}

// classifyOutput is the machine-readable result of classify --json.
type classifyOutput struct {
	Groups    map[string]map[model.ImageRole][]string `json:"groups"`
	Unmatched map[string]string                       `json:"unmatched"`
	Matched   int                                     `json:"matched"`
	Total     int                                     `json:"total"`
}

func classifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify <dir>",
		Short: "Group and assign roles to the files in a directory",
		Long: `Apply a saved preset, a preset file, or ad-hoc rules to every file in a
directory and report the group and role of each file.

Without a group pattern only roles are assigned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.presetName, "preset", "p", "", "name of a saved preset")
	cmd.Flags().StringVar(&opts.presetFile, "preset-file", "", "JSON or YAML preset file")
	cmd.Flags().StringVar(&opts.groupPattern, "group-pattern", "", "group pattern used with --rule")
	cmd.Flags().StringArrayVarP(&opts.rules, "rule", "r", nil, "role rule role:type:value[:priority[:cs]] (repeatable)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "list every group and its files")
	cmd.MarkFlagsMutuallyExclusive("preset", "preset-file", "rule")
	cmd.MarkFlagsMutuallyExclusive("preset", "preset-file", "group-pattern")
	cmd.MarkFlagsOneRequired("preset", "preset-file", "rule")

	return cmd
}

func runClassify(cmd *cobra.Command, dir string, opts *classifyOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.LoadEngineConfig(nil)
	if err != nil {
		return err
	}

	groupPattern, rules, err := resolveClassifyRules(ctx, cfg, opts)
	if err != nil {
		return err
	}

	files, err := listFiles(ctx, dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewUserError(fmt.Sprintf("no files found in %s", dir), nil)
	}

	engine := pattern.NewEngine()
	if groupPattern == "" {
		byRole, err := engine.ClassifyFilenames(files, rules)
		if err != nil {
			return err
		}
		printRoles(out, byRole)
		return nil
	}

	report, result, err := grouping.NewValidator(engine).ValidateSamples(files, groupPattern, rules)
	if err != nil {
		return err
	}

	if opts.asJSON {
		return writeClassifyJSON(out, report)
	}
	fmt.Fprintln(out, cli.RenderSampleReport(report, opts.verbose))
	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.RenderIssues(result))
	}
	return nil
}

// resolveClassifyRules returns the group pattern and rules selected by the flags. Using a
// saved preset bumps its usage statistics.
func resolveClassifyRules(ctx context.Context, cfg *config.EngineConfig, opts *classifyOptions) (string, []model.RoleRule, error) {
	switch {
	case opts.presetName != "":
		store, err := initStorage(ctx, cfg)
		if err != nil {
			return "", nil, err
		}
		defer closeStorage(store)

		record, err := store.GetPreset(ctx, opts.presetName)
		if err != nil {
			return "", nil, common.NewUserError(fmt.Sprintf("preset %q not found", opts.presetName), err)
		}
		if err := store.RecordPresetUse(ctx, record.Name); err != nil {
			slog.Warn("failed to record preset use", "preset", record.Name, "error", err)
		}
		return record.Document.GroupPattern, record.Document.Rules, nil

	case opts.presetFile != "":
		doc, err := preset.ReadFile(opts.presetFile)
		if err != nil {
			return "", nil, err
		}
		return doc.GroupPattern, doc.Rules, nil
	}

	rules, err := parseRules(opts.rules)
	if err != nil {
		return "", nil, common.NewUserError(err.Error(), err)
	}
	if cfg.FlexibleExtension && opts.groupPattern != "" {
		return synthesis.ApplyFlexibleExtension(opts.groupPattern), rules, nil
	}
	return opts.groupPattern, rules, nil
}

func printRoles(out io.Writer, byRole map[model.ImageRole][]string) {
	for _, role := range model.Roles() {
		files := byRole[role]
		fmt.Fprintln(out, cli.BoldStyle.Render(fmt.Sprintf("%s (%d)", role.DisplayName(), len(files))))
		for _, name := range files {
			fmt.Fprintf(out, "    %s\n", name)
		}
	}
}

func writeClassifyJSON(out io.Writer, report *grouping.SampleReport) error {
	result := classifyOutput{
		Groups:    make(map[string]map[model.ImageRole][]string),
		Unmatched: report.UnmatchedReasons,
		Matched:   report.MatchedCount,
		Total:     report.TotalCount,
	}
	for id, files := range report.Groups() {
		roles := make(map[model.ImageRole][]string)
		for _, name := range files {
			role := report.FileToRole[name]
			roles[role] = append(roles[role], name)
		}
		result.Groups[id] = roles
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
