package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/cli"
	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/config"
	"github.com/Veraticus/shot-grouper/internal/grouping"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/pattern"
	"github.com/Veraticus/shot-grouper/internal/preset"
	"github.com/Veraticus/shot-grouper/internal/session"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	reference     string
	saveName      string
	description   string
	exportPath    string
	rules         []string
	types         []string
	groupPosition int
	suggest       bool
	flexible      bool
	verbose       bool
	noProgress    bool
}

func buildCmd() *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Build and validate a grouping configuration for a directory",
		Long: `Analyze the filenames in a directory, synthesize the group pattern from the
chosen group token and the role patterns from rules, then validate the result
against every file in the directory.

Rules are written role:type:value[:priority[:cs]], for example:
  --rule front:contains:front
  --rule rear:regex:'.*_(r|back)\..*':0:cs

The group token defaults to the position inferred as the group ID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.groupPosition, "group-position", "g", -1, "token position of the group ID (default: inferred)")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "file whose tokens define the group pattern (default: first file)")
	cmd.Flags().StringArrayVarP(&opts.rules, "rule", "r", nil, "role rule role:type:value[:priority[:cs]] (repeatable)")
	cmd.Flags().StringArrayVar(&opts.types, "type", nil, "override a token type, POS=TYPE (repeatable)")
	cmd.Flags().BoolVar(&opts.suggest, "suggest", false, "add rules suggested from camera-side tokens")
	cmd.Flags().BoolVar(&opts.flexible, "flexible-ext", false, "accept any image extension")
	cmd.Flags().StringVar(&opts.saveName, "save", "", "save the configuration as a named preset")
	cmd.Flags().StringVar(&opts.description, "description", "", "description stored with --save or --export")
	cmd.Flags().StringVar(&opts.exportPath, "export", "", "write the configuration to a JSON or YAML file")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "list every group and its files")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "hide the progress bar")

	return cmd
}

func runBuild(cmd *cobra.Command, dir string, opts *buildOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.LoadEngineConfig(nil)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("flexible-ext") {
		cfg.FlexibleExtension = opts.flexible
	}

	rules, err := parseRules(opts.rules)
	if err != nil {
		return common.NewUserError(err.Error(), err)
	}

	analysis, err := scanAndAnalyze(ctx, cfg, dir, out, !opts.noProgress)
	if err != nil {
		return err
	}

	sess := session.New(grouping.NewValidator(pattern.NewEngine()), session.Options{
		DebounceWindow:    cfg.DebounceWindow,
		FlexibleExtension: cfg.FlexibleExtension,
	})
	defer sess.Close()

	if err := configureSession(sess, analysis, rules, opts); err != nil {
		return common.NewUserError(err.Error(), err)
	}

	result, report, err := sess.ValidateNow()
	if err != nil {
		return err
	}
	configuration := sess.Configuration()

	fmt.Fprintln(out, cli.RenderTokens(sess.Reference(), sess.Tokens()))
	fmt.Fprintln(out)
	fmt.Fprintln(out, cli.RenderConfiguration("Grouping configuration", configuration))
	fmt.Fprintln(out)
	if report != nil {
		fmt.Fprintln(out, cli.RenderSampleReport(report, opts.verbose))
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, cli.RenderIssues(result))

	if opts.saveName == "" && opts.exportPath == "" {
		return nil
	}
	if !result.Valid() {
		return common.NewUserError("configuration has errors; nothing was saved", nil)
	}
	return persistConfiguration(ctx, cfg, out, configuration, opts)
}

// configureSession applies the command-line choices to a freshly loaded session.
func configureSession(sess *session.Session, analysis *model.TokenAnalysis, rules []model.RoleRule, opts *buildOptions) error {
	if err := sess.LoadAnalysis(analysis); err != nil {
		return err
	}
	if opts.reference != "" {
		if err := sess.SetReference(opts.reference); err != nil {
			return fmt.Errorf("reference %s: %w", opts.reference, err)
		}
	}

	for _, raw := range opts.types {
		pos, t, err := parseTypeOverride(raw)
		if err != nil {
			return err
		}
		if err := sess.ReclassifyToken(pos, t); err != nil {
			return err
		}
	}

	if opts.groupPosition >= 0 {
		if err := sess.SelectGroupToken(opts.groupPosition); err != nil {
			return err
		}
	}

	if opts.suggest {
		for _, rule := range pattern.SuggestRules(analysis) {
			if err := sess.AddRule(rule); err != nil {
				return err
			}
		}
	}
	for _, rule := range rules {
		if err := sess.AddRule(rule); err != nil {
			return err
		}
	}
	return nil
}

func persistConfiguration(ctx context.Context, cfg *config.EngineConfig, out io.Writer, configuration *model.PatternConfiguration, opts *buildOptions) error {
	name := opts.saveName
	if name == "" {
		base := filepath.Base(opts.exportPath)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	doc, err := preset.FromConfiguration(name, configuration)
	if err != nil {
		return err
	}
	doc.Description = opts.description

	if opts.exportPath != "" {
		if err := preset.WriteFile(opts.exportPath, doc); err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Exported configuration to "+opts.exportPath))
	}

	if opts.saveName != "" {
		store, err := initStorage(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStorage(store)

		record, err := store.SavePreset(ctx, doc)
		if err != nil {
			return fmt.Errorf("failed to save preset: %w", err)
		}
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Saved preset %q", record.Name)))
	}
	return nil
}
