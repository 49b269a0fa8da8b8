package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/shot-grouper/internal/cli"
	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/config"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/worker"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	var (
		showTokens bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Infer the token structure of the filenames in a directory",
		Long: `Scan a directory, tokenize every filename and infer which positions hold
the group identifier, camera side, date, index and extension.

The scan and analysis run in the background and can be interrupted with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadEngineConfig(nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			analysis, err := scanAndAnalyze(cmd.Context(), cfg, args[0], out, !noProgress)
			if err != nil {
				return err
			}

			printAnalysis(out, analysis, showTokens)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showTokens, "tokens", false, "show the tokens of the first file")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "hide the progress bar")

	return cmd
}

// scanAndAnalyze lists dir and analyzes its filenames on a background worker.
func scanAndAnalyze(ctx context.Context, cfg *config.EngineConfig, dir string, out io.Writer, showProgress bool) (*model.TokenAnalysis, error) {
	handler := cli.NewInterruptHandler(out)
	ctx = handler.HandleInterrupts(ctx, "Analysis", "No changes were made.")

	w := worker.New()
	defer w.Close()

	var files []string
	scan, err := w.Submit(worker.KindScan, func(jobCtx context.Context) error {
		var scanErr error
		files, scanErr = listFiles(jobCtx, dir)
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	if err := waitJob(ctx, scan); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.NewUserError(fmt.Sprintf("no files found in %s", dir), nil)
	}

	var reporter *cli.ProgressReporter
	var progress func(done, total int)
	if showProgress {
		reporter = cli.NewProgressReporter(out, len(files), "Analyzing")
		progress = reporter.Update
	}

	analyzer := newAnalyzer(cfg)
	var analysis *model.TokenAnalysis
	job, err := w.Submit(worker.KindAnalysis, func(jobCtx context.Context) error {
		var analyzeErr error
		analysis, analyzeErr = analyzer.AnalyzeWithProgress(jobCtx, files, progress)
		return analyzeErr
	})
	if err != nil {
		return nil, err
	}
	if err := waitJob(ctx, job); err != nil {
		if reporter != nil {
			reporter.Clear()
		}
		return nil, err
	}

	return analysis, nil
}

// waitJob waits for h, cancelling it when ctx ends first. The job's own result is
// read only after it has finished.
func waitJob(ctx context.Context, h *worker.Handle) error {
	if err := h.Wait(ctx); err != nil {
		if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
			return err
		}
		h.Cancel()
		<-h.Done()
		return common.NewUserError(string(h.Kind())+" cancelled", err)
	}
	return nil
}

func printAnalysis(out io.Writer, analysis *model.TokenAnalysis, showTokens bool) {
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Analyzed %d files", len(analysis.Filenames))))
	fmt.Fprintln(out)

	if showTokens && len(analysis.Filenames) > 0 {
		first := analysis.Filenames[0]
		if tokens, ok := analysis.TokensFor(first); ok {
			fmt.Fprintln(out, cli.RenderTokens(first, tokens))
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out, cli.BoldStyle.Render("Suggestions"))
	fmt.Fprintln(out, cli.RenderSuggestions(analysis.Suggestions))

	if len(analysis.TypeConfidence) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.BoldStyle.Render("Inferred types"))
		fmt.Fprintln(out, cli.RenderTypeConfidence(analysis.TypeConfidence))
	}

	if best, ok := analysis.BestSuggestion(model.TokenGroupID); ok {
		fmt.Fprintln(out)
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Group ID is most likely at position %d; try: grouper build <dir> --group-position %d --suggest",
			best.Position, best.Position)))
	}
}
