package main

import (
	"fmt"

	"github.com/Veraticus/shot-grouper/internal/cli"
	"github.com/Veraticus/shot-grouper/internal/config"
	"github.com/spf13/cobra"
)

func tokenizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokenize <filename>...",
		Short: "Split filenames into tokens and infer their types",
		Long: `Tokenize one or more filenames. When several are given they are analyzed
together, so each token is labeled with the type inferred across the set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadEngineConfig(nil)
			if err != nil {
				return err
			}

			analysis, err := newAnalyzer(cfg).Analyze(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, name := range analysis.Filenames {
				if i > 0 {
					fmt.Fprintln(out)
				}
				tokens, _ := analysis.TokensFor(name)
				fmt.Fprintln(out, cli.RenderTokens(name, tokens))
			}
			return nil
		},
	}
}
