package inference

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/shot-grouper/internal/cache"
	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/tokenizer"
)

// ProgressFunc is called after each filename is tokenized.
type ProgressFunc func(done, total int)

// Analyzer tokenizes and analyzes sample sets, memoizing through an optional cache.
type Analyzer struct {
	cache  *cache.AnalysisCache
	logger *slog.Logger
	cfg    Config
}

// NewAnalyzer creates an analyzer. A nil cache disables memoization.
func NewAnalyzer(cfg Config, c *cache.AnalysisCache) *Analyzer {
	return &Analyzer{
		cfg:    cfg,
		cache:  c,
		logger: common.ComponentLogger("inference"),
	}
}

// Config returns the analyzer's thresholds.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Tokenize returns the tokens of one filename, served from the cache when possible.
func (a *Analyzer) Tokenize(filename string) []model.Token {
	if a.cache != nil {
		if tokens, ok := a.cache.GetTokens(filename); ok {
			return tokens
		}
	}

	tokens := tokenizer.Tokenize(filename)
	if a.cache != nil && filename != "" {
		// A rejected write only costs a recomputation later.
		a.cache.PutTokens(filename, tokens)
	}
	return tokens
}

// Analyze infers token types for a sample set.
func (a *Analyzer) Analyze(ctx context.Context, filenames []string) (*model.TokenAnalysis, error) {
	return a.AnalyzeWithProgress(ctx, filenames, nil)
}

// AnalyzeWithProgress is Analyze with a per-file progress callback. Duplicate and empty
// filenames are ignored. A cancelled context aborts the run without caching a result;
// tokens cached before cancellation stay valid.
func (a *Analyzer) AnalyzeWithProgress(ctx context.Context, filenames []string, progress ProgressFunc) (*model.TokenAnalysis, error) {
	files := uniqueNonEmpty(filenames)

	if a.cache != nil {
		if analysis, ok := a.cache.GetAnalysis(files); ok {
			a.logger.Debug("analysis cache hit", "files", len(files))
			if progress != nil {
				progress(len(files), len(files))
			}
			return analysis, nil
		}
	}

	start := time.Now()
	tokenized := make(map[string][]model.Token, len(files))
	for i, name := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		tokenized[name] = a.Tokenize(name)
		if progress != nil {
			progress(i+1, len(files))
		}
	}

	analysis := Infer(a.cfg, files, tokenized)

	if a.cache != nil {
		a.cache.PutAnalysis(files, analysis)
	}

	a.logger.Debug("analyzed sample set",
		"files", len(files),
		"suggestions", len(analysis.Suggestions),
		"duration", time.Since(start))

	return analysis, nil
}

func uniqueNonEmpty(filenames []string) []string {
	seen := make(map[string]struct{}, len(filenames))
	out := make([]string, 0, len(filenames))
	for _, name := range filenames {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
