package inference

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/shot-grouper/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleSet = []string{
	"cap_X1Y_front.jpg",
	"cap_X1Y_rear.jpg",
	"cap_K9Z_front.jpg",
	"cap_K9Z_rear.jpg",
}

func TestAnalyzer_CachesAnalysis(t *testing.T) {
	c := cache.New(cache.DefaultConfig())
	a := NewAnalyzer(DefaultConfig(), c)
	ctx := context.Background()

	first, err := a.Analyze(ctx, sampleSet)
	require.NoError(t, err)

	reordered := []string{sampleSet[3], sampleSet[1], sampleSet[0], sampleSet[2]}
	second, err := a.Analyze(ctx, reordered)
	require.NoError(t, err)

	assert.Same(t, first, second, "same sample set in any order is served from the cache")
	assert.Equal(t, len(sampleSet), c.Size())
	assert.Equal(t, 1, c.AnalysisCount())
}

func TestAnalyzer_WithoutCache(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)

	analysis, err := a.Analyze(context.Background(), sampleSet)
	require.NoError(t, err)
	assert.Len(t, analysis.TokenizedFiles, len(sampleSet))
}

func TestAnalyzer_IgnoresDuplicatesAndEmpty(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), cache.New(cache.DefaultConfig()))

	analysis, err := a.Analyze(context.Background(), []string{"a_1.jpg", "", "a_1.jpg", "a_2.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_1.jpg", "a_2.jpg"}, analysis.Filenames)
}

func TestAnalyzer_Progress(t *testing.T) {
	a := NewAnalyzer(DefaultConfig(), nil)

	var calls []int
	_, err := a.AnalyzeWithProgress(context.Background(), sampleSet, func(done, total int) {
		assert.Equal(t, len(sampleSet), total)
		calls = append(calls, done)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)
}

func TestAnalyzer_CancelledLeavesCacheConsistent(t *testing.T) {
	c := cache.New(cache.DefaultConfig())
	a := NewAnalyzer(DefaultConfig(), c)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := a.AnalyzeWithProgress(ctx, sampleSet, func(done, _ int) {
		if done == 2 {
			cancel()
		}
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Equal(t, 2, c.Size(), "tokens computed before cancellation stay cached")
	assert.Zero(t, c.AnalysisCount(), "partial analyses are never stored")

	analysis, err := a.Analyze(context.Background(), sampleSet)
	require.NoError(t, err)
	assert.Len(t, analysis.TokenizedFiles, len(sampleSet))
}

func TestAnalyzer_TokenizeUsesCache(t *testing.T) {
	c := cache.New(cache.DefaultConfig())
	a := NewAnalyzer(DefaultConfig(), c)

	first := a.Tokenize("vehicle_001_front.jpg")
	second := a.Tokenize("vehicle_001_front.jpg")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), c.Stats().Hits)

	assert.Empty(t, a.Tokenize(""))
	assert.Equal(t, 1, c.Size(), "empty filenames are not cached")
}
