package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens(values ...string) []model.Token {
	tokens := make([]model.Token, len(values))
	for i, v := range values {
		tokens[i] = model.NewToken(v, i)
	}
	return tokens
}

func TestSampleSetKey_OrderIndependent(t *testing.T) {
	a := SampleSetKey([]string{"a.jpg", "b.jpg", "c.jpg"})
	b := SampleSetKey([]string{"c.jpg", "a.jpg", "b.jpg"})
	c := SampleSetKey([]string{"a.jpg", "b.jpg"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSampleSetKey_DoesNotMutateInput(t *testing.T) {
	names := []string{"z", "a"}
	SampleSetKey(names)
	assert.Equal(t, []string{"z", "a"}, names)
}

func TestAnalysisCache_Tokens(t *testing.T) {
	c := New(DefaultConfig())

	_, ok := c.GetTokens("car_1.jpg")
	assert.False(t, ok)

	require.True(t, c.PutTokens("car_1.jpg", testTokens("car", "1", "jpg")))
	got, ok := c.GetTokens("car_1.jpg")
	require.True(t, ok)
	assert.Equal(t, testTokens("car", "1", "jpg"), got)

	got[0].Value = "mutated"
	again, _ := c.GetTokens("car_1.jpg")
	assert.Equal(t, "car", again[0].Value, "returned slices must not alias cached data")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 1e-9)
}

func TestAnalysisCache_MemoryEstimate(t *testing.T) {
	c := New(DefaultConfig())
	require.True(t, c.PutTokens("abcd", testTokens("abcd")))
	assert.Equal(t, int64(4*2+tokenCost), c.MemoryUsage())

	// Overwrite replaces the old cost rather than adding to it.
	require.True(t, c.PutTokens("abcd", testTokens("ab", "cd")))
	assert.Equal(t, int64(4*2+2*tokenCost), c.MemoryUsage())

	analysis := &model.TokenAnalysis{
		Filenames:   []string{"a", "b"},
		Suggestions: []model.TokenSuggestion{{Type: model.TokenIndex}},
	}
	require.True(t, c.PutAnalysis([]string{"a", "b"}, analysis))
	assert.Equal(t, int64(4*2+2*tokenCost+2*fileCost+suggestionCost), c.MemoryUsage())
}

func TestAnalysisCache_RejectsWritesOverMemoryCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMemoryBytes = 150
	c := New(cfg)

	assert.True(t, c.PutTokens("a", testTokens("a")))
	assert.True(t, c.PutTokens("b", testTokens("b")))
	assert.False(t, c.PutTokens("c", testTokens("c")), "third entry exceeds 150 bytes")

	_, ok := c.GetTokens("c")
	assert.False(t, ok)
	assert.LessOrEqual(t, c.MemoryUsage(), cfg.MaxMemoryBytes)
}

func TestAnalysisCache_TokenEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokenEntries = 10
	c := New(cfg)

	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("file_%02d.jpg", i)
		require.True(t, c.PutTokens(name, testTokens("file", fmt.Sprint(i), "jpg")))
		assert.LessOrEqual(t, c.Size(), cfg.MaxTokenEntries)
	}

	// The oldest entries go first, so the first file is gone and the last remains.
	_, ok := c.GetTokens("file_00.jpg")
	assert.False(t, ok, "evicted keys report not found")
	_, ok = c.GetTokens("file_24.jpg")
	assert.True(t, ok)
}

func TestAnalysisCache_EvictionRecomputesMemory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokenEntries = 5
	c := New(cfg)

	for i := 0; i < 6; i++ {
		require.True(t, c.PutTokens(fmt.Sprintf("f%d", i), testTokens("x")))
	}

	var want int64
	for i := 6 - c.Size(); i < 6; i++ {
		want += int64(2*2 + tokenCost)
	}
	assert.Equal(t, want, c.MemoryUsage())
}

func TestAnalysisCache_AnalysisEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAnalysisEntries = 4
	c := New(cfg)

	for i := 0; i < 5; i++ {
		files := []string{fmt.Sprintf("set%d_a", i), fmt.Sprintf("set%d_b", i)}
		require.True(t, c.PutAnalysis(files, &model.TokenAnalysis{Filenames: files}))
	}

	// Five entries over a ceiling of four evicts half (two) of them.
	assert.Equal(t, 3, c.AnalysisCount())
	_, ok := c.GetAnalysis([]string{"set0_a", "set0_b"})
	assert.False(t, ok)
	_, ok = c.GetAnalysis([]string{"set4_b", "set4_a"})
	assert.True(t, ok)
}

func TestAnalysisCache_AnalysisLookupIgnoresOrder(t *testing.T) {
	c := New(DefaultConfig())
	analysis := &model.TokenAnalysis{Filenames: []string{"b", "a"}}
	require.True(t, c.PutAnalysis([]string{"b", "a"}, analysis))

	got, ok := c.GetAnalysis([]string{"a", "b"})
	require.True(t, ok)
	assert.Same(t, analysis, got)

	_, ok = c.GetAnalysis([]string{"a", "b", "c"})
	assert.False(t, ok)
}

func TestAnalysisCache_Clear(t *testing.T) {
	c := New(DefaultConfig())
	require.True(t, c.PutTokens("a", testTokens("a")))
	require.True(t, c.PutAnalysis([]string{"a"}, &model.TokenAnalysis{Filenames: []string{"a"}}))
	c.GetTokens("a")

	c.Clear()

	stats := c.Stats()
	assert.Zero(t, stats.TokenEntries)
	assert.Zero(t, stats.AnalysisEntries)
	assert.Zero(t, stats.MemoryBytes)
	assert.Zero(t, stats.Hits)
	assert.Zero(t, c.HitRate())
}

func TestAnalysisCache_ConcurrentAccess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTokenEntries = 50
	c := New(cfg)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				name := fmt.Sprintf("w%d_%d", w, i)
				c.PutTokens(name, testTokens(name))
				c.GetTokens(name)
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), cfg.MaxTokenEntries)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.TokenEvictionRatio = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxAnalysisEntries = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxMemoryBytes = 0
	assert.Error(t, cfg.Validate())
}
