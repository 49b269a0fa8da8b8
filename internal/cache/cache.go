// Package cache memoizes tokenization and sample-set analysis under a memory budget.
package cache

import (
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
)

// Flat costs used by the memory estimate.
const (
	tokenCost      = 64
	fileCost       = 256
	suggestionCost = 128
)

// Config bounds the cache.
type Config struct {
	MaxMemoryBytes        int64   `mapstructure:"max_memory_bytes"`
	MaxTokenEntries       int     `mapstructure:"max_token_entries"`
	MaxAnalysisEntries    int     `mapstructure:"max_analysis_entries"`
	TokenEvictionRatio    float64 `mapstructure:"token_eviction_ratio"`
	AnalysisEvictionRatio float64 `mapstructure:"analysis_eviction_ratio"`
}

// DefaultConfig returns the default cache ceilings: 50 MB, 10,000 token entries, 100 analyses.
func DefaultConfig() Config {
	return Config{
		MaxMemoryBytes:        50 * 1024 * 1024,
		MaxTokenEntries:       10_000,
		MaxAnalysisEntries:    100,
		TokenEvictionRatio:    0.2,
		AnalysisEvictionRatio: 0.5,
	}
}

// Validate checks that every ceiling is positive and every ratio lies in (0, 1].
func (c Config) Validate() error {
	if c.MaxMemoryBytes <= 0 {
		return fmt.Errorf("%w: cache max memory must be positive", common.ErrInvalidConfig)
	}
	if c.MaxTokenEntries <= 0 || c.MaxAnalysisEntries <= 0 {
		return fmt.Errorf("%w: cache entry ceilings must be positive", common.ErrInvalidConfig)
	}
	for _, r := range []float64{c.TokenEvictionRatio, c.AnalysisEvictionRatio} {
		if r <= 0 || r > 1 {
			return fmt.Errorf("%w: cache eviction ratio %v outside (0, 1]", common.ErrInvalidConfig, r)
		}
	}
	return nil
}

// Stats is a snapshot of cache counters.
type Stats struct {
	TokenEntries    int
	AnalysisEntries int
	MemoryBytes     int64
	Hits            int64
	Misses          int64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type analysisEntry struct {
	analysis *model.TokenAnalysis
	sorted   []string
}

// AnalysisCache holds two independent maps: filename to tokens, and sample set to analysis.
// Eviction removes the oldest inserted entries first; lookups do not refresh an entry.
type AnalysisCache struct {
	tokens        map[string][]model.Token
	analyses      map[uint64]analysisEntry
	tokenOrder    []string
	analysisOrder []uint64
	cfg           Config
	memory        int64
	hits          atomic.Int64
	misses        atomic.Int64
	mu            sync.RWMutex
}

// New creates an empty cache.
func New(cfg Config) *AnalysisCache {
	return &AnalysisCache{
		cfg:      cfg,
		tokens:   make(map[string][]model.Token),
		analyses: make(map[uint64]analysisEntry),
	}
}

// SampleSetKey hashes a filename list independent of its order.
func SampleSetKey(filenames []string) uint64 {
	return hashSorted(sortedCopy(filenames))
}

func sortedCopy(filenames []string) []string {
	sorted := slices.Clone(filenames)
	slices.Sort(sorted)
	return sorted
}

func hashSorted(sorted []string) uint64 {
	h := fnv.New64a()
	for _, name := range sorted {
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func tokensCost(filename string, tokens []model.Token) int64 {
	return int64(len(filename)*2 + len(tokens)*tokenCost)
}

func analysisCost(a *model.TokenAnalysis) int64 {
	if a == nil {
		return 0
	}
	return int64(len(a.Filenames)*fileCost + len(a.Suggestions)*suggestionCost)
}

// GetTokens returns a copy of the cached tokens of a filename.
func (c *AnalysisCache) GetTokens(filename string) ([]model.Token, bool) {
	c.mu.RLock()
	tokens, ok := c.tokens[filename]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return slices.Clone(tokens), true
}

// PutTokens stores the tokens of a filename. It returns false when the memory ceiling
// rejects the write.
func (c *AnalysisCache) PutTokens(filename string, tokens []model.Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cost := tokensCost(filename, tokens)
	old, exists := c.tokens[filename]
	if exists {
		cost -= tokensCost(filename, old)
	}
	if c.memory+cost > c.cfg.MaxMemoryBytes {
		common.LogDebug("token cache write rejected", common.Fields{
			"filename": filename,
			"memory":   c.memory,
		})
		return false
	}

	c.tokens[filename] = slices.Clone(tokens)
	if !exists {
		c.tokenOrder = append(c.tokenOrder, filename)
	}
	c.memory += cost

	if len(c.tokens) > c.cfg.MaxTokenEntries {
		c.evictTokens()
		c.recomputeMemory()
	}
	return true
}

// GetAnalysis returns the cached analysis of a sample set, in any order.
func (c *AnalysisCache) GetAnalysis(filenames []string) (*model.TokenAnalysis, bool) {
	sorted := sortedCopy(filenames)
	key := hashSorted(sorted)

	c.mu.RLock()
	entry, ok := c.analyses[key]
	c.mu.RUnlock()

	if !ok || !slices.Equal(entry.sorted, sorted) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.analysis, true
}

// PutAnalysis stores the analysis of a sample set. It returns false when the memory
// ceiling rejects the write.
func (c *AnalysisCache) PutAnalysis(filenames []string, analysis *model.TokenAnalysis) bool {
	sorted := sortedCopy(filenames)
	key := hashSorted(sorted)

	c.mu.Lock()
	defer c.mu.Unlock()

	cost := analysisCost(analysis)
	old, exists := c.analyses[key]
	if exists {
		cost -= analysisCost(old.analysis)
	}
	if c.memory+cost > c.cfg.MaxMemoryBytes {
		common.LogDebug("analysis cache write rejected", common.Fields{
			"files":  len(filenames),
			"memory": c.memory,
		})
		return false
	}

	c.analyses[key] = analysisEntry{analysis: analysis, sorted: sorted}
	if !exists {
		c.analysisOrder = append(c.analysisOrder, key)
	}
	c.memory += cost

	if len(c.analyses) > c.cfg.MaxAnalysisEntries {
		c.evictAnalyses()
		c.recomputeMemory()
	}
	return true
}

// evictTokens drops the oldest share of token entries, at least enough to get back under
// the entry ceiling. Callers hold the write lock.
func (c *AnalysisCache) evictTokens() {
	n := evictionCount(len(c.tokens), c.cfg.MaxTokenEntries, c.cfg.TokenEvictionRatio)
	for _, name := range c.tokenOrder[:n] {
		delete(c.tokens, name)
	}
	c.tokenOrder = slices.Clone(c.tokenOrder[n:])

	common.LogDebug("token cache evicted", common.Fields{"evicted": n, "remaining": len(c.tokens)})
}

func (c *AnalysisCache) evictAnalyses() {
	n := evictionCount(len(c.analyses), c.cfg.MaxAnalysisEntries, c.cfg.AnalysisEvictionRatio)
	for _, key := range c.analysisOrder[:n] {
		delete(c.analyses, key)
	}
	c.analysisOrder = slices.Clone(c.analysisOrder[n:])

	common.LogDebug("analysis cache evicted", common.Fields{"evicted": n, "remaining": len(c.analyses)})
}

func evictionCount(size, ceiling int, ratio float64) int {
	n := int(float64(size) * ratio)
	if over := size - ceiling; n < over {
		n = over
	}
	return min(n, size)
}

func (c *AnalysisCache) recomputeMemory() {
	var total int64
	for name, tokens := range c.tokens {
		total += tokensCost(name, tokens)
	}
	for _, entry := range c.analyses {
		total += analysisCost(entry.analysis)
	}
	c.memory = total
}

// Clear drops every entry and resets the counters.
func (c *AnalysisCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokens = make(map[string][]model.Token)
	c.analyses = make(map[uint64]analysisEntry)
	c.tokenOrder = nil
	c.analysisOrder = nil
	c.memory = 0
	c.hits.Store(0)
	c.misses.Store(0)
}

// Size returns the number of cached token entries.
func (c *AnalysisCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

// AnalysisCount returns the number of cached analyses.
func (c *AnalysisCache) AnalysisCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.analyses)
}

// MemoryUsage returns the current memory estimate in bytes.
func (c *AnalysisCache) MemoryUsage() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memory
}

// HitRate returns the fraction of lookups served from the cache.
func (c *AnalysisCache) HitRate() float64 {
	return c.Stats().HitRate()
}

// Stats returns a snapshot of the cache counters.
func (c *AnalysisCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		TokenEntries:    len(c.tokens),
		AnalysisEntries: len(c.analyses),
		MemoryBytes:     c.memory,
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
	}
}
