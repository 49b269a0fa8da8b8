package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Veraticus/shot-grouper/internal/cache"
	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/inference"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is the preset database location when the data directory is unknown.
const DefaultDatabasePath = "~/.local/share/grouper/presets.db"

// DefaultDebounceWindow is the quiescence window before validation runs.
const DefaultDebounceWindow = 300 * time.Millisecond

// EngineConfig holds every tunable of the grouping engine.
type EngineConfig struct {
	DatabasePath      string           `mapstructure:"database_path"`
	Inference         inference.Config `mapstructure:"inference"`
	Cache             cache.Config     `mapstructure:"cache"`
	DebounceWindow    time.Duration    `mapstructure:"debounce_window"`
	FlexibleExtension bool             `mapstructure:"flexible_extension"`
}

// DefaultEngineConfig returns the built-in defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Inference:      inference.DefaultConfig(),
		Cache:          cache.DefaultConfig(),
		DebounceWindow: DefaultDebounceWindow,
		DatabasePath:   defaultDatabasePath(),
	}
}

func defaultDatabasePath() string {
	dir, err := DataDir()
	if err != nil {
		return DefaultDatabasePath
	}
	return filepath.Join(dir, "presets.db")
}

// SetDefaults registers every engine key with its default so that config files and
// environment variables can override individual values.
func SetDefaults(v *viper.Viper) {
	d := DefaultEngineConfig()

	v.SetDefault("inference.extension_threshold", d.Inference.ExtensionThreshold)
	v.SetDefault("inference.camera_threshold", d.Inference.CameraThreshold)
	v.SetDefault("inference.date_threshold", d.Inference.DateThreshold)
	v.SetDefault("inference.index_threshold", d.Inference.IndexThreshold)
	v.SetDefault("inference.group_uniqueness_min", d.Inference.GroupUniquenessMin)
	v.SetDefault("inference.group_exclusion_max", d.Inference.GroupExclusionMax)
	v.SetDefault("inference.group_weight", d.Inference.GroupWeight)
	v.SetDefault("inference.affix_uniqueness_max", d.Inference.AffixUniquenessMax)
	v.SetDefault("inference.prefix_weight", d.Inference.PrefixWeight)
	v.SetDefault("inference.suffix_weight", d.Inference.SuffixWeight)
	v.SetDefault("inference.max_examples", d.Inference.MaxExamples)

	v.SetDefault("cache.max_memory_bytes", d.Cache.MaxMemoryBytes)
	v.SetDefault("cache.max_token_entries", d.Cache.MaxTokenEntries)
	v.SetDefault("cache.max_analysis_entries", d.Cache.MaxAnalysisEntries)
	v.SetDefault("cache.token_eviction_ratio", d.Cache.TokenEvictionRatio)
	v.SetDefault("cache.analysis_eviction_ratio", d.Cache.AnalysisEvictionRatio)

	v.SetDefault("debounce_window", d.DebounceWindow)
	v.SetDefault("flexible_extension", d.FlexibleExtension)
	v.SetDefault("database_path", d.DatabasePath)
}

// LoadEngineConfig reads the engine configuration from v, or from the global viper
// instance when v is nil. Precedence follows viper: flags, environment (GROUPER_*),
// config file, then defaults.
func LoadEngineConfig(v *viper.Viper) (*EngineConfig, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)

	cfg := DefaultEngineConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects out-of-range values.
func (c EngineConfig) Validate() error {
	if err := c.Inference.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("%w: debounce_window must be positive", common.ErrInvalidConfig)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database_path is required", common.ErrInvalidConfig)
	}
	return nil
}
