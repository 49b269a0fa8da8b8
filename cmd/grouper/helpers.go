package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/cache"
	"github.com/Veraticus/shot-grouper/internal/config"
	"github.com/Veraticus/shot-grouper/internal/inference"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/storage"
)

// initStorage opens the preset database and applies migrations.
func initStorage(ctx context.Context, cfg *config.EngineConfig) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	slog.Debug("opened preset database", "path", store.Path())
	return store, nil
}

// closeStorage closes the store, logging failures.
func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// newAnalyzer builds an analyzer with a cache sized from cfg.
func newAnalyzer(cfg *config.EngineConfig) *inference.Analyzer {
	return inference.NewAnalyzer(cfg.Inference, cache.New(cfg.Cache))
}

// listFiles returns the names of the regular files directly inside dir, sorted.
// Hidden files are skipped.
func listFiles(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	slog.Debug("listed directory", "dir", filepath.Clean(dir), "files", len(names))
	return names, nil
}

// parseRule parses role:type:value[:priority[:cs]]. The value may contain colons when
// it is the last field; priority and case sensitivity are only read when present.
func parseRule(raw string) (model.RoleRule, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) < 3 {
		return model.RoleRule{}, fmt.Errorf("invalid rule %q: expected role:type:value[:priority[:cs]]", raw)
	}

	role, err := model.ParseImageRole(parts[0])
	if err != nil {
		return model.RoleRule{}, fmt.Errorf("invalid rule %q: %w", raw, err)
	}
	ruleType, err := model.ParseRuleType(parts[1])
	if err != nil {
		return model.RoleRule{}, fmt.Errorf("invalid rule %q: %w", raw, err)
	}

	rule := model.RoleRule{Role: role, Type: ruleType, Value: parts[2]}

	// Trailing ":N" and ":N:cs" are options, anything else belongs to the value.
	value := parts[2]
	if i := strings.LastIndex(value, ":"); i >= 0 && strings.EqualFold(value[i+1:], "cs") {
		if j := strings.LastIndex(value[:i], ":"); j >= 0 {
			if p, err := strconv.Atoi(value[j+1 : i]); err == nil {
				rule.Value = value[:j]
				rule.Priority = p
				rule.CaseSensitive = true
				return rule, nil
			}
		}
	}
	if i := strings.LastIndex(value, ":"); i >= 0 {
		if p, err := strconv.Atoi(value[i+1:]); err == nil {
			rule.Value = value[:i]
			rule.Priority = p
		}
	}

	if rule.Value == "" {
		return model.RoleRule{}, fmt.Errorf("invalid rule %q: value cannot be empty", raw)
	}
	return rule, nil
}

// parseRules parses every --rule flag value.
func parseRules(values []string) ([]model.RoleRule, error) {
	rules := make([]model.RoleRule, 0, len(values))
	for _, raw := range values {
		rule, err := parseRule(raw)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// parseTypeOverride parses POS=TYPE.
func parseTypeOverride(raw string) (int, model.TokenType, error) {
	posText, typeText, ok := strings.Cut(raw, "=")
	if !ok {
		return 0, "", fmt.Errorf("invalid type override %q: expected POS=TYPE", raw)
	}
	pos, err := strconv.Atoi(strings.TrimSpace(posText))
	if err != nil {
		return 0, "", fmt.Errorf("invalid type override %q: position must be a number", raw)
	}
	t := model.TokenType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(typeText)), "-", "_"))
	if !t.IsValid() {
		return 0, "", fmt.Errorf("invalid type override %q: unknown token type", raw)
	}
	return pos, t, nil
}
