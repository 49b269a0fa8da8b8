// Package preset converts pattern configurations to and from shareable preset documents.
package preset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the document version written by this package.
const CurrentVersion = 1

// Format is a serialization format for documents.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the persisted form of a pattern configuration.
type Document struct {
	CreatedAt         time.Time        `json:"created_at" yaml:"created_at"`
	GroupToken        *model.Token     `json:"group_token,omitempty" yaml:"group_token,omitempty"`
	Name              string           `json:"name" yaml:"name"`
	Description       string           `json:"description,omitempty" yaml:"description,omitempty"`
	GroupPattern      string           `json:"group_pattern" yaml:"group_pattern"`
	OverviewPattern   string           `json:"overview_pattern,omitempty" yaml:"overview_pattern,omitempty"`
	FrontPattern      string           `json:"front_pattern,omitempty" yaml:"front_pattern,omitempty"`
	RearPattern       string           `json:"rear_pattern,omitempty" yaml:"rear_pattern,omitempty"`
	Rules             []model.RoleRule `json:"rules" yaml:"rules"`
	Tokens            []model.Token    `json:"tokens,omitempty" yaml:"tokens,omitempty"`
	Version           int              `json:"version" yaml:"version"`
	FlexibleExtension bool             `json:"flexible_extension" yaml:"flexible_extension"`
}

// FromConfiguration builds a named document from a configuration.
func FromConfiguration(name string, cfg *model.PatternConfiguration) (*Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: preset name cannot be empty", common.ErrInvalidArgument)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: configuration cannot be nil", common.ErrInvalidArgument)
	}

	c := cfg.Clone()
	return &Document{
		Version:           CurrentVersion,
		Name:              name,
		CreatedAt:         time.Now().UTC(),
		GroupPattern:      c.GroupPattern,
		OverviewPattern:   c.RolePattern(model.RoleOverview),
		FrontPattern:      c.RolePattern(model.RoleFront),
		RearPattern:       c.RolePattern(model.RoleRear),
		Rules:             c.Rules,
		GroupToken:        c.GroupToken,
		Tokens:            c.Tokens,
		FlexibleExtension: c.FlexibleExtension,
	}, nil
}

// ToConfiguration restores the configuration stored in a document.
func (d *Document) ToConfiguration() *model.PatternConfiguration {
	cfg := model.NewPatternConfiguration()
	cfg.GroupPattern = d.GroupPattern
	cfg.FlexibleExtension = d.FlexibleExtension
	cfg.Rules = append([]model.RoleRule{}, d.Rules...)
	cfg.Tokens = append([]model.Token(nil), d.Tokens...)
	if d.GroupToken != nil {
		tok := *d.GroupToken
		cfg.GroupToken = &tok
	}
	for role, p := range map[model.ImageRole]string{
		model.RoleOverview: d.OverviewPattern,
		model.RoleFront:    d.FrontPattern,
		model.RoleRear:     d.RearPattern,
	} {
		if p != "" {
			cfg.RolePatterns[role] = p
		}
	}
	return cfg
}

// Validate checks the fields a document needs to be usable.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: preset name is required", common.ErrInvalidConfig)
	}
	if d.Version <= 0 || d.Version > CurrentVersion {
		return fmt.Errorf("%w: unsupported preset version %d", common.ErrInvalidConfig, d.Version)
	}
	if d.GroupPattern == "" {
		return fmt.Errorf("%w: preset %q has no group pattern", common.ErrInvalidConfig, d.Name)
	}
	for i, r := range d.Rules {
		if !r.Role.IsValid() || !r.Type.IsValid() {
			return fmt.Errorf("%w: preset %q rule %d is malformed", common.ErrInvalidConfig, d.Name, i+1)
		}
	}
	return nil
}

// FormatForPath picks the format from a file extension. Unknown extensions use JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown preset format %q (valid: json, yaml)", common.ErrInvalidArgument, s)
}

// Encode writes a document.
func Encode(w io.Writer, d *Document, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode preset as yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("failed to encode preset as json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown preset format %q", common.ErrInvalidArgument, format)
}

// Decode reads and validates a document.
func Decode(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}

	var d Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("%w: yaml parse error: %w", common.ErrInvalidConfig, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("%w: json parse error: %w", common.ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown preset format %q", common.ErrInvalidArgument, format)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Marshal encodes a document to bytes.
func Marshal(d *Document, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, d, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a document to path in the format its extension implies.
func WriteFile(path string, d *Document) error {
	data, err := Marshal(d, FormatForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}
	return nil
}

// ReadFile reads a document from path in the format its extension implies.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to open preset file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f, FormatForPath(path))
}
