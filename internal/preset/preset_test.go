package preset

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/grouping"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfiguration(t *testing.T) *model.PatternConfiguration {
	t.Helper()
	tokens := tokenizer.Tokenize("car_001_front.jpg")
	group := tokens[1]
	cfg, err := grouping.BuildConfiguration(tokens, &group, []model.RoleRule{
		{Role: model.RoleFront, Type: model.RuleContains, Value: "front", Priority: 1},
		{Role: model.RoleRear, Type: model.RuleRegexOverride, Value: `.*_r(ear)?\.jpg`, Priority: 2, CaseSensitive: true},
	}, true)
	require.NoError(t, err)
	return cfg
}

func TestFromConfiguration(t *testing.T) {
	cfg := sampleConfiguration(t)

	doc, err := FromConfiguration("  lot-a  ", cfg)
	require.NoError(t, err)

	assert.Equal(t, "lot-a", doc.Name)
	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Equal(t, cfg.GroupPattern, doc.GroupPattern)
	assert.Equal(t, cfg.RolePattern(model.RoleFront), doc.FrontPattern)
	assert.Equal(t, cfg.RolePattern(model.RoleRear), doc.RearPattern)
	assert.Empty(t, doc.OverviewPattern)
	assert.True(t, doc.FlexibleExtension)
	assert.False(t, doc.CreatedAt.IsZero())

	doc.Rules[0].Value = "changed"
	assert.Equal(t, "front", cfg.Rules[0].Value, "document does not alias the configuration")
}

func TestFromConfiguration_Errors(t *testing.T) {
	_, err := FromConfiguration("", sampleConfiguration(t))
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))

	_, err = FromConfiguration("x", nil)
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestToConfiguration(t *testing.T) {
	cfg := sampleConfiguration(t)
	doc, err := FromConfiguration("lot-a", cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg, doc.ToConfiguration())
}

func TestEncodeDecode(t *testing.T) {
	cfg := sampleConfiguration(t)
	doc, err := FromConfiguration("lot-a", cfg)
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, doc, format))

			got, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, cfg, got.ToConfiguration())
			assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))
		})
	}
}

func TestEncode_YAMLUsesSnakeCaseKeys(t *testing.T) {
	doc, err := FromConfiguration("lot-a", sampleConfiguration(t))
	require.NoError(t, err)

	data, err := Marshal(doc, FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(data), "group_pattern:")
	assert.Contains(t, string(data), "case_sensitive: true")
	assert.Contains(t, string(data), "flexible_extension: true")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{name: "malformed json", format: FormatJSON, input: `{"name":`},
		{name: "unknown json field", format: FormatJSON, input: `{"version":1,"name":"a","group_pattern":"(x)","bogus":1}`},
		{name: "malformed yaml", format: FormatYAML, input: "name: [unterminated"},
		{name: "missing name", format: FormatYAML, input: "version: 1\ngroup_pattern: (x)\n"},
		{name: "future version", format: FormatJSON, input: `{"version":99,"name":"a","group_pattern":"(x)"}`},
		{name: "missing group pattern", format: FormatJSON, input: `{"version":1,"name":"a"}`},
		{
			name:   "bad rule role",
			format: FormatYAML,
			input:  "version: 1\nname: a\ngroup_pattern: (x)\nrules:\n  - role: side\n    type: contains\n    value: s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrInvalidConfig))
		})
	}

	_, err := Decode(strings.NewReader("{}"), Format("toml"))
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatForPath("a/b.YML"))
	assert.Equal(t, FormatYAML, FormatForPath("preset.yaml"))
	assert.Equal(t, FormatJSON, FormatForPath("preset.json"))
	assert.Equal(t, FormatJSON, FormatForPath("preset"))

	f, err := ParseFormat(" YAML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.True(t, errors.Is(err, common.ErrInvalidArgument))
}

func TestWriteReadFile(t *testing.T) {
	doc, err := FromConfiguration("lot-a", sampleConfiguration(t))
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"preset.json", "preset.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, doc))

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, doc.Name, got.Name)
		assert.Equal(t, doc.Rules, got.Rules)
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
