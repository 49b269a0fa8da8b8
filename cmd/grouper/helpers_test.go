package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.RoleRule
		wantErr bool
	}{
		{
			name:  "minimal",
			input: "front:contains:front",
			want:  model.RoleRule{Role: model.RoleFront, Type: model.RuleContains, Value: "front"},
		},
		{
			name:  "with priority",
			input: "rear:ends_with:_r.jpg:2",
			want:  model.RoleRule{Role: model.RoleRear, Type: model.RuleEndsWith, Value: "_r.jpg", Priority: 2},
		},
		{
			name:  "case sensitive",
			input: "overview:equals:OV.JPG:1:cs",
			want:  model.RoleRule{Role: model.RoleOverview, Type: model.RuleEquals, Value: "OV.JPG", Priority: 1, CaseSensitive: true},
		},
		{
			name:  "value with colon",
			input: "front:regex:a:b",
			want:  model.RoleRule{Role: model.RoleFront, Type: model.RuleRegexOverride, Value: "a:b"},
		},
		{
			name:  "dashed type",
			input: "Front:starts-with:f_",
			want:  model.RoleRule{Role: model.RoleFront, Type: model.RuleStartsWith, Value: "f_"},
		},
		{name: "too few fields", input: "front:contains", wantErr: true},
		{name: "unknown role", input: "side:contains:x", wantErr: true},
		{name: "unknown type", input: "front:like:x", wantErr: true},
		{name: "empty value", input: "front:contains:", wantErr: true},
		{name: "only options", input: "front:contains::3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRule(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRules(t *testing.T) {
	rules, err := parseRules([]string{"front:contains:f", "rear:contains:r"})
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	_, err = parseRules([]string{"front:contains:f", "bogus"})
	assert.Error(t, err)

	rules, err = parseRules(nil)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestParseTypeOverride(t *testing.T) {
	pos, typ, err := parseTypeOverride("2=camera-side")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	assert.Equal(t, model.TokenCameraSide, typ)

	for _, input := range []string{"2", "x=date", "1=color"} {
		_, _, err := parseTypeOverride(input)
		assert.Error(t, err, input)
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_rear.jpg", "a_front.jpg", ".DS_Store"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))

	files, err := listFiles(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_front.jpg", "b_rear.jpg"}, files)

	_, err = listFiles(context.Background(), filepath.Join(dir, "missing"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = listFiles(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
