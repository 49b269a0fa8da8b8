package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/model"
	"github.com/Veraticus/shot-grouper/internal/preset"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStorage opens a migrated database in a temporary directory.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDocument(name string) *preset.Document {
	return &preset.Document{
		Version:      preset.CurrentVersion,
		Name:         name,
		CreatedAt:    time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		GroupPattern: `^[^_\-.\s]+[_\-.\s]+([^_\-.\s]+)$`,
		FrontPattern: `(?i).*front.*`,
		Rules: []model.RoleRule{
			{Role: model.RoleFront, Type: model.RuleContains, Value: "front", Priority: 1},
		},
	}
}

func TestMigrate(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	require.NoError(t, store.Migrate(ctx), "migrating twice is a no-op")
}

func TestSavePreset(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	record, err := store.SavePreset(ctx, testDocument("lot-a"))
	require.NoError(t, err)

	_, err = uuid.Parse(record.ID)
	assert.NoError(t, err)
	assert.Equal(t, "lot-a", record.Name)
	assert.Equal(t, 0, record.UseCount)
	assert.Nil(t, record.LastUsedAt)
	assert.Equal(t, testDocument("lot-a").Rules, record.Document.Rules)
	assert.Equal(t, `(?i).*front.*`, record.Document.FrontPattern)
}

func TestSavePreset_UpsertKeepsID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, err := store.SavePreset(ctx, testDocument("lot-a"))
	require.NoError(t, err)

	updated := testDocument("lot-a")
	updated.RearPattern = `(?i).*rear.*`
	updated.FlexibleExtension = true
	second, err := store.SavePreset(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Document.FlexibleExtension)
	assert.Equal(t, `(?i).*rear.*`, second.Document.RearPattern)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

	all, err := store.ListPresets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSavePreset_Invalid(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SavePreset(ctx, nil)
	assert.True(t, errors.Is(err, ErrNilParameter))

	doc := testDocument("lot-a")
	doc.GroupPattern = ""
	_, err = store.SavePreset(ctx, doc)
	assert.True(t, errors.Is(err, ErrInvalidPreset))
	assert.True(t, errors.Is(err, common.ErrInvalidConfig))

	//nolint:staticcheck // nil context is the case under test
	_, err = store.SavePreset(nil, testDocument("x"))
	assert.True(t, errors.Is(err, ErrNilContext))
}

func TestGetPreset(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SavePreset(ctx, testDocument("lot-a"))
	require.NoError(t, err)

	got, err := store.GetPreset(ctx, "lot-a")
	require.NoError(t, err)
	assert.Equal(t, "lot-a", got.Document.Name)

	_, err = store.GetPreset(ctx, "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = store.GetPreset(ctx, "  ")
	assert.True(t, errors.Is(err, ErrEmptyString))
}

func TestListPresets(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	empty, err := store.ListPresets(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"zulu", "alpha", "mike"} {
		_, err := store.SavePreset(ctx, testDocument(name))
		require.NoError(t, err)
	}

	all, err := store.ListPresets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "mike", all[1].Name)
	assert.Equal(t, "zulu", all[2].Name)
}

func TestDeletePreset(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SavePreset(ctx, testDocument("lot-a"))
	require.NoError(t, err)

	require.NoError(t, store.DeletePreset(ctx, "lot-a"))
	_, err = store.GetPreset(ctx, "lot-a")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = store.DeletePreset(ctx, "lot-a")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestRecordPresetUse(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.SavePreset(ctx, testDocument("lot-a"))
	require.NoError(t, err)

	require.NoError(t, store.RecordPresetUse(ctx, "lot-a"))
	require.NoError(t, store.RecordPresetUse(ctx, "lot-a"))

	got, err := store.GetPreset(ctx, "lot-a")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UseCount)
	require.NotNil(t, got.LastUsedAt)

	err = store.RecordPresetUse(ctx, "missing")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}
