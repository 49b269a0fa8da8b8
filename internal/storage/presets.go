package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/shot-grouper/internal/common"
	"github.com/Veraticus/shot-grouper/internal/preset"
	"github.com/google/uuid"
)

// PresetRecord is a stored preset with its bookkeeping columns.
type PresetRecord struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt *time.Time
	Document   *preset.Document
	ID         string
	Name       string
	UseCount   int
}

// PresetStore is the preset persistence contract.
type PresetStore interface {
	SavePreset(ctx context.Context, doc *preset.Document) (*PresetRecord, error)
	GetPreset(ctx context.Context, name string) (*PresetRecord, error)
	ListPresets(ctx context.Context) ([]PresetRecord, error)
	DeletePreset(ctx context.Context, name string) error
	RecordPresetUse(ctx context.Context, name string) error
	Close() error
}

// Ensure SQLiteStorage implements PresetStore.
var _ PresetStore = (*SQLiteStorage)(nil)

// SavePreset inserts a preset, or replaces the preset with the same name keeping its ID
// and creation time.
func (s *SQLiteStorage) SavePreset(ctx context.Context, doc *preset.Document) (*PresetRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validatePreset(doc); err != nil {
		return nil, err
	}

	data, err := preset.Marshal(doc, preset.FormatJSON)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()

	var id string
	err = tx.QueryRowContext(ctx, `SELECT id FROM presets WHERE name = ?`, doc.Name).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		id = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO presets (
				id, name, description, group_pattern, flexible_extension, document, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, doc.Name, doc.Description, doc.GroupPattern, doc.FlexibleExtension, string(data), now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert preset: %w", err)
		}
		slog.Debug("created preset", "id", id, "name", doc.Name)
	case err != nil:
		return nil, fmt.Errorf("failed to look up preset: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE presets
			SET description = ?, group_pattern = ?, flexible_extension = ?, document = ?, updated_at = ?
			WHERE id = ?`,
			doc.Description, doc.GroupPattern, doc.FlexibleExtension, string(data), now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update preset: %w", err)
		}
		slog.Debug("updated preset", "id", id, "name", doc.Name)
	}

	record, err := getPresetTx(ctx, tx, doc.Name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit preset: %w", err)
	}
	return record, nil
}

// GetPreset returns the preset with the given name, or common.ErrNotFound.
func (s *SQLiteStorage) GetPreset(ctx context.Context, name string) (*PresetRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	return getPresetTx(ctx, s.db, name)
}

// ListPresets returns every preset ordered by name.
func (s *SQLiteStorage) ListPresets(ctx context.Context) ([]PresetRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, presetColumns+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query presets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []PresetRecord
	for rows.Next() {
		record, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating presets: %w", err)
	}

	return records, nil
}

// DeletePreset removes the preset with the given name, or returns common.ErrNotFound.
func (s *SQLiteStorage) DeletePreset(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return requireAffected(result, name)
}

// RecordPresetUse increments a preset's use count.
func (s *SQLiteStorage) RecordPresetUse(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE presets SET use_count = use_count + 1, last_used_at = ? WHERE name = ?`,
		time.Now().UTC(), name)
	if err != nil {
		return fmt.Errorf("failed to record preset use: %w", err)
	}
	return requireAffected(result, name)
}

const presetColumns = `
	SELECT id, name, document, created_at, updated_at, use_count, last_used_at
	FROM presets`

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getPresetTx(ctx context.Context, q queryer, name string) (*PresetRecord, error) {
	record, err := scanPreset(q.QueryRowContext(ctx, presetColumns+` WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preset %q: %w", name, common.ErrNotFound)
	}
	return record, err
}

func scanPreset(row scanner) (*PresetRecord, error) {
	var (
		record   PresetRecord
		document string
		lastUsed sql.NullTime
	)
	err := row.Scan(&record.ID, &record.Name, &document, &record.CreatedAt, &record.UpdatedAt,
		&record.UseCount, &lastUsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan preset: %w", err)
	}

	doc, err := preset.Decode(strings.NewReader(document), preset.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("stored preset %q is corrupt: %w", record.Name, err)
	}
	record.Document = doc
	if lastUsed.Valid {
		t := lastUsed.Time
		record.LastUsedAt = &t
	}

	return &record, nil
}

func requireAffected(result sql.Result, name string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("preset %q: %w", name, common.ErrNotFound)
	}
	return nil
}
