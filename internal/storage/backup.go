package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/shot-grouper/internal/common"
)

// ErrBackupExists is returned when the backup destination is already present.
var ErrBackupExists = errors.New("backup destination already exists")

// Backup writes a consistent copy of the database to destPath, which must not exist.
func (s *SQLiteStorage) Backup(ctx context.Context, destPath string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(destPath, "destPath"); err != nil {
		return err
	}

	dest, err := filepath.Abs(destPath)
	if err != nil {
		return fmt.Errorf("failed to resolve backup path: %w", err)
	}
	// The path is inlined into VACUUM INTO, which cannot take a bound parameter.
	if strings.ContainsAny(dest, `'";`) {
		return fmt.Errorf("invalid backup path %q: contains forbidden characters", destPath)
	}
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrBackupExists, dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	// #nosec G201 - dest is validated above
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	common.LogInfo("backed up preset database", common.Fields{"source": s.dbPath, "dest": dest})
	return nil
}
