package ops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// clearCacheDir removes the contents of dir, leaving dir itself in
// place. A missing directory is not an error. Entries that cannot be
// removed are expected while the owning application runs and are
// skipped.
func clearCacheDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = os.RemoveAll(filepath.Join(dir, entry.Name()))
	}
	return nil
}
