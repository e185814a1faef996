package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goliatone/go-mixinsform/pkg/schema"
)

func loadFile(ctx context.Context, path string, limit int64) ([]byte, error) {
	if path == "" {
		return nil, errors.New("loader: file path is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loader: %s: %w", abs, schema.ErrNotFound)
		}
		return nil, err
	}
	if limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("loader: %s (%d bytes): %w", abs, info.Size(), schema.ErrTooLarge)
	}
	return os.ReadFile(abs)
}
