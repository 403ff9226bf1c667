package avatar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DiskStore writes avatars into a local directory that the server exposes
// under URLPrefix.
type DiskStore struct {
	dir       string
	urlPrefix string
	logger    *slog.Logger
}

// NewDiskStore creates dir if needed. urlPrefix is the public path the
// directory is served at, e.g. "/avatars".
func NewDiskStore(dir, urlPrefix string, logger *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("avatar: creating %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, urlPrefix: urlPrefix, logger: logger}, nil
}

// Dir returns the directory files are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes r to <dir>/<key>. The file is written under a temporary name
// and renamed, so a reader never sees a partial image.
func (s *DiskStore) Save(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	if key == "" || filepath.Base(key) != key {
		return "", fmt.Errorf("avatar: invalid key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("avatar: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("avatar: writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("avatar: closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key)); err != nil {
		return "", fmt.Errorf("avatar: storing %s: %w", key, err)
	}

	s.logger.Debug("avatar stored on disk", slog.String("key", key))
	return s.urlPrefix + "/" + key, nil
}
