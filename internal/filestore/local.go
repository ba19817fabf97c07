package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/cmdguard/internal/config"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
)

type localStore struct {
	dir string
}

func init() {
	Register("local", createLocalStore)
}

func createLocalStore(cfg config.ArtifactStoreConfig) (Store, error) {
	return NewLocal(cfg.Dir), nil
}

// NewLocal returns a store rooted at dir. With an empty dir keys are plain file paths.
func NewLocal(dir string) Store {
	return &localStore{dir: dir}
}

func (s *localStore) Type() string {
	return "local"
}

func (s *localStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, appErr.ErrNotFound)
		}
		return nil, err
	}
	return f, nil
}

func (s *localStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("file key is required")
	}
	if s.dir == "" {
		return key, nil
	}
	clean := filepath.Clean(string(filepath.Separator) + key)
	full := filepath.Join(s.dir, clean)
	rel, err := filepath.Rel(s.dir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid file key: %s", key)
	}
	return full, nil
}
