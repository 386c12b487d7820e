package media

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore is the object-storage boundary: upload by path, list by
// prefix, delete by path.
type ObjectStore interface {
	Put(ctx context.Context, path string, r io.Reader) (publicURL string, size int64, err error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, path string) error
}

// FSStore keeps objects on the local filesystem and builds public URLs
// from a fixed base.
type FSStore struct {
	root    string
	baseURL string
}

func NewFSStore(root, baseURL string) *FSStore {
	return &FSStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *FSStore) Put(ctx context.Context, path string, r io.Reader) (string, int64, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create object dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create object: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to write object: %w", err)
	}
	return s.baseURL + "/" + path, size, nil
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return paths, nil
}

func (s *FSStore) Delete(ctx context.Context, path string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
