package docstorage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const fileExt = ".json"

// FileAdapter stores each document as <id>.json under a base directory.
type FileAdapter struct {
	mu       sync.RWMutex
	basePath string
}

// NewFileAdapter creates basePath if needed.
func NewFileAdapter(basePath string) (*FileAdapter, error) {
	if basePath == "" {
		basePath = "documents"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}
	return &FileAdapter{basePath: basePath}, nil
}

func (a *FileAdapter) path(id string) string {
	return filepath.Join(a.basePath, id+fileExt)
}

// Save replaces the file atomically through a temporary file and a rename.
func (a *FileAdapter) Save(ctx context.Context, id string, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	tmp, err := os.CreateTemp(a.basePath, "."+id+"-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	if err := os.Rename(tmp.Name(), a.path(id)); err != nil {
		return errors.Wrap(err, "failed to replace file")
	}
	return nil
}

func (a *FileAdapter) Load(ctx context.Context, id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	data, err := os.ReadFile(a.path(id))
	if os.IsNotExist(err) {
		return nil, ErrDocumentNotFound{ID: id}
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}
	return data, nil
}

func (a *FileAdapter) List(ctx context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries, err := os.ReadDir(a.basePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read directory")
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (a *FileAdapter) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.Remove(a.path(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove file")
	}
	return nil
}

func (a *FileAdapter) Close() error {
	return nil
}
