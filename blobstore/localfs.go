package blobstore

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
)

// LocalFS is a filesystem-backed Store. One file per key, written atomically
// via a temp file and rename, fsynced before the rename so a crash never
// leaves a half-written blob under a valid key.
type LocalFS struct {
	root string
}

// NewLocalFS constructs a store rooted at root. The directory is created if
// needed.
func NewLocalFS(root string) (*LocalFS, error) {
	if root == "" {
		return nil, errors.New("blobstore: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalFS{root: root}, nil
}

func (s *LocalFS) pathFor(key string) string {
	return filepath.Join(s.root, key)
}

func (s *LocalFS) Put(key string, b []byte) error {
	if err := CheckKey(key); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, ".put-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.pathFor(key)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *LocalFS) Get(key string) ([]byte, error) {
	if err := CheckKey(key); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *LocalFS) Has(key string) bool {
	if err := CheckKey(key); err != nil {
		return false
	}
	_, err := os.Stat(s.pathFor(key))
	return err == nil
}

func (s *LocalFS) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if CheckKey(e.Name()) != nil {
			// Temp files and foreign names are not keys.
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}
