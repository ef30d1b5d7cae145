package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSaver writes exports into a directory, replacing any earlier export
// with the same name.
type DirSaver struct {
	dir string
}

func NewDirSaver(dir string) *DirSaver {
	if dir == "" {
		dir = "."
	}
	return &DirSaver{dir: dir}
}

// Path is where an export named name ends up.
func (s *DirSaver) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func (s *DirSaver) Save(_ context.Context, name, _ string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := s.Path(name)
	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
