package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const (
	reportFileMode = 0o644
	reportDirMode  = 0o750
)

// FileStateRepository persists run reports as JSON files.
type FileStateRepository struct{}

var _ repositories.StateRepository = (*FileStateRepository)(nil)

// NewFileStateRepository creates a new FileStateRepository.
func NewFileStateRepository() *FileStateRepository {
	return &FileStateRepository{}
}

// Open prepares the report destination, creating missing parent directories.
func (it *FileStateRepository) Open(path string) (entities.StatePersister, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid report path %q: %w", path, err)
	}
	if err = os.MkdirAll(filepath.Dir(abs), reportDirMode); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &FilePersister{path: abs}, nil
}

// FilePersister replaces the report file atomically on every snapshot.
type FilePersister struct {
	path string
}

var _ entities.StatePersister = (*FilePersister)(nil)

// Path returns the report file.
func (it *FilePersister) Path() string {
	return it.path
}

// Persist writes the snapshot to a temp file next to the report and renames it.
func (it *FilePersister) Persist(snapshot []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(it.path), filepath.Base(it.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(snapshot); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp report: %w", err)
	}
	if err = os.Chmod(tmpName, reportFileMode); err != nil {
		return fmt.Errorf("failed to chmod temp report: %w", err)
	}
	if err = os.Rename(tmpName, it.path); err != nil {
		return fmt.Errorf("failed to replace report: %w", err)
	}
	return nil
}
