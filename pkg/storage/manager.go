package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	errs "galleryscraper/pkg/errors"
)

// Manager writes images into the output directory
type Manager struct {
	outputDir string
}

// NewManager creates the output directory if needed and checks that it
// accepts new files. An unusable directory is a write error.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errs.NewWriteError(outputDir, fmt.Errorf("failed to create output directory: %w", err))
	}

	info, err := os.Stat(outputDir)
	if err != nil {
		return nil, errs.NewWriteError(outputDir, err)
	}
	if !info.IsDir() {
		return nil, errs.NewWriteError(outputDir, fmt.Errorf("not a directory"))
	}

	tmp, err := os.CreateTemp(outputDir, ".galleryscraper-*")
	if err != nil {
		return nil, errs.NewWriteError(outputDir, fmt.Errorf("output directory is not writable: %w", err))
	}
	tmp.Close()
	os.Remove(tmp.Name())

	return &Manager{outputDir: outputDir}, nil
}

// Path returns the target path of a file name
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists checks if a file with the given name is already in the output directory
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// Save writes r to name, replacing any existing file. The data goes to a
// temporary file first and is renamed into place, so readers never see a
// partial image.
func (m *Manager) Save(r io.Reader, name string) (string, error) {
	target := m.Path(name)

	out, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return "", errs.NewWriteError(target, fmt.Errorf("failed to create temporary file: %w", err))
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", errs.NewWriteError(target, fmt.Errorf("failed to save image data: %w", err))
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", errs.NewWriteError(target, fmt.Errorf("failed to close file: %w", closeErr))
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", errs.NewWriteError(target, err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return "", errs.NewWriteError(target, fmt.Errorf("failed to rename temporary file: %w", err))
	}

	return target, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}
