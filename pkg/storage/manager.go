package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manager resolves output paths and writes output files
type Manager struct {
	outputDir string
}

// NewManager creates a new storage manager rooted at outputDir
func NewManager(outputDir string) (*Manager, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{outputDir: outputDir}, nil
}

// Path resolves name against the output directory. Absolute names are
// returned unchanged.
func (m *Manager) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether name already exists
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.Path(name))
	return err == nil
}

// WriteAtomic writes name through a temporary file that is renamed into
// place only after write succeeded, so readers never see a partial file
func (m *Manager) WriteAtomic(name string, write func(w io.Writer) error) error {
	filename := m.Path(name)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := filename + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	bw := bufio.NewWriter(out)
	err = write(bw)
	if err == nil {
		err = bw.Flush()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// OpenAppend opens name for appending, creating it if needed. The caller
// owns the returned file.
func (m *Manager) OpenAppend(name string) (*os.File, error) {
	filename := m.Path(name)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for append: %w", name, err)
	}

	return f, nil
}
