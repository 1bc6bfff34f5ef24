package generator

import (
	"fmt"
	"os"
	"path/filepath"
)

// Writer stores generated files in one output directory.
type Writer struct {
	OutputDir string
}

// NewWriter resolves outputDir against the working directory.
func NewWriter(outputDir string) *Writer {
	if !filepath.IsAbs(outputDir) {
		wd, _ := os.Getwd()
		outputDir = filepath.Join(wd, outputDir)
	}
	return &Writer{
		OutputDir: outputDir,
	}
}

// Write stores data under name and returns the full path.
func (w *Writer) Write(name string, data []byte) (string, error) {
	if err := w.ensureOutputDir(); err != nil {
		return "", err
	}
	filePath := filepath.Join(w.OutputDir, filepath.Base(name))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return filePath, nil
}

func (w *Writer) ensureOutputDir() error {
	if _, err := os.Stat(w.OutputDir); os.IsNotExist(err) {
		err = os.MkdirAll(w.OutputDir, os.ModePerm)
		if err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}
	return nil
}

func (w *Writer) Delete(filePath string) error {
	err := os.Remove(filePath)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
