package main

import (
	"fmt"
	"os"
	"path/filepath"

	"alfredoptarigan/agentic-curie/internal/models"
)

func readNamedFiles(paths []string) ([]models.NamedFile, error) {
	files := make([]models.NamedFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, models.NamedFile{Filename: filepath.Base(p), Data: data})
	}
	return files, nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
