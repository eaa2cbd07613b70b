package docqa

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadDir reads every .txt and .md file directly under dir, sorted by name.
// Empty files are skipped. Other extensions are ignored so the knowledge
// directory can hold notes and assets without breaking ingestion.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document dir: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", entry.Name(), err)
		}
		content := strings.TrimSpace(string(raw))
		if content == "" {
			slog.Warn("skipping empty document", "file", entry.Name())
			continue
		}
		docs = append(docs, Document{Name: entry.Name(), Content: content})
	}

	slog.Info("documents loaded", "dir", dir, "count", len(docs))
	return docs, nil
}
