package session

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact categories inside one session workspace.
const (
	CategoryProducts      = "products"
	CategoryComposites    = "composites"
	CategoryFinalDesigns  = "final_designs"
	CategoryAnalysis      = "analysis"
	CategoryShoppingLists = "shopping_lists"
	CategoryDebug         = "debug"
)

// Categories lists every artifact subdirectory a session owns.
var Categories = []string{
	CategoryProducts,
	CategoryComposites,
	CategoryFinalDesigns,
	CategoryAnalysis,
	CategoryShoppingLists,
	CategoryDebug,
}

// Session is an isolated, timestamped workspace holding every artifact
// produced by one pipeline run. Exactly one run writes into a session.
type Session struct {
	ID   string
	Root string
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Path returns the directory for an artifact category.
func (s *Session) Path(category string) string {
	return filepath.Join(s.Root, category)
}

// Store writes a named artifact into a category directory and returns
// the full path.
func (s *Session) Store(category, name string, data []byte) (string, error) {
	if !validCategory(category) {
		return "", fmt.Errorf("unknown session category %q", category)
	}
	target := filepath.Join(s.Path(category), filepath.Base(name))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to store %s/%s: %w", category, name, err)
	}
	slog.Debug("Stored session artifact", "session_id", s.ID, "category", category, "name", name)
	return target, nil
}

// StoreFile copies an existing file into a category directory.
func (s *Session) StoreFile(category, name, srcPath string) (string, error) {
	if !validCategory(category) {
		return "", fmt.Errorf("unknown session category %q", category)
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer src.Close()

	target := filepath.Join(s.Path(category), filepath.Base(name))
	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy into %s/%s: %w", category, name, err)
	}
	return target, nil
}

// Read returns the bytes of a previously stored artifact.
func (s *Session) Read(category, name string) ([]byte, error) {
	if !validCategory(category) {
		return nil, fmt.Errorf("unknown session category %q", category)
	}
	return os.ReadFile(filepath.Join(s.Path(category), filepath.Base(name)))
}
