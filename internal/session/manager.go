package session

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idTimestampLayout = "2006-01-02_15-04-05"

// Manager creates and administers session workspaces under a base
// directory: <base>/sessions/<id>/ for active sessions and
// <base>/archive/<id>/ for sessions taken out of the cleanable area.
type Manager struct {
	baseDir string
}

// Info summarizes one stored session for listings.
type Info struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Artifacts map[string]int `json:"artifacts"`
}

func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

func (m *Manager) sessionsDir() string { return filepath.Join(m.baseDir, "sessions") }
func (m *Manager) archiveDir() string  { return filepath.Join(m.baseDir, "archive") }

// NewSession allocates a unique timestamped workspace with all category
// subdirectories. The uuid suffix keeps concurrent runs from colliding
// on the same second.
func (m *Manager) NewSession() (*Session, error) {
	id := time.Now().Format(idTimestampLayout) + "_" + uuid.NewString()[:8]
	root := filepath.Join(m.sessionsDir(), id)
	for _, category := range Categories {
		if err := os.MkdirAll(filepath.Join(root, category), 0755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}
	slog.Info("Session created", "session_id", id, "path", root)
	return &Session{ID: id, Root: root}, nil
}

// Open returns a handle to an existing session.
func (m *Manager) Open(id string) (*Session, error) {
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") {
		return nil, fmt.Errorf("invalid session id %q", id)
	}
	root := filepath.Join(m.sessionsDir(), id)
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return &Session{ID: id, Root: root}, nil
}

// List returns stored sessions, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []Info
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "latest" {
			continue
		}
		info := Info{ID: entry.Name(), Artifacts: make(map[string]int)}
		if fi, err := entry.Info(); err == nil {
			info.CreatedAt = fi.ModTime()
		}
		for _, category := range Categories {
			files, err := os.ReadDir(filepath.Join(m.sessionsDir(), entry.Name(), category))
			if err != nil {
				continue
			}
			info.Artifacts[category] = len(files)
		}
		sessions = append(sessions, info)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID > sessions[j].ID })
	return sessions, nil
}

// PromoteLatest points the sessions/latest alias at the given session,
// replacing any previous alias. The link target is the sibling session
// name, not a path, so the alias resolves no matter whether the base
// directory is relative or absolute.
func (m *Manager) PromoteLatest(s *Session) error {
	latest := filepath.Join(m.sessionsDir(), "latest")
	if err := os.Remove(latest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove previous latest alias: %w", err)
	}
	if err := os.Symlink(s.ID, latest); err != nil {
		return fmt.Errorf("failed to promote session to latest: %w", err)
	}
	slog.Info("Promoted session to latest", "session_id", s.ID)
	return nil
}

// Archive copies a session out of the auto-cleanable area and returns
// the archive path.
func (m *Manager) Archive(id string) (string, error) {
	s, err := m.Open(id)
	if err != nil {
		return "", err
	}
	target := filepath.Join(m.archiveDir(), id)
	if err := copyTree(s.Root, target); err != nil {
		return "", fmt.Errorf("failed to archive session %s: %w", id, err)
	}
	slog.Info("Archived session", "session_id", id, "path", target)
	return target, nil
}

// CleanupOlderThan removes sessions last modified more than the given
// number of days ago. The latest alias and the archive are never touched.
func (m *Manager) CleanupOlderThan(days int) (int, error) {
	entries, err := os.ReadDir(m.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	// The alias and the session it points at survive any retention
	// window, so an idle service keeps its most recent result reachable.
	keep := map[string]bool{"latest": true}
	if target, err := os.Readlink(filepath.Join(m.sessionsDir(), "latest")); err == nil {
		keep[filepath.Base(target)] = true
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || keep[entry.Name()] {
			continue
		}
		fi, err := entry.Info()
		if err != nil || fi.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(m.sessionsDir(), entry.Name())); err != nil {
			slog.Warn("Failed to remove old session", "session_id", entry.Name(), "error", err)
			continue
		}
		slog.Info("Removed old session", "session_id", entry.Name())
		removed++
	}
	return removed, nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
