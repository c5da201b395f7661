package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/revibe-studio/revibe/internal/session"
)

// HandleSessions lists stored sessions, newest first.
func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sessions, err := h.sessions.List()
		if err != nil {
			h.writeError(w, "Failed to list sessions: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if sessions == nil {
			sessions = []session.Info{}
		}
		h.writeJSON(w, sessions)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type sessionDetail struct {
	ID        string              `json:"id"`
	Artifacts map[string][]string `json:"artifacts"`
}

// HandleSessionDetail returns the artifact inventory of one session.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sess, err := h.sessions.Open(sessionID)
	if err != nil {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	detail := sessionDetail{ID: sess.ID, Artifacts: make(map[string][]string)}
	for _, category := range session.Categories {
		entries, err := os.ReadDir(filepath.Join(sess.Root, category))
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if !entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		detail.Artifacts[category] = names
	}

	h.writeJSON(w, detail)
}
