package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleArtifact serves one stored artifact at
// /api/artifacts/{session}/{category}/{name}. Session and name are
// validated against path traversal before anything touches the disk.
func (h *Handler) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/artifacts/"), "/")
	if len(parts) != 3 {
		h.writeError(w, "Expected /api/artifacts/{session}/{category}/{name}", http.StatusBadRequest)
		return
	}
	sessionID, category, name := parts[0], parts[1], parts[2]

	sess, err := h.sessions.Open(sessionID)
	if err != nil {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		h.writeError(w, "Invalid artifact name", http.StatusBadRequest)
		return
	}
	if _, err := sess.Read(category, name); err != nil {
		h.writeError(w, "Artifact not found", http.StatusNotFound)
		return
	}

	http.ServeFile(w, r, filepath.Join(sess.Path(category), name))
}
