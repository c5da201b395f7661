// Package handlers exposes the design generation pipeline over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/revibe-studio/revibe/internal/config"
	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

// Runner executes one design generation inside a session. The pipeline
// satisfies it; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, imageData []byte, cfg models.RunConfig, sess *session.Session) (*models.DesignResult, error)
}

type Handler struct {
	cfg      *config.Config
	sessions *session.Manager
	runner   Runner
}

func New(cfg *config.Config, sessions *session.Manager, runner Runner) *Handler {
	return &Handler{
		cfg:      cfg,
		sessions: sessions,
		runner:   runner,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// statusForError maps the pipeline error taxonomy onto HTTP status
// codes: bad uploads are the client's fault, timeouts and upstream
// service failures are not.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrAnalysisFailed),
		errors.Is(err, models.ErrSynthesisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// partialArtifacts counts the files a failed run left behind per
// category, so clients can still retrieve debug output.
func partialArtifacts(sess *session.Session) map[string]int {
	artifacts := make(map[string]int)
	for _, category := range session.Categories {
		entries, err := os.ReadDir(filepath.Join(sess.Root, category))
		if err != nil {
			continue
		}
		if len(entries) > 0 {
			artifacts[category] = len(entries)
		}
	}
	return artifacts
}
