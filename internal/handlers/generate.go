package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/revibe-studio/revibe/internal/models"
)

// maxUploadBytes caps one room photo upload.
const maxUploadBytes = 10 * 1024 * 1024

// HandleGenerate runs the full pipeline for an uploaded room photo.
// The multipart form carries the image plus optional room_type,
// design_style, budget_tier, custom_instructions and mode fields.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		file, _, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read image: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, "Failed to read image contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(imageData) >= maxUploadBytes {
		h.writeError(w, "Image too large (max 10MB)", http.StatusBadRequest)
		return
	}

	mode, err := models.ParseMode(r.FormValue("mode"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	runCfg := models.RunConfig{
		RoomType:           r.FormValue("room_type"),
		DesignStyle:        r.FormValue("design_style"),
		BudgetTier:         r.FormValue("budget_tier"),
		CustomInstructions: r.FormValue("custom_instructions"),
		Mode:               mode,
	}

	sess, err := h.sessions.NewSession()
	if err != nil {
		h.writeError(w, "Failed to create session: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	result, err := h.runner.Run(ctx, imageData, runCfg, sess)
	if err != nil {
		stage := "pipeline"
		var stageErr *models.StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		h.writeJSONStatus(w, statusForError(err), map[string]any{
			"success":           false,
			"session_id":        sess.ID,
			"stage":             stage,
			"error":             err.Error(),
			"partial_artifacts": partialArtifacts(sess),
		})
		return
	}

	if err := h.sessions.PromoteLatest(sess); err != nil {
		slog.Warn("Failed to promote latest session", "session_id", sess.ID, "error", err)
	}

	h.writeJSON(w, result)
}
