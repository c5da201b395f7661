// Package pipeline orchestrates the full design generation run: vision
// analysis, product search, composite layout, image synthesis, and the
// finalize bookkeeping. Stage implementations live in their own
// packages; the orchestrator owns ordering, timing and failure policy.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/revibe-studio/revibe/internal/composite"
	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/perf"
	"github.com/revibe-studio/revibe/internal/prompts"
	"github.com/revibe-studio/revibe/internal/session"
	"github.com/revibe-studio/revibe/internal/shopping"
	"github.com/revibe-studio/revibe/internal/synthesis"
	"github.com/revibe-studio/revibe/internal/vision"
)

// Stage names as they appear in step timings and failure responses.
const (
	StageAnalysis  = "analysis"
	StageSearch    = "product_search"
	StageComposite = "composite"
	StageSynthesis = "synthesis"
	StageFinalize  = "finalize"
)

// Analyzer produces the structured design analysis for a room photo.
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte, format string, cfg models.RunConfig, params vision.Params) (*models.Analysis, error)
}

// ProductSearcher finds and downloads purchasable product candidates
// for the analysis recommendations.
type ProductSearcher interface {
	Search(ctx context.Context, analysis *models.Analysis, style string, sess *session.Session, params shopping.Params) ([]models.ProductCandidate, shopping.Stats, error)
}

// CompositeBuilder renders the base photo and candidates into the grid
// image used as synthesis input.
type CompositeBuilder interface {
	Build(basePath string, candidates []models.ProductCandidate, sess *session.Session, params composite.Params) (*composite.Composite, error)
}

// Synthesizer generates the final design image from the composite.
type Synthesizer interface {
	Generate(ctx context.Context, compositePaths []string, prompt string, params synthesis.Params) ([]byte, error)
}

// Pipeline wires the four stages together with one mode table.
type Pipeline struct {
	analyzer    Analyzer
	searcher    ProductSearcher
	builder     CompositeBuilder
	synthesizer Synthesizer
	modes       ModeTable
}

func New(analyzer Analyzer, searcher ProductSearcher, builder CompositeBuilder, synthesizer Synthesizer, modes ModeTable) *Pipeline {
	if modes == nil {
		modes = DefaultModeTable()
	}
	return &Pipeline{
		analyzer:    analyzer,
		searcher:    searcher,
		builder:     builder,
		synthesizer: synthesizer,
		modes:       modes,
	}
}

// Run executes one full design generation inside the given session.
// Analysis, composite and synthesis failures abort the run; individual
// product-search failures do not. The input image is validated before
// any external service is called.
func (p *Pipeline) Run(ctx context.Context, imageData []byte, cfg models.RunConfig, sess *session.Session) (*models.DesignResult, error) {
	format, err := validateImage(imageData)
	if err != nil {
		return nil, err
	}

	params, ok := p.modes[cfg.Mode]
	if !ok {
		params = DefaultParams(cfg.Mode)
	}

	tracker := perf.NewTracker(sess.ID, cfg.Mode)
	defer tracker.Finish(false, 0)

	basePath, err := sess.Store(session.CategoryDebug, "source_image."+format, imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to store source image: %w", err)
	}

	slog.Info("Starting design generation", "session_id", sess.ID, "mode", cfg.Mode,
		"style", cfg.DesignStyle, "room_type", cfg.RoomType)

	// Stage 1: vision analysis.
	tracker.Begin(StageAnalysis)
	analysis, err := p.analyzer.Analyze(ctx, imageData, format, cfg, params.Analysis)
	if err != nil {
		return p.fail(ctx, tracker, sess, StageAnalysis, err, nil)
	}
	tracker.End(StageAnalysis, true, map[string]any{
		"recommendations": len(analysis.Recommendations),
		"style":           analysis.Style,
	})
	if err := storeAnalysis(sess, analysis); err != nil {
		slog.Warn("Failed to persist analysis artifact", "session_id", sess.ID, "error", err)
	}

	style := cfg.DesignStyle
	if style == "" {
		style = analysis.Style
	}

	// Stage 2: product search. Zero candidates is a degraded run, not a
	// failure; the synthesis stage then restyles the base image alone.
	tracker.Begin(StageSearch)
	products, stats, err := p.searcher.Search(ctx, analysis, style, sess, params.Search)
	if err != nil {
		return p.fail(ctx, tracker, sess, StageSearch, err, stats.Metadata())
	}
	tracker.End(StageSearch, true, stats.Metadata())

	// Stage 3: composite layout.
	tracker.Begin(StageComposite)
	comp, err := p.builder.Build(basePath, products, sess, params.Composite)
	if err != nil {
		return p.fail(ctx, tracker, sess, StageComposite, err, nil)
	}
	products = dropSkipped(products, comp.Skipped)
	tracker.End(StageComposite, true, map[string]any{
		"size":     fmt.Sprintf("%dx%d", comp.Width, comp.Height),
		"products": len(products),
		"skipped":  len(comp.Skipped),
	})

	// Stage 4: image synthesis.
	prompt := prompts.Synthesis(products)
	if len(products) == 0 {
		prompt = prompts.SynthesisBaseOnly(cfg)
	}
	tracker.Begin(StageSynthesis)
	designData, err := p.synthesizer.Generate(ctx, []string{comp.Path}, prompt, params.Synthesis)
	if err != nil {
		return p.fail(ctx, tracker, sess, StageSynthesis, err, nil)
	}
	finalPath, err := sess.Store(session.CategoryFinalDesigns, "final_design.png", designData)
	if err != nil {
		return p.fail(ctx, tracker, sess, StageSynthesis, err, nil)
	}
	tracker.End(StageSynthesis, true, map[string]any{"bytes": len(designData)})

	// Stage 5: finalize artifacts.
	tracker.Begin(StageFinalize)
	if _, err := shopping.WriteList(sess, style, products); err != nil {
		slog.Warn("Failed to write shopping list", "session_id", sess.ID, "error", err)
	}
	tracker.End(StageFinalize, true, nil)

	tracker.Finish(true, len(products))
	if _, err := tracker.WriteReport(sess); err != nil {
		slog.Warn("Failed to write performance report", "session_id", sess.ID, "error", err)
	}

	return &models.DesignResult{
		Success:       true,
		SessionID:     sess.ID,
		FinalDesign:   finalPath,
		Products:      products,
		ProductsUsed:  len(products),
		StepDurations: tracker.StepDurations(),
		TotalDuration: tracker.TotalDuration(),
	}, nil
}

// fail closes the failing stage, records the terminal report, and wraps
// the error with its stage for the API surface. A stage error caused by
// the caller's deadline or cancellation is reclassified as a timeout so
// it keeps its own taxon instead of masquerading as a service failure.
func (p *Pipeline) fail(ctx context.Context, tracker *perf.Tracker, sess *session.Session, stage string, err error, metadata map[string]any) (*models.DesignResult, error) {
	if ctx.Err() != nil && !errors.Is(err, models.ErrTimeout) {
		err = fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	tracker.EndWithError(stage, err, metadata)
	tracker.Finish(false, 0)
	if _, werr := tracker.WriteReport(sess); werr != nil {
		slog.Warn("Failed to write performance report", "session_id", sess.ID, "error", werr)
	}
	slog.Error("Design generation failed", "session_id", sess.ID, "stage", stage, "error", err)
	return nil, &models.StageError{Stage: stage, Err: err}
}

// validateImage confirms the upload decodes as a supported image format
// before any external call is made, and reports the format for the
// vision request.
func validateImage(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("%w: empty image upload", models.ErrInvalidInput)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("%w: unsupported or corrupt image: %v", models.ErrInvalidInput, err)
	}
	return format, nil
}

func storeAnalysis(sess *session.Session, analysis *models.Analysis) error {
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return err
	}
	_, err = sess.Store(session.CategoryAnalysis, "analysis.json", data)
	return err
}

// dropSkipped removes candidates whose image could not be rendered into
// the composite, keeping the product list consistent with the grid the
// synthesis model sees. Matching is by image path, which is unique per
// downloaded candidate even when product names collide.
func dropSkipped(products []models.ProductCandidate, skipped []string) []models.ProductCandidate {
	if len(skipped) == 0 {
		return products
	}
	dropped := make(map[string]bool, len(skipped))
	for _, path := range skipped {
		dropped[path] = true
	}
	kept := products[:0]
	for _, p := range products {
		if !dropped[p.ImagePath] {
			kept = append(kept, p)
		}
	}
	return kept
}
