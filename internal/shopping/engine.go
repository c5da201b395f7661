package shopping

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

// Params are the mode-dependent knobs of the search stage.
type Params struct {
	// MaxTypes caps how many recommendation items are searched.
	MaxTypes int `yaml:"max_types"`
	// AlternativesPerType caps candidates kept per item.
	AlternativesPerType int `yaml:"alternatives_per_type"`
	// SearchDepth is how many ranked results to request per query.
	SearchDepth int `yaml:"search_depth"`
	// Workers is the fixed worker-pool size, independent of item count.
	Workers int `yaml:"workers"`
	// EarlyExitRatio is the fraction of the theoretical candidate
	// maximum at which no further searches are dispatched.
	EarlyExitRatio float64 `yaml:"early_exit_ratio"`
}

// Stats describes one search stage run for step-timing metadata.
type Stats struct {
	Target        int `json:"target"`
	Threshold     int `json:"threshold"`
	ItemsSearched int `json:"items_searched"`
	ItemsFailed   int `json:"items_failed"`
	ItemsSkipped  int `json:"items_skipped"`
	Downloaded    int `json:"downloaded"`
	FetchFailures int `json:"fetch_failures"`
}

// Metadata renders the stats for a StepTiming record.
func (s Stats) Metadata() map[string]any {
	return map[string]any{
		"target":         s.Target,
		"threshold":      s.Threshold,
		"items_searched": s.ItemsSearched,
		"items_failed":   s.ItemsFailed,
		"items_skipped":  s.ItemsSkipped,
		"product_count":  s.Downloaded,
		"fetch_failures": s.FetchFailures,
	}
}

// EarlyExitThreshold is the candidate-count cutoff at which the engine
// stops issuing new searches: a fixed fraction of the theoretical
// maximum (n items, alternatives each), never below 3.
func EarlyExitThreshold(n, alternatives int, ratio float64) int {
	target := n * alternatives
	threshold := int(math.Round(float64(target) * ratio))
	if threshold < 3 {
		threshold = 3
	}
	return threshold
}

// Engine runs item searches for distinct recommendation items against a
// bounded worker pool, downloading candidate images into the session
// and stopping early once the running total reaches the threshold.
type Engine struct {
	searcher Searcher
	fetcher  ImageFetcher
}

func NewEngine(searcher Searcher, fetcher ImageFetcher) *Engine {
	return &Engine{searcher: searcher, fetcher: fetcher}
}

type itemOutcome struct {
	candidates    []models.ProductCandidate
	fetchFailures int
	skipped       bool
	err           error
}

// Search processes recommendation items in priority order. A failed
// item contributes zero candidates and never aborts its siblings; the
// only error return is a context cancellation.
func (e *Engine) Search(ctx context.Context, analysis *models.Analysis, style string, sess *session.Session, params Params) ([]models.ProductCandidate, Stats, error) {
	recs := analysis.Recommendations
	if len(recs) > params.MaxTypes {
		slog.Info("Limiting recommendation types", "found", len(recs), "max", params.MaxTypes)
		recs = recs[:params.MaxTypes]
	}

	stats := Stats{
		Target:    len(recs) * params.AlternativesPerType,
		Threshold: EarlyExitThreshold(len(recs), params.AlternativesPerType, params.EarlyExitRatio),
	}
	if len(recs) == 0 {
		slog.Info("No recommendations to search")
		return nil, stats, nil
	}

	workers := params.Workers
	if workers > len(recs) {
		workers = len(recs)
	}
	slog.Info("Starting product search", "items", len(recs), "workers", workers,
		"target", stats.Target, "threshold", stats.Threshold)

	var downloaded atomic.Int64
	outcomes := make([]itemOutcome, len(recs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, rec := range recs {
		wg.Add(1)
		go func(idx int, rec models.RecommendationItem) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// The semaphore slot is the dispatch point: once the
			// running total has reached the threshold, no new search
			// is issued. Workers already past this check run to
			// completion and their results are kept.
			if downloaded.Load() >= int64(stats.Threshold) {
				outcomes[idx] = itemOutcome{skipped: true}
				return
			}
			outcomes[idx] = e.searchItem(ctx, rec, style, analysis.Palette.Primary, sess, params, &downloaded, stats.Threshold)
		}(i, rec)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, stats, fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}

	// Flatten in item priority order so downstream layout stays
	// deterministic.
	var candidates []models.ProductCandidate
	for i, outcome := range outcomes {
		stats.FetchFailures += outcome.fetchFailures
		switch {
		case outcome.skipped:
			stats.ItemsSkipped++
		case outcome.err != nil:
			stats.ItemsFailed++
			slog.Warn("Item search failed", "type", recs[i].Type, "error", outcome.err)
		default:
			stats.ItemsSearched++
			candidates = append(candidates, outcome.candidates...)
		}
	}
	stats.Downloaded = len(candidates)

	slog.Info("Product search finished", "candidates", len(candidates),
		"items_failed", stats.ItemsFailed, "items_skipped", stats.ItemsSkipped)
	return candidates, stats, nil
}

// searchItem queries the search service for one recommendation item and
// downloads up to AlternativesPerType candidate images. A failed
// individual download drops that candidate only.
func (e *Engine) searchItem(ctx context.Context, rec models.RecommendationItem, style string, colors []string, sess *session.Session, params Params, downloaded *atomic.Int64, threshold int) itemOutcome {
	query := BuildQuery(rec.Type, style, colors)
	slog.Debug("Searching products", "type", rec.Type, "query", query)

	results, err := e.searcher.SearchProducts(ctx, query, params.SearchDepth)
	if err != nil {
		return itemOutcome{err: fmt.Errorf("%w: %v", models.ErrSearchItemFailed, err)}
	}
	if len(results) == 0 {
		return itemOutcome{err: fmt.Errorf("%w: no results for %q", models.ErrSearchItemFailed, query)}
	}

	var outcome itemOutcome
	for _, result := range results {
		if len(outcome.candidates) >= params.AlternativesPerType {
			break
		}
		if downloaded.Load() >= int64(threshold) {
			break
		}
		if result.ImageURL == "" {
			continue
		}

		data, err := e.fetcher.Fetch(ctx, result.ImageURL)
		if err != nil {
			slog.Warn("Failed to fetch candidate image", "name", result.Name, "error", err)
			outcome.fetchFailures++
			continue
		}

		path, err := sess.Store(session.CategoryProducts, candidateFilename(rec.Type, result.ImageURL), data)
		if err != nil {
			slog.Warn("Failed to cache candidate image", "name", result.Name, "error", err)
			outcome.fetchFailures++
			continue
		}

		outcome.candidates = append(outcome.candidates, models.ProductCandidate{
			Name:        result.Name,
			ProductType: rec.Type,
			Area:        rec.Area,
			Price:       result.Price,
			Retailer:    result.Retailer,
			URL:         result.URL,
			Rating:      result.Rating,
			Reviews:     result.Reviews,
			ImagePath:   path,
		})
		downloaded.Add(1)
	}

	if len(outcome.candidates) == 0 && outcome.fetchFailures == 0 {
		outcome.err = fmt.Errorf("%w: no results with a resolvable image for %q", models.ErrSearchItemFailed, query)
	}
	return outcome
}
