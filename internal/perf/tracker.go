package perf

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

// StepTiming records one pipeline stage. Immutable once appended.
type StepTiming struct {
	Name      string         `json:"step_name"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  float64        `json:"duration"`
	Success   bool           `json:"success"`
	Error     string         `json:"error_message,omitempty"`
	Metadata  map[string]any `json:"additional_data,omitempty"`
}

// Report is the terminal summary of one tracked run.
type Report struct {
	SessionID     string             `json:"session_id"`
	Mode          models.Mode        `json:"mode"`
	Success       bool               `json:"success"`
	ProductCount  int                `json:"product_count"`
	TotalDuration float64            `json:"total_duration"`
	Timestamp     time.Time          `json:"timestamp"`
	Steps         []StepTiming       `json:"steps"`
	Percentages   map[string]float64 `json:"step_percentages"`
}

// Tracker records wall-clock timing and outcome for each pipeline stage
// of one session. Safe for concurrent use, though stages run one at a
// time in practice.
type Tracker struct {
	mu           sync.Mutex
	sessionID    string
	mode         models.Mode
	start        time.Time
	end          time.Time
	steps        []StepTiming
	open         map[string]StepTiming
	finished     bool
	success      bool
	productCount int
}

// NewTracker starts the run clock for one session.
func NewTracker(sessionID string, mode models.Mode) *Tracker {
	return &Tracker{
		sessionID: sessionID,
		mode:      mode,
		start:     time.Now(),
		open:      make(map[string]StepTiming),
	}
}

// Begin marks the start of a stage.
func (t *Tracker) Begin(step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[step] = StepTiming{Name: step, StartTime: time.Now()}
	slog.Debug("Step started", "session_id", t.sessionID, "step", step)
}

// End closes a stage and appends its timing. Ending a step that was
// never begun is tolerated: it is recorded with zero duration and
// success=false so a fatal failure mid-pipeline still leaves a trace.
func (t *Tracker) End(step string, success bool, metadata map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	timing, begun := t.open[step]
	delete(t.open, step)

	timing.EndTime = time.Now()
	if !begun {
		timing = StepTiming{Name: step, StartTime: timing.EndTime, EndTime: timing.EndTime}
		success = false
	}
	timing.Duration = timing.EndTime.Sub(timing.StartTime).Seconds()
	timing.Success = success
	timing.Metadata = metadata
	t.steps = append(t.steps, timing)

	slog.Info("Step completed", "session_id", t.sessionID, "step", step,
		"duration", fmt.Sprintf("%.2fs", timing.Duration), "success", success)
}

// EndWithError closes a stage as failed, keeping the error message in
// the timing record.
func (t *Tracker) EndWithError(step string, err error, metadata map[string]any) {
	t.End(step, false, metadata)
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.steps); n > 0 && err != nil {
		t.steps[n-1].Error = err.Error()
	}
}

// Finish stops the run clock and records the terminal outcome. Any step
// still open is closed as failed. Finish is idempotent: only the first
// call produces the terminal summary.
func (t *Tracker) Finish(success bool, productCount int) {
	t.mu.Lock()
	if t.finished {
		t.mu.Unlock()
		return
	}
	t.finished = true
	t.mu.Unlock()

	for step := range t.openSteps() {
		t.End(step, false, nil)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.end = time.Now()
	t.success = success
	t.productCount = productCount
	slog.Info("Run finished", "session_id", t.sessionID,
		"duration", fmt.Sprintf("%.2fs", t.end.Sub(t.start).Seconds()),
		"products", productCount, "success", success)
}

func (t *Tracker) openSteps() map[string]struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	steps := make(map[string]struct{}, len(t.open))
	for name := range t.open {
		steps[name] = struct{}{}
	}
	return steps
}

// Steps returns a copy of the recorded timings in completion order.
func (t *Tracker) Steps() []StepTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StepTiming, len(t.steps))
	copy(out, t.steps)
	return out
}

// StepDurations maps stage name to duration in seconds.
func (t *Tracker) StepDurations() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	durations := make(map[string]float64, len(t.steps))
	for _, step := range t.steps {
		durations[step.Name] = step.Duration
	}
	return durations
}

// TotalDuration returns the wall-clock duration of the run so far, or
// of the whole run once Finish was called.
func (t *Tracker) TotalDuration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	end := t.end
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(t.start).Seconds()
}

// Summary aggregates the run into its terminal report, including the
// per-step percentage breakdown.
func (t *Tracker) Summary() Report {
	total := t.TotalDuration()

	t.mu.Lock()
	defer t.mu.Unlock()

	report := Report{
		SessionID:     t.sessionID,
		Mode:          t.mode,
		Success:       t.success,
		ProductCount:  t.productCount,
		TotalDuration: total,
		Timestamp:     time.Now(),
		Steps:         append([]StepTiming(nil), t.steps...),
		Percentages:   make(map[string]float64, len(t.steps)),
	}
	if total > 0 {
		for _, step := range t.steps {
			report.Percentages[step.Name] = step.Duration / total * 100
		}
	}
	return report
}

// WriteReport persists the terminal summary as JSON into the session
// debug directory.
func (t *Tracker) WriteReport(s *session.Session) (string, error) {
	data, err := json.MarshalIndent(t.Summary(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal performance report: %w", err)
	}
	return s.Store(session.CategoryDebug, "performance_report.json", data)
}
