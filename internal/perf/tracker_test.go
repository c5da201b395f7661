package perf

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

func TestTrackerRecordsSteps(t *testing.T) {
	tracker := NewTracker("test-session", models.ModeStandard)

	tracker.Begin("analysis")
	tracker.End("analysis", true, map[string]any{"recommendations": 5})
	tracker.Begin("product_search")
	tracker.EndWithError("product_search", errors.New("service down"), nil)
	tracker.Finish(false, 0)

	steps := tracker.Steps()
	if len(steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(steps))
	}
	if !steps[0].Success {
		t.Error("Expected analysis step to be successful")
	}
	if steps[0].Metadata["recommendations"] != 5 {
		t.Errorf("Expected metadata to be kept, got %v", steps[0].Metadata)
	}
	if steps[1].Success {
		t.Error("Expected product_search step to be failed")
	}
	if steps[1].Error != "service down" {
		t.Errorf("Expected error message to be kept, got %q", steps[1].Error)
	}

	durations := tracker.StepDurations()
	if _, ok := durations["analysis"]; !ok {
		t.Error("Expected analysis duration in map")
	}
	if _, ok := durations["product_search"]; !ok {
		t.Error("Expected product_search duration in map")
	}
}

func TestTrackerEndWithoutBegin(t *testing.T) {
	tracker := NewTracker("test-session", models.ModeFast)
	tracker.End("composite", true, nil)

	steps := tracker.Steps()
	if len(steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(steps))
	}
	if steps[0].Success {
		t.Error("A never-begun step must be recorded as failed")
	}
	if steps[0].Duration != 0 {
		t.Errorf("Expected zero duration, got %v", steps[0].Duration)
	}
}

func TestTrackerFinishClosesOpenSteps(t *testing.T) {
	tracker := NewTracker("test-session", models.ModeStandard)
	tracker.Begin("synthesis")
	tracker.Finish(false, 0)

	steps := tracker.Steps()
	if len(steps) != 1 {
		t.Fatalf("Expected the open step to be closed, got %d steps", len(steps))
	}
	if steps[0].Name != "synthesis" || steps[0].Success {
		t.Errorf("Expected synthesis closed as failed, got %+v", steps[0])
	}
}

func TestTrackerFinishIsIdempotent(t *testing.T) {
	tracker := NewTracker("test-session", models.ModeStandard)
	tracker.Begin("analysis")
	tracker.End("analysis", true, nil)
	tracker.Finish(true, 7)
	tracker.Finish(false, 0)

	report := tracker.Summary()
	if !report.Success {
		t.Error("Second Finish must not overwrite the first outcome")
	}
	if report.ProductCount != 7 {
		t.Errorf("Expected product count 7, got %d", report.ProductCount)
	}
}

func TestTrackerSummaryPercentages(t *testing.T) {
	tracker := NewTracker("test-session", models.ModeFast)
	tracker.Begin("analysis")
	tracker.End("analysis", true, nil)
	tracker.Finish(true, 3)

	report := tracker.Summary()
	if report.Mode != models.ModeFast {
		t.Errorf("Expected fast mode in report, got %s", report.Mode)
	}
	if report.TotalDuration <= 0 {
		t.Error("Expected positive total duration")
	}
	pct, ok := report.Percentages["analysis"]
	if !ok {
		t.Fatal("Expected analysis percentage")
	}
	if pct < 0 || pct > 100 {
		t.Errorf("Percentage out of range: %v", pct)
	}
}

func TestWriteReport(t *testing.T) {
	manager := session.NewManager(t.TempDir())
	sess, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	tracker := NewTracker(sess.ID, models.ModeStandard)
	tracker.Begin("analysis")
	tracker.End("analysis", true, nil)
	tracker.Finish(true, 2)

	if _, err := tracker.WriteReport(sess); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := sess.Read(session.CategoryDebug, "performance_report.json")
	if err != nil {
		t.Fatalf("Read report: %v", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal report: %v", err)
	}
	if report.SessionID != sess.ID {
		t.Errorf("Expected session id %s, got %s", sess.ID, report.SessionID)
	}
	if report.ProductCount != 2 {
		t.Errorf("Expected product count 2, got %d", report.ProductCount)
	}
	if len(report.Steps) != 1 || report.Steps[0].Name != "analysis" {
		t.Errorf("Unexpected steps: %+v", report.Steps)
	}
}
