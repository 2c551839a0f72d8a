package analytics

import (
	"testing"

	"github.com/loomhq/loom/pkg/models"
)

func terminalLog(id string, status models.ExecutionStatus, durationMS int64) *models.ExecutionLog {
	return &models.ExecutionLog{
		ID:         id,
		DesignID:   "design-1",
		Status:     status,
		DurationMS: durationMS,
	}
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil)
	if stats.Total != 0 || stats.SuccessRate != 0 || stats.AvgDurationMS != 0 {
		t.Errorf("empty input must yield zero stats, got %+v", stats)
	}
}

func TestComputeCountsAndRate(t *testing.T) {
	logs := []*models.ExecutionLog{
		terminalLog("a", models.ExecutionSucceeded, 100),
		terminalLog("b", models.ExecutionSucceeded, 200),
		terminalLog("c", models.ExecutionFailed, 50),
		{ID: "d", Status: models.ExecutionRunning},
	}
	stats := Compute(logs)

	if stats.Total != 4 || stats.Succeeded != 2 || stats.Failed != 1 || stats.Running != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	// Running logs stay out of the rate.
	if want := 2.0 / 3.0; stats.SuccessRate != want {
		t.Errorf("SuccessRate = %f, want %f", stats.SuccessRate, want)
	}
	if stats.AvgDurationMS != (100+200+50)/3 {
		t.Errorf("AvgDurationMS = %d", stats.AvgDurationMS)
	}
}

func TestComputeP95(t *testing.T) {
	var logs []*models.ExecutionLog
	for i := 1; i <= 100; i++ {
		logs = append(logs, terminalLog("l", models.ExecutionSucceeded, int64(i)))
	}
	stats := Compute(logs)
	if stats.P95DurationMS != 95 {
		t.Errorf("P95DurationMS = %d, want 95", stats.P95DurationMS)
	}
}

func TestComputeP95SingleValue(t *testing.T) {
	stats := Compute([]*models.ExecutionLog{terminalLog("a", models.ExecutionSucceeded, 42)})
	if stats.P95DurationMS != 42 {
		t.Errorf("P95DurationMS = %d, want 42", stats.P95DurationMS)
	}
}

func TestComputeRecentFailuresCapped(t *testing.T) {
	var logs []*models.ExecutionLog
	for i := 0; i < 8; i++ {
		logs = append(logs, terminalLog(string(rune('a'+i)), models.ExecutionFailed, 10))
	}
	stats := Compute(logs)

	if len(stats.RecentFailures) != maxRecentFailures {
		t.Fatalf("expected %d recent failures, got %d", maxRecentFailures, len(stats.RecentFailures))
	}
	// Input order (newest first) is preserved.
	if stats.RecentFailures[0].ID != "a" {
		t.Errorf("expected the newest failure first, got %s", stats.RecentFailures[0].ID)
	}
}
