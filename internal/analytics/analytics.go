// Package analytics derives summary statistics from execution logs.
package analytics

import (
	"sort"

	"github.com/loomhq/loom/pkg/models"
)

// Stats summarizes a set of execution logs. Duration figures cover only
// terminal runs; in-flight runs have no duration yet.
type Stats struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Running   int `json:"running"`

	// SuccessRate is succeeded over terminal runs, in [0, 1].
	SuccessRate float64 `json:"success_rate"`

	AvgDurationMS int64 `json:"avg_duration_ms"`
	P95DurationMS int64 `json:"p95_duration_ms"`

	// RecentFailures holds the most recent failed logs, newest first.
	RecentFailures []*models.ExecutionLog `json:"recent_failures,omitempty"`
}

// maxRecentFailures caps the failure sample carried in Stats.
const maxRecentFailures = 5

// Compute derives Stats from logs. The input order is preserved for the
// failure sample, so callers should pass logs newest first, as the store
// returns them.
func Compute(logs []*models.ExecutionLog) Stats {
	var stats Stats
	var durations []int64

	for _, l := range logs {
		stats.Total++
		switch l.Status {
		case models.ExecutionSucceeded:
			stats.Succeeded++
			durations = append(durations, l.DurationMS)
		case models.ExecutionFailed:
			stats.Failed++
			durations = append(durations, l.DurationMS)
			if len(stats.RecentFailures) < maxRecentFailures {
				stats.RecentFailures = append(stats.RecentFailures, l)
			}
		case models.ExecutionRunning:
			stats.Running++
		}
	}

	terminal := stats.Succeeded + stats.Failed
	if terminal > 0 {
		stats.SuccessRate = float64(stats.Succeeded) / float64(terminal)
	}
	if len(durations) > 0 {
		var sum int64
		for _, d := range durations {
			sum += d
		}
		stats.AvgDurationMS = sum / int64(len(durations))
		stats.P95DurationMS = percentile(durations, 95)
	}
	return stats
}

// percentile returns the nearest-rank percentile of the given durations.
func percentile(durations []int64, p int) int64 {
	sorted := make([]int64, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
