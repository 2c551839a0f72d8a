package models

import "time"

// ExecutionStatus represents the state of one run.
type ExecutionStatus string

const (
	// ExecutionRunning means the run is in flight.
	ExecutionRunning ExecutionStatus = "running"
	// ExecutionSucceeded means the run completed with a result.
	ExecutionSucceeded ExecutionStatus = "succeeded"
	// ExecutionFailed means the run completed with an error.
	ExecutionFailed ExecutionStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionRunning, ExecutionSucceeded, ExecutionFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a terminal state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionSucceeded || s == ExecutionFailed
}

// TriggerType records what initiated a run.
type TriggerType string

const (
	// TriggerManual marks a user-initiated run.
	TriggerManual TriggerType = "manual"
	// TriggerScheduled marks a run fired by a deployment trigger.
	TriggerScheduled TriggerType = "scheduled"
)

// Valid returns true if the trigger type is a known value.
func (t TriggerType) Valid() bool {
	return t == TriggerManual || t == TriggerScheduled
}

// ExecutionLog is the append-only record of one run, scheduled or manual.
// Exactly one row exists per run; it is created with status running and
// mutated exactly once to a terminal status. Rows are never deleted by
// this core.
type ExecutionLog struct {
	// ID is the storage identifier of the log row.
	ID string `json:"id" bson:"_id"`
	// DeploymentID is the owning deployment. Empty for manual runs.
	DeploymentID string `json:"deployment_id,omitempty" bson:"deployment_id,omitempty"`
	// DesignID is the design that was executed.
	DesignID string `json:"design_id" bson:"design_id"`
	// ExecutionID is globally unique per run.
	ExecutionID string `json:"execution_id" bson:"execution_id"`
	// Status is running until the run's single terminal transition.
	Status ExecutionStatus `json:"status" bson:"status"`
	// TriggerType records what initiated the run.
	TriggerType TriggerType `json:"trigger_type" bson:"trigger_type"`
	// InputData is the opaque input the run started from.
	InputData string `json:"input_data,omitempty" bson:"input_data,omitempty"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at" bson:"started_at"`
	// CompletedAt is when the run reached a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	// DurationMS is the run's wall-clock duration in milliseconds.
	DurationMS int64 `json:"duration_ms,omitempty" bson:"duration_ms,omitempty"`
	// Result is the opaque success payload.
	Result string `json:"result,omitempty" bson:"result,omitempty"`
	// Error is the failure message for failed runs.
	Error string `json:"error,omitempty" bson:"error,omitempty"`
}
