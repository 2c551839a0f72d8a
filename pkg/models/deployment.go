package models

import (
	"fmt"
	"time"
)

// DeploymentStatus represents the lifecycle state of a deployment.
type DeploymentStatus string

const (
	// DeploymentActive means the deployment is eligible for scheduling.
	DeploymentActive DeploymentStatus = "active"
	// DeploymentPaused means the deployment is kept but not scheduled.
	DeploymentPaused DeploymentStatus = "paused"
	// DeploymentArchived means the deployment has been retired.
	DeploymentArchived DeploymentStatus = "archived"
)

// Valid returns true if the status is a known value.
func (s DeploymentStatus) Valid() bool {
	switch s {
	case DeploymentActive, DeploymentPaused, DeploymentArchived:
		return true
	default:
		return false
	}
}

// Schedule configures when a deployment's design is executed. Exactly one
// of CronExpression or IntervalSeconds may be set when the schedule is
// enabled.
type Schedule struct {
	// CronExpression is a 5-field cron expression, optionally with a
	// leading seconds field.
	CronExpression string `json:"cron_expression,omitempty" yaml:"cron_expression,omitempty" bson:"cron_expression,omitempty"`
	// IntervalSeconds fires the trigger every N seconds.
	IntervalSeconds int `json:"interval_seconds,omitempty" yaml:"interval_seconds,omitempty" bson:"interval_seconds,omitempty"`
	// Timezone is the IANA timezone name for cron evaluation.
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty" bson:"timezone,omitempty"`
	// Enabled gates trigger registration for this deployment.
	Enabled bool `json:"enabled" yaml:"enabled" bson:"enabled"`
}

// Validate checks the schedule's structural constraints. A disabled
// schedule is always valid; an enabled one must carry exactly one trigger
// source.
func (s Schedule) Validate() error {
	if !s.Enabled {
		return nil
	}
	hasCron := s.CronExpression != ""
	hasInterval := s.IntervalSeconds != 0
	if hasCron == hasInterval {
		return fmt.Errorf("schedule: exactly one of cron_expression or interval_seconds is required when enabled")
	}
	if hasInterval && s.IntervalSeconds < 1 {
		return fmt.Errorf("schedule: interval_seconds must be positive, got %d", s.IntervalSeconds)
	}
	return nil
}

// Deployment binds a design to a recurring trigger. The design reference is
// weak: the deployment does not own the design.
type Deployment struct {
	// ID uniquely identifies the deployment.
	ID string `json:"id" yaml:"id" bson:"_id"`
	// DesignID references the deployed design.
	DesignID string `json:"design_id" yaml:"design_id" bson:"design_id"`
	// Name is the human-readable deployment name.
	Name string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	// Status is the deployment's lifecycle state.
	Status DeploymentStatus `json:"status" yaml:"status" bson:"status"`
	// Schedule configures when the design is executed.
	Schedule Schedule `json:"schedule" yaml:"schedule" bson:"schedule"`
	// InputData is the opaque input handed to each scheduled run.
	InputData string `json:"input_data,omitempty" yaml:"input_data,omitempty" bson:"input_data,omitempty"`
	// ExecutionCount is the number of completed fire() invocations.
	ExecutionCount int64 `json:"execution_count" yaml:"execution_count" bson:"execution_count"`
	// LastExecutionAt is when the deployment last completed a fire().
	LastExecutionAt *time.Time `json:"last_execution_at,omitempty" yaml:"last_execution_at,omitempty" bson:"last_execution_at,omitempty"`
	// CreatedAt is when the deployment was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at" bson:"created_at"`
}

// Eligible reports whether the deployment should have a live trigger.
func (d *Deployment) Eligible() bool {
	return d.Status == DeploymentActive && d.Schedule.Enabled
}

// Validate checks the deployment's structural constraints.
func (d *Deployment) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("deployment id must not be empty")
	}
	if d.DesignID == "" {
		return fmt.Errorf("deployment %s: design_id must not be empty", d.ID)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("deployment %s: unknown status %q", d.ID, d.Status)
	}
	if err := d.Schedule.Validate(); err != nil {
		return fmt.Errorf("deployment %s: %w", d.ID, err)
	}
	return nil
}
