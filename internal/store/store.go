// Package store defines the persistence contract consumed by the scheduler
// and CLI, with MongoDB, SQLite, and in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/loomhq/loom/pkg/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DeploymentUpdate carries the fields of a partial deployment update. Nil
// fields are left untouched.
type DeploymentUpdate struct {
	Name            *string
	Status          *models.DeploymentStatus
	Schedule        *models.Schedule
	InputData       *string
	ExecutionCount  *int64
	LastExecutionAt *time.Time
}

// ExecutionLogUpdate carries the fields of a partial execution log update.
// Nil fields are left untouched.
type ExecutionLogUpdate struct {
	Status      *models.ExecutionStatus
	CompletedAt *time.Time
	DurationMS  *int64
	Result      *string
	Error       *string
}

// Store is the persistence surface for designs, deployments, and execution
// logs. Implementations must be safe for concurrent use: the scheduler's
// trigger callbacks run on their own goroutines.
type Store interface {
	// ListDesigns returns every stored design.
	ListDesigns(ctx context.Context) ([]*models.Design, error)
	// GetDesign returns the design with the given ID, or ErrNotFound.
	GetDesign(ctx context.Context, id string) (*models.Design, error)
	// PutDesign inserts or replaces a design by ID.
	PutDesign(ctx context.Context, design *models.Design) error
	// DeleteDesign removes a design. Returns ErrNotFound if absent.
	DeleteDesign(ctx context.Context, id string) error

	// ListDeployments returns every stored deployment.
	ListDeployments(ctx context.Context) ([]*models.Deployment, error)
	// GetDeployment returns the deployment with the given ID, or ErrNotFound.
	GetDeployment(ctx context.Context, id string) (*models.Deployment, error)
	// CreateDeployment inserts a new deployment.
	CreateDeployment(ctx context.Context, dep *models.Deployment) error
	// UpdateDeployment applies a partial update. Returns ErrNotFound if absent.
	UpdateDeployment(ctx context.Context, id string, update DeploymentUpdate) error

	// CreateExecutionLog inserts a new execution log row.
	CreateExecutionLog(ctx context.Context, log *models.ExecutionLog) error
	// UpdateExecutionLog applies a partial update. Returns ErrNotFound if absent.
	UpdateExecutionLog(ctx context.Context, id string, update ExecutionLogUpdate) error
	// ListExecutionLogs returns logs newest first, optionally filtered by
	// deployment ID and capped at limit (0 = no cap).
	ListExecutionLogs(ctx context.Context, deploymentID string, limit int) ([]*models.ExecutionLog, error)
	// ListRunningExecutionLogs returns every log still in the running state.
	// Consumed by the crash-recovery sweep at scheduler startup.
	ListRunningExecutionLogs(ctx context.Context) ([]*models.ExecutionLog, error)

	// Close releases the backing resources.
	Close() error
}
