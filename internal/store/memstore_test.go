package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loomhq/loom/pkg/models"
)

func testDeployment(id string) *models.Deployment {
	return &models.Deployment{
		ID:       id,
		DesignID: "design-1",
		Status:   models.DeploymentActive,
		Schedule: models.Schedule{
			IntervalSeconds: 60,
			Enabled:         true,
		},
		CreatedAt: time.Now(),
	}
}

func TestMemStoreDeploymentNotFound(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if _, err := s.GetDeployment(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateDeployment(ctx, "nope", DeploymentUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}

func TestMemStorePartialDeploymentUpdate(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	dep := testDeployment("dep-1")
	if err := s.CreateDeployment(ctx, dep); err != nil {
		t.Fatalf("create: %v", err)
	}

	paused := models.DeploymentPaused
	if err := s.UpdateDeployment(ctx, "dep-1", DeploymentUpdate{Status: &paused}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetDeployment(ctx, "dep-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.DeploymentPaused {
		t.Errorf("status not updated, got %s", got.Status)
	}
	if got.Schedule.IntervalSeconds != 60 {
		t.Errorf("untouched fields must survive a partial update, got %+v", got.Schedule)
	}
}

func TestMemStoreGetReturnsCopy(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	if err := s.CreateDeployment(ctx, testDeployment("dep-1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	first, _ := s.GetDeployment(ctx, "dep-1")
	first.Status = models.DeploymentArchived

	second, _ := s.GetDeployment(ctx, "dep-1")
	if second.Status != models.DeploymentActive {
		t.Error("mutating a returned deployment must not affect the store")
	}
}

func TestMemStoreExecutionLogLifecycle(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	log := &models.ExecutionLog{
		ID:           "log-1",
		DeploymentID: "dep-1",
		DesignID:     "design-1",
		ExecutionID:  "exec-1",
		Status:       models.ExecutionRunning,
		TriggerType:  models.TriggerScheduled,
		StartedAt:    time.Now(),
	}
	if err := s.CreateExecutionLog(ctx, log); err != nil {
		t.Fatalf("create log: %v", err)
	}

	running, err := s.ListRunningExecutionLogs(ctx)
	if err != nil {
		t.Fatalf("list running: %v", err)
	}
	if len(running) != 1 || running[0].ID != "log-1" {
		t.Fatalf("expected the running log, got %v", running)
	}

	done := models.ExecutionSucceeded
	now := time.Now()
	dur := int64(42)
	result := "final output"
	err = s.UpdateExecutionLog(ctx, "log-1", ExecutionLogUpdate{
		Status:      &done,
		CompletedAt: &now,
		DurationMS:  &dur,
		Result:      &result,
	})
	if err != nil {
		t.Fatalf("update log: %v", err)
	}

	running, _ = s.ListRunningExecutionLogs(ctx)
	if len(running) != 0 {
		t.Errorf("terminal log must leave the running set, got %d", len(running))
	}

	logs, _ := s.ListExecutionLogs(ctx, "dep-1", 0)
	if len(logs) != 1 {
		t.Fatalf("expected 1 log for dep-1, got %d", len(logs))
	}
	got := logs[0]
	if got.Status != models.ExecutionSucceeded || got.Result != "final output" || got.DurationMS != 42 {
		t.Errorf("terminal fields not applied: %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at must be set on the terminal transition")
	}
}

func TestMemStoreExecutionLogFilterAndLimit(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	for i, dep := range []string{"dep-1", "dep-2", "dep-1"} {
		log := &models.ExecutionLog{
			ID:           "log-" + string(rune('a'+i)),
			DeploymentID: dep,
			DesignID:     "design-1",
			ExecutionID:  "exec-" + string(rune('a'+i)),
			Status:       models.ExecutionSucceeded,
			TriggerType:  models.TriggerScheduled,
			StartedAt:    time.Now(),
		}
		if err := s.CreateExecutionLog(ctx, log); err != nil {
			t.Fatalf("create log: %v", err)
		}
	}

	logs, err := s.ListExecutionLogs(ctx, "dep-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs for dep-1, got %d", len(logs))
	}
	// Newest first.
	if logs[0].ID != "log-c" || logs[1].ID != "log-a" {
		t.Errorf("expected newest-first order, got %s then %s", logs[0].ID, logs[1].ID)
	}

	limited, _ := s.ListExecutionLogs(ctx, "", 1)
	if len(limited) != 1 || limited[0].ID != "log-c" {
		t.Errorf("limit must cap at the newest log, got %v", limited)
	}
}

func TestMemStoreDesignRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	d := &models.Design{ID: "design-1", Name: "first"}
	if err := s.PutDesign(ctx, d); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Put again replaces.
	d.Name = "renamed"
	if err := s.PutDesign(ctx, d); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := s.GetDesign(ctx, "design-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "renamed" {
		t.Errorf("put must replace, got name %q", got.Name)
	}

	if err := s.DeleteDesign(ctx, "design-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteDesign(ctx, "design-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete must be ErrNotFound, got %v", err)
	}
}
