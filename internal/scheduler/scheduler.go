// Package scheduler registers one cron trigger per eligible deployment and
// turns trigger fires into design runs with exactly one execution log each.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/loomhq/loom/internal/graph"
	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/internal/store"
	"github.com/loomhq/loom/pkg/models"
)

// debugLog is an optional package-level logging hook, no-op by default.
var debugLog = func(format string, args ...interface{}) {}

// SetDebugLog sets the package-level debug logging function.
func SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		debugLog = fn
	}
}

// cronParser accepts standard 5-field expressions and 6-field expressions
// with a leading seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler owns the timer loop and the registry of live triggers, one per
// eligible deployment. The registry is the only shared mutable state and is
// guarded by mu; trigger callbacks run on the cron goroutine pool and go
// through the store, never through the registry.
type Scheduler struct {
	store    store.Store
	executor *graph.Executor

	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID
	running bool
}

// New creates a stopped Scheduler over the given store and executor.
func New(st store.Store, executor *graph.Executor) *Scheduler {
	return &Scheduler{
		store:    st,
		executor: executor,
		cron:     cron.New(cron.WithParser(cronParser)),
		entries:  make(map[string]cron.EntryID),
	}
}

// Start sweeps stale running logs, registers a trigger for every eligible
// deployment, and starts the timer loop. Calling Start on a running
// scheduler logs a warning and does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("[scheduler.start] WARNING: scheduler already running, ignoring")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	if err := s.startTriggers(ctx); err != nil {
		// The scheduler stays stopped so a later Start can retry.
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}
	return nil
}

// startTriggers runs the recovery sweep, registers every eligible
// deployment, and starts the timer loop.
func (s *Scheduler) startTriggers(ctx context.Context) error {
	if err := s.recoverStaleLogs(ctx); err != nil {
		return fmt.Errorf("crash recovery sweep: %w", err)
	}

	deployments, err := s.store.ListDeployments(ctx)
	if err != nil {
		return fmt.Errorf("load deployments: %w", err)
	}
	registered := 0
	for _, dep := range deployments {
		if !dep.Eligible() {
			continue
		}
		if err := s.Schedule(ctx, dep.ID); err != nil {
			// A bad schedule leaves that deployment unscheduled; the
			// scheduler keeps going.
			log.Printf("[scheduler.start] deployment %s not scheduled: %v", dep.ID, err)
			continue
		}
		registered++
	}

	s.cron.Start()
	log.Printf("[scheduler.start] started with %d of %d deployments scheduled", registered, len(deployments))
	return nil
}

// Stop halts the timer loop and waits for in-flight fires to finish.
// Registered triggers are kept so a later Start resumes them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	log.Printf("[scheduler.stop] stopped")
}

// recoverStaleLogs force-fails every log left running by a previous process.
// Execution counters are deliberately left untouched: only a terminal
// completion of fire updates them.
func (s *Scheduler) recoverStaleLogs(ctx context.Context) error {
	stale, err := s.store.ListRunningExecutionLogs(ctx)
	if err != nil {
		return err
	}
	for _, l := range stale {
		now := time.Now()
		failed := models.ExecutionFailed
		msg := "run interrupted by process restart"
		update := store.ExecutionLogUpdate{
			Status:      &failed,
			CompletedAt: &now,
			Error:       &msg,
		}
		if err := s.store.UpdateExecutionLog(ctx, l.ID, update); err != nil {
			return fmt.Errorf("recover log %s: %w", l.ID, err)
		}
		log.Printf("[scheduler.recover] execution log %s force-failed after restart", l.ID)
	}
	return nil
}

// Schedule removes any existing trigger for the deployment, then registers
// a new one if the deployment is currently eligible. An invalid cron
// expression is a *orchestrator.ConfigurationError that leaves the
// deployment unscheduled; the scheduler itself is unaffected.
func (s *Scheduler) Schedule(ctx context.Context, deploymentID string) error {
	s.Unschedule(deploymentID)

	dep, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return fmt.Errorf("load deployment %s: %w", deploymentID, err)
	}
	if !dep.Eligible() {
		debugLog("[scheduler.schedule] deployment %s not eligible (status=%s enabled=%t)",
			dep.ID, dep.Status, dep.Schedule.Enabled)
		return nil
	}
	if err := dep.Schedule.Validate(); err != nil {
		return &orchestrator.ConfigurationError{Reason: err.Error()}
	}

	sched, err := buildSchedule(dep.Schedule)
	if err != nil {
		return err
	}

	id := dep.ID
	s.mu.Lock()
	defer s.mu.Unlock()
	// Re-check under the lock: a concurrent Schedule call for the same
	// deployment must never leave two live triggers.
	if entry, ok := s.entries[id]; ok {
		s.cron.Remove(entry)
	}
	s.entries[id] = s.cron.Schedule(sched, cron.FuncJob(func() {
		s.fire(id)
	}))
	log.Printf("[scheduler.schedule] deployment %s scheduled (%s)", id, describeSchedule(dep.Schedule))
	return nil
}

// buildSchedule turns a deployment schedule into a cron.Schedule from
// exactly one of its trigger sources.
func buildSchedule(sched models.Schedule) (cron.Schedule, error) {
	if sched.IntervalSeconds > 0 {
		return cron.Every(time.Duration(sched.IntervalSeconds) * time.Second), nil
	}
	expr := sched.CronExpression
	if sched.Timezone != "" {
		expr = "CRON_TZ=" + sched.Timezone + " " + expr
	}
	parsed, err := cronParser.Parse(expr)
	if err != nil {
		return nil, &orchestrator.ConfigurationError{
			Reason: fmt.Sprintf("invalid cron expression %q: %v", sched.CronExpression, err),
		}
	}
	return parsed, nil
}

func describeSchedule(sched models.Schedule) string {
	if sched.IntervalSeconds > 0 {
		return fmt.Sprintf("every %ds", sched.IntervalSeconds)
	}
	return "cron " + sched.CronExpression
}

// Unschedule removes the deployment's trigger. It reports whether a trigger
// was actually removed, so callers can tell removal from absence.
func (s *Scheduler) Unschedule(deploymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[deploymentID]
	if !ok {
		return false
	}
	s.cron.Remove(entry)
	delete(s.entries, deploymentID)
	log.Printf("[scheduler.unschedule] deployment %s unscheduled", deploymentID)
	return true
}

// IsScheduled reports whether the deployment has a live trigger.
func (s *Scheduler) IsScheduled(deploymentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[deploymentID]
	return ok
}

// NextRunTime returns the deployment's next fire time. The second return is
// false when no trigger is registered.
func (s *Scheduler) NextRunTime(deploymentID string) (time.Time, bool) {
	s.mu.Lock()
	entryID, ok := s.entries[deploymentID]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	next := entry.Next
	if next.IsZero() {
		// The loop has not started yet; compute from the schedule directly.
		next = entry.Schedule.Next(time.Now())
	}
	return next, true
}

// fire is the trigger callback for one deployment. Every failure on this
// path is absorbed into the execution log; nothing propagates to the cron
// loop.
func (s *Scheduler) fire(deploymentID string) {
	ctx := context.Background()

	dep, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		log.Printf("[scheduler.fire] deployment %s: load failed: %v", deploymentID, err)
		return
	}
	if dep.Status != models.DeploymentActive {
		debugLog("[scheduler.fire] deployment %s no longer active, skipping", deploymentID)
		return
	}

	if _, err := s.runDesign(ctx, dep, models.TriggerScheduled, dep.InputData); err != nil {
		log.Printf("[scheduler.fire] deployment %s: run failed: %v", deploymentID, err)
	}
}

// RunManual executes a deployment's design immediately, outside its
// schedule, and returns the terminal execution log.
func (s *Scheduler) RunManual(ctx context.Context, deploymentID string, input string) (*models.ExecutionLog, error) {
	dep, err := s.store.GetDeployment(ctx, deploymentID)
	if err != nil {
		return nil, fmt.Errorf("load deployment %s: %w", deploymentID, err)
	}
	if input == "" {
		input = dep.InputData
	}
	return s.runDesign(ctx, dep, models.TriggerManual, input)
}

// runDesign creates a running execution log, executes the design, and
// writes exactly one terminal update on both the success and failure paths.
// The deployment's counters are bumped only after the terminal write.
func (s *Scheduler) runDesign(ctx context.Context, dep *models.Deployment, trigger models.TriggerType, input string) (*models.ExecutionLog, error) {
	design, err := s.store.GetDesign(ctx, dep.DesignID)
	if err != nil {
		return nil, fmt.Errorf("load design %s: %w", dep.DesignID, err)
	}

	logRow := &models.ExecutionLog{
		ID:           uuid.NewString(),
		DeploymentID: dep.ID,
		DesignID:     design.ID,
		ExecutionID:  uuid.NewString(),
		Status:       models.ExecutionRunning,
		TriggerType:  trigger,
		InputData:    input,
		StartedAt:    time.Now(),
	}
	if err := s.store.CreateExecutionLog(ctx, logRow); err != nil {
		return nil, fmt.Errorf("create execution log: %w", err)
	}

	result, runErr := s.executor.Execute(ctx, design, input)

	now := time.Now()
	durationMS := now.Sub(logRow.StartedAt).Milliseconds()
	update := store.ExecutionLogUpdate{
		CompletedAt: &now,
		DurationMS:  &durationMS,
	}
	if runErr != nil {
		failed := models.ExecutionFailed
		msg := runErr.Error()
		update.Status = &failed
		update.Error = &msg
		logRow.Status = failed
		logRow.Error = msg
	} else {
		succeeded := models.ExecutionSucceeded
		update.Status = &succeeded
		update.Result = &result.Output
		logRow.Status = succeeded
		logRow.Result = result.Output
	}
	logRow.CompletedAt = &now
	logRow.DurationMS = durationMS

	if err := s.store.UpdateExecutionLog(ctx, logRow.ID, update); err != nil {
		log.Printf("[scheduler.run] execution log %s: terminal write failed: %v", logRow.ID, err)
	}

	count := dep.ExecutionCount + 1
	depUpdate := store.DeploymentUpdate{
		ExecutionCount:  &count,
		LastExecutionAt: &now,
	}
	if err := s.store.UpdateDeployment(ctx, dep.ID, depUpdate); err != nil {
		log.Printf("[scheduler.run] deployment %s: counter update failed: %v", dep.ID, err)
	}

	debugLog("[scheduler.run] deployment %s design %s %s in %dms (trigger=%s)",
		dep.ID, design.ID, logRow.Status, durationMS, trigger)
	if runErr != nil {
		return logRow, runErr
	}
	return logRow, nil
}
