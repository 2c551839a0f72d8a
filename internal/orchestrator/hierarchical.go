package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomhq/loom/pkg/models"
)

// runHierarchical runs a three-phase hierarchy: the manager produces a
// textual delegation plan, the named workers run the task with that plan
// as context, and the manager is re-invoked to synthesize the worker
// outputs. The worker phase mirrors the parallel pattern: concurrent
// fan-out, declaration-order assembly, per-slot failure markers. Manager
// calls are strictly ordered and abort the run on failure.
func (o *Orchestrator) runHierarchical(ctx context.Context, result *RunResult, roster map[string]models.Agent, task string, params *models.HierarchicalParams) error {
	manager := roster[params.ManagerName]

	delegation, err := o.invoke(ctx, result, manager, delegationInput(task, params.WorkerNames))
	if err != nil {
		return err
	}
	result.Delegation = delegation

	workers := pickAgents(roster, params.WorkerNames)
	outcomes := o.fanOut(ctx, workers, func(a models.Agent) string {
		return fmt.Sprintf("Task: %s\n\nYour manager's delegation plan:\n%s\n\nCarry out your part of the task.", task, delegation)
	})
	recordOutcomes(result, outcomes)

	failures := 0
	for _, oc := range outcomes {
		worker := WorkerOutput{Agent: oc.agent.Name, Output: oc.output}
		if oc.err != nil {
			worker.Output = failureMarker(oc.agent.Name, oc.err)
			worker.Failed = true
			failures++
			debugLog("[orchestrator.hierarchical] worker=%s failed: %v", oc.agent.Name, oc.err)
		}
		result.Workers = append(result.Workers, worker)
	}
	if failures == len(outcomes) {
		return &InvocationError{
			Agent:   manager.Name,
			Message: fmt.Sprintf("all %d workers failed, nothing to synthesize", failures),
		}
	}

	output, err := o.invoke(ctx, result, manager, aggregationInput(task, result.Workers))
	if err != nil {
		return err
	}

	result.Output = output
	return nil
}

// delegationInput asks the manager to produce a delegation plan for the
// named workers.
func delegationInput(task string, workerNames []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	fmt.Fprintf(&b, "You manage the following workers: %s.\n", strings.Join(workerNames, ", "))
	b.WriteString("Describe what each worker should do to complete the task.")
	return b.String()
}
