package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/loomhq/loom/pkg/models"
)

// failureMarker is the text placed in a fan-out slot whose invocation
// failed, so the aggregator sees an explicit gap rather than silence.
func failureMarker(agent string, err error) string {
	return fmt.Sprintf("[worker %s failed: %v]", agent, err)
}

// runParallel fans the task out to every worker concurrently, then hands
// the aggregator the labeled worker outputs in declaration order. A single
// worker failure does not abort the siblings; its slot is replaced with a
// failure marker and aggregation proceeds with the rest. Only an aggregator
// failure or a fully failed fan-out fails the run.
func (o *Orchestrator) runParallel(ctx context.Context, result *RunResult, roster map[string]models.Agent, task string, params *models.ParallelParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	workers := pickAgents(roster, params.WorkerNames)
	outcomes := o.fanOut(ctx, workers, func(models.Agent) string {
		return fmt.Sprintf("Task: %s", task)
	})
	recordOutcomes(result, outcomes)

	failures := 0
	for _, oc := range outcomes {
		worker := WorkerOutput{Agent: oc.agent.Name, Output: oc.output}
		if oc.err != nil {
			worker.Output = failureMarker(oc.agent.Name, oc.err)
			worker.Failed = true
			failures++
			debugLog("[orchestrator.parallel] worker=%s failed: %v", oc.agent.Name, oc.err)
		}
		result.Workers = append(result.Workers, worker)
	}
	if failures == len(outcomes) {
		return &InvocationError{
			Agent:   params.AggregatorName,
			Message: fmt.Sprintf("all %d workers failed, nothing to aggregate", failures),
		}
	}

	aggregator := roster[params.AggregatorName]
	output, err := o.invoke(ctx, result, aggregator, aggregationInput(task, result.Workers))
	if err != nil {
		return err
	}

	result.Output = output
	return nil
}

// aggregationInput assembles worker outputs labeled by agent name, in
// declaration order, for a synthesis call.
func aggregationInput(task string, workers []WorkerOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	b.WriteString("Synthesize the following worker outputs into a single result.\n")
	for _, w := range workers {
		fmt.Fprintf(&b, "\n## %s\n%s\n", w.Agent, w.Output)
	}
	return b.String()
}
