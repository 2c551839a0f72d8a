// Package orchestrator coordinates multi-agent LLM runs.
//
// The orchestrator package provides:
//   - An agent invocation contract (Invoker) satisfied by the API client
//   - Five pattern executors: sequential, parallel-aggregate, hierarchical,
//     debate, and dynamic routing
//   - Result normalization and duration measurement for every run
//
// A run validates its roster and pattern parameters up front, then issues
// one or more agent calls through the Invoker. Agent invocation is the sole
// blocking operation; cancellation is observed between calls.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/loomhq/loom/pkg/models"
)

// Invoker is the external agent-invocation capability. Implementations
// must enforce a per-call timeout and report failures as *InvocationError.
type Invoker interface {
	Invoke(ctx context.Context, agent models.Agent, message string) (string, error)
}

// debugLog is an optional package-level logging hook, no-op by default.
var debugLog = func(format string, args ...interface{}) {}

// SetDebugLog sets the package-level debug logging function.
func SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		debugLog = fn
	}
}

// Orchestrator runs one pattern over a roster of agents and normalizes the
// outcome into a RunResult.
type Orchestrator struct {
	invoker Invoker
}

// New creates an Orchestrator backed by the given invoker.
func New(invoker Invoker) *Orchestrator {
	return &Orchestrator{invoker: invoker}
}

// Run executes the given pattern over the roster and task. It fails with
// *ConfigurationError before any agent call if the roster is empty, an
// agent name cannot be resolved, or the params are invalid for the pattern.
// On a mid-run failure the returned RunResult still carries the partial
// progress (completed steps, transcript so far) alongside the error.
func (o *Orchestrator) Run(ctx context.Context, pattern models.Pattern, agents []models.Agent, task string, params models.PatternParams) (*RunResult, error) {
	result := &RunResult{Pattern: pattern, State: RunPending}

	if len(agents) == 0 {
		result.State = RunFailed
		return result, configErrf("agent roster must not be empty")
	}
	roster := make(map[string]models.Agent, len(agents))
	for _, a := range agents {
		if err := a.Validate(); err != nil {
			result.State = RunFailed
			return result, configErrf("%v", err)
		}
		if _, dup := roster[a.Name]; dup {
			result.State = RunFailed
			return result, configErrf("duplicate agent name %q", a.Name)
		}
		roster[a.Name] = a
	}
	if err := params.Validate(pattern, agents); err != nil {
		result.State = RunFailed
		return result, configErrf("%v", err)
	}

	debugLog("[orchestrator.run] pattern=%s agents=%d task_len=%d", pattern, len(agents), len(task))
	result.State = RunRunning
	start := time.Now()

	var err error
	switch pattern {
	case models.PatternSequential:
		err = o.runSequential(ctx, result, roster, task, params.Sequential)
	case models.PatternParallel:
		err = o.runParallel(ctx, result, roster, task, params.Parallel)
	case models.PatternHierarchical:
		err = o.runHierarchical(ctx, result, roster, task, params.Hierarchical)
	case models.PatternDebate:
		err = o.runDebate(ctx, result, roster, task, params.Debate)
	case models.PatternRouting:
		err = o.runRouting(ctx, result, roster, task, params.Routing)
	}

	result.DurationMS = time.Since(start).Milliseconds()
	if err != nil {
		result.State = RunFailed
		debugLog("[orchestrator.run] pattern=%s failed after %dms: %v", pattern, result.DurationMS, err)
		return result, err
	}
	result.State = RunSucceeded
	debugLog("[orchestrator.run] pattern=%s succeeded in %dms calls=%d", pattern, result.DurationMS, len(result.Calls))
	return result, nil
}

// invoke issues one agent call and records it on the result. It is a
// cooperative cancellation point: a canceled context aborts before the
// call is issued. Used by strictly ordered patterns; fan-outs record their
// calls after the join barrier to keep declaration order.
func (o *Orchestrator) invoke(ctx context.Context, result *RunResult, agent models.Agent, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	output, err := o.invoker.Invoke(ctx, agent, input)
	call := Call{Agent: agent.Name, Input: input, Output: output}
	if err != nil {
		call.Err = err.Error()
	}
	result.Calls = append(result.Calls, call)
	return output, err
}

// slotOutcome is the result of one fanned-out agent call.
type slotOutcome struct {
	agent  models.Agent
	input  string
	output string
	err    error
}

// fanOut invokes every agent concurrently and joins on all of them, success
// or failure alike, so stragglers and failures are always observed. The
// returned slice preserves declaration order regardless of completion
// order. The input function builds the message per agent.
func (o *Orchestrator) fanOut(ctx context.Context, agents []models.Agent, input func(models.Agent) string) []slotOutcome {
	outcomes := make([]slotOutcome, len(agents))

	var wg sync.WaitGroup
	for i, agent := range agents {
		msg := input(agent)
		outcomes[i] = slotOutcome{agent: agent, input: msg}

		wg.Add(1)
		go func(slot int, a models.Agent, m string) {
			defer wg.Done()
			out, err := o.invoker.Invoke(ctx, a, m)
			outcomes[slot].output = out
			outcomes[slot].err = err
		}(i, agent, msg)
	}
	wg.Wait()

	return outcomes
}

// recordOutcomes appends fan-out calls to the result in declaration order.
func recordOutcomes(result *RunResult, outcomes []slotOutcome) {
	for _, oc := range outcomes {
		call := Call{Agent: oc.agent.Name, Input: oc.input, Output: oc.output}
		if oc.err != nil {
			call.Err = oc.err.Error()
		}
		result.Calls = append(result.Calls, call)
	}
}

// pickAgents resolves names against the roster in the given order.
// Validation has already confirmed every name resolves.
func pickAgents(roster map[string]models.Agent, names []string) []models.Agent {
	agents := make([]models.Agent, 0, len(names))
	for _, name := range names {
		agents = append(agents, roster[name])
	}
	return agents
}
