package orchestrator

import (
	"context"
	"fmt"

	"github.com/loomhq/loom/pkg/models"
)

// runSequential executes the chain in AgentSequence order. Each agent sees
// the task plus the previous agent's output; the final agent's output
// becomes the run output. An InvocationError aborts the remaining chain,
// but the steps completed so far stay on the result.
func (o *Orchestrator) runSequential(ctx context.Context, result *RunResult, roster map[string]models.Agent, task string, params *models.SequentialParams) error {
	chain := pickAgents(roster, params.AgentSequence)

	var previous *StepOutput
	for i, agent := range chain {
		input := fmt.Sprintf("Task: %s", task)
		if previous != nil {
			input = fmt.Sprintf("Task: %s\n\nOutput from %s:\n%s", task, previous.Agent, previous.Output)
		}

		output, err := o.invoke(ctx, result, agent, input)
		if err != nil {
			debugLog("[orchestrator.sequential] aborting chain at step %d/%d agent=%s: %v", i+1, len(chain), agent.Name, err)
			return err
		}

		step := StepOutput{Agent: agent.Name, Output: output}
		result.Steps = append(result.Steps, step)
		previous = &step
	}

	result.Output = previous.Output
	return nil
}
