package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loomhq/loom/pkg/models"
)

// routingDecision is the structured output the router must emit.
type routingDecision struct {
	SelectedAgents []string `json:"selected_agents"`
	Reasoning      string   `json:"reasoning"`
}

// runRouting asks the router to pick specialists for the task, then fans
// the task out to the selected specialists only. A decision that is not
// valid structured output fails the run with *RoutingParseError; it is
// never mapped to an empty selection, and there is no silent retry. A
// selected name outside the specialist list is a configuration error.
func (o *Orchestrator) runRouting(ctx context.Context, result *RunResult, roster map[string]models.Agent, task string, params *models.RoutingParams) error {
	router := roster[params.RouterName]

	raw, err := o.invoke(ctx, result, router, routerInput(task, params.SpecialistNames))
	if err != nil {
		return err
	}

	decision, err := parseRoutingDecision(raw)
	if err != nil {
		return err
	}
	result.SelectedAgents = decision.SelectedAgents
	result.Reasoning = decision.Reasoning
	debugLog("[orchestrator.routing] router=%s selected=%v", router.Name, decision.SelectedAgents)

	allowed := make(map[string]bool, len(params.SpecialistNames))
	for _, name := range params.SpecialistNames {
		allowed[name] = true
	}
	selected := make(map[string]bool, len(decision.SelectedAgents))
	for _, name := range decision.SelectedAgents {
		if !allowed[name] {
			return configErrf("router selected unknown specialist %q", name)
		}
		selected[name] = true
	}

	// Invoke in specialist declaration order, not router order, so the
	// assembled output is deterministic given deterministic agents.
	var chosen []models.Agent
	for _, name := range params.SpecialistNames {
		if selected[name] {
			chosen = append(chosen, roster[name])
		}
	}

	outcomes := o.fanOut(ctx, chosen, func(models.Agent) string {
		return fmt.Sprintf("Task: %s", task)
	})
	recordOutcomes(result, outcomes)

	result.SpecialistOutputs = make(map[string]string, len(outcomes))
	for _, oc := range outcomes {
		text := oc.output
		if oc.err != nil {
			text = failureMarker(oc.agent.Name, oc.err)
			debugLog("[orchestrator.routing] specialist=%s failed: %v", oc.agent.Name, oc.err)
		}
		result.SpecialistOutputs[oc.agent.Name] = text
		result.Workers = append(result.Workers, WorkerOutput{Agent: oc.agent.Name, Output: text, Failed: oc.err != nil})
	}

	var b strings.Builder
	for _, w := range result.Workers {
		fmt.Fprintf(&b, "## %s\n%s\n\n", w.Agent, w.Output)
	}
	result.Output = strings.TrimSpace(b.String())
	return nil
}

// routerInput asks the router for a JSON-only routing decision.
func routerInput(task string, specialists []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	fmt.Fprintf(&b, "Available specialists: %s.\n\n", strings.Join(specialists, ", "))
	b.WriteString(`Select the specialists best suited to this task. Respond with JSON only, in the form {"selected_agents": ["name", ...], "reasoning": "..."}.`)
	return b.String()
}

// parseRoutingDecision decodes the router's output. It tolerates prose or
// code fences around the decision by extracting the outermost JSON object,
// but anything that does not decode to a non-empty selection is a
// RoutingParseError.
func parseRoutingDecision(raw string) (*routingDecision, error) {
	text := raw
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			text = text[start : end+1]
		}
	}

	var decision routingDecision
	if err := json.Unmarshal([]byte(text), &decision); err != nil {
		return nil, &RoutingParseError{Raw: raw, Err: err}
	}
	if len(decision.SelectedAgents) == 0 {
		return nil, &RoutingParseError{Raw: raw, Err: fmt.Errorf("decision contains no selected_agents")}
	}
	return &decision, nil
}
