package models

import "fmt"

// Pattern identifies one of the five orchestration topologies.
type Pattern string

const (
	// PatternSequential chains agents so each sees the previous agent's output.
	PatternSequential Pattern = "sequential"
	// PatternParallel fans a task out to workers and aggregates their outputs.
	PatternParallel Pattern = "parallel"
	// PatternHierarchical has a manager plan, delegate, and synthesize.
	PatternHierarchical Pattern = "hierarchical"
	// PatternDebate runs participants through ordered rounds over a shared transcript.
	PatternDebate Pattern = "debate"
	// PatternRouting has a router select which specialists handle the task.
	PatternRouting Pattern = "routing"
)

// Valid returns true if the pattern is a known value.
func (p Pattern) Valid() bool {
	switch p {
	case PatternSequential, PatternParallel, PatternHierarchical, PatternDebate, PatternRouting:
		return true
	default:
		return false
	}
}

// SequentialParams configures a sequential chain.
type SequentialParams struct {
	// AgentSequence is the execution order; every entry must name a roster agent.
	AgentSequence []string `json:"agent_sequence" yaml:"agent_sequence" bson:"agent_sequence"`
}

// ParallelParams configures a parallel fan-out with aggregation.
type ParallelParams struct {
	// WorkerNames are invoked concurrently with the task.
	WorkerNames []string `json:"worker_names" yaml:"worker_names" bson:"worker_names"`
	// AggregatorName receives the labeled worker outputs and synthesizes the result.
	AggregatorName string `json:"aggregator_name" yaml:"aggregator_name" bson:"aggregator_name"`
}

// HierarchicalParams configures a manager/worker hierarchy.
type HierarchicalParams struct {
	// ManagerName plans the delegation and synthesizes the final result.
	ManagerName string `json:"manager_name" yaml:"manager_name" bson:"manager_name"`
	// WorkerNames carry out the task under the manager's plan.
	WorkerNames []string `json:"worker_names" yaml:"worker_names" bson:"worker_names"`
}

// DebateParams configures a multi-round debate.
type DebateParams struct {
	// ParticipantNames speak in list order within each round.
	ParticipantNames []string `json:"participant_names" yaml:"participant_names" bson:"participant_names"`
	// ModeratorName, if set, summarizes at the end of each round.
	ModeratorName string `json:"moderator_name,omitempty" yaml:"moderator_name,omitempty" bson:"moderator_name,omitempty"`
	// Rounds is the number of debate rounds. Must be at least 1.
	Rounds int `json:"rounds" yaml:"rounds" bson:"rounds"`
}

// RoutingParams configures dynamic specialist routing.
type RoutingParams struct {
	// RouterName decides which specialists handle the task.
	RouterName string `json:"router_name" yaml:"router_name" bson:"router_name"`
	// SpecialistNames are the candidates the router may select from.
	SpecialistNames []string `json:"specialist_names" yaml:"specialist_names" bson:"specialist_names"`
}

// PatternParams is a closed union of per-pattern parameter structs.
// Exactly the field matching the block's pattern must be set; the rest
// stay nil. Dispatching on the pattern string is confined to parse and
// validation time.
type PatternParams struct {
	Sequential   *SequentialParams   `json:"sequential,omitempty" yaml:"sequential,omitempty" bson:"sequential,omitempty"`
	Parallel     *ParallelParams     `json:"parallel,omitempty" yaml:"parallel,omitempty" bson:"parallel,omitempty"`
	Hierarchical *HierarchicalParams `json:"hierarchical,omitempty" yaml:"hierarchical,omitempty" bson:"hierarchical,omitempty"`
	Debate       *DebateParams       `json:"debate,omitempty" yaml:"debate,omitempty" bson:"debate,omitempty"`
	Routing      *RoutingParams      `json:"routing,omitempty" yaml:"routing,omitempty" bson:"routing,omitempty"`
}

// setCount returns how many union cases are populated.
func (p PatternParams) setCount() int {
	n := 0
	if p.Sequential != nil {
		n++
	}
	if p.Parallel != nil {
		n++
	}
	if p.Hierarchical != nil {
		n++
	}
	if p.Debate != nil {
		n++
	}
	if p.Routing != nil {
		n++
	}
	return n
}

// Validate checks that the union carries exactly the case for the given
// pattern and that the case's own constraints hold against the roster.
// Roster names are the agent names available to the block.
func (p PatternParams) Validate(pattern Pattern, roster []Agent) error {
	if !pattern.Valid() {
		return fmt.Errorf("unknown pattern %q", pattern)
	}
	if p.setCount() != 1 {
		return fmt.Errorf("pattern %s: exactly one params case must be set, got %d", pattern, p.setCount())
	}

	known := make(map[string]bool, len(roster))
	for _, a := range roster {
		known[a.Name] = true
	}
	resolve := func(field string, names ...string) error {
		for _, name := range names {
			if name == "" {
				return fmt.Errorf("pattern %s: %s contains an empty agent name", pattern, field)
			}
			if !known[name] {
				return fmt.Errorf("pattern %s: %s references unknown agent %q", pattern, field, name)
			}
		}
		return nil
	}

	switch pattern {
	case PatternSequential:
		if p.Sequential == nil {
			return fmt.Errorf("pattern sequential: sequential params missing")
		}
		if len(p.Sequential.AgentSequence) == 0 {
			return fmt.Errorf("pattern sequential: agent_sequence must not be empty")
		}
		return resolve("agent_sequence", p.Sequential.AgentSequence...)

	case PatternParallel:
		if p.Parallel == nil {
			return fmt.Errorf("pattern parallel: parallel params missing")
		}
		if len(p.Parallel.WorkerNames) == 0 {
			return fmt.Errorf("pattern parallel: worker_names must not be empty")
		}
		if err := resolve("worker_names", p.Parallel.WorkerNames...); err != nil {
			return err
		}
		return resolve("aggregator_name", p.Parallel.AggregatorName)

	case PatternHierarchical:
		if p.Hierarchical == nil {
			return fmt.Errorf("pattern hierarchical: hierarchical params missing")
		}
		if len(p.Hierarchical.WorkerNames) == 0 {
			return fmt.Errorf("pattern hierarchical: worker_names must not be empty")
		}
		if err := resolve("manager_name", p.Hierarchical.ManagerName); err != nil {
			return err
		}
		return resolve("worker_names", p.Hierarchical.WorkerNames...)

	case PatternDebate:
		if p.Debate == nil {
			return fmt.Errorf("pattern debate: debate params missing")
		}
		if p.Debate.Rounds < 1 {
			return fmt.Errorf("pattern debate: rounds must be at least 1, got %d", p.Debate.Rounds)
		}
		if len(p.Debate.ParticipantNames) == 0 {
			return fmt.Errorf("pattern debate: participant_names must not be empty")
		}
		if err := resolve("participant_names", p.Debate.ParticipantNames...); err != nil {
			return err
		}
		if p.Debate.ModeratorName != "" {
			return resolve("moderator_name", p.Debate.ModeratorName)
		}
		return nil

	case PatternRouting:
		if p.Routing == nil {
			return fmt.Errorf("pattern routing: routing params missing")
		}
		if len(p.Routing.SpecialistNames) == 0 {
			return fmt.Errorf("pattern routing: specialist_names must not be empty")
		}
		if err := resolve("router_name", p.Routing.RouterName); err != nil {
			return err
		}
		return resolve("specialist_names", p.Routing.SpecialistNames...)
	}

	return nil
}
