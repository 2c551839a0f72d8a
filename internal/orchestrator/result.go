package orchestrator

import "github.com/loomhq/loom/pkg/models"

// RunState tracks a pattern run through its lifecycle. Runs never resume: a
// retried run starts from RunPending again.
type RunState string

const (
	// RunPending means the run has been accepted but not started.
	RunPending RunState = "pending"
	// RunRunning means agent calls are in flight.
	RunRunning RunState = "running"
	// RunSucceeded means the run completed with an output.
	RunSucceeded RunState = "succeeded"
	// RunFailed means the run completed with an error.
	RunFailed RunState = "failed"
)

// Call records one agent invocation for later inspection.
type Call struct {
	Agent  string `json:"agent"`
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Err    string `json:"error,omitempty"`
}

// StepOutput is one completed step of a sequential chain.
type StepOutput struct {
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

// WorkerOutput is one fanned-out worker's slot. Failed slots carry an
// explicit failure marker as their output.
type WorkerOutput struct {
	Agent  string `json:"agent"`
	Output string `json:"output"`
	Failed bool   `json:"failed,omitempty"`
}

// Statement is one turn of a debate transcript.
type Statement struct {
	Round     int    `json:"round"`
	Speaker   string `json:"speaker"`
	Moderator bool   `json:"moderator,omitempty"`
	Text      string `json:"text"`
}

// RunResult is the normalized outcome of one pattern run. Output is always
// set on success; the pattern-specific fields are populated only by the
// pattern that produces them.
type RunResult struct {
	Pattern    models.Pattern `json:"pattern"`
	State      RunState       `json:"state"`
	Output     string         `json:"output,omitempty"`
	Calls      []Call         `json:"calls,omitempty"`
	DurationMS int64          `json:"duration_ms"`

	// Sequential.
	Steps []StepOutput `json:"steps,omitempty"`

	// Parallel, hierarchical, and routing fan-outs.
	Workers []WorkerOutput `json:"workers,omitempty"`

	// Debate.
	Transcript []Statement `json:"transcript,omitempty"`

	// Hierarchical.
	Delegation string `json:"delegation,omitempty"`

	// Routing.
	SelectedAgents    []string          `json:"selected_agents,omitempty"`
	Reasoning         string            `json:"reasoning,omitempty"`
	SpecialistOutputs map[string]string `json:"specialist_outputs,omitempty"`
}
