package models

import "fmt"

// AgentRole describes the function an agent plays inside a pattern.
type AgentRole string

const (
	// RoleWorker is a rank-and-file agent that produces output for a task.
	RoleWorker AgentRole = "worker"
	// RoleManager delegates work to workers and synthesizes their outputs.
	RoleManager AgentRole = "manager"
	// RoleSpecialist is a domain expert selectable by a router.
	RoleSpecialist AgentRole = "specialist"
	// RoleModerator summarizes debate rounds.
	RoleModerator AgentRole = "moderator"
)

// Valid returns true if the role is a known value.
func (r AgentRole) Valid() bool {
	switch r {
	case RoleWorker, RoleManager, RoleSpecialist, RoleModerator:
		return true
	default:
		return false
	}
}

// Agent describes one LLM participant in an orchestration run.
// Agents are immutable once constructed; they are created when a design
// or an ad-hoc run request is parsed.
type Agent struct {
	// Name uniquely identifies the agent within a run.
	Name string `json:"name" yaml:"name" bson:"name"`
	// SystemPrompt is the agent's fixed system prompt.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" bson:"system_prompt"`
	// Role is the function the agent plays inside its pattern.
	Role AgentRole `json:"role" yaml:"role" bson:"role"`
	// UseTools indicates whether the agent may issue tool calls.
	UseTools bool `json:"use_tools,omitempty" yaml:"use_tools,omitempty" bson:"use_tools,omitempty"`
	// MaxTokens caps the response length for each invocation.
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" bson:"max_tokens,omitempty"`
	// Temperature is the sampling temperature for each invocation, in
	// [0, 1]. Nil uses the provider default; zero is honored as
	// deterministic sampling.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" bson:"temperature,omitempty"`
}

// Validate checks the agent's structural constraints.
func (a Agent) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("agent name must not be empty")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("agent %s: unknown role %q", a.Name, a.Role)
	}
	if a.MaxTokens < 0 {
		return fmt.Errorf("agent %s: max_tokens must not be negative", a.Name)
	}
	if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 1) {
		return fmt.Errorf("agent %s: temperature %v out of range [0,1]", a.Name, *a.Temperature)
	}
	return nil
}
