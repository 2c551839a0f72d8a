package models

import "testing"

func TestAgentValidateTemperature(t *testing.T) {
	agent := Agent{Name: "A", SystemPrompt: "p", Role: RoleWorker}
	if err := agent.Validate(); err != nil {
		t.Fatalf("agent without temperature must validate: %v", err)
	}

	zero := 0.0
	agent.Temperature = &zero
	if err := agent.Validate(); err != nil {
		t.Errorf("explicit temperature 0 must validate: %v", err)
	}

	high := 1.5
	agent.Temperature = &high
	if err := agent.Validate(); err == nil {
		t.Error("temperature above 1 must be rejected")
	}

	negative := -0.1
	agent.Temperature = &negative
	if err := agent.Validate(); err == nil {
		t.Error("negative temperature must be rejected")
	}
}
