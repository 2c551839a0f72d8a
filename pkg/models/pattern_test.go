package models

import (
	"strings"
	"testing"
)

func testRoster() []Agent {
	return []Agent{
		{Name: "Planner", SystemPrompt: "plan", Role: RoleManager},
		{Name: "Researcher", SystemPrompt: "research", Role: RoleWorker},
		{Name: "Writer", SystemPrompt: "write", Role: RoleWorker},
	}
}

func TestPatternValid(t *testing.T) {
	for _, p := range []Pattern{PatternSequential, PatternParallel, PatternHierarchical, PatternDebate, PatternRouting} {
		if !p.Valid() {
			t.Errorf("expected pattern %q to be valid", p)
		}
	}
	if Pattern("pipeline").Valid() {
		t.Error("expected unknown pattern to be invalid")
	}
}

func TestPatternParamsExactlyOneCase(t *testing.T) {
	params := PatternParams{
		Sequential: &SequentialParams{AgentSequence: []string{"Researcher"}},
		Debate:     &DebateParams{ParticipantNames: []string{"Researcher"}, Rounds: 1},
	}
	err := params.Validate(PatternSequential, testRoster())
	if err == nil {
		t.Fatal("expected error for two populated cases")
	}
	if !strings.Contains(err.Error(), "exactly one") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPatternParamsCaseMismatch(t *testing.T) {
	params := PatternParams{
		Parallel: &ParallelParams{WorkerNames: []string{"Researcher"}, AggregatorName: "Planner"},
	}
	if err := params.Validate(PatternDebate, testRoster()); err == nil {
		t.Fatal("expected error when params case does not match pattern")
	}
}

func TestPatternParamsUnknownAgent(t *testing.T) {
	params := PatternParams{
		Sequential: &SequentialParams{AgentSequence: []string{"Researcher", "Ghost"}},
	}
	err := params.Validate(PatternSequential, testRoster())
	if err == nil {
		t.Fatal("expected error for unknown agent name")
	}
	if !strings.Contains(err.Error(), "Ghost") {
		t.Errorf("error should name the unknown agent: %v", err)
	}
}

func TestDebateParamsRounds(t *testing.T) {
	params := PatternParams{
		Debate: &DebateParams{ParticipantNames: []string{"Researcher", "Writer"}, Rounds: 0},
	}
	if err := params.Validate(PatternDebate, testRoster()); err == nil {
		t.Fatal("expected error for rounds=0")
	}

	params.Debate.Rounds = 2
	if err := params.Validate(PatternDebate, testRoster()); err != nil {
		t.Fatalf("unexpected error for rounds=2: %v", err)
	}
}

func TestDebateParamsOptionalModerator(t *testing.T) {
	params := PatternParams{
		Debate: &DebateParams{
			ParticipantNames: []string{"Researcher", "Writer"},
			ModeratorName:    "Planner",
			Rounds:           1,
		},
	}
	if err := params.Validate(PatternDebate, testRoster()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params.Debate.ModeratorName = "Nobody"
	if err := params.Validate(PatternDebate, testRoster()); err == nil {
		t.Fatal("expected error for unknown moderator")
	}
}

func TestRoutingParamsValidation(t *testing.T) {
	params := PatternParams{
		Routing: &RoutingParams{RouterName: "Planner", SpecialistNames: []string{"Researcher", "Writer"}},
	}
	if err := params.Validate(PatternRouting, testRoster()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	params.Routing.SpecialistNames = nil
	if err := params.Validate(PatternRouting, testRoster()); err == nil {
		t.Fatal("expected error for empty specialist list")
	}
}
