package api

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/pkg/models"
)

func TestNewClientWithAPIKey(t *testing.T) {
	client, err := NewClient(ClientConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}
	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClientNoAPIKey(t *testing.T) {
	original := os.Getenv("ANTHROPIC_API_KEY")
	defer os.Setenv("ANTHROPIC_API_KEY", original)
	os.Unsetenv("ANTHROPIC_API_KEY")

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatal("NewClient should fail without API key")
	}
}

func TestNewClientDefaultModel(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Default model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	want := anthropic.Model("us.anthropic.claude-sonnet-4-20250514-v1:0")
	if got != want {
		t.Errorf("translated model = %q, want %q", got, want)
	}

	// Unknown models pass through untouched.
	custom := anthropic.Model("us.anthropic.custom-model-v1:0")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("custom model should pass through, got %q", got)
	}
}

func TestTokenTrackerAccumulates(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(100, 50)
	tracker.Add(200, 100)

	input, output := tracker.Total()
	if input != 300 || output != 150 {
		t.Errorf("Total = (%d, %d), want (300, 150)", input, output)
	}
	if tracker.Calls() != 2 {
		t.Errorf("Calls = %d, want 2", tracker.Calls())
	}

	tracker.Reset()
	input, output = tracker.Total()
	if input != 0 || output != 0 || tracker.Calls() != 0 {
		t.Errorf("after reset: input=%d output=%d calls=%d", input, output, tracker.Calls())
	}
}

func TestTokenTrackerCost(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(1_000_000, 1_000_000)

	if cost := tracker.Cost(); cost != 18.0 {
		t.Errorf("Cost = %f, want 18.0", cost)
	}
}

func TestBuildParamsTemperature(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	agent := models.Agent{Name: "A", SystemPrompt: "p", Role: models.RoleWorker}

	params := client.buildParams(agent, "hello")
	if params.Temperature.Valid() {
		t.Errorf("nil temperature must leave the provider default, got %v", params.Temperature.Value)
	}

	zero := 0.0
	agent.Temperature = &zero
	params = client.buildParams(agent, "hello")
	if !params.Temperature.Valid() || params.Temperature.Value != 0 {
		t.Errorf("explicit temperature 0 must be sent, got %v", params.Temperature)
	}

	warm := 0.7
	agent.Temperature = &warm
	params = client.buildParams(agent, "hello")
	if !params.Temperature.Valid() || params.Temperature.Value != 0.7 {
		t.Errorf("temperature 0.7 must be sent, got %v", params.Temperature)
	}
}

func TestMaxTokensDefault(t *testing.T) {
	agent := models.Agent{Name: "A", SystemPrompt: "p", Role: models.RoleWorker}
	if got := maxTokens(agent); got != defaultMaxTokens {
		t.Errorf("maxTokens = %d, want default %d", got, defaultMaxTokens)
	}

	agent.MaxTokens = 1024
	if got := maxTokens(agent); got != 1024 {
		t.Errorf("maxTokens = %d, want 1024", got)
	}
}

func TestClassifyErrorTimeout(t *testing.T) {
	err := classifyError("Analyst", context.DeadlineExceeded)

	var invErr *orchestrator.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvocationError, got %v", err)
	}
	if !invErr.Retriable {
		t.Error("timeout must be retriable")
	}
	if invErr.Agent != "Analyst" {
		t.Errorf("error must name the agent, got %q", invErr.Agent)
	}
}

func TestClassifyErrorAPIStatus(t *testing.T) {
	cases := []struct {
		status    int
		retriable bool
	}{
		{429, true},
		{500, true},
		{529, true},
		{400, false},
		{401, false},
	}
	for _, tc := range cases {
		apiErr := &anthropic.Error{StatusCode: tc.status}
		err := classifyError("A", apiErr)

		var invErr *orchestrator.InvocationError
		if !errors.As(err, &invErr) {
			t.Fatalf("status %d: expected InvocationError, got %v", tc.status, err)
		}
		if invErr.Retriable != tc.retriable {
			t.Errorf("status %d: retriable = %t, want %t", tc.status, invErr.Retriable, tc.retriable)
		}
		if !errors.As(err, &apiErr) {
			t.Errorf("status %d: underlying API error must stay unwrappable", tc.status)
		}
	}
}

func TestClassifyErrorOther(t *testing.T) {
	err := classifyError("A", errors.New("connection refused"))

	var invErr *orchestrator.InvocationError
	if !errors.As(err, &invErr) {
		t.Fatalf("expected InvocationError, got %v", err)
	}
	if invErr.Retriable {
		t.Error("unclassified errors must not be retriable")
	}
}
