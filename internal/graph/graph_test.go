package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/pkg/models"
)

// fakeRunner echoes a canned output per block ID and records invocations.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	failing map[string]error
	inputs  map[string]string
	order   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		outputs: make(map[string]string),
		failing: make(map[string]error),
		inputs:  make(map[string]string),
	}
}

func (f *fakeRunner) RunBlock(ctx context.Context, block models.Block, input string) (*orchestrator.RunResult, error) {
	f.mu.Lock()
	f.inputs[block.ID] = input
	f.order = append(f.order, block.ID)
	f.mu.Unlock()

	if err, ok := f.failing[block.ID]; ok {
		return &orchestrator.RunResult{Pattern: block.Pattern, State: orchestrator.RunFailed}, err
	}
	out, ok := f.outputs[block.ID]
	if !ok {
		out = "output of " + block.ID
	}
	return &orchestrator.RunResult{Pattern: block.Pattern, State: orchestrator.RunSucceeded, Output: out}, nil
}

func (f *fakeRunner) indexOf(blockID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range f.order {
		if id == blockID {
			return i
		}
	}
	return -1
}

func testBlock(id string) models.Block {
	return models.Block{
		ID:      id,
		Pattern: models.PatternSequential,
		Agents:  []models.Agent{{Name: "A", SystemPrompt: "p", Role: models.RoleWorker}},
		Task:    "task for " + id,
		Params: models.PatternParams{
			Sequential: &models.SequentialParams{AgentSequence: []string{"A"}},
		},
	}
}

func chainDesign(ids ...string) *models.Design {
	d := &models.Design{ID: "d1", Name: "chain"}
	for _, id := range ids {
		d.Blocks = append(d.Blocks, testBlock(id))
	}
	for i := 0; i+1 < len(ids); i++ {
		d.Connections = append(d.Connections, models.Connection{SourceID: ids[i], TargetID: ids[i+1]})
	}
	return d
}

func TestExecuteCycleDetected(t *testing.T) {
	d := chainDesign("block-1", "block-2")
	d.Connections = append(d.Connections, models.Connection{SourceID: "block-2", TargetID: "block-1"})

	exec := NewExecutor(newFakeRunner())
	_, err := exec.Execute(context.Background(), d, "in")
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestValidateCyclicDesign(t *testing.T) {
	d := chainDesign("block-1", "block-2")
	d.Connections = append(d.Connections, models.Connection{SourceID: "block-2", TargetID: "block-1"})

	if err := Validate(d); !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
}

func TestValidateAcyclicDesign(t *testing.T) {
	if err := Validate(chainDesign("block-1", "block-2", "block-3")); err != nil {
		t.Fatalf("valid chain rejected: %v", err)
	}
}

func TestExecuteChainFlowsOutputsDownstream(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["block-1"] = "first result"
	runner.outputs["block-2"] = "second result"
	exec := NewExecutor(runner)

	result, err := exec.Execute(context.Background(), chainDesign("block-1", "block-2"), "external input")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runner.inputs["block-1"] != "external input" {
		t.Errorf("root block must receive the external input, got %q", runner.inputs["block-1"])
	}
	if runner.inputs["block-2"] != "first result" {
		t.Errorf("single-predecessor input must be the raw upstream output, got %q", runner.inputs["block-2"])
	}
	if result.Output != "second result" {
		t.Errorf("single sink output must pass through unlabeled, got %q", result.Output)
	}
	if len(result.Blocks) != 2 {
		t.Errorf("expected 2 block results, got %d", len(result.Blocks))
	}
}

func TestExecuteTopologicalOrder(t *testing.T) {
	// Diamond: a → b, a → c, b → d, c → d.
	d := &models.Design{
		ID:     "d1",
		Blocks: []models.Block{testBlock("a"), testBlock("b"), testBlock("c"), testBlock("d")},
		Connections: []models.Connection{
			{SourceID: "a", TargetID: "b"},
			{SourceID: "a", TargetID: "c"},
			{SourceID: "b", TargetID: "d"},
			{SourceID: "c", TargetID: "d"},
		},
	}
	runner := newFakeRunner()
	exec := NewExecutor(runner)

	if _, err := exec.Execute(context.Background(), d, "in"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ia, ib, ic, id := runner.indexOf("a"), runner.indexOf("b"), runner.indexOf("c"), runner.indexOf("d")
	if ia > ib || ia > ic {
		t.Errorf("a must run before b and c, order %v", runner.order)
	}
	if id < ib || id < ic {
		t.Errorf("d must run after b and c, order %v", runner.order)
	}
}

func TestExecuteMultiPredecessorMergeIsLabeled(t *testing.T) {
	d := &models.Design{
		ID: "d1",
		Blocks: []models.Block{
			testBlock("left"), testBlock("right"), testBlock("join"),
		},
		Connections: []models.Connection{
			// Declared right-before-left on purpose: the merge must follow
			// block declaration order, not connection order.
			{SourceID: "right", TargetID: "join"},
			{SourceID: "left", TargetID: "join"},
		},
	}
	d.Blocks[0].Name = "Left Branch"
	runner := newFakeRunner()
	runner.outputs["left"] = "L"
	runner.outputs["right"] = "R"
	exec := NewExecutor(runner)

	if _, err := exec.Execute(context.Background(), d, "in"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := runner.inputs["join"]
	if !strings.Contains(in, "## Output from Left Branch\nL") {
		t.Errorf("merge must label sections with the block name, got %q", in)
	}
	if !strings.Contains(in, "## Output from right\nR") {
		t.Errorf("merge must fall back to the block ID, got %q", in)
	}
	if li, ri := strings.Index(in, "Left Branch"), strings.Index(in, "## Output from right"); li > ri {
		t.Errorf("merge must keep block declaration order, got %q", in)
	}
}

func TestExecuteMultiSinkMerge(t *testing.T) {
	d := &models.Design{
		ID:     "d1",
		Blocks: []models.Block{testBlock("root"), testBlock("s1"), testBlock("s2")},
		Connections: []models.Connection{
			{SourceID: "root", TargetID: "s1"},
			{SourceID: "root", TargetID: "s2"},
		},
	}
	runner := newFakeRunner()
	runner.outputs["s1"] = "one"
	runner.outputs["s2"] = "two"
	exec := NewExecutor(runner)

	result, err := exec.Execute(context.Background(), d, "in")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "## Output from s1\none\n\n## Output from s2\ntwo"
	if result.Output != want {
		t.Errorf("multi-sink output mismatch:\nwant %q\ngot  %q", want, result.Output)
	}
}

func TestExecuteBlockFailureFailsRun(t *testing.T) {
	runner := newFakeRunner()
	runner.outputs["block-1"] = "done"
	runner.failing["block-2"] = fmt.Errorf("pattern run failed")
	exec := NewExecutor(runner)

	result, err := exec.Execute(context.Background(), chainDesign("block-1", "block-2", "block-3"), "in")
	if err == nil {
		t.Fatal("expected error from failing block")
	}
	if !strings.Contains(err.Error(), "block block-2") {
		t.Errorf("error must name the failing block, got %v", err)
	}
	if result.Blocks["block-1"] == nil || result.Blocks["block-1"].Output != "done" {
		t.Errorf("partial result must keep completed blocks, got %+v", result.Blocks)
	}
	if idx := runner.indexOf("block-3"); idx != -1 {
		t.Errorf("downstream block must not run after a failure, order %v", runner.order)
	}
}

func TestBuildLevelsSingleBlock(t *testing.T) {
	levels, err := buildLevels(chainDesign("only"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 1 || len(levels[0]) != 1 || levels[0][0].ID != "only" {
		t.Errorf("expected one single-block level, got %v", levels)
	}
}
