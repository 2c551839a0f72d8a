package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loomhq/loom/internal/orchestrator"
	"github.com/loomhq/loom/pkg/models"
)

// BlockRunner executes one block's pattern over its roster. Satisfied by
// Runner; tests substitute a fake.
type BlockRunner interface {
	RunBlock(ctx context.Context, block models.Block, input string) (*orchestrator.RunResult, error)
}

// Runner adapts the orchestrator to the BlockRunner contract.
type Runner struct {
	orch *orchestrator.Orchestrator
}

// NewRunner creates a Runner backed by the given orchestrator.
func NewRunner(orch *orchestrator.Orchestrator) *Runner {
	return &Runner{orch: orch}
}

// RunBlock executes the block's declared pattern, folding the upstream
// input into the block's task.
func (r *Runner) RunBlock(ctx context.Context, block models.Block, input string) (*orchestrator.RunResult, error) {
	return r.orch.Run(ctx, block.Pattern, block.Agents, blockTask(block, input), block.Params)
}

// blockTask combines the block's declared task with the input flowing in
// from the external caller or from predecessor blocks.
func blockTask(block models.Block, input string) string {
	if input == "" {
		return block.Task
	}
	return fmt.Sprintf("%s\n\nInput:\n%s", block.Task, input)
}

// BlockResult is one block's outcome within a design run.
type BlockResult struct {
	BlockID    string                  `json:"block_id"`
	Name       string                  `json:"name"`
	Output     string                  `json:"output"`
	DurationMS int64                   `json:"duration_ms"`
	Run        *orchestrator.RunResult `json:"run,omitempty"`
}

// Result is the outcome of executing a whole design.
type Result struct {
	Output     string                  `json:"output"`
	Blocks     map[string]*BlockResult `json:"blocks"`
	DurationMS int64                   `json:"duration_ms"`
}

// Executor runs designs level by level through a BlockRunner.
type Executor struct {
	runner BlockRunner
}

// NewExecutor creates an Executor backed by the given runner.
func NewExecutor(runner BlockRunner) *Executor {
	return &Executor{runner: runner}
}

// Execute runs the design over the external input. Blocks in the same
// dependency level run concurrently; a level is joined in full before the
// next starts. The first block failure fails the run once its level has
// joined, and the returned Result still carries every completed block.
func (e *Executor) Execute(ctx context.Context, design *models.Design, input string) (*Result, error) {
	levels, err := buildLevels(design)
	if err != nil {
		return nil, err
	}
	preds := predecessors(design)

	result := &Result{Blocks: make(map[string]*BlockResult, len(design.Blocks))}
	outputs := make(map[string]string, len(design.Blocks))
	start := time.Now()

	debugLog("[graph.execute] design=%s blocks=%d levels=%d", design.ID, len(design.Blocks), len(levels))

	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			result.DurationMS = time.Since(start).Milliseconds()
			return result, err
		}

		type slot struct {
			block models.Block
			run   *orchestrator.RunResult
			err   error
		}
		slots := make([]slot, len(level))

		var wg sync.WaitGroup
		for i, block := range level {
			in := e.blockInput(design, preds[block.ID], outputs, input)

			wg.Add(1)
			go func(idx int, b models.Block, in string) {
				defer wg.Done()
				run, err := e.runner.RunBlock(ctx, b, in)
				slots[idx] = slot{block: b, run: run, err: err}
			}(i, block, in)
		}
		wg.Wait()

		for _, s := range slots {
			br := &BlockResult{BlockID: s.block.ID, Name: s.block.Label(), Run: s.run}
			if s.run != nil {
				br.Output = s.run.Output
				br.DurationMS = s.run.DurationMS
			}
			result.Blocks[s.block.ID] = br
			outputs[s.block.ID] = br.Output
		}
		for _, s := range slots {
			if s.err != nil {
				result.DurationMS = time.Since(start).Milliseconds()
				return result, fmt.Errorf("block %s: %w", s.block.Label(), s.err)
			}
		}
	}

	result.Output = e.mergeBlocks(design, sinks(design), outputs)
	result.DurationMS = time.Since(start).Milliseconds()
	debugLog("[graph.execute] design=%s completed in %dms", design.ID, result.DurationMS)
	return result, nil
}

// blockInput builds one block's input from its predecessors, or from the
// external input when it is a root.
func (e *Executor) blockInput(design *models.Design, predIDs []string, outputs map[string]string, external string) string {
	if len(predIDs) == 0 {
		return external
	}
	known := make(map[string]bool, len(predIDs))
	for _, id := range predIDs {
		known[id] = true
	}
	var blocks []models.Block
	for _, b := range design.Blocks {
		if known[b.ID] {
			blocks = append(blocks, b)
		}
	}
	return e.mergeBlocks(design, blocks, outputs)
}

// mergeBlocks combines several block outputs into one text. A single block
// passes through unlabeled; multiple blocks are rendered as labeled sections
// in block declaration order, so the merge is stable however the blocks
// finished.
func (e *Executor) mergeBlocks(design *models.Design, blocks []models.Block, outputs map[string]string) string {
	if len(blocks) == 0 {
		return ""
	}
	if len(blocks) == 1 {
		return outputs[blocks[0].ID]
	}
	var sections []string
	for _, b := range blocks {
		sections = append(sections, fmt.Sprintf("## Output from %s\n%s", b.Label(), outputs[b.ID]))
	}
	return strings.Join(sections, "\n\n")
}
