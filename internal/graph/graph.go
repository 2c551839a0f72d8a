// Package graph executes a Design as a directed acyclic graph of blocks.
//
// Blocks are grouped into dependency levels with Kahn's algorithm; blocks in
// the same level run concurrently, levels run in order. A block with no
// incoming connection is a root and receives the external input; a block with
// several predecessors receives their outputs merged into labeled sections.
// Sink outputs are merged under the same policy to form the design's result.
package graph

import (
	"errors"
	"fmt"

	"github.com/loomhq/loom/pkg/models"
)

// ErrCycleDetected indicates the design's connections form a cycle. It is
// raised at execute time, never at schedule time.
var ErrCycleDetected = errors.New("cycle detected in design graph")

// debugLog is an optional package-level logging hook, no-op by default.
var debugLog = func(format string, args ...interface{}) {}

// SetDebugLog sets the package-level debug logging function.
func SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		debugLog = fn
	}
}

// Validate checks that the design's connections form a DAG over its
// blocks, without executing anything. Returns ErrCycleDetected (wrapped)
// for a cyclic design. Execution performs the same check, so callers only
// need Validate for offline checking, like `loom validate`.
func Validate(design *models.Design) error {
	_, err := buildLevels(design)
	return err
}

// buildLevels groups the design's blocks into dependency levels. Blocks
// within one level have no edges between them and may execute concurrently.
// Ordering inside every level follows block declaration order, so traversal
// is deterministic regardless of connection order.
func buildLevels(design *models.Design) ([][]models.Block, error) {
	inDegree := make(map[string]int, len(design.Blocks))
	for _, b := range design.Blocks {
		inDegree[b.ID] = 0
	}
	for _, c := range design.Connections {
		if _, ok := inDegree[c.SourceID]; !ok {
			return nil, fmt.Errorf("connection references unknown block %q", c.SourceID)
		}
		if _, ok := inDegree[c.TargetID]; !ok {
			return nil, fmt.Errorf("connection references unknown block %q", c.TargetID)
		}
		inDegree[c.TargetID]++
	}

	visited := make(map[string]bool, len(design.Blocks))
	var levels [][]models.Block

	for len(visited) < len(design.Blocks) {
		// Scan in declaration order so level membership is stable.
		var level []models.Block
		for _, b := range design.Blocks {
			if !visited[b.ID] && inDegree[b.ID] == 0 {
				level = append(level, b)
			}
		}
		if len(level) == 0 {
			return nil, fmt.Errorf("design %s: %w", design.ID, ErrCycleDetected)
		}
		for _, b := range level {
			visited[b.ID] = true
			for _, c := range design.Connections {
				if c.SourceID == b.ID {
					inDegree[c.TargetID]--
				}
			}
		}
		levels = append(levels, level)
	}

	return levels, nil
}

// predecessors returns each block's predecessor IDs keyed by target ID.
func predecessors(design *models.Design) map[string][]string {
	preds := make(map[string][]string)
	for _, c := range design.Connections {
		preds[c.TargetID] = append(preds[c.TargetID], c.SourceID)
	}
	return preds
}

// sinks returns the blocks with no outgoing connection, in declaration order.
func sinks(design *models.Design) []models.Block {
	hasOut := make(map[string]bool)
	for _, c := range design.Connections {
		hasOut[c.SourceID] = true
	}
	var out []models.Block
	for _, b := range design.Blocks {
		if !hasOut[b.ID] {
			out = append(out, b)
		}
	}
	return out
}
