package models

import "fmt"

// Block is one node of a design: a single pattern invocation over its own
// agent roster and task.
type Block struct {
	// ID uniquely identifies the block within its design.
	ID string `json:"id" yaml:"id" bson:"id"`
	// Name is an optional human-readable label. Falls back to ID in output.
	Name string `json:"name,omitempty" yaml:"name,omitempty" bson:"name,omitempty"`
	// Pattern selects the orchestration topology for this block.
	Pattern Pattern `json:"pattern" yaml:"pattern" bson:"pattern"`
	// Agents is the ordered roster available to this block.
	Agents []Agent `json:"agents" yaml:"agents" bson:"agents"`
	// Task is the task description handed to the pattern.
	Task string `json:"task" yaml:"task" bson:"task"`
	// Params carries the pattern-specific parameters.
	Params PatternParams `json:"params" yaml:"params" bson:"params"`
}

// Label returns the block's display name.
func (b Block) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// Validate checks the block's agents and pattern parameters.
func (b Block) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("block id must not be empty")
	}
	if len(b.Agents) == 0 {
		return fmt.Errorf("block %s: agent roster must not be empty", b.ID)
	}
	seen := make(map[string]bool, len(b.Agents))
	for _, a := range b.Agents {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("block %s: %w", b.ID, err)
		}
		if seen[a.Name] {
			return fmt.Errorf("block %s: duplicate agent name %q", b.ID, a.Name)
		}
		seen[a.Name] = true
	}
	if err := b.Params.Validate(b.Pattern, b.Agents); err != nil {
		return fmt.Errorf("block %s: %w", b.ID, err)
	}
	return nil
}

// Connection is a directed edge between two blocks: the target receives
// the source's output as (part of) its input.
type Connection struct {
	// SourceID is the block producing the upstream output.
	SourceID string `json:"source_id" yaml:"source_id" bson:"source_id"`
	// TargetID is the block consuming the output.
	TargetID string `json:"target_id" yaml:"target_id" bson:"target_id"`
}

// Design is a directed acyclic graph of blocks representing a composed
// multi-stage pipeline. Designs are read-only during execution.
type Design struct {
	// ID uniquely identifies the design.
	ID string `json:"id" yaml:"id" bson:"_id"`
	// Name is the human-readable design name.
	Name string `json:"name" yaml:"name" bson:"name"`
	// Blocks are the design's nodes. IDs must be unique.
	Blocks []Block `json:"blocks" yaml:"blocks" bson:"blocks"`
	// Connections are the design's directed edges.
	Connections []Connection `json:"connections,omitempty" yaml:"connections,omitempty" bson:"connections,omitempty"`
}

// Block returns the block with the given ID, or nil if absent.
func (d *Design) Block(id string) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].ID == id {
			return &d.Blocks[i]
		}
	}
	return nil
}

// Validate checks structural constraints: non-empty identity, unique block
// IDs, valid blocks, and connections that reference known blocks. Acyclicity
// is checked by the graph executor, not here, so that a cycle surfaces at
// execute time rather than at load or schedule time.
func (d *Design) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("design id must not be empty")
	}
	if len(d.Blocks) == 0 {
		return fmt.Errorf("design %s: at least one block required", d.ID)
	}
	ids := make(map[string]bool, len(d.Blocks))
	for _, b := range d.Blocks {
		if ids[b.ID] {
			return fmt.Errorf("design %s: duplicate block id %q", d.ID, b.ID)
		}
		ids[b.ID] = true
		if err := b.Validate(); err != nil {
			return fmt.Errorf("design %s: %w", d.ID, err)
		}
	}
	for _, c := range d.Connections {
		if !ids[c.SourceID] {
			return fmt.Errorf("design %s: connection references unknown source block %q", d.ID, c.SourceID)
		}
		if !ids[c.TargetID] {
			return fmt.Errorf("design %s: connection references unknown target block %q", d.ID, c.TargetID)
		}
		if c.SourceID == c.TargetID {
			return fmt.Errorf("design %s: block %q connects to itself", d.ID, c.SourceID)
		}
	}
	return nil
}
