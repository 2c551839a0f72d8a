package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const chainDesignYAML = `
id: chain
blocks:
  - id: block-1
    pattern: sequential
    task: First step
    agents:
      - name: A
        system_prompt: p
        role: worker
    params:
      sequential:
        agent_sequence: [A]
  - id: block-2
    pattern: sequential
    task: Second step
    agents:
      - name: B
        system_prompt: p
        role: worker
    params:
      sequential:
        agent_sequence: [B]
connections:
  - source_id: block-1
    target_id: block-2
`

const cyclicDesignYAML = chainDesignYAML + `  - source_id: block-2
    target_id: block-1
`

func writeDesignFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidateAcceptsChainDesign(t *testing.T) {
	path := writeDesignFile(t, "chain.yaml", chainDesignYAML)

	if err := runValidate(validateCmd, []string{path}); err != nil {
		t.Fatalf("valid design rejected: %v", err)
	}
}

func TestValidateRejectsCyclicDesign(t *testing.T) {
	path := writeDesignFile(t, "cyclic.yaml", cyclicDesignYAML)

	err := runValidate(validateCmd, []string{path})
	if err == nil {
		t.Fatal("cyclic design must fail validation")
	}
	if !strings.Contains(err.Error(), "failed validation") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsCyclicDesignInDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "cyclic.yaml"), []byte(cyclicDesignYAML), 0644); err != nil {
		t.Fatalf("write design: %v", err)
	}

	if err := runValidate(validateCmd, []string{dir}); err == nil {
		t.Fatal("directory with a cyclic design must fail validation")
	}
}
