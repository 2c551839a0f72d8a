// Package design loads design definitions from YAML or JSON files and keeps
// a designs directory synced into the store.
package design

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/loomhq/loom/pkg/models"
)

// LoadFile parses one design file. The format follows the file extension:
// .yaml/.yml or .json. Malformed graphs are rejected here, before anything
// can execute them.
func LoadFile(path string) (*models.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read design file: %w", err)
	}

	var design models.Design
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &design); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	case ".json":
		if err := json.Unmarshal(data, &design); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("unsupported design file extension %q", filepath.Ext(path))
	}

	if design.ID == "" {
		// Fall back to the file name so hand-written files stay terse.
		design.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := design.Validate(); err != nil {
		return nil, err
	}
	return &design, nil
}

// LoadDir parses every design file in a directory, non-recursively. Files
// with unknown extensions are skipped; a malformed design fails the whole
// load so a bad file never silently disappears.
func LoadDir(dir string) ([]*models.Design, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read designs directory: %w", err)
	}

	var designs []*models.Design
	for _, entry := range entries {
		if entry.IsDir() || !isDesignFile(entry.Name()) {
			continue
		}
		d, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		designs = append(designs, d)
	}
	return designs, nil
}

func isDesignFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
