// load.go
package norms

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the loaded-once, read-only set of norm tables. It is safely
// shared across concurrent evaluations without locking.
type Catalog struct {
	subtests   map[string]*Table
	composites map[string]*CompositeTable
}

// Subtest returns the first-stage table for an instrument subscale key.
func (c *Catalog) Subtest(instrument string) (*Table, bool) {
	t, ok := c.subtests[instrument]
	return t, ok
}

// Composite returns the second-stage table for a composite index key.
func (c *Catalog) Composite(instrument string) (*CompositeTable, bool) {
	t, ok := c.composites[instrument]
	return t, ok
}

// Subtests lists the loaded subtest instrument keys.
func (c *Catalog) Subtests() []string {
	keys := make([]string, 0, len(c.subtests))
	for k := range c.subtests {
		keys = append(keys, k)
	}
	return keys
}

// LoadDir reads every norm table YAML file in a directory. Each file holds
// one table, discriminated by its "kind" field (subtest or composite).
// Structural defects fail the load; they are authoring bugs, not runtime
// conditions.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read norms directory: %w", err)
	}

	catalog := &Catalog{
		subtests:   make(map[string]*Table),
		composites: make(map[string]*CompositeTable),
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := catalog.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			return nil, fmt.Errorf("norm table %s: %w", entry.Name(), err)
		}
	}
	return catalog, nil
}

func (c *Catalog) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var probe struct {
		Kind string `yaml:"kind"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Kind {
	case "subtest":
		var table Table
		if err := yaml.Unmarshal(data, &table); err != nil {
			return err
		}
		if err := table.validate(); err != nil {
			return err
		}
		if _, dup := c.subtests[table.Instrument]; dup {
			return fmt.Errorf("duplicate subtest table %q", table.Instrument)
		}
		c.subtests[table.Instrument] = &table

	case "composite":
		var table CompositeTable
		if err := yaml.Unmarshal(data, &table); err != nil {
			return err
		}
		if err := table.validate(); err != nil {
			return err
		}
		if _, dup := c.composites[table.Instrument]; dup {
			return fmt.Errorf("duplicate composite table %q", table.Instrument)
		}
		c.composites[table.Instrument] = &table

	default:
		return fmt.Errorf("unknown table kind %q", probe.Kind)
	}
	return nil
}
