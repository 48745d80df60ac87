// Catalog: the immutable, loaded-once instrument and norm data shared by
// every request.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/norms"
)

// Catalog holds every questionnaire definition and norm table. It is built
// once at startup and read-only afterwards, so concurrent evaluations need
// no coordination.
type Catalog struct {
	definitions map[string]*models.QuestionnaireDefinition
	codes       []string
	Norms       *norms.Catalog
}

// Load reads all definition files and norm tables. Any configuration defect
// fails the load; a server with a broken instrument must not start.
func Load(definitionsDir, normsDir string) (*Catalog, error) {
	c := &Catalog{definitions: make(map[string]*models.QuestionnaireDefinition)}

	entries, err := os.ReadDir(definitionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		def, err := models.LoadDefinition(filepath.Join(definitionsDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		code := def.Metadata.Code
		if _, dup := c.definitions[code]; dup {
			return nil, fmt.Errorf("duplicate definition code %q", code)
		}
		c.definitions[code] = def
		c.codes = append(c.codes, code)
	}
	sort.Strings(c.codes)

	c.Norms, err = norms.LoadDir(normsDir)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Definition returns the definition with the given instrument code.
func (c *Catalog) Definition(code string) (*models.QuestionnaireDefinition, bool) {
	def, ok := c.definitions[code]
	return def, ok
}

// Definitions returns every loaded definition, ordered by code.
func (c *Catalog) Definitions() []*models.QuestionnaireDefinition {
	defs := make([]*models.QuestionnaireDefinition, 0, len(c.codes))
	for _, code := range c.codes {
		defs = append(defs, c.definitions[code])
	}
	return defs
}
