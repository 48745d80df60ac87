// definition.go
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// QuestionType enumerates the answerable item kinds a definition may declare.
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeNumber         QuestionType = "number"
	TypeSingleChoice   QuestionType = "single_choice"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeScale          QuestionType = "scale"
	TypeBoolean        QuestionType = "boolean"
	TypeDate           QuestionType = "date"
	TypeInstruction    QuestionType = "instruction"
)

// Aggregation is how a scoring domain combines its member items.
type Aggregation string

const (
	AggregationDirect Aggregation = "direct"
	AggregationMax    Aggregation = "max"
	AggregationSum    Aggregation = "sum"
)

// Option is one selectable choice. Code is the canonical value stored in the
// answer map; Score is its numeric contribution and defaults to the code when
// the code is numeric.
type Option struct {
	Code  string   `yaml:"code"`
	Label string   `yaml:"label"`
	Score *float64 `yaml:"score,omitempty"`
}

// ScoreValue returns the numeric contribution of this option.
func (o Option) ScoreValue() float64 {
	if o.Score != nil {
		return *o.Score
	}
	if f, ok := parseNumeric(o.Code); ok {
		return f
	}
	return 0
}

// Constraints restricts the values an answer may take.
type Constraints struct {
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Allowed []string `yaml:"allowed,omitempty"`
}

// Question is one answerable item of a questionnaire definition.
type Question struct {
	ID           string       `yaml:"id"`
	SectionID    string       `yaml:"section"`
	Text         string       `yaml:"text"`
	Type         QuestionType `yaml:"type"`
	Required     bool         `yaml:"required"`
	Options      []Option     `yaml:"options,omitempty"`
	Constraints  *Constraints `yaml:"constraints,omitempty"`
	DisplayIf    *Expr        `yaml:"display_if,omitempty"`
	RequiredIf   *Expr        `yaml:"required_if,omitempty"`
	ScoringGroup string       `yaml:"scoring_group,omitempty"`
	Aggregation  Aggregation  `yaml:"aggregation,omitempty"`
}

// OptionByCode finds the option matching a canonical answer code. Numeric
// comparison is attempted first so "2.0" and "2" match the same option.
func (q *Question) OptionByCode(code string) (Option, bool) {
	for _, o := range q.Options {
		if CodeEqual(o.Code, code) {
			return o, true
		}
	}
	return Option{}, false
}

// Section groups questions for display. Sections do not nest.
type Section struct {
	ID        string   `yaml:"id"`
	Label     string   `yaml:"label"`
	Questions []string `yaml:"questions"`
}

// Range is a closed numeric interval declared by a definition.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Metadata identifies one versioned questionnaire instrument.
type Metadata struct {
	ID              string   `yaml:"id"`
	Code            string   `yaml:"code"`
	Name            string   `yaml:"name"`
	Language        string   `yaml:"language"`
	Version         string   `yaml:"version"`
	TargetRole      string   `yaml:"target_role"`
	Pathologies     []string `yaml:"pathologies,omitempty"`
	ReferencePeriod string   `yaml:"reference_period,omitempty"`
	ScoringRange    *Range   `yaml:"scoring_range,omitempty"`
}

// QuestionnaireDefinition is the aggregate root for one instrument. It is
// immutable once loaded; new versions are new definitions.
type QuestionnaireDefinition struct {
	Metadata  Metadata      `yaml:"metadata"`
	Sections  []Section     `yaml:"sections"`
	Questions []Question    `yaml:"questions"`
	Scoring   *ScoringRules `yaml:"scoring_rules,omitempty"`

	byID map[string]*Question
}

// LoadDefinition reads and validates a questionnaire definition YAML file.
// Malformed definitions are rejected here, at load time, never at scoring
// time.
func LoadDefinition(path string) (*QuestionnaireDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var def QuestionnaireDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition YAML: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("definition %q: %w", def.Metadata.Code, err)
	}
	return &def, nil
}

// Question returns the question with the given id, if any.
func (d *QuestionnaireDefinition) Question(id string) (*Question, bool) {
	q, ok := d.byID[id]
	return q, ok
}

// Validate checks the structural invariants of the definition and compiles
// every branching expression. Any violation is an authoring defect.
func (d *QuestionnaireDefinition) Validate() error {
	if d.Metadata.Code == "" {
		return fmt.Errorf("metadata.code is required")
	}

	d.byID = make(map[string]*Question, len(d.Questions))
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.ID == "" {
			return fmt.Errorf("question %d has no id", i)
		}
		if _, dup := d.byID[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		d.byID[q.ID] = q

		if err := validateQuestion(q); err != nil {
			return err
		}
	}

	for _, s := range d.Sections {
		for _, qid := range s.Questions {
			if _, ok := d.byID[qid]; !ok {
				return fmt.Errorf("section %q references unknown question %q", s.ID, qid)
			}
		}
	}

	if d.Scoring != nil {
		if err := d.Scoring.validate(d); err != nil {
			return err
		}
	}
	return nil
}

func validateQuestion(q *Question) error {
	switch q.Type {
	case TypeText, TypeNumber, TypeSingleChoice, TypeMultipleChoice,
		TypeScale, TypeBoolean, TypeDate, TypeInstruction:
	default:
		return fmt.Errorf("question %q: unknown type %q", q.ID, q.Type)
	}

	if q.Aggregation == "" {
		q.Aggregation = AggregationDirect
	}
	switch q.Aggregation {
	case AggregationDirect, AggregationMax, AggregationSum:
	default:
		return fmt.Errorf("question %q: unknown aggregation %q", q.ID, q.Aggregation)
	}

	// Domain membership implies a real aggregation; a grouped item marked
	// direct is an authoring bug.
	if q.ScoringGroup != "" && q.Aggregation == AggregationDirect {
		return fmt.Errorf("question %q: scoring_group %q requires aggregation max or sum", q.ID, q.ScoringGroup)
	}

	if q.Type == TypeSingleChoice || q.Type == TypeMultipleChoice {
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q: choice type without options", q.ID)
		}
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			if seen[o.Code] {
				return fmt.Errorf("question %q: duplicate option code %q", q.ID, o.Code)
			}
			seen[o.Code] = true
		}
	}

	if q.DisplayIf != nil {
		if err := q.DisplayIf.Compile(); err != nil {
			return fmt.Errorf("question %q: display_if: %w", q.ID, err)
		}
	}
	if q.RequiredIf != nil {
		if err := q.RequiredIf.Compile(); err != nil {
			return fmt.Errorf("question %q: required_if: %w", q.ID, err)
		}
	}
	return nil
}
