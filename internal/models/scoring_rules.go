// scoring_rules.go
package models

import (
	"fmt"
	"sort"
)

// MissingPolicy controls how unanswered required questions are treated at
// scoring time. Only "error" is defined: a required, visible question left
// unanswered makes scoring impossible.
type MissingPolicy string

const MissingPolicyError MissingPolicy = "error"

// Domain is a set of items representing alternative expressions of one
// clinical concept, aggregated so the worst endorsed variant counts (max) or
// the endorsements accumulate (sum).
type Domain struct {
	ID                string      `yaml:"id"`
	Label             string      `yaml:"label,omitempty"`
	Items             []string    `yaml:"items"`
	Aggregation       Aggregation `yaml:"aggregation"`
	Range             Range       `yaml:"range"`
	MutuallyExclusive bool        `yaml:"mutually_exclusive,omitempty"`
}

// ThresholdBand is one named severity interval. Bands are closed integer
// intervals partitioning the total range with no gaps and no overlaps.
type ThresholdBand struct {
	Label          string `yaml:"label"`
	Interpretation string `yaml:"interpretation,omitempty"`
	Min            int    `yaml:"min"`
	Max            int    `yaml:"max"`
}

// AlertRule raises a non-blocking clinical alert when at least AtLeast of
// the listed items score exactly Value (e.g. three items at ceiling).
type AlertRule struct {
	ID      string   `yaml:"id"`
	Items   []string `yaml:"items"`
	Value   float64  `yaml:"value"`
	AtLeast int      `yaml:"at_least"`
	Message string   `yaml:"message"`
}

// ScreeningRules describes the conditional screening shape: a block of
// counted items plus a co-occurrence question and an impact question, with a
// conjunctive verdict.
type ScreeningRules struct {
	CountItems      []string `yaml:"count_items"`
	CountThreshold  int      `yaml:"count_threshold"`
	ConfirmItem     string   `yaml:"confirm_item"`
	ConfirmValue    string   `yaml:"confirm_value"`
	ImpactItem      string   `yaml:"impact_item"`
	ImpactThreshold float64  `yaml:"impact_threshold"`
	PositiveLabel   string   `yaml:"positive_label,omitempty"`
	NegativeLabel   string   `yaml:"negative_label,omitempty"`
	PositiveText    string   `yaml:"positive_text,omitempty"`
	NegativeText    string   `yaml:"negative_text,omitempty"`
}

// ScoringRules declares how one definition turns answers into scores.
type ScoringRules struct {
	MissingPolicy MissingPolicy   `yaml:"missing_policy,omitempty"`
	Domains       []Domain        `yaml:"domains,omitempty"`
	DirectItems   []string        `yaml:"direct_items,omitempty"`
	Total         Range           `yaml:"total"`
	Thresholds    []ThresholdBand `yaml:"thresholds,omitempty"`
	Alerts        []AlertRule     `yaml:"alerts,omitempty"`
	Screening     *ScreeningRules `yaml:"screening,omitempty"`
}

// Domain returns the declared domain with the given id.
func (r *ScoringRules) Domain(id string) (*Domain, bool) {
	for i := range r.Domains {
		if r.Domains[i].ID == id {
			return &r.Domains[i], true
		}
	}
	return nil, false
}

// BandFor returns the unique threshold band containing the total.
func (r *ScoringRules) BandFor(total float64) (ThresholdBand, bool) {
	for _, b := range r.Thresholds {
		if total >= float64(b.Min) && total <= float64(b.Max) {
			return b, true
		}
	}
	return ThresholdBand{}, false
}

func (r *ScoringRules) validate(def *QuestionnaireDefinition) error {
	if r.MissingPolicy == "" {
		r.MissingPolicy = MissingPolicyError
	}
	if r.MissingPolicy != MissingPolicyError {
		return fmt.Errorf("unknown missing policy %q", r.MissingPolicy)
	}

	member := make(map[string]string) // question id -> domain id
	for i := range r.Domains {
		d := &r.Domains[i]
		if d.Aggregation != AggregationMax && d.Aggregation != AggregationSum {
			return fmt.Errorf("domain %q: aggregation must be max or sum, got %q", d.ID, d.Aggregation)
		}
		if len(d.Items) == 0 {
			return fmt.Errorf("domain %q has no items", d.ID)
		}
		for _, qid := range d.Items {
			q, ok := def.Question(qid)
			if !ok {
				return fmt.Errorf("domain %q references unknown question %q", d.ID, qid)
			}
			if prev, dup := member[qid]; dup {
				return fmt.Errorf("question %q belongs to domains %q and %q", qid, prev, d.ID)
			}
			member[qid] = d.ID
			if q.ScoringGroup != "" && q.ScoringGroup != d.ID {
				return fmt.Errorf("question %q declares scoring_group %q but domain %q lists it", qid, q.ScoringGroup, d.ID)
			}
		}
	}

	// Every question that claims domain membership must be listed by that
	// domain; swapping membership silently changes clinical meaning.
	for i := range def.Questions {
		q := &def.Questions[i]
		if q.ScoringGroup == "" {
			continue
		}
		if member[q.ID] != q.ScoringGroup {
			return fmt.Errorf("question %q: scoring_group %q is not a declared domain containing it", q.ID, q.ScoringGroup)
		}
	}

	for _, qid := range r.DirectItems {
		if _, ok := def.Question(qid); !ok {
			return fmt.Errorf("direct item references unknown question %q", qid)
		}
		if d, dup := member[qid]; dup {
			return fmt.Errorf("question %q is both a direct item and a member of domain %q", qid, d)
		}
	}

	if len(r.Thresholds) > 0 {
		if err := validateThresholds(r.Thresholds, r.Total); err != nil {
			return err
		}
	}

	if r.Screening != nil {
		if err := r.Screening.validate(def); err != nil {
			return err
		}
	}

	for _, a := range r.Alerts {
		for _, qid := range a.Items {
			if _, ok := def.Question(qid); !ok {
				return fmt.Errorf("alert %q references unknown question %q", a.ID, qid)
			}
		}
		if a.AtLeast <= 0 {
			return fmt.Errorf("alert %q: at_least must be positive", a.ID)
		}
	}
	return nil
}

// validateThresholds checks the bands form an exact partition of the total
// range: contiguous, non-overlapping, covering every integer.
func validateThresholds(bands []ThresholdBand, total Range) error {
	sorted := make([]ThresholdBand, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	if sorted[0].Min != total.Min {
		return fmt.Errorf("threshold bands start at %d, total range starts at %d", sorted[0].Min, total.Min)
	}
	for i, b := range sorted {
		if b.Min > b.Max {
			return fmt.Errorf("threshold band %q: min %d > max %d", b.Label, b.Min, b.Max)
		}
		if i > 0 && b.Min != sorted[i-1].Max+1 {
			return fmt.Errorf("threshold bands %q and %q leave a gap or overlap between %d and %d",
				sorted[i-1].Label, b.Label, sorted[i-1].Max, b.Min)
		}
	}
	if last := sorted[len(sorted)-1]; last.Max != total.Max {
		return fmt.Errorf("threshold bands end at %d, total range ends at %d", last.Max, total.Max)
	}
	return nil
}

func (s *ScreeningRules) validate(def *QuestionnaireDefinition) error {
	if len(s.CountItems) == 0 {
		return fmt.Errorf("screening: count_items is empty")
	}
	for _, qid := range s.CountItems {
		if _, ok := def.Question(qid); !ok {
			return fmt.Errorf("screening references unknown count item %q", qid)
		}
	}
	if _, ok := def.Question(s.ConfirmItem); !ok {
		return fmt.Errorf("screening references unknown confirm item %q", s.ConfirmItem)
	}
	if _, ok := def.Question(s.ImpactItem); !ok {
		return fmt.Errorf("screening references unknown impact item %q", s.ImpactItem)
	}
	if s.PositiveLabel == "" {
		s.PositiveLabel = "POSITIF"
	}
	if s.NegativeLabel == "" {
		s.NegativeLabel = "NEGATIF"
	}
	return nil
}
