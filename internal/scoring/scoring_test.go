package scoring

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

func scaleOptions(max int) []models.Option {
	opts := make([]models.Option, 0, max+1)
	for i := 0; i <= max; i++ {
		opts = append(opts, models.Option{Code: fmt.Sprintf("%d", i)})
	}
	return opts
}

// maniaDefinition is a 5-item sum-scored scale with a ceiling escalation
// alert, the ASRM shape.
func maniaDefinition(t *testing.T) *models.QuestionnaireDefinition {
	t.Helper()
	def := &models.QuestionnaireDefinition{
		Metadata: models.Metadata{Code: "MANIA"},
		Questions: []models.Question{
			{ID: "q1", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(4)},
			{ID: "q2", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(4)},
			{ID: "q3", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(4)},
			{ID: "q4", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(4)},
			{ID: "q5", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(4)},
		},
		Scoring: &models.ScoringRules{
			DirectItems: []string{"q1", "q2", "q3", "q4", "q5"},
			Total:       models.Range{Min: 0, Max: 20},
			Thresholds: []models.ThresholdBand{
				{Label: "faible", Min: 0, Max: 5},
				{Label: "élevée", Min: 6, Max: 20},
			},
			Alerts: []models.AlertRule{{
				ID:      "ceiling",
				Items:   []string{"q1", "q2", "q3", "q4", "q5"},
				Value:   4,
				AtLeast: 3,
				Message: "escalade possible",
			}},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return def
}

// sleepDefinition is a domain-max scale with a mutual-exclusivity flag, the
// QIDS sleep-domain shape.
func sleepDefinition(t *testing.T) *models.QuestionnaireDefinition {
	t.Helper()
	def := &models.QuestionnaireDefinition{
		Metadata: models.Metadata{Code: "SLEEP"},
		Questions: []models.Question{
			{ID: "q1", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(3), ScoringGroup: "sommeil", Aggregation: models.AggregationMax},
			{ID: "q2", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(3), ScoringGroup: "sommeil", Aggregation: models.AggregationMax},
			{ID: "q3", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(3), ScoringGroup: "sommeil", Aggregation: models.AggregationMax},
			{ID: "q4", Type: models.TypeSingleChoice, Required: true, Options: scaleOptions(3), ScoringGroup: "sommeil", Aggregation: models.AggregationMax},
		},
		Scoring: &models.ScoringRules{
			Domains: []models.Domain{{
				ID:                "sommeil",
				Items:             []string{"q1", "q2", "q3", "q4"},
				Aggregation:       models.AggregationMax,
				Range:             models.Range{Min: 0, Max: 3},
				MutuallyExclusive: true,
			}},
			Total: models.Range{Min: 0, Max: 3},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return def
}

func bind(t *testing.T, def *models.QuestionnaireDefinition, raw map[string]any) models.AnswerMap {
	t.Helper()
	answers, err := models.BindAnswers(def, raw)
	if err != nil {
		t.Fatalf("BindAnswers: %v", err)
	}
	return answers
}

func TestScoreSimpleSum(t *testing.T) {
	def := maniaDefinition(t)
	answers := bind(t, def, map[string]any{"q1": 4, "q2": 4, "q3": 4, "q4": 2, "q5": 2})

	result, err := Score(def, answers)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.TotalScore != 16 {
		t.Errorf("total = %v, want 16", result.TotalScore)
	}
	if result.Severity != "élevée" {
		t.Errorf("severity = %q, want élevée", result.Severity)
	}
	if len(result.ClinicalAlerts) != 1 || result.ClinicalAlerts[0] != "escalade possible" {
		t.Errorf("alerts = %v, want the ceiling escalation alert", result.ClinicalAlerts)
	}
}

func TestScoreCeilingAlertNeedsThreeItems(t *testing.T) {
	def := maniaDefinition(t)
	answers := bind(t, def, map[string]any{"q1": 4, "q2": 4, "q3": 3, "q4": 2, "q5": 2})

	result, err := Score(def, answers)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(result.ClinicalAlerts) != 0 {
		t.Errorf("alerts = %v, want none with only two ceiling items", result.ClinicalAlerts)
	}
}

func TestScoreDomainMax(t *testing.T) {
	def := sleepDefinition(t)
	answers := bind(t, def, map[string]any{"q1": 1, "q2": 3, "q3": 0, "q4": 2})

	result, err := Score(def, answers)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if result.DomainScores["sommeil"] != 3 {
		t.Errorf("domain = %v, want 3 (max, not sum)", result.DomainScores["sommeil"])
	}
	if result.TotalScore != 3 {
		t.Errorf("total = %v, want 3", result.TotalScore)
	}

	found := false
	for _, w := range result.ClinicalAlerts {
		if strings.Contains(w, "mutually exclusive") {
			found = true
		}
	}
	if !found {
		t.Errorf("alerts = %v, want a mutual-exclusivity conflict", result.ClinicalAlerts)
	}
}

func TestDomainMaxIsOrderIndependent(t *testing.T) {
	def := sleepDefinition(t)
	values := []int{1, 3, 0, 2}
	// Every assignment of the same multiset of values must give the same
	// domain score.
	perms := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 0, 3, 2}, {2, 3, 0, 1}}
	for _, p := range perms {
		raw := map[string]any{}
		for i, qi := range p {
			raw[fmt.Sprintf("q%d", qi+1)] = values[i]
		}
		answers := bind(t, def, raw)
		result, err := Score(def, answers)
		if err != nil {
			t.Fatalf("Score: %v", err)
		}
		if result.DomainScores["sommeil"] != 3 {
			t.Errorf("permutation %v: domain = %v, want 3", p, result.DomainScores["sommeil"])
		}
	}
}

func TestScoreMissingRequired(t *testing.T) {
	def := maniaDefinition(t)
	answers := bind(t, def, map[string]any{"q1": 4, "q4": 2})

	_, err := Score(def, answers)
	var missing *MissingAnswersError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingAnswersError", err)
	}
	// Missing ids are reported in definition order.
	want := []string{"q2", "q3", "q5"}
	if len(missing.QuestionIDs) != len(want) {
		t.Fatalf("missing = %v, want %v", missing.QuestionIDs, want)
	}
	for i, id := range want {
		if missing.QuestionIDs[i] != id {
			t.Errorf("missing[%d] = %q, want %q", i, missing.QuestionIDs[i], id)
		}
	}
}

func TestEveryTotalFallsInExactlyOneBand(t *testing.T) {
	def := maniaDefinition(t)
	rules := def.Scoring
	for total := rules.Total.Min; total <= rules.Total.Max; total++ {
		matches := 0
		for _, b := range rules.Thresholds {
			if total >= b.Min && total <= b.Max {
				matches++
			}
		}
		if matches != 1 {
			t.Errorf("total %d falls in %d bands, want exactly 1", total, matches)
		}
	}
}

func TestScoreRejectsScreeningInstrument(t *testing.T) {
	def := maniaDefinition(t)
	def.Scoring.Screening = &models.ScreeningRules{
		CountItems:     []string{"q1"},
		CountThreshold: 1,
		ConfirmItem:    "q2",
		ConfirmValue:   "1",
		ImpactItem:     "q3",
	}
	answers := bind(t, def, map[string]any{"q1": 1, "q2": 1, "q3": 1, "q4": 1, "q5": 1})
	if _, err := Score(def, answers); err == nil {
		t.Error("Score accepted a screening instrument")
	}
}
