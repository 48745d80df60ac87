package validation

import (
	"strings"
	"testing"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/logic"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

func fixtureDefinition(t *testing.T) *models.QuestionnaireDefinition {
	t.Helper()
	min, max := 0.0, 10.0
	def := &models.QuestionnaireDefinition{
		Metadata: models.Metadata{Code: "VAL"},
		Questions: []models.Question{
			{ID: "severity", Type: models.TypeNumber, Required: true, Constraints: &models.Constraints{Min: &min, Max: &max}},
			{ID: "kind", Type: models.TypeSingleChoice, Required: true, Options: []models.Option{{Code: "a"}, {Code: "b"}}},
			{
				ID: "detail", Type: models.TypeNumber, Required: true,
				DisplayIf: models.Op(">=", models.Var("severity"), models.Lit(5)),
			},
			{
				ID: "side_a", Type: models.TypeNumber, Required: false,
				ScoringGroup: "side", Aggregation: models.AggregationMax,
			},
			{
				ID: "side_b", Type: models.TypeNumber, Required: false,
				ScoringGroup: "side", Aggregation: models.AggregationMax,
			},
		},
		Scoring: &models.ScoringRules{
			Domains: []models.Domain{{
				ID:                "side",
				Items:             []string{"side_a", "side_b"},
				Aggregation:       models.AggregationMax,
				Range:             models.Range{Min: 0, Max: 10},
				MutuallyExclusive: true,
			}},
			Total: models.Range{Min: 0, Max: 10},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate definition: %v", err)
	}
	return def
}

func validate(t *testing.T, def *models.QuestionnaireDefinition, raw map[string]any) Result {
	t.Helper()
	answers, err := models.BindAnswers(def, raw)
	if err != nil {
		t.Fatalf("BindAnswers: %v", err)
	}
	visible, err := logic.VisibleQuestions(def, answers)
	if err != nil {
		t.Fatalf("VisibleQuestions: %v", err)
	}
	result, err := Validate(def, answers, visible)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return result
}

func TestValidateAcceptsCompleteAnswers(t *testing.T) {
	result := validate(t, fixtureDefinition(t), map[string]any{
		"severity": 3.0,
		"kind":     "a",
	})
	if !result.Valid {
		t.Errorf("valid answers rejected: %v", result.Errors)
	}
}

func TestHiddenRequiredQuestionIsNotAnError(t *testing.T) {
	// detail is required but only visible at severity >= 5.
	result := validate(t, fixtureDefinition(t), map[string]any{
		"severity": 2.0,
		"kind":     "a",
	})
	if !result.Valid {
		t.Errorf("hidden unanswered question reported as error: %v", result.Errors)
	}

	result = validate(t, fixtureDefinition(t), map[string]any{
		"severity": 7.0,
		"kind":     "a",
	})
	if result.Valid {
		t.Error("visible required question left unanswered but validation passed")
	}
}

func TestValidateConstraintViolations(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr string
	}{
		{"above maximum", map[string]any{"severity": 12.0, "kind": "a"}, "above maximum"},
		{"below minimum", map[string]any{"severity": -1.0, "kind": "a"}, "below minimum"},
		{"unknown option", map[string]any{"severity": 3.0, "kind": "z"}, "not an allowed option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validate(t, fixtureDefinition(t), tt.raw)
			if result.Valid {
				t.Fatal("invalid answers accepted")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("errors %v do not mention %q", result.Errors, tt.wantErr)
			}
		})
	}
}

func TestExclusivityConflictIsWarningNotError(t *testing.T) {
	result := validate(t, fixtureDefinition(t), map[string]any{
		"severity": 3.0,
		"kind":     "a",
		"side_a":   2.0,
		"side_b":   1.0,
	})
	if !result.Valid {
		t.Errorf("exclusivity conflict blocked submission: %v", result.Errors)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "mutually exclusive") {
		t.Errorf("warnings = %v, want one mutual-exclusivity warning", result.Warnings)
	}
}
