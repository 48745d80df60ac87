package logic

import (
	"reflect"
	"strings"
	"testing"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

func TestEvaluateOperators(t *testing.T) {
	answers := models.AnswerMap{
		"n":    models.NumberValue(5),
		"code": models.StringValue("2"),
		"name": models.StringValue("oui"),
		"flag": models.BoolValue(true),
	}

	tests := []struct {
		name string
		expr *models.Expr
		want bool
	}{
		{"ge true", models.Op(">=", models.Var("n"), models.Lit(5)), true},
		{"ge false", models.Op(">=", models.Var("n"), models.Lit(6)), false},
		{"gt strict", models.Op(">", models.Var("n"), models.Lit(5)), false},
		{"numeric string compares numerically", models.Op(">=", models.Var("code"), models.Lit(2)), true},
		{"eq numeric first", models.Op("==", models.Var("code"), models.Lit("2.0")), true},
		{"eq string fallback", models.Op("==", models.Var("name"), models.Lit("oui")), true},
		{"neq", models.Op("!=", models.Var("name"), models.Lit("non")), true},
		{"eq bool", models.Op("==", models.Var("flag"), models.Lit(true)), true},
		{"in member", models.Op("in", models.Var("code"), models.Lit([]any{1, 2, 3})), true},
		{"in absent", models.Op("in", models.Var("code"), models.Lit([]any{4, 5})), false},
		{"and short circuit", models.Op("and",
			models.Op("==", models.Var("name"), models.Lit("oui")),
			models.Op(">", models.Var("n"), models.Lit(1))), true},
		{"or", models.Op("or",
			models.Op("==", models.Var("name"), models.Lit("non")),
			models.Op(">", models.Var("n"), models.Lit(1))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, answers)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateMissingAnswers(t *testing.T) {
	empty := models.AnswerMap{}

	// A missing operand resolves to null and comparisons fail quietly
	// instead of erroring; partially answered questionnaires are the
	// normal case during entry, not a defect.
	got, err := Evaluate(models.Op(">=", models.Var("absent"), models.Lit(1)), empty)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got {
		t.Error("comparison against a missing answer held")
	}

	got, err = Evaluate(models.Op("==", models.Var("absent"), models.Lit(nil)), empty)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("missing answer is not equal to null")
	}
}

func TestSumSkipsNonNumeric(t *testing.T) {
	answers := models.AnswerMap{
		"a": models.NumberValue(2),
		"b": models.StringValue("libre"),
		"c": models.StringValue("3"),
	}
	expr := models.Op(">=",
		models.Op("+", models.Var("a"), models.Var("b"), models.Var("c"), models.Var("missing")),
		models.Lit(5))
	got, err := Evaluate(expr, answers)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !got {
		t.Error("sum = 5 expected: non-numeric and missing operands contribute 0")
	}
}

func TestUnknownOperatorFailsClosed(t *testing.T) {
	_, err := Evaluate(models.Op("xor", models.Lit(true), models.Lit(false)), models.AnswerMap{})
	if err == nil {
		t.Fatal("unknown operator did not error")
	}
	if !strings.Contains(err.Error(), "unknown operator") {
		t.Errorf("error %q does not name the unknown operator", err)
	}
}

func TestEvaluateRequiresBooleanResult(t *testing.T) {
	if _, err := Evaluate(models.Op("+", models.Lit(1), models.Lit(2)), models.AnswerMap{}); err == nil {
		t.Error("non-boolean expression accepted")
	}
}

func branchingDefinition(t *testing.T) *models.QuestionnaireDefinition {
	t.Helper()
	def := &models.QuestionnaireDefinition{
		Metadata: models.Metadata{Code: "BRANCH"},
		Questions: []models.Question{
			{ID: "trigger", Type: models.TypeNumber, Required: true},
			{
				ID:   "follow",
				Type: models.TypeNumber,
				// Visible once the trigger reaches 3.
				DisplayIf: models.Op(">=", models.Var("trigger"), models.Lit(3)),
				Required:  true,
			},
			{
				ID:       "detail",
				Type:     models.TypeText,
				Required: false,
				// required_if overrides the static flag entirely.
				RequiredIf: models.Op("==", models.Var("trigger"), models.Lit(5)),
			},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return def
}

func TestVisibleQuestions(t *testing.T) {
	def := branchingDefinition(t)

	hidden, err := VisibleQuestions(def, models.AnswerMap{"trigger": models.NumberValue(2)})
	if err != nil {
		t.Fatalf("VisibleQuestions: %v", err)
	}
	if hidden["follow"] {
		t.Error("follow visible below the trigger threshold")
	}
	if !hidden["trigger"] || !hidden["detail"] {
		t.Error("unconditional questions must always be visible")
	}

	shown, err := VisibleQuestions(def, models.AnswerMap{"trigger": models.NumberValue(3)})
	if err != nil {
		t.Fatalf("VisibleQuestions: %v", err)
	}
	if !shown["follow"] {
		t.Error("follow hidden at the trigger threshold")
	}
}

func TestRequiredQuestions(t *testing.T) {
	def := branchingDefinition(t)

	answers := models.AnswerMap{"trigger": models.NumberValue(2)}
	visible, err := VisibleQuestions(def, answers)
	if err != nil {
		t.Fatalf("VisibleQuestions: %v", err)
	}
	required, err := RequiredQuestions(def, answers, visible)
	if err != nil {
		t.Fatalf("RequiredQuestions: %v", err)
	}
	if required["follow"] {
		t.Error("hidden question reported as required")
	}
	if required["detail"] {
		t.Error("required_if false but question required")
	}

	answers["trigger"] = models.NumberValue(5)
	visible, _ = VisibleQuestions(def, answers)
	required, err = RequiredQuestions(def, answers, visible)
	if err != nil {
		t.Fatalf("RequiredQuestions: %v", err)
	}
	if !required["follow"] {
		t.Error("visible statically required question not required")
	}
	if !required["detail"] {
		t.Error("required_if true but question not required")
	}
}

func TestVisibleQuestionsIsIdempotent(t *testing.T) {
	// A screening shape: the gated questions depend on the sum of the
	// symptom block, not on each other, so re-evaluating against the same
	// answers must reproduce the identical set.
	symptoms := []models.Question{}
	vars := []*models.Expr{}
	for _, id := range []string{"s1", "s2", "s3", "s4", "s5"} {
		symptoms = append(symptoms, models.Question{
			ID: id, Type: models.TypeSingleChoice, Required: true,
			Options: []models.Option{{Code: "1", Label: "Oui"}, {Code: "0", Label: "Non"}},
		})
		vars = append(vars, models.Var(id))
	}
	gate := models.Op(">=", models.Op("+", vars...), models.Lit(3))
	def := &models.QuestionnaireDefinition{
		Metadata: models.Metadata{Code: "GATED"},
		Questions: append(symptoms,
			models.Question{
				ID: "confirm", Type: models.TypeSingleChoice, Required: true,
				Options:   []models.Option{{Code: "oui", Label: "Oui"}, {Code: "non", Label: "Non"}},
				DisplayIf: gate,
			},
			models.Question{ID: "impact", Type: models.TypeNumber, Required: true, DisplayIf: gate},
		),
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	for _, answers := range []models.AnswerMap{
		{},
		{"s1": models.StringValue("1"), "s2": models.StringValue("1")},
		{"s1": models.StringValue("1"), "s2": models.StringValue("1"), "s3": models.StringValue("1")},
	} {
		first, err := VisibleQuestions(def, answers)
		if err != nil {
			t.Fatalf("VisibleQuestions: %v", err)
		}
		second, err := VisibleQuestions(def, answers)
		if err != nil {
			t.Fatalf("VisibleQuestions (second pass): %v", err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("answers %v: visible set changed between passes: %v then %v", answers, first, second)
		}
	}
}
