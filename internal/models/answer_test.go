package models

import (
	"strings"
	"testing"
)

func bindTestDefinition(t *testing.T) *QuestionnaireDefinition {
	t.Helper()
	def := &QuestionnaireDefinition{
		Metadata: Metadata{Code: "BIND"},
		Questions: []Question{
			{ID: "num", Type: TypeNumber},
			{ID: "choice", Type: TypeSingleChoice, Options: []Option{{Code: "0"}, {Code: "1"}}},
			{ID: "multi", Type: TypeMultipleChoice, Options: []Option{{Code: "a"}, {Code: "b"}}},
			{ID: "flag", Type: TypeBoolean},
			{ID: "note", Type: TypeText},
			{ID: "when", Type: TypeDate},
			{ID: "intro", Type: TypeInstruction},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return def
}

func TestBindAnswers(t *testing.T) {
	def := bindTestDefinition(t)

	answers, err := BindAnswers(def, map[string]any{
		"num":    3.5,
		"choice": 1, // numeric code normalizes to "1"
		"multi":  []any{"a", "b"},
		"flag":   true,
		"note":   "libre",
		"when":   "2024-03-01",
	})
	if err != nil {
		t.Fatalf("BindAnswers: %v", err)
	}

	if v := answers.Get("num"); v.Kind != KindNumber || v.Number != 3.5 {
		t.Errorf("num bound as %+v", v)
	}
	if v := answers.Get("choice"); v.Kind != KindString || v.Str != "1" {
		t.Errorf("choice bound as %+v", v)
	}
	if v := answers.Get("multi"); v.Kind != KindCodes || len(v.Codes) != 2 {
		t.Errorf("multi bound as %+v", v)
	}
	if v := answers.Get("when"); v.Raw() != "2024-03-01" {
		t.Errorf("date raw = %v", v.Raw())
	}
}

func TestBindAnswersRejections(t *testing.T) {
	def := bindTestDefinition(t)

	tests := []struct {
		name    string
		raw     map[string]any
		wantErr string
	}{
		{"unknown id", map[string]any{"nope": 1}, "unknown question id"},
		{"number as string", map[string]any{"num": "3"}, "expected a number"},
		{"bool as number", map[string]any{"flag": 1}, "expected a boolean"},
		{"bad date", map[string]any{"when": "01/03/2024"}, "invalid date"},
		{"instruction answered", map[string]any{"intro": "x"}, "not answerable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BindAnswers(def, tt.raw)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestBindAnswersSkipsExplicitNull(t *testing.T) {
	def := bindTestDefinition(t)
	answers, err := BindAnswers(def, map[string]any{"num": nil})
	if err != nil {
		t.Fatalf("BindAnswers: %v", err)
	}
	if answers.Has("num") {
		t.Error("explicit null counted as an answer")
	}
}

func TestAnswerMapMissing(t *testing.T) {
	m := AnswerMap{}
	if m.Has("q") {
		t.Error("Has on empty map")
	}
	if !m.Get("q").IsNull() {
		t.Error("Get on empty map is not null")
	}
}
