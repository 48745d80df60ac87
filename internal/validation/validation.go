// Answer validation: completeness and constraint checks before submission.
package validation

import (
	"fmt"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/logic"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/scoring"
)

// Result reports everything wrong with an answer map. Errors block
// submission; warnings are advisory and never block. Validation reports
// absence, it never repairs it.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks every visible question: required-but-empty and
// type/range/allowed-value mismatches are errors; mutual-exclusivity
// conflicts are warnings. The answer map is never mutated.
func Validate(def *models.QuestionnaireDefinition, answers models.AnswerMap, visible map[string]bool) (Result, error) {
	required, err := logic.RequiredQuestions(def, answers, visible)
	if err != nil {
		return Result{}, err
	}

	result := Result{Errors: []string{}, Warnings: []string{}}
	for i := range def.Questions {
		q := &def.Questions[i]
		if !visible[q.ID] || q.Type == models.TypeInstruction {
			continue
		}

		if !answers.Has(q.ID) {
			if required[q.ID] {
				result.Errors = append(result.Errors, fmt.Sprintf("question %q: required but unanswered", q.ID))
			}
			continue
		}

		if msg := checkValue(q, answers.Get(q.ID)); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}

	result.Warnings = append(result.Warnings, scoring.ExclusivityConflicts(def, answers)...)
	result.Valid = len(result.Errors) == 0
	return result, nil
}

// checkValue verifies one answered value against the question's declared
// type and constraints. Returns an error message, or "" when the value is
// acceptable.
func checkValue(q *models.Question, v models.Value) string {
	switch q.Type {
	case models.TypeNumber, models.TypeScale:
		if v.Kind != models.KindNumber {
			return fmt.Sprintf("question %q: expected a numeric answer", q.ID)
		}
		if c := q.Constraints; c != nil {
			if c.Min != nil && v.Number < *c.Min {
				return fmt.Sprintf("question %q: value %.1f below minimum %.1f", q.ID, v.Number, *c.Min)
			}
			if c.Max != nil && v.Number > *c.Max {
				return fmt.Sprintf("question %q: value %.1f above maximum %.1f", q.ID, v.Number, *c.Max)
			}
		}

	case models.TypeSingleChoice:
		if v.Kind != models.KindString {
			return fmt.Sprintf("question %q: expected an option code", q.ID)
		}
		if _, ok := q.OptionByCode(v.Str); !ok {
			return fmt.Sprintf("question %q: %q is not an allowed option", q.ID, v.Str)
		}

	case models.TypeMultipleChoice:
		if v.Kind != models.KindCodes {
			return fmt.Sprintf("question %q: expected a list of option codes", q.ID)
		}
		for _, code := range v.Codes {
			if _, ok := q.OptionByCode(code); !ok {
				return fmt.Sprintf("question %q: %q is not an allowed option", q.ID, code)
			}
		}

	case models.TypeBoolean:
		if v.Kind != models.KindBool {
			return fmt.Sprintf("question %q: expected a boolean answer", q.ID)
		}

	case models.TypeText:
		if v.Kind != models.KindString {
			return fmt.Sprintf("question %q: expected a text answer", q.ID)
		}
		if c := q.Constraints; c != nil && len(c.Allowed) > 0 {
			for _, a := range c.Allowed {
				if a == v.Str {
					return ""
				}
			}
			return fmt.Sprintf("question %q: %q is not an allowed value", q.ID, v.Str)
		}

	case models.TypeDate:
		if v.Kind != models.KindDate {
			return fmt.Sprintf("question %q: expected a date answer", q.ID)
		}
	}
	return ""
}
