// Conditional-logic evaluation for questionnaire branching.
package logic

import (
	"fmt"
	"strconv"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

// Evaluate evaluates a branching expression against an answer map. The
// expression must reduce to a boolean; anything else is a configuration
// defect. Evaluation is a pure function of its inputs: no caching, no
// incremental state, recomputed from scratch on every call.
func Evaluate(e *models.Expr, answers models.AnswerMap) (bool, error) {
	v, err := eval(e, answers)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expression does not evaluate to a boolean (got %T)", v)
	}
	return b, nil
}

// VisibleQuestions returns the set of question ids currently visible: a
// question is visible iff it has no display_if or its display_if holds.
func VisibleQuestions(def *models.QuestionnaireDefinition, answers models.AnswerMap) (map[string]bool, error) {
	visible := make(map[string]bool, len(def.Questions))
	for i := range def.Questions {
		q := &def.Questions[i]
		if q.DisplayIf == nil {
			visible[q.ID] = true
			continue
		}
		ok, err := Evaluate(q.DisplayIf, answers)
		if err != nil {
			return nil, fmt.Errorf("question %q: display_if: %w", q.ID, err)
		}
		if ok {
			visible[q.ID] = true
		}
	}
	return visible, nil
}

// RequiredQuestions returns the set of question ids currently required. A
// question is required iff it is visible and either its required_if holds,
// or it has no required_if and its static required flag is set. required_if
// fully overrides the static flag, it does not combine with it.
func RequiredQuestions(def *models.QuestionnaireDefinition, answers models.AnswerMap, visible map[string]bool) (map[string]bool, error) {
	required := make(map[string]bool)
	for i := range def.Questions {
		q := &def.Questions[i]
		if !visible[q.ID] {
			continue
		}
		if q.RequiredIf != nil {
			ok, err := Evaluate(q.RequiredIf, answers)
			if err != nil {
				return nil, fmt.Errorf("question %q: required_if: %w", q.ID, err)
			}
			if ok {
				required[q.ID] = true
			}
			continue
		}
		if q.Required {
			required[q.ID] = true
		}
	}
	return required, nil
}

func eval(e *models.Expr, answers models.AnswerMap) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression node")
	}
	if e.IsVar() {
		// Missing keys resolve to null, never an error.
		return answers.Get(e.Path).Raw(), nil
	}
	if !e.IsOp() {
		return e.Literal, nil
	}

	switch e.Op {
	case "+":
		// Missing and non-numeric values contribute 0.
		sum := 0.0
		for _, a := range e.Args {
			v, err := eval(a, answers)
			if err != nil {
				return nil, err
			}
			if f, ok := toFloat(v); ok {
				sum += f
			}
		}
		return sum, nil

	case ">=", ">":
		va, vb, err := evalPair(e, answers)
		if err != nil {
			return nil, err
		}
		fa, oka := toFloat(va)
		fb, okb := toFloat(vb)
		if !oka || !okb {
			return false, nil
		}
		if e.Op == ">=" {
			return fa >= fb, nil
		}
		return fa > fb, nil

	case "==":
		va, vb, err := evalPair(e, answers)
		if err != nil {
			return nil, err
		}
		return looseEqual(va, vb), nil

	case "!=":
		va, vb, err := evalPair(e, answers)
		if err != nil {
			return nil, err
		}
		return !looseEqual(va, vb), nil

	case "in":
		v, err := eval(e.Args[0], answers)
		if err != nil {
			return nil, err
		}
		list, ok := e.Args[1].Literal.([]any)
		if !ok {
			return nil, fmt.Errorf("operator \"in\" needs a literal array")
		}
		for _, item := range list {
			if looseEqual(v, item) {
				return true, nil
			}
		}
		return false, nil

	case "and", "or":
		for _, a := range e.Args {
			v, err := eval(a, answers)
			if err != nil {
				return nil, err
			}
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("operator %q: argument does not evaluate to a boolean (got %T)", e.Op, v)
			}
			if e.Op == "and" && !b {
				return false, nil
			}
			if e.Op == "or" && b {
				return true, nil
			}
		}
		return e.Op == "and", nil
	}

	// Unknown operators fail closed. The original behavior was to treat
	// them as true, which turned typos into always-visible questions.
	return nil, fmt.Errorf("unknown operator %q", e.Op)
}

func evalPair(e *models.Expr, answers models.AnswerMap) (any, any, error) {
	va, err := eval(e.Args[0], answers)
	if err != nil {
		return nil, nil, err
	}
	vb, err := eval(e.Args[1], answers)
	if err != nil {
		return nil, nil, err
	}
	return va, vb, nil
}

// looseEqual compares two evaluated values: nulls are mutually equal and
// unequal to any concrete value; numeric comparison is attempted first, then
// the literal values.
func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, oka := toFloat(a)
	fb, okb := toFloat(b)
	if oka && okb {
		return fa == fb
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return sa == sb
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ba == bb
		}
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
