// answer.go
package models

import (
	"fmt"
	"strconv"
	"time"
)

// ValueKind tags the concrete shape held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindBool
	KindCodes
	KindDate
)

// Value is one answer, tagged by the question's declared type so consumers
// can match exhaustively instead of shape-sniffing at runtime.
type Value struct {
	Kind   ValueKind
	Number float64
	Str    string
	Bool   bool
	Codes  []string
	Date   time.Time
}

func NumberValue(f float64) Value   { return Value{Kind: KindNumber, Number: f} }
func StringValue(s string) Value    { return Value{Kind: KindString, Str: s} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, Bool: b} }
func CodesValue(cs ...string) Value { return Value{Kind: KindCodes, Codes: cs} }
func DateValue(t time.Time) Value   { return Value{Kind: KindDate, Date: t} }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Float returns the numeric reading of the value: numbers directly, numeric
// strings parsed, booleans as 1/0.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindString:
		return parseNumeric(v.Str)
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Raw returns the value as a plain Go value for expression evaluation:
// nil, float64, string, bool or []string.
func (v Value) Raw() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	case KindCodes:
		return v.Codes
	case KindDate:
		return v.Date.Format("2006-01-02")
	}
	return nil
}

// AnswerMap maps question id to its answer. The engine only ever reads it;
// the caller owns mutation and ordering of edits.
type AnswerMap map[string]Value

// Get returns the answer for a question, or a null Value when unanswered.
func (m AnswerMap) Get(id string) Value {
	if v, ok := m[id]; ok {
		return v
	}
	return Value{}
}

// Has reports whether the question has a non-null answer.
func (m AnswerMap) Has(id string) bool {
	v, ok := m[id]
	return ok && !v.IsNull()
}

// BindAnswers converts a JSON-decoded raw answer payload into a typed
// AnswerMap, using each question's declared type. Unknown question ids and
// values of the wrong shape are rejected.
func BindAnswers(def *QuestionnaireDefinition, raw map[string]any) (AnswerMap, error) {
	answers := make(AnswerMap, len(raw))
	for id, rv := range raw {
		q, ok := def.Question(id)
		if !ok {
			return nil, fmt.Errorf("unknown question id %q", id)
		}
		if rv == nil {
			continue
		}
		v, err := bindValue(q, rv)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", id, err)
		}
		answers[id] = v
	}
	return answers, nil
}

func bindValue(q *Question, rv any) (Value, error) {
	switch q.Type {
	case TypeNumber, TypeScale:
		f, ok := asFloat(rv)
		if !ok {
			return Value{}, fmt.Errorf("expected a number, got %T", rv)
		}
		return NumberValue(f), nil

	case TypeSingleChoice:
		code, ok := asCode(rv)
		if !ok {
			return Value{}, fmt.Errorf("expected an option code, got %T", rv)
		}
		return StringValue(code), nil

	case TypeMultipleChoice:
		items, ok := rv.([]any)
		if !ok {
			return Value{}, fmt.Errorf("expected an array of option codes, got %T", rv)
		}
		codes := make([]string, 0, len(items))
		for _, it := range items {
			code, ok := asCode(it)
			if !ok {
				return Value{}, fmt.Errorf("expected an option code, got %T", it)
			}
			codes = append(codes, code)
		}
		return CodesValue(codes...), nil

	case TypeBoolean:
		b, ok := rv.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected a boolean, got %T", rv)
		}
		return BoolValue(b), nil

	case TypeText:
		s, ok := rv.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected a string, got %T", rv)
		}
		return StringValue(s), nil

	case TypeDate:
		s, ok := rv.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected a date string, got %T", rv)
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid date %q", s)
		}
		return DateValue(t), nil

	case TypeInstruction:
		return Value{}, fmt.Errorf("instruction items are not answerable")
	}
	return Value{}, fmt.Errorf("unhandled question type %q", q.Type)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// asCode normalizes an option code: numeric codes are formatted without a
// trailing fraction so 2 and "2" are the same code.
func asCode(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, true
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64), true
	case int:
		return strconv.Itoa(c), true
	}
	return "", false
}
