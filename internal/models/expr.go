// expr.go
package models

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Expr is one node of the branching expression language. A node is either a
// literal, a var reference into the answer map, or an operator applied to
// sub-expressions. Expressions are pure data; evaluation lives in the logic
// package.
type Expr struct {
	// Op is set for operator nodes ("+", ">=", ">", "==", "!=", "in",
	// "and", "or").
	Op   string
	Args []*Expr

	// Path is set for var nodes and resolves into the answer map.
	Path string

	// Literal is set for literal nodes: float64, string, bool or []any.
	Literal any

	isVar bool
	isOp  bool
}

// IsVar reports whether the node is an answer-map reference.
func (e *Expr) IsVar() bool { return e.isVar }

// IsOp reports whether the node is an operator application.
func (e *Expr) IsOp() bool { return e.isOp }

// Lit builds a literal node. Mostly useful in tests.
func Lit(v any) *Expr { return &Expr{Literal: normalizeLiteral(v)} }

// Var builds an answer-map reference node.
func Var(path string) *Expr { return &Expr{Path: path, isVar: true} }

// Op builds an operator node.
func Op(op string, args ...*Expr) *Expr { return &Expr{Op: op, Args: args, isOp: true} }

// UnmarshalYAML decodes the three node shapes: a plain scalar or sequence is
// a literal, a {var: path} mapping is a reference, and an {op, args} mapping
// is an operator.
func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		v, err := decodeScalar(node)
		if err != nil {
			return err
		}
		e.Literal = v
		return nil

	case yaml.SequenceNode:
		items := make([]any, 0, len(node.Content))
		for _, n := range node.Content {
			v, err := decodeScalar(n)
			if err != nil {
				return fmt.Errorf("expression array: %w", err)
			}
			items = append(items, v)
		}
		e.Literal = items
		return nil

	case yaml.MappingNode:
		var raw struct {
			Var  *string `yaml:"var"`
			Op   *string `yaml:"op"`
			Args []*Expr `yaml:"args"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		if raw.Var != nil {
			e.Path = *raw.Var
			e.isVar = true
			return nil
		}
		if raw.Op != nil {
			e.Op = *raw.Op
			e.Args = raw.Args
			e.isOp = true
			return nil
		}
		return fmt.Errorf("expression node needs either 'var' or 'op'")
	}
	return fmt.Errorf("unsupported expression node kind %d", node.Kind)
}

// Compile checks every operator and its arity. Unrecognized operators are a
// configuration defect and are rejected here rather than silently evaluating
// to true at runtime.
func (e *Expr) Compile() error {
	if e == nil {
		return nil
	}
	if !e.isOp {
		return nil
	}

	switch e.Op {
	case "+":
		if len(e.Args) == 0 {
			return fmt.Errorf("operator %q needs at least one argument", e.Op)
		}
	case ">=", ">", "==", "!=":
		if len(e.Args) != 2 {
			return fmt.Errorf("operator %q needs exactly two arguments, got %d", e.Op, len(e.Args))
		}
	case "in":
		if len(e.Args) != 2 {
			return fmt.Errorf("operator %q needs exactly two arguments, got %d", e.Op, len(e.Args))
		}
		if e.Args[1].isVar || e.Args[1].isOp {
			return fmt.Errorf("operator %q needs a literal array as second argument", e.Op)
		}
		if _, ok := e.Args[1].Literal.([]any); !ok {
			return fmt.Errorf("operator %q needs a literal array as second argument", e.Op)
		}
	case "and", "or":
		if len(e.Args) == 0 {
			return fmt.Errorf("operator %q needs at least one argument", e.Op)
		}
	default:
		return fmt.Errorf("unknown operator %q", e.Op)
	}

	for _, a := range e.Args {
		if err := a.Compile(); err != nil {
			return err
		}
	}
	return nil
}

func decodeScalar(node *yaml.Node) (any, error) {
	switch node.Tag {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	case "!!str":
		var s string
		if err := node.Decode(&s); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported scalar tag %s", node.Tag)
}

func normalizeLiteral(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case []any:
		items := make([]any, len(n))
		for i, it := range n {
			items[i] = normalizeLiteral(it)
		}
		return items
	}
	return v
}

// CodeEqual compares two option codes, attempting numeric comparison first
// and falling back to the literal strings.
func CodeEqual(a, b string) bool {
	fa, oka := parseNumeric(a)
	fb, okb := parseNumeric(b)
	if oka && okb {
		return fa == fb
	}
	return a == b
}

func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
