// Package ast defines the closed expression shape the inference engine
// consumes. A language front end (external to this repo) is responsible for
// mapping its own syntax tree onto these seven node kinds.
package ast

import (
	"strconv"
	"strings"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// Expression is the base interface for all expression nodes. String returns
// a canonical rendering; structurally equal expressions render identically,
// which is what the inference cache keys on.
type Expression interface {
	expressionNode()
	String() string
}

// LiteralKind discriminates literal values.
type LiteralKind int

const (
	NumberLiteral LiteralKind = iota
	StringLiteral
	BooleanLiteral
	NullLiteral
)

// Literal is a scalar literal: number, string, boolean or null.
type Literal struct {
	Kind LiteralKind
	Raw  string // source text of the literal, e.g. "42", "hello", "true"
}

func (l *Literal) expressionNode() {}
func (l *Literal) String() string {
	switch l.Kind {
	case StringLiteral:
		return strconv.Quote(l.Raw)
	case NullLiteral:
		return "null"
	default:
		return l.Raw
	}
}

// Identifier is a bare variable reference.
type Identifier struct {
	Name string
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Name }

// Call is a function application. The callee is usually an Identifier
// resolved against the scope's functions, but any expression that infers to
// a function type is accepted.
type Call struct {
	Callee Expression
	Args   []Expression
}

func (c *Call) expressionNode() {}
func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

// Member is a property access, obj.prop.
type Member struct {
	Object   Expression
	Property string
}

func (m *Member) expressionNode() {}
func (m *Member) String() string  { return m.Object.String() + "." + m.Property }

// Array is an array literal.
type Array struct {
	Elements []Expression
}

func (a *Array) expressionNode() {}
func (a *Array) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ObjectField is a single key/value entry of an object literal.
type ObjectField struct {
	Name  string
	Value Expression
}

// Object is an object literal. Field order is preserved from the source.
type Object struct {
	Fields []ObjectField
}

func (o *Object) expressionNode() {}
func (o *Object) String() string {
	parts := make([]string, len(o.Fields))
	for i, f := range o.Fields {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// FunctionParam is a (possibly annotated) parameter of a function literal.
type FunctionParam struct {
	Name      string
	Type      typesystem.Type
	Annotated bool // false when the front end saw no annotation
}

// Function is a function literal. Return is the declared return annotation;
// when absent (Declared false) the engine falls back to inferring Body.
type Function struct {
	Params   []FunctionParam
	Return   typesystem.Type
	Declared bool
	Body     Expression // may be nil for opaque bodies
}

func (f *Function) expressionNode() {}
func (f *Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		if p.Annotated {
			parts[i] = p.Name + ": " + p.Type.String()
		} else {
			parts[i] = p.Name
		}
	}
	body := ""
	if f.Body != nil {
		body = f.Body.String()
	}
	ret := ""
	if f.Declared {
		ret = ": " + f.Return.String()
	}
	return "(" + strings.Join(parts, ", ") + ")" + ret + " => " + body
}
