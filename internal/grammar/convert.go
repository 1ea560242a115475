// Package grammar converts types into constrained-generation grammar
// fragments. The output is a small self-describing rule language — one rule
// per line, alternatives of quoted literals, terminal regexes and rule
// references — consumed by an external constrained-decoding engine.
package grammar

import (
	"strings"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// Fixed terminal rule names. The decoding engine shares precompiled
// automata across calls, so these never change.
const (
	StringRule  = "string_value"
	NumberRule  = "number_value"
	BooleanRule = "boolean_value"
	AnyRule     = "any_value"
	ObjectRule  = "object_value"
)

var terminalRules = map[string]string{
	StringRule:  `/"[^"]*"/`,
	NumberRule:  `/-?[0-9]+(\.[0-9]+)?/`,
	BooleanRule: `"true" | "false"`,
	AnyRule:     `/.+/`,
	ObjectRule:  `/\{.*\}/`,
}

// Converter renders grammar fragments for types. It holds no cross-call
// state; every Convert builds a fresh rule set.
type Converter struct{}

// NewConverter creates a converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert produces the grammar text for t under ctx. Conversion is total:
// an unrecognized type falls back to its quoted name rather than failing.
func (c *Converter) Convert(t typesystem.Type, ctx *typesystem.TypeContext) string {
	rs := newRuleSet()
	start := rs.expr(t, ctx, map[string]bool{})
	rs.define("start", start)
	return rs.render()
}

// ruleSet accumulates the sub-rules referenced while expanding one type.
type ruleSet struct {
	productions map[string]string
	order       []string
}

func newRuleSet() *ruleSet {
	return &ruleSet{productions: map[string]string{}}
}

func (rs *ruleSet) define(name, production string) {
	if _, ok := rs.productions[name]; ok {
		return
	}
	rs.productions[name] = production
	rs.order = append(rs.order, name)
}

// terminal references a fixed terminal rule, registering its definition on
// first use, and returns the reference.
func (rs *ruleSet) terminal(name string) string {
	rs.define(name, terminalRules[name])
	return name
}

// expr returns the grammar expression for t, registering any sub-rules it
// references. expanding guards against self-referential classes: on
// re-entry the permissive object rule stands in for the class (the source
// implementation recursed forever here).
func (rs *ruleSet) expr(t typesystem.Type, ctx *typesystem.TypeContext, expanding map[string]bool) string {
	if t.Nullable {
		inner := rs.expr(t.NonNullable(), ctx, expanding)
		return "( " + inner + ` | "null" )`
	}

	switch t.Kind() {
	case typesystem.KindUnion:
		if len(t.Params) == 0 {
			return rs.terminal(AnyRule)
		}
		parts := make([]string, len(t.Params))
		for i, member := range t.Params {
			parts[i] = rs.expr(member, ctx, expanding)
		}
		return "( " + strings.Join(parts, " | ") + " )"

	case typesystem.KindIntersection:
		// Known approximation: only the first member is rendered.
		if len(t.Params) == 0 {
			return rs.terminal(AnyRule)
		}
		return rs.expr(t.Params[0], ctx, expanding)

	case typesystem.KindArray:
		elem := rs.terminal(AnyRule)
		if len(t.Params) > 0 {
			elem = rs.expr(t.Params[0], ctx, expanding)
		}
		return `"[" ( ` + elem + ` ( "," ` + elem + ` )* )? "]"`

	case typesystem.KindFunction:
		// Function values cannot be enumerated; a keyword placeholder keeps
		// generation syntactically anchored.
		return `"function"`

	case typesystem.KindAny:
		return rs.terminal(AnyRule)

	case typesystem.KindObject:
		return rs.terminal(ObjectRule)

	case typesystem.KindPrimitive:
		switch t.Name {
		case typesystem.StringName:
			return rs.terminal(StringRule)
		case typesystem.NumberName:
			return rs.terminal(NumberRule)
		case typesystem.BooleanName:
			return rs.terminal(BooleanRule)
		case typesystem.NullName:
			return `"null"`
		default: // void
			return `""`
		}

	default: // KindNamed
		if class, ok := ctx.Classes[t.Name]; ok {
			if expanding[t.Name] {
				return rs.terminal(ObjectRule)
			}
			expanding[t.Name] = true
			out := rs.classExpr(class, ctx, expanding)
			delete(expanding, t.Name)
			return out
		}
		return `"` + t.Name + `"`
	}
}

// classExpr renders a known class as a brace-wrapped object with every
// declared property, in declaration order.
func (rs *ruleSet) classExpr(class typesystem.ClassType, ctx *typesystem.TypeContext, expanding map[string]bool) string {
	var sb strings.Builder
	sb.WriteString(`"{"`)
	for i, prop := range class.PropertyOrder {
		if i > 0 {
			sb.WriteString(` ","`)
		}
		sb.WriteString(` "\"` + prop + `\":" `)
		sb.WriteString(rs.expr(class.Properties[prop], ctx, expanding))
	}
	sb.WriteString(` "}"`)
	return sb.String()
}

// render emits the start rule first, then sub-rules in first-reference
// order, one per line.
func (rs *ruleSet) render() string {
	var sb strings.Builder
	sb.WriteString("start ::= ")
	sb.WriteString(rs.productions["start"])
	sb.WriteByte('\n')
	for _, name := range rs.order {
		if name == "start" {
			continue
		}
		sb.WriteString(name)
		sb.WriteString(" ::= ")
		sb.WriteString(rs.productions[name])
		sb.WriteByte('\n')
	}
	return sb.String()
}
