// Package typeparse implements the language-specific type adapter: parsing
// textual annotations like "Array<string|number>" into Type trees and
// deciding structural assignability. Other languages plug in behind the
// Adapter interface; the default targets TypeScript-style annotations.
package typeparse

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// Adapter is the pluggable language boundary the engine depends on.
type Adapter interface {
	ParseType(text string) (typesystem.Type, error)
	IsAssignable(src, dst typesystem.Type) bool
}

// TSAdapter parses TypeScript-flavored annotations and applies permissive
// structural assignability against its scope.
type TSAdapter struct {
	Ctx *typesystem.TypeContext
}

// NewTSAdapter creates an adapter bound to the given scope.
func NewTSAdapter(ctx *typesystem.TypeContext) *TSAdapter {
	return &TSAdapter{Ctx: ctx}
}

// ParseType parses an annotation into a Type tree.
func (a *TSAdapter) ParseType(text string) (typesystem.Type, error) {
	p := &parser{input: strings.TrimSpace(text)}
	t, err := p.parseUnion()
	if err != nil {
		return typesystem.Unknown(), err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return typesystem.Unknown(), fmt.Errorf("unexpected %q at offset %d", p.rest(), p.pos)
	}
	return t, nil
}

// IsAssignable reports whether a value of type src can stand where dst is
// expected. Permissive by design: any/unknown absorb everything.
func (a *TSAdapter) IsAssignable(src, dst typesystem.Type) bool {
	return assignable(src, dst, a.Ctx)
}

func assignable(src, dst typesystem.Type, ctx *typesystem.TypeContext) bool {
	if dst.Name == typesystem.AnyName || dst.Name == typesystem.UnknownName {
		return true
	}
	if src.Equal(dst) {
		return true
	}

	// null fits any nullable slot.
	if src.Name == typesystem.NullName && dst.Nullable {
		return true
	}

	// Non-nullable sources widen into nullable destinations.
	if dst.Nullable {
		if assignable(src.NonNullable(), dst.NonNullable(), ctx) {
			return true
		}
	}
	// The reverse never holds: a nullable source needs a nullable slot.
	if src.Nullable && !dst.Nullable {
		return false
	}

	// Union source: every member must fit. Checked before the destination
	// so union-into-union decomposes the source first.
	if src.Kind() == typesystem.KindUnion {
		for _, member := range src.Params {
			if !assignable(member, dst, ctx) {
				return false
			}
		}
		return len(src.Params) > 0
	}
	// Union destination: membership.
	if dst.Kind() == typesystem.KindUnion {
		for _, member := range dst.Params {
			if assignable(src, member, ctx) {
				return true
			}
		}
		return false
	}

	// Same-name generics: parameter-wise, covariant (a simplification
	// shared with the rest of the engine).
	if src.Name == dst.Name && len(src.Params) == len(dst.Params) && len(src.Params) > 0 {
		for i := range src.Params {
			if !assignable(src.Params[i], dst.Params[i], ctx) {
				return false
			}
		}
		return true
	}

	return false
}

// parser is a recursive-descent scanner over a single annotation.
type parser struct {
	input string
	pos   int
}

func (p *parser) rest() string {
	if p.pos >= len(p.input) {
		return ""
	}
	return p.input[p.pos:]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) eat(ch byte) bool {
	p.skipSpace()
	if p.peek() == ch {
		p.pos++
		return true
	}
	return false
}

// parseUnion handles the lowest-precedence alternation: a | b | c.
func (p *parser) parseUnion() (typesystem.Type, error) {
	first, err := p.parseIntersection()
	if err != nil {
		return typesystem.Unknown(), err
	}
	members := []typesystem.Type{first}
	for p.eat('|') {
		next, err := p.parseIntersection()
		if err != nil {
			return typesystem.Unknown(), err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return typesystem.Union(members...), nil
}

func (p *parser) parseIntersection() (typesystem.Type, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return typesystem.Unknown(), err
	}
	members := []typesystem.Type{first}
	for p.eat('&') {
		next, err := p.parsePostfix()
		if err != nil {
			return typesystem.Unknown(), err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return members[0], nil
	}
	return typesystem.New(typesystem.IntersectionName, members...), nil
}

// parsePostfix applies trailing '?' nullability markers.
func (p *parser) parsePostfix() (typesystem.Type, error) {
	t, err := p.parseAtom()
	if err != nil {
		return typesystem.Unknown(), err
	}
	for p.eat('?') {
		t = t.AsNullable()
	}
	return t, nil
}

func (p *parser) parseAtom() (typesystem.Type, error) {
	p.skipSpace()

	// Function annotation: (a, b) => c
	if p.peek() == '(' {
		return p.parseFunction()
	}

	name := p.parseIdent()
	if name == "" {
		return typesystem.Unknown(), fmt.Errorf("expected type name at offset %d", p.pos)
	}

	if p.eat('<') {
		var args []typesystem.Type
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return typesystem.Unknown(), err
			}
			args = append(args, arg)
			if p.eat(',') {
				continue
			}
			break
		}
		if !p.eat('>') {
			return typesystem.Unknown(), fmt.Errorf("unclosed type arguments for %s", name)
		}
		return typesystem.New(name, args...), nil
	}

	return typesystem.Prim(name), nil
}

func (p *parser) parseFunction() (typesystem.Type, error) {
	p.eat('(')
	var params []typesystem.Type
	p.skipSpace()
	if p.peek() != ')' {
		for {
			param, err := p.parseUnion()
			if err != nil {
				return typesystem.Unknown(), err
			}
			params = append(params, param)
			if p.eat(',') {
				continue
			}
			break
		}
	}
	if !p.eat(')') {
		return typesystem.Unknown(), fmt.Errorf("unclosed parameter list at offset %d", p.pos)
	}
	p.skipSpace()
	if !strings.HasPrefix(p.rest(), "=>") {
		return typesystem.Unknown(), fmt.Errorf("expected '=>' at offset %d", p.pos)
	}
	p.pos += 2
	ret, err := p.parseUnion()
	if err != nil {
		return typesystem.Unknown(), err
	}
	return typesystem.Function(params, ret), nil
}

func (p *parser) parseIdent() string {
	start := p.pos
	for p.pos < len(p.input) {
		ch := rune(p.input[p.pos])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}
