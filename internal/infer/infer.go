// Package infer implements expression-level type inference over the closed
// ast node set. Inference is total: ill-formed or unresolvable input
// degrades to the unknown type with confidence 0 instead of failing.
package infer

import (
	"fmt"
	"strings"

	"github.com/typeforge/typeforge/internal/ast"
	"github.com/typeforge/typeforge/internal/typesystem"
)

// TypeConstraint records a subsumption obligation discovered during
// inference (currently only produced by backward narrowing).
type TypeConstraint struct {
	Expected typesystem.Type
	Actual   typesystem.Type
	Origin   string
}

// InferenceResult carries the inferred type plus how much the engine trusts
// it: 1.0 for literals and direct scope lookups, 0.0 for unknown
// identifiers, intermediate values for speculative inference.
type InferenceResult struct {
	Type        typesystem.Type
	Constraints []TypeConstraint
	Confidence  float64
}

// Engine performs inference with per-instance memoization. One engine
// serves one logical caller; the cache is not synchronized.
type Engine struct {
	cache map[string]*InferenceResult
}

// NewEngine creates an engine with an empty cache.
func NewEngine() *Engine {
	return &Engine{cache: map[string]*InferenceResult{}}
}

// ClearCache drops all memoized results.
func (e *Engine) ClearCache() {
	e.cache = map[string]*InferenceResult{}
}

// InferExpression infers the type of expr under ctx. Repeated calls with
// structurally equal (expr, ctx) return the same shared result instance.
func (e *Engine) InferExpression(expr ast.Expression, ctx *typesystem.TypeContext) *InferenceResult {
	if expr == nil {
		return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
	}

	key := cacheKey(expr) + "\n" + ctx.Fingerprint()
	if cached, ok := e.cache[key]; ok {
		return cached
	}

	result := e.infer(expr, ctx)
	e.cache[key] = result
	return result
}

// cacheKey renders expr unambiguously for memoization. String() is a
// human-facing rendering and can collide across node kinds (a null literal
// and an identifier named "null" both print "null"), so every node is
// tagged with its kind and strings are quoted.
func cacheKey(expr ast.Expression) string {
	var sb strings.Builder
	writeCacheKey(&sb, expr)
	return sb.String()
}

func writeCacheKey(sb *strings.Builder, expr ast.Expression) {
	switch node := expr.(type) {
	case *ast.Literal:
		fmt.Fprintf(sb, "lit:%d:%q", node.Kind, node.Raw)
	case *ast.Identifier:
		fmt.Fprintf(sb, "id:%q", node.Name)
	case *ast.Call:
		sb.WriteString("call(")
		writeCacheKey(sb, node.Callee)
		for _, arg := range node.Args {
			sb.WriteByte(',')
			writeCacheKey(sb, arg)
		}
		sb.WriteByte(')')
	case *ast.Member:
		sb.WriteString("member(")
		writeCacheKey(sb, node.Object)
		fmt.Fprintf(sb, ",%q)", node.Property)
	case *ast.Array:
		sb.WriteString("array(")
		for i, elem := range node.Elements {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCacheKey(sb, elem)
		}
		sb.WriteByte(')')
	case *ast.Object:
		sb.WriteString("object(")
		for i, field := range node.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(sb, "%q=", field.Name)
			writeCacheKey(sb, field.Value)
		}
		sb.WriteByte(')')
	case *ast.Function:
		sb.WriteString("func(")
		for i, p := range node.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(sb, "%q:%t:%s", p.Name, p.Annotated, p.Type.Key())
		}
		fmt.Fprintf(sb, ")->%t:%s:", node.Declared, node.Return.Key())
		if node.Body != nil {
			writeCacheKey(sb, node.Body)
		}
	default:
		fmt.Fprintf(sb, "opaque:%T", expr)
	}
}

// InferForward is the bottom-up default; it is an alias for InferExpression.
func (e *Engine) InferForward(expr ast.Expression, ctx *typesystem.TypeContext) *InferenceResult {
	return e.InferExpression(expr, ctx)
}

// InferBackward narrows the forward-inferred type toward expected when the
// two are compatible. Narrowing a nullable type against a non-nullable
// expectation strips the nullable flag — a refinement, not a runtime check.
func (e *Engine) InferBackward(expr ast.Expression, expected typesystem.Type, ctx *typesystem.TypeContext) *InferenceResult {
	forward := e.InferExpression(expr, ctx)

	constraint := TypeConstraint{Expected: expected, Actual: forward.Type, Origin: "backward"}

	if forward.Type.Nullable && !expected.Nullable {
		stripped := forward.Type.NonNullable()
		if _, ok := typesystem.Unify(stripped, expected, ctx); ok {
			return &InferenceResult{
				Type:        stripped,
				Constraints: append(append([]TypeConstraint(nil), forward.Constraints...), constraint),
				Confidence:  forward.Confidence,
			}
		}
	}

	if _, ok := typesystem.Unify(forward.Type, expected, ctx); ok {
		return &InferenceResult{
			Type:        expected,
			Constraints: append(append([]TypeConstraint(nil), forward.Constraints...), constraint),
			Confidence:  forward.Confidence,
		}
	}

	return forward
}

// CheckExpression reports whether expr can take the expected type under ctx.
func (e *Engine) CheckExpression(expr ast.Expression, expected typesystem.Type, ctx *typesystem.TypeContext) bool {
	result := e.InferExpression(expr, ctx)
	_, ok := typesystem.Unify(result.Type, expected, ctx)
	return ok
}

func (e *Engine) infer(expr ast.Expression, ctx *typesystem.TypeContext) *InferenceResult {
	switch node := expr.(type) {
	case *ast.Literal:
		return inferLiteral(node)
	case *ast.Identifier:
		return inferIdentifier(node, ctx)
	case *ast.Call:
		return e.inferCall(node, ctx)
	case *ast.Member:
		return e.inferMember(node, ctx)
	case *ast.Array:
		return e.inferArray(node, ctx)
	case *ast.Object:
		return e.inferObject(node, ctx)
	case *ast.Function:
		return e.inferFunction(node, ctx)
	default:
		return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
	}
}

func inferLiteral(node *ast.Literal) *InferenceResult {
	var t typesystem.Type
	switch node.Kind {
	case ast.NumberLiteral:
		t = typesystem.Prim(typesystem.NumberName)
	case ast.StringLiteral:
		t = typesystem.Prim(typesystem.StringName)
	case ast.BooleanLiteral:
		t = typesystem.Prim(typesystem.BooleanName)
	case ast.NullLiteral:
		t = typesystem.Prim(typesystem.NullName)
	default:
		return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
	}
	return &InferenceResult{Type: t, Confidence: 1.0}
}

func inferIdentifier(node *ast.Identifier, ctx *typesystem.TypeContext) *InferenceResult {
	if t, ok := ctx.Variables[node.Name]; ok {
		return &InferenceResult{Type: t, Confidence: 1.0}
	}
	return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
}

func (e *Engine) inferCall(node *ast.Call, ctx *typesystem.TypeContext) *InferenceResult {
	// Fast path: the callee is a named function in scope.
	if ident, ok := node.Callee.(*ast.Identifier); ok {
		if sig, found := ctx.Functions[ident.Name]; found {
			return &InferenceResult{Type: sig.Return, Confidence: 0.9}
		}
	}

	// Otherwise infer the callee and read the function type's return slot.
	callee := e.InferExpression(node.Callee, ctx)
	if callee.Type.Name == typesystem.FunctionName && len(callee.Type.Params) > 0 {
		ret := callee.Type.Params[len(callee.Type.Params)-1]
		confidence := callee.Confidence
		if confidence > 0.8 {
			confidence = 0.8
		}
		return &InferenceResult{Type: ret, Confidence: confidence}
	}

	return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
}

func (e *Engine) inferMember(node *ast.Member, ctx *typesystem.TypeContext) *InferenceResult {
	object := e.InferExpression(node.Object, ctx)

	class, ok := ctx.Classes[object.Type.Name]
	if !ok {
		return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
	}

	if prop, found := class.Property(node.Property); found {
		return &InferenceResult{Type: prop, Confidence: object.Confidence}
	}
	if method, found := class.Methods[node.Property]; found {
		return &InferenceResult{Type: method.AsType(), Confidence: object.Confidence}
	}

	return &InferenceResult{Type: typesystem.Unknown(), Confidence: 0}
}

func (e *Engine) inferArray(node *ast.Array, ctx *typesystem.TypeContext) *InferenceResult {
	// Empty arrays get a placeholder element type at half confidence.
	if len(node.Elements) == 0 {
		return &InferenceResult{
			Type:       typesystem.ArrayOf(typesystem.Unknown()),
			Confidence: 0.5,
		}
	}

	// Every element is inferred; the first element's type is reified as the
	// array parameter.
	confidence := 1.0
	var first typesystem.Type
	for i, elem := range node.Elements {
		res := e.InferExpression(elem, ctx)
		if i == 0 {
			first = res.Type
		}
		if res.Confidence < confidence {
			confidence = res.Confidence
		}
	}
	return &InferenceResult{Type: typesystem.ArrayOf(first), Confidence: confidence}
}

func (e *Engine) inferObject(node *ast.Object, ctx *typesystem.TypeContext) *InferenceResult {
	// Object literals widen to the generic object type; no structural
	// reconstruction is attempted. Field values are still inferred so their
	// results land in the cache.
	for _, field := range node.Fields {
		e.InferExpression(field.Value, ctx)
	}
	return &InferenceResult{Type: typesystem.Prim(typesystem.ObjectName), Confidence: 1.0}
}

func (e *Engine) inferFunction(node *ast.Function, ctx *typesystem.TypeContext) *InferenceResult {
	params := make([]typesystem.Type, len(node.Params))
	certain := true
	for i, p := range node.Params {
		if p.Annotated {
			params[i] = p.Type
		} else {
			params[i] = typesystem.Unknown()
			certain = false
		}
	}

	ret := typesystem.Unknown()
	switch {
	case node.Declared:
		ret = node.Return
	case node.Body != nil:
		body := e.InferExpression(node.Body, ctx)
		ret = body.Type
		certain = false
	default:
		certain = false
	}

	confidence := 1.0
	if !certain {
		confidence = 0.7
	}
	return &InferenceResult{Type: typesystem.Function(params, ret), Confidence: confidence}
}
