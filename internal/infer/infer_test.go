package infer

import (
	"testing"

	"github.com/typeforge/typeforge/internal/ast"
	"github.com/typeforge/typeforge/internal/typesystem"
)

func testContext() *typesystem.TypeContext {
	ctx := typesystem.NewContext("typescript")
	ctx.Variables["count"] = typesystem.Prim(typesystem.NumberName)
	ctx.Variables["person"] = typesystem.Prim("Person")
	ctx.Functions["toString"] = typesystem.FunctionSignature{
		Name: "toString",
		Params: []typesystem.TypeParameter{
			{Name: "value", Type: typesystem.Prim(typesystem.NumberName)},
		},
		Return: typesystem.Prim(typesystem.StringName),
	}
	ctx.Classes["Person"] = typesystem.NewClass("Person",
		typesystem.TypeParameter{Name: "name", Type: typesystem.Prim(typesystem.StringName)},
		typesystem.TypeParameter{Name: "age", Type: typesystem.Prim(typesystem.NumberName)},
	)
	return ctx
}

func TestInferLiterals(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	tests := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"number", &ast.Literal{Kind: ast.NumberLiteral, Raw: "42"}, typesystem.NumberName},
		{"string", &ast.Literal{Kind: ast.StringLiteral, Raw: "hi"}, typesystem.StringName},
		{"boolean", &ast.Literal{Kind: ast.BooleanLiteral, Raw: "true"}, typesystem.BooleanName},
		{"null", &ast.Literal{Kind: ast.NullLiteral}, typesystem.NullName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := engine.InferExpression(tt.expr, ctx)
			if res.Type.Name != tt.want {
				t.Errorf("inferred %s, want %s", res.Type, tt.want)
			}
			if res.Confidence != 1.0 {
				t.Errorf("literal confidence = %v, want 1.0", res.Confidence)
			}
		})
	}
}

func TestInferIdentifier(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	res := engine.InferExpression(&ast.Identifier{Name: "count"}, ctx)
	if res.Type.Name != typesystem.NumberName || res.Confidence != 1.0 {
		t.Errorf("known identifier: got %s @ %v", res.Type, res.Confidence)
	}

	res = engine.InferExpression(&ast.Identifier{Name: "missing"}, ctx)
	if res.Type.Name != typesystem.UnknownName || res.Confidence != 0 {
		t.Errorf("unknown identifier should degrade to unknown @ 0, got %s @ %v", res.Type, res.Confidence)
	}
}

func TestInferCall(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	call := &ast.Call{
		Callee: &ast.Identifier{Name: "toString"},
		Args:   []ast.Expression{&ast.Identifier{Name: "count"}},
	}
	res := engine.InferExpression(call, ctx)
	if res.Type.Name != typesystem.StringName {
		t.Errorf("call via signature: got %s, want string", res.Type)
	}

	// Calling through a variable holding a function type reads the return slot.
	ctx.Variables["callback"] = typesystem.Function(
		[]typesystem.Type{typesystem.Prim(typesystem.StringName)},
		typesystem.Prim(typesystem.BooleanName),
	)
	indirect := &ast.Call{Callee: &ast.Identifier{Name: "callback"}}
	res = engine.InferExpression(indirect, ctx)
	if res.Type.Name != typesystem.BooleanName {
		t.Errorf("call via function-typed variable: got %s, want boolean", res.Type)
	}

	// Unknown callee degrades.
	res = engine.InferExpression(&ast.Call{Callee: &ast.Identifier{Name: "nope"}}, ctx)
	if res.Type.Name != typesystem.UnknownName {
		t.Errorf("unknown callee: got %s, want unknown", res.Type)
	}
}

func TestInferMemberAccess(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	res := engine.InferExpression(&ast.Member{
		Object:   &ast.Identifier{Name: "person"},
		Property: "name",
	}, ctx)
	if res.Type.Name != typesystem.StringName {
		t.Errorf("person.name: got %s, want string", res.Type)
	}

	res = engine.InferExpression(&ast.Member{
		Object:   &ast.Identifier{Name: "person"},
		Property: "height",
	}, ctx)
	if res.Type.Name != typesystem.UnknownName || res.Confidence != 0 {
		t.Errorf("unresolved property should degrade to unknown @ 0, got %s @ %v", res.Type, res.Confidence)
	}
}

func TestInferArrayLiteral(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	res := engine.InferExpression(&ast.Array{Elements: []ast.Expression{
		&ast.Literal{Kind: ast.NumberLiteral, Raw: "1"},
		&ast.Literal{Kind: ast.NumberLiteral, Raw: "2"},
	}}, ctx)
	want := typesystem.ArrayOf(typesystem.Prim(typesystem.NumberName))
	if !res.Type.Equal(want) {
		t.Errorf("array literal: got %s, want %s", res.Type, want)
	}

	res = engine.InferExpression(&ast.Array{}, ctx)
	if !res.Type.Equal(typesystem.ArrayOf(typesystem.Unknown())) {
		t.Errorf("empty array: got %s, want Array<unknown>", res.Type)
	}
	if res.Confidence != 0.5 {
		t.Errorf("empty array confidence = %v, want 0.5", res.Confidence)
	}
}

func TestInferObjectLiteralWidens(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	res := engine.InferExpression(&ast.Object{Fields: []ast.ObjectField{
		{Name: "a", Value: &ast.Literal{Kind: ast.NumberLiteral, Raw: "1"}},
	}}, ctx)
	if res.Type.Name != typesystem.ObjectName {
		t.Errorf("object literal must widen to the generic object type, got %s", res.Type)
	}
}

func TestInferFunctionLiteral(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	fn := &ast.Function{
		Params: []ast.FunctionParam{
			{Name: "x", Type: typesystem.Prim(typesystem.NumberName), Annotated: true},
		},
		Return:   typesystem.Prim(typesystem.StringName),
		Declared: true,
	}
	res := engine.InferExpression(fn, ctx)
	want := typesystem.Function(
		[]typesystem.Type{typesystem.Prim(typesystem.NumberName)},
		typesystem.Prim(typesystem.StringName),
	)
	if !res.Type.Equal(want) {
		t.Errorf("function literal: got %s, want %s", res.Type, want)
	}
	if res.Confidence != 1.0 {
		t.Errorf("fully annotated function confidence = %v, want 1.0", res.Confidence)
	}
}

func TestInferenceCacheReturnsSharedInstance(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	first := engine.InferExpression(&ast.Identifier{Name: "count"}, ctx)
	second := engine.InferExpression(&ast.Identifier{Name: "count"}, ctx)
	if first != second {
		t.Errorf("structurally equal calls must return the same cached object")
	}

	// A structurally equal but distinct context still hits the cache.
	third := engine.InferExpression(&ast.Identifier{Name: "count"}, testContext())
	if first != third {
		t.Errorf("equal context fingerprints must share cache entries")
	}

	engine.ClearCache()
	fourth := engine.InferExpression(&ast.Identifier{Name: "count"}, ctx)
	if first == fourth {
		t.Errorf("ClearCache should force recomputation")
	}
}

func TestCheckExpression(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()

	lit := &ast.Literal{Kind: ast.NumberLiteral, Raw: "7"}
	if !engine.CheckExpression(lit, typesystem.Prim(typesystem.NumberName), ctx) {
		t.Errorf("number literal should check against number")
	}
	if engine.CheckExpression(lit, typesystem.Prim(typesystem.StringName), ctx) {
		t.Errorf("number literal should not check against string")
	}
}

func TestInferBackwardStripsNullability(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()
	ctx.Variables["maybe"] = typesystem.Prim(typesystem.StringName).AsNullable()

	res := engine.InferBackward(
		&ast.Identifier{Name: "maybe"},
		typesystem.Prim(typesystem.StringName),
		ctx,
	)
	if res.Type.Nullable {
		t.Errorf("backward inference should strip nullability against a non-nullable expectation")
	}
	if res.Type.Name != typesystem.StringName {
		t.Errorf("narrowed type = %s, want string", res.Type)
	}
	if len(res.Constraints) == 0 {
		t.Errorf("narrowing should record a constraint")
	}

	// Incompatible expectation leaves the forward result untouched.
	res = engine.InferBackward(
		&ast.Identifier{Name: "count"},
		typesystem.Prim(typesystem.StringName),
		ctx,
	)
	if res.Type.Name != typesystem.NumberName {
		t.Errorf("incompatible narrowing should return the forward type, got %s", res.Type)
	}
}

func TestCacheDistinguishesNodeKinds(t *testing.T) {
	engine := NewEngine()
	ctx := testContext()
	ctx.Variables["null"] = typesystem.Prim(typesystem.NumberName)

	// Both nodes render "null"; the cache must still keep them apart.
	ident := engine.InferExpression(&ast.Identifier{Name: "null"}, ctx)
	if ident.Type.Name != typesystem.NumberName {
		t.Fatalf("identifier null = %s, want number", ident.Type)
	}

	lit := engine.InferExpression(&ast.Literal{Kind: ast.NullLiteral}, ctx)
	if lit.Type.Name != typesystem.NullName {
		t.Errorf("null literal = %s, want null", lit.Type)
	}
	if lit.Confidence != 1.0 {
		t.Errorf("null literal confidence = %v, want 1.0", lit.Confidence)
	}

	// Same ambiguity one level down: both members render "null.name" but
	// their object nodes differ in kind.
	ctx.Variables["null"] = typesystem.Prim("Person")
	engine.ClearCache()
	litMember := engine.InferExpression(&ast.Member{
		Object:   &ast.Literal{Kind: ast.NullLiteral},
		Property: "name",
	}, ctx)
	identMember := engine.InferExpression(&ast.Member{
		Object:   &ast.Identifier{Name: "null"},
		Property: "name",
	}, ctx)
	if litMember == identMember {
		t.Errorf("structurally different members must not share a cache entry")
	}
	if litMember.Type.Name != typesystem.UnknownName {
		t.Errorf("null-literal member = %s, want unknown", litMember.Type)
	}
	if identMember.Type.Name != typesystem.StringName {
		t.Errorf("member through the variable = %s, want string", identMember.Type)
	}
}
