package grammar

import (
	"strings"
	"testing"

	"github.com/typeforge/typeforge/internal/typesystem"
)

func TestConvertPrimitives(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	tests := []struct {
		name     string
		typ      typesystem.Type
		contains string
	}{
		{"string", typesystem.Prim(typesystem.StringName), StringRule},
		{"number", typesystem.Prim(typesystem.NumberName), NumberRule},
		{"boolean", typesystem.Prim(typesystem.BooleanName), BooleanRule},
		{"null", typesystem.Prim(typesystem.NullName), `"null"`},
		{"any", typesystem.Prim(typesystem.AnyName), AnyRule},
		{"unknown", typesystem.Unknown(), AnyRule},
		{"object", typesystem.Prim(typesystem.ObjectName), ObjectRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := conv.Convert(tt.typ, ctx)
			if !strings.HasPrefix(out, "start ::= ") {
				t.Errorf("grammar must open with a start rule:\n%s", out)
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("grammar for %s missing %q:\n%s", tt.typ, tt.contains, out)
			}
		})
	}
}

func TestConvertArray(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	out := conv.Convert(typesystem.ArrayOf(typesystem.Prim(typesystem.NumberName)), ctx)
	for _, want := range []string{`"["`, `"]"`, NumberRule, `","`} {
		if !strings.Contains(out, want) {
			t.Errorf("array grammar missing %q:\n%s", want, out)
		}
	}

	// Bare Array falls back to the permissive element rule.
	out = conv.Convert(typesystem.Prim(typesystem.ArrayName), ctx)
	if !strings.Contains(out, AnyRule) {
		t.Errorf("bare Array should use the any rule as element:\n%s", out)
	}
}

func TestConvertNullable(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	out := conv.Convert(typesystem.Prim(typesystem.StringName).AsNullable(), ctx)
	if !strings.Contains(out, StringRule) {
		t.Errorf("nullable grammar missing the non-null rendering:\n%s", out)
	}
	if !strings.Contains(out, `"null"`) {
		t.Errorf("nullable grammar missing the null alternative:\n%s", out)
	}
}

func TestConvertUnionAndIntersection(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	union := typesystem.Union(
		typesystem.Prim(typesystem.StringName),
		typesystem.Prim(typesystem.NumberName),
	)
	out := conv.Convert(union, ctx)
	if !strings.Contains(out, StringRule) || !strings.Contains(out, NumberRule) {
		t.Errorf("union grammar should contain both alternatives:\n%s", out)
	}
	if !strings.Contains(out, "|") {
		t.Errorf("union grammar missing alternation:\n%s", out)
	}

	// Intersection keeps only the first member (preserved simplification).
	inter := typesystem.New(typesystem.IntersectionName,
		typesystem.Prim(typesystem.NumberName),
		typesystem.Prim(typesystem.StringName),
	)
	out = conv.Convert(inter, ctx)
	if !strings.Contains(out, NumberRule) {
		t.Errorf("intersection grammar should render the first member:\n%s", out)
	}
	if strings.Contains(out, StringRule) {
		t.Errorf("intersection grammar should ignore later members:\n%s", out)
	}
}

func TestConvertFunctionPlaceholder(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	fn := typesystem.Function(
		[]typesystem.Type{typesystem.Prim(typesystem.NumberName)},
		typesystem.Prim(typesystem.StringName),
	)
	out := conv.Convert(fn, ctx)
	if !strings.Contains(out, `"function"`) {
		t.Errorf("function grammar should emit the keyword placeholder:\n%s", out)
	}
}

func TestConvertClassInDeclarationOrder(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")
	ctx.Classes["Person"] = typesystem.NewClass("Person",
		typesystem.TypeParameter{Name: "name", Type: typesystem.Prim(typesystem.StringName)},
		typesystem.TypeParameter{Name: "age", Type: typesystem.Prim(typesystem.NumberName)},
	)

	out := conv.Convert(typesystem.Prim("Person"), ctx)
	nameIdx := strings.Index(out, `\"name\":`)
	ageIdx := strings.Index(out, `\"age\":`)
	if nameIdx == -1 || ageIdx == -1 {
		t.Fatalf("class grammar missing property keys:\n%s", out)
	}
	if nameIdx > ageIdx {
		t.Errorf("properties must render in declaration order:\n%s", out)
	}
	if !strings.Contains(out, `"{"`) || !strings.Contains(out, `"}"`) {
		t.Errorf("class grammar missing braces:\n%s", out)
	}
}

func TestConvertRecursiveClassTerminates(t *testing.T) {
	// The source implementation recursed infinitely on self-referential
	// classes used as grammar targets; the visited-name guard substitutes
	// the permissive object rule on re-entry instead.
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")
	ctx.Classes["Node"] = typesystem.NewClass("Node",
		typesystem.TypeParameter{Name: "next", Type: typesystem.Prim("Node")},
		typesystem.TypeParameter{Name: "value", Type: typesystem.Prim(typesystem.NumberName)},
	)

	out := conv.Convert(typesystem.Prim("Node"), ctx)
	if !strings.Contains(out, ObjectRule) {
		t.Errorf("recursive re-entry should fall back to the object rule:\n%s", out)
	}
	if !strings.Contains(out, NumberRule) {
		t.Errorf("non-recursive properties should still render:\n%s", out)
	}
}

func TestConvertFallbackQuotedName(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	out := conv.Convert(typesystem.Prim("Mystery"), ctx)
	if !strings.Contains(out, `"Mystery"`) {
		t.Errorf("unknown named type should fall back to its quoted name:\n%s", out)
	}
}

func TestConvertNoCrossCallLeakage(t *testing.T) {
	conv := NewConverter()
	ctx := typesystem.NewContext("typescript")

	conv.Convert(typesystem.ArrayOf(typesystem.Prim(typesystem.StringName)), ctx)
	out := conv.Convert(typesystem.Prim(typesystem.NumberName), ctx)
	if strings.Contains(out, StringRule) {
		t.Errorf("rule set leaked across Convert calls:\n%s", out)
	}
}
