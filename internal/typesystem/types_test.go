package typesystem

import (
	"testing"
)

func TestTypeEqualAndKey(t *testing.T) {
	tests := []struct {
		name  string
		a     Type
		b     Type
		equal bool
	}{
		{"same primitive", Prim(StringName), Prim(StringName), true},
		{"different primitive", Prim(StringName), Prim(NumberName), false},
		{"nullable differs", Prim(StringName), Prim(StringName).AsNullable(), false},
		{"generic match", ArrayOf(Prim(NumberName)), ArrayOf(Prim(NumberName)), true},
		{"generic param mismatch", ArrayOf(Prim(NumberName)), ArrayOf(Prim(StringName)), false},
		{
			"nested generic",
			ArrayOf(Union(Prim(StringName), Prim(NumberName))),
			ArrayOf(Union(Prim(StringName), Prim(NumberName))),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
			keysMatch := tt.a.Key() == tt.b.Key()
			if keysMatch != tt.equal {
				t.Errorf("Key equality for %s vs %s = %v, want %v", tt.a, tt.b, keysMatch, tt.equal)
			}
		})
	}
}

func TestTypeImmutability(t *testing.T) {
	base := Prim(StringName)
	nullable := base.AsNullable()

	if base.Nullable {
		t.Errorf("AsNullable mutated the receiver")
	}
	if !nullable.Nullable {
		t.Errorf("AsNullable did not set the flag on the copy")
	}
	if stripped := nullable.NonNullable(); stripped.Nullable {
		t.Errorf("NonNullable left the flag set")
	}
}

func TestTypeKindDispatch(t *testing.T) {
	tests := []struct {
		typ  Type
		kind Kind
	}{
		{Prim(StringName), KindPrimitive},
		{Prim(VoidName), KindPrimitive},
		{Prim(AnyName), KindAny},
		{Unknown(), KindAny},
		{Union(Prim(StringName), Prim(NumberName)), KindUnion},
		{New(IntersectionName, Prim(StringName)), KindIntersection},
		{ArrayOf(Prim(StringName)), KindArray},
		{Prim(ObjectName), KindObject},
		{Function([]Type{Prim(NumberName)}, Prim(StringName)), KindFunction},
		{Prim("Person"), KindNamed},
	}

	for _, tt := range tests {
		if got := tt.typ.Kind(); got != tt.kind {
			t.Errorf("Kind(%s) = %v, want %v", tt.typ, got, tt.kind)
		}
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Prim(StringName), "string"},
		{Prim(StringName).AsNullable(), "string?"},
		{ArrayOf(Prim(NumberName)), "Array<number>"},
		{Union(Prim(StringName), Prim(NumberName)), "string | number"},
		{Function([]Type{Prim(NumberName)}, Prim(StringName)), "(number) => string"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFunctionSignatureAsType(t *testing.T) {
	sig := FunctionSignature{
		Name: "toString",
		Params: []TypeParameter{
			{Name: "value", Type: Prim(NumberName)},
		},
		Return: Prim(StringName),
	}

	got := sig.AsType()
	want := Function([]Type{Prim(NumberName)}, Prim(StringName))
	if !got.Equal(want) {
		t.Errorf("AsType() = %s, want %s", got, want)
	}
}

func TestContextCopyIsolation(t *testing.T) {
	ctx := NewContext("typescript")
	ctx.Variables["x"] = Prim(NumberName)
	ctx.Classes["Person"] = NewClass("Person",
		TypeParameter{Name: "name", Type: Prim(StringName)},
	)

	branch := ctx.Copy()
	branch.Variables["x"] = Prim(StringName)
	branch.Variables["y"] = Prim(BooleanName)
	branch.Classes["Person"].Properties["age"] = Prim(NumberName)

	if !ctx.Variables["x"].Equal(Prim(NumberName)) {
		t.Errorf("copy aliased Variables")
	}
	if _, ok := ctx.Variables["y"]; ok {
		t.Errorf("copy leaked new variable into original")
	}
	if _, ok := ctx.Classes["Person"].Properties["age"]; ok {
		t.Errorf("copy aliased class property map")
	}
}

func TestContextMergeRightWins(t *testing.T) {
	left := NewContext("typescript")
	left.Variables["x"] = Prim(NumberName)
	left.Variables["keep"] = Prim(BooleanName)

	right := NewContext("typescript")
	right.Variables["x"] = Prim(StringName)

	merged := left.Merge(right)
	if !merged.Variables["x"].Equal(Prim(StringName)) {
		t.Errorf("Merge: right-hand side should win on collision, got %s", merged.Variables["x"])
	}
	if !merged.Variables["keep"].Equal(Prim(BooleanName)) {
		t.Errorf("Merge dropped left-only entry")
	}
	if !left.Variables["x"].Equal(Prim(NumberName)) {
		t.Errorf("Merge mutated its receiver")
	}
}

func TestContextFingerprintStability(t *testing.T) {
	build := func() *TypeContext {
		ctx := NewContext("typescript")
		ctx.Variables["a"] = Prim(NumberName)
		ctx.Variables["b"] = ArrayOf(Prim(StringName))
		ctx.Functions["f"] = FunctionSignature{Name: "f", Return: Prim(VoidName)}
		return ctx
	}

	first := build()
	second := build()
	if first.Fingerprint() != second.Fingerprint() {
		t.Errorf("structurally equal contexts produced different fingerprints")
	}

	second.Variables["c"] = Prim(BooleanName)
	if first.Fingerprint() == second.Fingerprint() {
		t.Errorf("fingerprint did not change after adding a variable")
	}
}
