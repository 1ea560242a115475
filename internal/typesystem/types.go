package typesystem

import (
	"strings"
)

// Type is a structural, language-agnostic description of a value's shape.
// Composite shapes (unions, functions, generics) carry their members in
// Params; the Name acts as the discriminator. A Type is never mutated after
// construction — every transformation returns a new value.
type Type struct {
	Name     string
	Params   []Type
	Nullable bool
}

// Kind is the closed discriminator set the converter and solver switch on.
type Kind int

const (
	KindPrimitive Kind = iota
	KindUnion
	KindIntersection
	KindFunction
	KindArray
	KindObject
	KindAny // any / unknown
	KindNamed
)

// Primitive type names recognized across the engine.
const (
	StringName  = "string"
	NumberName  = "number"
	BooleanName = "boolean"
	NullName    = "null"
	VoidName    = "void"
	AnyName     = "any"
	UnknownName = "unknown"
)

// Composite discriminator names.
const (
	UnionName        = "union"
	IntersectionName = "intersection"
	FunctionName     = "function"
	ArrayName        = "Array"
	ObjectName       = "object"
)

// New constructs a non-nullable type with the given name and parameters.
func New(name string, params ...Type) Type {
	return Type{Name: name, Params: params}
}

// Prim constructs a primitive type by name.
func Prim(name string) Type {
	return Type{Name: name}
}

// Union constructs a union over the given members.
func Union(members ...Type) Type {
	return Type{Name: UnionName, Params: members}
}

// ArrayOf constructs Array<elem>.
func ArrayOf(elem Type) Type {
	return Type{Name: ArrayName, Params: []Type{elem}}
}

// Function constructs function(params..., ret).
func Function(params []Type, ret Type) Type {
	all := make([]Type, 0, len(params)+1)
	all = append(all, params...)
	all = append(all, ret)
	return Type{Name: FunctionName, Params: all}
}

// Unknown is the degraded result for anything the engine cannot resolve.
func Unknown() Type {
	return Type{Name: UnknownName}
}

// Kind maps the discriminator name onto the closed kind set.
func (t Type) Kind() Kind {
	switch t.Name {
	case UnionName:
		return KindUnion
	case IntersectionName:
		return KindIntersection
	case FunctionName:
		return KindFunction
	case ArrayName:
		return KindArray
	case ObjectName:
		return KindObject
	case AnyName, UnknownName:
		return KindAny
	case StringName, NumberName, BooleanName, NullName, VoidName:
		return KindPrimitive
	default:
		return KindNamed
	}
}

// IsPrimitive reports whether the name is one of the built-in scalar names.
func IsPrimitive(name string) bool {
	switch name {
	case StringName, NumberName, BooleanName, NullName, VoidName, AnyName, UnknownName:
		return true
	}
	return false
}

// IsComposite reports whether the name is a composite discriminator.
func IsComposite(name string) bool {
	switch name {
	case UnionName, IntersectionName, FunctionName, ArrayName, ObjectName:
		return true
	}
	return false
}

// AsNullable returns a nullable copy of t.
func (t Type) AsNullable() Type {
	return Type{Name: t.Name, Params: t.Params, Nullable: true}
}

// NonNullable returns a copy of t with the nullable flag stripped.
func (t Type) NonNullable() Type {
	return Type{Name: t.Name, Params: t.Params}
}

// Equal reports structural equality over (name, params, nullable).
func (t Type) Equal(other Type) bool {
	if t.Name != other.Name || t.Nullable != other.Nullable {
		return false
	}
	if len(t.Params) != len(other.Params) {
		return false
	}
	for i := range t.Params {
		if !t.Params[i].Equal(other.Params[i]) {
			return false
		}
	}
	return true
}

// Key returns the canonical form used for map keys and cache fingerprints.
// Two types have the same Key iff they are structurally equal.
func (t Type) Key() string {
	var sb strings.Builder
	t.writeKey(&sb)
	return sb.String()
}

func (t Type) writeKey(sb *strings.Builder) {
	sb.WriteString(t.Name)
	if len(t.Params) > 0 {
		sb.WriteByte('<')
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			p.writeKey(sb)
		}
		sb.WriteByte('>')
	}
	if t.Nullable {
		sb.WriteByte('?')
	}
}

// String renders the type the way annotations are written: unions with
// pipes, functions with arrow syntax, nullability as a trailing '?'.
func (t Type) String() string {
	var body string
	switch t.Kind() {
	case KindUnion, KindIntersection:
		sep := " | "
		if t.Kind() == KindIntersection {
			sep = " & "
		}
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		body = strings.Join(parts, sep)
	case KindFunction:
		if len(t.Params) == 0 {
			body = "() => " + VoidName
			break
		}
		args := make([]string, len(t.Params)-1)
		for i := 0; i < len(t.Params)-1; i++ {
			args[i] = t.Params[i].String()
		}
		body = "(" + strings.Join(args, ", ") + ") => " + t.Params[len(t.Params)-1].String()
	default:
		if len(t.Params) > 0 {
			parts := make([]string, len(t.Params))
			for i, p := range t.Params {
				parts[i] = p.String()
			}
			body = t.Name + "<" + strings.Join(parts, ", ") + ">"
		} else {
			body = t.Name
		}
	}
	if t.Nullable {
		return body + "?"
	}
	return body
}
