package typesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// TypeContext is the per-request scope used to resolve identifiers, callees
// and classes. One logical request owns its context; Copy and Merge exist so
// callers can branch speculatively without aliasing.
type TypeContext struct {
	Variables map[string]Type
	Functions map[string]FunctionSignature
	Classes   map[string]ClassType

	// Language tags the target language of the surrounding source text
	// (drives hole marker syntax and code rendering).
	Language string

	// Strict disables permissive narrowing (reserved for stricter language
	// adapters; the default engine behavior is permissive).
	Strict bool
}

// NewContext creates an empty scope for the given language tag.
func NewContext(language string) *TypeContext {
	return &TypeContext{
		Variables: map[string]Type{},
		Functions: map[string]FunctionSignature{},
		Classes:   map[string]ClassType{},
		Language:  language,
	}
}

// Copy returns a deep copy suitable for speculative branches.
func (tc *TypeContext) Copy() *TypeContext {
	out := NewContext(tc.Language)
	out.Strict = tc.Strict
	for k, v := range tc.Variables {
		out.Variables[k] = v
	}
	for k, v := range tc.Functions {
		out.Functions[k] = v
	}
	for k, v := range tc.Classes {
		out.Classes[k] = copyClass(v)
	}
	return out
}

func copyClass(c ClassType) ClassType {
	out := ClassType{
		Name:          c.Name,
		Properties:    make(map[string]Type, len(c.Properties)),
		PropertyOrder: append([]string(nil), c.PropertyOrder...),
		Methods:       make(map[string]FunctionSignature, len(c.Methods)),
	}
	for k, v := range c.Properties {
		out.Properties[k] = v
	}
	for k, v := range c.Methods {
		out.Methods[k] = v
	}
	return out
}

// Merge combines two scopes into a new context; entries from other win on
// key collision. Neither input is modified.
func (tc *TypeContext) Merge(other *TypeContext) *TypeContext {
	out := tc.Copy()
	if other == nil {
		return out
	}
	for k, v := range other.Variables {
		out.Variables[k] = v
	}
	for k, v := range other.Functions {
		out.Functions[k] = v
	}
	for k, v := range other.Classes {
		out.Classes[k] = copyClass(v)
	}
	if other.Language != "" {
		out.Language = other.Language
	}
	return out
}

// HasClass reports whether name is a class known to this scope.
func (tc *TypeContext) HasClass(name string) bool {
	_, ok := tc.Classes[name]
	return ok
}

// Fingerprint returns a stable digest of the scope contents. Structurally
// equal contexts produce equal fingerprints, so it keys the inference and
// inhabitation caches.
func (tc *TypeContext) Fingerprint() string {
	var sb strings.Builder
	sb.WriteString("lang=")
	sb.WriteString(tc.Language)
	sb.WriteByte('\n')

	names := make([]string, 0, len(tc.Variables))
	for k := range tc.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		sb.WriteString("var ")
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(tc.Variables[k].Key())
		sb.WriteByte('\n')
	}

	names = names[:0]
	for k := range tc.Functions {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		sb.WriteString("fun ")
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(tc.Functions[k].AsType().Key())
		sb.WriteByte('\n')
	}

	names = names[:0]
	for k := range tc.Classes {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		c := tc.Classes[k]
		sb.WriteString("class ")
		sb.WriteString(k)
		sb.WriteByte('{')
		for _, prop := range c.PropertyOrder {
			sb.WriteString(prop)
			sb.WriteByte(':')
			sb.WriteString(c.Properties[prop].Key())
			sb.WriteByte(';')
		}
		methods := make([]string, 0, len(c.Methods))
		for m := range c.Methods {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			sb.WriteString(m)
			sb.WriteByte(':')
			sb.WriteString(c.Methods[m].AsType().Key())
			sb.WriteByte(';')
		}
		sb.WriteString("}\n")
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
