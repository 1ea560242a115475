package typesystem

// Subst is a mapping from type variable names to types.
type Subst map[string]Type

// Merge folds other into s. It fails when other rebinds an already-bound
// variable to a structurally different type.
func (s Subst) Merge(other Subst) bool {
	for name, t := range other {
		if bound, ok := s[name]; ok {
			if !bound.Equal(t) {
				return false
			}
			continue
		}
		s[name] = t
	}
	return true
}

// Apply resolves t under s, rewriting bound variables recursively.
func (s Subst) Apply(t Type) Type {
	if bound, ok := s[t.Name]; ok && len(t.Params) == 0 {
		if t.Nullable {
			return bound.AsNullable()
		}
		return bound
	}
	if len(t.Params) == 0 {
		return t
	}
	params := make([]Type, len(t.Params))
	for i, p := range t.Params {
		params[i] = s.Apply(p)
	}
	return Type{Name: t.Name, Params: params, Nullable: t.Nullable}
}

// IsTypeVariable reports whether t is a bare type variable under ctx: a
// parameterless name that is neither primitive, composite, nor a class the
// scope knows about.
func IsTypeVariable(t Type, ctx *TypeContext) bool {
	if len(t.Params) > 0 {
		return false
	}
	if IsPrimitive(t.Name) || IsComposite(t.Name) {
		return false
	}
	if ctx != nil && ctx.HasClass(t.Name) {
		return false
	}
	return true
}

// Unify structurally matches a against b, producing a variable substitution.
// Identical types unify with the empty substitution; a bare type variable
// binds to anything (occurs check aside); same-name generics unify
// parameter-wise with consistent merged bindings. A failed match returns
// (nil, false) — unification failure is a normal outcome, not an error.
func Unify(a, b Type, ctx *TypeContext) (Subst, bool) {
	if a.Equal(b) {
		return Subst{}, true
	}

	if IsTypeVariable(a, ctx) {
		return bindVariable(a.Name, b)
	}
	if IsTypeVariable(b, ctx) {
		return bindVariable(b.Name, a)
	}

	if a.Name != b.Name || len(a.Params) != len(b.Params) {
		return nil, false
	}
	if a.Nullable != b.Nullable {
		return nil, false
	}

	subst := Subst{}
	for i := range a.Params {
		next, ok := Unify(subst.Apply(a.Params[i]), subst.Apply(b.Params[i]), ctx)
		if !ok {
			return nil, false
		}
		if !subst.Merge(next) {
			return nil, false
		}
	}
	return subst, true
}

func bindVariable(name string, t Type) (Subst, bool) {
	if t.Name == name && len(t.Params) == 0 {
		return Subst{}, true
	}
	if occurs(name, t) {
		return nil, false
	}
	return Subst{name: t}, true
}

// occurs reports whether the variable name appears anywhere inside t,
// guarding against infinite types.
func occurs(name string, t Type) bool {
	if t.Name == name {
		return true
	}
	for _, p := range t.Params {
		if occurs(name, p) {
			return true
		}
	}
	return false
}
