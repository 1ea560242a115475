// Package goscope builds typing contexts from real Go packages: the
// exported functions, variables and struct types of a package become the
// scope that inference and path search run against.
package goscope

import (
	"fmt"
	"go/types"
	"os"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// Loader inspects Go packages via go/packages.
type Loader struct {
	// Dir is the working directory for package resolution. Empty means
	// the current directory.
	Dir string
}

// Load resolves pattern (an import path or ./relative pattern) and
// translates its exported surface into a typing context.
func (l *Loader) Load(pattern string) (*typesystem.TypeContext, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedImports |
			packages.NeedDeps,
		Dir: l.Dir,
		Env: append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", pattern, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages matched %s", pattern)
	}

	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	tctx := typesystem.NewContext("go")
	for _, pkg := range pkgs {
		translatePackage(pkg.Types, tctx)
	}
	return tctx, nil
}

// translatePackage walks the package scope and registers each exported
// object on the context.
func translatePackage(pkg *types.Package, tctx *typesystem.TypeContext) {
	tr := &translator{ctx: tctx, active: map[string]bool{}}

	scope := pkg.Scope()
	names := scope.Names()
	sort.Strings(names)

	for _, name := range names {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}
		switch o := obj.(type) {
		case *types.Func:
			sig, ok := o.Type().(*types.Signature)
			if !ok {
				continue
			}
			tctx.Functions[name] = tr.signature(name, sig)
		case *types.TypeName:
			tr.typeName(o)
		case *types.Var, *types.Const:
			tctx.Variables[name] = tr.typ(obj.Type())
		}
	}
}

type translator struct {
	ctx *typesystem.TypeContext

	// active guards against recursive named types during translation.
	active map[string]bool
}

// typeName registers exported struct types as classes.
func (tr *translator) typeName(obj *types.TypeName) {
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return
	}

	name := obj.Name()
	if tr.ctx.HasClass(name) || tr.active[name] {
		return
	}
	tr.active[name] = true
	defer delete(tr.active, name)

	var props []typesystem.TypeParameter
	for i := 0; i < st.NumFields(); i++ {
		field := st.Field(i)
		if !field.Exported() {
			continue
		}
		props = append(props, typesystem.TypeParameter{
			Name: field.Name(),
			Type: tr.typ(field.Type()),
		})
	}

	class := typesystem.NewClass(name, props...)
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if !m.Exported() {
			continue
		}
		sig, ok := m.Type().(*types.Signature)
		if !ok {
			continue
		}
		class.Methods[m.Name()] = tr.signature(m.Name(), sig)
	}
	tr.ctx.Classes[name] = class
}

// signature translates a Go function type, dropping a trailing error
// result: failure is not part of the value type being synthesized.
func (tr *translator) signature(name string, sig *types.Signature) typesystem.FunctionSignature {
	fn := typesystem.FunctionSignature{Name: name}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		if isContext(p.Type()) {
			continue
		}
		pname := p.Name()
		if pname == "" {
			pname = fmt.Sprintf("arg%d", i)
		}
		fn.Params = append(fn.Params, typesystem.TypeParameter{
			Name: pname,
			Type: tr.typ(p.Type()),
		})
	}

	results := sig.Results()
	n := results.Len()
	if n > 0 && isError(results.At(n-1).Type()) {
		n--
	}
	switch n {
	case 0:
		fn.Return = typesystem.Prim(typesystem.VoidName)
	default:
		// Multi-value returns collapse to the first value; Go tuples have
		// no counterpart in the target type model.
		fn.Return = tr.typ(results.At(0).Type())
	}
	return fn
}

// typ maps a Go type onto the engine's type model.
func (tr *translator) typ(t types.Type) typesystem.Type {
	switch u := t.(type) {
	case *types.Basic:
		info := u.Info()
		switch {
		case info&types.IsBoolean != 0:
			return typesystem.Prim(typesystem.BooleanName)
		case info&types.IsNumeric != 0:
			return typesystem.Prim(typesystem.NumberName)
		case info&types.IsString != 0:
			return typesystem.Prim(typesystem.StringName)
		default:
			return typesystem.Unknown()
		}
	case *types.Slice:
		return typesystem.ArrayOf(tr.typ(u.Elem()))
	case *types.Array:
		return typesystem.ArrayOf(tr.typ(u.Elem()))
	case *types.Map:
		return typesystem.New("Map", tr.typ(u.Key()), tr.typ(u.Elem()))
	case *types.Pointer:
		// Pointers can be nil; model that as nullability.
		return tr.typ(u.Elem()).AsNullable()
	case *types.Named:
		if isError(u) {
			return typesystem.Prim(typesystem.StringName)
		}
		name := u.Obj().Name()
		if !tr.active[name] {
			if tn, ok := u.Obj().Type().(*types.Named); ok {
				if _, isStruct := tn.Underlying().(*types.Struct); isStruct && u.Obj().Exported() {
					tr.typeName(u.Obj())
				}
			}
		}
		if tr.ctx.HasClass(name) || tr.active[name] {
			return typesystem.New(name)
		}
		return tr.typ(u.Underlying())
	case *types.Signature:
		fn := tr.signature("", u)
		return fn.AsType()
	case *types.Interface:
		if u.Empty() {
			return typesystem.Prim(typesystem.AnyName)
		}
		return typesystem.Unknown()
	default:
		return typesystem.Unknown()
	}
}

func isError(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	return named.Obj().Pkg() == nil && named.Obj().Name() == "error"
}

func isContext(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
}
