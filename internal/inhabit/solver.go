// Package inhabit answers "how can a value of type T be produced from what
// is in scope" as a cost-ranked search over typed operations: variable
// reads, property hops and function applications.
package inhabit

import (
	"sort"
	"strconv"

	"github.com/typeforge/typeforge/internal/typesystem"
)

// OperationKind discriminates the three edge kinds of the search graph.
type OperationKind int

const (
	OpVariable OperationKind = iota
	OpProperty
	OpCall
)

// Base operation costs. Variable reads are free, property hops cheap,
// function applications the most expensive.
const (
	VariableCost = 0.0
	PropertyCost = 0.5
	CallCost     = 1.0
)

// Operation is a single typed step along an inhabitation path.
type Operation struct {
	Name   string
	Kind   OperationKind
	Input  typesystem.Type
	Output typesystem.Type
	Cost   float64
}

// Path is an immutable sequence of operations from Source to Target.
type Path struct {
	Operations []Operation
	Source     typesystem.Type
	Target     typesystem.Type
}

// Cost is the sum of the operation costs; the empty path costs exactly 0.
func (p Path) Cost() float64 {
	total := 0.0
	for _, op := range p.Operations {
		total += op.Cost
	}
	return total
}

// Code renders the path as nested call / property-access syntax over the
// given base expression, e.g. "toString(person.age)".
func (p Path) Code(base string) string {
	expr := base
	for _, op := range p.Operations {
		switch op.Kind {
		case OpVariable:
			expr = op.Name
		case OpProperty:
			expr = expr + "." + op.Name
		case OpCall:
			expr = op.Name + "(" + expr + ")"
		}
	}
	return expr
}

// CacheStats reports path cache effectiveness.
type CacheStats struct {
	Hits   int
	Misses int
}

// Solver performs bounded best-first search with per-instance result
// caching. Like the inference engine, a solver belongs to one caller.
type Solver struct {
	// MaxDepth bounds the number of operations on any path.
	MaxDepth int

	cache map[string][]Path
	stats CacheStats
}

// DefaultMaxDepth bounds search when the caller does not configure one.
const DefaultMaxDepth = 5

// NewSolver creates a solver with the default depth bound.
func NewSolver() *Solver {
	return &Solver{MaxDepth: DefaultMaxDepth, cache: map[string][]Path{}}
}

// ClearCache resets the memoized paths and the hit/miss counters.
func (s *Solver) ClearCache() {
	s.cache = map[string][]Path{}
	s.stats = CacheStats{}
}

// Stats returns the current cache counters.
func (s *Solver) Stats() CacheStats {
	return s.stats
}

// FindPaths returns every path from source to target within the depth
// bound, ordered ascending by cost; ties prefer fewer operations. An empty
// result means "not reachable" and is a normal outcome.
func (s *Solver) FindPaths(source, target typesystem.Type, ctx *typesystem.TypeContext) []Path {
	// MaxDepth is part of the key: the same query under a different bound
	// is a different search, not a cache hit.
	key := strconv.Itoa(s.MaxDepth) + "|" + source.Key() + "->" + target.Key() + "@" + ctx.Fingerprint()
	if cached, ok := s.cache[key]; ok {
		s.stats.Hits++
		return cached
	}
	s.stats.Misses++

	search := &pathSearch{solver: s, ctx: ctx, target: target}
	visited := map[string]bool{source.Key(): true}
	search.explore(source, nil, visited)

	paths := search.found
	for i := range paths {
		paths[i].Source = source
		paths[i].Target = target
	}
	sort.SliceStable(paths, func(i, j int) bool {
		ci, cj := paths[i].Cost(), paths[j].Cost()
		if ci != cj {
			return ci < cj
		}
		if len(paths[i].Operations) != len(paths[j].Operations) {
			return len(paths[i].Operations) < len(paths[j].Operations)
		}
		return paths[i].Code("_") < paths[j].Code("_")
	})

	s.cache[key] = paths
	return paths
}

// FindBestPath returns the cheapest path, or nil when target is unreachable.
func (s *Solver) FindBestPath(source, target typesystem.Type, ctx *typesystem.TypeContext) *Path {
	paths := s.FindPaths(source, target, ctx)
	if len(paths) == 0 {
		return nil
	}
	return &paths[0]
}

// IsInhabitable reports whether any path to target exists from source.
func (s *Solver) IsInhabitable(source, target typesystem.Type, ctx *typesystem.TypeContext) bool {
	return len(s.FindPaths(source, target, ctx)) > 0
}

type pathSearch struct {
	solver *Solver
	ctx    *typesystem.TypeContext
	target typesystem.Type
	found  []Path
}

func (ps *pathSearch) explore(current typesystem.Type, trail []Operation, visited map[string]bool) {
	if current.Equal(ps.target) {
		ps.found = append(ps.found, Path{Operations: append([]Operation(nil), trail...)})
		return
	}
	if len(trail) >= ps.solver.MaxDepth {
		return
	}

	for _, op := range ps.edges(current) {
		key := op.Output.Key()
		if visited[key] {
			continue
		}
		visited[key] = true
		ps.explore(op.Output, append(trail, op), visited)
		delete(visited, key)
	}
}

// edges enumerates outgoing operations from the frontier type in a
// deterministic order: variable reads, then property hops, then calls.
func (ps *pathSearch) edges(current typesystem.Type) []Operation {
	var ops []Operation

	// Variable access only leaves the unknown start node; a concrete
	// frontier type already denotes a value.
	if current.Name == typesystem.UnknownName {
		names := make([]string, 0, len(ps.ctx.Variables))
		for name := range ps.ctx.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ops = append(ops, Operation{
				Name:   name,
				Kind:   OpVariable,
				Input:  current,
				Output: ps.ctx.Variables[name],
				Cost:   VariableCost,
			})
		}
	}

	if class, ok := ps.ctx.Classes[current.Name]; ok {
		for _, prop := range class.PropertyOrder {
			ops = append(ops, Operation{
				Name:   prop,
				Kind:   OpProperty,
				Input:  current,
				Output: class.Properties[prop],
				Cost:   PropertyCost,
			})
		}
	}

	names := make([]string, 0, len(ps.ctx.Functions))
	for name := range ps.ctx.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sig := ps.ctx.Functions[name]
		for _, param := range sig.Params {
			if param.Type.Equal(current) {
				ops = append(ops, Operation{
					Name:   name,
					Kind:   OpCall,
					Input:  current,
					Output: sig.Return,
					Cost:   CallCost,
				})
				break
			}
		}
	}

	return ops
}
