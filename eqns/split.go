package eqns

import (
	"cmp"
	"slices"

	"golang.org/x/exp/maps"

	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

// NatName is the inductive datatype of natural number literals.
const NatName term.Name = "Nat"

type PatternKind int

const (
	// PatInaccessible is any pattern which is not one of the others.
	// It is matched by definitional equality, not by splitting.
	PatInaccessible PatternKind = iota
	PatVar
	PatConstructor
	PatLit
)

func (k PatternKind) String() string {
	switch k {
	case PatVar:
		return "var"
	case PatConstructor:
		return "constructor"
	case PatLit:
		return "literal"
	default:
		return "inaccessible"
	}
}

// ClassifyPattern returns the kind of the pattern p, in an equation with pattern variables vars.
func ClassifyPattern(env inductive.Interface, vars []term.Local, p term.Term) PatternKind {
	switch p := p.(type) {
	case term.Local:
		if slices.ContainsFunc(vars, p.Same) {
			return PatVar
		}
	case term.Lit:
		return PatLit
	}
	if _, ok := env.IsConstructor(p); ok {
		return PatConstructor
	}
	return PatInaccessible
}

// Split is an argument position where some equation of a function matches on a constructor or literal.
type Split struct {
	Arg        int
	Inductive  term.Name
	NumParams  int
	NumIndices int
}

// SplitPositions decomposes every equation of fn in a child of parent and returns
// the argument positions the equations split on, in order.
// The inductive datatype at a position is decided by the first equation which splits there.
func SplitPositions(parent *tyctx.Scope, fn Fn) ([]Split, error) {
	env := parent.Ctx().Env()
	byArg := map[int]Split{}
	for _, eqn := range fn.Eqns {
		e, err := Decompose(parent, eqn)
		if err != nil {
			return nil, err
		}
		vars := e.Vars()
		_, args := term.GetAppArgs(e.Lhs())
		for i, a := range args {
			if _, exists := byArg[i]; exists {
				continue
			}
			var ind term.Name
			switch ClassifyPattern(env, vars, a) {
			case PatLit:
				ind = NatName
			case PatConstructor:
				ctor, _ := env.IsConstructor(a)
				ind = ctor.Prefix()
			default:
				continue
			}
			if !env.IsInductive(ind) {
				continue
			}
			byArg[i] = Split{
				Arg:        i,
				Inductive:  ind,
				NumParams:  env.NumParams(ind),
				NumIndices: env.NumIndices(ind),
			}
		}
		e.Release()
	}
	ret := maps.Values(byArg)
	slices.SortFunc(ret, func(a, b Split) int { return cmp.Compare(a.Arg, b.Arg) })
	return ret, nil
}
