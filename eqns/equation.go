package eqns

import (
	"slices"

	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

// Equation is a single equation with its pattern variables bound as locals.
//
// Equation is a value.  The With methods return a modified copy and leave the receiver unchanged,
// but all copies share the scope returned by Decompose, and are invalid once it is released.
type Equation struct {
	tc    *tyctx.Ctx
	scope *tyctx.Scope
	src   term.Term

	vars         []term.Local
	modifiedVars bool
	nestedSrc    term.Term
	lhs, rhs     term.Term
	ignoreUnused bool

	origLhs, origRhs term.Term
}

// Decompose opens a child of parent, binds the pattern variables of eqn, and returns
// the left and right hand sides with those variables instantiated.
func Decompose(parent *tyctx.Scope, eqn term.Term) (Equation, error) {
	if term.HasLooseBVars(eqn) {
		return Equation{}, illFormed("decompose", "equation has loose bound variables: %v", eqn)
	}
	scope := parent.Child()
	var vars []term.Local
	var varTerms []term.Term
	it := eqn
	for {
		lam, ok := it.(term.Lam)
		if !ok {
			break
		}
		ty := term.InstantiateRev(lam.Binder.Type, varTerms)
		l := scope.AcquireInfo(lam.Binder.Name, ty, lam.Binder.Info)
		vars = append(vars, l)
		varTerms = append(varTerms, l)
		it = lam.Body
	}
	it = term.InstantiateRev(it, varTerms)

	var nested term.Term
	if src, body, ok := SplitRefined(it); ok {
		nested, it = src, body
	}
	lhs, rhs, ignore, ok := SplitEquation(it)
	if !ok {
		scope.Release()
		return Equation{}, illFormed("decompose", "expected an equation, HAVE: %v", it)
	}
	return Equation{
		tc:    parent.Ctx(),
		scope: scope,
		src:   eqn,

		vars:         vars,
		nestedSrc:    nested,
		lhs:          lhs,
		rhs:          rhs,
		ignoreUnused: ignore,

		origLhs: lhs,
		origRhs: rhs,
	}, nil
}

// Vars returns the pattern variables, in binding order.
func (e Equation) Vars() []term.Local {
	return slices.Clone(e.vars)
}

func (e Equation) Lhs() term.Term {
	return e.lhs
}

func (e Equation) Rhs() term.Term {
	return e.rhs
}

// NestedSrc returns the equation this one was refined from, or nil.
func (e Equation) NestedSrc() term.Term {
	return e.nestedSrc
}

// IgnoreIfUnused returns true if the equation is not reported when it is redundant.
func (e Equation) IgnoreIfUnused() bool {
	return e.ignoreUnused
}

// Scope returns the scope holding the pattern variables.
func (e Equation) Scope() *tyctx.Scope {
	return e.scope
}

func (e Equation) WithLhs(lhs term.Term) Equation {
	e.lhs = lhs
	return e
}

func (e Equation) WithRhs(rhs term.Term) Equation {
	e.rhs = rhs
	return e
}

// WithAddedVar binds a fresh pattern variable and appends it to the variables of the equation.
func (e Equation) WithAddedVar(name term.Name, ty term.Term) (Equation, term.Local) {
	l := e.scope.Acquire(name, ty)
	e.vars = append(slices.Clip(e.vars), l)
	e.modifiedVars = true
	return e, l
}

// WithRefinedVar replaces the pattern variable x with the pattern p in both sides of the equation
// and in the nested source, and removes x from the variables.
// It is an error if the type of another variable depends on x.
func (e Equation) WithRefinedVar(x term.Local, p term.Term) (Equation, error) {
	i := slices.IndexFunc(e.vars, x.Same)
	if i < 0 {
		return e, illFormed("refine", "%v is not a pattern variable of the equation", x)
	}
	isX := func(l term.Local) bool { return l.Same(x) }
	for _, v := range e.vars {
		if term.HasLocal(e.tc.TypeOf(v), isX) {
			return e, illFormed("refine", "the type of %v depends on %v", v, x)
		}
	}
	subst := func(t term.Term) term.Term {
		return term.Replace(t, func(y term.Term, _ uint32) (term.Term, bool) {
			if l, ok := y.(term.Local); ok && l.Same(x) {
				return p, true
			}
			return nil, false
		})
	}
	e.vars = slices.Delete(slices.Clone(e.vars), i, i+1)
	e.modifiedVars = true
	e.lhs = subst(e.lhs)
	e.rhs = subst(e.rhs)
	if e.nestedSrc != nil {
		e.nestedSrc = subst(e.nestedSrc)
	}
	return e, nil
}

// Repack closes the equation over its variables.
// If nothing was changed since Decompose, the source term is returned as is.
func (e Equation) Repack() term.Term {
	if !e.modifiedVars && term.Equal(e.lhs, e.origLhs) && term.Equal(e.rhs, e.origRhs) {
		return e.src
	}
	body := MkEquation(e.lhs, e.rhs, e.ignoreUnused)
	if e.nestedSrc != nil {
		body = MkRefined(e.nestedSrc, body)
	}
	return e.tc.MkLambda(e.vars, body)
}

// Release releases the pattern variables.
func (e Equation) Release() {
	e.scope.Release()
}
