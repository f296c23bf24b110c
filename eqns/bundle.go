package eqns

import (
	"go.brendoncarroll.net/exp/slices2"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

// Fn is one function defined by a bundle.
type Fn struct {
	// Fn is the placeholder local standing for the function inside its equations.
	Fn term.Local
	// Arity is the number of explicit arguments on the left hand side of the first equation.
	// For a function without equations, it is the number of arguments in its type.
	Arity int
	// Eqns are the equations of the function.  Each one is closed over its pattern
	// variables, but refers to the placeholders of the bundle.
	Eqns []term.Term
}

// Bundle is an unpacked equation bundle.
// Callers may edit Fns freely, then call Repack to produce a new bundle term.
type Bundle struct {
	tc     *tyctx.Ctx
	scope  *tyctx.Scope
	header Header

	Fns []Fn
}

// Unpack opens a child of parent, binds one placeholder per function, and groups
// the equations of t by the function they define.
// The placeholders stay live until Release is called.
func Unpack(parent *tyctx.Scope, t term.Term) (*Bundle, error) {
	const op = "unpack"
	m, ok := t.(term.Macro)
	if !ok {
		return nil, illFormed(op, "not an equations macro: %v", t)
	}
	def, ok := m.Def.(equationsDef)
	if !ok {
		return nil, illFormed(op, "not an equations macro: %v", t)
	}
	h := def.header.clone()
	n := h.NumFns()
	switch {
	case term.HasLooseBVars(t):
		return nil, illFormed(op, "bundle has loose bound variables")
	case n == 0:
		return nil, illFormed(op, "bundle defines no functions")
	case len(m.Args) == 0:
		return nil, illFormed(op, "bundle has no equations")
	case len(h.FnActualNames) != n:
		return nil, illFormed(op, "header has %d names, but %d actual names", n, len(h.FnActualNames))
	}

	scope := parent.Child()
	success := false
	defer func() {
		if !success {
			scope.Release()
		}
	}()

	// the function types are taken from the first equation, and must not depend on each other
	binders, _, err := fnBinders(m.Args[0], n)
	if err != nil {
		return nil, err
	}
	fns := make([]term.Local, n)
	for i, b := range binders {
		if term.HasLooseBVars(b.Type) {
			return nil, illFormed(op, "the type of %s refers to other functions in the bundle", b.Name)
		}
		fns[i] = scope.AcquireInfo(b.Name, b.Type, b.Info)
	}
	fnTerms := slices2.Map(fns, func(l term.Local) term.Term { return l })

	bodies := make([]term.Term, len(m.Args))
	for i, e := range m.Args {
		bs, body, err := fnBinders(e, n)
		if err != nil {
			return nil, err
		}
		for j := range bs {
			if !term.Equal(bs[j].Type, binders[j].Type) {
				return nil, illFormed(op, "equation %d disagrees on the type of %s", i, binders[j].Name)
			}
			if bs[j].Info != binders[j].Info {
				return nil, illFormed(op, "equation %d disagrees on the binder info of %s", i, binders[j].Name)
			}
		}
		bodies[i] = term.InstantiateRev(body, fnTerms)
	}

	out := make([]Fn, n)
	next := 0
	for fidx := range out {
		if next >= len(bodies) {
			return nil, illFormed(op, "no equations for %s", fns[fidx].Name)
		}
		if IsNoEquation(bodies[next]) {
			out[fidx] = Fn{Fn: fns[fidx], Arity: term.PiArity(binders[fidx].Type)}
			next++
			continue
		}
		fn := Fn{Fn: fns[fidx]}
		for ; next < len(bodies); next++ {
			body := bodies[next]
			if IsNoEquation(body) {
				break
			}
			lhs, err := equationLhs(body)
			if err != nil {
				return nil, err
			}
			if !isHead(lhs, fns[fidx]) {
				break
			}
			if len(fn.Eqns) == 0 {
				fn.Arity = term.AppNumArgs(lhs)
			}
			fn.Eqns = append(fn.Eqns, body)
		}
		if len(fn.Eqns) == 0 {
			return nil, illFormed(op, "equation %d does not define %s", next, fns[fidx].Name)
		}
		out[fidx] = fn
	}
	if next < len(bodies) {
		return nil, illFormed(op, "%d equations after the last function", len(bodies)-next)
	}

	success = true
	logctx.Debug(parent.Ctx().Context(), "unpacked equations",
		zap.Strings("fns", slices2.Map(h.FnNames, func(x term.Name) string { return string(x) })),
		zap.Int("eqns", len(bodies)),
	)
	return &Bundle{
		tc:     parent.Ctx(),
		scope:  scope,
		header: h,
		Fns:    out,
	}, nil
}

// Header returns the header of the bundle.
func (b *Bundle) Header() Header {
	return b.header.clone()
}

// Scope returns the scope holding the placeholders.
func (b *Bundle) Scope() *tyctx.Scope {
	return b.scope
}

// Placeholders returns the current placeholder of each function.
func (b *Bundle) Placeholders() []term.Local {
	return slices2.Map(b.Fns, func(fn Fn) term.Local { return fn.Fn })
}

// UpdateFnType binds a fresh placeholder with the same name as function fidx, but type ty,
// and makes it the placeholder for that function.
// The equations are not rewritten, they continue to refer to the old placeholder.
func (b *Bundle) UpdateFnType(fidx int, ty term.Term) term.Local {
	old := b.tc.MustLookup(b.Fns[fidx].Fn)
	l := b.scope.AcquireInfo(old.Local.Name, ty, old.Info)
	b.Fns[fidx].Fn = l
	return l
}

// Repack closes every equation over the current placeholders and produces a bundle term
// with the original header.
func (b *Bundle) Repack() term.Term {
	fns := b.Placeholders()
	var eqns []term.Term
	for _, fn := range b.Fns {
		if len(fn.Eqns) == 0 {
			eqns = append(eqns, b.tc.MkLambda(fns, MkNoEquation()))
			continue
		}
		for _, eqn := range fn.Eqns {
			eqns = append(eqns, b.tc.MkLambda(fns, eqn))
		}
	}
	return MkEquations(b.header, eqns)
}

// Release releases the placeholders.
func (b *Bundle) Release() {
	b.scope.Release()
}

// fnBinders strips n lambdas from e
func fnBinders(e term.Term, n int) ([]term.Binder, term.Term, error) {
	binders := make([]term.Binder, 0, n)
	for len(binders) < n {
		lam, ok := e.(term.Lam)
		if !ok {
			return nil, nil, illFormed("unpack", "expected %d function binders, found %d", n, len(binders))
		}
		binders = append(binders, lam.Binder)
		e = lam.Body
	}
	return binders, e, nil
}

// equationLhs checks that body has the shape of an equation and returns its left hand side.
// The left hand side may have loose bound variables, referring to the pattern variables.
func equationLhs(body term.Term) (term.Term, error) {
	for {
		lam, ok := body.(term.Lam)
		if !ok {
			break
		}
		body = lam.Body
	}
	if src, inner, ok := SplitRefined(body); ok {
		if _, err := equationLhs(src); err != nil {
			return nil, err
		}
		body = inner
	}
	lhs, _, _, ok := SplitEquation(body)
	if !ok {
		return nil, illFormed("unpack", "expected an equation, HAVE: %v", body)
	}
	return lhs, nil
}

func isHead(lhs term.Term, fn term.Local) bool {
	l, ok := term.GetAppFn(lhs).(term.Local)
	return ok && l.Same(fn)
}
