package tyctx

import (
	"myceliumweb.org/eqnc/term"
)

// Whnf reduces t to weak head normal form using beta, zeta, and the values of let-bound locals.
// t must not have loose bound variables.
func (c *Ctx) Whnf(t term.Term) term.Term {
	for {
		switch x := t.(type) {
		case term.Let:
			t = term.Instantiate(x.Body, x.Value)
		case term.Local:
			v, ok := c.ValueOf(x)
			if !ok {
				return t
			}
			t = v
		case term.App:
			fn, args := term.GetAppArgs(x)
			fn2 := c.Whnf(fn)
			lam, ok := fn2.(term.Lam)
			if !ok {
				if term.Equal(fn, fn2) {
					return t
				}
				return term.MkApp(fn2, args...)
			}
			t = term.MkApp(term.Instantiate(lam.Body, args[0]), args[1:]...)
		default:
			return t
		}
	}
}

// IsDefEq returns true if a and b are equal up to alpha, beta, zeta, and let-bound local unfolding.
// a and b must not have loose bound variables.
func (c *Ctx) IsDefEq(a, b term.Term) bool {
	if term.Equal(a, b) {
		return true
	}
	a, b = c.Whnf(a), c.Whnf(b)
	switch x := a.(type) {
	case term.App:
		if _, ok := b.(term.App); !ok {
			return false
		}
		fa, argsA := term.GetAppArgs(x)
		fb, argsB := term.GetAppArgs(b)
		if len(argsA) != len(argsB) || !c.IsDefEq(fa, fb) {
			return false
		}
		for i := range argsA {
			if !c.IsDefEq(argsA[i], argsB[i]) {
				return false
			}
		}
		return true
	case term.Lam:
		y, ok := b.(term.Lam)
		return ok && c.isDefEqBinding(x.Binder, x.Body, y.Binder, y.Body)
	case term.Pi:
		y, ok := b.(term.Pi)
		return ok && c.isDefEqBinding(x.Binder, x.Body, y.Binder, y.Body)
	case term.Macro:
		y, ok := b.(term.Macro)
		if !ok || !x.Def.EqualDef(y.Def) || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !c.IsDefEq(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return term.Equal(a, b)
	}
}

func (c *Ctx) isDefEqBinding(ba term.Binder, bodyA term.Term, bb term.Binder, bodyB term.Term) bool {
	if ba.Info != bb.Info || !c.IsDefEq(ba.Type, bb.Type) {
		return false
	}
	s := c.Scope()
	defer s.Release()
	l := s.Acquire(ba.Name, ba.Type)
	return c.IsDefEq(term.Instantiate(bodyA, l), term.Instantiate(bodyB, l))
}
