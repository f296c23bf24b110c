package eqns

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"myceliumweb.org/eqnc/internal/testutil"
	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

var (
	nat  = testutil.Nat
	zero = testutil.Zero
	succ = testutil.Succ
)

type decl struct {
	name term.Name
	ty   term.Term
}

// mkEqn binds vars in a child of s, and closes the equation built by fn over them.
func mkEqn(s *tyctx.Scope, vars []decl, fn func(xs []term.Local) (lhs, rhs term.Term)) term.Term {
	child := s.Child()
	defer child.Release()
	var xs []term.Local
	for _, v := range vars {
		xs = append(xs, child.Acquire(v.name, v.ty))
	}
	lhs, rhs := fn(xs)
	return s.Ctx().MkLambda(xs, MkEquation(lhs, rhs, false))
}

// mkBundle builds an equation bundle for fns, with the bodies produced by build.
func mkBundle(s *tyctx.Scope, fns []decl, build func(s *tyctx.Scope, fs []term.Local) []term.Term) term.Term {
	child := s.Child()
	defer child.Release()
	var fs []term.Local
	var names []term.Name
	for _, f := range fns {
		fs = append(fs, child.Acquire(f.name, f.ty))
		names = append(names, f.name)
	}
	var eqns []term.Term
	for _, body := range build(child, fs) {
		eqns = append(eqns, s.Ctx().MkLambda(fs, body))
	}
	return MkEquations(NewHeader(names...), eqns)
}

var (
	nat2 = term.MkArrow(nat, term.MkArrow(nat, nat))
	nat1 = term.MkArrow(nat, nat)
)

// addBundle defines add by recursion on the second argument, and g without equations.
func addBundle(s *tyctx.Scope) term.Term {
	return mkBundle(s, []decl{{"add", nat2}, {"g", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
		add := fs[0]
		return []term.Term{
			mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(add, xs[0], zero), xs[0]
			}),
			mkEqn(s, []decl{{"n", nat}, {"m", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				n, m := xs[0], xs[1]
				return term.MkApp(add, n, term.MkApp(succ, m)), term.MkApp(succ, term.MkApp(add, n, m))
			}),
			MkNoEquation(),
		}
	})
}

func TestUnpackRepack(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	src := addBundle(s)
	require.Equal(t, 0, tc.NumLive())

	b, err := Unpack(s, src)
	require.NoError(t, err)
	require.Len(t, b.Fns, 2)
	require.Equal(t, term.Name("add"), b.Fns[0].Fn.Name)
	require.Equal(t, 2, b.Fns[0].Arity)
	require.Len(t, b.Fns[0].Eqns, 2)
	require.Equal(t, term.Name("g"), b.Fns[1].Fn.Name)
	require.Equal(t, 1, b.Fns[1].Arity)
	require.Empty(t, b.Fns[1].Eqns)
	require.Equal(t, 2, tc.NumLive())
	require.Equal(t, []term.Name{"add", "g"}, b.Header().FnNames)

	out := b.Repack()
	require.True(t, term.Equal(src, out), "HAVE: %v WANT: %v", out, src)
	require.Equal(t, term.Fingerprint(src), term.Fingerprint(out))

	b.Release()
	require.Equal(t, 0, tc.NumLive())
}

func TestUnpackArityFromFirstEquation(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	src := mkBundle(s, []decl{{"f", nat2}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
		f := fs[0]
		return []term.Term{
			mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(f, xs[0]), f
			}),
			mkEqn(s, []decl{{"x", nat}, {"y", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(f, xs[0], xs[1]), xs[1]
			}),
		}
	})
	b, err := Unpack(s, src)
	require.NoError(t, err)
	defer b.Release()
	require.Equal(t, 1, b.Fns[0].Arity)
	require.Len(t, b.Fns[0].Eqns, 2)
	require.Equal(t, 1, tc.NumLive())
}

func TestArityIsNotWritten(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	src := addBundle(s)
	b, err := Unpack(s, src)
	require.NoError(t, err)
	defer b.Release()
	want := b.Repack()
	require.True(t, term.Equal(src, want))

	for _, arity := range []int{0, 1, 3, 100, -1} {
		for i := range b.Fns {
			b.Fns[i].Arity = arity
		}
		require.True(t, term.Equal(want, b.Repack()), "arity %d", arity)
	}
}

func TestUnpackKeepsBinderInfo(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	eqn := term.Lam{
		Binder: term.Binder{Name: "f", Type: nat1, Info: term.Implicit},
		Body: term.Lam{
			Binder: term.Binder{Name: "x", Type: nat},
			Body:   MkEquation(term.MkApp(term.BVar{Idx: 1}, term.BVar{Idx: 0}), term.BVar{Idx: 0}, false),
		},
	}
	src := MkEquations(NewHeader("f"), []term.Term{eqn, eqn})
	b, err := Unpack(s, src)
	require.NoError(t, err)
	decl, ok := tc.Lookup(b.Fns[0].Fn)
	require.True(t, ok)
	require.Equal(t, term.Implicit, decl.Info)
	require.True(t, term.Equal(src, b.Repack()))

	// a new placeholder keeps the binder info
	l := b.UpdateFnType(0, nat1)
	decl, ok = tc.Lookup(l)
	require.True(t, ok)
	require.Equal(t, term.Implicit, decl.Info)
	b.Release()

	// the equations must agree on the binder info
	other := eqn
	other.Binder.Info = term.Default
	_, err = Unpack(s, MkEquations(NewHeader("f"), []term.Term{eqn, other}))
	require.True(t, IsIllFormed(err))
	require.Equal(t, 0, tc.NumLive())
}

func TestUpdateFnType(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	defer b.Release()

	old := b.Fns[1].Fn
	newTy := term.MkArrow(nat, nat2)
	l := b.UpdateFnType(1, newTy)
	require.False(t, l.Same(old))
	require.Equal(t, old.Name, l.Name)
	require.Equal(t, l, b.Fns[1].Fn)
	require.Equal(t, newTy, s.Ctx().TypeOf(l))
	// arity and equations are left alone
	require.Equal(t, 1, b.Fns[1].Arity)

	out := b.Repack()
	m := out.(term.Macro)
	require.Len(t, m.Args, 3)
	lam := m.Args[0].(term.Lam).Body.(term.Lam)
	require.Equal(t, newTy, lam.Binder.Type)
}

func TestUpdateFnTypeKeepsOldReferences(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	defer b.Release()

	old := b.Fns[0].Fn
	b.UpdateFnType(0, nat2)
	out := b.Repack()
	// the equations still mention the old placeholder, which is now free
	require.True(t, term.HasLocal(out, old.Same))
	require.True(t, IsRecursive(b))
}

func TestDecomposeRepackIdentity(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	defer b.Release()

	for _, src := range b.Fns[0].Eqns {
		e, err := Decompose(s, src)
		require.NoError(t, err)
		require.Equal(t, src, e.Repack())
		// replacing a side with an equal term is still the identity
		require.Equal(t, src, e.WithRhs(e.Rhs()).Repack())
		e.Release()
	}
	require.Equal(t, 2, tc.NumLive())
}

func TestDecompose(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	defer b.Release()
	add := b.Fns[0].Fn

	e, err := Decompose(s, b.Fns[0].Eqns[1])
	require.NoError(t, err)
	defer e.Release()
	vars := e.Vars()
	require.Len(t, vars, 2)
	n, m := vars[0], vars[1]
	require.Equal(t, term.Name("n"), n.Name)
	require.Equal(t, term.Name("m"), m.Name)
	require.Equal(t, nat, tc.TypeOf(m))
	require.True(t, term.Equal(term.MkApp(add, n, term.MkApp(succ, m)), e.Lhs()))
	require.True(t, term.Equal(term.MkApp(succ, term.MkApp(add, n, m)), e.Rhs()))
	require.Nil(t, e.NestedSrc())
	require.False(t, e.IgnoreIfUnused())
}

func TestWithAddedVar(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	defer b.Release()
	add := b.Fns[0].Fn

	e, err := Decompose(s, b.Fns[0].Eqns[0])
	require.NoError(t, err)
	defer e.Release()
	e2, k := e.WithAddedVar("k", nat)
	require.Len(t, e.Vars(), 1)
	require.Len(t, e2.Vars(), 2)
	require.Equal(t, k, e2.Vars()[1])

	// the variable is kept even if unused
	out := e2.Repack()
	require.Equal(t, 2, countLams(out))
	require.Equal(t, 1, countLams(e.Repack()))

	// variables are appended in the order they are added
	ex, a := e2.WithAddedVar("a", nat)
	ex, c := ex.WithAddedVar("c", term.MkApp(testutil.Vec, nat, a))
	require.Equal(t, []term.Local{e.Vars()[0], k, a, c}, ex.Vars())
	require.Len(t, e2.Vars(), 2)
	require.Equal(t, 4, countLams(ex.Repack()))
	ey, err := Decompose(s, ex.Repack())
	require.NoError(t, err)
	defer ey.Release()
	names := []term.Name{}
	for _, v := range ey.Vars() {
		names = append(names, v.Name)
	}
	require.Equal(t, []term.Name{"n", "k", "a", "c"}, names)
	// the type of c still refers to a
	require.True(t, term.Equal(term.MkApp(testutil.Vec, nat, ey.Vars()[2]), s.Ctx().TypeOf(ey.Vars()[3])))

	e3 := e2.WithLhs(term.MkApp(add, e2.Vars()[0], k)).WithRhs(k)
	out = e3.Repack()
	e4, err := Decompose(s, out)
	require.NoError(t, err)
	defer e4.Release()
	require.True(t, term.Equal(e4.Rhs(), e4.Vars()[1]))
	require.True(t, term.Equal(term.MkApp(add, e4.Vars()[0], e4.Vars()[1]), e4.Lhs()))
}

func TestWithRefinedVar(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	defer b.Release()
	add := b.Fns[0].Fn

	// add n (succ m) = succ (add n m), split n into zero
	e, err := Decompose(s, b.Fns[0].Eqns[1])
	require.NoError(t, err)
	defer e.Release()
	n := e.Vars()[0]
	e2, err := e.WithRefinedVar(n, zero)
	require.NoError(t, err)
	require.Len(t, e2.Vars(), 1)
	m := e2.Vars()[0]
	require.True(t, term.Equal(term.MkApp(add, zero, term.MkApp(succ, m)), e2.Lhs()))
	require.True(t, term.Equal(term.MkApp(succ, term.MkApp(add, zero, m)), e2.Rhs()))
	require.Len(t, e.Vars(), 2)

	refined := MkRefined(e.Repack(), MkEquation(e2.Lhs(), e2.Rhs(), true))
	out := s.Ctx().MkLambda(e2.Vars(), refined)
	e3, err := Decompose(s, out)
	require.NoError(t, err)
	defer e3.Release()
	require.Equal(t, e.Repack(), e3.NestedSrc())
	require.True(t, e3.IgnoreIfUnused())
	require.True(t, term.Equal(out, e3.WithRhs(zero).WithRhs(e3.Rhs()).Repack()))

	_, err = e.WithRefinedVar(add, zero)
	require.True(t, IsIllFormed(err))
}

func TestRefinedVarDependentType(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	src := mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
		return term.MkApp(term.Const{Name: "len"}, xs[0]), xs[0]
	})
	e, err := Decompose(s, src)
	require.NoError(t, err)
	defer e.Release()
	e2, v := e.WithAddedVar("v", term.MkApp(testutil.Vec, nat, e.Vars()[0]))
	_, err = e2.WithRefinedVar(e.Vars()[0], zero)
	require.True(t, IsIllFormed(err))
	_, err = e2.WithRefinedVar(v, zero)
	require.NoError(t, err)
}

func TestRefinedVarInNestedSrc(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	h := term.Const{Name: "h"}
	child := s.Child()
	x := child.Acquire("x", nat)
	eqn := MkEquation(term.MkApp(h, x), x, false)
	src := tc.MkLambda([]term.Local{x}, MkRefined(eqn, eqn))
	child.Release()

	e, err := Decompose(s, src)
	require.NoError(t, err)
	e2, err := e.WithRefinedVar(e.Vars()[0], zero)
	require.NoError(t, err)
	out := e2.Repack()
	e.Release()

	_, hasLocal := term.Find(out, func(x term.Term, _ uint32) bool {
		_, ok := x.(term.Local)
		return ok
	})
	require.False(t, hasLocal, "%v", out)
	want := MkEquation(term.MkApp(h, zero), zero, false)
	require.True(t, term.Equal(MkRefined(want, want), out), "%v", out)
	require.Equal(t, 0, tc.NumLive())
}

func TestNestedSrcRoundTrip(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	inner := mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
		return term.MkApp(term.Const{Name: "h"}, xs[0]), xs[0]
	})
	child := s.Child()
	x := child.Acquire("x", nat)
	src := s.Ctx().MkLambda([]term.Local{x}, MkRefined(inner, MkEquation(term.MkApp(term.Const{Name: "h"}, x), zero, false)))
	child.Release()

	e, err := Decompose(s, src)
	require.NoError(t, err)
	defer e.Release()
	require.Equal(t, inner, e.NestedSrc())
	e2, _ := e.WithAddedVar("y", nat)
	e3, err := Decompose(s, e2.Repack())
	require.NoError(t, err)
	defer e3.Release()
	require.Equal(t, inner, e3.NestedSrc())
	require.Len(t, e3.Vars(), 2)
}

func TestIsRecursive(t *testing.T) {
	t.Parallel()
	constFn := func(s *tyctx.Scope) term.Term {
		return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
			return []term.Term{
				mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
					return term.MkApp(fs[0], xs[0]), zero
				}),
			}
		})
	}
	evenOdd := func(s *tyctx.Scope) term.Term {
		boolT := term.Const{Name: "Bool"}
		ty := term.MkArrow(nat, boolT)
		return mkBundle(s, []decl{{"even", ty}, {"odd", ty}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
			even, odd := fs[0], fs[1]
			return []term.Term{
				mkEqn(s, nil, func(xs []term.Local) (term.Term, term.Term) {
					return term.MkApp(even, zero), term.Const{Name: "Bool.true"}
				}),
				mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
					return term.MkApp(even, term.MkApp(succ, xs[0])), term.MkApp(odd, xs[0])
				}),
				mkEqn(s, nil, func(xs []term.Local) (term.Term, term.Term) {
					return term.MkApp(odd, zero), term.Const{Name: "Bool.false"}
				}),
				mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
					return term.MkApp(odd, term.MkApp(succ, xs[0])), term.MkApp(even, xs[0])
				}),
			}
		})
	}
	// the right hand side binds its own f, which is not a reference to the function
	shadowed := func(s *tyctx.Scope) term.Term {
		return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
			return []term.Term{
				mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
					rhs := term.Lam{Binder: term.Binder{Name: "f", Type: nat1}, Body: term.MkApp(term.BVar{Idx: 0}, xs[0])}
					return term.MkApp(fs[0], xs[0]), rhs
				}),
			}
		})
	}
	// the function is passed as an argument without being applied
	unapplied := func(s *tyctx.Scope) term.Term {
		return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
			return []term.Term{
				mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
					return term.MkApp(fs[0], xs[0]), term.MkApp(term.Const{Name: "id"}, fs[0])
				}),
			}
		})
	}
	// only the nested source refers to the function
	nested := func(s *tyctx.Scope) term.Term {
		return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
			f := fs[0]
			src := mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(f, xs[0]), term.MkApp(f, xs[0])
			})
			return []term.Term{MkRefined(src, MkEquation(term.MkApp(f, zero), zero, false))}
		})
	}

	tcs := []struct {
		Build func(*tyctx.Scope) term.Term
		Out   bool
	}{
		{Build: constFn, Out: false},
		{Build: addBundle, Out: true},
		{Build: evenOdd, Out: true},
		{Build: shadowed, Out: false},
		{Build: nested, Out: true},
		{Build: unapplied, Out: true},
	}
	for i, tc := range tcs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			ctx, s := testutil.NewCtx(t)
			src := tc.Build(s)
			b, err := Unpack(s, src)
			require.NoError(t, err)
			require.Equal(t, tc.Out, IsRecursive(b))
			b.Release()

			yes, err := IsRecursiveTerm(s, src)
			require.NoError(t, err)
			require.Equal(t, tc.Out, yes)
			require.Equal(t, 0, ctx.NumLive())
		})
	}
}

func TestIsRecursiveThroughLet(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	src := mkBundle(s, []decl{{"f", nat1}, {"g", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
		return []term.Term{
			mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(fs[0], xs[0]), xs[0]
			}),
			mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(fs[1], xs[0]), zero
			}),
		}
	})
	b, err := Unpack(s, src)
	require.NoError(t, err)
	defer b.Release()
	require.False(t, IsRecursive(b))

	// h := f, and g x = h x
	ls := b.Scope().Child()
	defer ls.Release()
	h := ls.AcquireLet("h", nat1, b.Fns[0].Fn)
	e, err := Decompose(s, b.Fns[1].Eqns[0])
	require.NoError(t, err)
	b.Fns[1].Eqns[0] = e.WithRhs(term.MkApp(h, e.Vars()[0])).Repack()
	e.Release()
	require.True(t, IsRecursive(b))
}

func TestUnpackIllFormed(t *testing.T) {
	t.Parallel()
	type builder = func(s *tyctx.Scope) term.Term
	fEqn := func(s *tyctx.Scope, f term.Local) term.Term {
		return mkEqn(s, []decl{{"x", nat}}, func(xs []term.Local) (term.Term, term.Term) {
			return term.MkApp(f, xs[0]), xs[0]
		})
	}
	tcs := []builder{
		// not a macro
		func(s *tyctx.Scope) term.Term { return zero },
		// a different macro
		func(s *tyctx.Scope) term.Term { return MkNoEquation() },
		// no functions
		func(s *tyctx.Scope) term.Term { return MkEquations(Header{}, []term.Term{MkNoEquation()}) },
		// no equations
		func(s *tyctx.Scope) term.Term { return MkEquations(NewHeader("f"), nil) },
		// too few function binders
		func(s *tyctx.Scope) term.Term {
			return MkEquations(NewHeader("f", "g"), []term.Term{
				term.Lam{Binder: term.Binder{Name: "f", Type: nat1}, Body: MkNoEquation()},
			})
		},
		// body is not an equation
		func(s *tyctx.Scope) term.Term {
			return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
				return []term.Term{term.Lam{Binder: term.Binder{Name: "x", Type: nat}, Body: zero}}
			})
		},
		// refined source is not an equation
		func(s *tyctx.Scope) term.Term {
			return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
				return []term.Term{MkRefined(zero, MkEquation(term.MkApp(fs[0], zero), zero, false))}
			})
		},
		// equations for g come before f
		func(s *tyctx.Scope) term.Term {
			return mkBundle(s, []decl{{"f", nat1}, {"g", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
				return []term.Term{fEqn(s, fs[1]), fEqn(s, fs[0])}
			})
		},
		// f, g, f
		func(s *tyctx.Scope) term.Term {
			return mkBundle(s, []decl{{"f", nat1}, {"g", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
				return []term.Term{fEqn(s, fs[0]), fEqn(s, fs[1]), fEqn(s, fs[0])}
			})
		},
		// a function is missing
		func(s *tyctx.Scope) term.Term {
			return mkBundle(s, []decl{{"f", nat1}, {"g", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
				return []term.Term{fEqn(s, fs[0])}
			})
		},
		// extra no-equation marker
		func(s *tyctx.Scope) term.Term {
			return mkBundle(s, []decl{{"f", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
				return []term.Term{MkNoEquation(), MkNoEquation()}
			})
		},
		// the type of g refers to f
		func(s *tyctx.Scope) term.Term {
			return MkEquations(NewHeader("f", "g"), []term.Term{
				term.Lam{
					Binder: term.Binder{Name: "f", Type: nat},
					Body: term.Lam{
						Binder: term.Binder{Name: "g", Type: term.MkApp(testutil.Vec, nat, term.BVar{Idx: 0})},
						Body:   MkNoEquation(),
					},
				},
				term.Lam{
					Binder: term.Binder{Name: "f", Type: nat},
					Body: term.Lam{
						Binder: term.Binder{Name: "g", Type: term.MkApp(testutil.Vec, nat, term.BVar{Idx: 0})},
						Body:   MkNoEquation(),
					},
				},
			})
		},
		// a loose bound variable outside the function binders
		func(s *tyctx.Scope) term.Term {
			return MkEquations(NewHeader("f"), []term.Term{
				term.Lam{Binder: term.Binder{Name: "f", Type: nat1}, Body: MkEquation(term.MkApp(term.BVar{Idx: 0}, zero), term.BVar{Idx: 7}, false)},
			})
		},
		// equations disagree on the type of f
		func(s *tyctx.Scope) term.Term {
			return MkEquations(NewHeader("f"), []term.Term{
				term.Lam{Binder: term.Binder{Name: "f", Type: nat1}, Body: MkEquation(term.MkApp(term.BVar{Idx: 0}, zero), zero, false)},
				term.Lam{Binder: term.Binder{Name: "f", Type: nat2}, Body: MkEquation(term.MkApp(term.BVar{Idx: 0}, zero), zero, false)},
			})
		},
	}
	for i, build := range tcs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			tc, s := testutil.NewCtx(t)
			_, err := Unpack(s, build(s))
			require.Error(t, err)
			require.True(t, IsIllFormed(err), "%v", err)
			require.Equal(t, 0, tc.NumLive())
		})
	}
}

func TestDecomposeIllFormed(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	for _, x := range []term.Term{
		zero,
		term.Lam{Binder: term.Binder{Name: "x", Type: nat}, Body: term.BVar{Idx: 0}},
		MkNoEquation(),
		MkEquation(zero, term.BVar{Idx: 3}, false),
	} {
		_, err := Decompose(s, x)
		require.True(t, IsIllFormed(err))
	}
	require.Equal(t, 0, tc.NumLive())
}

func TestReleasedScope(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	b, err := Unpack(s, addBundle(s))
	require.NoError(t, err)
	e, err := Decompose(s, b.Fns[0].Eqns[1])
	require.NoError(t, err)

	// the equation scope is a sibling of the bundle scope, so either may be released first
	b.Release()
	require.Panics(t, func() { b.Repack() })
	require.Panics(t, func() { b.UpdateFnType(0, nat2) })
	e2 := e.WithRhs(zero)
	e.Release()
	require.Panics(t, func() { e2.WithAddedVar("y", nat) })
	require.Equal(t, 0, tc.NumLive())

	// a parent with live children cannot be released
	child := s.Child()
	b2, err := Unpack(child, addBundle(s))
	require.NoError(t, err)
	require.Panics(t, child.Release)
	b2.Release()
	child.Release()
}

func TestClassifyPattern(t *testing.T) {
	t.Parallel()
	_, s := testutil.NewCtx(t)
	env := s.Ctx().Env()
	x := s.Acquire("x", nat)
	y := s.Acquire("y", nat)
	vars := []term.Local{x}
	tcs := []struct {
		In  term.Term
		Out PatternKind
	}{
		{In: x, Out: PatVar},
		{In: y, Out: PatInaccessible},
		{In: term.Nat(3), Out: PatLit},
		{In: zero, Out: PatConstructor},
		{In: term.MkApp(succ, x), Out: PatConstructor},
		{In: term.MkApp(term.Const{Name: "double"}, x), Out: PatInaccessible},
		{In: nat, Out: PatInaccessible},
	}
	for i, tc := range tcs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			require.Equal(t, tc.Out, ClassifyPattern(env, vars, tc.In), "%v", tc.In)
		})
	}
}

func TestSplitPositions(t *testing.T) {
	t.Parallel()
	tc, s := testutil.NewCtx(t)
	vecN := func(n term.Term) term.Term { return term.MkApp(testutil.Vec, nat, n) }
	headTy := term.Pi{
		Binder: term.Binder{Name: "n", Type: nat},
		Body:   term.MkArrow(vecN(term.BVar{Idx: 0}), nat),
	}
	src := mkBundle(s, []decl{{"add", nat2}, {"head", headTy}, {"isZero", nat1}}, func(s *tyctx.Scope, fs []term.Local) []term.Term {
		add, head, isZero := fs[0], fs[1], fs[2]
		return []term.Term{
			mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(add, xs[0], zero), xs[0]
			}),
			mkEqn(s, []decl{{"n", nat}, {"m", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				n, m := xs[0], xs[1]
				return term.MkApp(add, n, term.MkApp(succ, m)), term.MkApp(succ, term.MkApp(add, n, m))
			}),
			mkEqn(s, []decl{{"n", nat}, {"x", nat}, {"xs", vecN(zero)}}, func(xs []term.Local) (term.Term, term.Term) {
				cons := term.MkApp(term.Const{Name: "Vec.cons"}, nat, xs[0], xs[1], xs[2])
				return term.MkApp(head, term.MkApp(succ, xs[0]), cons), xs[1]
			}),
			mkEqn(s, nil, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(isZero, term.Nat(0)), term.Nat(1)
			}),
			mkEqn(s, []decl{{"n", nat}}, func(xs []term.Local) (term.Term, term.Term) {
				return term.MkApp(isZero, xs[0]), term.Nat(0)
			}),
		}
	})
	b, err := Unpack(s, src)
	require.NoError(t, err)
	defer b.Release()

	splits, err := SplitPositions(s, b.Fns[0])
	require.NoError(t, err)
	require.Equal(t, []Split{{Arg: 1, Inductive: "Nat"}}, splits)

	splits, err = SplitPositions(s, b.Fns[1])
	require.NoError(t, err)
	require.Equal(t, []Split{
		{Arg: 0, Inductive: "Nat"},
		{Arg: 1, Inductive: "Vec", NumParams: 1, NumIndices: 1},
	}, splits)

	splits, err = SplitPositions(s, b.Fns[2])
	require.NoError(t, err)
	require.Equal(t, []Split{{Arg: 0, Inductive: "Nat"}}, splits)
	require.Equal(t, 3, tc.NumLive())
}

func countLams(t term.Term) (n int) {
	for {
		lam, ok := t.(term.Lam)
		if !ok {
			return n
		}
		n++
		t = lam.Body
	}
}
