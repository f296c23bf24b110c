package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

func Context(t testing.TB) context.Context {
	ctx := context.Background()
	ctx, cf := context.WithCancel(ctx)
	t.Cleanup(cf)
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	ctx = logctx.NewContext(ctx, l)
	return ctx
}

var (
	Type = term.Sort{Level: 1}
	Nat  = term.Const{Name: "Nat"}
	Zero = term.Const{Name: "Nat.zero"}
	Succ = term.Const{Name: "Nat.succ"}
	List = term.Const{Name: "List"}
	Vec  = term.Const{Name: "Vec"}
)

// NewEnv returns an environment with Nat, List, and Vec
func NewEnv(t testing.TB) *inductive.Env {
	arrow := term.MkArrow
	pi := func(name term.Name, ty, body term.Term) term.Term {
		return term.Pi{Binder: term.Binder{Name: name, Type: ty}, Body: body}
	}
	env, err := inductive.NewEnv(
		inductive.Inductive{
			Name: "Nat",
			Type: Type,
			Constructors: []inductive.Constructor{
				{Name: "Nat.zero", Type: Nat},
				{Name: "Nat.succ", Type: arrow(Nat, Nat)},
			},
		},
		inductive.Inductive{
			Name:      "List",
			Type:      arrow(Type, Type),
			NumParams: 1,
			Constructors: []inductive.Constructor{
				{Name: "List.nil", Type: pi("A", Type, term.MkApp(List, term.BVar{Idx: 0}))},
				{Name: "List.cons", Type: pi("A", Type,
					pi("x", term.BVar{Idx: 0},
						pi("xs", term.MkApp(List, term.BVar{Idx: 1}),
							term.MkApp(List, term.BVar{Idx: 2}))))},
			},
		},
		inductive.Inductive{
			Name:       "Vec",
			Type:       arrow(Type, arrow(Nat, Type)),
			NumParams:  1,
			NumIndices: 1,
			Constructors: []inductive.Constructor{
				{Name: "Vec.nil", Type: pi("A", Type, term.MkApp(Vec, term.BVar{Idx: 0}, Zero))},
				{Name: "Vec.cons", Type: pi("A", Type,
					pi("n", Nat,
						pi("x", term.BVar{Idx: 1},
							pi("xs", term.MkApp(Vec, term.BVar{Idx: 2}, term.BVar{Idx: 1}),
								term.MkApp(Vec, term.BVar{Idx: 3}, term.MkApp(Succ, term.BVar{Idx: 2}))))))},
			},
		},
	)
	require.NoError(t, err)
	return env
}

// NewCtx returns a typing context with the environment from NewEnv, and a root scope
// which is released when the test finishes.
func NewCtx(t testing.TB) (*tyctx.Ctx, *tyctx.Scope) {
	tc := tyctx.New(Context(t), NewEnv(t))
	s := tc.Scope()
	t.Cleanup(s.Release)
	return tc, s
}
