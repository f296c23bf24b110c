// package eqnc checks equation bundles written in the surface syntax.
//
// Checking a bundle unpacks it, takes every equation apart and puts it back together,
// and reports what the compiler learned about each function along the way.
package eqnc

import (
	"context"
	"fmt"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"myceliumweb.org/eqnc/eqns"
	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/surface"
	"myceliumweb.org/eqnc/surface/lexer"
	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

type (
	// ID is the alpha-invariant fingerprint of a bundle
	ID = term.ID
)

// Report describes one bundle
type Report struct {
	Filename string
	Loc      lexer.Loc
	ID       ID
	Header   eqns.Header
	// Recursive is true if some right hand side refers to a function in the bundle.
	Recursive bool
	Fns       []FnReport
}

type FnReport struct {
	Name    term.Name
	Type    term.Term
	Arity   int
	NumEqns int
	Splits  []eqns.Split
}

// CheckSource checks every bundle in src.
// Inductive declarations in src are added to env for the bundles in the same file.
func CheckSource(ctx context.Context, env inductive.Interface, filename, src string) ([]Report, error) {
	f, err := surface.ParseFile(filename, src)
	if err != nil {
		return nil, err
	}
	if len(f.Inductives) > 0 {
		for _, ind := range f.Inductives {
			if env.IsInductive(ind.Name) {
				return nil, fmt.Errorf("%s: %s is already declared", filename, ind.Name)
			}
		}
		local, err := inductive.NewEnv(f.Inductives...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		env = inductive.Stack{local, env}
	}
	tc := tyctx.New(ctx, env)
	root := tc.Scope()
	defer root.Release()

	var reports []Report
	for _, b := range f.Bundles {
		r, err := checkBundle(root, b.Term)
		if err != nil {
			return nil, fmt.Errorf("%s:%v: %w", filename, b.Loc, err)
		}
		r.Filename = filename
		r.Loc = b.Loc
		reports = append(reports, *r)
		logctx.Debug(ctx, "checked bundle",
			zap.String("file", filename),
			zap.Stringer("loc", b.Loc),
			zap.Bool("recursive", r.Recursive),
		)
	}
	return reports, nil
}

// CheckTerm checks a single bundle.
func CheckTerm(ctx context.Context, env inductive.Interface, t term.Term) (*Report, error) {
	tc := tyctx.New(ctx, env)
	root := tc.Scope()
	defer root.Release()
	return checkBundle(root, t)
}

func checkBundle(parent *tyctx.Scope, t term.Term) (*Report, error) {
	b, err := eqns.Unpack(parent, t)
	if err != nil {
		return nil, err
	}
	defer b.Release()
	tc := parent.Ctx()

	r := Report{
		ID:        term.Fingerprint(t),
		Header:    b.Header(),
		Recursive: eqns.IsRecursive(b),
	}
	for i, fn := range b.Fns {
		for j, eqn := range fn.Eqns {
			if err := checkEquation(b.Scope(), eqn); err != nil {
				return nil, fmt.Errorf("%s: equation %d: %w", b.Header().FnNames[i], j, err)
			}
		}
		splits, err := eqns.SplitPositions(b.Scope(), fn)
		if err != nil {
			return nil, err
		}
		r.Fns = append(r.Fns, FnReport{
			Name:    b.Header().FnNames[i],
			Type:    tc.TypeOf(fn.Fn),
			Arity:   fn.Arity,
			NumEqns: len(fn.Eqns),
			Splits:  splits,
		})
	}
	if out := b.Repack(); !term.Equal(t, out) {
		return nil, fmt.Errorf("repacked bundle differs from its input: %v", out)
	}
	return &r, nil
}

// checkEquation takes eqn apart and checks that both ways of putting it back together agree with it.
func checkEquation(parent *tyctx.Scope, eqn term.Term) error {
	e, err := eqns.Decompose(parent, eqn)
	if err != nil {
		return err
	}
	defer e.Release()
	if out := e.Repack(); !term.Equal(eqn, out) {
		return fmt.Errorf("repacked equation differs from its input: %v", out)
	}
	body := eqns.MkEquation(e.Lhs(), e.Rhs(), e.IgnoreIfUnused())
	if src := e.NestedSrc(); src != nil {
		body = eqns.MkRefined(src, body)
	}
	if out := parent.Ctx().MkLambda(e.Vars(), body); !term.Equal(eqn, out) {
		return fmt.Errorf("rebuilt equation differs from its input: %v", out)
	}
	if src := e.NestedSrc(); src != nil {
		if err := checkEquation(e.Scope(), src); err != nil {
			return fmt.Errorf("nested source: %w", err)
		}
	}
	return nil
}
