package eqns

import (
	"slices"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"myceliumweb.org/eqnc/term"
	"myceliumweb.org/eqnc/tyctx"
)

// IsRecursive returns true if the right hand side of any equation in b refers to
// one of the functions defined by b.
//
// A reference is an occurrence of a placeholder local, including placeholders replaced by UpdateFnType,
// or of a let-bound local whose value refers to one.
// Nested source equations are searched as well.
func IsRecursive(b *Bundle) bool {
	fns := b.scope.Locals()
	r := recScanner{
		tc:      b.tc,
		isFn:    func(l term.Local) bool { return slices.ContainsFunc(fns, l.Same) },
		visited: make(map[[2]uint32]bool),
	}
	for _, fn := range b.Fns {
		for i, eqn := range fn.Eqns {
			if r.scanEquation(eqn) {
				logctx.Debug(b.tc.Context(), "recursive equation", zap.String("fn", string(fn.Fn.Name)), zap.Int("eqn", i))
				return true
			}
		}
	}
	return false
}

// IsRecursiveTerm unpacks t in a child of parent and calls IsRecursive.
func IsRecursiveTerm(parent *tyctx.Scope, t term.Term) (bool, error) {
	b, err := Unpack(parent, t)
	if err != nil {
		return false, err
	}
	defer b.Release()
	return IsRecursive(b), nil
}

type recScanner struct {
	tc      *tyctx.Ctx
	isFn    func(term.Local) bool
	visited map[[2]uint32]bool
}

func (r *recScanner) scanEquation(eqn term.Term) bool {
	for {
		lam, ok := eqn.(term.Lam)
		if !ok {
			break
		}
		eqn = lam.Body
	}
	if src, body, ok := SplitRefined(eqn); ok {
		if r.scanEquation(src) {
			return true
		}
		eqn = body
	}
	_, rhs, _, ok := SplitEquation(eqn)
	return ok && r.refersToFn(rhs)
}

func (r *recScanner) refersToFn(t term.Term) bool {
	return term.HasLocal(t, func(l term.Local) bool {
		return r.isFn(l) || r.viaValue(l)
	})
}

// viaValue returns true if l is let-bound to a term which refers to a function.
func (r *recScanner) viaValue(l term.Local) bool {
	key := [2]uint32{l.Idx, l.Gen}
	if res, ok := r.visited[key]; ok {
		return res
	}
	r.visited[key] = false
	v, ok := r.tc.ValueOf(l)
	res := ok && r.refersToFn(v)
	r.visited[key] = res
	return res
}
