package elab

import (
	"strings"

	"myceliumweb.org/eqnc/eqns"
	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/surface/ast"
	"myceliumweb.org/eqnc/surface/lexer"
	"myceliumweb.org/eqnc/surface/parser"
	"myceliumweb.org/eqnc/term"
)

// File is the result of elaborating a source file.
type File struct {
	Bundles    []Bundle
	Inductives []inductive.Inductive
}

// Bundle is an equation bundle and where it came from.
type Bundle struct {
	Span lexer.Span
	Loc  lexer.Loc
	Term term.Term
}

// File elaborates the top level nodes of a source file.
// span must be the root span returned by parser.ReadAll.
func (el *Elaborator) File(nodes []ast.Node, span parser.Span) (*File, error) {
	var ret File
	xs, sps := children(ast.SExpr(nodes), span)
	for i, x := range xs {
		sexpr, ok := x.(ast.SExpr)
		if !ok || len(sexpr) == 0 {
			return nil, el.errorf(sps[i], "expected a declaration, HAVE: %v", x)
		}
		switch head := sexpr[0]; head {
		case ast.Symbol(kwEquations), ast.Op(eqns.EquationsMacro):
			var t term.Term
			var err error
			if head == ast.Symbol(kwEquations) {
				t, err = el.Equations(sexpr, sps[i])
			} else {
				t, err = el.Term(nil, sexpr, sps[i])
			}
			if err != nil {
				return nil, err
			}
			ret.Bundles = append(ret.Bundles, Bundle{
				Span: sps[i].Bound,
				Loc:  lexer.LocOf(el.Source, sps[i].Bound.Begin),
				Term: t,
			})
		case ast.Symbol(kwInductive):
			ind, err := el.Inductive(sexpr, sps[i])
			if err != nil {
				return nil, err
			}
			ret.Inductives = append(ret.Inductives, ind)
		default:
			return nil, el.errorf(sps[i], "unknown declaration %v", head)
		}
	}
	return &ret, nil
}

// Equations elaborates the readable form of an equation bundle.
//
//	(equations [!flag ...]
//	  (fn f type
//	    (eqn [(x T) ...] lhs rhs (from (eqn ...)))
//	    (eqn? [...] lhs rhs)))
//
// The types of the functions must be closed.
func (el *Elaborator) Equations(x ast.SExpr, sp parser.Span) (term.Term, error) {
	xs, sps := children(x, sp)
	if head, _ := x.Head(); head != kwEquations {
		return nil, el.errorf(sp, "expected (equations ...)")
	}
	h := eqns.NewHeader()
	i := 1
	if i < len(xs) {
		if flags, ok := xs[i].(ast.Array); ok {
			fxs, fsps := children(flags, sps[i])
			for j, f := range fxs {
				op, ok := f.(ast.Op)
				if !ok {
					return nil, el.errorf(fsps[j], "expected a flag, HAVE: %v", f)
				}
				if err := el.setFlag(&h, op, fsps[j]); err != nil {
					return nil, err
				}
			}
			i++
		}
	}
	type fnClause struct {
		binder term.Binder
		eqns   []ast.Node
		spans  []parser.Span
	}
	var fns []fnClause
	var fnScope *Scope
	for ; i < len(xs); i++ {
		cxs, csps := children(xs[i], sps[i])
		if len(cxs) < 3 || !ast.Equal(cxs[0], ast.Symbol(kwFn)) {
			return nil, el.errorf(sps[i], "expected (fn name type equations...), HAVE: %v", xs[i])
		}
		name, ok := cxs[1].(ast.Symbol)
		if !ok {
			return nil, el.errorf(csps[1], "function name must be a symbol, HAVE: %v", cxs[1])
		}
		ty, err := el.Term(nil, cxs[2], csps[2])
		if err != nil {
			return nil, err
		}
		h.FnNames = append(h.FnNames, term.Name(name))
		h.FnActualNames = append(h.FnActualNames, term.Name(name))
		fns = append(fns, fnClause{
			binder: term.Binder{Name: term.Name(name), Type: ty},
			eqns:   cxs[3:],
			spans:  csps[3:],
		})
		fnScope = fnScope.Child(string(name))
	}
	if len(fns) == 0 {
		return nil, el.errorf(sp, "equations must define at least one function")
	}
	fnBinders := make([]term.Binder, len(fns))
	for j := range fns {
		fnBinders[j] = fns[j].binder
	}

	var bodies []term.Term
	for _, fn := range fns {
		if len(fn.eqns) == 0 {
			bodies = append(bodies, eqns.MkNoEquation())
			continue
		}
		for j := range fn.eqns {
			body, err := el.equation(fnScope, fn.eqns[j], fn.spans[j])
			if err != nil {
				return nil, err
			}
			bodies = append(bodies, body)
		}
	}
	for j := range bodies {
		bodies[j] = wrapBinders(fnBinders, bodies[j], false)
	}
	return eqns.MkEquations(h, bodies), nil
}

// equation elaborates (eqn [binders] lhs rhs) with an optional (from (eqn ...)) clause
func (el *Elaborator) equation(sc *Scope, x ast.Node, sp parser.Span) (term.Term, error) {
	xs, sps := children(x, sp)
	if len(xs) < 4 || len(xs) > 5 {
		return nil, el.errorf(sp, "expected (eqn [binders] lhs rhs), HAVE: %v", x)
	}
	var ignore bool
	switch xs[0] {
	case ast.Symbol(kwEqn):
	case ast.Symbol(kwEqnIgnore):
		ignore = true
	default:
		return nil, el.errorf(sp, "expected (eqn [binders] lhs rhs), HAVE: %v", x)
	}
	binders, inner, err := el.binders(sc, xs[1], sps[1])
	if err != nil {
		return nil, err
	}
	lhs, err := el.Term(inner, xs[2], sps[2])
	if err != nil {
		return nil, err
	}
	rhs, err := el.Term(inner, xs[3], sps[3])
	if err != nil {
		return nil, err
	}
	body := eqns.MkEquation(lhs, rhs, ignore)
	if len(xs) == 5 {
		fxs, fsps := children(xs[4], sps[4])
		if len(fxs) != 2 || !ast.Equal(fxs[0], ast.Symbol(kwFrom)) {
			return nil, el.errorf(sps[4], "expected (from (eqn ...)), HAVE: %v", xs[4])
		}
		src, err := el.equation(inner, fxs[1], fsps[1])
		if err != nil {
			return nil, err
		}
		body = eqns.MkRefined(src, body)
	}
	return wrapBinders(binders, body, false), nil
}

// Inductive elaborates (inductive Name numParams numIndices type (ctor type) ...).
// Constructor names are qualified with the name of the datatype if they are not already.
func (el *Elaborator) Inductive(x ast.SExpr, sp parser.Span) (inductive.Inductive, error) {
	xs, sps := children(x, sp)
	if len(xs) < 5 || !ast.Equal(xs[0], ast.Symbol(kwInductive)) {
		return inductive.Inductive{}, el.errorf(sp, "expected (inductive name params indices type constructors...)")
	}
	name, ok := xs[1].(ast.Symbol)
	if !ok {
		return inductive.Inductive{}, el.errorf(sps[1], "inductive name must be a symbol, HAVE: %v", xs[1])
	}
	numParams, err := el.smallInt(xs[2], sps[2], 1<<16)
	if err != nil {
		return inductive.Inductive{}, err
	}
	numIndices, err := el.smallInt(xs[3], sps[3], 1<<16)
	if err != nil {
		return inductive.Inductive{}, err
	}
	ty, err := el.Term(nil, xs[4], sps[4])
	if err != nil {
		return inductive.Inductive{}, err
	}
	ind := inductive.Inductive{
		Name:       term.Name(name),
		Type:       ty,
		NumParams:  int(numParams),
		NumIndices: int(numIndices),
	}
	for j := 5; j < len(xs); j++ {
		cxs, csps := children(xs[j], sps[j])
		if len(cxs) != 2 {
			return inductive.Inductive{}, el.errorf(sps[j], "expected (constructor type), HAVE: %v", xs[j])
		}
		cname, ok := cxs[0].(ast.Symbol)
		if !ok {
			return inductive.Inductive{}, el.errorf(csps[0], "constructor name must be a symbol, HAVE: %v", cxs[0])
		}
		cty, err := el.Term(nil, cxs[1], csps[1])
		if err != nil {
			return inductive.Inductive{}, err
		}
		qualified := term.Name(cname)
		if !strings.HasPrefix(string(cname), string(name)+".") {
			qualified = term.Name(string(name) + "." + string(cname))
		}
		ind.Constructors = append(ind.Constructors, inductive.Constructor{Name: qualified, Type: cty})
	}
	if err := ind.Validate(); err != nil {
		return inductive.Inductive{}, el.errorf(sp, "%w", err)
	}
	return ind, nil
}
