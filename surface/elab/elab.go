// package elab converts between the surface syntax tree and core terms.
//
// Names are resolved innermost first: a name bound by an enclosing binder becomes a bound variable,
// any other name becomes a constant.
package elab

import (
	"fmt"
	"math"

	"myceliumweb.org/eqnc/eqns"
	"myceliumweb.org/eqnc/surface/ast"
	"myceliumweb.org/eqnc/surface/lexer"
	"myceliumweb.org/eqnc/surface/parser"
	"myceliumweb.org/eqnc/term"
)

const (
	kwFun       = "fun"
	kwPi        = "Pi"
	kwArrow     = "->"
	kwLet       = "let"
	kwSort      = "Sort"
	kwType      = "Type"
	kwProp      = "Prop"
	kwEquations = "equations"
	kwFn        = "fn"
	kwEqn       = "eqn"
	kwEqnIgnore = "eqn?"
	kwFrom      = "from"
	kwInductive = "inductive"
)

// Elaborator elaborates the nodes of a single source file.
type Elaborator struct {
	Filename string
	// Source is used to compute line and column numbers for errors.
	Source string
}

func New(filename, src string) *Elaborator {
	return &Elaborator{Filename: filename, Source: src}
}

// Term elaborates n in the scope sc.
// sp must be the span the parser returned for n.
func (el *Elaborator) Term(sc *Scope, n ast.Node, sp parser.Span) (term.Term, error) {
	switch n := n.(type) {
	case ast.Symbol:
		return symbolTerm(sc, string(n)), nil
	case ast.Int:
		bi := n.BigInt()
		if !bi.IsUint64() {
			return nil, el.errorf(sp, "literal %v does not fit in 64 bits", bi)
		}
		return term.Lit{Nat: bi.Uint64()}, nil
	case ast.Param:
		return term.BVar{Idx: uint32(n)}, nil
	case ast.SExpr:
		xs, sps := children(n, sp)
		if len(xs) == 0 {
			return nil, el.errorf(sp, "empty expression")
		}
		switch head := xs[0].(type) {
		case ast.Symbol:
			if sc.Binds(string(head)) {
				break
			}
			switch head {
			case kwFun:
				return el.binding(sc, xs, sps, sp, false)
			case kwPi:
				return el.binding(sc, xs, sps, sp, true)
			case kwArrow:
				return el.arrow(sc, xs, sps, sp)
			case kwLet:
				return el.let(sc, xs, sps, sp)
			case kwSort:
				return el.sort(xs, sps, sp)
			}
		case ast.Op:
			return el.rawMacro(sc, head, xs, sps, sp)
		}
		return el.app(sc, xs, sps, sp)
	default:
		return nil, el.errorf(sp, "%v cannot be used as a term", n)
	}
}

func symbolTerm(sc *Scope, name string) term.Term {
	if i, ok := sc.Find(name); ok {
		return term.BVar{Idx: i}
	}
	switch name {
	case kwType:
		return term.Sort{Level: 1}
	case kwProp:
		return term.Sort{Level: 0}
	}
	return term.Const{Name: term.Name(name)}
}

func (el *Elaborator) app(sc *Scope, xs []ast.Node, sps []parser.Span, sp parser.Span) (term.Term, error) {
	if len(xs) < 2 {
		return nil, el.errorf(sp, "application needs at least one argument")
	}
	ts, err := el.terms(sc, xs, sps)
	if err != nil {
		return nil, err
	}
	return term.MkApp(ts[0], ts[1:]...), nil
}

func (el *Elaborator) terms(sc *Scope, xs []ast.Node, sps []parser.Span) ([]term.Term, error) {
	ret := make([]term.Term, len(xs))
	for i := range xs {
		t, err := el.Term(sc, xs[i], sps[i])
		if err != nil {
			return nil, err
		}
		ret[i] = t
	}
	return ret, nil
}

// binding elaborates (fun [binders] body) and (Pi [binders] body)
func (el *Elaborator) binding(sc *Scope, xs []ast.Node, sps []parser.Span, sp parser.Span, pi bool) (term.Term, error) {
	if len(xs) != 3 {
		return nil, el.errorf(sp, "expected (%v [binders] body)", xs[0])
	}
	binders, inner, err := el.binders(sc, xs[1], sps[1])
	if err != nil {
		return nil, err
	}
	body, err := el.Term(inner, xs[2], sps[2])
	if err != nil {
		return nil, err
	}
	return wrapBinders(binders, body, pi), nil
}

func wrapBinders(binders []term.Binder, body term.Term, pi bool) term.Term {
	for i := len(binders) - 1; i >= 0; i-- {
		if pi {
			body = term.Pi{Binder: binders[i], Body: body}
		} else {
			body = term.Lam{Binder: binders[i], Body: body}
		}
	}
	return body
}

var binderInfos = map[ast.Op]term.BinderInfo{
	"implicit":        term.Implicit,
	"inst-implicit":   term.InstImplicit,
	"strict-implicit": term.StrictImplicit,
}

// binders elaborates a telescope [(x T) (y U !implicit) ...].
// Each type is elaborated in the scope of the binders before it.
func (el *Elaborator) binders(sc *Scope, n ast.Node, sp parser.Span) ([]term.Binder, *Scope, error) {
	arr, ok := n.(ast.Array)
	if !ok {
		return nil, nil, el.errorf(sp, "expected binders [(name type) ...], HAVE: %v", n)
	}
	xs, sps := children(arr, sp)
	var ret []term.Binder
	for i, x := range xs {
		bxs, bsps := children(x, sps[i])
		if _, isSExpr := x.(ast.SExpr); !isSExpr || len(bxs) < 2 || len(bxs) > 3 {
			return nil, nil, el.errorf(sps[i], "expected (name type), HAVE: %v", x)
		}
		name, ok := bxs[0].(ast.Symbol)
		if !ok {
			return nil, nil, el.errorf(bsps[0], "binder name must be a symbol, HAVE: %v", bxs[0])
		}
		ty, err := el.Term(sc, bxs[1], bsps[1])
		if err != nil {
			return nil, nil, err
		}
		b := term.Binder{Name: term.Name(name), Type: ty}
		if len(bxs) == 3 {
			op, isOp := bxs[2].(ast.Op)
			info, known := binderInfos[op]
			if !isOp || !known {
				return nil, nil, el.errorf(bsps[2], "unknown binder annotation %v", bxs[2])
			}
			b.Info = info
		}
		ret = append(ret, b)
		sc = sc.Child(string(name))
	}
	return ret, sc, nil
}

func (el *Elaborator) arrow(sc *Scope, xs []ast.Node, sps []parser.Span, sp parser.Span) (term.Term, error) {
	if len(xs) < 3 {
		return nil, el.errorf(sp, "expected (-> A ... B)")
	}
	ts, err := el.terms(sc, xs[1:], sps[1:])
	if err != nil {
		return nil, err
	}
	ret := ts[len(ts)-1]
	for i := len(ts) - 2; i >= 0; i-- {
		ret = term.MkArrow(ts[i], ret)
	}
	return ret, nil
}

func (el *Elaborator) let(sc *Scope, xs []ast.Node, sps []parser.Span, sp parser.Span) (term.Term, error) {
	if len(xs) != 5 {
		return nil, el.errorf(sp, "expected (let name type value body)")
	}
	name, ok := xs[1].(ast.Symbol)
	if !ok {
		return nil, el.errorf(sps[1], "let name must be a symbol, HAVE: %v", xs[1])
	}
	ty, err := el.Term(sc, xs[2], sps[2])
	if err != nil {
		return nil, err
	}
	val, err := el.Term(sc, xs[3], sps[3])
	if err != nil {
		return nil, err
	}
	body, err := el.Term(sc.Child(string(name)), xs[4], sps[4])
	if err != nil {
		return nil, err
	}
	return term.Let{Name: term.Name(name), Type: ty, Value: val, Body: body}, nil
}

func (el *Elaborator) sort(xs []ast.Node, sps []parser.Span, sp parser.Span) (term.Term, error) {
	if len(xs) != 2 {
		return nil, el.errorf(sp, "expected (Sort level)")
	}
	n, err := el.smallInt(xs[1], sps[1], math.MaxUint32)
	if err != nil {
		return nil, err
	}
	return term.Sort{Level: uint32(n)}, nil
}

func (el *Elaborator) smallInt(n ast.Node, sp parser.Span, max uint64) (uint64, error) {
	x, ok := n.(ast.Int)
	if !ok || !x.BigInt().IsUint64() || x.BigInt().Uint64() > max {
		return 0, el.errorf(sp, "expected a number no larger than %d, HAVE: %v", max, n)
	}
	return x.BigInt().Uint64(), nil
}

// rawMacro elaborates the macros of the equations compiler, written as they are printed.
func (el *Elaborator) rawMacro(sc *Scope, op ast.Op, xs []ast.Node, sps []parser.Span, sp parser.Span) (term.Term, error) {
	argc := map[ast.Op]int{
		eqns.EquationMacro:       2,
		eqns.EquationMacroIgnore: 2,
		eqns.NoEquationMacro:     0,
		eqns.RefinedMacro:        2,
	}
	if op == eqns.EquationsMacro {
		return el.rawEquations(sc, xs, sps, sp)
	}
	n, known := argc[op]
	if !known {
		return nil, el.errorf(sps[0], "unknown macro %v", op)
	}
	if len(xs)-1 != n {
		return nil, el.errorf(sp, "%v takes %d arguments, HAVE: %d", op, n, len(xs)-1)
	}
	args, err := el.terms(sc, xs[1:], sps[1:])
	if err != nil {
		return nil, err
	}
	switch op {
	case eqns.EquationMacro:
		return eqns.MkEquation(args[0], args[1], false), nil
	case eqns.EquationMacroIgnore:
		return eqns.MkEquation(args[0], args[1], true), nil
	case eqns.RefinedMacro:
		return eqns.MkRefined(args[0], args[1]), nil
	default:
		return eqns.MkNoEquation(), nil
	}
}

// rawEquations elaborates (!equations [names] flags... E...)
func (el *Elaborator) rawEquations(sc *Scope, xs []ast.Node, sps []parser.Span, sp parser.Span) (term.Term, error) {
	if len(xs) < 2 {
		return nil, el.errorf(sp, "expected (!equations [names] flags... equations...)")
	}
	h, err := el.headerNames(xs[1], sps[1])
	if err != nil {
		return nil, err
	}
	i := 2
	for ; i < len(xs); i++ {
		op, ok := xs[i].(ast.Op)
		if !ok {
			break
		}
		if err := el.setFlag(&h, op, sps[i]); err != nil {
			return nil, err
		}
	}
	args, err := el.terms(sc, xs[i:], sps[i:])
	if err != nil {
		return nil, err
	}
	return eqns.MkEquations(h, args), nil
}

// headerNames elaborates [f (g g_actual) ...]
func (el *Elaborator) headerNames(n ast.Node, sp parser.Span) (eqns.Header, error) {
	arr, ok := n.(ast.Array)
	if !ok {
		return eqns.Header{}, el.errorf(sp, "expected function names [f ...], HAVE: %v", n)
	}
	h := eqns.NewHeader()
	xs, sps := children(arr, sp)
	for i, x := range xs {
		switch x := x.(type) {
		case ast.Symbol:
			h.FnNames = append(h.FnNames, term.Name(x))
			h.FnActualNames = append(h.FnActualNames, term.Name(x))
			continue
		case ast.SExpr:
			if len(x) == 2 {
				name, ok1 := x[0].(ast.Symbol)
				actual, ok2 := x[1].(ast.Symbol)
				if ok1 && ok2 {
					h.FnNames = append(h.FnNames, term.Name(name))
					h.FnActualNames = append(h.FnActualNames, term.Name(actual))
					continue
				}
			}
		}
		return eqns.Header{}, el.errorf(sps[i], "expected a function name, HAVE: %v", x)
	}
	return h, nil
}

type headerFlag struct {
	op  ast.Op
	get func(eqns.Header) bool
	set func(*eqns.Header)
}

var headerFlags = []headerFlag{
	{"private", func(h eqns.Header) bool { return h.IsPrivate }, func(h *eqns.Header) { h.IsPrivate = true }},
	{"lemma", func(h eqns.Header) bool { return h.IsLemma }, func(h *eqns.Header) { h.IsLemma = true }},
	{"meta", func(h eqns.Header) bool { return h.IsMeta }, func(h *eqns.Header) { h.IsMeta = true }},
	{"noncomputable", func(h eqns.Header) bool { return h.IsNoncomputable }, func(h *eqns.Header) { h.IsNoncomputable = true }},
	{"aux-lemmas", func(h eqns.Header) bool { return h.AuxLemmas }, func(h *eqns.Header) { h.AuxLemmas = true }},
	{"no-code", func(h eqns.Header) bool { return !h.GenCode }, func(h *eqns.Header) { h.GenCode = false }},
}

func (el *Elaborator) setFlag(h *eqns.Header, op ast.Op, sp parser.Span) error {
	for _, f := range headerFlags {
		if f.op == op {
			f.set(h)
			return nil
		}
	}
	return el.errorf(sp, "unknown flag %v", op)
}

func (el *Elaborator) errorf(sp parser.Span, format string, args ...any) error {
	return Error{
		Filename: el.Filename,
		Span:     sp.Bound,
		Loc:      lexer.LocOf(el.Source, sp.Bound.Begin),
		Cause:    fmt.Errorf(format, args...),
	}
}

// children returns the elements of a compound node and their spans, without comments.
func children(n ast.Node, sp parser.Span) ([]ast.Node, []parser.Span) {
	var xs []ast.Node
	switch n := n.(type) {
	case ast.SExpr:
		xs = n
	case ast.Array:
		xs = n
	default:
		return nil, nil
	}
	var nodes []ast.Node
	var spans []parser.Span
	for i, x := range xs {
		if ast.IsComment(x) {
			continue
		}
		nodes = append(nodes, x)
		if i < len(sp.Children) {
			spans = append(spans, sp.Children[i])
		} else {
			spans = append(spans, sp)
		}
	}
	return nodes, spans
}
