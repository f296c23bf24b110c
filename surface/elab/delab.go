package elab

import (
	"fmt"
	"unicode"

	"myceliumweb.org/eqnc/eqns"
	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/surface/ast"
	"myceliumweb.org/eqnc/term"
)

// Delab converts t to the raw surface form.
// Binders are renamed where necessary so that elaborating the result gives back t, up to alpha equivalence.
// Locals are printed by name, and elaborate to constants.
func Delab(t term.Term) ast.Node {
	d := delab{avoid: map[string]struct{}{}}
	for _, kw := range []string{kwFun, kwPi, kwArrow, kwLet, kwSort, kwType, kwProp} {
		d.avoid[kw] = struct{}{}
	}
	term.Walk(t, func(x term.Term, _ uint32) bool {
		switch x := x.(type) {
		case term.Const:
			d.avoid[string(x.Name)] = struct{}{}
		case term.Local:
			d.avoid[string(x.Name)] = struct{}{}
		}
		return true
	})
	return d.term(nil, t)
}

// DelabInductive converts a declaration to the form accepted by Elaborator.Inductive
func DelabInductive(ind inductive.Inductive) ast.Node {
	ret := ast.SExpr{
		ast.Symbol(kwInductive),
		ast.Symbol(ind.Name),
		ast.NewInt(ind.NumParams),
		ast.NewInt(ind.NumIndices),
		Delab(ind.Type),
	}
	for _, c := range ind.Constructors {
		ret = append(ret, ast.SExpr{ast.Symbol(c.Name), Delab(c.Type)})
	}
	return ret
}

type delab struct {
	avoid map[string]struct{}
}

func (d *delab) term(sc *Scope, t term.Term) ast.Node {
	switch t := t.(type) {
	case term.BVar:
		if name, ok := sc.At(t.Idx); ok {
			return ast.Symbol(name)
		}
		return ast.Param(t.Idx)
	case term.Local:
		return ast.Symbol(t.Name)
	case term.Const:
		return ast.Symbol(t.Name)
	case term.Sort:
		switch t.Level {
		case 0:
			return ast.Symbol(kwProp)
		case 1:
			return ast.Symbol(kwType)
		default:
			return ast.SExpr{ast.Symbol(kwSort), ast.NewUInt64(uint64(t.Level))}
		}
	case term.Lit:
		return ast.NewUInt64(t.Nat)
	case term.App:
		fn, args := term.GetAppArgs(t)
		ret := ast.SExpr{d.term(sc, fn)}
		for _, a := range args {
			ret = append(ret, d.term(sc, a))
		}
		return ret
	case term.Lam:
		binders, body, inner := d.binders(sc, t, func(x term.Term) (term.Binder, term.Term, bool) {
			lam, ok := x.(term.Lam)
			return lam.Binder, lam.Body, ok
		})
		return ast.SExpr{ast.Symbol(kwFun), binders, d.term(inner, body)}
	case term.Pi:
		if isArrow(t) {
			ret := ast.SExpr{ast.Symbol(kwArrow)}
			var x term.Term = t
			for {
				pi, ok := x.(term.Pi)
				if !ok || !isArrow(pi) {
					break
				}
				ret = append(ret, d.term(sc, pi.Binder.Type))
				x = term.Instantiate(pi.Body, term.Sort{})
			}
			return append(ret, d.term(sc, x))
		}
		binders, body, inner := d.binders(sc, t, func(x term.Term) (term.Binder, term.Term, bool) {
			pi, ok := x.(term.Pi)
			return pi.Binder, pi.Body, ok && !isArrow(pi)
		})
		return ast.SExpr{ast.Symbol(kwPi), binders, d.term(inner, body)}
	case term.Let:
		name := d.fresh(sc, t.Name)
		return ast.SExpr{
			ast.Symbol(kwLet),
			ast.Symbol(name),
			d.term(sc, t.Type),
			d.term(sc, t.Value),
			d.term(sc.Child(name), t.Body),
		}
	case term.Macro:
		return d.macro(sc, t)
	default:
		panic(fmt.Sprintf("delab: unknown term %T", t))
	}
}

// binders collects the binders of t while next returns true.
func (d *delab) binders(sc *Scope, t term.Term, next func(term.Term) (term.Binder, term.Term, bool)) (ast.Array, term.Term, *Scope) {
	var ret ast.Array
	for {
		b, body, ok := next(t)
		if !ok {
			break
		}
		name := d.fresh(sc, b.Name)
		x := ast.SExpr{ast.Symbol(name), d.term(sc, b.Type)}
		for op, info := range binderInfos {
			if b.Info == info {
				x = append(x, op)
			}
		}
		ret = append(ret, x)
		sc = sc.Child(name)
		t = body
	}
	return ret, t, sc
}

func (d *delab) macro(sc *Scope, t term.Macro) ast.Node {
	if h, ok := eqns.EquationsHeader(t); ok {
		names := ast.Array{}
		for i, n := range h.FnNames {
			if i < len(h.FnActualNames) && h.FnActualNames[i] != n {
				names = append(names, ast.SExpr{ast.Symbol(n), ast.Symbol(h.FnActualNames[i])})
			} else {
				names = append(names, ast.Symbol(n))
			}
		}
		ret := ast.SExpr{ast.Op(eqns.EquationsMacro), names}
		for _, f := range headerFlags {
			if f.get(h) {
				ret = append(ret, f.op)
			}
		}
		for _, a := range t.Args {
			ret = append(ret, d.term(sc, a))
		}
		return ret
	}
	ret := ast.SExpr{ast.Op(t.Def.MacroName())}
	for _, a := range t.Args {
		ret = append(ret, d.term(sc, a))
	}
	return ret
}

// fresh returns a name for a binder which does not capture anything visible in sc.
func (d *delab) fresh(sc *Scope, name term.Name) string {
	base := string(name)
	if !isPlainName(base) {
		base = "x"
	}
	ret := base
	for i := 1; ; i++ {
		if _, avoid := d.avoid[ret]; !avoid && !sc.Binds(ret) {
			return ret
		}
		ret = fmt.Sprintf("%s_%d", base, i)
	}
}

func isArrow(pi term.Pi) bool {
	if pi.Binder.Info != term.Default {
		return false
	}
	_, found := term.Find(pi.Body, func(x term.Term, depth uint32) bool {
		bv, ok := x.(term.BVar)
		return ok && bv.Idx == depth
	})
	return !found
}

// isPlainName returns true if name can be written as a binder without quoting.
func isPlainName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '\''):
		default:
			return false
		}
	}
	return true
}
