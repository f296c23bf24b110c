package term

import (
	"slices"
)

// Walk visits t and its sub-terms in pre-order.
// depth is the number of binders between t and the visited term.
// If fn returns false the children of the visited term are skipped.
func Walk(t Term, fn func(x Term, depth uint32) bool) {
	walk(t, 0, fn)
}

func walk(t Term, depth uint32, fn func(Term, uint32) bool) {
	if !fn(t, depth) {
		return
	}
	switch t := t.(type) {
	case App:
		walk(t.Fn, depth, fn)
		walk(t.Arg, depth, fn)
	case Lam:
		walk(t.Binder.Type, depth, fn)
		walk(t.Body, depth+1, fn)
	case Pi:
		walk(t.Binder.Type, depth, fn)
		walk(t.Body, depth+1, fn)
	case Let:
		walk(t.Type, depth, fn)
		walk(t.Value, depth, fn)
		walk(t.Body, depth+1, fn)
	case Macro:
		for _, a := range t.Args {
			walk(a, depth, fn)
		}
	}
}

// Find returns the first sub-term of t, in pre-order, for which pred is true.
func Find(t Term, pred func(x Term, depth uint32) bool) (ret Term, found bool) {
	Walk(t, func(x Term, depth uint32) bool {
		if found {
			return false
		}
		if pred(x, depth) {
			ret, found = x, true
			return false
		}
		return true
	})
	return ret, found
}

// Replace rebuilds t bottom up.
// fn is called on every sub-term before its children; if it returns true
// the returned term is used in place of the sub-term and the children are not visited.
func Replace(t Term, fn func(x Term, depth uint32) (Term, bool)) Term {
	return replace(t, 0, fn)
}

func replace(t Term, depth uint32, fn func(Term, uint32) (Term, bool)) Term {
	if r, ok := fn(t, depth); ok {
		return r
	}
	switch t := t.(type) {
	case App:
		return App{
			Fn:  replace(t.Fn, depth, fn),
			Arg: replace(t.Arg, depth, fn),
		}
	case Lam:
		b := t.Binder
		b.Type = replace(b.Type, depth, fn)
		return Lam{Binder: b, Body: replace(t.Body, depth+1, fn)}
	case Pi:
		b := t.Binder
		b.Type = replace(b.Type, depth, fn)
		return Pi{Binder: b, Body: replace(t.Body, depth+1, fn)}
	case Let:
		return Let{
			Name:  t.Name,
			Type:  replace(t.Type, depth, fn),
			Value: replace(t.Value, depth, fn),
			Body:  replace(t.Body, depth+1, fn),
		}
	case Macro:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Term, len(t.Args))
		for i := range t.Args {
			args[i] = replace(t.Args[i], depth, fn)
		}
		return Macro{Def: t.Def, Args: args}
	default:
		return t
	}
}

// LooseBVarRange returns one more than the largest loose bound variable index in t.
// It returns 0 if t is closed.
func LooseBVarRange(t Term) (ret uint32) {
	Walk(t, func(x Term, depth uint32) bool {
		if bv, ok := x.(BVar); ok && bv.Idx >= depth {
			ret = max(ret, bv.Idx-depth+1)
		}
		return true
	})
	return ret
}

// HasLooseBVars returns true if t has a bound variable which is not bound inside t.
func HasLooseBVars(t Term) bool {
	return LooseBVarRange(t) > 0
}

// HasLocal returns true if t contains a local for which pred is true.
func HasLocal(t Term, pred func(Local) bool) bool {
	_, found := Find(t, func(x Term, _ uint32) bool {
		l, ok := x.(Local)
		return ok && pred(l)
	})
	return found
}

// Instantiate replaces the loose bound variable 0 in body with v.
func Instantiate(body, v Term) Term {
	return InstantiateRev(body, []Term{v})
}

// InstantiateRev replaces the loose bound variables 0..n-1 in t with subst[n-1]..subst[0].
// The substituted terms must not have loose bound variables.
func InstantiateRev(t Term, subst []Term) Term {
	n := uint32(len(subst))
	if n == 0 {
		return t
	}
	return Replace(t, func(x Term, depth uint32) (Term, bool) {
		bv, ok := x.(BVar)
		if !ok {
			return nil, false
		}
		switch {
		case bv.Idx < depth:
			return bv, true
		case bv.Idx-depth < n:
			return subst[n-1-(bv.Idx-depth)], true
		default:
			return BVar{Idx: bv.Idx - n}, true
		}
	})
}

// Abstract replaces each occurrence of locals[i] in t with the bound variable
// that a telescope over locals would assign to it; the last local becomes index 0.
func Abstract(t Term, locals []Local) Term {
	n := uint32(len(locals))
	if n == 0 {
		return t
	}
	return Replace(t, func(x Term, depth uint32) (Term, bool) {
		l, ok := x.(Local)
		if !ok {
			return nil, false
		}
		i := slices.IndexFunc(locals, l.Same)
		if i < 0 {
			return l, true
		}
		return BVar{Idx: depth + n - 1 - uint32(i)}, true
	})
}

// lift adds by to every loose bound variable at or above from.
func lift(t Term, from, by uint32) Term {
	if by == 0 {
		return t
	}
	return Replace(t, func(x Term, depth uint32) (Term, bool) {
		bv, ok := x.(BVar)
		if !ok {
			return nil, false
		}
		if bv.Idx >= depth+from {
			return BVar{Idx: bv.Idx + by}, true
		}
		return bv, true
	})
}

// Equal returns true if a and b are alpha-equivalent.
// Binder names and local display names are ignored.
func Equal(a, b Term) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case BVar:
		b, ok := b.(BVar)
		return ok && a == b
	case Local:
		b, ok := b.(Local)
		return ok && a.Same(b)
	case Const:
		b, ok := b.(Const)
		return ok && a == b
	case Sort:
		b, ok := b.(Sort)
		return ok && a == b
	case Lit:
		b, ok := b.(Lit)
		return ok && a == b
	case App:
		b, ok := b.(App)
		return ok && Equal(a.Fn, b.Fn) && Equal(a.Arg, b.Arg)
	case Lam:
		b, ok := b.(Lam)
		return ok && equalBinders(a.Binder, b.Binder) && Equal(a.Body, b.Body)
	case Pi:
		b, ok := b.(Pi)
		return ok && equalBinders(a.Binder, b.Binder) && Equal(a.Body, b.Body)
	case Let:
		b, ok := b.(Let)
		return ok && Equal(a.Type, b.Type) && Equal(a.Value, b.Value) && Equal(a.Body, b.Body)
	case Macro:
		b, ok := b.(Macro)
		if !ok || !a.Def.EqualDef(b.Def) || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	default:
		panic(a)
	}
}

func equalBinders(a, b Binder) bool {
	return a.Info == b.Info && Equal(a.Type, b.Type)
}
