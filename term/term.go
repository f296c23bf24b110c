// package term implements the core term language shared by the equations
// compiler, the typing context, and the surface syntax.
package term

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Name is a global or binder name.  Hierarchical names are separated by dots, e.g. Nat.succ
type Name string

// Prefix returns everything before the last dot, or "" if n has no dot.
func (n Name) Prefix() Name {
	i := strings.LastIndexByte(string(n), '.')
	if i < 0 {
		return ""
	}
	return n[:i]
}

type BinderInfo uint8

const (
	Default BinderInfo = iota
	Implicit
	InstImplicit
	StrictImplicit
)

// Term is an immutable core term.
// Term = BVar | Local | Const | Sort | Lit | App | Lam | Pi | Let | Macro
type Term interface {
	isTerm()
	String() string
}

// BVar is a bound variable, referenced by DeBruijn index.
// Index 0 refers to the innermost enclosing binder.
type BVar struct {
	Idx uint32
}

// Local is a free variable owned by a typing context.
// Locals are identified by Idx and Gen, Name is only used for display.
type Local struct {
	Idx  uint32
	Gen  uint32
	Name Name
}

// Same returns true if l and other refer to the same declaration.
func (l Local) Same(other Local) bool {
	return l.Idx == other.Idx && l.Gen == other.Gen
}

type Const struct {
	Name Name
}

type Sort struct {
	Level uint32
}

// Lit is a natural number literal
type Lit struct {
	Nat uint64
}

// Nat creates a natural number literal
func Nat[T constraints.Integer](x T) Lit {
	if x < 0 {
		panic(x)
	}
	return Lit{Nat: uint64(x)}
}

type App struct {
	Fn  Term
	Arg Term
}

type Binder struct {
	Name Name
	Type Term
	Info BinderInfo
}

type Lam struct {
	Binder Binder
	Body   Term
}

type Pi struct {
	Binder Binder
	Body   Term
}

type Let struct {
	Name  Name
	Type  Term
	Value Term
	Body  Term
}

// MacroDef describes a macro application.
// The core language does not interpret macros, it only carries them.
type MacroDef interface {
	MacroName() string
	// EqualDef returns true if both definitions carry the same attributes.
	EqualDef(MacroDef) bool
	// AppendAttrs appends a canonical encoding of the definition's attributes to out.
	AppendAttrs(out []byte) []byte
}

type Macro struct {
	Def  MacroDef
	Args []Term
}

func (BVar) isTerm()  {}
func (Local) isTerm() {}
func (Const) isTerm() {}
func (Sort) isTerm()  {}
func (Lit) isTerm()   {}
func (App) isTerm()   {}
func (Lam) isTerm()   {}
func (Pi) isTerm()    {}
func (Let) isTerm()   {}
func (Macro) isTerm() {}

func (t BVar) String() string  { return fmt.Sprintf("%%%d", t.Idx) }
func (t Local) String() string { return string(t.Name) }
func (t Const) String() string { return string(t.Name) }
func (t Sort) String() string  { return fmt.Sprintf("(Sort %d)", t.Level) }
func (t Lit) String() string   { return fmt.Sprintf("%d", t.Nat) }

func (t App) String() string {
	fn, args := GetAppArgs(t)
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "(%v", fn)
	for _, a := range args {
		fmt.Fprintf(sb, " %v", a)
	}
	sb.WriteString(")")
	return sb.String()
}

func (t Lam) String() string {
	return fmt.Sprintf("(fun [(%s %v)] %v)", t.Binder.Name, t.Binder.Type, t.Body)
}

func (t Pi) String() string {
	return fmt.Sprintf("(Pi [(%s %v)] %v)", t.Binder.Name, t.Binder.Type, t.Body)
}

func (t Let) String() string {
	return fmt.Sprintf("(let %s %v %v %v)", t.Name, t.Type, t.Value, t.Body)
}

func (t Macro) String() string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "(!%s", t.Def.MacroName())
	for _, a := range t.Args {
		fmt.Fprintf(sb, " %v", a)
	}
	sb.WriteString(")")
	return sb.String()
}

// MkApp applies fn to args, left to right.
func MkApp(fn Term, args ...Term) Term {
	for _, a := range args {
		fn = App{Fn: fn, Arg: a}
	}
	return fn
}

// GetAppFn returns the head of an application spine.
func GetAppFn(t Term) Term {
	for {
		app, ok := t.(App)
		if !ok {
			return t
		}
		t = app.Fn
	}
}

// GetAppArgs returns the head of an application spine and its arguments in order.
func GetAppArgs(t Term) (Term, []Term) {
	var args []Term
	for {
		app, ok := t.(App)
		if !ok {
			break
		}
		args = append(args, app.Arg)
		t = app.Fn
	}
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	return t, args
}

// AppNumArgs returns the number of arguments in the application spine of t.
func AppNumArgs(t Term) (n int) {
	for {
		app, ok := t.(App)
		if !ok {
			return n
		}
		n++
		t = app.Fn
	}
}

// PiArity returns the number of leading Pi binders in t.
func PiArity(t Term) (n int) {
	for {
		pi, ok := t.(Pi)
		if !ok {
			return n
		}
		n++
		t = pi.Body
	}
}

// MkArrow creates a non-dependent function type
func MkArrow(dom, cod Term) Term {
	return Pi{
		Binder: Binder{Name: "a", Type: dom},
		Body:   lift(cod, 0, 1),
	}
}
