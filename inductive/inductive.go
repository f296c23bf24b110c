// package inductive provides the narrow view of inductive datatypes used by the equations compiler.
//
// The compiler never inspects how a datatype is encoded.
// It only asks the questions in Interface, so new forms of inductive
// datatype only require a new implementation of Interface.
package inductive

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"myceliumweb.org/eqnc/term"
)

// Interface answers the questions the equations compiler needs about inductive datatypes.
// All methods are total: absence is reported as false or 0, never as an error.
type Interface interface {
	// IsInductive returns true if name is an inductive datatype.
	IsInductive(name term.Name) bool
	// IsInductiveTerm returns true if the head of t is an inductive datatype.
	IsInductiveTerm(t term.Term) bool
	// IsConstructor returns the name of the constructor at the head of t.
	IsConstructor(t term.Term) (term.Name, bool)
	NumParams(name term.Name) int
	NumIndices(name term.Name) int
}

// Inductive is an inductive datatype declaration
type Inductive struct {
	Name term.Name
	// Type is the type of the type former, a telescope over params and indices.
	Type       term.Term
	NumParams  int
	NumIndices int

	Constructors []Constructor
}

// Constructor is a constructor of an inductive datatype.
// Its name is the name of the datatype, a dot, and one more component (Nat.succ).
type Constructor struct {
	Name term.Name
	Type term.Term
}

func (ind Inductive) String() string {
	ctors := make([]string, len(ind.Constructors))
	for i, c := range ind.Constructors {
		ctors[i] = string(c.Name)
	}
	return fmt.Sprintf("%s(params=%d indices=%d ctors=[%s])", ind.Name, ind.NumParams, ind.NumIndices, strings.Join(ctors, " "))
}

// Validate checks that the declaration is internally consistent.
func (ind Inductive) Validate() error {
	if ind.Name == "" {
		return fmt.Errorf("inductive declaration has no name")
	}
	if ind.Type == nil {
		return fmt.Errorf("inductive %s has no type", ind.Name)
	}
	if ind.NumParams < 0 || ind.NumIndices < 0 {
		return fmt.Errorf("inductive %s has negative params or indices", ind.Name)
	}
	if arity := term.PiArity(ind.Type); ind.NumParams+ind.NumIndices > arity {
		return fmt.Errorf("inductive %s declares %d params and %d indices, but its type only takes %d arguments",
			ind.Name, ind.NumParams, ind.NumIndices, arity)
	}
	seen := map[term.Name]struct{}{}
	for _, c := range ind.Constructors {
		if c.Name == "" {
			return fmt.Errorf("inductive %s has a constructor with no name", ind.Name)
		}
		if _, exists := seen[c.Name]; exists {
			return fmt.Errorf("inductive %s has duplicate constructor %s", ind.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Name.Prefix() != ind.Name {
			return fmt.Errorf("constructor %s must be named %s.<name>", c.Name, ind.Name)
		}
		if c.Type == nil {
			return fmt.Errorf("constructor %s has no type", c.Name)
		}
		head := term.GetAppFn(resultType(c.Type))
		if k, ok := head.(term.Const); !ok || k.Name != ind.Name {
			return fmt.Errorf("constructor %s must produce %s. HAVE: %v", c.Name, ind.Name, head)
		}
	}
	return nil
}

// resultType strips the leading Pi binders from ty
func resultType(ty term.Term) term.Term {
	for {
		pi, ok := ty.(term.Pi)
		if !ok {
			return ty
		}
		ty = pi.Body
	}
}

type ctorEntry struct {
	inductive term.Name
	index     int
}

var _ Interface = &Env{}

// Env is an immutable environment of inductive declarations.
// The zero value is an empty environment.
type Env struct {
	inds  map[term.Name]Inductive
	ctors map[term.Name]ctorEntry
}

// NewEnv creates an environment from a list of declarations
func NewEnv(decls ...Inductive) (*Env, error) {
	env := &Env{}
	for _, d := range decls {
		var err error
		if env, err = env.With(d); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// With returns a new environment containing everything in e and decl.
// e is not modified.
func (e *Env) With(decl Inductive) (*Env, error) {
	if err := decl.Validate(); err != nil {
		return nil, err
	}
	if e.declared(decl.Name) {
		return nil, fmt.Errorf("%s is already declared", decl.Name)
	}
	for _, c := range decl.Constructors {
		if e.declared(c.Name) || c.Name == decl.Name {
			return nil, fmt.Errorf("%s is already declared", c.Name)
		}
	}
	next := &Env{
		inds:  maps.Clone(e.inds),
		ctors: maps.Clone(e.ctors),
	}
	if next.inds == nil {
		next.inds = make(map[term.Name]Inductive)
	}
	if next.ctors == nil {
		next.ctors = make(map[term.Name]ctorEntry)
	}
	decl.Constructors = slices.Clone(decl.Constructors)
	next.inds[decl.Name] = decl
	for i, c := range decl.Constructors {
		next.ctors[c.Name] = ctorEntry{inductive: decl.Name, index: i}
	}
	return next, nil
}

// Merge returns a new environment with all the declarations from e and other.
func (e *Env) Merge(other *Env) (*Env, error) {
	ret := e
	for _, name := range other.Names() {
		var err error
		if ret, err = ret.With(other.inds[name]); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (e *Env) declared(name term.Name) bool {
	_, isInd := e.inds[name]
	_, isCtor := e.ctors[name]
	return isInd || isCtor
}

// Lookup returns the declaration for name
func (e *Env) Lookup(name term.Name) (Inductive, bool) {
	ind, ok := e.inds[name]
	return ind, ok
}

// ConstructorOf returns the inductive declaration and the constructor for a constructor name.
func (e *Env) ConstructorOf(name term.Name) (Inductive, Constructor, bool) {
	ent, ok := e.ctors[name]
	if !ok {
		return Inductive{}, Constructor{}, false
	}
	ind := e.inds[ent.inductive]
	return ind, ind.Constructors[ent.index], true
}

// Names returns the names of all the inductive declarations, sorted.
func (e *Env) Names() []term.Name {
	names := maps.Keys(e.inds)
	slices.Sort(names)
	return names
}

func (e *Env) Len() int {
	return len(e.inds)
}

func (e *Env) IsInductive(name term.Name) bool {
	_, ok := e.inds[name]
	return ok
}

func (e *Env) IsInductiveTerm(t term.Term) bool {
	k, ok := term.GetAppFn(t).(term.Const)
	return ok && e.IsInductive(k.Name)
}

func (e *Env) IsConstructor(t term.Term) (term.Name, bool) {
	k, ok := term.GetAppFn(t).(term.Const)
	if !ok {
		return "", false
	}
	if _, ok := e.ctors[k.Name]; !ok {
		return "", false
	}
	return k.Name, true
}

func (e *Env) NumParams(name term.Name) int {
	return e.inds[name].NumParams
}

func (e *Env) NumIndices(name term.Name) int {
	return e.inds[name].NumIndices
}
