// package eqns implements the data structures of the equations compiler:
// unpacking and repacking equation bundles, decomposing single equations,
// and detecting recursion.
//
// An equation bundle is a single macro term.
//
//	equations(header, E1, ..., Em)
//	Ei = fun f1 ... fn, body
//	body = no_equation() | fun x1 ... xk, [refined(src, _)] equation(lhs, rhs)
package eqns

import (
	"encoding/binary"
	"slices"

	"myceliumweb.org/eqnc/term"
)

// Header carries the attributes of an equation bundle.
type Header struct {
	// FnNames are the names of the functions being defined
	FnNames []term.Name
	// FnActualNames are the names the functions will have in the environment
	FnActualNames []term.Name

	IsPrivate       bool
	IsLemma         bool
	IsMeta          bool
	IsNoncomputable bool
	AuxLemmas       bool
	GenCode         bool
}

// NewHeader returns a Header for names, which generates code.
func NewHeader(names ...term.Name) Header {
	return Header{
		FnNames:       slices.Clone(names),
		FnActualNames: slices.Clone(names),
		GenCode:       true,
	}
}

func (h Header) NumFns() int {
	return len(h.FnNames)
}

func (h Header) Equal(other Header) bool {
	return slices.Equal(h.FnNames, other.FnNames) &&
		slices.Equal(h.FnActualNames, other.FnActualNames) &&
		h.flags() == other.flags()
}

func (h Header) clone() Header {
	h.FnNames = slices.Clone(h.FnNames)
	h.FnActualNames = slices.Clone(h.FnActualNames)
	return h
}

func (h Header) flags() (ret uint8) {
	for i, b := range []bool{h.IsPrivate, h.IsLemma, h.IsMeta, h.IsNoncomputable, h.AuxLemmas, h.GenCode} {
		if b {
			ret |= 1 << i
		}
	}
	return ret
}

func appendNames(out []byte, names []term.Name) []byte {
	out = binary.AppendUvarint(out, uint64(len(names)))
	for _, n := range names {
		out = binary.AppendUvarint(out, uint64(len(n)))
		out = append(out, n...)
	}
	return out
}

const (
	EquationsMacro      = "equations"
	EquationMacro       = "eqn"
	EquationMacroIgnore = "eqn?"
	NoEquationMacro     = "no-eqn"
	RefinedMacro        = "refined"
)

type equationsDef struct {
	header Header
}

func (d equationsDef) MacroName() string { return EquationsMacro }

func (d equationsDef) EqualDef(other term.MacroDef) bool {
	o, ok := other.(equationsDef)
	return ok && d.header.Equal(o.header)
}

func (d equationsDef) AppendAttrs(out []byte) []byte {
	out = appendNames(out, d.header.FnNames)
	out = appendNames(out, d.header.FnActualNames)
	return append(out, d.header.flags())
}

type equationDef struct {
	ignoreIfUnused bool
}

func (d equationDef) MacroName() string {
	if d.ignoreIfUnused {
		return EquationMacroIgnore
	}
	return EquationMacro
}

func (d equationDef) EqualDef(other term.MacroDef) bool {
	o, ok := other.(equationDef)
	return ok && d == o
}

func (d equationDef) AppendAttrs(out []byte) []byte { return out }

type noEquationDef struct{}

func (noEquationDef) MacroName() string { return NoEquationMacro }

func (noEquationDef) EqualDef(other term.MacroDef) bool {
	_, ok := other.(noEquationDef)
	return ok
}

func (noEquationDef) AppendAttrs(out []byte) []byte { return out }

type refinedDef struct{}

func (refinedDef) MacroName() string { return RefinedMacro }

func (refinedDef) EqualDef(other term.MacroDef) bool {
	_, ok := other.(refinedDef)
	return ok
}

func (refinedDef) AppendAttrs(out []byte) []byte { return out }

// MkEquations creates an equation bundle
func MkEquations(h Header, eqns []term.Term) term.Term {
	return term.Macro{
		Def:  equationsDef{header: h.clone()},
		Args: slices.Clone(eqns),
	}
}

// IsEquations returns true if t is an equation bundle macro.
// It does not check that the bundle is well formed, Unpack does that.
func IsEquations(t term.Term) bool {
	_, ok := EquationsHeader(t)
	return ok
}

// EquationsHeader returns the header of an equation bundle.
func EquationsHeader(t term.Term) (Header, bool) {
	m, ok := t.(term.Macro)
	if !ok {
		return Header{}, false
	}
	def, ok := m.Def.(equationsDef)
	if !ok {
		return Header{}, false
	}
	return def.header.clone(), true
}

// MkEquation creates a single equation lhs = rhs.
// If ignoreIfUnused is set, later phases do not report the equation when it is redundant.
func MkEquation(lhs, rhs term.Term, ignoreIfUnused bool) term.Term {
	return term.Macro{
		Def:  equationDef{ignoreIfUnused: ignoreIfUnused},
		Args: []term.Term{lhs, rhs},
	}
}

// SplitEquation returns the parts of an equation macro.
func SplitEquation(t term.Term) (lhs, rhs term.Term, ignoreIfUnused bool, ok bool) {
	m, isMacro := t.(term.Macro)
	if !isMacro {
		return nil, nil, false, false
	}
	def, isEqn := m.Def.(equationDef)
	if !isEqn || len(m.Args) != 2 {
		return nil, nil, false, false
	}
	return m.Args[0], m.Args[1], def.ignoreIfUnused, true
}

func IsEquation(t term.Term) bool {
	_, _, _, ok := SplitEquation(t)
	return ok
}

// MkNoEquation is the body used for a function which has no equations.
func MkNoEquation() term.Term {
	return term.Macro{Def: noEquationDef{}}
}

func IsNoEquation(t term.Term) bool {
	m, ok := t.(term.Macro)
	if !ok {
		return false
	}
	_, ok = m.Def.(noEquationDef)
	return ok && len(m.Args) == 0
}

// MkRefined wraps eqn, recording that it was produced by refining src.
func MkRefined(src, eqn term.Term) term.Term {
	return term.Macro{
		Def:  refinedDef{},
		Args: []term.Term{src, eqn},
	}
}

// SplitRefined returns the source and the body of a refined macro.
func SplitRefined(t term.Term) (src, body term.Term, ok bool) {
	m, isMacro := t.(term.Macro)
	if !isMacro {
		return nil, nil, false
	}
	if _, isRefined := m.Def.(refinedDef); !isRefined || len(m.Args) != 2 {
		return nil, nil, false
	}
	return m.Args[0], m.Args[1], true
}
