// package ast contains the syntax tree of equations source files.
package ast

import (
	"fmt"
	"math/big"
	"strings"
)

type Node interface {
	isNode()
}

type SExpr []Node

func (SExpr) isNode() {}

func (e SExpr) String() string {
	return "(" + joinNodes(e) + ")"
}

func (e SExpr) HasPrefix(prefix ...Node) bool {
	if len(e) < len(prefix) {
		return false
	}
	for i := range prefix {
		if !Equal(e[i], prefix[i]) {
			return false
		}
	}
	return true
}

// Head returns the first element of the s-expression if it is a Symbol.
func (e SExpr) Head() (Symbol, bool) {
	if len(e) == 0 {
		return "", false
	}
	sym, ok := e[0].(Symbol)
	return sym, ok
}

type Int struct {
	bi *big.Int
}

func NewBigInt(x *big.Int) Int {
	x2 := new(big.Int)
	x2.Set(x)
	return Int{x2}
}

func NewUInt64(x uint64) Int {
	bi := new(big.Int)
	bi.SetUint64(x)
	return NewBigInt(bi)
}

func NewInt(x int) Int {
	bi := new(big.Int)
	bi.SetInt64(int64(x))
	return NewBigInt(bi)
}

func (Int) isNode() {}

func (i Int) BigInt() *big.Int {
	return i.bi
}

func (i Int) String() string {
	return i.bi.String()
}

// Array is written with brackets.  It holds binders and flags.
type Array []Node

func (Array) isNode() {}

func (e Array) String() string {
	return "[" + joinNodes(e) + "]"
}

type Symbol string

func (Symbol) isNode() {}

// Op is a raw macro name, written with a leading !
type Op string

func (Op) isNode() {}

func (p Op) String() string {
	return "!" + string(p)
}

// Param is a de Bruijn index
type Param uint32

func (Param) isNode() {}

func (p Param) String() string {
	return fmt.Sprintf("%%%d", p)
}

type Comment string

func (Comment) isNode() {}

func (c Comment) String() string {
	return fmt.Sprintf(";;%s\n", string(c))
}

func joinNodes(xs []Node) string {
	parts := make([]string, len(xs))
	for i := range xs {
		parts[i] = fmt.Sprint(xs[i])
	}
	return strings.Join(parts, " ")
}
