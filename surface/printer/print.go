package printer

import (
	"fmt"
	"io"
	"strings"

	"myceliumweb.org/eqnc/surface/ast"
)

type AST = ast.Node

// Writer is used by the Print functions
type Writer interface {
	io.Writer
	io.StringWriter
	io.ByteWriter
}

type Printer struct {
	// Indent is written once per level of nesting, when a compound node does not fit on one line.
	// If Indent is empty, everything is printed on one line.
	Indent string
	// Width is the line width used to decide when to break, the default is 80
	Width int
}

func (p Printer) PrintString(x AST) string {
	sb := strings.Builder{}
	if err := p.Print(&sb, x); err != nil {
		return err.Error()
	}
	return sb.String()
}

func (p Printer) Print(w Writer, x AST) error {
	return p.printExpr(w, x, 0)
}

// PrintAll prints each node on its own line.
func (p Printer) PrintAll(w Writer, xs []AST) error {
	for i, x := range xs {
		if i > 0 {
			if _, ok := xs[i-1].(ast.Comment); !ok {
				if err := w.WriteByte('\n'); err != nil {
					return err
				}
			}
		}
		if err := p.Print(w, x); err != nil {
			return err
		}
	}
	if len(xs) > 0 {
		if _, ok := xs[len(xs)-1].(ast.Comment); !ok {
			return w.WriteByte('\n')
		}
	}
	return nil
}

func (p Printer) width() int {
	if p.Width > 0 {
		return p.Width
	}
	return 80
}

func (p Printer) printExpr(w Writer, e AST, depth int) error {
	switch e := e.(type) {
	case ast.SExpr:
		return p.printCompound(w, "(", ")", e, depth)
	case ast.Array:
		return p.printCompound(w, "[", "]", e, depth)

	// Leaves
	case ast.Symbol:
		_, err := w.WriteString(string(e))
		return err
	case ast.Int:
		_, err := w.WriteString(e.BigInt().String())
		return err
	case ast.Param, ast.Op, ast.Comment:
		_, err := fmt.Fprintf(w, "%v", e)
		return err
	default:
		return fmt.Errorf("printer: cannot print %T", e)
	}
}

func (p Printer) printCompound(w Writer, open, close string, xs []AST, depth int) error {
	flat := Printer{}.PrintString(compound(open, xs))
	broken := p.Indent != "" && (len(flat)+depth*len(p.Indent) > p.width() || hasComment(xs))
	if _, err := w.WriteString(open); err != nil {
		return err
	}
	for i, x := range xs {
		if i > 0 {
			if !broken {
				if _, err := w.WriteString(" "); err != nil {
					return err
				}
			} else if _, isComment := xs[i-1].(ast.Comment); !isComment {
				if err := w.WriteByte('\n'); err != nil {
					return err
				}
			}
			if broken {
				if _, err := w.WriteString(strings.Repeat(p.Indent, depth+1)); err != nil {
					return err
				}
			}
		}
		if err := p.printExpr(w, x, depth+1); err != nil {
			return err
		}
	}
	_, err := w.WriteString(close)
	return err
}

func compound(open string, xs []AST) AST {
	if open == "[" {
		return ast.Array(xs)
	}
	return ast.SExpr(xs)
}

func hasComment(xs []AST) bool {
	for _, x := range xs {
		if ast.IsComment(x) {
			return true
		}
	}
	return false
}
