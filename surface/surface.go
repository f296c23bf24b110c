// package surface is the textual form of terms, equation bundles and inductive declarations.
package surface

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/surface/ast"
	"myceliumweb.org/eqnc/surface/elab"
	"myceliumweb.org/eqnc/surface/lexer"
	"myceliumweb.org/eqnc/surface/parser"
	"myceliumweb.org/eqnc/surface/printer"
	"myceliumweb.org/eqnc/term"
)

type File = elab.File

// ParseTerm parses and elaborates a single closed term.
func ParseTerm(src string) (term.Term, error) {
	span, nodes, err := parser.ParseString(src)
	if err != nil {
		return nil, syntaxError("", src, err)
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected exactly one term, HAVE: %d", len(nodes))
	}
	return elab.New("", src).Term(nil, nodes[0], span.Children[0])
}

// ParseFile parses and elaborates every declaration in src.
func ParseFile(filename, src string) (*File, error) {
	span, nodes, err := parser.ParseString(src)
	if err != nil {
		return nil, syntaxError(filename, src, err)
	}
	return elab.New(filename, src).File(nodes, span)
}

// PrintTerm prints t on a single line, in the raw form accepted by ParseTerm.
func PrintTerm(t term.Term) string {
	return printer.Printer{}.PrintString(elab.Delab(t))
}

// FormatTerm is like PrintTerm, but breaks long expressions over several lines.
func FormatTerm(t term.Term) string {
	return printer.Printer{Indent: "  "}.PrintString(elab.Delab(t))
}

// FormatInductive prints a declaration in the form accepted by ParseFile.
func FormatInductive(ind inductive.Inductive) string {
	return printer.Printer{Indent: "  "}.PrintString(elab.DelabInductive(ind))
}

// FormatFile prints every declaration in f, inductives first.
func FormatFile(f *File) string {
	var nodes []ast.Node
	for _, ind := range f.Inductives {
		nodes = append(nodes, elab.DelabInductive(ind))
	}
	for _, b := range f.Bundles {
		nodes = append(nodes, elab.Delab(b.Term))
	}
	var out []byte
	for _, n := range nodes {
		out = append(out, printer.Printer{Indent: "  "}.PrintString(n)...)
		out = append(out, '\n')
	}
	return string(out)
}

// syntaxError attaches a line and column to a parser error.
func syntaxError(filename, src string, err error) error {
	var perr parser.Error
	if !errors.As(err, &perr) {
		return err
	}
	return elab.Error{
		Filename: filename,
		Span:     lexer.Span{Begin: perr.Pos, End: perr.Pos},
		Loc:      lexer.LocOf(src, perr.Pos),
		Cause:    errors.New(perr.Msg),
	}
}

// Prelude returns the declarations in prelude.eq
func Prelude() []inductive.Inductive {
	return slices.Clone(preludeDecls)
}

// PreludeEnv returns an environment containing the prelude
func PreludeEnv() *inductive.Env {
	return preludeEnv
}

//go:embed prelude.eq
var preludeFile string

var (
	preludeDecls []inductive.Inductive
	preludeEnv   *inductive.Env
)

func init() {
	f, err := ParseFile("prelude.eq", preludeFile)
	if err != nil {
		panic(err)
	}
	env, err := inductive.NewEnv(f.Inductives...)
	if err != nil {
		panic(err)
	}
	preludeDecls = f.Inductives
	preludeEnv = env
}
