package parser

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"myceliumweb.org/eqnc/surface/ast"
	"myceliumweb.org/eqnc/surface/lexer"
)

func TestParser(t *testing.T) {
	t.Parallel()
	type testCase struct {
		I string
		O Node
	}
	tcs := []testCase{
		{"1234", ast.NewUInt64(1234)},
		{"0x10", ast.NewUInt64(16)},
		{"1_000", ast.NewUInt64(1000)},
		{"(a b c)", ast.SExpr{ast.Symbol("a"), ast.Symbol("b"), ast.Symbol("c")}},
		{"()", ast.SExpr{}},
		{`[]`, ast.Array{}},
		{`[1 2 3 4]`, ast.Array{ast.NewUInt64(1), ast.NewUInt64(2), ast.NewUInt64(3), ast.NewUInt64(4)}},
		{";; this is a comment", ast.Comment(" this is a comment")},
		{"%0", ast.Param(0)},
		{"%13", ast.Param(13)},
		{"!no-eqn", ast.Op("no-eqn")},
		{"(fun [(x Nat)] x)", ast.SExpr{
			ast.Symbol("fun"),
			ast.Array{ast.SExpr{ast.Symbol("x"), ast.Symbol("Nat")}},
			ast.Symbol("x"),
		}},
	}
	for i, tc := range tcs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			p := NewParser(strings.NewReader(tc.I))
			span, expr, err := p.ParseAST()
			require.NoError(t, err)
			require.Equal(t, tc.O, expr)
			require.Equal(t, lexer.Span{Begin: 0, End: Pos(len(tc.I))}, span.Bound)
		})
	}
}

func TestSpans(t *testing.T) {
	t.Parallel()
	span, nodes, err := ParseString("(f [x] 1)\n  g")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Len(t, span.Children, 2)

	f := span.Children[0]
	require.Equal(t, lexer.Span{Begin: 0, End: 9}, f.Bound)
	require.Len(t, f.Children, 3)
	require.Equal(t, lexer.Span{Begin: 1, End: 2}, f.Children[0].Bound)
	require.Equal(t, lexer.Span{Begin: 3, End: 6}, f.Children[1].Bound)
	require.Equal(t, lexer.Span{Begin: 4, End: 5}, f.Children[1].Children[0].Bound)
	require.Equal(t, lexer.Span{Begin: 12, End: 13}, span.Children[1].Bound)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	for i, in := range []string{
		"(a b",
		")",
		"[a)",
		"(a ]",
		"%99999999999",
	} {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, _, err := ParseString(in)
			require.Error(t, err)
		})
	}
}
