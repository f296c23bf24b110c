package parser

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"myceliumweb.org/eqnc/internal/ringbuf"
	"myceliumweb.org/eqnc/surface/ast"
	"myceliumweb.org/eqnc/surface/lexer"
)

type (
	Token = lexer.Token
	Pos   = lexer.Pos
	Node  = ast.Node
)

// Span is the region of the input covered by a node.
// Children parallels the elements of an SExpr or Array.
type Span struct {
	Bound    lexer.Span
	Children []Span
}

// Error is a syntax error at a position in the input.
type Error struct {
	Pos Pos
	Msg string
}

func (e Error) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

type Parser struct {
	lex   *lexer.Lexer
	inBuf ringbuf.RingBuf[Token]
}

func NewParser(r io.RuneReader) *Parser {
	return &Parser{
		lex:   lexer.NewLexer(r),
		inBuf: ringbuf.New[Token](2),
	}
}

// ParseAST parses the next node.
// It returns a nil Node at the end of the input.
func (p *Parser) ParseAST() (Span, Node, error) {
	tok, err := p.next()
	if err != nil {
		return Span{}, nil, err
	}
	switch tok.Type() {
	case lexer.EOF:
		return Span{}, nil, nil
	case lexer.Int:
		return p.parseInt(tok)
	case lexer.Symbol:
		return Span{Bound: tok.Span()}, ast.Symbol(tok.Text()), nil
	case lexer.Primitive:
		return Span{Bound: tok.Span()}, ast.Op(tok.Text()[1:]), nil
	case lexer.Param:
		return p.parseParam(tok)
	case lexer.CommentOneLine:
		return Span{Bound: tok.Span()}, ast.Comment(tok.Text()[2:]), nil
	case lexer.LParen:
		p.back(tok)
		return p.ParseSExpr()
	case lexer.LBracket:
		p.back(tok)
		return p.parseArray()
	default:
		return Span{}, nil, Error{Pos: tok.Span().Begin, Msg: fmt.Sprintf("unexpected token %v", tok)}
	}
}

func (p *Parser) ParseSExpr() (Span, Node, error) {
	span, nodes, err := p.parseCompound(lexer.LParen, lexer.RParen)
	if err != nil {
		return Span{}, nil, err
	}
	return span, ast.SExpr(nodes), nil
}

func (p *Parser) parseArray() (Span, Node, error) {
	span, nodes, err := p.parseCompound(lexer.LBracket, lexer.RBracket)
	if err != nil {
		return Span{}, nil, err
	}
	return span, ast.Array(nodes), nil
}

func (p *Parser) parseCompound(beg, end lexer.TokenType) (Span, []Node, error) {
	tok, err := p.next()
	if err != nil {
		return Span{}, nil, err
	}
	if tok.Type() != beg {
		panic(tok)
	}
	span := Span{Bound: tok.Span()}
	exprs := []Node{}
	for {
		tok, err := p.next()
		if err != nil {
			return Span{}, nil, err
		}
		switch tok.Type() {
		case end:
			span.Bound.End = tok.Span().End
			return span, exprs, nil
		case lexer.EOF:
			return Span{}, nil, Error{Pos: span.Bound.Begin, Msg: "unclosed expression"}
		}
		p.back(tok)
		span2, subExpr, err := p.ParseAST()
		if err != nil {
			return Span{}, nil, err
		}
		span.Children = append(span.Children, span2)
		exprs = append(exprs, subExpr)
	}
}

func (p *Parser) parseInt(tok Token) (Span, Node, error) {
	text := strings.ReplaceAll(tok.Text(), "_", "")
	base := 10
	if strings.HasPrefix(text, "0x") {
		text, base = text[2:], 16
	}
	n, ok := new(big.Int).SetString(text, base)
	if !ok {
		return Span{}, nil, Error{Pos: tok.Span().Begin, Msg: fmt.Sprintf("invalid number %v", tok)}
	}
	return Span{Bound: tok.Span()}, ast.NewBigInt(n), nil
}

func (p *Parser) parseParam(tok Token) (Span, Node, error) {
	n, err := strconv.ParseUint(tok.Text()[1:], 10, 32)
	if err != nil {
		return Span{}, nil, Error{Pos: tok.Span().Begin, Msg: err.Error()}
	}
	return Span{Bound: tok.Span()}, ast.Param(n), nil
}

func (p *Parser) fill(n int) error {
	for p.inBuf.Len() < n {
		tok, err := p.lex.Next()
		if err != nil {
			return err
		}
		p.inBuf.PushBack(tok)
		if tok.Type() == lexer.EOF {
			break
		}
	}
	return nil
}

func (p *Parser) next() (ret Token, _ error) {
	if err := p.fill(1); err != nil {
		return Token{}, err
	}
	return p.inBuf.PopFront(), nil
}

func (p *Parser) back(tok Token) {
	p.inBuf.PushFront(tok)
}

// ReadAll parses nodes until the end of the input.
// The returned Span has one child per node.
func ReadAll(p *Parser) (rootSpan Span, ret []Node, _ error) {
	for {
		span, e, err := p.ParseAST()
		if err != nil {
			return span, nil, err
		}
		if e == nil {
			break
		}
		rootSpan.Children = append(rootSpan.Children, span)
		ret = append(ret, e)
	}
	if len(rootSpan.Children) > 0 {
		rootSpan.Bound.Begin = rootSpan.Children[0].Bound.Begin
		rootSpan.Bound.End = rootSpan.Children[len(rootSpan.Children)-1].Bound.End
	}
	return rootSpan, ret, nil
}

// ParseString parses every node in src.
func ParseString(src string) (Span, []Node, error) {
	return ReadAll(NewParser(strings.NewReader(src)))
}
