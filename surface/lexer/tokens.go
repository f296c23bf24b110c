package lexer

import "fmt"

type TokenType int

const (
	// Special tokens
	Illegal TokenType = iota
	EOF

	Symbol    // Nat.succ ->
	Int       // 12345
	Param     // %0 %1 %2
	Primitive // !equations

	LParen   // (
	RParen   // )
	LBracket // [
	RBracket // ]

	// CommentOneLine starts a single line comment
	CommentOneLine
)

func (ty TokenType) String() string {
	switch ty {
	case Illegal:
		return "Illegal"
	case EOF:
		return "EOF"
	case Symbol:
		return "Symbol"
	case Int:
		return "Int"
	case Param:
		return "Param"
	case Primitive:
		return "Primitive"
	case LParen, RParen, LBracket, RBracket:
		return "Delim"
	case CommentOneLine:
		return "Comment"
	default:
		return fmt.Sprintf("TokenType(%d)", int(ty))
	}
}

type Token struct {
	ty   TokenType
	text string
	span Span
}

func (tok Token) Type() TokenType { return tok.ty }

func (tok Token) Text() string {
	return tok.text
}

func (tok Token) String() string {
	switch tok.ty {
	case EOF:
		return "EOF"
	}
	return fmt.Sprintf("%q", tok.text)
}

func (tok Token) Span() Span {
	return tok.span
}

func (tok Token) IsEOF() bool {
	return tok.Type() == EOF
}

func mkTok(ty TokenType, beg Pos) Token {
	text := map[TokenType]string{
		LParen:   "(",
		RParen:   ")",
		LBracket: "[",
		RBracket: "]",
	}[ty]
	return Token{
		ty:   ty,
		text: text,
		span: Span{
			beg,
			beg + Pos(len(text)),
		},
	}
}

// Pos is a position within the input, counted in runes.
type Pos uint32

// Span is a region of the input
type Span struct {
	Begin Pos
	End   Pos
}

// Loc is a human readable position
type Loc struct {
	Line, Col int
}

func (l Loc) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

// LocOf returns the 1-based line and column of pos in src.
func LocOf(src string, pos Pos) Loc {
	loc := Loc{Line: 1, Col: 1}
	var i Pos
	for _, r := range src {
		if i == pos {
			break
		}
		if r == '\n' {
			loc.Line++
			loc.Col = 1
		} else {
			loc.Col++
		}
		i++
	}
	return loc
}
