package lexer

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

type stateFunc func() stateFunc

type Lexer struct {
	r io.RuneReader

	peeking   []rune
	err       error
	state     stateFunc
	bufOffset Pos
	buf       []rune
	output    chan Token
}

func NewLexer(r io.RuneReader) *Lexer {
	l := &Lexer{
		r: r,

		output: make(chan Token, 2),
	}
	l.state = l.lexInit
	return l
}

// Next returns the next token.
// Once the input is exhausted, Next returns EOF tokens forever.
func (l *Lexer) Next() (Token, error) {
	for len(l.output) == 0 && l.err == nil {
		nextState := l.state()
		l.state = nextState
	}
	if l.err != nil {
		return Token{}, l.err
	}
	tok := <-l.output
	return tok, nil
}

// emit creates a token from the current buffer with type ty and emits it.
// emit clears the buffer
func (l *Lexer) emit(ty TokenType) {
	if ty == EOF {
		l.buf = append(l.buf[:0], eofRune)
	}
	tokSize := Pos(len(l.buf))
	l.output <- Token{
		ty: ty,
		span: Span{
			Begin: l.bufOffset,
			End:   l.bufOffset + tokSize,
		},
		text: string(l.buf),
	}
	l.bufOffset += tokSize
	l.buf = l.buf[:0]
}

// read consumes input
// if an error is encountered it sets l.err and returns eofRune
func (l *Lexer) read() rune {
	if len(l.peeking) > 0 {
		var r rune
		l.peeking, r = pop(l.peeking)
		l.buf = append(l.buf, r)
		return r
	}
	r, _, err := l.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.err = err
			return eofRune
		}
		r = eofRune
	}
	l.buf = append(l.buf, r)
	return r
}

// back puts the last rune read back into the input, ahead of everything.
func (l *Lexer) back() {
	var r rune
	l.buf, r = pop(l.buf)
	l.peeking = append(l.peeking, r)
}

// peek returns the result of the next call to read without affecting the lexer's position.
func (l *Lexer) peek() rune {
	if len(l.peeking) == 0 {
		l.read()
		l.back()
	}
	return l.peeking[len(l.peeking)-1]
}

// lexInit is the initial state of the lexer
func (l *Lexer) lexInit() stateFunc {
	r := l.read()
	switch {
	case r == eofRune:
		return l.lexEnd
	case isWhitespace(r):
		l.back()
		return l.skipWhitespace
	case r == '(':
		l.emit(LParen)
	case r == ')':
		l.emit(RParen)
	case r == '[':
		l.emit(LBracket)
	case r == ']':
		l.emit(RBracket)
	case isDigit(r):
		l.back()
		return l.lexInt
	case r == ';':
		if l.accept(";") {
			return l.lexComment
		}
		return l.errorf("single ; is not a comment, use ;;")
	case r == '%':
		l.back()
		return l.lexParam
	case r == '!':
		return l.lexPrim
	case isLetter(r) || isOneOf(r, operatorChars):
		l.back()
		return l.lexSymbol
	default:
		return l.errorf("illegal character %q at %d", r, l.bufOffset)
	}
	return l.lexInit
}

func (l *Lexer) lexSymbol() stateFunc {
	l.accum(isSymbol)
	if !l.terminated() {
		return l.errorf("improperly terminated symbol %q", l.peek())
	}
	l.emit(Symbol)
	return l.lexInit
}

func (l *Lexer) lexInt() stateFunc {
	digits := "0123456789"
	if l.accept("0") {
		if l.accept("x") {
			digits = "0123456789abcdefABCDEF"
		}
	}
	digits += "_"
	l.acceptRun(digits)
	if !l.terminated() {
		return l.errorf("improperly terminated number %q", l.peek())
	}
	l.emit(Int)
	return l.lexInit
}

func (l *Lexer) lexComment() stateFunc {
	l.accum(func(r rune) bool {
		switch r {
		case '\n', eofRune:
			return false
		default:
			return true
		}
	})
	l.emit(CommentOneLine)
	return l.lexInit
}

func (l *Lexer) lexParam() stateFunc {
	if !l.accept("%") {
		panic("param must start with %")
	}
	if !isDecimal(l.peek()) {
		return l.errorf("%% must be followed by an index")
	}
	l.acceptRun("0123456789")
	l.emit(Param)
	return l.lexInit
}

func (l *Lexer) lexPrim() stateFunc {
	l.accum(isSymbol)
	if len(l.buf) == 1 {
		return l.errorf("! must be followed by a name")
	}
	if !l.terminated() {
		return l.errorf("improperly terminated primitive %q", l.peek())
	}
	l.emit(Primitive)
	return l.lexInit
}

// lexEnd is the terminal state of the lexer, indicating that it will only return EOF tokens.
func (l *Lexer) lexEnd() stateFunc {
	l.emit(EOF)
	return l.lexEnd
}

// terminated returns true if the next rune can end a token
func (l *Lexer) terminated() bool {
	r := l.peek()
	return isWhitespace(r) || isOneOf(r, "()[];") || r == eofRune
}

func (l *Lexer) accept(valid string) bool {
	if r := l.read(); strings.ContainsRune(valid, r) {
		return true
	}
	l.back()
	return false
}

func (l *Lexer) acceptRun(valid string) {
	for l.accept(valid) {
	}
}

func (l *Lexer) ignore() {
	l.buf, _ = pop(l.buf)
	l.bufOffset++
}

func (l *Lexer) accum(fn func(rune) bool) {
	for {
		r := l.read()
		if !fn(r) {
			l.back()
			return
		}
	}
}

// skipWhitespace advances through the whitespace without emitting any tokens.
func (l *Lexer) skipWhitespace() stateFunc {
	for {
		r := l.read()
		if isWhitespace(r) {
			l.ignore()
		} else {
			l.back()
			return l.lexInit
		}
	}
}

func (l *Lexer) errorf(fstr string, args ...any) stateFunc {
	l.err = fmt.Errorf(fstr, args...)
	return l.lexEnd
}

const operatorChars = "-+*=<>./?'"

func isWhitespace(ch rune) bool {
	return ch != eofRune && unicode.IsSpace(ch)
}
func isSymbol(ch rune) bool {
	return isAlphanum(ch) || isOneOf(ch, operatorChars+"!")
}
func isAlphanum(ch rune) bool {
	return isLetter(ch) || isDigit(ch)
}
func isLetter(ch rune) bool {
	return 'a' <= lower(ch) && lower(ch) <= 'z' || ch == '_' || ch >= utf8.RuneSelf && unicode.IsLetter(ch)
}
func isDigit(ch rune) bool {
	return isDecimal(ch) || ch >= utf8.RuneSelf && unicode.IsDigit(ch)
}
func lower(ch rune) rune     { return ('a' - 'A') | ch } // returns lower-case ch iff ch is ASCII letter
func isDecimal(ch rune) bool { return '0' <= ch && ch <= '9' }

func isOneOf(ch rune, xs string) bool {
	return ch >= 0 && strings.ContainsRune(xs, ch)
}

func pop[E any, S ~[]E](s S) (S, E) {
	l := len(s)
	return s[:l-1], s[l-1]
}

const eofRune = -1
