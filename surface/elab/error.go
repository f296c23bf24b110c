package elab

import (
	"errors"
	"fmt"

	"myceliumweb.org/eqnc/surface/lexer"
)

// Error is an elaboration error at a location in a source file.
type Error struct {
	Filename string
	Span     lexer.Span
	Loc      lexer.Loc
	Cause    error
}

func (e Error) Error() string {
	return fmt.Sprintf("%s:%v: %v", e.Filename, e.Loc, e.Cause)
}

func (e Error) Unwrap() error {
	return e.Cause
}

// AsError returns the elaboration error in err's chain.
func AsError(err error) (Error, bool) {
	var target Error
	ok := errors.As(err, &target)
	return target, ok
}
