package eqns

import (
	"errors"
	"fmt"
)

// ErrIllFormed is returned when a term does not have the shape of an equation bundle,
// or of a single equation.
type ErrIllFormed struct {
	Op  string
	Msg string
}

func (e ErrIllFormed) Error() string {
	return fmt.Sprintf("eqns: %s: ill-formed equations: %s", e.Op, e.Msg)
}

func IsIllFormed(err error) bool {
	var target ErrIllFormed
	return errors.As(err, &target)
}

func illFormed(op string, format string, args ...any) error {
	return ErrIllFormed{Op: op, Msg: fmt.Sprintf(format, args...)}
}
