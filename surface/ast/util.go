package ast

import (
	"reflect"
)

func Equal(a, b Node) bool {
	return reflect.DeepEqual(a, b)
}

// IsComment returns true if x is a comment
func IsComment(x Node) bool {
	_, ok := x.(Comment)
	return ok
}
