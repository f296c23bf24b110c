package inductive

import "myceliumweb.org/eqnc/term"

var _ Interface = Stack{}

// Stack answers each question from the first environment which declares the name.
type Stack []Interface

func (s Stack) IsInductive(name term.Name) bool {
	_, ok := s.find(name)
	return ok
}

func (s Stack) IsInductiveTerm(t term.Term) bool {
	k, ok := term.GetAppFn(t).(term.Const)
	return ok && s.IsInductive(k.Name)
}

func (s Stack) IsConstructor(t term.Term) (term.Name, bool) {
	for _, env := range s {
		if name, ok := env.IsConstructor(t); ok {
			return name, true
		}
	}
	return "", false
}

func (s Stack) NumParams(name term.Name) int {
	if env, ok := s.find(name); ok {
		return env.NumParams(name)
	}
	return 0
}

func (s Stack) NumIndices(name term.Name) int {
	if env, ok := s.find(name); ok {
		return env.NumIndices(name)
	}
	return 0
}

func (s Stack) find(name term.Name) (Interface, bool) {
	for _, env := range s {
		if env.IsInductive(name) {
			return env, true
		}
	}
	return nil, false
}
