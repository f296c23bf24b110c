package tyctx

import (
	"slices"

	"myceliumweb.org/eqnc/term"
)

// Scope hands out fresh locals and releases all of them together.
// Scopes nest strictly: a Scope cannot be released while it has live children.
//
//	s := c.Scope()
//	defer s.Release()
type Scope struct {
	c        *Ctx
	parent   *Scope
	locals   []term.Local
	children int
	released bool
}

// Ctx returns the typing context the scope allocates from.
func (s *Scope) Ctx() *Ctx {
	return s.c
}

// Child opens a new scope nested in s.
func (s *Scope) Child() *Scope {
	s.mustBeLive()
	s.children++
	return &Scope{c: s.c, parent: s}
}

// Acquire returns a fresh local with the given type.
func (s *Scope) Acquire(name term.Name, ty term.Term) term.Local {
	return s.AcquireInfo(name, ty, term.Default)
}

// AcquireInfo is like Acquire, but sets the binder info used when the local is abstracted.
func (s *Scope) AcquireInfo(name term.Name, ty term.Term, info term.BinderInfo) term.Local {
	s.mustBeLive()
	l := s.c.acquire(LocalDecl{
		Local: term.Local{Name: name},
		Type:  ty,
		Info:  info,
	})
	s.locals = append(s.locals, l)
	return l
}

// AcquireLet returns a fresh local bound to val.
func (s *Scope) AcquireLet(name term.Name, ty, val term.Term) term.Local {
	s.mustBeLive()
	l := s.c.acquire(LocalDecl{
		Local: term.Local{Name: name},
		Type:  ty,
		Value: val,
	})
	s.locals = append(s.locals, l)
	return l
}

// Locals returns the locals acquired from s, in order of acquisition.
func (s *Scope) Locals() []term.Local {
	return slices.Clone(s.locals)
}

// Released returns true if Release has been called.
func (s *Scope) Released() bool {
	return s.released
}

// Release releases every local acquired from the scope.
// Calling Release more than once is a no-op.
func (s *Scope) Release() {
	if s.released {
		return
	}
	if s.children > 0 {
		panic("tyctx: scope released before its children")
	}
	for i := len(s.locals) - 1; i >= 0; i-- {
		s.c.release(s.locals[i])
	}
	s.locals = nil
	s.released = true
	if s.parent != nil {
		s.parent.children--
	}
}

func (s *Scope) mustBeLive() {
	if s.released {
		panic("tyctx: use of released scope")
	}
}
