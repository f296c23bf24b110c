// package tyctx implements the typing context used while elaborating equations.
//
// A Ctx owns an arena of local declarations.  Locals are handed out by Scopes,
// and are referenced by arena index and generation, so a local which outlives
// its Scope is detected instead of silently aliasing a newer declaration.
package tyctx

import (
	"context"
	"fmt"

	"myceliumweb.org/eqnc/inductive"
	"myceliumweb.org/eqnc/term"
)

// LocalDecl is the declaration of a local in the context
type LocalDecl struct {
	Local term.Local
	Type  term.Term
	// Value is set for let-bound locals
	Value term.Term
	Info  term.BinderInfo
}

type entry struct {
	decl LocalDecl
	live bool
}

// Ctx is a typing context for a single compilation task.
// It must not be shared between goroutines.
type Ctx struct {
	bgCtx context.Context
	env   inductive.Interface

	arena []entry
	gen   uint32
}

func New(ctx context.Context, env inductive.Interface) *Ctx {
	if env == nil {
		env = &inductive.Env{}
	}
	return &Ctx{
		bgCtx: ctx,
		env:   env,
	}
}

// Context returns the context.Context the typing context was created with.
func (c *Ctx) Context() context.Context {
	return c.bgCtx
}

func (c *Ctx) Env() inductive.Interface {
	return c.env
}

// Scope opens a new root scope.
func (c *Ctx) Scope() *Scope {
	return &Scope{c: c}
}

// NumLive returns the number of locals which have been acquired and not released.
func (c *Ctx) NumLive() (n int) {
	for _, ent := range c.arena {
		if ent.live {
			n++
		}
	}
	return n
}

// Lookup returns the declaration for l.
// It returns false if l was released, or was never acquired from this context.
func (c *Ctx) Lookup(l term.Local) (LocalDecl, bool) {
	if int(l.Idx) >= len(c.arena) {
		return LocalDecl{}, false
	}
	ent := c.arena[l.Idx]
	if !ent.live || ent.decl.Local.Gen != l.Gen {
		return LocalDecl{}, false
	}
	return ent.decl, true
}

// MustLookup is like Lookup, but panics if the local is not live.
func (c *Ctx) MustLookup(l term.Local) LocalDecl {
	decl, ok := c.Lookup(l)
	if !ok {
		panic(ErrReleased{Local: l})
	}
	return decl
}

// TypeOf returns the type of a live local
func (c *Ctx) TypeOf(l term.Local) term.Term {
	return c.MustLookup(l).Type
}

// ValueOf returns the value bound to a let-bound local.
func (c *Ctx) ValueOf(l term.Local) (term.Term, bool) {
	decl, ok := c.Lookup(l)
	if !ok || decl.Value == nil {
		return nil, false
	}
	return decl.Value, true
}

// MkLambda closes body over locals.
// The type of each local is abstracted over the locals before it.
// Let-bound locals become let terms.
func (c *Ctx) MkLambda(locals []term.Local, body term.Term) term.Term {
	return c.mkBinding(locals, body, false)
}

// MkPi is like MkLambda, but produces Pi binders.
func (c *Ctx) MkPi(locals []term.Local, body term.Term) term.Term {
	return c.mkBinding(locals, body, true)
}

func (c *Ctx) mkBinding(locals []term.Local, body term.Term, pi bool) term.Term {
	ret := term.Abstract(body, locals)
	for i := len(locals) - 1; i >= 0; i-- {
		decl := c.MustLookup(locals[i])
		ty := term.Abstract(decl.Type, locals[:i])
		if decl.Value != nil {
			ret = term.Let{
				Name:  decl.Local.Name,
				Type:  ty,
				Value: term.Abstract(decl.Value, locals[:i]),
				Body:  ret,
			}
			continue
		}
		b := term.Binder{Name: decl.Local.Name, Type: ty, Info: decl.Info}
		if pi {
			ret = term.Pi{Binder: b, Body: ret}
		} else {
			ret = term.Lam{Binder: b, Body: ret}
		}
	}
	return ret
}

func (c *Ctx) acquire(decl LocalDecl) term.Local {
	c.checkLive(decl.Type)
	if decl.Value != nil {
		c.checkLive(decl.Value)
	}
	c.gen++
	l := term.Local{
		Idx:  uint32(len(c.arena)),
		Gen:  c.gen,
		Name: decl.Local.Name,
	}
	decl.Local = l
	c.arena = append(c.arena, entry{decl: decl, live: true})
	return l
}

func (c *Ctx) release(l term.Local) {
	if _, ok := c.Lookup(l); !ok {
		panic(ErrReleased{Local: l})
	}
	c.arena[l.Idx].live = false
	// reclaim the tail of the arena
	for len(c.arena) > 0 && !c.arena[len(c.arena)-1].live {
		c.arena = c.arena[:len(c.arena)-1]
	}
}

// checkLive panics if t refers to a local which is not live
func (c *Ctx) checkLive(t term.Term) {
	term.Walk(t, func(x term.Term, _ uint32) bool {
		if l, ok := x.(term.Local); ok {
			c.MustLookup(l)
		}
		return true
	})
}

// ErrReleased is the panic value when a local is used after its scope was released.
type ErrReleased struct {
	Local term.Local
}

func (e ErrReleased) Error() string {
	return fmt.Sprintf("local %s (idx=%d gen=%d) is not live in this context", e.Local.Name, e.Local.Idx, e.Local.Gen)
}
