package elab

// Scope maps binder names to de Bruijn indices.
// Each Scope binds a single name, the innermost binding of a name wins.
type Scope struct {
	Parent *Scope
	Name   string
}

// Find returns the de Bruijn index of k.
func (s *Scope) Find(k string) (uint32, bool) {
	var n uint32
	for ; s != nil; s = s.Parent {
		if s.Name == k {
			return n, true
		}
		n++
	}
	return 0, false
}

// Child returns a scope which binds name inside s.
func (s *Scope) Child(name string) *Scope {
	return &Scope{Parent: s, Name: name}
}

// Depth returns the number of names bound by s.
func (s *Scope) Depth() (n uint32) {
	for ; s != nil; s = s.Parent {
		n++
	}
	return n
}

// At returns the name bound at de Bruijn index i.
func (s *Scope) At(i uint32) (string, bool) {
	for ; s != nil; s = s.Parent {
		if i == 0 {
			return s.Name, true
		}
		i--
	}
	return "", false
}

// Binds returns true if k is bound anywhere in s.
func (s *Scope) Binds(k string) bool {
	_, ok := s.Find(k)
	return ok
}
