package switchstr

import (
	"sync"
	"sync/atomic"
)

// Site is the index resolver owned by one selection statement. It maps a
// subject string to the position of the equal case in its registry, or to
// the registry length when no case matches.
//
// The lookup map is built on the first call to Resolve or Lookup and then
// read without locking for the rest of the process.
type Site struct {
	reg Registry

	once   sync.Once
	index  map[string]int
	builds atomic.Int32
}

// NewSite returns the resolver for a switch over cases. It panics with a
// *CaseError if a case is repeated, so a bad case set declared in a
// package-level var aborts initialization.
func NewSite(cases ...string) *Site {
	reg := NewRegistry(cases...)
	if err := reg.Check(); err != nil {
		panic(err)
	}
	return &Site{reg: reg}
}

func (s *Site) build() {
	m := make(map[string]int, len(s.reg.cases))
	for i, c := range s.reg.cases {
		m[c] = i
	}
	s.index = m
	s.builds.Add(1)
}

// Resolve returns the dispatch index of subject: its position in the case
// set, or Sentinel() if it matches no case.
func (s *Site) Resolve(subject string) int {
	s.once.Do(s.build)
	if i, ok := s.index[subject]; ok {
		return i
	}
	return len(s.reg.cases)
}

// Lookup is like Resolve but reports whether subject matched.
func (s *Site) Lookup(subject string) (int, bool) {
	s.once.Do(s.build)
	i, ok := s.index[subject]
	return i, ok
}

// Case returns the dispatch index of a branch label. It panics with a
// *CaseError wrapping ErrUnlistedCase if label is not in the case set.
func (s *Site) Case(label string) int {
	i, ok := s.reg.Position(label)
	if !ok {
		panic(unlisted(label))
	}
	return i
}

// Sentinel returns the index Resolve yields for a subject that matches no
// case. It never equals a valid case index.
func (s *Site) Sentinel() int {
	return len(s.reg.cases)
}

// Registry returns the case set.
func (s *Site) Registry() Registry {
	return s.reg
}

// Builds returns how many times the lookup map has been built: 0 before
// first use, 1 afterwards.
func (s *Site) Builds() int {
	return int(s.builds.Load())
}
