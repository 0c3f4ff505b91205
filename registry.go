package switchstr

// Registry is the ordered case set of one selection site. The position of
// a case in the registry is its dispatch index. A Registry is immutable.
type Registry struct {
	cases []string
}

// NewRegistry returns a registry holding a copy of cases, in order.
// Duplicates are kept; use Check to find them.
func NewRegistry(cases ...string) Registry {
	return Registry{cases: append([]string(nil), cases...)}
}

// Len returns the number of cases. It is also the no-match sentinel.
func (r Registry) Len() int {
	return len(r.cases)
}

// At returns the case at position i. It panics if i is out of range.
func (r Registry) At(i int) string {
	return r.cases[i]
}

// Cases returns a copy of the cases in declaration order.
func (r Registry) Cases() []string {
	return append([]string(nil), r.cases...)
}

// Position returns the index of the first case equal to label. This is the
// label validator: it is a linear scan and is meant to run once per label,
// at build time or during package initialization, never per dispatch.
func (r Registry) Position(label string) (int, bool) {
	for i, c := range r.cases {
		if c == label {
			return i, true
		}
	}
	return -1, false
}

// Check reports the first case that repeats an earlier one.
func (r Registry) Check() error {
	seen := make(map[string]int, len(r.cases))
	for i, c := range r.cases {
		if prev, ok := seen[c]; ok {
			return &CaseError{Kind: ErrRepetitiveCase, Label: c, Position: i, Previous: prev}
		}
		seen[c] = i
	}
	return nil
}
