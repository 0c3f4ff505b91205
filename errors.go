package switchstr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnlistedCase reports a branch label that is not in the case set.
	ErrUnlistedCase = errors.New("unlisted case")

	// ErrRepetitiveCase reports a label that appears more than once, either
	// in the case set or among the branches of one switch.
	ErrRepetitiveCase = errors.New("repetitive case")
)

// CaseError describes a rejected label.
type CaseError struct {
	Kind  error  // ErrUnlistedCase or ErrRepetitiveCase
	Label string // offending label text

	// Position is the index of the label in the case set, or -1 when the
	// label is unlisted. Previous is the index of the earlier occurrence
	// for a repetitive case set entry, -1 otherwise.
	Position int
	Previous int
}

func (e *CaseError) Error() string {
	switch {
	case e.Kind == ErrRepetitiveCase && e.Previous >= 0:
		return fmt.Sprintf("%v %q in case set: positions %d and %d", e.Kind, e.Label, e.Previous, e.Position)
	default:
		return fmt.Sprintf("%v %q", e.Kind, e.Label)
	}
}

func (e *CaseError) Unwrap() error {
	return e.Kind
}

func unlisted(label string) *CaseError {
	return &CaseError{Kind: ErrUnlistedCase, Label: label, Position: -1, Previous: -1}
}
