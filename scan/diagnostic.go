package scan

import (
	"fmt"
	"go/token"
	"strings"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic codes.
const (
	CodeUnlistedCase   = "unlisted-case"
	CodeRepetitiveCase = "repetitive-case"
	CodeNonConstant    = "non-constant"
	CodeMisplacedOn    = "misplaced-on"
	CodeSpreadCases    = "spread-cases"
	CodeNameConflict   = "name-conflict"
	CodeInvalidName    = "invalid-name"
	CodeNotTemplate    = "not-template"
)

// Diagnostic is a positioned problem found while scanning.
type Diagnostic struct {
	Pos      token.Pos
	End      token.Pos
	Severity Severity
	Code     string
	Message  string

	// Related points at the earlier occurrence of a repetitive case.
	Related token.Pos
}

// ErrorList is the error returned when a package has error diagnostics.
type ErrorList struct {
	Fset        *token.FileSet
	Diagnostics []Diagnostic
}

// Errors returns the error diagnostics of r bundled as an error, or nil.
func (r *Result) Errors(fset *token.FileSet) error {
	var errs []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ErrorList{Fset: fset, Diagnostics: errs}
}

func (e *ErrorList) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, fmt.Sprintf("%s: %s", e.Fset.Position(d.Pos), d.Message))
	}
	return strings.Join(lines, "\n")
}
