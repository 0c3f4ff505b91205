package scan

import (
	"go/ast"
	"go/build/constraint"
	"runtime"
	"strings"
)

// IsTemplate reports whether f is a template file for the given build tag:
// its //go:build line is satisfied with tag set and unsatisfied without it.
// An empty tag makes every file a template.
func IsTemplate(f *ast.File, tag string) bool {
	if tag == "" {
		return true
	}
	expr := BuildConstraint(f)
	if expr == nil {
		return false
	}
	with := expr.Eval(func(t string) bool { return t == tag || hostTag(t) })
	without := expr.Eval(hostTag)
	return with && !without
}

// BuildConstraint returns the parsed //go:build line of f, or nil if it has none.
func BuildConstraint(f *ast.File) constraint.Expr {
	for _, cg := range f.Comments {
		if cg.Pos() > f.Package {
			break
		}
		for _, c := range cg.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return nil
			}
			return expr
		}
	}
	return nil
}

func hostTag(t string) bool {
	switch t {
	case runtime.GOOS, runtime.GOARCH, runtime.Compiler:
		return true
	case "unix":
		return runtime.GOOS != "windows" && runtime.GOOS != "plan9" && runtime.GOOS != "js" && runtime.GOOS != "wasip1"
	}
	return strings.HasPrefix(t, "go1.")
}
