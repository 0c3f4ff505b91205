// Package scan finds string switch sites in Go source and validates their
// case labels.
package scan

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/chazu/switchstr"
)

// Package is a loaded Go package with the syntax and type information the
// scanner needs.
type Package struct {
	Path  string
	Name  string
	Dir   string
	Fset  *token.FileSet
	Files []*ast.File
	Types *types.Package
	Info  *types.Info
}

// Site is one `switch switchstr.On(subject, cases...)` statement.
type Site struct {
	Name     string // generated identifier prefix, e.g. "segment"
	Func     string // enclosing function, "" at package level
	Filename string
	File     *ast.File
	Template bool // file carries the template build tag

	Switch  *ast.SwitchStmt
	Call    *ast.CallExpr // the On call in the switch tag
	Subject ast.Expr

	Cases     []string
	CaseExprs []ast.Expr
	Branches  []*Branch

	// Checked is false when a case or label could not be resolved to a
	// constant string. Only happens without type information.
	Checked bool
}

// Registry returns the site's case set.
func (s *Site) Registry() switchstr.Registry {
	return switchstr.NewRegistry(s.Cases...)
}

// Branch is one case clause of a site.
type Branch struct {
	Clause *ast.CaseClause
	Labels []*Label // empty for the default clause
}

// IsDefault reports whether the branch is the default clause.
func (b *Branch) IsDefault() bool {
	return b.Clause.List == nil
}

// Label is one expression in a case clause.
type Label struct {
	Expr     ast.Expr
	Text     string
	Resolved bool
	Index    int // position in the case set, -1 if unlisted or unresolved
}

// Result is the outcome of scanning a set of files.
type Result struct {
	Sites       []*Site
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Templates returns the sites that live in template files.
func (r *Result) Templates() []*Site {
	var sites []*Site
	for _, s := range r.Sites {
		if s.Template {
			sites = append(sites, s)
		}
	}
	return sites
}
