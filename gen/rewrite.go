package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/format"
	"go/token"
	"path/filepath"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/chazu/switchstr"
	"github.com/chazu/switchstr/scan"
)

// rewriteFile turns template f into its generated counterpart: every site
// dispatches on its Site's index, the build constraint is inverted, and a
// switchstr import left unused is dropped.
func rewriteFile(pkg *scan.Package, f *ast.File, sites []*scan.Site, opts Options) ([]byte, error) {
	path := pkg.Fset.Position(f.Pos()).Filename

	expr := scan.BuildConstraint(f)
	if expr == nil {
		return nil, fmt.Errorf("no //go:build line")
	}
	buildLine := "//go:build " + negateTag(expr, opts.Tag).String()

	replaced := make(map[*ast.Ident]bool)
	for _, s := range sites {
		replaced[onIdent(s.Call)] = true
		rewriteSite(s)
	}
	dropUnusedImport(pkg, f, replaced)
	stripBuildLines(f)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by switchstr from %s. DO NOT EDIT.\n\n", filepath.Base(path))
	fmt.Fprintf(&buf, "%s\n\n", buildLine)
	if err := format.Node(&buf, pkg.Fset, f); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

// rewriteSite replaces the On tag with <site>Site.Resolve(subject) and
// every label with its case index. Clause bodies are left alone, so break,
// continue, fallthrough, goto and labeled statements keep their meaning.
func rewriteSite(s *scan.Site) {
	s.Switch.Tag = &ast.CallExpr{
		Fun: &ast.SelectorExpr{
			X:   &ast.Ident{NamePos: s.Call.Pos(), Name: scan.SiteVar(s.Name)},
			Sel: ast.NewIdent("Resolve"),
		},
		Lparen: s.Call.Lparen,
		Args:   []ast.Expr{s.Subject},
		Rparen: s.Subject.End(),
	}
	for _, b := range s.Branches {
		for j, l := range b.Labels {
			b.Clause.List[j] = &ast.BasicLit{
				ValuePos: l.Expr.Pos(),
				Kind:     token.INT,
				Value:    strconv.Itoa(l.Index),
			}
		}
	}
}

func onIdent(call *ast.CallExpr) *ast.Ident {
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun
	case *ast.SelectorExpr:
		return fun.Sel
	}
	return nil
}

func dropUnusedImport(pkg *scan.Package, f *ast.File, replaced map[*ast.Ident]bool) {
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != switchstr.ImportPath {
			continue
		}
		name := ""
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" || stillUsed(pkg, f, replaced) {
			return
		}
		astutil.DeleteNamedImport(pkg.Fset, f, name, path)
		return
	}
}

// stillUsed reports whether f refers to the switchstr package other than
// through the On calls that were rewritten.
func stillUsed(pkg *scan.Package, f *ast.File, replaced map[*ast.Ident]bool) bool {
	if pkg.Info == nil {
		return astutil.UsesImport(f, switchstr.ImportPath)
	}
	for id, obj := range pkg.Info.Uses {
		if replaced[id] || id.Pos() < f.FileStart || id.Pos() >= f.FileEnd {
			continue
		}
		if obj.Pkg() != nil && obj.Pkg().Path() == switchstr.ImportPath {
			return true
		}
	}
	return false
}

// stripBuildLines removes //go:build and // +build lines above the package
// clause; the generated header carries the inverted constraint instead.
func stripBuildLines(f *ast.File) {
	var groups []*ast.CommentGroup
	for _, cg := range f.Comments {
		if cg.Pos() > f.Package {
			groups = append(groups, cg)
			continue
		}
		var kept []*ast.Comment
		for _, c := range cg.List {
			if constraint.IsGoBuild(c.Text) || constraint.IsPlusBuild(c.Text) {
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) > 0 {
			cg.List = kept
			groups = append(groups, cg)
		}
	}
	f.Comments = groups
}

// negateTag replaces every occurrence of tag in x with !tag.
func negateTag(x constraint.Expr, tag string) constraint.Expr {
	switch x := x.(type) {
	case *constraint.TagExpr:
		if x.Tag == tag {
			return &constraint.NotExpr{X: x}
		}
		return x
	case *constraint.NotExpr:
		if t, ok := x.X.(*constraint.TagExpr); ok && t.Tag == tag {
			return t
		}
		return &constraint.NotExpr{X: negateTag(x.X, tag)}
	case *constraint.AndExpr:
		return &constraint.AndExpr{X: negateTag(x.X, tag), Y: negateTag(x.Y, tag)}
	case *constraint.OrExpr:
		return &constraint.OrExpr{X: negateTag(x.X, tag), Y: negateTag(x.Y, tag)}
	}
	return x
}
