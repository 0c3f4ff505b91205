// Package scantest type-checks in-memory Go sources against a stub of the
// switchstr package, for tests of code that consumes scan results.
package scantest

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/chazu/switchstr"
	"github.com/chazu/switchstr/scan"
)

// PkgPath is the import path given to checked sources.
const PkgPath = "example.com/segments"

const stubSource = `package switchstr

func On(subject string, cases ...string) string { return subject }

type Site struct{ cases []string }

func NewSite(cases ...string) *Site { return &Site{cases: cases} }

func (s *Site) Resolve(subject string) int { return len(s.cases) }
`

// File is one named source file.
type File struct {
	Name   string
	Source string
}

// Check parses and type-checks files as one package. Sources may import
// only the switchstr package. Duplicate case errors are ignored, as the
// scanner reports those itself.
func Check(t testing.TB, files ...File) *scan.Package {
	t.Helper()
	pkg, err := typeCheck(files, scan.IsDuplicateCase)
	if err != nil {
		t.Fatalf("type-checking sources: %v", err)
	}
	return pkg
}

// Parse parses files without type-checking them.
func Parse(t testing.TB, files ...File) (*token.FileSet, []*ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	var syntax []*ast.File
	for _, f := range files {
		af, err := parser.ParseFile(fset, f.Name, f.Source, parser.ParseComments)
		if err != nil {
			t.Fatalf("parsing %s: %v", f.Name, err)
		}
		syntax = append(syntax, af)
	}
	return fset, syntax
}

// TypeCheck is like Check but returns the first parse or type error,
// duplicate cases included.
func TypeCheck(files ...File) (*scan.Package, error) {
	return typeCheck(files, func(string) bool { return false })
}

func typeCheck(files []File, ignore func(msg string) bool) (*scan.Package, error) {
	fset := token.NewFileSet()

	stubFile, err := parser.ParseFile(fset, "switchstr.go", stubSource, 0)
	if err != nil {
		return nil, err
	}
	stub, err := (&types.Config{}).Check(switchstr.ImportPath, fset, []*ast.File{stubFile}, nil)
	if err != nil {
		return nil, err
	}

	var syntax []*ast.File
	for _, f := range files {
		af, err := parser.ParseFile(fset, f.Name, f.Source, parser.ParseComments)
		if err != nil {
			return nil, err
		}
		syntax = append(syntax, af)
	}

	info := &types.Info{
		Types: make(map[ast.Expr]types.TypeAndValue),
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
	}
	var firstErr error
	conf := &types.Config{
		Importer: importerFunc(func(path string) (*types.Package, error) {
			if path == switchstr.ImportPath {
				return stub, nil
			}
			return nil, fmt.Errorf("scantest: cannot import %q", path)
		}),
		Error: func(err error) {
			if te, ok := err.(types.Error); ok && ignore(te.Msg) {
				return
			}
			if firstErr == nil {
				firstErr = err
			}
		},
	}
	tpkg, _ := conf.Check(PkgPath, fset, syntax, info)
	if firstErr != nil {
		return nil, firstErr
	}

	return &scan.Package{
		Path:  PkgPath,
		Name:  tpkg.Name(),
		Fset:  fset,
		Files: syntax,
		Types: tpkg,
		Info:  info,
	}, nil
}

type importerFunc func(path string) (*types.Package, error)

func (f importerFunc) Import(path string) (*types.Package, error) {
	return f(path)
}
