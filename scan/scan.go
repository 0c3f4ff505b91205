package scan

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"
	"strconv"

	"github.com/chazu/switchstr"
)

// Config controls a scan.
type Config struct {
	// Tag is the template build tag. Sites outside template files get a
	// warning. Empty means every file is a template.
	Tag string

	// RegistryFile is the base name of the generated registry file. Its
	// declarations are expected to match generated names and are not
	// reported as conflicts.
	RegistryFile string
}

// Scan finds and validates the sites of a type-checked package.
func (p *Package) Scan(cfg Config) *Result {
	return Files(p.Fset, p.Files, p.Info, p.Types, cfg)
}

// Files finds and validates the sites in files. With a nil info the scan
// is syntax-only: cases and labels must be string literals, and sites with
// anything else are reported unchecked instead of failing. pkg may be nil;
// when set, generated names are checked against its scope.
func Files(fset *token.FileSet, files []*ast.File, info *types.Info, pkg *types.Package, cfg Config) *Result {
	s := &scanner{
		fset:  fset,
		info:  info,
		pkg:   pkg,
		cfg:   cfg,
		res:   &Result{},
		names: make(map[string]*Site),
	}
	for _, f := range files {
		s.file(f)
	}
	return s.res
}

type scanner struct {
	fset  *token.FileSet
	info  *types.Info
	pkg   *types.Package
	cfg   Config
	res   *Result
	names map[string]*Site
}

func (s *scanner) report(d Diagnostic) {
	s.res.Diagnostics = append(s.res.Diagnostics, d)
}

func (s *scanner) errorf(node ast.Node, code, format string, args ...any) {
	s.report(Diagnostic{
		Pos:      node.Pos(),
		End:      node.End(),
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (s *scanner) file(f *ast.File) {
	fs := &fileScanner{
		scanner:    s,
		file:       f,
		filename:   s.fset.Position(f.Pos()).Filename,
		template:   IsTemplate(f, s.cfg.Tag),
		onNames:    onImportNames(f),
		directives: nameDirectives(s.fset, f),
		ordinals:   make(map[string]int),
		claimed:    make(map[*ast.CallExpr]bool),
	}
	for _, decl := range f.Decls {
		fn := ""
		if fd, ok := decl.(*ast.FuncDecl); ok {
			fn = fd.Name.Name
		}
		ast.Inspect(decl, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.SwitchStmt:
				if call, ok := n.Tag.(*ast.CallExpr); ok && fs.isOn(call) {
					fs.claimed[call] = true
					fs.site(fn, n, call)
				}
			case *ast.CallExpr:
				if !fs.claimed[n] && fs.isOn(n) {
					s.errorf(n, CodeMisplacedOn, "switchstr.On must be the tag of a switch statement")
				}
			}
			return true
		})
	}
}

type fileScanner struct {
	*scanner
	file       *ast.File
	filename   string
	template   bool
	onNames    onNames
	directives map[int]string // line of switch → directive name
	ordinals   map[string]int
	claimed    map[*ast.CallExpr]bool
}

// onNames records how a file refers to switchstr.On without type info.
type onNames struct {
	pkg string // local package name, "" if not imported
	dot bool   // dot-imported
}

func onImportNames(f *ast.File) onNames {
	var on onNames
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != switchstr.ImportPath {
			continue
		}
		switch {
		case imp.Name == nil:
			on.pkg = "switchstr"
		case imp.Name.Name == ".":
			on.dot = true
		case imp.Name.Name != "_":
			on.pkg = imp.Name.Name
		}
	}
	return on
}

// nameDirectives maps the line following each comment group that holds a
// name directive to the directive's name.
func nameDirectives(fset *token.FileSet, f *ast.File) map[int]string {
	names := make(map[int]string)
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if name, ok := parseNameDirective(c.Text); ok {
				names[fset.Position(cg.End()).Line+1] = name
			}
		}
	}
	return names
}

func (fs *fileScanner) isOn(call *ast.CallExpr) bool {
	var id *ast.Ident
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		id = fun
	case *ast.SelectorExpr:
		id = fun.Sel
	default:
		return false
	}
	if id.Name != "On" {
		return false
	}

	if fs.info != nil {
		obj, ok := fs.info.Uses[id].(*types.Func)
		return ok && obj.Pkg() != nil && obj.Pkg().Path() == switchstr.ImportPath
	}

	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fs.onNames.dot
	case *ast.SelectorExpr:
		x, ok := fun.X.(*ast.Ident)
		return ok && fs.onNames.pkg != "" && x.Name == fs.onNames.pkg
	}
	return false
}

func (fs *fileScanner) site(fn string, sw *ast.SwitchStmt, call *ast.CallExpr) {
	if call.Ellipsis.IsValid() {
		fs.errorf(call, CodeSpreadCases, "switchstr.On cases must be listed literally, not spread from a slice")
		return
	}
	if len(call.Args) == 0 {
		return
	}

	ordinal := fs.ordinals[fn]
	fs.ordinals[fn]++

	site := &Site{
		Name:     DefaultSiteName(fn, ordinal),
		Func:     fn,
		Filename: fs.filename,
		File:     fs.file,
		Template: fs.template,
		Switch:   sw,
		Call:     call,
		Subject:  call.Args[0],
		Checked:  true,
	}
	if name, ok := fs.directives[fs.fset.Position(sw.Pos()).Line]; ok {
		if !ValidSiteName(name) {
			fs.errorf(sw, CodeInvalidName, "invalid site name %q: must be a Go identifier", name)
			return
		}
		site.Name = name
	}

	fs.caseSet(site)
	fs.branches(site)
	fs.checkName(site)

	if !fs.template && fs.cfg.Tag != "" {
		fs.report(Diagnostic{
			Pos:      call.Pos(),
			End:      call.End(),
			Severity: SeverityWarning,
			Code:     CodeNotTemplate,
			Message:  fmt.Sprintf("switch is outside a template file and dispatches linearly; add //go:build %s to generate it", fs.cfg.Tag),
		})
	}

	fs.res.Sites = append(fs.res.Sites, site)
}

// caseSet resolves the case set and rejects repeated entries.
func (fs *fileScanner) caseSet(site *Site) {
	seen := make(map[string]int)
	for _, arg := range site.Call.Args[1:] {
		text, ok := fs.constString(arg)
		if !ok {
			if fs.info != nil {
				fs.errorf(arg, CodeNonConstant, "case set entry must be a constant string")
			}
			site.Checked = false
			continue
		}
		pos := len(site.Cases)
		if prev, dup := seen[text]; dup {
			err := &switchstr.CaseError{Kind: switchstr.ErrRepetitiveCase, Label: text, Position: pos, Previous: prev}
			fs.report(Diagnostic{
				Pos:      arg.Pos(),
				End:      arg.End(),
				Severity: SeverityError,
				Code:     CodeRepetitiveCase,
				Message:  err.Error(),
				Related:  site.CaseExprs[prev].Pos(),
			})
		} else {
			seen[text] = pos
		}
		site.Cases = append(site.Cases, text)
		site.CaseExprs = append(site.CaseExprs, arg)
	}
}

// branches validates every label against the case set: each must be
// listed, and no two labels of the switch may share a position.
func (fs *fileScanner) branches(site *Site) {
	reg := site.Registry()
	handled := make(map[int]*Label)
	for _, stmt := range site.Switch.Body.List {
		clause, ok := stmt.(*ast.CaseClause)
		if !ok {
			continue
		}
		b := &Branch{Clause: clause}
		for _, expr := range clause.List {
			l := &Label{Expr: expr, Index: -1}
			b.Labels = append(b.Labels, l)

			text, ok := fs.constString(expr)
			if !ok {
				if fs.info != nil {
					fs.errorf(expr, CodeNonConstant, "case label must be a constant string")
				}
				site.Checked = false
				continue
			}
			l.Text, l.Resolved = text, true

			if !site.Checked {
				// Positions are unreliable once a case set entry is unknown.
				continue
			}
			idx, ok := reg.Position(text)
			if !ok {
				fs.errorf(expr, CodeUnlistedCase, "unlisted case %q: not in the case set of switch %s", text, site.Name)
				continue
			}
			l.Index = idx
			if prev, dup := handled[idx]; dup {
				fs.report(Diagnostic{
					Pos:      expr.Pos(),
					End:      expr.End(),
					Severity: SeverityError,
					Code:     CodeRepetitiveCase,
					Message:  fmt.Sprintf("repetitive case %q: already handled at %s", text, fs.shortPos(prev.Expr.Pos())),
					Related:  prev.Expr.Pos(),
				})
				continue
			}
			handled[idx] = l
		}
		site.Branches = append(site.Branches, b)
	}
}

// checkName rejects two sites with one name, and generated names that
// collide with declarations outside the registry file.
func (fs *fileScanner) checkName(site *Site) {
	if !site.Template {
		return
	}
	if prev, ok := fs.names[site.Name]; ok {
		fs.errorf(site.Switch, CodeNameConflict, "site name %q already used by the switch at %s; add a %s directive", site.Name, fs.shortPos(prev.Switch.Pos()), NameDirective)
		return
	}
	fs.names[site.Name] = site

	if fs.pkg == nil {
		return
	}
	for _, name := range GeneratedNames(site.Name, len(site.Cases)) {
		obj := fs.pkg.Scope().Lookup(name)
		if obj == nil {
			continue
		}
		if filepath.Base(fs.fset.Position(obj.Pos()).Filename) == fs.cfg.RegistryFile {
			continue
		}
		fs.errorf(site.Switch, CodeNameConflict, "generated name %s for switch %s conflicts with the declaration at %s", name, site.Name, fs.shortPos(obj.Pos()))
	}
}

func (fs *fileScanner) constString(expr ast.Expr) (string, bool) {
	if fs.info != nil {
		tv, ok := fs.info.Types[expr]
		if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
			return "", false
		}
		return constant.StringVal(tv.Value), true
	}
	lit, ok := ast.Unparen(expr).(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	text, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return text, true
}

func (s *scanner) shortPos(p token.Pos) string {
	pos := s.fset.Position(p)
	return fmt.Sprintf("%s:%d:%d", filepath.Base(pos.Filename), pos.Line, pos.Column)
}
