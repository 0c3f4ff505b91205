package scan

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	"golang.org/x/tools/go/packages"
)

var log = commonlog.GetLogger("switchstr.scan")

// Load loads the packages matching patterns, relative to dir, with the
// template tag set so template files are parsed and type-checked.
//
// Type errors inside template files fail the load, except duplicate cases.
// Errors elsewhere are logged and tolerated: non-template code may refer
// to generated names that do not exist yet.
func Load(dir, tag string, patterns ...string) ([]*Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo,
		Dir: dir,
	}
	if tag != "" {
		cfg.BuildFlags = []string{"-tags=" + tag}
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", strings.Join(patterns, " "), err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for %s", strings.Join(patterns, " "))
	}

	var out []*Package
	for _, pkg := range pkgs {
		if pkg.Types == nil || pkg.TypesInfo == nil {
			return nil, fmt.Errorf("type information not available for %s: %v", pkg.PkgPath, pkg.Errors)
		}

		p := &Package{
			Path:  pkg.PkgPath,
			Name:  pkg.Name,
			Fset:  pkg.Fset,
			Files: pkg.Syntax,
			Types: pkg.Types,
			Info:  pkg.TypesInfo,
		}
		if len(pkg.GoFiles) > 0 {
			p.Dir = filepath.Dir(pkg.GoFiles[0])
		}

		templates := make(map[string]bool)
		for _, f := range pkg.Syntax {
			if IsTemplate(f, tag) {
				templates[pkg.Fset.Position(f.Pos()).Filename] = true
			}
		}
		for _, e := range pkg.Errors {
			if templates[errorFile(e)] && !IsDuplicateCase(e.Msg) {
				return nil, fmt.Errorf("package errors: %v", e)
			}
			log.Warningf("%s: %v", pkg.PkgPath, e)
		}

		log.Debugf("loaded %s: %d files, %d templates", p.Path, len(p.Files), len(templates))
		out = append(out, p)
	}
	return out, nil
}

// IsDuplicateCase reports whether a type checker message is about a
// duplicate switch case. The scanner reports those with the offending
// label and the earlier branch, so they do not fail a load.
func IsDuplicateCase(msg string) bool {
	msg = strings.TrimSpace(msg)
	return strings.HasPrefix(msg, "duplicate case") || msg == "previous case"
}

// errorFile extracts the file name from a packages.Error position of the
// form "file:line:col".
func errorFile(e packages.Error) string {
	pos := e.Pos
	for i := 0; i < 2; i++ {
		j := strings.LastIndexByte(pos, ':')
		if j < 0 {
			break
		}
		if _, err := strconv.Atoi(pos[j+1:]); err != nil {
			break
		}
		pos = pos[:j]
	}
	return pos
}
