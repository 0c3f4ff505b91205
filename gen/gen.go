// Package gen rewrites switchstr template files into dense-index switches
// and emits the per-package case registries.
package gen

import (
	"fmt"
	"go/ast"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/switchstr/scan"
)

// Version is mixed into cache keys; bump it when generated output changes.
const Version = "1"

var log = commonlog.GetLogger("switchstr.gen")

// Options controls generation.
type Options struct {
	Tag          string // template build tag
	Suffix       string // appended to a template's base name, replacing ".go"
	RegistryFile string // per-package registry file name
}

// DefaultOptions returns the options used when no manifest is present.
func DefaultOptions() Options {
	return Options{
		Tag:          "switchstr",
		Suffix:       "_switch.go",
		RegistryFile: "switchstr_registry.go",
	}
}

// File is one generated file.
type File struct {
	Path    string
	Content []byte
}

// Output is the result of generating one package.
type Output struct {
	Files     []File
	Templates []string // template files the output was derived from
	Sites     int

	// Stale lists generated files that should no longer exist.
	Stale []string

	Warnings []scan.Diagnostic
}

// OutputPath returns the path of the file generated from template.
func (o Options) OutputPath(template string) string {
	return strings.TrimSuffix(template, ".go") + o.Suffix
}

// Generate validates every site of pkg and produces the rewritten template
// files and the registry file. It fails with a *scan.ErrorList if any site
// is invalid, in which case nothing should be written.
//
// Generate rewrites pkg's syntax trees in place; pkg must not be reused.
func Generate(pkg *scan.Package, opts Options) (*Output, error) {
	if opts.Tag == "" {
		return nil, fmt.Errorf("a template build tag is required")
	}
	res := pkg.Scan(scan.Config{Tag: opts.Tag, RegistryFile: opts.RegistryFile})
	if err := res.Errors(pkg.Fset); err != nil {
		return nil, err
	}

	out := &Output{Warnings: res.Diagnostics}

	bySite := make(map[*ast.File][]*scan.Site)
	for _, s := range res.Templates() {
		bySite[s.File] = append(bySite[s.File], s)
	}

	for _, f := range pkg.Files {
		if !scan.IsTemplate(f, opts.Tag) {
			continue
		}
		path := pkg.Fset.Position(f.Pos()).Filename
		if filepath.Base(path) == opts.RegistryFile {
			continue
		}
		sites := bySite[f]
		code, err := rewriteFile(pkg, f, sites, opts)
		if err != nil {
			return nil, fmt.Errorf("rewriting %s: %w", path, err)
		}
		out.Templates = append(out.Templates, path)
		out.Files = append(out.Files, File{Path: opts.OutputPath(path), Content: code})
		out.Sites += len(sites)
		log.Debugf("%s: %d sites", path, len(sites))
	}

	registryPath := filepath.Join(pkg.Dir, opts.RegistryFile)
	if out.Sites > 0 {
		code, err := registryFile(pkg, res.Templates())
		if err != nil {
			return nil, fmt.Errorf("generating %s: %w", registryPath, err)
		}
		out.Files = append(out.Files, File{Path: registryPath, Content: code})
	} else {
		out.Stale = append(out.Stale, registryPath)
	}

	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Path < out.Files[j].Path })
	return out, nil
}
