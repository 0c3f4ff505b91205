package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/tliron/commonlog"

	"github.com/chazu/switchstr/gen"
	"github.com/chazu/switchstr/gencache"
	"github.com/chazu/switchstr/scan"
)

var log = commonlog.GetLogger("switchstr")

// generatedPrefix starts every file the generator writes. Only files with
// it are ever removed.
var generatedPrefix = []byte("// Code generated by switchstr")

// handleGenCommand processes the `switchstr gen` subcommand.
// Usage:
//
//	switchstr gen                 # packages from switchstr.toml
//	switchstr gen ./hl7/...       # ad-hoc packages
//	switchstr gen -force          # ignore the generation cache
func handleGenCommand(args []string) int {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	tag := fs.String("tags", "", "Template build tag (overrides switchstr.toml)")
	force := fs.Bool("force", false, "Regenerate packages even if the cache says they are up to date")
	fs.Parse(args)

	m, err := loadConfig(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading switchstr.toml: %v\n", err)
		return 1
	}

	g := &generator{
		opts:    options(m, *tag),
		force:   *force,
		verbose: *verbose,
		report:  newReporter(os.Stderr),
	}
	if !m.Cache.Disabled {
		g.cache, err = gencache.Open(m.CacheDir())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	pkgs, err := scan.Load(packageDir(m, fs.Args()), g.opts.Tag, patterns(m, fs.Args())...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	failed := false
	for _, pkg := range pkgs {
		if err := g.generatePackage(pkg); err != nil {
			if !errors.Is(err, errInvalidSites) {
				g.report.errorf("%s: %v", pkg.Path, err)
			}
			failed = true
		}
	}

	if g.cache != nil {
		if err := g.cache.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}
	if g.verbose {
		fmt.Printf("Generated %d package(s), %d up to date, %d file(s) written\n", g.generated, g.upToDate, g.written)
	}
	if failed {
		return 1
	}
	return 0
}

var errInvalidSites = errors.New("invalid sites")

type generator struct {
	opts    gen.Options
	cache   *gencache.Cache
	force   bool
	verbose bool
	report  *reporter

	generated int
	upToDate  int
	written   int
}

func (g *generator) generatePackage(pkg *scan.Package) error {
	templates := templateFiles(pkg, g.opts)
	if len(templates) == 0 {
		log.Debugf("%s: no templates", pkg.Path)
		if g.cache == nil {
			return nil
		}
		if err := g.removeAll(g.cache.Outputs(pkg.Path)); err != nil {
			return err
		}
		g.cache.Forget(pkg.Path)
		return nil
	}

	res := pkg.Scan(scan.Config{Tag: g.opts.Tag, RegistryFile: g.opts.RegistryFile})
	sum, err := cacheSum(templates, g.opts, res)
	if err != nil {
		return err
	}
	if g.cache != nil && !g.force && g.cache.Fresh(pkg.Path, sum) {
		log.Debugf("%s: up to date", pkg.Path)
		g.upToDate++
		return nil
	}

	out, err := gen.Generate(pkg, g.opts)
	var list *scan.ErrorList
	if errors.As(err, &list) {
		g.report.diagnostics(list.Fset, list.Diagnostics)
		// Outputs of an earlier run would keep the package building with
		// the old dispatch.
		if err := g.removeAll(g.previousOutputs(pkg, templates)); err != nil {
			return err
		}
		if g.cache != nil {
			g.cache.Forget(pkg.Path)
		}
		return errInvalidSites
	}
	if err != nil {
		return err
	}
	g.report.diagnostics(pkg.Fset, out.Warnings)

	var paths []string
	for _, f := range out.Files {
		wrote, err := writeIfChanged(f.Path, f.Content)
		if err != nil {
			return err
		}
		if wrote {
			g.written++
			if g.verbose {
				fmt.Printf("  Wrote %s\n", g.report.rel(f.Path))
			}
		}
		paths = append(paths, f.Path)
	}

	stale := out.Stale
	if g.cache != nil {
		for _, prev := range g.cache.Outputs(pkg.Path) {
			if !slices.Contains(paths, prev) {
				stale = append(stale, prev)
			}
		}
	}
	if err := g.removeAll(stale); err != nil {
		return err
	}

	if g.cache != nil {
		g.cache.Put(pkg.Path, sum, paths)
	}
	g.generated++
	log.Infof("%s: %d sites in %d templates", pkg.Path, out.Sites, len(out.Templates))
	return nil
}

func (g *generator) removeAll(paths []string) error {
	for _, path := range paths {
		removed, err := removeGenerated(path)
		if err != nil {
			return err
		}
		if removed && g.verbose {
			fmt.Printf("  Removed %s\n", g.report.rel(path))
		}
	}
	return nil
}

// previousOutputs lists every file an earlier run may have generated for
// pkg: what the cache recorded, plus the outputs derived from the current
// templates in case the cache is disabled or was cleared.
func (g *generator) previousOutputs(pkg *scan.Package, templates []string) []string {
	var paths []string
	if g.cache != nil {
		paths = append(paths, g.cache.Outputs(pkg.Path)...)
	}
	for _, t := range templates {
		paths = append(paths, g.opts.OutputPath(t))
	}
	paths = append(paths, filepath.Join(pkg.Dir, g.opts.RegistryFile))
	slices.Sort(paths)
	return slices.Compact(paths)
}

// templateFiles returns the template files of pkg, excluding the registry.
func templateFiles(pkg *scan.Package, opts gen.Options) []string {
	var paths []string
	for _, f := range pkg.Files {
		path := pkg.Fset.Position(f.Pos()).Filename
		if scan.IsTemplate(f, opts.Tag) && filepath.Base(path) != opts.RegistryFile {
			paths = append(paths, path)
		}
	}
	return paths
}

// cacheSum digests everything the output of a package depends on: the
// template bytes and the sites as resolved by res, whose cases and labels
// may name constants declared outside the templates. The diagnostics
// cover the package scope, which decides generated name conflicts.
func cacheSum(templates []string, opts gen.Options, res *scan.Result) ([32]byte, error) {
	in := gencache.Input{
		Version: gen.Version,
		Options: []string{opts.Tag, opts.Suffix, opts.RegistryFile},
		Files:   make(map[string][]byte, len(templates)),
	}
	for _, path := range templates {
		data, err := os.ReadFile(path)
		if err != nil {
			return [32]byte{}, fmt.Errorf("reading template: %w", err)
		}
		in.Files[filepath.Base(path)] = data
	}
	for _, s := range res.Templates() {
		site := gencache.Site{Name: s.Name, Cases: s.Cases}
		for _, b := range s.Branches {
			indexes := make([]int, len(b.Labels))
			for i, l := range b.Labels {
				indexes[i] = l.Index
			}
			site.Labels = append(site.Labels, indexes)
		}
		in.Sites = append(in.Sites, site)
	}
	for _, d := range res.Diagnostics {
		in.Diagnostics = append(in.Diagnostics, d.Code+": "+d.Message)
	}
	return gencache.Sum(in)
}

// writeIfChanged writes content to path unless it already holds it, so
// that unchanged outputs keep their modification time.
func writeIfChanged(path string, content []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, content) {
		return false, nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// removeGenerated deletes path if it exists and was written by switchstr.
func removeGenerated(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if !bytes.HasPrefix(data, generatedPrefix) {
		log.Warningf("not removing %s: not generated by switchstr", path)
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("removing %s: %w", path, err)
	}
	return true, nil
}
