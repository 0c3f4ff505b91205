package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/switchstr/scan"
)

// handleCheckCommand processes the `switchstr check` subcommand.
// Usage:
//
//	switchstr check                 # packages from switchstr.toml
//	switchstr check ./hl7/...       # ad-hoc packages
//	switchstr check -tags strswitch # custom template tag
func handleCheckCommand(args []string) int {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output: list every site")
	tag := fs.String("tags", "", "Template build tag (overrides switchstr.toml)")
	fs.Parse(args)

	m, err := loadConfig(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading switchstr.toml: %v\n", err)
		return 1
	}
	opts := options(m, *tag)

	pkgs, err := scan.Load(packageDir(m, fs.Args()), opts.Tag, patterns(m, fs.Args())...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	r := newReporter(os.Stderr)
	sites := 0
	for _, pkg := range pkgs {
		res := pkg.Scan(scan.Config{Tag: opts.Tag, RegistryFile: opts.RegistryFile})
		r.diagnostics(pkg.Fset, res.Diagnostics)
		sites += len(res.Sites)
		if *verbose {
			for _, s := range res.Sites {
				pos := pkg.Fset.Position(s.Switch.Pos())
				pos.Filename = r.rel(pos.Filename)
				fmt.Printf("%s: switch %s: %d cases\n", pos, s.Name, len(s.Cases))
			}
		}
	}

	if *verbose {
		fmt.Printf("Checked %d site(s) in %d package(s): %d error(s), %d warning(s)\n", sites, len(pkgs), r.errors, r.warnings)
	}
	if r.errors > 0 {
		return 1
	}
	return 0
}
