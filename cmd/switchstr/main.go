// switchstr - generates dense-index switch statements from string switch templates
package main

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/switchstr/gen"
	"github.com/chazu/switchstr/manifest"

	_ "github.com/tliron/commonlog/simple"
)

// version is set at link time.
var version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: switchstr <command> [options] [packages...]\n\n")
	fmt.Fprintf(os.Stderr, "Rewrites switch statements on switchstr.On in template files into\n")
	fmt.Fprintf(os.Stderr, "switches on a precomputed case index.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  gen       Validate templates and write generated files\n")
	fmt.Fprintf(os.Stderr, "  check     Validate templates without writing anything\n")
	fmt.Fprintf(os.Stderr, "  lsp       Start the language server on stdio\n")
	fmt.Fprintf(os.Stderr, "  version   Print the version\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  switchstr gen                # packages from switchstr.toml, or ./...\n")
	fmt.Fprintf(os.Stderr, "  switchstr gen -force ./hl7   # regenerate even if up to date\n")
	fmt.Fprintf(os.Stderr, "  switchstr check -v ./...     # list every site found\n")
	fmt.Fprintf(os.Stderr, "\nRun 'switchstr <command> -h' for command options.\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "gen", "generate":
		os.Exit(handleGenCommand(args))
	case "check":
		os.Exit(handleCheckCommand(args))
	case "lsp":
		os.Exit(handleLSPCommand(args))
	case "version":
		fmt.Printf("switchstr %s (generator %s)\n", version, gen.Version)
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
}

// loadConfig finds switchstr.toml above the working directory, falling
// back to the defaults, and configures logging from it.
func loadConfig(verbose bool) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}

	verbosity := m.Log.Verbosity
	if verbose {
		verbosity = max(verbosity, 2)
	}
	if path := m.LogFile(); path != "" {
		commonlog.Configure(verbosity, &path)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	return m, nil
}

// options returns the generator options of m with a -tags override applied.
func options(m *manifest.Manifest, tag string) gen.Options {
	opts := gen.Options{
		Tag:          m.Generate.Tag,
		Suffix:       m.Generate.Suffix,
		RegistryFile: m.Generate.RegistryFile,
	}
	if tag != "" {
		opts.Tag = tag
	}
	return opts
}

// patterns returns the package patterns to process: the command line if
// given, else the manifest's.
func patterns(m *manifest.Manifest, args []string) []string {
	if len(args) > 0 {
		return args
	}
	return m.Generate.Packages
}

// packageDir returns the directory package patterns are relative to.
func packageDir(m *manifest.Manifest, args []string) string {
	if len(args) > 0 || m.Dir == "" {
		return "."
	}
	return m.Dir
}
