// Package vet exposes the switchstr site checks as a go/analysis analyzer,
// so that unlisted and repetitive cases are reported by go vet, gopls and
// other analysis drivers without running the generator.
package vet

import (
	"golang.org/x/tools/go/analysis"

	"github.com/chazu/switchstr/scan"
)

const doc = `check switchstr.On switch statements

Every case label of a switch on switchstr.On must be a constant listed in
the case set passed to On, and no case set entry may be handled twice. The
switch must also be the only use of On: a call anywhere else is reported.

Run with -tags set to the template tag so that template files are part of
the analyzed package.`

// Analyzer reports invalid switchstr sites.
var Analyzer = &analysis.Analyzer{
	Name:             "switchstr",
	Doc:              doc,
	URL:              "https://pkg.go.dev/github.com/chazu/switchstr/vet",
	Run:              run,
	RunDespiteErrors: true,
}

var (
	tag          string
	registryFile string
)

func init() {
	Analyzer.Flags.StringVar(&tag, "tag", "switchstr", "template build `tag`; empty treats every file as a template")
	Analyzer.Flags.StringVar(&registryFile, "registry-file", "switchstr_registry.go", "base `name` of the generated registry file")
}

func run(pass *analysis.Pass) (any, error) {
	res := scan.Files(pass.Fset, pass.Files, pass.TypesInfo, pass.Pkg, scan.Config{
		Tag:          tag,
		RegistryFile: registryFile,
	})
	for _, d := range res.Diagnostics {
		diag := analysis.Diagnostic{
			Pos:      d.Pos,
			End:      d.End,
			Category: d.Code,
			Message:  d.Message,
		}
		if d.Related.IsValid() {
			diag.Related = []analysis.RelatedInformation{{Pos: d.Related, Message: "first handled here"}}
		}
		pass.Report(diag)
	}
	return nil, nil
}
