package gen

import (
	"bytes"
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/chazu/switchstr"
	"github.com/chazu/switchstr/scan"
)

// registryFile emits the case set constants and the Site variable of every
// site in the package.
func registryFile(pkg *scan.Package, sites []*scan.Site) ([]byte, error) {
	f := jen.NewFilePathName(pkg.Path, pkg.Name)
	f.HeaderComment("Code generated by switchstr. DO NOT EDIT.")
	f.ImportName(switchstr.ImportPath, "switchstr")

	for _, s := range sites {
		pos := pkg.Fset.Position(s.Switch.Pos())

		defs := []jen.Code{jen.Id(scan.LenConst(s.Name)).Op("=").Lit(len(s.Cases))}
		args := make([]jen.Code, 0, len(s.Cases))
		for i, c := range s.Cases {
			id := scan.CaseConst(s.Name, i)
			defs = append(defs, jen.Id(id).Op("=").Lit(c))
			args = append(args, jen.Id(id))
		}

		f.Commentf("Case set of the switch at %s:%d, in declaration order.", filepath.Base(pos.Filename), pos.Line)
		f.Const().Defs(defs...)
		f.Line()
		f.Commentf("%s resolves the subject of that switch to a case index.", scan.SiteVar(s.Name))
		f.Var().Id(scan.SiteVar(s.Name)).Op("=").Qual(switchstr.ImportPath, "NewSite").Call(args...)
		f.Line()
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
