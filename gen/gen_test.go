package gen

import (
	"errors"
	"go/build/constraint"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/switchstr/scan"
	"github.com/chazu/switchstr/scan/scantest"
)

const header = `//go:build switchstr

package segments

import "github.com/chazu/switchstr"
`

func generate(t *testing.T, body string) *Output {
	t.Helper()
	pkg := scantest.Check(t, scantest.File{Name: "segments.go", Source: header + body})
	out, err := Generate(pkg, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return out
}

func fileContent(t *testing.T, out *Output, path string) string {
	t.Helper()
	for _, f := range out.Files {
		if f.Path == path {
			return string(f.Content)
		}
	}
	var paths []string
	for _, f := range out.Files {
		paths = append(paths, f.Path)
	}
	t.Fatalf("no generated file %s in %v", path, paths)
	return ""
}

// typeCheckOutput checks the generated files as the package the Go
// toolchain would build without the template tag.
func typeCheckOutput(out *Output) error {
	var files []scantest.File
	for _, f := range out.Files {
		files = append(files, scantest.File{Name: f.Path, Source: string(f.Content)})
	}
	_, err := scantest.TypeCheck(files...)
	return err
}

const describe = `
func Describe(seg string) string {
	//switchstr:name segment
	switch switchstr.On(seg, "ERR", "MSH", "OBR", "PID") {
	case "ERR":
		return "error"
	case "MSH", "PID":
		return "header"
	default:
		return "other"
	}
}
`

func TestGenerateRewritesSite(t *testing.T) {
	out := generate(t, describe)

	if out.Sites != 1 {
		t.Errorf("Sites = %d, want 1", out.Sites)
	}
	if len(out.Files) != 2 {
		t.Fatalf("generated %d files, want 2", len(out.Files))
	}

	code := fileContent(t, out, "segments_switch.go")
	for _, want := range []string{
		"// Code generated by switchstr from segments.go. DO NOT EDIT.",
		"//go:build !switchstr",
		"switch segmentSite.Resolve(seg) {",
		"case 0:",
		"case 1, 3:",
		"default:",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("rewritten file missing %q:\n%s", want, code)
		}
	}
	for _, gone := range []string{"switchstr.On", `"github.com/chazu/switchstr"`, "//go:build switchstr\n"} {
		if strings.Contains(code, gone) {
			t.Errorf("rewritten file still contains %q:\n%s", gone, code)
		}
	}

	registry := fileContent(t, out, "switchstr_registry.go")
	for _, want := range []string{
		"// Code generated by switchstr. DO NOT EDIT.",
		"package segments",
		"segmentLen   = 4",
		`segmentCase0 = "ERR"`,
		`segmentCase3 = "PID"`,
		"var segmentSite = switchstr.NewSite(segmentCase0, segmentCase1, segmentCase2, segmentCase3)",
	} {
		if !strings.Contains(registry, want) {
			t.Errorf("registry missing %q:\n%s", want, registry)
		}
	}

	if err := typeCheckOutput(out); err != nil {
		t.Errorf("generated code does not type-check: %v", err)
	}

	goldenFile := filepath.Join("testdata", "segments_switch.go.golden")
	updateGolden(t, goldenFile, code)
	compareGolden(t, goldenFile, code)
}

func TestGeneratePreservesControlFlow(t *testing.T) {
	out := generate(t, `
func Route(seg string) (out []string) {
loop:
	for i := 0; i < 2; i++ {
		switch switchstr.On(seg, "A", "B", "C") {
		case "A":
			out = append(out, "a")
			fallthrough
		case "B":
			out = append(out, "b")
			break loop
		case "C":
			continue
		}
		out = append(out, "end")
	}
	return out
}
`)
	code := fileContent(t, out, "segments_switch.go")
	for _, want := range []string{"loop:", "switch route0Site.Resolve(seg) {", "fallthrough", "break loop", "continue"} {
		if !strings.Contains(code, want) {
			t.Errorf("rewritten file missing %q:\n%s", want, code)
		}
	}
	if err := typeCheckOutput(out); err != nil {
		t.Errorf("generated code does not type-check: %v", err)
	}
}

func TestGenerateRejectsInvalidSites(t *testing.T) {
	pkg := scantest.Check(t, scantest.File{Name: "segments.go", Source: header + `
func Describe(seg string) {
	switch switchstr.On(seg, "ERR", "MSH") {
	case "MSH":
	case "PV1":
	case "MSH":
	}
}
`})
	out, err := Generate(pkg, DefaultOptions())
	if out != nil {
		t.Error("Generate returned output for an invalid package")
	}
	var list *scan.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("err = %v, want *scan.ErrorList", err)
	}
	if len(list.Diagnostics) != 2 {
		t.Errorf("diagnostics = %d, want 2", len(list.Diagnostics))
	}
	if !strings.Contains(err.Error(), `unlisted case "PV1"`) || !strings.Contains(err.Error(), `repetitive case "MSH"`) {
		t.Errorf("error = %v", err)
	}
}

func TestGeneratedDuplicateCaseFailsToCompile(t *testing.T) {
	out := generate(t, describe)
	for i, f := range out.Files {
		if f.Path == "segments_switch.go" {
			out.Files[i].Content = []byte(strings.Replace(string(f.Content), "case 1, 3:", "case 1, 0:", 1))
		}
	}
	err := typeCheckOutput(out)
	if err == nil || !strings.Contains(err.Error(), "duplicate case") {
		t.Errorf("type-check error = %v, want duplicate case", err)
	}
}

func TestGenerateKeepsUsedImport(t *testing.T) {
	out := generate(t, `
var fallback = switchstr.NewSite("x")

func Describe(seg string) int {
	switch switchstr.On(seg, "ERR") {
	case "ERR":
		return 1
	}
	return fallback.Resolve(seg)
}
`)
	code := fileContent(t, out, "segments_switch.go")
	if !strings.Contains(code, `"github.com/chazu/switchstr"`) {
		t.Errorf("import dropped although still used:\n%s", code)
	}
	if err := typeCheckOutput(out); err != nil {
		t.Errorf("generated code does not type-check: %v", err)
	}
}

func TestGenerateTemplateWithoutSites(t *testing.T) {
	pkg := scantest.Check(t, scantest.File{Name: "plain.go", Source: `//go:build switchstr

package segments

func Answer() int { return 42 }
`})
	out, err := Generate(pkg, DefaultOptions())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out.Files) != 1 || out.Files[0].Path != "plain_switch.go" {
		t.Fatalf("files = %+v, want plain_switch.go only", out.Files)
	}
	if !strings.Contains(string(out.Files[0].Content), "//go:build !switchstr") {
		t.Errorf("constraint not inverted:\n%s", out.Files[0].Content)
	}
	if len(out.Stale) != 1 || out.Stale[0] != "switchstr_registry.go" {
		t.Errorf("Stale = %v, want the registry file", out.Stale)
	}
}

func TestGenerateRequiresTag(t *testing.T) {
	pkg := scantest.Check(t, scantest.File{Name: "segments.go", Source: header + describe})
	if _, err := Generate(pkg, Options{Suffix: "_switch.go"}); err == nil {
		t.Error("Generate without a tag should fail")
	}
}

func TestNegateTag(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"//go:build switchstr", "!switchstr"},
		{"//go:build !switchstr", "switchstr"},
		{"//go:build switchstr && linux", "!switchstr && linux"},
		{"//go:build switchstr || ignore", "!switchstr || ignore"},
		{"//go:build linux", "linux"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			expr, err := constraint.Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got := negateTag(expr, "switchstr").String(); got != tt.want {
				t.Errorf("negateTag(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	opts := DefaultOptions()
	if got := opts.OutputPath("/src/hl7/segment.go"); got != "/src/hl7/segment_switch.go" {
		t.Errorf("OutputPath = %s", got)
	}
}

// Golden file helpers

func updateGolden(t *testing.T, path, content string) {
	t.Helper()
	if os.Getenv("UPDATE_GOLDEN") == "" {
		return
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating testdata dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("updating golden file: %v", err)
	}
}

func compareGolden(t *testing.T, path, got string) {
	t.Helper()
	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Logf("Golden file %s does not exist. Run with UPDATE_GOLDEN=1 to create.", path)
		return
	}
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}
	if string(expected) != got {
		t.Errorf("output differs from golden file %s.\nRun with UPDATE_GOLDEN=1 to update.", path)
	}
}
