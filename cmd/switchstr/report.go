package main

import (
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/chazu/switchstr/scan"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

// reporter prints diagnostics as file:line:col: severity: message lines,
// colored when writing to a terminal.
type reporter struct {
	w     io.Writer
	color bool
	wd    string

	errors   int
	warnings int
}

func newReporter(f *os.File) *reporter {
	wd, _ := os.Getwd()
	return &reporter{
		w:     f,
		color: colorEnabled(f),
		wd:    wd,
	}
}

func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *reporter) diagnostics(fset *token.FileSet, diags []scan.Diagnostic) {
	for _, d := range diags {
		r.diagnostic(fset, d)
	}
}

func (r *reporter) diagnostic(fset *token.FileSet, d scan.Diagnostic) {
	pos := fset.Position(d.Pos)
	pos.Filename = r.rel(pos.Filename)

	severity := d.Severity.String()
	if d.Severity == scan.SeverityError {
		r.errors++
		severity = r.paint(ansiRed, severity)
	} else {
		r.warnings++
		severity = r.paint(ansiYellow, severity)
	}
	fmt.Fprintf(r.w, "%s: %s: %s [%s]\n", r.paint(ansiBold, pos.String()), severity, d.Message, d.Code)
}

// errorf prints a diagnostic-less error, such as a load failure.
func (r *reporter) errorf(format string, args ...any) {
	r.errors++
	fmt.Fprintf(r.w, "%s %s\n", r.paint(ansiRed, "Error:"), fmt.Sprintf(format, args...))
}

func (r *reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

func (r *reporter) rel(path string) string {
	if r.wd == "" {
		return path
	}
	if rel, err := filepath.Rel(r.wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
