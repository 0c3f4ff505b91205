package gencache

import (
	"os"
	"path/filepath"
	"testing"
)

func mustSum(t *testing.T, in Input) [32]byte {
	t.Helper()
	sum, err := Sum(in)
	if err != nil {
		t.Fatal(err)
	}
	return sum
}

func TestSumDeterministic(t *testing.T) {
	a := Input{
		Version: "1",
		Options: []string{"switchstr", "_switch.go"},
		Files:   map[string][]byte{"a.go": []byte("package a"), "b.go": []byte("package a // b")},
	}
	b := Input{
		Version: "1",
		Options: []string{"switchstr", "_switch.go"},
		Files:   map[string][]byte{"b.go": []byte("package a // b"), "a.go": []byte("package a")},
	}
	if mustSum(t, a) != mustSum(t, b) {
		t.Error("equal inputs produced different sums")
	}

	changes := map[string]Input{
		"version":     {Version: "2", Options: a.Options, Files: a.Files},
		"options":     {Version: "1", Options: []string{"other", "_switch.go"}, Files: a.Files},
		"content":     {Version: "1", Options: a.Options, Files: map[string][]byte{"a.go": []byte("package a\n"), "b.go": []byte("package a // b")}},
		"renamed":     {Version: "1", Options: a.Options, Files: map[string][]byte{"c.go": []byte("package a"), "b.go": []byte("package a // b")}},
		"sites":       {Version: "1", Options: a.Options, Files: a.Files, Sites: []Site{{Name: "segment", Cases: []string{"PID"}, Labels: [][]int{{0}}}}},
		"diagnostics": {Version: "1", Options: a.Options, Files: a.Files, Diagnostics: []string{"not-template: switch is outside a template file"}},
	}
	for name, in := range changes {
		t.Run(name, func(t *testing.T) {
			if mustSum(t, in) == mustSum(t, a) {
				t.Errorf("changing the %s did not change the sum", name)
			}
		})
	}
}

func TestSumResolvedCases(t *testing.T) {
	site := func(patient string) Input {
		return Input{
			Version: "1",
			Files:   map[string][]byte{"segments.go": []byte("switch switchstr.On(seg, \"ERR\", Patient) {}")},
			Sites:   []Site{{Name: "describe0", Cases: []string{"ERR", patient}, Labels: [][]int{{1}}}},
		}
	}
	if mustSum(t, site("PID")) == mustSum(t, site("PV1")) {
		t.Error("a changed case text with identical template bytes kept the sum")
	}
}

func TestFreshAfterSave(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "segment_switch.go")
	if err := os.WriteFile(out, []byte("package hl7"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum := mustSum(t, Input{Version: "1", Files: map[string][]byte{"segment.go": []byte("x")}})

	c, err := Open(filepath.Join(dir, ".switchstr"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Fresh("example.com/hl7", sum) {
		t.Error("empty cache reported a fresh package")
	}
	c.Put("example.com/hl7", sum, []string{out})
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(filepath.Join(dir, ".switchstr"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reopened.Len())
	}
	if !reopened.Fresh("example.com/hl7", sum) {
		t.Error("saved entry not fresh after reopening")
	}
	if reopened.Fresh("example.com/hl7", [32]byte{1}) {
		t.Error("entry fresh for a different sum")
	}
	if got := reopened.Outputs("example.com/hl7"); len(got) != 1 || got[0] != out {
		t.Errorf("Outputs = %v, want [%s]", got, out)
	}

	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}
	if reopened.Fresh("example.com/hl7", sum) {
		t.Error("entry fresh although its output was removed")
	}
}

func TestForget(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	c.Put("p", [32]byte{}, nil)
	c.Forget("p")
	if c.Len() != 0 {
		t.Errorf("Len = %d after Forget, want 0", c.Len())
	}
}

func TestOpenDiscardsCorruptCache(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte{0xff, 0x01}, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestSaveUnchangedWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Save of an unchanged cache created %s", dir)
	}
}
