// Package manifest handles switchstr.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "switchstr.toml"

// Manifest represents a switchstr.toml project configuration.
type Manifest struct {
	Generate Generate `toml:"generate"`
	Cache    Cache    `toml:"cache"`
	Log      Log      `toml:"log"`

	// Dir is the directory containing the switchstr.toml file (set at load time).
	// Empty for the defaults returned by Default.
	Dir string `toml:"-"`
}

// Generate configures template detection and generator output.
type Generate struct {
	Tag          string   `toml:"tag"`
	Suffix       string   `toml:"suffix"`
	RegistryFile string   `toml:"registry-file"`
	Packages     []string `toml:"packages"`
}

// Cache configures the generation cache.
type Cache struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no switchstr.toml exists.
func Default() *Manifest {
	m := &Manifest{}
	m.applyDefaults()
	return m
}

// Load parses a switchstr.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	m.applyDefaults()
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a switchstr.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

func (m *Manifest) applyDefaults() {
	if m.Generate.Tag == "" {
		m.Generate.Tag = "switchstr"
	}
	if m.Generate.Suffix == "" {
		m.Generate.Suffix = "_switch.go"
	}
	if m.Generate.RegistryFile == "" {
		m.Generate.RegistryFile = "switchstr_registry.go"
	}
	if len(m.Generate.Packages) == 0 {
		m.Generate.Packages = []string{"./..."}
	}
	if m.Cache.Dir == "" {
		m.Cache.Dir = ".switchstr"
	}
}

func (m *Manifest) validate() error {
	if filepath.Ext(m.Generate.Suffix) != ".go" {
		return fmt.Errorf("generate.suffix %q must end in .go", m.Generate.Suffix)
	}
	if m.Generate.RegistryFile != filepath.Base(m.Generate.RegistryFile) || filepath.Ext(m.Generate.RegistryFile) != ".go" {
		return fmt.Errorf("generate.registry-file %q must be a .go file name", m.Generate.RegistryFile)
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must not be negative")
	}
	return nil
}

// CacheDir returns the absolute path of the generation cache directory.
func (m *Manifest) CacheDir() string {
	return m.path(m.Cache.Dir)
}

// LogFile returns the absolute path of the log file, or "" for stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.path(m.Log.File)
}

func (m *Manifest) path(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
