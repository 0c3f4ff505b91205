// Package gencache remembers which packages were generated from which
// inputs, so that switchstr gen can skip packages whose templates, resolved
// sites, options and generator version are unchanged.
package gencache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/tliron/commonlog"
)

// FileName is the name of the cache file inside the cache directory.
const FileName = "cache.cbor"

// formatVersion changes whenever the file layout does.
const formatVersion = 1

var log = commonlog.GetLogger("switchstr.cache")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("gencache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Input is everything generation output depends on. Template bytes alone
// are not enough: case entries and labels may name constants declared in
// other files or packages, so the resolved sites are part of the input.
type Input struct {
	Version     string            `cbor:"1,keyasint"`
	Options     []string          `cbor:"2,keyasint"`
	Files       map[string][]byte `cbor:"3,keyasint"` // template base name → content
	Sites       []Site            `cbor:"4,keyasint"`
	Diagnostics []string          `cbor:"5,keyasint"`
}

// Site is the resolved form of one switch: its case texts and, per case
// clause, the index of every label.
type Site struct {
	Name   string   `cbor:"1,keyasint"`
	Cases  []string `cbor:"2,keyasint"`
	Labels [][]int  `cbor:"3,keyasint"`
}

// Sum computes the SHA-256 digest of the canonical encoding of in. Equal
// inputs give equal sums regardless of map order.
func Sum(in Input) ([32]byte, error) {
	data, err := cborEncMode.Marshal(in)
	if err != nil {
		return [32]byte{}, fmt.Errorf("gencache: encode input: %w", err)
	}
	return sha256.Sum256(data), nil
}

// Entry records one generated package.
type Entry struct {
	Sum     [32]byte `cbor:"1,keyasint"`
	Outputs []string `cbor:"2,keyasint"`
}

type cacheFile struct {
	Format  int              `cbor:"1,keyasint"`
	Entries map[string]Entry `cbor:"2,keyasint"`
}

// Cache is the set of entries stored in one cache directory, keyed by
// package path. It is safe for concurrent use.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool
}

// Open reads the cache stored in dir. A missing cache is empty; an
// unreadable or outdated one is discarded.
func Open(dir string) (*Cache, error) {
	c := &Cache{
		path:    filepath.Join(dir, FileName),
		entries: make(map[string]Entry),
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gencache: read %s: %w", c.path, err)
	}

	var f cacheFile
	if err := cbor.Unmarshal(data, &f); err != nil {
		log.Warningf("discarding unreadable cache %s: %v", c.path, err)
		return c, nil
	}
	if f.Format != formatVersion {
		log.Infof("discarding cache %s with format %d", c.path, f.Format)
		return c, nil
	}
	if f.Entries != nil {
		c.entries = f.Entries
	}
	return c, nil
}

// Fresh reports whether pkgPath was generated from input with the given
// sum and all of its outputs are still on disk.
func (c *Cache) Fresh(pkgPath string, sum [32]byte) bool {
	c.mu.Lock()
	e, ok := c.entries[pkgPath]
	c.mu.Unlock()
	if !ok || e.Sum != sum {
		return false
	}
	for _, out := range e.Outputs {
		if _, err := os.Stat(out); err != nil {
			log.Debugf("%s: output %s missing", pkgPath, out)
			return false
		}
	}
	return true
}

// Outputs returns the files recorded for pkgPath by the last Put.
func (c *Cache) Outputs(pkgPath string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.entries[pkgPath].Outputs...)
}

// Put records that pkgPath was generated from input with the given sum.
func (c *Cache) Put(pkgPath string, sum [32]byte, outputs []string) {
	outputs = append([]string(nil), outputs...)
	sort.Strings(outputs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pkgPath] = Entry{Sum: sum, Outputs: outputs}
	c.dirty = true
}

// Forget drops the entry of pkgPath.
func (c *Cache) Forget(pkgPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[pkgPath]; ok {
		delete(c.entries, pkgPath)
		c.dirty = true
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache back if it changed since Open.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := cborEncMode.Marshal(cacheFile{Format: formatVersion, Entries: c.entries})
	if err != nil {
		return fmt.Errorf("gencache: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("gencache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("gencache: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("gencache: %w", err)
	}
	c.dirty = false
	return nil
}
