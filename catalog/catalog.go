// Package catalog loads per-renderer metadata from YAML files: display
// names, scene formats, and install instructions shown when a renderer is
// missing.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// EnvDataDir overrides the catalog search path.
const EnvDataDir = "RENDERSCOPE_DATA_DIR"

const defaultDataDir = "data/renderers"

// Entry is one renderer's catalog record.
type Entry struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Formats     []string `yaml:"formats"`
	InstallHint string   `yaml:"install_hint"`
	Homepage    string   `yaml:"homepage,omitempty"`
}

// Catalog is a loaded set of renderer entries, keyed by ID.
type Catalog struct {
	mu      sync.Mutex
	dir     string
	entries map[string]Entry
}

// New returns a catalog reading from dir. An empty dir selects
// $RENDERSCOPE_DATA_DIR, then data/renderers relative to the working
// directory.
func New(dir string) *Catalog {
	if dir == "" {
		dir = os.Getenv(EnvDataDir)
	}
	if dir == "" {
		dir = defaultDataDir
	}
	return &Catalog{dir: dir}
}

// load reads every .yaml file in the catalog directory once. A missing
// directory yields an empty catalog rather than an error; the framework
// works without metadata, just with poorer error messages.
func (c *Catalog) load() (map[string]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries != nil {
		return c.entries, nil
	}

	entries := map[string]Entry{}
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			c.entries = entries
			return entries, nil
		}
		return nil, fmt.Errorf("read catalog dir %s: %w", c.dir, err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(c.dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var e Entry
		if err := yaml.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if e.ID == "" {
			e.ID = strings.TrimSuffix(f.Name(), ".yaml")
		}
		entries[e.ID] = e
	}
	c.entries = entries
	return entries, nil
}

// Lookup returns the entry for a renderer ID.
func (c *Catalog) Lookup(id string) (Entry, bool, error) {
	entries, err := c.load()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries[id]
	return e, ok, nil
}

// InstallHint returns the install instructions for id, or empty when
// unknown.
func (c *Catalog) InstallHint(id string) string {
	e, ok, err := c.Lookup(id)
	if err != nil || !ok {
		return ""
	}
	return e.InstallHint
}

// IDs lists the catalogued renderer IDs, sorted.
func (c *Catalog) IDs() ([]string, error) {
	entries, err := c.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// ClearCache forces a reload on the next access.
func (c *Catalog) ClearCache() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
