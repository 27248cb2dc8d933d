package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEntry(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "pbrt.yaml", `
id: pbrt
display_name: PBRT v4
formats: [pbrt]
install_hint: cmake -B build pbrt-v4
`)
	c := New(dir)
	e, ok, err := c.Lookup("pbrt")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("pbrt not found")
	}
	if e.DisplayName != "PBRT v4" {
		t.Errorf("display_name = %q", e.DisplayName)
	}
	if len(e.Formats) != 1 || e.Formats[0] != "pbrt" {
		t.Errorf("formats = %v", e.Formats)
	}
	if c.InstallHint("pbrt") == "" {
		t.Error("install hint empty")
	}
}

func TestIDDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "cycles.yaml", "display_name: Blender Cycles\n")
	c := New(dir)
	if _, ok, _ := c.Lookup("cycles"); !ok {
		t.Error("filename-derived ID not found")
	}
}

func TestMissingDirIsEmpty(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope"))
	ids, err := c.IDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v", ids)
	}
}

func TestCacheAndClear(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "a.yaml", "id: a\n")
	c := New(dir)
	if _, ok, _ := c.Lookup("a"); !ok {
		t.Fatal("a not found")
	}

	writeEntry(t, dir, "b.yaml", "id: b\n")
	if _, ok, _ := c.Lookup("b"); ok {
		t.Error("cache reloaded without ClearCache")
	}
	c.ClearCache()
	if _, ok, _ := c.Lookup("b"); !ok {
		t.Error("b not found after ClearCache")
	}
}

func TestMalformedYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "bad.yaml", "::not yaml::{")
	c := New(dir)
	if _, _, err := c.Lookup("bad"); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeEntry(t, dir, "env.yaml", "id: env\n")
	t.Setenv(EnvDataDir, dir)
	c := New("")
	if _, ok, _ := c.Lookup("env"); !ok {
		t.Error("env-configured dir not used")
	}
}
