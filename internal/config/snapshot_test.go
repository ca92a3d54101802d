package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const miniLayout = `
(defsrc a s)
(deflayer U_BASE a s)
`

const miniLayoutV2 = `
(defsrc a s)
(deflayer U_BASE a s)
(deflayer U_ALT  s a)
`

func writeLayout(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.kbd")
	writeLayout(t, path, miniLayout)

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	if snap.ID == "" {
		t.Error("snapshot has no ID")
	}
	if snap.Path != path {
		t.Errorf("Path = %q, want %q", snap.Path, path)
	}
	if snap.Table == nil || snap.Table.Base() != "U_BASE" {
		t.Errorf("unexpected table: %+v", snap.Table)
	}
}

func TestManagerReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.kbd")
	writeLayout(t, path, miniLayout)

	initial, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}

	var swapped []*Snapshot
	m := NewManager(initial, func(s *Snapshot) { swapped = append(swapped, s) }, nil)

	writeLayout(t, path, miniLayoutV2)
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	cur := m.Current()
	if cur.ID == initial.ID {
		t.Error("reload did not produce a new snapshot")
	}
	if got := len(cur.Table.LayerNames()); got != 2 {
		t.Errorf("reloaded table has %d layers, want 2", got)
	}
	if len(swapped) != 1 || swapped[0] != cur {
		t.Errorf("swap callback fired %d times", len(swapped))
	}
}

func TestManagerReloadKeepsActiveOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.kbd")
	writeLayout(t, path, miniLayout)

	initial, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}

	var swaps int
	m := NewManager(initial, func(*Snapshot) { swaps++ }, nil)

	// The replacement leaves a cataloged key transparent in the base
	// layer: the reload fails and the active snapshot stays in force.
	writeLayout(t, path, "(defsrc a s)\n(deflayer U_BASE a _)")
	err = m.Reload()
	if err == nil {
		t.Fatal("Reload() expected an error")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("Reload() error = %T, want *ConfigError", err)
	}
	if got := m.Current(); got != initial {
		t.Errorf("Current() = %v, want the initial snapshot", got.ID)
	}
	if swaps != 0 {
		t.Errorf("swap callback fired %d times, want 0", swaps)
	}

	// The file recovering makes the next reload succeed.
	writeLayout(t, path, miniLayoutV2)
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() after recovery error: %v", err)
	}
	if swaps != 1 {
		t.Errorf("swap callback fired %d times, want 1", swaps)
	}
}
