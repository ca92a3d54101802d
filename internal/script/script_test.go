package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"layerd/internal/input/key"
)

const testSource = `
function copy_all()
	return "ctrl+a ctrl+c"
end

function oops()
	return 42
end

function boom()
	error("no thanks")
end

greeting = "not a function"
`

func TestRun(t *testing.T) {
	eng, err := LoadString(testSource)
	if err != nil {
		t.Fatalf("LoadString() error: %v", err)
	}
	defer eng.Close()

	chords, err := eng.Run("copy_all")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(chords) != 2 {
		t.Fatalf("Run() returned %d chords, want 2", len(chords))
	}
	if chords[0].Key != key.FromName("a") || !chords[0].Mods.Has(key.ModCtrl) {
		t.Errorf("chords[0] = %s, want ctrl+a", chords[0])
	}
	if chords[1].Key != key.FromName("c") {
		t.Errorf("chords[1] = %s, want ctrl+c", chords[1])
	}
}

func TestRunUnknownFunction(t *testing.T) {
	eng, err := LoadString(testSource)
	if err != nil {
		t.Fatalf("LoadString() error: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Run("missing"); !errors.Is(err, ErrUnknownFunction) {
		t.Errorf("Run(missing) error = %v, want ErrUnknownFunction", err)
	}
}

func TestRunBadResult(t *testing.T) {
	eng, err := LoadString(testSource)
	if err != nil {
		t.Fatalf("LoadString() error: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Run("oops"); !errors.Is(err, ErrBadResult) {
		t.Errorf("Run(oops) error = %v, want ErrBadResult", err)
	}
}

func TestRunLuaError(t *testing.T) {
	eng, err := LoadString(testSource)
	if err != nil {
		t.Fatalf("LoadString() error: %v", err)
	}
	defer eng.Close()

	if _, err := eng.Run("boom"); err == nil {
		t.Error("Run(boom) expected an error")
	}
}

func TestHas(t *testing.T) {
	eng, err := LoadString(testSource)
	if err != nil {
		t.Fatalf("LoadString() error: %v", err)
	}
	defer eng.Close()

	if !eng.Has("copy_all") {
		t.Error("Has(copy_all) = false")
	}
	if eng.Has("missing") {
		t.Error("Has(missing) = true")
	}
	// A non-function global does not count.
	if eng.Has("greeting") {
		t.Error("Has(greeting) = true")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.lua")
	if err := os.WriteFile(path, []byte(testSource), 0o644); err != nil {
		t.Fatal(err)
	}

	eng, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer eng.Close()

	if !eng.Has("copy_all") {
		t.Error("Has(copy_all) = false after Load")
	}
}

func TestLoadBadSource(t *testing.T) {
	if _, err := LoadString("function ("); err == nil {
		t.Error("LoadString() expected a parse error")
	}
}
