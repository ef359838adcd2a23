package theme

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultPalette(t *testing.T) {
	p := Default()
	if p.Name != "plasma" {
		t.Errorf("Name = %q, want plasma", p.Name)
	}
	if len(p.Colors) != 11 {
		t.Fatalf("got %d colors, want 11", len(p.Colors))
	}
	if p.Colors[0] != (RGB{13, 8, 135}) {
		t.Errorf("first color = %v", p.Colors[0])
	}
}

func TestParseGPL(t *testing.T) {
	src := `GIMP Palette
Name: two
Columns: 2
# comment
  0   0   0	black
255 255 255	white
not a color
`
	p, err := ParseGPL(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseGPL: %v", err)
	}
	if p.Name != "two" || len(p.Colors) != 2 {
		t.Fatalf("got %q with %d colors", p.Name, len(p.Colors))
	}
}

func TestParseGPLEmpty(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\nName: none\n")); err == nil {
		t.Error("expected error for palette without colors")
	}
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	if err != nil || p.Name != "plasma" {
		t.Fatalf("LoadOrDefault(\"\") = %v, %v", p, err)
	}

	path := filepath.Join(t.TempDir(), "mono.gpl")
	if err := os.WriteFile(path, []byte("GIMP Palette\nName: mono\n10 20 30 x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p, err = LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if p.Index(0) != (RGB{10, 20, 30}) {
		t.Errorf("Index(0) = %v", p.Index(0))
	}

	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}

	if got := p.Lookup(-1); got != p.Colors[0] {
		t.Errorf("Lookup(-1) = %v", got)
	}
	if got := p.Lookup(2); got != p.Colors[1] {
		t.Errorf("Lookup(2) = %v", got)
	}
	if got := p.Lookup(0.5); got != (RGB{100, 50, 25}) {
		t.Errorf("Lookup(0.5) = %v", got)
	}
}

func TestIndexClamps(t *testing.T) {
	p := &Palette{Colors: []RGB{{1, 1, 1}, {2, 2, 2}}}
	if p.Index(-3) != p.Colors[0] || p.Index(9) != p.Colors[1] {
		t.Error("Index should clamp to the ends")
	}
}

func TestHex(t *testing.T) {
	if got := Hex(RGB{255, 0, 16}); got != "#ff0010" {
		t.Errorf("Hex = %q", got)
	}
}
