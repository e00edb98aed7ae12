package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseStylesheet(t *testing.T) {
	t.Parallel()

	css := BaseStylesheet()
	if css == "" {
		t.Fatal("BaseStylesheet() returned empty content")
	}
	if !strings.Contains(css, "body") {
		t.Error("base stylesheet has no body rule")
	}
	if !strings.Contains(css, "print-color-adjust") {
		t.Error("base stylesheet missing print color adjustment")
	}
}

func TestLoadOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := "body { font-size: 14pt; }\n"
	if err := os.WriteFile(filepath.Join(dir, "custom.css"), []byte(want), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadOverride(dir, "custom")
	if err != nil {
		t.Fatalf("LoadOverride() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadOverride() = %q, want %q", got, want)
	}
}

func TestLoadOverrideNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadOverride(t.TempDir(), "missing")
	if !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadOverride() error = %v, want ErrStyleNotFound", err)
	}
}
